package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/DlutRDSerivice/dlut-research-service/internal/bio"
	"github.com/DlutRDSerivice/dlut-research-service/internal/config"
	"github.com/DlutRDSerivice/dlut-research-service/internal/lexicon"
	"github.com/DlutRDSerivice/dlut-research-service/internal/logging"
	"github.com/DlutRDSerivice/dlut-research-service/internal/token"
	"github.com/DlutRDSerivice/dlut-research-service/internal/wos"
)

var cfg *config.Cfg

var rootCmd = &cobra.Command{
	Use:   "research",
	Short: "Research-paper mining toolkit: datasets, tagging, search and serving",
	Long: `research turns Web of Science exports into fine-tuning datasets, tags text
against a phrase lexicon, searches the corpus with boolean field queries and
exposes the tagger over HTTP and MCP.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		level, _ := cmd.Flags().GetString("log-level")
		if level == "" {
			level = cfg.LogLevel
		}
		slog.SetDefault(logging.New(logging.ParseLevel(level)))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (default from RESEARCH_LOG_LEVEL)")
}

// newTokenizer picks the splitter shared by the tagging and dataset commands.
func newTokenizer(subword bool) (token.Tokenizer, error) {
	if subword {
		return token.NewSubword()
	}
	return token.Words{}, nil
}

// loadEntities reads the lexicon file. An empty path yields no entities.
func loadEntities(path string) ([]bio.Entity, error) {
	if path == "" {
		return nil, nil
	}
	lex, err := lexicon.Load(path)
	if err != nil {
		return nil, err
	}
	return lex.Entities(), nil
}

// loadCorpus reads every record from a WoS export directory, or from a single
// export file when path is not a directory.
func loadCorpus(path string) ([]*wos.Record, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return wos.ReadDir(path)
	}
	return wos.ReadFile(path)
}
