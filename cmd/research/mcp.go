package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/DlutRDSerivice/dlut-research-service/internal/mcptool"
	"github.com/DlutRDSerivice/dlut-research-service/internal/query"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server on stdio",
	Long: `Starts the tagger and the corpus search as an MCP server on Stdin/Stdout.
This lets AI agents call tag_text and search_papers as tools.`,
	Run: func(cmd *cobra.Command, args []string) {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		lexPath, _ := cmd.Flags().GetString("lexicon")
		subword, _ := cmd.Flags().GetBool("subword")

		tok, err := newTokenizer(subword)
		if err != nil {
			slog.Error("tokenizer error", "err", err)
			os.Exit(1)
		}
		entities, err := loadEntities(lexPath)
		if err != nil {
			slog.Error("lexicon error", "err", err)
			os.Exit(1)
		}

		var index *query.Index
		if dataDir != "" {
			records, err := loadCorpus(dataDir)
			if err != nil {
				slog.Error("corpus error", "err", err)
				os.Exit(1)
			}
			index = query.NewIndex(records)
			slog.Info("corpus loaded", "records", index.Len())
		}

		srv := mcptool.NewServer(version, tok, entities, index)

		// Ensure logs don't corrupt JSON-RPC on Stdout
		log.SetOutput(os.Stderr)
		slog.Info("starting MCP server (stdio)")
		if err := srv.ServeStdio(); err != nil {
			slog.Error("MCP server execution failed", "err", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("data-dir", "", "WoS export directory to search over")
	mcpCmd.Flags().String("lexicon", "", "YAML lexicon with entity phrases")
	mcpCmd.Flags().Bool("subword", false, "Tokenize with the sub-word tokenizer instead of word splitting")
}
