package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DlutRDSerivice/dlut-research-service/internal/cache"
	"github.com/DlutRDSerivice/dlut-research-service/internal/dataset"
	"github.com/DlutRDSerivice/dlut-research-service/internal/llm"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Generate a training dataset from a WoS export",
	Long: `Reads Web of Science plain-text exports and writes one of the datasets the
training side consumes:

- ner: BIO-labeled token sequences from abstract sentences (word_seq_NNNN.txt)
- method: keywords labeled by the completion model (method_ft_dataset.json)
- summarize_abstract: abstract-to-title pairs (summarize_abstract_dataset.json)`,
	Run: func(cmd *cobra.Command, args []string) {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		name, _ := cmd.Flags().GetString("name")
		outputDir, _ := cmd.Flags().GetString("output-dir")
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		lexPath, _ := cmd.Flags().GetString("lexicon")
		subword, _ := cmd.Flags().GetBool("subword")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		records, err := loadCorpus(dataDir)
		if err != nil {
			slog.Error("corpus error", "err", err)
			os.Exit(1)
		}
		slog.Info("corpus loaded", "records", len(records))

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

		gcfg := dataset.Config{
			Records:   records,
			Tokenizer: tok,
			Entities:  entities,
			OutputDir: outputDir,
			BatchSize: batchSize,
		}

		switch name {
		case "ner":
			if len(entities) == 0 {
				slog.Warn("no lexicon entities loaded, every label will be O")
			}
			_, err = dataset.New(gcfg).GenerateWordSeq(ctx)
		case "method":
			tagger, cleanup := newTagger(ctx)
			defer cleanup()
			gcfg.Tagger = tagger
			_, err = dataset.New(gcfg).GenerateMethod(ctx)
		case "summarize_abstract":
			_, err = dataset.New(gcfg).GenerateSummarizeAbstract(ctx)
		default:
			log.Fatalf("Unknown dataset name: %s. Supported: ner, method, summarize_abstract", name)
		}
		if err != nil {
			slog.Error("dataset generation failed", "err", err)
			os.Exit(1)
		}
	},
}

// newTagger builds the completion-model tagger, cached through Redis when
// RESEARCH_REDIS_ADDR is set. An unreachable cache is skipped with a warning
// rather than failing the run.
func newTagger(ctx context.Context) (llm.Tagger, func()) {
	client := llm.New(llm.Config{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
		Timeout: cfg.LLMTimeout,
	})
	if cfg.RedisAddr == "" {
		return client, func() {}
	}
	store, err := cache.New(ctx, cfg.RedisAddr, cache.WithTTL(cfg.CacheTTL))
	if err != nil {
		slog.Warn("completion cache unavailable, continuing without", "err", err)
		return client, func() {}
	}
	slog.Info("completion cache enabled", "addr", cfg.RedisAddr)
	return cache.NewCachedTagger(store, client, cfg.LLMModel), func() { store.Close() }
}

func init() {
	rootCmd.AddCommand(datasetCmd)

	datasetCmd.Flags().String("data-dir", "", "WoS export directory (or a single export file)")
	datasetCmd.Flags().String("name", "", "Dataset to generate: ner, method or summarize_abstract")
	datasetCmd.Flags().String("output-dir", "dataset", "Directory to write dataset files into")
	datasetCmd.Flags().Int("batch-size", 500, "Records per word-seq shard (ner only)")
	datasetCmd.Flags().String("lexicon", "", "YAML lexicon with entity phrases (ner only)")
	datasetCmd.Flags().Bool("subword", false, "Tokenize with the sub-word tokenizer instead of word splitting")
	_ = datasetCmd.MarkFlagRequired("data-dir")
	_ = datasetCmd.MarkFlagRequired("name")
}
