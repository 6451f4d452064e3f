package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/DlutRDSerivice/dlut-research-service/internal/api"
	"github.com/DlutRDSerivice/dlut-research-service/internal/query"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP tagging and search service",
	Long: `Serves the tagger and the corpus search as a JSON API. Without --data-dir
the search endpoint reports that no corpus is loaded; tagging works either way.`,
	Run: func(cmd *cobra.Command, args []string) {
		listen, _ := cmd.Flags().GetString("listen")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		lexPath, _ := cmd.Flags().GetString("lexicon")
		subword, _ := cmd.Flags().GetBool("subword")

		if listen == "" {
			listen = cfg.ListenAddr
		}

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

		mux := http.NewServeMux()
		api.New(tok, entities, index).Register(mux)

		srv := &http.Server{
			Addr:         listen,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			slog.Info("server listening", "addr", srv.Addr, "entities", len(entities))
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			slog.Error("server error", "err", err)
			os.Exit(1)

		case sig := <-shutdown:
			slog.Info("shutting down", "signal", sig)

			// Give outstanding requests a deadline for completion.
			shutCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutCtx); err != nil {
				slog.Error("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					slog.Error("server close error", "err", err)
				}
			}
			slog.Info("server stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", "", "Listen address (default from RESEARCH_LISTEN_ADDR)")
	serveCmd.Flags().String("data-dir", "", "WoS export directory to serve search over")
	serveCmd.Flags().String("lexicon", "", "YAML lexicon with entity phrases")
	serveCmd.Flags().Bool("subword", false, "Tokenize with the sub-word tokenizer instead of word splitting")
}
