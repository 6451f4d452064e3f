package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/DlutRDSerivice/dlut-research-service/internal/query"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search a WoS corpus with a boolean field query",
	Long: `Runs a query such as "ts=deep learning AND py=2020" over the corpus and
prints the matching titles, one per line. Fields: ts (title, keywords and
abstract), ti, ab, de, au, so, py, id, pt. Operators AND, OR and NOT group to
the right; use parentheses to override.`,
	Run: func(cmd *cobra.Command, args []string) {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		q, _ := cmd.Flags().GetString("query")

		records, err := loadCorpus(dataDir)
		if err != nil {
			slog.Error("corpus error", "err", err)
			os.Exit(1)
		}
		ix := query.NewIndex(records)

		hits, err := ix.Search(q)
		if err != nil {
			slog.Error("query error", "err", err)
			os.Exit(1)
		}
		for _, i := range hits {
			fmt.Println(ix.Record(i).Title())
		}
		slog.Info("search finished", "records", ix.Len(), "matches", len(hits))
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().String("data-dir", "", "WoS export directory (or a single export file)")
	searchCmd.Flags().String("query", "", "Boolean field query")
	_ = searchCmd.MarkFlagRequired("data-dir")
	_ = searchCmd.MarkFlagRequired("query")
}
