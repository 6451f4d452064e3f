package main

import (
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/DlutRDSerivice/dlut-research-service/internal/bio"
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Tag text with BIO labels from a lexicon",
	Long: `Tokenizes the given text and labels every occurrence of a lexicon phrase.
Output is one token<TAB>label line per token, or JSON pair records with --json.`,
	Run: func(cmd *cobra.Command, args []string) {
		text, _ := cmd.Flags().GetString("text")
		file, _ := cmd.Flags().GetString("file")
		lexPath, _ := cmd.Flags().GetString("lexicon")
		subword, _ := cmd.Flags().GetBool("subword")
		asJSON, _ := cmd.Flags().GetBool("json")

		if text == "" && file == "" {
			log.Fatal("either --text or --file is required")
		}
		if file != "" {
			raw, err := os.ReadFile(file)
			if err != nil {
				slog.Error("read error", "err", err)
				os.Exit(1)
			}
			text = string(raw)
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

		tokens := tok.Tokenize(text)
		labels := bio.Tag(tokens, entities, tok.Tokenize)

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "    ")
			enc.SetEscapeHTML(false)
			if err := enc.Encode(bio.Zip(tokens, labels)); err != nil {
				slog.Error("encode error", "err", err)
				os.Exit(1)
			}
			return
		}
		for i, tk := range tokens {
			fmt.Printf("%s\t%s\n", tk, labels[i])
		}
	},
}

func init() {
	rootCmd.AddCommand(tagCmd)

	tagCmd.Flags().String("text", "", "Text to tag")
	tagCmd.Flags().String("file", "", "Read the text from this file instead")
	tagCmd.Flags().String("lexicon", "", "YAML lexicon with entity phrases")
	tagCmd.Flags().Bool("subword", false, "Tokenize with the sub-word tokenizer instead of word splitting")
	tagCmd.Flags().Bool("json", false, "Emit JSON pair records instead of TSV")
}
