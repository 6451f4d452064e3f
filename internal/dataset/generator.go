// Package dataset turns a WoS corpus into training data. Three flavors come
// out: BIO-labeled token sequences for NER training, LLM-labeled keyword
// datasets for method/object fine-tuning, and abstract-to-title pairs for
// summarization fine-tuning.
package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/DlutRDSerivice/dlut-research-service/internal/bio"
	"github.com/DlutRDSerivice/dlut-research-service/internal/llm"
	"github.com/DlutRDSerivice/dlut-research-service/internal/token"
	"github.com/DlutRDSerivice/dlut-research-service/internal/wos"
)

// summarizeInstruction is the fixed instruction paired with every
// abstract/title example.
const summarizeInstruction = "Summarize the abstract of this research paper into its title."

// Config wires a Generator. Records, Tokenizer and OutputDir are always
// needed; Entities only for word sequences, Tagger only for the method
// dataset.
type Config struct {
	Records   []*wos.Record
	Tokenizer token.Tokenizer
	Entities  []bio.Entity
	Tagger    llm.Tagger
	OutputDir string
	BatchSize int // records per word-seq shard; <=0 means 500
	Logger    *slog.Logger
}

// Stats counts what one generation run did with its records.
type Stats struct {
	Records int // seen
	Written int
	Skipped int // missing required fields, or nothing taggable
	Failed  int // tagger errors
}

// Generator writes dataset files from the corpus it was built with.
type Generator struct {
	records   []*wos.Record
	tok       token.Tokenizer
	entities  []bio.Entity
	tagger    llm.Tagger
	outputDir string
	batchSize int
	log       *slog.Logger
}

// New creates a Generator from cfg.
func New(cfg Config) *Generator {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 500
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Generator{
		records:   cfg.Records,
		tok:       cfg.Tokenizer,
		entities:  cfg.Entities,
		tagger:    cfg.Tagger,
		outputDir: cfg.OutputDir,
		batchSize: batch,
		log:       log,
	}
}

// GenerateWordSeq writes BIO-labeled token sequences, one "token<TAB>label"
// line per token with a blank line after each sentence. Output is sharded
// into word_seq_0001.txt, word_seq_0002.txt, ... every batchSize records.
func (g *Generator) GenerateWordSeq(ctx context.Context) (Stats, error) {
	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return Stats{}, fmt.Errorf("dataset: %w", err)
	}

	var (
		stats   Stats
		buf     strings.Builder
		shards  int
		inShard int
	)
	flush := func() error {
		if inShard == 0 {
			return nil
		}
		shards++
		name := fmt.Sprintf("word_seq_%04d.txt", shards)
		if err := os.WriteFile(filepath.Join(g.outputDir, name), []byte(buf.String()), 0o644); err != nil {
			return fmt.Errorf("dataset: write %s: %w", name, err)
		}
		buf.Reset()
		inShard = 0
		return nil
	}

	for _, rec := range g.records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Records++
		abstract := rec.Abstract()
		if abstract == "" {
			stats.Skipped++
			continue
		}
		for _, sentence := range token.Sentences(abstract) {
			tokens := g.tok.Tokenize(sentence)
			if len(tokens) == 0 {
				continue
			}
			labels := bio.Tag(tokens, g.entities, g.tok.Tokenize)
			for i, tok := range tokens {
				buf.WriteString(tok)
				buf.WriteByte('\t')
				buf.WriteString(labels[i])
				buf.WriteByte('\n')
			}
			buf.WriteByte('\n')
		}
		stats.Written++
		inShard++
		if inShard == g.batchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}

	g.log.Info("word-seq dataset written",
		"records", stats.Records, "written", stats.Written, "skipped", stats.Skipped, "shards", shards)
	return stats, nil
}

type methodRecord struct {
	Text string          `json:"Text"`
	Tag  []llm.PhraseTag `json:"tag"`
}

// GenerateMethod labels each record's keywords against its title via the
// tagger and writes method_ft_dataset.json. Records without keywords and
// records the model returns nothing for are skipped; tagger errors are
// logged and counted without stopping the run.
func (g *Generator) GenerateMethod(ctx context.Context) (Stats, error) {
	var stats Stats
	out := make([]methodRecord, 0, len(g.records))
	for _, rec := range g.records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Records++
		if stats.Records%1000 == 0 {
			g.log.Info("tagging keywords", "records", stats.Records)
		}
		keywords := rec.Keywords()
		if len(keywords) == 0 {
			stats.Skipped++
			continue
		}
		title := rec.Title()
		tags, err := g.tagger.TagPhrases(ctx, title, keywords)
		if err != nil {
			g.log.Warn("tagging failed", "title", title, "err", err)
			stats.Failed++
			continue
		}
		if len(tags) == 0 {
			stats.Skipped++
			continue
		}
		out = append(out, methodRecord{Text: title, Tag: tags})
		stats.Written++
	}

	if err := g.writeJSON("method_ft_dataset.json", out); err != nil {
		return stats, err
	}
	g.log.Info("method dataset written",
		"records", stats.Records, "written", stats.Written, "skipped", stats.Skipped, "failed", stats.Failed)
	return stats, nil
}

type alpacaRecord struct {
	Instruction string `json:"Instruction"`
	Input       string `json:"Input"`
	Output      string `json:"Output"`
}

// GenerateSummarizeAbstract writes abstract-to-title pairs in the
// instruction/input/output shape the fine-tune driver consumes. Records
// missing either field are skipped.
func (g *Generator) GenerateSummarizeAbstract(ctx context.Context) (Stats, error) {
	var stats Stats
	out := make([]alpacaRecord, 0, len(g.records))
	for _, rec := range g.records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Records++
		title, abstract := rec.Title(), rec.Abstract()
		if title == "" || abstract == "" {
			stats.Skipped++
			continue
		}
		out = append(out, alpacaRecord{
			Instruction: summarizeInstruction,
			Input:       abstract,
			Output:      title,
		})
		stats.Written++
	}

	if err := g.writeJSON("summarize_abstract_dataset.json", out); err != nil {
		return stats, err
	}
	g.log.Info("summarize-abstract dataset written",
		"records", stats.Records, "written", stats.Written, "skipped", stats.Skipped)
	return stats, nil
}

// writeJSON writes v as 4-space-indented JSON with non-ASCII and HTML left
// unescaped, matching the files the training side already consumes.
func (g *Generator) writeJSON(name string, v any) error {
	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return fmt.Errorf("dataset: %w", err)
	}
	f, err := os.Create(filepath.Join(g.outputDir, name))
	if err != nil {
		return fmt.Errorf("dataset: create %s: %w", name, err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("dataset: encode %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("dataset: close %s: %w", name, err)
	}
	return nil
}
