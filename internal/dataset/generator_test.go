package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DlutRDSerivice/dlut-research-service/internal/bio"
	"github.com/DlutRDSerivice/dlut-research-service/internal/llm"
	"github.com/DlutRDSerivice/dlut-research-service/internal/token"
	"github.com/DlutRDSerivice/dlut-research-service/internal/wos"
)

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rec(fields map[string]string) *wos.Record {
	return &wos.Record{Fields: fields}
}

func TestGenerateWordSeq(t *testing.T) {
	dir := t.TempDir()
	g := New(Config{
		Records: []*wos.Record{
			rec(map[string]string{"AB": "A red car is fast. The red car won."}),
			rec(map[string]string{"TI": "No abstract here"}),
		},
		Tokenizer: token.Words{},
		Entities:  []bio.Entity{{Phrase: "red car", Label: "Object"}},
		OutputDir: dir,
		Logger:    nopLogger(),
	})

	stats, err := g.GenerateWordSeq(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Records: 2, Written: 1, Skipped: 1}, stats)

	data, err := os.ReadFile(filepath.Join(dir, "word_seq_0001.txt"))
	require.NoError(t, err)
	want := "A\tO\n" +
		"red\tB-Object\n" +
		"car\tI-Object\n" +
		"is\tO\n" +
		"fast\tO\n" +
		".\tO\n" +
		"\n" +
		"The\tO\n" +
		"red\tB-Object\n" +
		"car\tI-Object\n" +
		"won\tO\n" +
		".\tO\n" +
		"\n"
	assert.Equal(t, want, string(data))
}

func TestGenerateWordSeqSharding(t *testing.T) {
	dir := t.TempDir()
	var records []*wos.Record
	for i := 0; i < 5; i++ {
		records = append(records, rec(map[string]string{"AB": "Plain text."}))
	}
	g := New(Config{
		Records:   records,
		Tokenizer: token.Words{},
		OutputDir: dir,
		BatchSize: 2,
		Logger:    nopLogger(),
	})

	stats, err := g.GenerateWordSeq(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Written)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"word_seq_0001.txt", "word_seq_0002.txt", "word_seq_0003.txt"}, names)
}

type scriptedTagger struct {
	tags map[string][]llm.PhraseTag
	errs map[string]error
}

func (s *scriptedTagger) TagPhrases(_ context.Context, title string, _ []string) ([]llm.PhraseTag, error) {
	if err := s.errs[title]; err != nil {
		return nil, err
	}
	return s.tags[title], nil
}

func TestGenerateMethod(t *testing.T) {
	dir := t.TempDir()
	tagger := &scriptedTagger{
		tags: map[string][]llm.PhraseTag{
			"Paper A": {{Word: "deep learning", Tag: "method"}, {Word: "mri", Tag: "object"}},
		},
		errs: map[string]error{
			"Paper C": errors.New("model down"),
		},
	}
	g := New(Config{
		Records: []*wos.Record{
			rec(map[string]string{"TI": "Paper A", "DE": "deep learning; mri"}),
			rec(map[string]string{"TI": "Paper B"}),
			rec(map[string]string{"TI": "Paper C", "DE": "anything"}),
			rec(map[string]string{"TI": "Paper D", "DE": "nothing taggable"}),
		},
		Tagger:    tagger,
		Tokenizer: token.Words{},
		OutputDir: dir,
		Logger:    nopLogger(),
	})

	stats, err := g.GenerateMethod(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Records: 4, Written: 1, Skipped: 2, Failed: 1}, stats)

	raw, err := os.ReadFile(filepath.Join(dir, "method_ft_dataset.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n    {", "output should be 4-space indented")

	var got []methodRecord
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Paper A", got[0].Text)
	assert.Equal(t, []llm.PhraseTag{{Word: "deep learning", Tag: "method"}, {Word: "mri", Tag: "object"}}, got[0].Tag)
}

func TestGenerateSummarizeAbstract(t *testing.T) {
	dir := t.TempDir()
	g := New(Config{
		Records: []*wos.Record{
			rec(map[string]string{"TI": "Título único", "AB": "An abstract."}),
			rec(map[string]string{"TI": "No abstract"}),
			rec(map[string]string{"AB": "No title."}),
		},
		Tokenizer: token.Words{},
		OutputDir: dir,
		Logger:    nopLogger(),
	})

	stats, err := g.GenerateSummarizeAbstract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Records: 3, Written: 1, Skipped: 2}, stats)

	raw, err := os.ReadFile(filepath.Join(dir, "summarize_abstract_dataset.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Título único", "non-ASCII must stay unescaped")

	var got []alpacaRecord
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Len(t, got, 1)
	assert.Equal(t, summarizeInstruction, got[0].Instruction)
	assert.Equal(t, "An abstract.", got[0].Input)
	assert.Equal(t, "Título único", got[0].Output)
}

func TestGenerateMethodCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := New(Config{
		Records:   []*wos.Record{rec(map[string]string{"TI": "A", "DE": "k"})},
		Tagger:    &scriptedTagger{},
		OutputDir: t.TempDir(),
		Logger:    nopLogger(),
	})

	_, err := g.GenerateMethod(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
