package cache

import (
	"context"
	"log/slog"

	"github.com/DlutRDSerivice/dlut-research-service/internal/llm"
)

// CachedTagger answers TagPhrases from the store when it can and falls
// through to the live tagger otherwise, writing fresh results back. Cache
// errors are logged and swallowed; only tagger errors surface.
type CachedTagger struct {
	store  *Store
	tagger llm.Tagger
	model  string
}

// NewCachedTagger wraps tagger. The model name is part of every key so a
// model switch never replays stale answers.
func NewCachedTagger(store *Store, tagger llm.Tagger, model string) *CachedTagger {
	return &CachedTagger{store: store, tagger: tagger, model: model}
}

// TagPhrases implements llm.Tagger.
func (t *CachedTagger) TagPhrases(ctx context.Context, title string, keywords []string) ([]llm.PhraseTag, error) {
	tags, ok, err := t.store.Get(ctx, t.model, title, keywords)
	if err != nil {
		slog.Warn("cache: read failed, calling tagger", "err", err)
	}
	if ok {
		return tags, nil
	}

	tags, err = t.tagger.TagPhrases(ctx, title, keywords)
	if err != nil {
		return nil, err
	}
	if err := t.store.Put(ctx, t.model, title, keywords, tags); err != nil {
		slog.Warn("cache: write failed", "err", err)
	}
	return tags, nil
}
