// Package cache is the Redis-backed store for keyword tagging results.
// Regenerating a dataset reruns the same titles against the same model, so
// replaying completions from Redis skips most of the paid calls. A cache
// failure only ever costs the cache: callers fall through to the live tagger.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/DlutRDSerivice/dlut-research-service/internal/llm"
)

// Store holds tag results keyed by a hash of model, title and keywords.
type Store struct {
	client backend.UniversalClient
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets an expiration on cached results. Zero means no expiration.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix overrides the default "llmtag:" key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New connects to a Redis server and pings it before returning.
func New(ctx context.Context, addr string, opts ...Option) (*Store, error) {
	client := backend.NewClient(&backend.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: ping %s: %w", addr, err)
	}
	return NewFromClient(client, opts...), nil
}

// NewFromClient wraps an existing client (miniredis in tests).
func NewFromClient(client backend.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, prefix: "llmtag:"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// key hashes the inputs so long titles and separator characters can never
// collide or produce unwieldy Redis keys.
func (s *Store) key(model, title string, keywords []string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(title))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(keywords, ";")))
	return s.prefix + hex.EncodeToString(h.Sum(nil))
}

// Get looks up cached tags. A miss is (nil, false, nil). Malformed stored
// JSON is deleted and reported as a miss so one bad entry cannot wedge a key
// forever.
func (s *Store) Get(ctx context.Context, model, title string, keywords []string) ([]llm.PhraseTag, bool, error) {
	key := s.key(model, title, keywords)
	val, err := s.client.Get(ctx, key).Result()
	if err == backend.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get: %w", err)
	}
	var tags []llm.PhraseTag
	if err := json.Unmarshal([]byte(val), &tags); err != nil {
		s.client.Del(ctx, key)
		return nil, false, nil
	}
	return tags, true, nil
}

// Put stores tags under the derived key, honoring the store TTL.
func (s *Store) Put(ctx context.Context, model, title string, keywords []string, tags []llm.PhraseTag) error {
	data, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("cache: marshal: %w", err)
	}
	if err := s.client.Set(ctx, s.key(model, title, keywords), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (s *Store) Close() error { return s.client.Close() }
