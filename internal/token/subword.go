package token

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Subword tokenizes with the cl100k_base byte-pair encoding so that sentence
// and phrase tokenization agree at the sub-word level. Each BPE id is decoded
// back to its string piece; pieces keep their leading spaces, which is what
// makes the alignment exact.
type Subword struct {
	enc *tiktoken.Tiktoken
}

// NewSubword loads the cl100k_base encoding. The ranks are fetched on first
// use unless TIKTOKEN_CACHE_DIR points at a local cache.
func NewSubword() (*Subword, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("token: load cl100k_base encoding: %w", err)
	}
	return &Subword{enc: enc}, nil
}

// Tokenize implements Tokenizer.
func (s *Subword) Tokenize(text string) []string {
	ids := s.enc.EncodeOrdinary(text)
	tokens := make([]string, len(ids))
	for i, id := range ids {
		tokens[i] = s.enc.Decode([]int{id})
	}
	return tokens
}
