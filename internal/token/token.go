// Package token provides the tokenizers used by the taggers and dataset
// generators. Everything downstream takes the Tokenizer interface so tests
// can substitute deterministic stand-ins.
package token

// Tokenizer splits text into an ordered token sequence. Implementations must
// be deterministic: the BIO aligner tokenizes entity phrases with the same
// Tokenizer as the sentence and relies on identical output for identical
// input.
type Tokenizer interface {
	Tokenize(text string) []string
}

// Func adapts a plain function to the Tokenizer interface.
type Func func(string) []string

// Tokenize calls f.
func (f Func) Tokenize(text string) []string { return f(text) }
