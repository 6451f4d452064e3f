package token

import (
	"strings"
	"unicode"
)

// Words is the default word-level tokenizer. It groups runs of letters and
// digits into words, keeps hyphens and apostrophes that sit inside a word
// ("state-of-the-art", "don't"), and emits every other non-space rune as its
// own token. Case is preserved; matching stays exact downstream.
type Words struct{}

// Tokenize implements Tokenizer.
func (Words) Tokenize(text string) []string {
	runes := []rune(text)
	var (
		tokens []string
		word   []rune
	)
	flush := func() {
		if len(word) > 0 {
			tokens = append(tokens, string(word))
			word = word[:0]
		}
	}
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			word = append(word, r)
		case (r == '-' || r == '\'') && len(word) > 0 && i+1 < len(runes) && isWordRune(runes[i+1]):
			word = append(word, r)
		case unicode.IsSpace(r):
			flush()
		default:
			flush()
			tokens = append(tokens, string(r))
		}
	}
	flush()
	return tokens
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Sentences splits text into sentences with a deterministic rule: a sentence
// ends at '.', '!' or '?' followed by whitespace and an upper-case letter or
// a digit. Leading and trailing whitespace is trimmed and empty sentences are
// never returned. Abbreviations mid-sentence ("e.g. the") survive because the
// next word is lower case.
func Sentences(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0
	for i := 0; i < len(runes)-1; i++ {
		if !isSentenceEnd(runes[i]) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if j == len(runes) || !(unicode.IsUpper(runes[j]) || unicode.IsDigit(runes[j])) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = j
		i = j - 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
