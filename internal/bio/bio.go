// Package bio aligns known entity phrases against tokenized sentences and
// emits BIO (Begin/Inside/Outside) label sequences. It is the core of the
// heuristic tagging pipeline: the keyword lexicon supplies (phrase, label)
// pairs, a tokenizer splits both the sentence and each phrase the same way,
// and Tag marks the first occurrence of every phrase.
package bio

import (
	"fmt"
	"strings"
)

// Outside is the sentinel label for tokens covered by no entity span.
const Outside = "O"

// Entity is a phrase to locate and the label to tag it with.
type Entity struct {
	Phrase string `json:"phrase"`
	Label  string `json:"label"`
}

// Pair couples one token with its BIO label for emission.
type Pair struct {
	Token string `json:"token"`
	Label string `json:"label"`
}

// Span is one labelled region of the original text, in rune offsets.
type Span struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Tag returns one BIO label per token. Each entity phrase is tokenized with
// the same tokenize function as the sentence, so sub-word tokenizers stay
// consistent, and only its first exact contiguous occurrence is tagged: the
// start token gets "B-<label>", the rest of the span "I-<label>". A phrase
// that does not occur leaves the labels untouched; that is a normal outcome,
// not an error. Entities apply in input order and a later entity overwrites
// earlier labels where spans overlap, so callers control priority by
// ordering the entity list. Matching is exact equality, never case-folded.
func Tag(tokens []string, entities []Entity, tokenize func(string) []string) []string {
	labels := make([]string, len(tokens))
	for i := range labels {
		labels[i] = Outside
	}

	for _, ent := range entities {
		phrase := tokenize(ent.Phrase)
		// A zero-length phrase would trivially match at every offset.
		if len(phrase) == 0 || len(phrase) > len(tokens) {
			continue
		}
		for i := 0; i+len(phrase) <= len(tokens); i++ {
			if !matchAt(tokens, phrase, i) {
				continue
			}
			labels[i] = "B-" + ent.Label
			for j := i + 1; j < i+len(phrase); j++ {
				labels[j] = "I-" + ent.Label
			}
			break
		}
	}
	return labels
}

func matchAt(tokens, phrase []string, start int) bool {
	for j, p := range phrase {
		if tokens[start+j] != p {
			return false
		}
	}
	return true
}

// Zip pairs tokens with labels for serialization. Tag always returns one
// label per token, so mismatched lengths are a caller bug and panic.
func Zip(tokens, labels []string) []Pair {
	mustMatch(tokens, labels)
	pairs := make([]Pair, len(tokens))
	for i := range tokens {
		pairs[i] = Pair{Token: tokens[i], Label: labels[i]}
	}
	return pairs
}

// Spans converts a token/label alignment back into rune-offset spans over the
// original text. Tokens are located left to right by exact search; when a
// token cannot be found (the tokenizer normalized it), scanning stops and the
// spans recovered so far are returned. An "I-" label with no preceding "B-"
// of the same entity is skipped.
func Spans(text string, tokens, labels []string) []Span {
	mustMatch(tokens, labels)

	runes := []rune(text)
	type loc struct{ start, end int }
	locs := make([]loc, 0, len(tokens))
	pos := 0
	for _, tok := range tokens {
		tr := []rune(tok)
		idx := indexRunes(runes, tr, pos)
		if idx < 0 {
			break
		}
		locs = append(locs, loc{start: idx, end: idx + len(tr)})
		pos = idx + len(tr)
	}

	var spans []Span
	for i := 0; i < len(locs); {
		label, ok := strings.CutPrefix(labels[i], "B-")
		if !ok {
			i++
			continue
		}
		j := i + 1
		for j < len(locs) && labels[j] == "I-"+label {
			j++
		}
		spans = append(spans, Span{
			Start: locs[i].start,
			End:   locs[j-1].end,
			Label: label,
			Text:  string(runes[locs[i].start:locs[j-1].end]),
		})
		i = j
	}
	return spans
}

func mustMatch(tokens, labels []string) {
	if len(tokens) != len(labels) {
		panic(fmt.Sprintf("bio: %d tokens but %d labels", len(tokens), len(labels)))
	}
}

// indexRunes returns the first index >= from where needle occurs in haystack,
// or -1. Rune-wise so offsets stay valid for multi-byte text.
func indexRunes(haystack, needle []rune, from int) int {
	if len(needle) == 0 {
		return -1
	}
	for i := from; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
