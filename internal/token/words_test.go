package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordsTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "plain words",
			text: "a red car is fast",
			want: []string{"a", "red", "car", "is", "fast"},
		},
		{
			name: "punctuation becomes its own token",
			text: "Deep learning, applied to MRI.",
			want: []string{"Deep", "learning", ",", "applied", "to", "MRI", "."},
		},
		{
			name: "internal hyphen stays in the word",
			text: "state-of-the-art results",
			want: []string{"state-of-the-art", "results"},
		},
		{
			name: "trailing hyphen splits off",
			text: "pre- and post-processing",
			want: []string{"pre", "-", "and", "post-processing"},
		},
		{
			name: "apostrophe inside a word",
			text: "the model's output",
			want: []string{"the", "model's", "output"},
		},
		{
			name: "digits and mixed tokens",
			text: "ResNet-50 scored 91.2%",
			want: []string{"ResNet-50", "scored", "91", ".", "2", "%"},
		},
		{
			name: "parentheses and semicolons",
			text: "method (ours); baseline",
			want: []string{"method", "(", "ours", ")", ";", "baseline"},
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
		{
			name: "whitespace only",
			text: "   \t\n ",
			want: nil,
		},
		{
			name: "non-latin words group by script run",
			text: "深度学习 for tumors",
			want: []string{"深度学习", "for", "tumors"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Words{}.Tokenize(tt.text))
		})
	}
}

func TestSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "two sentences",
			text: "We propose a model. It works well.",
			want: []string{"We propose a model.", "It works well."},
		},
		{
			name: "question and exclamation",
			text: "Does it scale? Yes! Results follow.",
			want: []string{"Does it scale?", "Yes!", "Results follow."},
		},
		{
			name: "abbreviation does not split",
			text: "Methods such as e.g. pruning help.",
			want: []string{"Methods such as e.g. pruning help."},
		},
		{
			name: "digit starts a sentence",
			text: "We ran trials. 3 of them failed.",
			want: []string{"We ran trials.", "3 of them failed."},
		},
		{
			name: "no terminal punctuation",
			text: "an unfinished abstract",
			want: []string{"an unfinished abstract"},
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
		{
			name: "collapses surrounding whitespace",
			text: "  First one.   Second one.  ",
			want: []string{"First one.", "Second one."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sentences(tt.text))
		})
	}
}

func TestFuncAdapter(t *testing.T) {
	f := Func(func(s string) []string { return []string{s} })
	assert.Equal(t, []string{"whole text"}, f.Tokenize("whole text"))
}
