package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// tagSystemPrompt asks the model to label each keyword against the title it
// came from. We ask for a JSON array of pairs rather than free text because
// small models drift otherwise; the cleanup helpers below absorb the drift
// that remains.
const tagSystemPrompt = `You are an AI model. You need to understand a piece of text and based on this text to tag the words in this phrase list as 'method' or 'object'.
Return ONLY a JSON array of [word, tag] pairs. No explanation.

Examples:
Text:Wavelet transform for image denoising, List:wavelet transform; image denoising
Output: [["wavelet transform", "method"], ["image denoising", "object"]]

Text:A broad survey of the field, List:
Output: []`

// PhraseTag is one keyword phrase with its predicted role.
type PhraseTag struct {
	Word string `json:"word"`
	Tag  string `json:"tag"`
}

// Tagger labels keyword phrases against the text they came from. The dataset
// generator takes this interface so tests can run a deterministic stand-in.
type Tagger interface {
	TagPhrases(ctx context.Context, title string, keywords []string) ([]PhraseTag, error)
}

// TagPhrases implements Tagger against the live endpoint. An empty result
// means the model judged nothing taggable; callers decide whether that drops
// the record.
func (c *Client) TagPhrases(ctx context.Context, title string, keywords []string) ([]PhraseTag, error) {
	user := fmt.Sprintf("Text:%s, List:%s", title, strings.Join(keywords, "; "))
	out, err := c.Chat(ctx, tagSystemPrompt, user)
	if err != nil {
		return nil, err
	}

	content := stripThinkBlock(out)
	content = stripCodeFence(content)
	if !strings.HasPrefix(content, "[") {
		content = extractJSONArray(content)
	}
	return parsePairs(content)
}

// parsePairs decodes the model output. The pair form [["word","tag"],...] is
// canonical; some models answer with objects instead, so that form is
// accepted as a fallback. Tags are lower-cased.
func parsePairs(content string) ([]PhraseTag, error) {
	var pairs [][]string
	if err := json.Unmarshal([]byte(content), &pairs); err == nil {
		out := make([]PhraseTag, 0, len(pairs))
		for i, p := range pairs {
			if len(p) != 2 {
				return nil, fmt.Errorf("llm: pair %d: want [word, tag], got %d elements", i, len(p))
			}
			out = append(out, PhraseTag{Word: p[0], Tag: strings.ToLower(p[1])})
		}
		return out, nil
	}

	var objs []PhraseTag
	if err := json.Unmarshal([]byte(content), &objs); err != nil {
		return nil, fmt.Errorf("llm: parse pairs: %w", err)
	}
	for i := range objs {
		objs[i].Tag = strings.ToLower(objs[i].Tag)
	}
	return objs, nil
}

// stripThinkBlock removes a <think>...</think> block emitted before the
// answer when a model's thinking mode is active.
func stripThinkBlock(s string) string {
	start := strings.Index(s, "<think>")
	if start < 0 {
		return s
	}
	end := strings.Index(s, "</think>")
	if end < 0 {
		// Unclosed block: nothing after it to salvage.
		return strings.TrimSpace(s[:start])
	}
	return strings.TrimSpace(s[:start] + s[end+len("</think>"):])
}

// stripCodeFence unwraps ```json ... ``` or bare ``` ... ``` fences.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// extractJSONArray pulls the first [...] span out of surrounding prose.
func extractJSONArray(s string) string {
	start := strings.Index(s, "[")
	if start < 0 {
		return s
	}
	end := strings.LastIndex(s, "]")
	if end < start {
		return s
	}
	return s[start : end+1]
}
