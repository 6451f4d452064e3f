// Package llm is a small client for OpenAI-compatible chat completion
// endpoints, plus the keyword tagger built on top of it. Credentials and
// endpoint travel in Config; nothing is read from process globals, so two
// clients with different keys can coexist in one process.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Config describes one chat completions endpoint.
type Config struct {
	BaseURL     string // API root, e.g. http://localhost:8000/v1
	APIKey      string // optional; sent as a Bearer token when set
	Model       string
	Temperature float64
	MaxTokens   int           // <=0 means 2048
	Timeout     time.Duration // <=0 means 120s
}

// Client talks to one OpenAI-compatible chat completions endpoint.
// It is safe for concurrent use.
type Client struct {
	url         string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	http        *http.Client
}

// New creates a Client for cfg.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &Client{
		url:         strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		http:        &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content          string `json:"content"`
			Reasoning        string `json:"reasoning"`         // Qwen via Ollama
			ReasoningContent string `json:"reasoning_content"` // Qwen direct API
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Chat sends one system+user exchange and returns the assistant's text.
// A non-200 status or an empty choice list is an error.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("llm: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var snippet [512]byte
		n, _ := resp.Body.Read(snippet[:])
		return "", fmt.Errorf("llm: status %d: %s", resp.StatusCode, string(snippet[:n]))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("llm: decode: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("llm: empty choices")
	}

	// Some local runtimes put the answer in a reasoning field and leave
	// content empty when the token budget runs out mid-thought.
	msg := cr.Choices[0].Message
	out := strings.TrimSpace(msg.Content)
	if out == "" {
		out = strings.TrimSpace(msg.Reasoning)
	}
	if out == "" {
		out = strings.TrimSpace(msg.ReasoningContent)
	}
	return out, nil
}
