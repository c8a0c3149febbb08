// Package openai adapts an OpenAI-compatible chat-completions endpoint to the
// llm port. Prompt text and the wire format live here; callers deal in plain
// strings.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Config struct {
	BaseURL string // e.g. https://api.openai.com/v1
	APIKey  string
	Model   string

	HTTPTimeout time.Duration
}

type Client struct {
	cfg    Config
	client *http.Client
}

func New(cfg Config) *Client {
	return NewWithHTTPClient(cfg, nil)
}

func NewWithHTTPClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	return &Client{cfg: cfg, client: httpClient}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) DescribeImage(ctx context.Context, imageRef string) (string, error) {
	return c.complete(ctx, []chatMessage{{
		Role: "user",
		Content: []contentPart{
			{Type: "text", Text: "Describe this café photo in one short sentence: the ambiance, seating, and anything notable about the space. Plain text only."},
			{Type: "image_url", ImageURL: &imageURL{URL: imageRef}},
		},
	}}, 120)
}

func (c *Client) ExtractKeywords(ctx context.Context, freeText string) ([]string, error) {
	out, err := c.complete(ctx, []chatMessage{{
		Role:    "user",
		Content: fmt.Sprintf("Extract up to five search keywords from this café request, one per line, no numbering:\n\n%s", freeText),
	}}, 80)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

func (c *Client) MatchReasons(ctx context.Context, candidateNames []string, destination string) ([]string, error) {
	out, err := c.complete(ctx, []chatMessage{{
		Role: "user",
		Content: fmt.Sprintf(
			"A traveler is looking for cafés in %s. For each of these candidates, give one short sentence on why it could match their taste, one per line, in order, no numbering:\n\n%s",
			destination, strings.Join(candidateNames, "\n")),
	}}, 400)
	if err != nil {
		return nil, err
	}
	reasons := splitLines(out)
	if len(reasons) > len(candidateNames) {
		reasons = reasons[:len(candidateNames)]
	}
	return reasons, nil
}

func (c *Client) complete(ctx context.Context, messages []chatMessage, maxTokens int) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:     c.cfg.Model,
		Messages:  messages,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("chat completions: decode: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil && parsed.Error.Message != "" {
			return "", fmt.Errorf("chat completions: %s: %s", resp.Status, parsed.Error.Message)
		}
		return "", fmt.Errorf("chat completions: %s", resp.Status)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("chat completions: empty choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "- "))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
