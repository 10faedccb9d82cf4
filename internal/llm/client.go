// Package llm wraps an OpenAI-compatible chat-completion endpoint:
// request assembly, streamed-chunk accumulation, and the advisory
// models listing.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/davfen/cvdesk/internal/config"
)

// Message is one chat turn sent to the completion endpoint.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config holds the completion parameters. A Client reads it once at
// construction; later config-store changes require a new Client.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int
	Stream      bool
}

// ConfigFromStore reads the api_config section of the store.
func ConfigFromStore(store *config.Manager) Config {
	return Config{
		BaseURL:     store.String("api_config", "base_url", ""),
		APIKey:      store.String("api_config", "api_key", ""),
		Model:       store.String("api_config", "model", ""),
		Temperature: store.Float("api_config", "temperature", 0.5),
		TopP:        store.Float("api_config", "top_p", 1),
		MaxTokens:   store.Int("api_config", "max_tokens", 1024),
		Stream:      store.Bool("api_config", "stream", true),
	}
}

// Completer is the completion capability consumers depend on.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// APIError is a non-2xx answer from the completion endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("completion API error (status %d): %s", e.StatusCode, e.Body)
}

// Client talks to one chat-completion endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds a client around cfg.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		logger: logger,
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			// Pointer so a null delta (no content in this chunk)
			// is distinguishable from an empty string.
			Content *string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// Complete sends a single-turn user prompt.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteMessages(ctx, []Message{{Role: "user", Content: prompt}})
}

// CompleteMessages sends a multi-turn message list with the held
// temperature/top_p/max_tokens/stream settings. When streaming is
// enabled the content fragments are accumulated in arrival order and
// the final string is returned once the chunk sequence ends. Errors
// are logged and returned; callers above this layer are responsible
// for converting them into user-visible messages.
func (c *Client) CompleteMessages(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		TopP:        c.cfg.TopP,
		MaxTokens:   c.cfg.MaxTokens,
		Stream:      c.cfg.Stream,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions",
		bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("completion request failed", "error", err)
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		c.logger.Error("completion request rejected", "status", resp.StatusCode)
		return "", apiErr
	}

	if c.cfg.Stream {
		return c.accumulateStream(resp.Body)
	}

	var full chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&full); err != nil {
		c.logger.Error("failed to decode completion response", "error", err)
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(full.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return full.Choices[0].Message.Content, nil
}

// accumulateStream concatenates the non-null content fragments of an
// SSE chunk sequence, in arrival order, until [DONE] or end of body.
func (c *Client) accumulateStream(body io.Reader) (string, error) {
	var response strings.Builder

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := line[len("data: "):]
		if data == "[DONE]" {
			break
		}

		var chunk chatStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != nil {
			response.WriteString(*delta)
		}
	}
	if err := scanner.Err(); err != nil {
		c.logger.Error("completion stream interrupted", "error", err)
		return "", fmt.Errorf("completion stream interrupted: %w", err)
	}

	return response.String(), nil
}

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// FetchModels lists the model ids offered at baseURL. The endpoint is
// advisory: every failure is logged and degenerates to an empty list.
func (c *Client) FetchModels(ctx context.Context, baseURL, apiKey string) []string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(baseURL, "/")+"/models", nil)
	if err != nil {
		c.logger.Error("failed to build models request", "error", err)
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("models request failed", "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("models request rejected", "status", resp.StatusCode)
		return nil
	}

	var listing modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		c.logger.Error("failed to decode models response", "error", err)
		return nil
	}

	ids := make([]string, 0, len(listing.Data))
	for _, m := range listing.Data {
		if m.ID != "" {
			ids = append(ids, m.ID)
		}
	}
	return ids
}
