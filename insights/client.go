// Package insights produces a natural-language weekly productivity summary
// from the owner's task collection via an external chat-completion service.
package insights

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"dayboard/domain"
)

const (
	defaultBaseURL = "https://api.x.ai/v1/chat/completions"
	defaultModel   = "grok-4"
	temperature    = 0.2
	requestTimeout = 60 * time.Second

	systemPrompt = "You are a productivity coach. Return exactly 3 bullet lines: " +
		"Progress, Bottlenecks, Predictions. Each bullet must be on its own line, " +
		"concise, and under 120 words total."

	// EmptySummary is returned for an empty task collection without calling
	// the external service.
	EmptySummary = "No tasks available yet. Add tasks to generate insights."
)

// Client calls the completion service. Requests are plain request-response
// with no streaming; the service holds no session state, so retrying a failed
// call is always safe.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewClient creates a summary client. Empty model or baseURL select the
// defaults.
func NewClient(apiKey, model, baseURL string) *Client {
	if model == "" {
		model = defaultModel
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// WeeklySummary returns the three-bullet summary for the given tasks. Any
// transport failure or malformed response yields domain.ErrExternalService
// with no partial text.
func (c *Client) WeeklySummary(ctx context.Context, tasks []domain.Task) (string, error) {
	if len(tasks) == 0 {
		return EmptySummary, nil
	}

	serialized, err := sonic.ConfigStd.Marshal(tasks)
	if err != nil {
		return "", fmt.Errorf("%w: encode tasks: %v", domain.ErrExternalService, err)
	}

	body, err := sonic.ConfigStd.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Tasks JSON: " + string(serialized)},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", domain.ErrExternalService, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain for connection reuse; the body is not surfaced to the user.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: status %d", domain.ErrExternalService, resp.StatusCode)
	}

	var parsed chatResponse
	if err := sonic.ConfigStd.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrExternalService, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", domain.ErrExternalService)
	}
	summary := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if summary == "" {
		return "", fmt.Errorf("%w: empty completion", domain.ErrExternalService)
	}
	return summary, nil
}
