package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const openAIURL = "https://api.openai.com/v1/chat/completions"

type Message struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// Token accounting as reported by the provider. TotalTokens is the only
// number the quota ledger ever trusts.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type CompletionResult struct {
	Message string
	Usage   Usage
}

// Gateway is the upstream chat provider. The pipeline brackets its calls
// with rate limiting before and quota settlement after.
type Gateway interface {
	Complete(ctx context.Context, messages []Message, maxTokens int) (*CompletionResult, error)
}

// The provider rejected or failed the request
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error (status %d): %s", e.StatusCode, e.Message)
}

type OpenAIGateway struct {
	apiKey string
	model  string
	url    string
	client *http.Client
}

func NewOpenAIGateway(apiKey, model string) *OpenAIGateway {
	return &OpenAIGateway{
		apiKey: apiKey,
		model:  model,
		url:    openAIURL,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (g *OpenAIGateway) Complete(ctx context.Context, messages []Message, maxTokens int) (*CompletionResult, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("openai api key not configured")
	}

	payload, err := json.Marshal(completionRequest{
		Model:       g.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach openai: %w", err)
	}
	defer resp.Body.Close()

	var body completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode openai response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := "unknown error"
		if body.Error != nil {
			msg = body.Error.Message
		}
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: msg}
	}

	if len(body.Choices) == 0 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: "response contained no choices"}
	}

	return &CompletionResult{
		Message: body.Choices[0].Message.Content,
		Usage:   body.Usage,
	}, nil
}
