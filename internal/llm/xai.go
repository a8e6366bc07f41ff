package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sashabaranov/go-openai"
)

// XAIClient talks to the x.ai completion service through its
// OpenAI-compatible API.
type XAIClient struct {
	client *openai.Client
}

// NewXAIClient creates a new x.ai client. baseURL defaults to the public
// x.ai endpoint when empty.
func NewXAIClient(apiKey, baseURL string) (*XAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("x.ai API key is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL == "" {
		baseURL = "https://api.x.ai/v1"
	}
	cfg.BaseURL = baseURL

	return &XAIClient{
		client: openai.NewClientWithConfig(cfg),
	}, nil
}

// Name returns the provider name.
func (c *XAIClient) Name() string {
	return "xai"
}

// Models returns the ordered model fallback list.
func (c *XAIClient) Models() []string {
	return []string{
		"grok-beta",
		"grok-2-latest",
		"grok-2-mini",
	}
}

// Complete sends a completion request.
func (c *XAIClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = "grok-beta"
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 500
	}

	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return nil, err
	}

	var content string
	var stopReason string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
		stopReason = string(resp.Choices[0].FinishReason)
	}

	return &CompletionResponse{
		Content:    content,
		Model:      resp.Model,
		TokensIn:   resp.Usage.PromptTokens,
		TokensOut:  resp.Usage.CompletionTokens,
		StopReason: stopReason,
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}
