package llmclient

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/arcflow/substrate/internal/valueobjects"
)

// OpenAIClient adapts github.com/sashabaranov/go-openai's chat-completion
// endpoint to react.LLMClient.
type OpenAIClient struct {
	api   *openai.Client
	model string
}

// NewOpenAIClient builds a client against apiKey (and baseURL, if the
// caller points at a compatible gateway — spec.md §6's optional LM base
// URL environment variable).
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{api: openai.NewClientWithConfig(cfg), model: model}
}

func (c *OpenAIClient) Invoke(ctx context.Context, messages []Message) (string, error) {
	req := openai.ChatCompletionRequest{Model: c.model}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", valueobjects.Wrap(valueobjects.ErrNodeExecution, err)
	}
	if len(resp.Choices) == 0 {
		return noContent, nil
	}
	return resp.Choices[0].Message.Content, nil
}
