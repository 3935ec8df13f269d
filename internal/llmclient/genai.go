package llmclient

import (
	"context"

	"google.golang.org/genai"

	"github.com/arcflow/substrate/internal/valueobjects"
)

// GenAIClient adapts google.golang.org/genai to react.LLMClient.
type GenAIClient struct {
	api   *genai.Client
	model string
}

// NewGenAIClient builds a client against apiKey, resolved at the
// composition root from spec.md §6's LM API key environment variable.
func NewGenAIClient(ctx context.Context, apiKey, model string) (*GenAIClient, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, valueobjects.Wrap(valueobjects.ErrNodeExecution, err)
	}
	return &GenAIClient{api: c, model: model}, nil
}

func (c *GenAIClient) Invoke(ctx context.Context, messages []Message) (string, error) {
	system, rest := toPrompt(messages)

	var contents []*genai.Content
	for _, m := range rest {
		role := genai.RoleUser
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{genai.NewPartFromText(m.Content)}})
	}

	var cfg *genai.GenerateContentConfig
	if system != "" {
		cfg = &genai.GenerateContentConfig{SystemInstruction: &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(system)}}}
	}

	resp, err := c.api.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", valueobjects.Wrap(valueobjects.ErrNodeExecution, err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return noContent, nil
	}
	var text string
	for _, p := range resp.Candidates[0].Content.Parts {
		text += p.Text
	}
	return text, nil
}
