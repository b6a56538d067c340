package refiner

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is the default OpenAI refinement model.
const DefaultOpenAIModel = "gpt-4.1-mini"

// OpenAIProvider runs refinement against the hosted OpenAI API.
type OpenAIProvider struct {
	apiKey string
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates the OpenAI provider. The provider is available
// only when apiKey is non-empty; an empty model selects DefaultOpenAIModel.
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	p := &OpenAIProvider{apiKey: apiKey, model: model}
	if apiKey != "" {
		p.client = openai.NewClient(apiKey)
	}
	return p
}

// Name returns "openai".
func (p *OpenAIProvider) Name() string { return "openai" }

// Available reports whether an API key is configured.
func (p *OpenAIProvider) Available() bool { return p.apiKey != "" }

// Terminal reports true; a credential-bearing hosted attempt is
// authoritative even when it parses to nothing.
func (p *OpenAIProvider) Terminal() bool { return true }

// Generate dispatches the prompt as a single-turn chat completion.
func (p *OpenAIProvider) Generate(ctx context.Context, prompt, model string) (string, error) {
	if p.client == nil {
		return "", fmt.Errorf("openai API key is not configured")
	}
	if model == "" {
		model = p.model
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

// Ensure OpenAIProvider implements Provider interface.
var _ Provider = (*OpenAIProvider)(nil)
