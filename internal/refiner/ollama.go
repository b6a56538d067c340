package refiner

import (
	"context"

	"github.com/routhusundeep/ai-job-assistant/internal/llm"
)

// DefaultOllamaModel is the default local refinement model.
const DefaultOllamaModel = "llama3.2"

// OllamaProvider runs refinement against a local Ollama runtime.
type OllamaProvider struct {
	client llm.LLM
	model  string
}

// NewOllamaProvider creates the local provider. An empty model selects
// DefaultOllamaModel.
func NewOllamaProvider(client llm.LLM, model string) *OllamaProvider {
	if model == "" {
		model = DefaultOllamaModel
	}
	return &OllamaProvider{client: client, model: model}
}

// Name returns "ollama".
func (p *OllamaProvider) Name() string { return "ollama" }

// Available always reports true: reachability of the local runtime is
// discovered by the generation attempt, and a dead runtime simply yields
// no scores.
func (p *OllamaProvider) Available() bool { return true }

// Terminal reports false; an unproductive local attempt falls through to
// the hosted providers.
func (p *OllamaProvider) Terminal() bool { return false }

// Generate dispatches the prompt to the local runtime.
func (p *OllamaProvider) Generate(ctx context.Context, prompt, model string) (string, error) {
	if model == "" {
		model = p.model
	}
	return p.client.Generate(ctx, prompt, llm.GenerateOptions{
		Model:       model,
		Temperature: 0.1,
	})
}

// Ensure OllamaProvider implements Provider interface.
var _ Provider = (*OllamaProvider)(nil)
