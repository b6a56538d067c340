// Package refiner re-scores top-ranked job postings with an LLM.
//
// Refinement is a cross-encoder-like pass: the model sees the resume-aligned
// candidates together with their similarity scores and emits a refined score
// in [0, 1] per job. It is invoked only for a bounded top-N slice, never the
// full corpus.
//
// # Providers
//
// Three interchangeable providers exist: a local Ollama runtime and the
// hosted Gemini and OpenAI APIs. They share prompt construction and response
// parsing; only dispatch and availability detection differ. When no provider
// is requested explicitly, the gateway tries the local runtime first and
// falls back to whichever hosted provider has a credential configured.
//
// Refinement is best-effort: every failure path degrades to an empty score
// map and the base similarity scores remain authoritative.
package refiner

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultCallTimeout bounds one provider call. The providers are outside
// process control, so a timeout is treated as a failed call and triggers
// the fallback chain.
const DefaultCallTimeout = 2 * time.Minute

// Candidate is one top-ranked job sent to the LLM for refinement.
type Candidate struct {
	JobID       string  `json:"job_id"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

// Provider dispatches a refinement prompt to one concrete LLM backend.
// Prompt construction and response parsing are shared by the gateway;
// implementations only perform the call.
type Provider interface {
	// Name is the stable identifier callers use to request this provider
	// explicitly ("ollama", "gemini", "openai").
	Name() string

	// Available reports whether the provider can be attempted. Hosted
	// providers are available when their API credential is configured; the
	// local provider is always attemptable and reachability is discovered
	// by the call itself.
	Available() bool

	// Terminal reports whether an attempt on this provider ends the
	// fallback chain even when it parses to no scores. A credential-bearing
	// hosted call is authoritative; the local runtime is not.
	Terminal() bool

	// Generate sends the prompt and returns the raw response text. An empty
	// model selects the provider default.
	Generate(ctx context.Context, prompt, model string) (string, error)
}

// Options configures one refinement call.
type Options struct {
	// Provider, when non-empty, names the only provider to attempt.
	// An unrecognized name is a configuration error.
	Provider string

	// Model overrides the provider's default model id.
	Model string
}

// Gateway selects a provider and turns its response into refined scores.
type Gateway struct {
	providers []Provider
	timeout   time.Duration
	logger    *slog.Logger
}

// GatewayOption is a functional option for configuring Gateway.
type GatewayOption func(*Gateway)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// NewGateway creates a gateway over the given providers. Order matters: in
// auto-select mode providers are attempted front to back.
func NewGateway(providers []Provider, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		providers: providers,
		timeout:   DefaultCallTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Refine asks one provider for refined scores for the candidates, returning
// a map from job id to a score in [0, 1]. Jobs the provider did not score
// are absent from the map. The only error condition is an explicitly
// requested provider name that no provider carries; every other failure
// degrades to an empty map.
func (g *Gateway) Refine(ctx context.Context, candidates []Candidate, opts Options) (map[string]float64, error) {
	if len(candidates) == 0 {
		return map[string]float64{}, nil
	}

	prompt := buildPrompt(candidates)

	if opts.Provider != "" {
		p := g.findProvider(opts.Provider)
		if p == nil {
			return nil, fmt.Errorf("unknown refinement provider %q", opts.Provider)
		}
		if !p.Available() {
			g.logger.Warn("requested refinement provider is not configured", "provider", p.Name())
			return map[string]float64{}, nil
		}
		return g.attempt(ctx, p, prompt, opts.Model), nil
	}

	for _, p := range g.providers {
		if !p.Available() {
			g.logger.Debug("skipping unavailable refinement provider", "provider", p.Name())
			continue
		}
		scores := g.attempt(ctx, p, prompt, opts.Model)
		if len(scores) > 0 || p.Terminal() {
			return scores, nil
		}
		g.logger.Info("refinement provider returned no scores, falling back", "provider", p.Name())
	}

	g.logger.Warn("no refinement provider produced scores")
	return map[string]float64{}, nil
}

// attempt performs one bounded provider call and parses the response.
func (g *Gateway) attempt(ctx context.Context, p Provider, prompt, model string) map[string]float64 {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	response, err := p.Generate(callCtx, prompt, model)
	if err != nil {
		g.logger.Warn("refinement call failed", "provider", p.Name(), "error", err)
		return map[string]float64{}
	}

	scores := ParseRefinedScores(response)
	g.logger.Info("refinement call parsed", "provider", p.Name(), "scores", len(scores))
	return scores
}

func (g *Gateway) findProvider(name string) Provider {
	for _, p := range g.providers {
		if p.Name() == name {
			return p
		}
	}
	return nil
}
