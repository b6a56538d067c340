package refiner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

// fakeProvider is a scripted Provider for exercising gateway selection.
type fakeProvider struct {
	name      string
	available bool
	terminal  bool
	response  string
	err       error
	calls     int
}

var _ Provider = (*fakeProvider)(nil)

func (f *fakeProvider) Name() string    { return f.name }
func (f *fakeProvider) Available() bool { return f.available }
func (f *fakeProvider) Terminal() bool  { return f.terminal }

func (f *fakeProvider) Generate(ctx context.Context, prompt, model string) (string, error) {
	f.calls++
	return f.response, f.err
}

func testGateway(providers ...Provider) *Gateway {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGateway(providers, WithLogger(logger))
}

func candidates() []Candidate {
	return []Candidate{
		{JobID: "a", Score: 0.8, Description: "Backend engineer"},
		{JobID: "b", Score: 0.4, Description: "Pastry chef"},
	}
}

func TestGateway_EmptyCandidates(t *testing.T) {
	local := &fakeProvider{name: "ollama", available: true}
	g := testGateway(local)

	scores, err := g.Refine(context.Background(), nil, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("expected empty map, got %v", scores)
	}
	if local.calls != 0 {
		t.Errorf("expected no provider calls for empty candidates, got %d", local.calls)
	}
}

func TestGateway_AutoSelect(t *testing.T) {
	goodResponse := `[{"job_id": "a", "refined_score": 0.9}]`

	tests := []struct {
		name      string
		providers []*fakeProvider
		expected  map[string]float64
		calls     []int
	}{
		{
			name: "local provider wins when it parses scores",
			providers: []*fakeProvider{
				{name: "ollama", available: true, response: goodResponse},
				{name: "gemini", available: true, terminal: true, response: goodResponse},
			},
			expected: map[string]float64{"a": 0.9},
			calls:    []int{1, 0},
		},
		{
			name: "local failure falls back to first hosted provider",
			providers: []*fakeProvider{
				{name: "ollama", available: true, err: errors.New("connection refused")},
				{name: "gemini", available: true, terminal: true, response: goodResponse},
				{name: "openai", available: true, terminal: true, response: goodResponse},
			},
			expected: map[string]float64{"a": 0.9},
			calls:    []int{1, 1, 0},
		},
		{
			name: "unavailable providers are skipped",
			providers: []*fakeProvider{
				{name: "ollama", available: true, response: "no scores here"},
				{name: "gemini", available: false},
				{name: "openai", available: true, terminal: true, response: goodResponse},
			},
			expected: map[string]float64{"a": 0.9},
			calls:    []int{1, 0, 1},
		},
		{
			name: "terminal provider ends the chain even with no scores",
			providers: []*fakeProvider{
				{name: "gemini", available: true, terminal: true, response: "garbage"},
				{name: "openai", available: true, terminal: true, response: goodResponse},
			},
			expected: map[string]float64{},
			calls:    []int{1, 0},
		},
		{
			name: "no provider available yields empty map",
			providers: []*fakeProvider{
				{name: "gemini", available: false},
				{name: "openai", available: false},
			},
			expected: map[string]float64{},
			calls:    []int{0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers := make([]Provider, len(tt.providers))
			for i, p := range tt.providers {
				providers[i] = p
			}
			g := testGateway(providers...)

			scores, err := g.Refine(context.Background(), candidates(), Options{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(scores) != len(tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, scores)
			}
			for id, want := range tt.expected {
				if scores[id] != want {
					t.Errorf("score for %s: expected %v, got %v", id, want, scores[id])
				}
			}
			for i, want := range tt.calls {
				if tt.providers[i].calls != want {
					t.Errorf("provider %s: expected %d calls, got %d", tt.providers[i].name, want, tt.providers[i].calls)
				}
			}
		})
	}
}

func TestGateway_ExplicitProvider(t *testing.T) {
	local := &fakeProvider{name: "ollama", available: true, response: `[{"job_id": "a", "refined_score": 0.5}]`}
	hosted := &fakeProvider{name: "gemini", available: true, terminal: true, response: `[{"job_id": "a", "refined_score": 0.9}]`}
	g := testGateway(local, hosted)

	scores, err := g.Refine(context.Background(), candidates(), Options{Provider: "gemini"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scores["a"] != 0.9 {
		t.Errorf("expected gemini score 0.9, got %v", scores["a"])
	}
	if local.calls != 0 {
		t.Errorf("expected explicit selection to bypass the local provider, got %d calls", local.calls)
	}
}

func TestGateway_ExplicitProviderUnknown(t *testing.T) {
	g := testGateway(&fakeProvider{name: "ollama", available: true})

	_, err := g.Refine(context.Background(), candidates(), Options{Provider: "anthropic"})
	if err == nil {
		t.Fatal("expected error for unknown provider name")
	}
}

func TestGateway_ExplicitProviderUnavailable(t *testing.T) {
	hosted := &fakeProvider{name: "openai", available: false, terminal: true}
	g := testGateway(hosted)

	scores, err := g.Refine(context.Background(), candidates(), Options{Provider: "openai"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("expected empty map for unconfigured provider, got %v", scores)
	}
	if hosted.calls != 0 {
		t.Errorf("expected no call to unconfigured provider, got %d", hosted.calls)
	}
}
