package embedder

import (
	"math"
	"testing"
)

func TestGetModelConfig(t *testing.T) {
	tests := []struct {
		model      string
		dimension  int
		rolePrefix bool
	}{
		{"nomic-embed-text", 768, false},
		{"mxbai-embed-large", 1024, false},
		{"all-minilm", 384, false},
		{"e5-base-v2", 768, true},
		{"e5-large-v2", 1024, true},
		{"some-unknown-model", 768, false},
		{"custom-e5-finetune", 768, true},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			cfg := GetModelConfig(tt.model)
			if cfg.Dimension != tt.dimension {
				t.Errorf("dimension: expected %d, got %d", tt.dimension, cfg.Dimension)
			}
			if cfg.RolePrefix != tt.rolePrefix {
				t.Errorf("rolePrefix: expected %v, got %v", tt.rolePrefix, cfg.RolePrefix)
			}
		})
	}
}

func TestApplyRolePrefix(t *testing.T) {
	tests := []struct {
		name     string
		model    string
		text     string
		role     Role
		expected string
	}{
		{
			name:     "no prefix for symmetric model",
			model:    "nomic-embed-text",
			text:     "senior backend engineer",
			role:     RoleQuery,
			expected: "senior backend engineer",
		},
		{
			name:     "query prefix for e5",
			model:    "e5-base-v2",
			text:     "senior backend engineer",
			role:     RoleQuery,
			expected: "query: senior backend engineer",
		},
		{
			name:     "passage prefix for e5",
			model:    "e5-large-v2",
			text:     "we are hiring",
			role:     RolePassage,
			expected: "passage: we are hiring",
		},
		{
			name:     "prefix trims surrounding whitespace",
			model:    "e5-base-v2",
			text:     "  padded text \n",
			role:     RolePassage,
			expected: "passage: padded text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ApplyRolePrefix(tt.model, tt.text, tt.role); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("expected [0.6 0.8], got %v", v)
	}

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if math.Abs(sum-1.0) > 1e-6 {
		t.Errorf("expected unit length, got squared norm %v", sum)
	}
}

func TestNormalize_ZeroVector(t *testing.T) {
	v := Normalize([]float32{0, 0, 0})
	for i, x := range v {
		if x != 0 {
			t.Errorf("component %d: expected 0, got %v", i, x)
		}
	}
}
