package refiner

import (
	"math"
	"strings"
	"testing"
)

func TestParseRefinedScores_StrictJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected map[string]float64
	}{
		{
			name:     "clean array",
			response: `[{"job_id": "a", "refined_score": 0.9}, {"job_id": "b", "refined_score": 0.2}]`,
			expected: map[string]float64{"a": 0.9, "b": 0.2},
		},
		{
			name:     "quoted numeric score",
			response: `[{"job_id": "a", "refined_score": "0.7"}]`,
			expected: map[string]float64{"a": 0.7},
		},
		{
			name:     "bad entry dropped, good entries kept",
			response: `[{"job_id": "a", "refined_score": 0.7}, {"job_id": "bad", "refined_score": "not a number"}, {"job_id": "c", "refined_score": 0.1}]`,
			expected: map[string]float64{"a": 0.7, "c": 0.1},
		},
		{
			name:     "missing job_id dropped",
			response: `[{"refined_score": 0.5}, {"job_id": "b", "refined_score": 0.4}]`,
			expected: map[string]float64{"b": 0.4},
		},
		{
			name:     "missing score dropped",
			response: `[{"job_id": "a"}]`,
			expected: map[string]float64{},
		},
		{
			name:     "empty array",
			response: `[]`,
			expected: map[string]float64{},
		},
		{
			name:     "empty response",
			response: "",
			expected: map[string]float64{},
		},
		{
			name:     "surrounding whitespace",
			response: "\n  [{\"job_id\": \"a\", \"refined_score\": 0.5}]  \n",
			expected: map[string]float64{"a": 0.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRefinedScores(tt.response)
			assertScores(t, got, tt.expected)
		})
	}
}

func TestParseRefinedScores_RelaxedFallback(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected map[string]float64
	}{
		{
			name: "code fence with missing comma",
			response: "```json\n" +
				`[{"job_id": "a", "refined_score": 0.8} {"job_id": "b", "refined_score": 0.3}]` +
				"\n```",
			expected: map[string]float64{"a": 0.8, "b": 0.3},
		},
		{
			name:     "leading zeros collapsed",
			response: `Here you go: {"job_id": "a", "refined_score": 007} and {"job_id": "b", "refined_score": "00.5"}`,
			expected: map[string]float64{"a": 7, "b": 0.5},
		},
		{
			name:     "nan and none skipped",
			response: `{"job_id": "a", "refined_score": nan} {"job_id": "b", "refined_score": none} {"job_id": "c", "refined_score": 0.4}`,
			expected: map[string]float64{"c": 0.4},
		},
		{
			name:     "unquoted keys",
			response: `[{job_id: "a", refined_score: 0.6}]`,
			expected: map[string]float64{"a": 0.6},
		},
		{
			name:     "prose only",
			response: "I cannot rank these jobs.",
			expected: map[string]float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRefinedScores(tt.response)
			assertScores(t, got, tt.expected)
		})
	}
}

func TestNormalizeNumericLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"007", "7"},
		{"00.5", "0.5"},
		{"0.5", "0.5"},
		{"0", "0"},
		{"-007", "-7"},
		{"+00.25", "+0.25"},
		{"42", "42"},
	}

	for _, tt := range tests {
		if got := normalizeNumericLiteral(tt.in); got != tt.want {
			t.Errorf("normalizeNumericLiteral(%q) = %q, expected %q", tt.in, got, tt.want)
		}
	}
}

func TestToFloat(t *testing.T) {
	if _, ok := toFloat(math.NaN()); ok {
		t.Error("expected NaN to be rejected")
	}
	if _, ok := toFloat(math.Inf(1)); ok {
		t.Error("expected +Inf to be rejected")
	}
	if _, ok := toFloat(nil); ok {
		t.Error("expected nil to be rejected")
	}
	if _, ok := toFloat(true); ok {
		t.Error("expected bool to be rejected")
	}
	if v, ok := toFloat(" 0.25 "); !ok || v != 0.25 {
		t.Errorf("expected padded numeric string to parse, got %v %v", v, ok)
	}
}

func TestBuildPrompt_CarriesCandidates(t *testing.T) {
	prompt := buildPrompt([]Candidate{
		{JobID: "j-1", Score: 0.83, Description: "Backend engineer"},
	})

	for _, fragment := range []string{`"job_id":"j-1"`, `"score":0.83`, "Backend engineer", "refined_score"} {
		if !strings.Contains(prompt, fragment) {
			t.Errorf("prompt missing %q:\n%s", fragment, prompt)
		}
	}
}

func assertScores(t *testing.T, got, expected map[string]float64) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("expected %d scores, got %d: %v", len(expected), len(got), got)
	}
	for id, want := range expected {
		if v, ok := got[id]; !ok || math.Abs(v-want) > 1e-9 {
			t.Errorf("score for %s: expected %v, got %v (present=%v)", id, want, v, ok)
		}
	}
}
