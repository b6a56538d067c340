package refiner

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// buildPrompt serializes the candidates and wraps them in the scoring
// instruction. All providers receive the identical prompt.
func buildPrompt(candidates []Candidate) string {
	serialized, _ := json.Marshal(candidates)

	var sb strings.Builder
	sb.WriteString("You are re-ranking job descriptions for resume alignment. ")
	sb.WriteString("Given the JSON array of jobs below (each with job_id, score, description) ")
	sb.WriteString("return a JSON array of objects where each object contains job_id and ")
	sb.WriteString("refined_score between 0 and 1. Higher is better. Respond with JSON only.\n")
	sb.WriteString("Jobs: ")
	sb.Write(serialized)
	return sb.String()
}

// ParseRefinedScores extracts job_id -> refined_score pairs from an LLM
// response. Parsing is two-tier: first the whole response is treated as a
// strict JSON array, with malformed entries dropped individually; only when
// that fails wholesale does a relaxed pattern scan run over the raw text.
// A response yielding nothing returns an empty map, never fabricated scores.
func ParseRefinedScores(response string) map[string]float64 {
	response = strings.TrimSpace(response)
	if response == "" {
		return map[string]float64{}
	}

	if scores, ok := parseStrict(response); ok {
		return scores
	}
	return extractRelaxed(response)
}

// parseStrict treats the response as a JSON array of objects. Entries
// missing job_id or carrying a non-numeric refined_score are skipped;
// one bad entry must not discard the rest.
func parseStrict(response string) (map[string]float64, bool) {
	var entries []map[string]any
	if err := json.Unmarshal([]byte(response), &entries); err != nil {
		return nil, false
	}

	scores := make(map[string]float64)
	for _, entry := range entries {
		jobID, ok := entry["job_id"].(string)
		if !ok || jobID == "" {
			continue
		}
		value, ok := toFloat(entry["refined_score"])
		if !ok {
			continue
		}
		scores[jobID] = value
	}
	return scores, true
}

// toFloat accepts JSON numbers and numeric strings, rejecting everything
// else including NaN and infinities.
func toFloat(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, !math.IsNaN(value) && !math.IsInf(value, 0)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// relaxedPattern locates job_id/refined_score fragments even inside broken
// JSON: missing commas, code fences, trailing prose. The score literal may
// be quoted or bare.
var relaxedPattern = regexp.MustCompile(`"?job_id"?\s*:\s*"([^"]+)"\s*,?\s*"?refined_score"?\s*:\s*"?([A-Za-z0-9.+-]+)"?`)

// extractRelaxed is the fallback tier. Numeric literals are normalized
// before parsing (quotes stripped by the pattern, leading-zero runs
// collapsed: 007 -> 7, 00.5 -> 0.5); non-numeric values such as nan or
// none are skipped.
func extractRelaxed(response string) map[string]float64 {
	scores := make(map[string]float64)
	for _, match := range relaxedPattern.FindAllStringSubmatch(response, -1) {
		jobID := match[1]
		literal := normalizeNumericLiteral(match[2])
		value, err := strconv.ParseFloat(literal, 64)
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
			continue
		}
		scores[jobID] = value
	}
	return scores
}

// normalizeNumericLiteral collapses leading-zero runs so literals like 007
// or 00.5 survive strict float parsing. The sign is preserved and a lone
// zero is left alone.
func normalizeNumericLiteral(literal string) string {
	sign := ""
	rest := literal
	if strings.HasPrefix(rest, "+") || strings.HasPrefix(rest, "-") {
		sign, rest = rest[:1], rest[1:]
	}
	for len(rest) > 1 && rest[0] == '0' && rest[1] != '.' {
		rest = rest[1:]
	}
	return sign + rest
}
