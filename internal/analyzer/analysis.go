// Package analyzer classifies scraped learning resources with an LLM backend.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	apperrors "sjsage522/learningfield/pkg/errors"
)

// MaxTags is the number of tags kept from a model response
const MaxTags = 3

// ErrAnalysisFailed is returned when the selected backend could not produce an analysis
var ErrAnalysisFailed = errors.New("analysis failed")

// Analysis is the structured classification of one resource
type Analysis struct {
	IsTechRelated bool     `json:"is_tech_related"`
	Category      string   `json:"category"`
	Difficulty    string   `json:"difficulty"`
	Tags          []string `json:"tags"`
	IsPaywalled   bool     `json:"is_paywalled"`
	Summary       string   `json:"summary"`
}

// Analyzer is an LLM backend
type Analyzer interface {
	Analyze(ctx context.Context, text, linkedURL string) (*Analysis, error)
	Name() string
}

// NoKeyAnalysis is used when no backend is configured
func NoKeyAnalysis() *Analysis {
	return &Analysis{
		IsTechRelated: true,
		Category:      "Uncategorized",
		Difficulty:    "Unknown",
		Tags:          []string{"no-ai-key"},
	}
}

// ParseAnalysis decodes a model response, tolerating markdown code fences
func ParseAnalysis(raw string) (*Analysis, error) {
	clean := strings.ReplaceAll(raw, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return nil, apperrors.NewAnalysis("parse", "empty model response", nil)
	}

	var a Analysis
	if err := json.Unmarshal([]byte(clean), &a); err != nil {
		return nil, apperrors.NewAnalysis("parse", "invalid JSON in model response", err)
	}
	if strings.TrimSpace(a.Category) == "" {
		return nil, apperrors.NewAnalysis("parse", "model response has no category", nil)
	}
	if len(a.Tags) > MaxTags {
		a.Tags = a.Tags[:MaxTags]
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	return &a, nil
}
