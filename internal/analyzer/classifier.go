package analyzer

import (
	"context"
	"fmt"

	"sjsage522/learningfield/logger"
)

// Classifier picks one backend for the whole pass. A configured local model
// wins over Gemini and failures never fall back to the other backend.
type Classifier struct {
	backend Analyzer
}

// NewClassifier wraps backend; a nil backend yields NoKeyAnalysis for every post
func NewClassifier(backend Analyzer) *Classifier {
	return &Classifier{backend: backend}
}

// Backend returns the backend name, or "none"
func (c *Classifier) Backend() string {
	if c.backend == nil {
		return "none"
	}
	return c.backend.Name()
}

// Classify analyzes one post. Backend errors are wrapped in ErrAnalysisFailed.
func (c *Classifier) Classify(ctx context.Context, text, linkedURL string) (*Analysis, error) {
	if c.backend == nil {
		return NoKeyAnalysis(), nil
	}

	a, err := c.backend.Analyze(ctx, text, linkedURL)
	if err != nil {
		logger.ForAnalyzer(c.backend.Name()).Warn().Err(err).Msg("Analysis failed")
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	return a, nil
}

// Options selects and configures the backend
type Options struct {
	LMStudioBaseURL string
	LMStudioModel   string
	GeminiAPIKey    string
	GeminiModel     string
}

// New builds a classifier from options: LM Studio when a base URL is set,
// otherwise Gemini when a key is set, otherwise no backend.
func New(ctx context.Context, opts Options) (*Classifier, error) {
	switch {
	case opts.LMStudioBaseURL != "":
		logger.ForAnalyzer("lmstudio").Info().Str("base_url", opts.LMStudioBaseURL).Msg("Using local LLM for analysis")
		return NewClassifier(NewLocalLLM(opts.LMStudioBaseURL, opts.LMStudioModel)), nil
	case opts.GeminiAPIKey != "":
		g, err := NewGemini(ctx, opts.GeminiAPIKey, opts.GeminiModel)
		if err != nil {
			return nil, err
		}
		return NewClassifier(g), nil
	default:
		logger.ForAnalyzer("none").Warn().Msg("No AI backend configured, posts will be stored as Uncategorized")
		return NewClassifier(nil), nil
	}
}

// Close releases the backend if it holds resources
func (c *Classifier) Close() error {
	if closer, ok := c.backend.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
