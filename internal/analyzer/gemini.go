package analyzer

import (
	"context"
	"strings"

	"sjsage522/learningfield/logger"
	apperrors "sjsage522/learningfield/pkg/errors"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini analyzes posts with the Google Gemini API
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a Gemini backend; extra options are applied after the API key
func NewGemini(ctx context.Context, apiKey, modelName string, opts ...option.ClientOption) (*Gemini, error) {
	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, apperrors.NewAnalysis("gemini", "failed to create client", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.1)
	model.ResponseMIMEType = "application/json"

	return &Gemini{client: client, model: model}, nil
}

// Name returns the backend name
func (g *Gemini) Name() string { return "gemini" }

// Analyze sends the post to Gemini
func (g *Gemini) Analyze(ctx context.Context, text, linkedURL string) (*Analysis, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(geminiPrompt(text, linkedURL)))
	if err != nil {
		return nil, apperrors.NewAnalysis(g.Name(), "generate content failed", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, apperrors.NewAnalysis(g.Name(), "no response from model", nil)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	logger.ForAnalyzer(g.Name()).Debug().Str("content", sb.String()).Msg("Raw LLM response")
	return ParseAnalysis(sb.String())
}

// Close releases the client
func (g *Gemini) Close() error {
	return g.client.Close()
}
