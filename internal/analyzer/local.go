package analyzer

import (
	"context"
	"strings"
	"time"

	"sjsage522/learningfield/logger"
	apperrors "sjsage522/learningfield/pkg/errors"

	"github.com/sashabaranov/go-openai"
)

// LocalLLM talks to an OpenAI-compatible server such as LM Studio
type LocalLLM struct {
	client *openai.Client
	model  string
}

// NewLocalLLM creates a client for baseURL, which must not include the /v1 suffix
func NewLocalLLM(baseURL, model string) *LocalLLM {
	cfg := openai.DefaultConfig("")
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/") + "/v1"
	return &LocalLLM{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Name returns the backend name
func (l *LocalLLM) Name() string { return "lmstudio" }

// Analyze sends the post to the local model
func (l *LocalLLM) Analyze(ctx context.Context, text, linkedURL string) (*Analysis, error) {
	log := logger.ForAnalyzer(l.Name())
	start := time.Now()

	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       l.model,
		Temperature: 0.1,
		Stream:      false,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: localPrompt(text, linkedURL)},
		},
	})
	if err != nil {
		return nil, apperrors.NewAnalysis(l.Name(), "chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return nil, apperrors.NewAnalysis(l.Name(), "no choices in response", nil)
	}

	content := resp.Choices[0].Message.Content
	log.Debug().
		Dur("duration", time.Since(start)).
		Str("content", content).
		Msg("Raw LLM response")

	return ParseAnalysis(content)
}
