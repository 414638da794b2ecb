package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeExtraction represents page content extraction errors
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeAnalysis represents LLM analysis errors
	ErrorTypeAnalysis ErrorType = "analysis"
	// ErrorTypeStorage represents database errors
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeNotification represents webhook notification errors
	ErrorTypeNotification ErrorType = "notification"
	// ErrorTypeSearch represents search index errors
	ErrorTypeSearch ErrorType = "search"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// PipelineError represents an error raised by one stage of the curation pipeline
type PipelineError struct {
	Type    ErrorType
	Stage   string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Stage, e.Message)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *PipelineError) IsRetryable() bool {
	return e.Type == ErrorTypeNetwork
}

// IsType reports whether err wraps a PipelineError of the given type
func IsType(err error, errType ErrorType) bool {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe.Type == errType
	}
	return false
}

// New creates a new PipelineError
func New(errType ErrorType, stage, message string, err error) *PipelineError {
	return &PipelineError{
		Type:    errType,
		Stage:   stage,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(stage, message string, err error) *PipelineError {
	return New(ErrorTypeNetwork, stage, message, err)
}

// NewExtraction creates a new extraction error
func NewExtraction(stage, message string, err error) *PipelineError {
	return New(ErrorTypeExtraction, stage, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(stage string, duration time.Duration) *PipelineError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, stage, message, nil)
}

// NewAnalysis creates a new analysis error
func NewAnalysis(stage, message string, err error) *PipelineError {
	return New(ErrorTypeAnalysis, stage, message, err)
}

// NewStorage creates a new storage error
func NewStorage(stage, message string, err error) *PipelineError {
	return New(ErrorTypeStorage, stage, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(stage, message string, err error) *PipelineError {
	return New(ErrorTypePublisher, stage, message, err)
}

// NewNotification creates a new notification error
func NewNotification(stage, message string, err error) *PipelineError {
	return New(ErrorTypeNotification, stage, message, err)
}

// NewSearch creates a new search error
func NewSearch(stage, message string, err error) *PipelineError {
	return New(ErrorTypeSearch, stage, message, err)
}

// NewValidation creates a new validation error
func NewValidation(stage, message string) *PipelineError {
	return New(ErrorTypeValidation, stage, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *PipelineError {
	return New(ErrorTypeConfiguration, "config", message, err)
}
