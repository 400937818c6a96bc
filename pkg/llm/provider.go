package llm

import (
	"context"
	"fmt"
	"time"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// TokenFunc receives each streamed token. Returning an error aborts the
// stream; the provider propagates that error to the caller.
type TokenFunc func(token string) error

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// ChatStream streams the response token by token and returns the full
	// accumulated text once the stream ends.
	ChatStream(ctx context.Context, history []Message, onToken TokenFunc, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}

// GenerationTimeoutError marks a model call that exceeded its deadline, as
// opposed to failing outright. Callers may retry it.
type GenerationTimeoutError struct {
	Provider string
	Elapsed  time.Duration
}

func (e *GenerationTimeoutError) Error() string {
	return fmt.Sprintf("%s generation timed out after %s", e.Provider, e.Elapsed.Round(time.Millisecond))
}
