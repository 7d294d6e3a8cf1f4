// Package llm abstracts the chat completion providers used for chart
// commentary.
package llm

import (
	"context"
	"errors"

	"github.com/newthinker/chartdesk/internal/core"
)

// DefaultMaxTokens caps a response when the request leaves MaxTokens unset.
const DefaultMaxTokens = 1024

// Provider is one chat completion backend.
type Provider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

type ChatRequest struct {
	SystemPrompt string
	Messages     []Message
	MaxTokens    int
	Temperature  float64
	JSONMode     bool
}

// Message is one conversation turn. Role is "user" or "assistant".
type Message struct {
	Role    string
	Content string
}

// UserMessage is shorthand for a single user turn.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

type ChatResponse struct {
	Content      string
	Usage        Usage
	FinishReason string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
}

// MaxTokensOrDefault returns the effective token cap of r.
func (r ChatRequest) MaxTokensOrDefault() int {
	if r.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return r.MaxTokens
}

// WrapError classifies a provider failure as a timeout or a generic LLM
// failure.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return core.WrapError(core.ErrLLMTimeout, err)
	}
	return core.WrapError(core.ErrLLMFailed, errors.Join(errors.New(provider), err))
}
