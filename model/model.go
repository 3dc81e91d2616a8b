// Package model defines the provider-neutral contract between conversation
// participants and LLM backends, plus a scripted mock for tests.
package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/groupplan/groupplan/core"
)

// Request captures the normalized model input produced by an agent turn.
// The conversation is strictly sequential, so generation is a single
// blocking call with no streaming.
type Request struct {
	Instructions string          `json:"instructions"` // System prompt for the model
	Contents     []core.Content  `json:"contents"`     // Conversation history as provider messages
	Tools        []core.ToolSpec `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the completed output of one model call.
type Response struct {
	ID           string       `json:"id"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by agents to drive generation.
// Generate blocks until the backend produces a complete response; backend
// connectivity failures are returned as errors and treated as fatal by the
// conversation coordinator.
type Model interface {
	Generate(ctx context.Context, req Request) (Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// scriptEntry is one queued MockModel turn: either a response or a failure.
type scriptEntry struct {
	resp Response
	err  error
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Responses are served from a FIFO script; when the script is exhausted,
// Generate echoes the last user text.
type MockModel struct {
	mu     sync.Mutex
	info   Info
	script []scriptEntry
	calls  []Request
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
	}
}

// ScriptText enqueues a plain assistant text response.
func (m *MockModel) ScriptText(text string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scriptEntry{resp: Response{
		Content:      core.Content{Role: "assistant", Parts: []core.Part{core.TextPart{Text: text}}},
		FinishReason: "stop",
	}})
	return m
}

// ScriptFunctionCall enqueues an assistant response requesting a tool call.
func (m *MockModel) ScriptFunctionCall(name, argsJSON string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scriptEntry{resp: Response{
		Content: core.Content{
			Role: "assistant",
			Parts: []core.Part{core.FunctionCallPart{FunctionCall: core.FunctionCall{
				ID:        core.NewID(),
				Name:      name,
				Arguments: argsJSON,
			}}},
		},
		FinishReason: "tool_calls",
	}})
	return m
}

// ScriptError enqueues a backend failure for the corresponding call.
func (m *MockModel) ScriptError(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scriptEntry{err: err})
	return m
}

// Calls returns the requests observed so far, in order.
func (m *MockModel) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// Generate implements Model, popping the next scripted entry.
func (m *MockModel) Generate(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)

	if len(m.script) > 0 {
		entry := m.script[0]
		m.script = m.script[1:]
		if entry.err != nil {
			return Response{}, entry.err
		}
		return entry.resp, nil
	}

	var inputText string
	if len(req.Contents) > 0 {
		inputText = req.Contents[len(req.Contents)-1].Text()
	}
	return Response{
		Content: core.Content{
			Role:  "assistant",
			Parts: []core.Part{core.TextPart{Text: fmt.Sprintf("Mock response to: %s", inputText)}},
		},
		FinishReason: "stop",
	}, nil
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
