package core

import (
	"time"

	"github.com/google/uuid"
)

// Event is the primary unit of communication between conversation
// participants. After being appended to a session transcript it must be
// treated as immutable. It captures:
//   - Correlation (SessionID, ID, Author)
//   - The round position within the conversation (1-based; 0 for the
//     initiating goal message)
//   - Conversational content (role-based Parts)
//   - Error metadata for failed turns
//   - High precision UTC timestamp
//
// Content may be nil for control or error-only events.
type Event struct {
	ID           string            `json:"id"`
	SessionID    string            `json:"session_id"`
	Author       string            `json:"author"`
	Round        int               `json:"round"`
	Timestamp    time.Time         `json:"timestamp"`
	Content      *Content          `json:"content,omitempty"`
	TurnComplete *bool             `json:"turn_complete,omitempty"`
	ErrorCode    *string           `json:"error_code,omitempty"`
	ErrorMessage *string           `json:"error_message,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// NewEvent creates a bare event authored by 'author' bound to a session.
// Prefer helper constructors for common semantic categories (message,
// function call/response).
func NewEvent(sessionID, author string) Event {
	return Event{
		ID:        NewID(),
		SessionID: sessionID,
		Author:    author,
		Timestamp: time.Now().UTC(),
	}
}

// NewUserMessageEvent creates a user-authored text message event. The
// conversation goal enters the transcript through this constructor.
func NewUserMessageEvent(sessionID, message string) Event {
	e := NewEvent(sessionID, "user")
	e.Content = &Content{Role: "user", Parts: []Part{TextPart{Text: message}}}
	return e
}

// NewAssistantMessageEvent creates an assistant message event with a single
// text part. Author is the speaking agent's name.
func NewAssistantMessageEvent(sessionID, author, message string) Event {
	e := NewEvent(sessionID, author)
	e.Content = &Content{Role: "assistant", Parts: []Part{TextPart{Text: message}}}
	return e
}

// NewFunctionCallEvent represents an agent requesting execution of a named
// function/tool.
func NewFunctionCallEvent(sessionID, author, functionName, args string) Event {
	e := NewEvent(sessionID, author)
	e.Content = &Content{
		Role: "assistant",
		Parts: []Part{
			FunctionCallPart{
				FunctionCall: FunctionCall{
					ID:        NewID(),
					Name:      functionName,
					Arguments: args,
				},
			},
		},
	}
	return e
}

// NewFunctionResponseEvent records the completion result (or error) of a
// tool/function invocation. If err is non-nil its message is copied into the
// response's Error field so the failure stays visible in the transcript.
func NewFunctionResponseEvent(sessionID, author, id, functionName string, result interface{}, err error) Event {
	e := NewEvent(sessionID, author)
	fr := FunctionResponse{ID: id, Name: functionName, Response: result}
	if err != nil {
		fr.Error = err.Error()
	}
	e.Content = &Content{Role: "tool", Parts: []Part{FunctionResponsePart{FunctionResponse: fr}}}
	return e
}

// NewID generates a new unique identifier for events and function calls.
func NewID() string { return uuid.NewString() }

// GetFunctionCalls returns any FunctionCall parts contained within the event
// content preserving their original order.
func (e Event) GetFunctionCalls() []FunctionCall {
	if e.Content == nil {
		return nil
	}
	var calls []FunctionCall
	for _, p := range e.Content.Parts {
		if fc, ok := p.(FunctionCallPart); ok {
			calls = append(calls, fc.FunctionCall)
		}
	}
	return calls
}

// GetFunctionResponses returns any FunctionResponse parts contained within
// the event content preserving their original order.
func (e Event) GetFunctionResponses() []FunctionResponse {
	if e.Content == nil {
		return nil
	}
	var responses []FunctionResponse
	for _, p := range e.Content.Parts {
		if fr, ok := p.(FunctionResponsePart); ok {
			responses = append(responses, fr.FunctionResponse)
		}
	}
	return responses
}

// IsFinalResponse reports whether this event closes a speaker turn: no
// pending tool calls and no tool responses awaiting a follow-up turn.
func (e Event) IsFinalResponse() bool {
	return len(e.GetFunctionCalls()) == 0 && len(e.GetFunctionResponses()) == 0
}

// UnixSeconds returns the timestamp as fractional seconds since Unix epoch.
// Useful for metrics & numeric serialization paths.
func (e Event) UnixSeconds() float64 { return float64(e.Timestamp.UnixNano()) / 1e9 }
