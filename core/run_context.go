package core

import (
	"context"
	"fmt"
	"maps"

	"github.com/groupplan/groupplan/logging"
)

// RunContext carries execution state & helpers for one conversation run.
// It encapsulates the per-run scope handed to an Agent's Respond method:
//   - The ambient cancellation Context
//   - Identifiers (SessionID, RunID) and the current speaker's AgentInfo
//   - The immutable conversation goal
//   - Tool specs advertised to model-backed speakers for this run
//   - The backing SessionStore plus a working Session snapshot
//   - A pending StateDelta buffer committed via CommitStateDelta
//
// The coordinator creates one RunContext per conversation and derives a
// per-speaker view with ForAgent before each turn. State mutations performed
// via SetState accumulate in StateDelta until CommitStateDelta applies them.
type RunContext struct {
	Context      context.Context
	SessionID    string
	RunID        string
	Agent        AgentInfo
	Goal         Content
	Tools        []ToolSpec
	SessionStore SessionStore
	Session      *Session
	StateDelta   map[string]any

	*loggerAdapter
}

// NewRunContext constructs a RunContext with an empty state delta buffer.
func NewRunContext(
	ctx context.Context,
	sessionID, runID string,
	goal Content,
	sess *Session,
	store SessionStore,
	logger logging.Logger,
) *RunContext {
	return &RunContext{
		Context:       ctx,
		SessionID:     sessionID,
		RunID:         runID,
		Goal:          goal,
		Session:       sess,
		SessionStore:  store,
		StateDelta:    map[string]any{},
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// GetState returns a staged (delta) value if present, else the persisted session value.
func (rc *RunContext) GetState(k string) (any, bool) {
	if v, ok := rc.StateDelta[k]; ok {
		return v, true
	}
	if rc.Session != nil {
		return rc.Session.GetState(k)
	}
	return nil, false
}

// SetState stages a state mutation in the in-memory delta buffer.
func (rc *RunContext) SetState(k string, v any) { rc.StateDelta[k] = v }

// CommitStateDelta persists the accumulated StateDelta then clears the buffer.
func (rc *RunContext) CommitStateDelta() error {
	if len(rc.StateDelta) == 0 {
		return nil
	}
	if rc.SessionStore == nil {
		return fmt.Errorf("session store not configured")
	}
	if err := rc.SessionStore.ApplyDelta(rc.SessionID, rc.StateDelta); err != nil {
		return err
	}
	rc.Session.MergeState(rc.StateDelta)
	rc.StateDelta = map[string]any{}
	return nil
}

// History returns the conversational transcript (user/assistant/tool events)
// accumulated so far. Read-only access for all roles; appends stay with the
// coordinator.
func (rc *RunContext) History() []Event {
	if rc.Session == nil {
		return []Event{}
	}
	return rc.Session.ConversationHistory()
}

// LastEvent returns the most recent transcript event, or a zero Event and
// false when the transcript is empty.
func (rc *RunContext) LastEvent() (Event, bool) {
	h := rc.History()
	if len(h) == 0 {
		return Event{}, false
	}
	return h[len(h)-1], true
}

// ForAgent returns a shallow copy scoped to the given speaker, carrying the
// tool specs that speaker may advertise to its model. Delta buffers are
// shared deliberately: speaker turns are strictly sequential.
func (rc *RunContext) ForAgent(info AgentInfo, tools []ToolSpec) *RunContext {
	c := *rc
	c.Agent = info
	c.Tools = tools
	return &c
}

// Clone returns a shallow copy with a deep-copied delta buffer.
func (rc *RunContext) Clone() *RunContext {
	c := *rc
	c.StateDelta = map[string]any{}
	maps.Copy(c.StateDelta, rc.StateDelta)
	return &c
}
