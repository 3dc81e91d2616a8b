package core

// Agent defines the single capability every conversation participant must
// implement: take one turn in a turn-based exchange, optionally invoking
// registered tools, and return the resulting transcript event.
//
// Implementations must:
//   - Respect context cancellation via the RunContext
//   - Never mutate the transcript themselves; the coordinator owns appends
//   - Return exactly one event per turn (the event may carry several parts)
type Agent interface {
	Name() string
	Description() string
	Respond(runCtx *RunContext) (Event, error)
}

// AgentInfo carries identifying details about an agent used in contexts & events.
// Name is the external identifier; Type categorizes implementation
// (e.g. "model", "proxy", "manager").
type AgentInfo struct{ Name, Type string }
