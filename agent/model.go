package agent

import (
	"fmt"
	"strings"

	"github.com/groupplan/groupplan/core"
	"github.com/groupplan/groupplan/model"
)

// ModelAgentOptions configures a ModelAgent instance.
//
// Use functional options with NewModelAgent to override defaults.
type ModelAgentOptions struct {
	Instruction        Instruction
	Description        string
	MaxHistoryMessages int
}

// ModelAgent integrates with a language model to take conversation turns.
//
// On each turn it projects the shared transcript into the model's view
// (its own messages as assistant turns, everyone else's as labeled user
// turns), resolves its instruction into the system prompt, advertises the
// tool specs provided by the coordinator, and returns the model's reply as
// a single transcript event. The agent itself never executes tools; tool
// calls it emits are routed by the coordinator to the participant that
// registered the tool.
type ModelAgent struct {
	BaseAgent
	llm                model.Model
	instruction        Instruction
	maxHistoryMessages int
}

// NewModelAgent creates a new model-backed agent.
//
// Parameters:
//   - name: Human-readable name used as the transcript author label
//   - llm: Language model implementation for text generation
//
// Defaults: a generic assistant instruction and a 20-message history window.
func NewModelAgent(name string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Instruction:        NewInstructionFromText(fmt.Sprintf("You are %s, a helpful AI assistant.", name)),
		MaxHistoryMessages: 20,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	a := &ModelAgent{
		BaseAgent:          NewBaseAgent(name),
		llm:                llm,
		instruction:        opts.Instruction,
		maxHistoryMessages: opts.MaxHistoryMessages,
	}
	if opts.Description != "" {
		a.SetDescription(opts.Description)
	}
	return a
}

// LLM returns the language model instance.
func (a *ModelAgent) LLM() model.Model { return a.llm }

// MaxHistoryMessages returns the conversation history window size.
func (a *ModelAgent) MaxHistoryMessages() int { return a.maxHistoryMessages }

// ResolveInstruction produces the final system prompt by resolving static or
// dynamic instruction sources.
func (a *ModelAgent) ResolveInstruction(runCtx *core.RunContext) (string, error) {
	return a.instruction.Resolve(runCtx)
}

// Respond implements core.Agent. It performs one blocking model call and
// returns the resulting assistant event. Backend errors propagate to the
// coordinator and abort the conversation.
func (a *ModelAgent) Respond(runCtx *core.RunContext) (core.Event, error) {
	runCtx.LogDebug("agent.respond.start", "agent", a.Name(), "run", runCtx.RunID)

	instructions, err := a.ResolveInstruction(runCtx)
	if err != nil {
		return core.Event{}, fmt.Errorf("resolve instruction for %s: %w", a.Name(), err)
	}

	req := model.Request{
		Instructions: instructions,
		Contents:     a.projectHistory(runCtx),
		Tools:        runCtx.Tools,
	}

	resp, err := a.llm.Generate(runCtx.Context, req)
	if err != nil {
		return core.Event{}, fmt.Errorf("model call for %s: %w", a.Name(), err)
	}

	ev := core.NewEvent(runCtx.SessionID, a.Name())
	content := resp.Content
	content.Role = "assistant"
	content.Parts = ensureCallIDs(content.Parts)
	ev.Content = &content

	runCtx.LogDebug(
		"agent.respond.complete",
		"agent", a.Name(),
		"finish_reason", resp.FinishReason,
		"fn_calls", len(ev.GetFunctionCalls()),
	)

	return ev, nil
}

// projectHistory maps the shared transcript into this agent's model view:
//   - its own events keep the assistant role (tool call pairing intact)
//   - results of its own tool calls pass through as tool messages
//   - everyone else's text, calls and results become labeled user messages
//
// Tool messages are only valid on the wire when the matching assistant
// tool_calls message precedes them in the same request, so results of calls
// this agent did not author (or whose call fell outside the window) are
// narrated as text instead.
//
// The window is trimmed to the most recent maxHistoryMessages entries.
func (a *ModelAgent) projectHistory(runCtx *core.RunContext) []core.Content {
	history := runCtx.History()
	if a.maxHistoryMessages > 0 && len(history) > a.maxHistoryMessages {
		history = history[len(history)-a.maxHistoryMessages:]
	}

	ownCalls := map[string]bool{}
	for _, ev := range history {
		if ev.Author != a.Name() {
			continue
		}
		for _, fc := range ev.GetFunctionCalls() {
			ownCalls[fc.ID] = true
		}
	}

	contents := make([]core.Content, 0, len(history))
	for _, ev := range history {
		if ev.Content == nil {
			continue
		}
		switch {
		case ev.Content.Role == "tool":
			if respondsToOwnCalls(ev, ownCalls) {
				contents = append(contents, *ev.Content)
				continue
			}
			contents = append(contents, core.NewUserText(describeToolResults(ev)))
		case ev.Author == a.Name():
			contents = append(contents, *ev.Content)
		case ev.Author == "user":
			contents = append(contents, core.NewUserText(ev.Content.Text()))
		default:
			text := ev.Content.Text()
			for _, fc := range ev.GetFunctionCalls() {
				text += fmt.Sprintf("\n[requested tool call: %s]", fc.Name)
			}
			contents = append(contents, core.NewUserText(fmt.Sprintf("[%s] %s", ev.Author, text)))
		}
	}
	return contents
}

// respondsToOwnCalls reports whether every function response in ev answers a
// call that appears in ownCalls.
func respondsToOwnCalls(ev core.Event, ownCalls map[string]bool) bool {
	responses := ev.GetFunctionResponses()
	if len(responses) == 0 {
		return false
	}
	for _, fr := range responses {
		if !ownCalls[fr.ID] {
			return false
		}
	}
	return true
}

// describeToolResults renders a tool response event as a labeled user turn,
// matching the transcript shape used elsewhere in the conversation.
func describeToolResults(ev core.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", ev.Author)
	for _, fr := range ev.GetFunctionResponses() {
		if fr.Error != "" {
			fmt.Fprintf(&b, " tool %s error: %s", fr.Name, fr.Error)
			continue
		}
		fmt.Fprintf(&b, " tool %s result: %v", fr.Name, fr.Response)
	}
	return b.String()
}

// ensureCallIDs assigns generated ids to function calls the provider left
// unidentified so tool responses can reference them.
func ensureCallIDs(parts []core.Part) []core.Part {
	out := make([]core.Part, len(parts))
	for i, p := range parts {
		if fc, ok := p.(core.FunctionCallPart); ok && fc.FunctionCall.ID == "" {
			fc.FunctionCall.ID = core.NewID()
			out[i] = fc
			continue
		}
		out[i] = p
	}
	return out
}
