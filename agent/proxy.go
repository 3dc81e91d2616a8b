package agent

import (
	"github.com/groupplan/groupplan/core"
	"github.com/groupplan/groupplan/tool"
)

// UserProxyAgent represents the driving party in the conversation. It never
// produces model-generated content; its only job is executing tool calls
// emitted by assistant participants. Tools are attached via an explicit
// registry mapping tool name to implementation.
type UserProxyAgent struct {
	BaseAgent
	tools map[string]tool.Tool
}

// NewUserProxyAgent creates a user proxy with an empty tool registry.
func NewUserProxyAgent(name string) *UserProxyAgent {
	p := &UserProxyAgent{
		BaseAgent: NewBaseAgent(name),
		tools:     make(map[string]tool.Tool),
	}
	p.SetDescription("Proxy for the driving user; executes registered tools on behalf of assistants")
	return p
}

// RegisterTool adds a tool to the proxy's registry, making it invocable by
// name from any assistant turn.
func (p *UserProxyAgent) RegisterTool(t tool.Tool) { p.tools[t.Name()] = t }

// RegisterTools adds multiple tools at once.
func (p *UserProxyAgent) RegisterTools(tools ...tool.Tool) {
	for _, t := range tools {
		p.RegisterTool(t)
	}
}

// HasTool checks if a tool is registered.
func (p *UserProxyAgent) HasTool(name string) bool {
	_, exists := p.tools[name]
	return exists
}

// ToolSpecs returns the transport-neutral specs of all registered tools, for
// advertisement to model-backed participants.
func (p *UserProxyAgent) ToolSpecs() []core.ToolSpec {
	specs := make([]core.ToolSpec, 0, len(p.tools))
	for _, t := range p.tools {
		specs = append(specs, tool.Spec(t))
	}
	return specs
}

// Respond implements core.Agent. When the previous transcript event carries
// function calls the proxy executes them and returns a single tool-role event
// holding one response part per call, errors included. Tool failures surface
// in the transcript as failed call results; they never abort the
// conversation. With no pending calls the proxy contributes an empty turn
// (it is fully automated and has no input of its own).
func (p *UserProxyAgent) Respond(runCtx *core.RunContext) (core.Event, error) {
	last, ok := runCtx.LastEvent()
	if !ok {
		return core.NewAssistantMessageEvent(runCtx.SessionID, p.Name(), ""), nil
	}

	calls := last.GetFunctionCalls()
	if len(calls) == 0 {
		return core.NewAssistantMessageEvent(runCtx.SessionID, p.Name(), ""), nil
	}

	ev := core.NewEvent(runCtx.SessionID, p.Name())
	content := core.Content{Role: "tool"}

	for _, fc := range calls {
		result, err := p.executeCall(runCtx, fc)
		fr := core.FunctionResponse{ID: fc.ID, Name: fc.Name, Response: result}
		if err != nil {
			fr.Error = err.Error()
		}
		content.Parts = append(content.Parts, core.FunctionResponsePart{FunctionResponse: fr})
	}

	ev.Content = &content
	return ev, nil
}

// executeCall looks up and invokes a single registered tool.
func (p *UserProxyAgent) executeCall(runCtx *core.RunContext, fc core.FunctionCall) (any, error) {
	impl, ok := p.tools[fc.Name]
	if !ok {
		runCtx.LogWarn("proxy.tool.unknown", "tool", fc.Name)
		return nil, tool.NewToolError(fc.Name, "tool not registered", "UNKNOWN_TOOL")
	}

	toolCtx := core.NewToolContext(runCtx, fc.ID)

	args, err := decodeArgs(fc.Arguments)
	if err != nil {
		return nil, tool.NewToolError(fc.Name, err.Error(), "VALIDATION_ERROR")
	}

	return impl.Call(toolCtx, args)
}
