package groupchat

import (
	"fmt"
	"strings"

	"github.com/groupplan/groupplan/core"
	"github.com/groupplan/groupplan/model"
	"github.com/groupplan/groupplan/tool"
)

// Manager encapsulates the supervising turn policy of a group conversation:
// who speaks next, and when the conversation is done. The round budget is
// enforced by the GroupChat itself, not the manager.
type Manager interface {
	// NextSpeaker selects the next participant given the transcript so far.
	NextSpeaker(runCtx *core.RunContext, participants []core.Agent) (core.Agent, error)

	// ShouldTerminate reports whether the conversation goal is satisfied,
	// with a human-readable reason when it is.
	ShouldTerminate(runCtx *core.RunContext) (bool, string)
}

// RuleManager is a deterministic turn policy for the proxy/planner/executor
// trio:
//
//   - pending function calls route the turn to the proxy for execution
//   - the planner always contributes before the executor
//   - after a tool result the executor resumes to narrate the outcome
//   - otherwise planner and executor alternate
//
// It terminates once both assistants have contributed and a successful plan
// save is visible in the transcript.
type RuleManager struct {
	ProxyName    string
	PlannerName  string
	ExecutorName string
}

var _ Manager = (*RuleManager)(nil)

// NewRuleManager creates the deterministic policy bound to the three
// participant names.
func NewRuleManager(proxyName, plannerName, executorName string) *RuleManager {
	return &RuleManager{ProxyName: proxyName, PlannerName: plannerName, ExecutorName: executorName}
}

// NextSpeaker implements Manager.
func (m *RuleManager) NextSpeaker(runCtx *core.RunContext, participants []core.Agent) (core.Agent, error) {
	last, ok := runCtx.LastEvent()
	if !ok || !m.hasSpoken(runCtx, m.PlannerName) {
		return m.byName(participants, m.PlannerName)
	}

	if len(last.GetFunctionCalls()) > 0 {
		return m.byName(participants, m.ProxyName)
	}

	switch last.Author {
	case m.PlannerName:
		return m.byName(participants, m.ExecutorName)
	case m.ProxyName:
		// Tool results flow back to the executor that requested them.
		return m.byName(participants, m.ExecutorName)
	default:
		return m.byName(participants, m.PlannerName)
	}
}

// ShouldTerminate implements Manager. The conversation is complete when both
// assistants have spoken and the transcript contains a successful save_plan
// result.
func (m *RuleManager) ShouldTerminate(runCtx *core.RunContext) (bool, string) {
	if !m.hasSpoken(runCtx, m.PlannerName) || !m.hasSpoken(runCtx, m.ExecutorName) {
		return false, ""
	}
	if !planSaved(runCtx) {
		return false, ""
	}
	return true, "plan saved and execution narrated"
}

func (m *RuleManager) hasSpoken(runCtx *core.RunContext, name string) bool {
	for _, ev := range runCtx.History() {
		if ev.Author == name {
			return true
		}
	}
	return false
}

func (m *RuleManager) byName(participants []core.Agent, name string) (core.Agent, error) {
	for _, p := range participants {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("groupchat: no participant named %q", name)
}

// planSaved reports whether a successful save_plan function response exists
// in the transcript.
func planSaved(runCtx *core.RunContext) bool {
	for _, ev := range runCtx.History() {
		for _, fr := range ev.GetFunctionResponses() {
			if fr.Name == tool.SavePlanToolName && fr.Error == "" {
				return true
			}
		}
	}
	return false
}

// ModelManager delegates speaker selection to a supervising model, mirroring
// a group chat run by an LLM judge. Pending function calls still route to
// the proxy deterministically, and the planner-before-executor ordering is
// enforced regardless of the model's choice. On unparseable output it falls
// back to round-robin over the assistants.
type ModelManager struct {
	llm          model.Model
	proxyName    string
	plannerName  string
	executorName string
}

var _ Manager = (*ModelManager)(nil)

// NewModelManager creates a model-judged turn policy.
func NewModelManager(llm model.Model, proxyName, plannerName, executorName string) *ModelManager {
	return &ModelManager{llm: llm, proxyName: proxyName, plannerName: plannerName, executorName: executorName}
}

// NextSpeaker implements Manager.
func (m *ModelManager) NextSpeaker(runCtx *core.RunContext, participants []core.Agent) (core.Agent, error) {
	rules := NewRuleManager(m.proxyName, m.plannerName, m.executorName)

	last, ok := runCtx.LastEvent()
	if !ok || !rules.hasSpoken(runCtx, m.plannerName) {
		return rules.byName(participants, m.plannerName)
	}
	if len(last.GetFunctionCalls()) > 0 {
		return rules.byName(participants, m.proxyName)
	}

	name, err := m.askSupervisor(runCtx)
	if err != nil {
		runCtx.LogWarn("groupchat.supervisor.error", "error", err)
		return rules.NextSpeaker(runCtx, participants)
	}

	chosen, err := rules.byName(participants, name)
	if err != nil {
		runCtx.LogWarn("groupchat.supervisor.unknown_choice", "choice", name)
		return rules.NextSpeaker(runCtx, participants)
	}
	return chosen, nil
}

// ShouldTerminate implements Manager using the same completion signal as the
// deterministic policy. The supervisor model picks speakers; it does not get
// to end the conversation without a saved plan.
func (m *ModelManager) ShouldTerminate(runCtx *core.RunContext) (bool, string) {
	rules := NewRuleManager(m.proxyName, m.plannerName, m.executorName)
	return rules.ShouldTerminate(runCtx)
}

// askSupervisor prompts the model with the transcript and the participant
// names, expecting a bare name in reply.
func (m *ModelManager) askSupervisor(runCtx *core.RunContext) (string, error) {
	var b strings.Builder
	for _, ev := range runCtx.History() {
		if ev.Content == nil {
			continue
		}
		if text := ev.Content.Text(); text != "" {
			fmt.Fprintf(&b, "[%s] %s\n", ev.Author, text)
		}
		for _, fr := range ev.GetFunctionResponses() {
			fmt.Fprintf(&b, "[%s] tool %s result: %v\n", ev.Author, fr.Name, fr.Response)
		}
	}

	instructions := fmt.Sprintf(
		"You are coordinating a conversation between %s, %s and %s. "+
			"Read the transcript and reply with only the name of the participant who should speak next.",
		m.proxyName, m.plannerName, m.executorName,
	)

	resp, err := m.llm.Generate(runCtx.Context, model.Request{
		Instructions: instructions,
		Contents:     []core.Content{core.NewUserText(b.String())},
	})
	if err != nil {
		return "", err
	}

	choice := strings.TrimSpace(resp.Content.Text())
	for _, name := range []string{m.proxyName, m.plannerName, m.executorName} {
		if strings.EqualFold(choice, name) || strings.Contains(strings.ToLower(choice), strings.ToLower(name)) {
			return name, nil
		}
	}
	return "", fmt.Errorf("unrecognized speaker choice %q", choice)
}
