package groupchat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupplan/groupplan/agent"
	"github.com/groupplan/groupplan/core"
	"github.com/groupplan/groupplan/model"
	"github.com/groupplan/groupplan/session"
	"github.com/groupplan/groupplan/tool"
)

func testParticipants() []core.Agent {
	return []core.Agent{
		agent.NewUserProxyAgent("user_proxy"),
		agent.NewModelAgent("planner", model.NewMockModel("m", "mock")),
		agent.NewModelAgent("executor", model.NewMockModel("m", "mock")),
	}
}

// newRunContext builds a RunContext over an in-memory session pre-loaded with
// the given events.
func newRunContext(t *testing.T, events ...core.Event) *core.RunContext {
	t.Helper()
	store := session.NewInMemoryStore()
	sess, err := store.Create("s")
	require.NoError(t, err)
	for _, ev := range events {
		require.NoError(t, sess.AddEvent(ev))
	}
	return core.NewRunContext(context.Background(), "s", "r", core.NewUserText("goal"), sess, store, nil)
}

func TestRuleManager_PlannerFirst(t *testing.T) {
	m := NewRuleManager("user_proxy", "planner", "executor")

	rc := newRunContext(t, core.NewUserMessageEvent("s", "goal"))
	speaker, err := m.NextSpeaker(rc, testParticipants())
	require.NoError(t, err)
	assert.Equal(t, "planner", speaker.Name())
}

func TestRuleManager_ExecutorAfterPlanner(t *testing.T) {
	m := NewRuleManager("user_proxy", "planner", "executor")

	rc := newRunContext(t,
		core.NewUserMessageEvent("s", "goal"),
		core.NewAssistantMessageEvent("s", "planner", "1. step"),
	)
	speaker, err := m.NextSpeaker(rc, testParticipants())
	require.NoError(t, err)
	assert.Equal(t, "executor", speaker.Name())
}

func TestRuleManager_PendingCallRoutesToProxy(t *testing.T) {
	m := NewRuleManager("user_proxy", "planner", "executor")

	rc := newRunContext(t,
		core.NewUserMessageEvent("s", "goal"),
		core.NewAssistantMessageEvent("s", "planner", "1. step"),
		core.NewFunctionCallEvent("s", "executor", tool.SavePlanToolName, `{"steps":["step"]}`),
	)
	speaker, err := m.NextSpeaker(rc, testParticipants())
	require.NoError(t, err)
	assert.Equal(t, "user_proxy", speaker.Name())
}

func TestRuleManager_ExecutorResumesAfterToolResult(t *testing.T) {
	m := NewRuleManager("user_proxy", "planner", "executor")

	rc := newRunContext(t,
		core.NewUserMessageEvent("s", "goal"),
		core.NewAssistantMessageEvent("s", "planner", "1. step"),
		core.NewFunctionCallEvent("s", "executor", tool.SavePlanToolName, `{"steps":["step"]}`),
		core.NewFunctionResponseEvent("s", "user_proxy", "id", tool.SavePlanToolName, nil, assert.AnError),
	)
	speaker, err := m.NextSpeaker(rc, testParticipants())
	require.NoError(t, err)
	assert.Equal(t, "executor", speaker.Name())
}

func TestRuleManager_UnknownParticipant(t *testing.T) {
	m := NewRuleManager("user_proxy", "planner", "executor")
	rc := newRunContext(t)

	_, err := m.NextSpeaker(rc, []core.Agent{agent.NewUserProxyAgent("someone_else")})
	assert.Error(t, err)
}

func TestRuleManager_TerminatesOnlyAfterSuccessfulSave(t *testing.T) {
	m := NewRuleManager("user_proxy", "planner", "executor")

	rc := newRunContext(t,
		core.NewUserMessageEvent("s", "goal"),
		core.NewAssistantMessageEvent("s", "planner", "1. step"),
		core.NewFunctionCallEvent("s", "executor", tool.SavePlanToolName, `{"steps":["step"]}`),
	)
	stop, _ := m.ShouldTerminate(rc)
	assert.False(t, stop, "no tool result yet")

	require.NoError(t, rc.Session.AddEvent(
		core.NewFunctionResponseEvent("s", "user_proxy", "id", tool.SavePlanToolName, nil, assert.AnError),
	))
	stop, _ = m.ShouldTerminate(rc)
	assert.False(t, stop, "failed save must not terminate")

	require.NoError(t, rc.Session.AddEvent(
		core.NewFunctionResponseEvent("s", "user_proxy", "id", tool.SavePlanToolName, "/logs/autogen_plan.txt", nil),
	))
	stop, reason := m.ShouldTerminate(rc)
	assert.True(t, stop)
	assert.NotEmpty(t, reason)
}

func TestModelManager_FollowsSupervisorChoice(t *testing.T) {
	supervisor := model.NewMockModel("judge", "mock").ScriptText("executor")
	m := NewModelManager(supervisor, "user_proxy", "planner", "executor")

	rc := newRunContext(t,
		core.NewUserMessageEvent("s", "goal"),
		core.NewAssistantMessageEvent("s", "planner", "1. step"),
	)
	speaker, err := m.NextSpeaker(rc, testParticipants())
	require.NoError(t, err)
	assert.Equal(t, "executor", speaker.Name())
}

func TestModelManager_PlannerOrderingOverridesSupervisor(t *testing.T) {
	// Supervisor never consulted before the planner's first turn.
	supervisor := model.NewMockModel("judge", "mock").ScriptText("executor")
	m := NewModelManager(supervisor, "user_proxy", "planner", "executor")

	rc := newRunContext(t, core.NewUserMessageEvent("s", "goal"))
	speaker, err := m.NextSpeaker(rc, testParticipants())
	require.NoError(t, err)
	assert.Equal(t, "planner", speaker.Name())
	assert.Empty(t, supervisor.Calls())
}

func TestModelManager_FallsBackOnGarbage(t *testing.T) {
	supervisor := model.NewMockModel("judge", "mock").ScriptText("no idea, sorry")
	m := NewModelManager(supervisor, "user_proxy", "planner", "executor")

	rc := newRunContext(t,
		core.NewUserMessageEvent("s", "goal"),
		core.NewAssistantMessageEvent("s", "planner", "1. step"),
	)
	speaker, err := m.NextSpeaker(rc, testParticipants())
	require.NoError(t, err)
	assert.Equal(t, "executor", speaker.Name(), "deterministic fallback after planner turn")
}
