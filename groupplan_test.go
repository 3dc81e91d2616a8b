package groupplan

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupplan/groupplan/config"
	"github.com/groupplan/groupplan/model"
	"github.com/groupplan/groupplan/tool"
)

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(config.Config{Provider: "watsonx"})
	assert.ErrorContains(t, err, "unknown provider")
}

func TestNew_DefaultsToOpenAIProvider(t *testing.T) {
	gp, err := New(config.Config{BaseURL: config.DefaultBaseURL, Model: config.DefaultModel, APIKey: config.PlaceholderAPIKey})
	require.NoError(t, err)
	require.NotNil(t, gp)
}

func TestRun_EndToEndWithMock(t *testing.T) {
	// One shared mock backs both assistants; the planner turn pops the plan
	// text and the executor turn pops the tool call.
	llm := model.NewMockModel("m", "mock").
		ScriptText("1. Collect data\n2. Train model\n3. Deploy").
		ScriptFunctionCall(tool.SavePlanToolName, `{"steps":["Collect data","Train model","Deploy"]}`)

	dir := t.TempDir()
	gp, err := New(config.Load(), func(o *Options) {
		o.Model = llm
		o.PlanDir = dir
	})
	require.NoError(t, err)

	res, err := gp.Run(context.Background(), "Stand up a churn prediction service")
	require.NoError(t, err)

	assert.True(t, res.Terminated)
	assert.LessOrEqual(t, res.Rounds, 10)
	require.NotEmpty(t, res.PlanPath)

	content, err := os.ReadFile(res.PlanPath)
	require.NoError(t, err)
	assert.Equal(t, "1. Collect data\n2. Train model\n3. Deploy\n", string(content))

	// Goal echo plus planner, executor and tool turns.
	require.GreaterOrEqual(t, len(res.Events), 4)
	assert.Equal(t, "user", res.Events[0].Author)
	assert.Equal(t, PlannerName, res.Events[1].Author)
	assert.Equal(t, ExecutorName, res.Events[2].Author)
	assert.Equal(t, UserProxyName, res.Events[3].Author)
}

func TestRun_ModelSupervisor(t *testing.T) {
	// The supervisor shares the assistants' backend; script its speaker
	// choices inline after each assistant turn.
	llm := model.NewMockModel("m", "mock").
		ScriptText("1. Only step").                                           // planner turn
		ScriptText("executor").                                               // supervisor choice
		ScriptFunctionCall(tool.SavePlanToolName, `{"steps":["Only step"]}`). // executor turn
		ScriptText("executor")                                                // supervisor after tool result

	gp, err := New(config.Load(), func(o *Options) {
		o.Model = llm
		o.PlanDir = t.TempDir()
		o.UseModelSupervisor = true
	})
	require.NoError(t, err)

	res, err := gp.Run(context.Background(), "goal")
	require.NoError(t, err)
	assert.True(t, res.Terminated)
	assert.NotEmpty(t, res.PlanPath)
}
