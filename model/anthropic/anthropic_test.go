package anthropic

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupplan/groupplan/core"
)

func TestBuildMessages_ToolResultsFollowAsUserMessage(t *testing.T) {
	m := NewModel()

	contents := []core.Content{
		core.NewUserText("save the plan"),
		{Role: "assistant", Parts: []core.Part{
			core.TextPart{Text: "saving now"},
			core.FunctionCallPart{FunctionCall: core.FunctionCall{
				ID:        "call1",
				Name:      "save_plan_tool",
				Arguments: `{"steps":["collect data"]}`,
			}},
		}},
		{Role: "tool", Parts: []core.Part{
			core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
				ID:       "call1",
				Name:     "save_plan_tool",
				Response: "/logs/autogen_plan.txt",
			}},
		}},
	}

	messages := m.buildMessages(contents)
	require.Len(t, messages, 3)
	assert.Equal(t, anthropic.MessageParamRoleUser, messages[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, messages[1].Role)

	// tool_result blocks belong to the user message that follows the
	// assistant tool_use turn, not to the assistant message itself.
	assert.Equal(t, anthropic.MessageParamRoleUser, messages[2].Role)
	for _, block := range messages[1].Content {
		assert.Nil(t, block.OfToolResult)
	}
	require.Len(t, messages[2].Content, 1)
	require.NotNil(t, messages[2].Content[0].OfToolResult)
	assert.Equal(t, "call1", messages[2].Content[0].OfToolResult.ToolUseID)
}

func TestBuildMessages_ErrorResultMarksText(t *testing.T) {
	m := NewModel()

	contents := []core.Content{
		{Role: "assistant", Parts: []core.Part{
			core.FunctionCallPart{FunctionCall: core.FunctionCall{
				ID:   "call1",
				Name: "save_plan_tool",
			}},
		}},
		{Role: "tool", Parts: []core.Part{
			core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
				ID:    "call1",
				Name:  "save_plan_tool",
				Error: "missing steps",
			}},
		}},
	}

	messages := m.buildMessages(contents)
	require.Len(t, messages, 2)
	require.NotNil(t, messages[1].Content[0].OfToolResult)
}
