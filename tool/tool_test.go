package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/groupplan/groupplan/core"
	"github.com/groupplan/groupplan/internal/util"
	"github.com/groupplan/groupplan/session"
)

func testToolContext(t *testing.T) *core.ToolContext {
	t.Helper()
	store := session.NewInMemoryStore()
	sess, err := store.Create("s1")
	assert.NoError(t, err)
	rc := core.NewRunContext(context.Background(), "s1", "r1", core.NewUserText("goal"), sess, store, nil)
	return core.NewToolContext(rc, "fc1")
}

// -------------------- Schema & Validation Tests --------------------

type sampleSchema struct {
	A string `json:"a" description:"Field A"`
	B *int   `json:"b" description:"Optional pointer field"`
	C int    `json:"c,omitempty" description:"Omit empty field"`
}

func TestCreateSchema(t *testing.T) {
	schema := util.CreateSchema(sampleSchema{})
	props, ok := schema["properties"].(map[string]any)
	assert.True(t, ok)
	assert.Contains(t, props, "a")
	assert.Contains(t, props, "b")
	assert.Contains(t, props, "c")
	req, _ := schema["required"].([]string)
	if req == nil { // reflection may produce []any
		ifaceReq, _ := schema["required"].([]any)
		for _, v := range ifaceReq {
			req = append(req, v.(string))
		}
	}
	assert.ElementsMatch(t, []string{"a"}, req)
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"steps": map[string]any{"type": "array"},
		},
		"required": []any{"steps"},
	}

	err := util.ValidateParameters(map[string]any{"steps": []any{"a"}}, schema)
	assert.NoError(t, err)

	err = util.ValidateParameters(map[string]any{}, schema)
	assert.Error(t, err)
	if vErr, ok := err.(*ValidationError); ok {
		assert.Equal(t, "steps", vErr.Field)
	} else {
		t.Fatalf("expected ValidationError, got %T", err)
	}

	err = util.ValidateParameters(map[string]any{"steps": 42}, schema)
	assert.Error(t, err)
}

// -------------------- FunctionTool Tests --------------------

func TestFunctionTool_Success(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}

	sumTool := NewFunctionTool("sum", "Add numbers", params, func(_ *core.ToolContext, args map[string]any) (any, error) {
		a := args["a"].(float64)
		b := args["b"].(float64)
		return a + b, nil
	})

	result, err := sumTool.Call(testToolContext(t), map[string]any{"a": 2.0, "b": 3.0})
	assert.NoError(t, err)
	assert.Equal(t, 5.0, result)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
		},
		"required": []any{"a"},
	}
	tTool := NewFunctionTool("test", "Test", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return 0, nil
	})
	_, err := tTool.Call(testToolContext(t), map[string]any{})
	assert.Error(t, err)
	toolErr, ok := err.(*ToolError)
	assert.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}
	execTool := NewFunctionTool("fail", "Fails", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return nil, errors.New("boom")
	})
	_, err := execTool.Call(testToolContext(t), map[string]any{})
	assert.Error(t, err)
	toolErr, ok := err.(*ToolError)
	assert.True(t, ok)
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
}

func TestSpec(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}
	echo := NewFunctionTool("echo", "Echoes input", params, func(_ *core.ToolContext, args map[string]any) (any, error) {
		return args, nil
	})

	spec := Spec(echo)
	assert.Equal(t, "echo", spec.Name)
	assert.Equal(t, "Echoes input", spec.Description)
	assert.Equal(t, params, spec.Parameters)
}
