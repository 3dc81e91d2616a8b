package tool

import (
	"fmt"

	"github.com/groupplan/groupplan/core"
	"github.com/groupplan/groupplan/plan"
)

// SavePlanToolName is the function name assistants use to persist the plan.
const SavePlanToolName = "save_plan_tool"

// stateKeyPlanPath records the last written plan path in session state so the
// coordinator can report it in the conversation result.
const stateKeyPlanPath = "plan_path"

// NewSavePlanTool exposes plan persistence as a callable tool. The tool
// accepts an ordered list of step strings plus an optional filename, writes
// them as a numbered list via the given writer and returns the absolute path
// written. Filesystem failures surface as EXECUTION_ERROR tool errors and
// stay inside the transcript.
func NewSavePlanTool(writer *plan.Writer) *FunctionTool {
	if writer == nil {
		writer = plan.NewWriter("")
	}

	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"steps": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Ordered plan steps, one string per step",
			},
			"filename": map[string]any{
				"type":        "string",
				"description": fmt.Sprintf("Target filename, defaults to %s", plan.DefaultFilename),
			},
		},
		"required": []string{"steps"},
	}

	return NewFunctionTool(
		SavePlanToolName,
		"Save the current plan steps to a numbered text file under the logs directory",
		params,
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			steps, err := stringSlice(args["steps"])
			if err != nil {
				return nil, err
			}

			filename, _ := args["filename"].(string)

			path, err := writer.Save(steps, filename)
			if err != nil {
				return nil, err
			}

			toolCtx.SetState(stateKeyPlanPath, path)
			toolCtx.Logger().Info("tool.save_plan.written", "path", path, "steps", len(steps))

			return path, nil
		},
	)
}

// PlanPath extracts the last saved plan path from session state, if any.
func PlanPath(sess *core.Session) (string, bool) {
	v, ok := sess.GetState(stateKeyPlanPath)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// stringSlice coerces a JSON-decoded array into []string. Arguments arrive
// either as []any (decoded model output) or []string (direct Go callers).
func stringSlice(v any) ([]string, error) {
	switch vv := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return vv, nil
	case []any:
		out := make([]string, 0, len(vv))
		for i, item := range vv {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("steps[%d]: expected string, got %T", i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("steps: expected array of strings, got %T", v)
	}
}
