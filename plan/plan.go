// Package plan models the ordered step list produced by the planner/executor
// exchange and persists it as a numbered plain-text file.
package plan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFilename is the file written under the logs directory when the
// caller does not supply a name.
const DefaultFilename = "autogen_plan.txt"

// DefaultDir is the directory plans are written to, relative to the process
// working directory unless an absolute path is configured.
const DefaultDir = "logs"

// Plan is an ordered sequence of textual steps. Steps are built externally
// (by the executor agent's reasoning) and handed over as a whole at save time.
type Plan struct {
	Steps []string
}

// New constructs a Plan from the given steps.
func New(steps ...string) Plan { return Plan{Steps: steps} }

// Render formats the plan as a numbered list, one step per line:
// "<1-based index>. <step text>\n". An empty plan renders to the empty string.
func (p Plan) Render() string {
	var b strings.Builder
	for i, step := range p.Steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	return b.String()
}

// Len returns the number of steps.
func (p Plan) Len() int { return len(p.Steps) }

// Writer persists rendered plans to files under Dir, creating the directory
// on first use. The zero value writes to DefaultDir.
type Writer struct {
	Dir string
}

// NewWriter constructs a Writer targeting dir (DefaultDir when empty).
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = DefaultDir
	}
	return &Writer{Dir: dir}
}

// Save writes the plan steps as a numbered list to filename under the
// writer's directory and returns the absolute path written. The directory is
// created if absent (idempotent); an existing file of the same name is fully
// overwritten. Filesystem errors are surfaced to the caller unmodified.
func (w *Writer) Save(steps []string, filename string) (string, error) {
	dir := w.Dir
	if dir == "" {
		dir = DefaultDir
	}
	if filename == "" {
		filename = DefaultFilename
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(Plan{Steps: steps}.Render()), 0o644); err != nil {
		return "", err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return abs, nil
}
