package agent

import "github.com/groupplan/groupplan/core"

// Instruction is the system prompt an assistant carries into each turn.
// The planner and executor run on fixed role prompts, but an instruction
// can also be computed per turn, for example to fold the session goal or
// the saved plan path into the prompt.
type Instruction struct {
	text string
	fn   func(*core.RunContext) (string, error)
}

// NewInstructionFromText builds an instruction with fixed prompt text.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromFunc builds an instruction resolved against the run
// context at turn time.
func NewInstructionFromFunc(fn func(*core.RunContext) (string, error)) Instruction {
	return Instruction{fn: fn}
}

// Resolve returns the prompt text for the current turn.
func (i Instruction) Resolve(rc *core.RunContext) (string, error) {
	if i.fn != nil {
		return i.fn(rc)
	}
	return i.text, nil
}
