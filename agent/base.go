package agent

import "fmt"

// BaseAgent bundles identity helpers shared by concrete participant
// implementations. Embed it and supply a Respond method to satisfy the
// core.Agent interface. The group conversation is flat; there is no
// agent hierarchy.
type BaseAgent struct {
	name        string // Human-readable name
	description string // Detailed description of the agent's purpose
}

// NewBaseAgent constructs a BaseAgent with generated description (customizable via SetDescription).
func NewBaseAgent(name string) BaseAgent {
	return BaseAgent{
		name:        name,
		description: fmt.Sprintf("Agent %s", name),
	}
}

// Name returns the human-readable name for this agent.
func (b *BaseAgent) Name() string { return b.name }

// Description returns a detailed description of this agent's purpose.
func (b *BaseAgent) Description() string { return b.description }

// SetDescription updates the agent's description.
func (b *BaseAgent) SetDescription(d string) { b.description = d }
