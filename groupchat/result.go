package groupchat

import (
	"fmt"
	"strings"

	"github.com/groupplan/groupplan/core"
)

// Result is the structured outcome of a conversation run.
type Result struct {
	SessionID  string       `json:"session_id"`
	Events     []core.Event `json:"events"`
	Rounds     int          `json:"rounds"`
	Terminated bool         `json:"terminated"`
	Reason     string       `json:"reason"`
	PlanPath   string       `json:"plan_path,omitempty"`
}

// Transcript renders the conversation as labeled lines, one block per event,
// suitable for printing to a terminal.
func (r *Result) Transcript() string {
	var b strings.Builder
	for _, ev := range r.Events {
		if ev.Content == nil {
			continue
		}
		if text := ev.Content.Text(); text != "" {
			fmt.Fprintf(&b, "[%s] %s\n", ev.Author, text)
		}
		for _, fc := range ev.GetFunctionCalls() {
			fmt.Fprintf(&b, "[%s] -> %s(%s)\n", ev.Author, fc.Name, fc.Arguments)
		}
		for _, fr := range ev.GetFunctionResponses() {
			if fr.Error != "" {
				fmt.Fprintf(&b, "[%s] <- %s error: %s\n", ev.Author, fr.Name, fr.Error)
				continue
			}
			fmt.Fprintf(&b, "[%s] <- %s: %v\n", ev.Author, fr.Name, fr.Response)
		}
	}
	return b.String()
}

// String summarizes the run outcome in one line.
func (r *Result) String() string {
	return fmt.Sprintf("session=%s rounds=%d terminated=%t reason=%q plan=%s",
		r.SessionID, r.Rounds, r.Terminated, r.Reason, r.PlanPath)
}
