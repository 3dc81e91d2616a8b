package core

import (
	"errors"
	"testing"
)

func TestSession_MergeStateAndClone(t *testing.T) {
	s := NewSession("s1")

	s.MergeState(map[string]any{"a": 1, "b": "x"})
	if v, ok := s.GetState("a"); !ok || v.(int) != 1 {
		t.Fatalf("State not applied: %+v", s.State)
	}

	clone := s.Clone()
	if clone == s {
		t.Error("Clone should be a different pointer")
	}

	clone.SetState("c", 2)
	if _, exists := s.GetState("c"); exists {
		t.Error("Original should not have clone's new key")
	}
}

func TestSession_AddEventAndHistory(t *testing.T) {
	s := NewSession("s2")
	if err := s.AddEvent(NewAssistantMessageEvent("s2", "planner", "hello")); err != nil {
		t.Fatal(err)
	}
	if err := s.AddEvent(NewUserMessageEvent("s2", "hi")); err != nil {
		t.Fatal(err)
	}

	all := s.GetEvents()
	if len(all) != 2 {
		t.Fatalf("expected 2 events, got %d", len(all))
	}
	orig := all[0].Author
	all[0].Author = "changed"
	if s.GetEvents()[0].Author != orig {
		t.Error("events slice should be copied on read")
	}

	foundUser := false
	for _, hev := range s.ConversationHistory() {
		if hev.Content != nil && hev.Content.Role == "user" {
			foundUser = true
		}
	}
	if !foundUser {
		t.Error("expected user event in history")
	}
}

func TestSession_HistoryFiltersNonConversationRoles(t *testing.T) {
	s := NewSession("s3")
	sysEv := NewEvent("s3", "system")
	sysEv.Content = &Content{Role: "system", Parts: []Part{TextPart{Text: "internal"}}}
	s.AddEvent(sysEv)
	s.AddEvent(NewUserMessageEvent("s3", "hi"))

	history := s.ConversationHistory()
	if len(history) != 1 {
		t.Fatalf("expected 1 conversational event, got %d", len(history))
	}
	if history[0].Content.Role != "user" {
		t.Errorf("unexpected role %q", history[0].Content.Role)
	}
}

func TestSession_TerminateBlocksAppends(t *testing.T) {
	s := NewSession("s4")
	if err := s.AddEvent(NewUserMessageEvent("s4", "hi")); err != nil {
		t.Fatal(err)
	}

	s.Terminate()
	s.Terminate() // idempotent

	if !s.IsTerminated() {
		t.Fatal("expected session terminated")
	}
	err := s.AddEvent(NewUserMessageEvent("s4", "late"))
	if !errors.Is(err, ErrSessionTerminated) {
		t.Fatalf("expected ErrSessionTerminated, got %v", err)
	}
	if len(s.GetEvents()) != 1 {
		t.Error("late event must not enter the transcript")
	}
}

func TestSession_BeginRound(t *testing.T) {
	s := NewSession("s5")
	if s.RoundCount() != 0 {
		t.Fatal("fresh session should be at round 0")
	}
	if r := s.BeginRound(); r != 1 {
		t.Fatalf("expected round 1, got %d", r)
	}
	if r := s.BeginRound(); r != 2 {
		t.Fatalf("expected round 2, got %d", r)
	}
	if s.RoundCount() != 2 {
		t.Fatalf("expected 2 rounds, got %d", s.RoundCount())
	}
}
