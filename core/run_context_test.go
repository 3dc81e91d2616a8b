package core

import (
	"context"
	"sync"
	"testing"
)

// memStore is a minimal in-package SessionStore for context tests.
type memStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newMemStore() *memStore {
	return &memStore{sessions: map[string]*Session{}}
}

func (s *memStore) Create(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := NewSession(id)
	s.sessions[id] = sess
	return sess.Clone(), nil
}

func (s *memStore) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess.Clone(), nil
	}
	sess := NewSession(id)
	s.sessions[id] = sess
	return sess.Clone(), nil
}

func (s *memStore) AppendEvent(id string, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		s.sessions[id] = NewSession(id)
	}
	return s.sessions[id].AddEvent(ev)
}

func (s *memStore) ApplyDelta(id string, delta map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		s.sessions[id] = NewSession(id)
	}
	s.sessions[id].MergeState(delta)
	return nil
}

func (s *memStore) Terminate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.Terminate()
	}
	return nil
}

func newTestRunContext(t *testing.T) (*RunContext, *memStore) {
	t.Helper()
	store := newMemStore()
	sess, err := store.Create("s1")
	if err != nil {
		t.Fatal(err)
	}
	rc := NewRunContext(context.Background(), "s1", "r1", NewUserText("goal"), sess, store, nil)
	return rc, store
}

func TestRunContext_StateDeltaPrecedence(t *testing.T) {
	rc, _ := newTestRunContext(t)
	rc.Session.SetState("k", "persisted")

	if v, _ := rc.GetState("k"); v != "persisted" {
		t.Fatalf("expected persisted value, got %v", v)
	}

	rc.SetState("k", "staged")
	if v, _ := rc.GetState("k"); v != "staged" {
		t.Fatalf("staged delta should shadow session state, got %v", v)
	}
}

func TestRunContext_CommitStateDelta(t *testing.T) {
	rc, store := newTestRunContext(t)
	rc.SetState("plan_path", "/logs/autogen_plan.txt")

	if err := rc.CommitStateDelta(); err != nil {
		t.Fatal(err)
	}
	if len(rc.StateDelta) != 0 {
		t.Error("delta buffer should be cleared after commit")
	}

	if v, ok := rc.Session.GetState("plan_path"); !ok || v != "/logs/autogen_plan.txt" {
		t.Error("commit should merge into the working session")
	}
	persisted, err := store.Get("s1")
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := persisted.GetState("plan_path"); !ok || v != "/logs/autogen_plan.txt" {
		t.Error("commit should persist through the store")
	}
}

func TestRunContext_LastEvent(t *testing.T) {
	rc, _ := newTestRunContext(t)

	if _, ok := rc.LastEvent(); ok {
		t.Fatal("empty transcript has no last event")
	}

	rc.Session.AddEvent(NewUserMessageEvent("s1", "goal"))
	rc.Session.AddEvent(NewAssistantMessageEvent("s1", "planner", "plan"))

	last, ok := rc.LastEvent()
	if !ok || last.Author != "planner" {
		t.Fatalf("expected planner event, got %+v", last)
	}
}

func TestRunContext_ForAgent(t *testing.T) {
	rc, _ := newTestRunContext(t)
	specs := []ToolSpec{{Name: "save_plan_tool"}}

	scoped := rc.ForAgent(AgentInfo{Name: "executor", Type: "assistant"}, specs)
	if scoped.Agent.Name != "executor" {
		t.Errorf("unexpected agent %q", scoped.Agent.Name)
	}
	if len(scoped.Tools) != 1 || scoped.Tools[0].Name != "save_plan_tool" {
		t.Error("expected tool specs on scoped context")
	}
	if rc.Agent.Name == "executor" {
		t.Error("original context should be untouched")
	}

	// Delta buffers are shared; turns are sequential.
	scoped.SetState("k", 1)
	if _, ok := rc.GetState("k"); !ok {
		t.Error("scoped delta should be visible on the parent")
	}
}

func TestToolContext_Accessors(t *testing.T) {
	rc, _ := newTestRunContext(t)
	rc.Agent = AgentInfo{Name: "user", Type: "user_proxy"}

	tc := NewToolContext(rc, "fc-123")
	if tc.FunctionCallID() != "fc-123" {
		t.Errorf("unexpected call id %q", tc.FunctionCallID())
	}
	if tc.SessionID() != "s1" || tc.RunID() != "r1" {
		t.Error("expected run identifiers to pass through")
	}
	if tc.AgentName() != "user" || tc.AgentType() != "user_proxy" {
		t.Error("expected agent info to pass through")
	}

	tc.SetState("written", true)
	if v, ok := rc.GetState("written"); !ok || v != true {
		t.Error("tool state writes should stage on the run context")
	}
}
