// Package groupchat coordinates a bounded-round conversation between a user
// proxy, a planner and an executor under a supervising turn manager. Turns
// are strictly sequential; every contribution is appended to the session
// transcript before the next speaker is selected.
package groupchat

import (
	"context"
	"fmt"

	"github.com/groupplan/groupplan/agent"
	"github.com/groupplan/groupplan/core"
	"github.com/groupplan/groupplan/logging"
	"github.com/groupplan/groupplan/session"
	"github.com/groupplan/groupplan/tool"
)

// DefaultMaxRounds bounds the conversation length. The counter covers every
// speaker turn, tool-execution turns included.
const DefaultMaxRounds = 10

// Options configures a GroupChat.
type Options struct {
	// MaxRounds caps total speaker turns. Defaults to DefaultMaxRounds;
	// values below 1 are coerced to the default.
	MaxRounds int

	// Store persists the session transcript and state. Defaults to an
	// in-memory store.
	Store core.SessionStore

	// SessionID pins the conversation to an existing session. Defaults to a
	// fresh unique id per Run.
	SessionID string

	// Logger receives structured coordination logs. Defaults to no-op.
	Logger logging.Logger
}

// Option mutates Options.
type Option func(o *Options)

// WithMaxRounds overrides the round budget.
func WithMaxRounds(n int) Option { return func(o *Options) { o.MaxRounds = n } }

// WithStore overrides the session store.
func WithStore(s core.SessionStore) Option { return func(o *Options) { o.Store = s } }

// WithSessionID pins the session id.
func WithSessionID(id string) Option { return func(o *Options) { o.SessionID = id } }

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) Option { return func(o *Options) { o.Logger = l } }

// GroupChat runs a multi-agent conversation to completion or round budget.
type GroupChat struct {
	name         string
	participants []core.Agent
	manager      Manager
	opts         Options
}

// New assembles a group chat from its participants and turn manager. The
// participant slice must contain every agent the manager may select.
func New(name string, manager Manager, participants []core.Agent, optFns ...Option) (*GroupChat, error) {
	if manager == nil {
		return nil, fmt.Errorf("groupchat: manager is required")
	}
	if len(participants) == 0 {
		return nil, fmt.Errorf("groupchat: at least one participant is required")
	}

	opts := Options{MaxRounds: DefaultMaxRounds}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxRounds < 1 {
		opts.MaxRounds = DefaultMaxRounds
	}
	if opts.Store == nil {
		opts.Store = session.NewInMemoryStore()
	}

	return &GroupChat{name: name, participants: participants, manager: manager, opts: opts}, nil
}

// Run drives the conversation for the given goal until the manager reports
// completion or the round budget is exhausted. The goal enters the transcript
// as a round-0 user event; each subsequent turn occupies exactly one round.
// The session is terminated on every exit path, error included.
func (g *GroupChat) Run(ctx context.Context, goal string) (*Result, error) {
	sessionID := g.opts.SessionID
	if sessionID == "" {
		sessionID = core.NewID()
	}

	sess, err := g.opts.Store.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("groupchat: load session: %w", err)
	}

	runCtx := core.NewRunContext(ctx, sessionID, core.NewID(), core.NewUserText(goal), sess, g.opts.Store, g.opts.Logger)
	runCtx.LogInfo("groupchat.run.start", "group", g.name, "session_id", sessionID, "max_rounds", g.opts.MaxRounds)

	goalEvent := core.NewUserMessageEvent(sessionID, goal)
	if err := g.append(sess, goalEvent); err != nil {
		return nil, err
	}

	var reason string
	for sess.RoundCount() < g.opts.MaxRounds {
		if err := ctx.Err(); err != nil {
			g.finish(sess, sessionID)
			return g.result(sess, "cancelled"), err
		}

		speaker, err := g.manager.NextSpeaker(runCtx, g.participants)
		if err != nil {
			g.finish(sess, sessionID)
			return g.result(sess, "speaker selection failed"), err
		}

		round := sess.BeginRound()
		speakerCtx := runCtx.ForAgent(g.agentInfo(speaker), g.toolSpecsFor(speaker))

		runCtx.LogDebug("groupchat.turn.start", "round", round, "speaker", speaker.Name())
		ev, err := speaker.Respond(speakerCtx)
		if err != nil {
			g.finish(sess, sessionID)
			return g.result(sess, "speaker failed"), fmt.Errorf("groupchat: %s turn %d: %w", speaker.Name(), round, err)
		}

		ev.Round = round
		if err := g.append(sess, ev); err != nil {
			g.finish(sess, sessionID)
			return g.result(sess, "append failed"), err
		}
		if err := runCtx.CommitStateDelta(); err != nil {
			g.finish(sess, sessionID)
			return g.result(sess, "state commit failed"), err
		}

		if stop, why := g.manager.ShouldTerminate(runCtx); stop {
			reason = why
			break
		}
	}

	if reason == "" {
		reason = "round limit reached"
	}

	g.finish(sess, sessionID)
	runCtx.LogInfo("groupchat.run.done", "rounds", sess.RoundCount(), "reason", reason)
	return g.result(sess, reason), nil
}

// append writes an event to both the working session and the store.
func (g *GroupChat) append(sess *core.Session, ev core.Event) error {
	if err := sess.AddEvent(ev); err != nil {
		return err
	}
	return g.opts.Store.AppendEvent(sess.ID, ev)
}

// finish marks the session terminated in memory and in the store.
func (g *GroupChat) finish(sess *core.Session, sessionID string) {
	sess.Terminate()
	// Best effort; the in-memory session already rejects further appends.
	_ = g.opts.Store.Terminate(sessionID)
}

func (g *GroupChat) result(sess *core.Session, reason string) *Result {
	r := &Result{
		SessionID:  sess.ID,
		Events:     sess.GetEvents(),
		Rounds:     sess.RoundCount(),
		Terminated: sess.IsTerminated(),
		Reason:     reason,
	}
	if path, ok := tool.PlanPath(sess); ok {
		r.PlanPath = path
	}
	return r
}

func (g *GroupChat) agentInfo(a core.Agent) core.AgentInfo {
	info := core.AgentInfo{Name: a.Name(), Type: "assistant"}
	if _, ok := a.(*agent.UserProxyAgent); ok {
		info.Type = "user_proxy"
	}
	return info
}

// toolSpecsFor advertises the proxy's registered tools to assistant speakers.
// The proxy itself holds the implementations and needs no advertised specs.
func (g *GroupChat) toolSpecsFor(speaker core.Agent) []core.ToolSpec {
	if _, ok := speaker.(*agent.UserProxyAgent); ok {
		return nil
	}
	for _, p := range g.participants {
		if proxy, ok := p.(*agent.UserProxyAgent); ok {
			return proxy.ToolSpecs()
		}
	}
	return nil
}
