// Package groupplan provides a high-level façade over the conversation
// coordinator, wiring the planner/executor workflow end to end. Most
// applications interact with this package by:
//  1. Loading backend configuration via config.Load()
//  2. Creating a GroupPlan via New() (optionally overriding the store,
//     logger, round budget or plan directory)
//  3. Running a goal with Run()
//
// The façade assembles the user proxy (tool execution), the planner and
// executor assistants and the supervising turn manager, then delegates the
// conversation loop to groupchat.GroupChat. All defaults are safe for local
// development against an Ollama backend.
package groupplan

import (
	"context"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/groupplan/groupplan/agent"
	"github.com/groupplan/groupplan/config"
	"github.com/groupplan/groupplan/core"
	"github.com/groupplan/groupplan/groupchat"
	"github.com/groupplan/groupplan/logging"
	"github.com/groupplan/groupplan/model"
	"github.com/groupplan/groupplan/model/anthropic"
	"github.com/groupplan/groupplan/model/openai"
	"github.com/groupplan/groupplan/plan"
	"github.com/groupplan/groupplan/session"
	"github.com/groupplan/groupplan/tool"
)

// Participant names in the transcript.
const (
	UserProxyName  = "user"
	PlannerName    = "planner"
	ExecutorName   = "executor"
	SupervisorName = "supervisor"
)

// System prompts for the two assistant roles.
const (
	plannerInstruction = "You are an MLOps planning assistant. Given a high-level goal, " +
		"produce a numbered list of 4-8 concrete steps to achieve it. " +
		"Focus on practical, implementation-oriented actions."

	executorInstruction = "You are an MLOps execution assistant. For each step in the " +
		"plan, describe briefly how to carry it out in practice, then " +
		"call `save_plan_tool` once you have the final plan ready."
)

// Options configures a GroupPlan instance.
type Options struct {
	// SessionStore persists transcripts and state. Defaults to in-memory.
	SessionStore core.SessionStore

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// MaxRounds caps total speaker turns (default groupchat.DefaultMaxRounds).
	MaxRounds int

	// PlanDir is the directory plans are written to (default plan.DefaultDir).
	PlanDir string

	// UseModelSupervisor switches turn selection from the deterministic
	// policy to a model-judged supervisor using the same backend.
	UseModelSupervisor bool

	// Model overrides the backend adapter built from the configuration.
	// Mostly useful for tests.
	Model model.Model
}

// GroupPlan aggregates the assembled participants and coordinator.
type GroupPlan struct {
	opts Options
	cfg  config.Config
	chat *groupchat.GroupChat
}

// New assembles a planner/executor group for the given backend configuration.
// Any unset option falls back to a local-development default.
func New(cfg config.Config, optFns ...func(o *Options)) (*GroupPlan, error) {
	opts := Options{
		SessionStore: session.NewInMemoryStore(),
		Logger:       logging.NoOpLogger{},
		MaxRounds:    groupchat.DefaultMaxRounds,
		PlanDir:      plan.DefaultDir,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	llm := opts.Model
	if llm == nil {
		var err error
		llm, err = newModel(cfg)
		if err != nil {
			return nil, err
		}
	}

	proxy := agent.NewUserProxyAgent(UserProxyName)
	proxy.RegisterTool(tool.NewSavePlanTool(plan.NewWriter(opts.PlanDir)))

	planner := agent.NewModelAgent(PlannerName, llm, func(o *agent.ModelAgentOptions) {
		o.Instruction = agent.NewInstructionFromText(plannerInstruction)
		o.Description = "Decomposes the goal into an ordered plan"
	})
	executor := agent.NewModelAgent(ExecutorName, llm, func(o *agent.ModelAgentOptions) {
		o.Instruction = agent.NewInstructionFromText(executorInstruction)
		o.Description = "Narrates execution of each step and persists the plan"
	})

	var manager groupchat.Manager = groupchat.NewRuleManager(UserProxyName, PlannerName, ExecutorName)
	if opts.UseModelSupervisor {
		manager = groupchat.NewModelManager(llm, UserProxyName, PlannerName, ExecutorName)
	}

	chat, err := groupchat.New(SupervisorName, manager,
		[]core.Agent{proxy, planner, executor},
		groupchat.WithMaxRounds(opts.MaxRounds),
		groupchat.WithStore(opts.SessionStore),
		groupchat.WithLogger(opts.Logger),
	)
	if err != nil {
		return nil, err
	}

	return &GroupPlan{opts: opts, cfg: cfg, chat: chat}, nil
}

// Run drives a full conversation for the given goal and returns the
// structured result.
func (g *GroupPlan) Run(ctx context.Context, goal string) (*groupchat.Result, error) {
	return g.chat.Run(ctx, goal)
}

// newModel builds the backend adapter selected by the configuration.
func newModel(cfg config.Config) (model.Model, error) {
	switch cfg.Provider {
	case "", "openai":
		return openai.NewModel(func(o *openai.Options) {
			o.Model = cfg.Model
			o.BaseURL = cfg.BaseURL
			o.APIKey = cfg.APIKey
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(cfg.Model)
			o.APIKey = cfg.APIKey
		}), nil
	default:
		return nil, fmt.Errorf("groupplan: unknown provider %q", cfg.Provider)
	}
}
