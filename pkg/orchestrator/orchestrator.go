package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/WoodPyle/wayneos-vm-app/internal/tracing"
	"github.com/WoodPyle/wayneos-vm-app/pkg/agent"
	"github.com/WoodPyle/wayneos-vm-app/pkg/intent"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Observer is notified of routing decisions and agent calls
type Observer interface {
	IntentClassified(in intent.Intent)
	AgentCalled(agentName, action string, duration time.Duration, err error)
	Fallback(command string)
}

type nopObserver struct{}

func (nopObserver) IntentClassified(intent.Intent)                   {}
func (nopObserver) AgentCalled(string, string, time.Duration, error) {}
func (nopObserver) Fallback(string)                                  {}

// Orchestrator classifies commands and routes them to agents
type Orchestrator struct {
	classifier *intent.Classifier
	observer   Observer
	clock      func() time.Time
	logger     zerolog.Logger
}

// Option is a functional option for configuring the Orchestrator
type Option func(*Orchestrator)

// WithClassifier sets the intent classifier
func WithClassifier(c *intent.Classifier) Option {
	return func(o *Orchestrator) {
		o.classifier = c
	}
}

// WithLogger sets the logger for the orchestrator
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithClock sets the time source used for task list dates and call timing
func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) {
		o.clock = clock
	}
}

// WithObserver sets the observer of routing events
func WithObserver(observer Observer) Option {
	return func(o *Orchestrator) {
		o.observer = observer
	}
}

// New creates a new Orchestrator. Without WithClassifier the default rule
// table is used.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		observer: nopObserver{},
		clock:    time.Now,
		logger:   zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.classifier == nil {
		o.classifier = intent.MustNew()
	}
	if o.observer == nil {
		o.observer = nopObserver{}
	}
	o.logger = o.logger.With().Str("component", "orchestrator").Logger()

	return o
}

// ParseIntent classifies command
func (o *Orchestrator) ParseIntent(command string) intent.Intent {
	return o.classifier.Classify(command)
}

// Classifier returns the classifier in use
func (o *Orchestrator) Classifier() *intent.Classifier {
	return o.classifier
}

// Execute classifies command and runs the matching agent workflow. Commands
// with no workflow, or whose agents are missing from agents, get the generic
// completion result.
func (o *Orchestrator) Execute(ctx context.Context, command string, params agent.Params, agents agent.Lookup) (agent.Result, error) {
	in := o.ParseIntent(command)
	o.observer.IntentClassified(in)

	logger := tracing.LoggerFromContext(ctx, o.logger)
	logger.Debug().
		Str("category", string(in.Category)).
		Str("action", in.Action).
		Str("target", in.Target).
		Str("filter", in.Filter).
		Msg("Intent classified")

	switch in.Category {
	case intent.CategoryEmail:
		if fs, ok := agents.Get("filesystem"); ok {
			p := params.Clone()
			p["category"] = orDefault(in.Filter, "all")
			return o.call(ctx, fs, "read_emails", p)
		}

	case intent.CategoryTask:
		fs, fsOK := agents.Get("filesystem")
		ml, mlOK := agents.Get("ml")
		if fsOK && mlOK {
			emails, err := o.call(ctx, fs, "read_emails", agent.Params{"category": "all"})
			if err != nil {
				return nil, err
			}
			return o.call(ctx, ml, "generate_task_list", agent.Params{
				"source": emails,
				"date":   o.clock().Format("2006-01-02"),
			})
		}

	case intent.CategoryApplication:
		if proc, ok := agents.Get("process"); ok {
			return o.call(ctx, proc, "launch_application", agent.Params{
				"app": orDefault(in.Target, "firefox"),
				"url": params["url"],
			})
		}

	case intent.CategoryHardware:
		if hw, ok := agents.Get("hardware"); ok {
			return o.call(ctx, hw, "optimize_hardware", agent.Params{
				"profile":  orDefault(in.Target, "work"),
				"duration": params["duration"],
			})
		}
	}

	o.observer.Fallback(command)
	logger.Debug().Str("category", string(in.Category)).Msg("No agent workflow, using generic result")
	return Fallback(command), nil
}

// Fallback is the result for commands no agent workflow handles
func Fallback(command string) agent.Result {
	return agent.Result{
		"status":  "completed",
		"message": fmt.Sprintf("Command processed: %s", command),
		"performance": map[string]interface{}{
			"opsExecuted": 1000 + len(command)*100,
		},
	}
}

func (o *Orchestrator) call(ctx context.Context, a agent.Agent, action string, params agent.Params) (agent.Result, error) {
	name := a.Name()
	ctx = tracing.WithAgent(ctx, name)
	ctx, span := tracing.StartSpan(ctx, "agent."+name+"."+action,
		attribute.String("agent.name", name),
		attribute.String("agent.action", action),
	)
	defer span.End()

	start := o.clock()
	result, err := a.Execute(ctx, action, params)
	duration := o.clock().Sub(start)

	o.observer.AgentCalled(name, action, duration, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%s.%s: %w", name, action, err)
	}

	logger := tracing.LoggerFromContext(ctx, o.logger)
	logger.Debug().
		Str("action", action).
		Dur("duration", duration).
		Msg("Agent call completed")

	return result, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
