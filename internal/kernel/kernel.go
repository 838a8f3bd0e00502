// Package kernel owns one command-processing session: the agent registry of a
// distribution, the orchestrator, and the performance counters.
package kernel

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/WoodPyle/wayneos-vm-app/internal/metrics"
	"github.com/WoodPyle/wayneos-vm-app/internal/observability"
	"github.com/WoodPyle/wayneos-vm-app/internal/tracing"
	"github.com/WoodPyle/wayneos-vm-app/pkg/agent"
	"github.com/WoodPyle/wayneos-vm-app/pkg/agents"
	"github.com/WoodPyle/wayneos-vm-app/pkg/orchestrator"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// CommandTypeExecute is the only command type the kernel processes
const CommandTypeExecute = "execute"

// targetOpsPerSec is the baseline reported in performance metrics
const targetOpsPerSec = 313150

// Command is one input record
type Command struct {
	Type    string       `json:"type"`
	Command string       `json:"command"`
	Params  agent.Params `json:"params,omitempty"`
}

// Performance is the performance envelope attached to successful responses
type Performance struct {
	OpsPerSec         int     `json:"opsPerSec"`
	CommandsProcessed int64   `json:"commandsProcessed"`
	Uptime            float64 `json:"uptime"`
}

// Response is one output record
type Response struct {
	Success     bool         `json:"success"`
	Result      agent.Result `json:"result,omitempty"`
	Error       string       `json:"error,omitempty"`
	Performance *Performance `json:"performance,omitempty"`
}

// ErrorResponse builds a failed response carrying msg
func ErrorResponse(msg string) Response {
	return Response{Success: false, Error: msg}
}

// Options configures a Kernel
type Options struct {
	// Distribution selects the agent set. Empty means the base distribution.
	Distribution string

	// Agents replaces the registry built for the distribution
	Agents *agent.Registry

	// Orchestrator replaces the default orchestrator
	Orchestrator *orchestrator.Orchestrator

	Logger  zerolog.Logger
	Metrics *metrics.Metrics
	Audit   *observability.AuditLogger
	Clock   func() time.Time

	// Deps seeds the stub agents when the registry is built here. Agents
	// log through Logger.
	Deps agents.Deps
}

// Kernel processes commands for one session
type Kernel struct {
	distribution string
	sessionID    string
	registry     *agent.Registry
	orchestrator *orchestrator.Orchestrator
	logger       zerolog.Logger
	metrics      *metrics.Metrics
	audit        *observability.AuditLogger
	clock        func() time.Time
	startTime    time.Time

	commandsProcessed atomic.Int64
	mu                sync.Mutex

	reporter   *cron.Cron
	reporterMu sync.Mutex
}

// New creates a kernel. The agent registry is sealed before New returns.
func New(opts Options) (*Kernel, error) {
	if opts.Distribution == "" {
		opts.Distribution = agents.DefaultDistribution
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	sessionID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	k := &Kernel{
		distribution: opts.Distribution,
		sessionID:    sessionID,
		metrics:      opts.Metrics,
		audit:        opts.Audit,
		clock:        opts.Clock,
		logger: opts.Logger.With().
			Str("component", "kernel").
			Str("session_id", sessionID).
			Logger(),
	}

	k.registry = opts.Agents
	if k.registry == nil {
		if !agents.KnownDistribution(opts.Distribution) {
			k.logger.Warn().
				Str("distribution", opts.Distribution).
				Msg("Unknown distribution, using base agent set")
		}

		deps := opts.Deps
		if deps.Now == nil {
			deps.Now = opts.Clock
		}
		deps.Logger = opts.Logger

		k.registry, err = agents.NewRegistry(opts.Distribution, deps)
		if err != nil {
			return nil, err
		}
	}
	k.registry.Seal()

	k.orchestrator = opts.Orchestrator
	if k.orchestrator == nil {
		orchOpts := []orchestrator.Option{
			orchestrator.WithLogger(opts.Logger),
			orchestrator.WithClock(opts.Clock),
		}
		if opts.Metrics != nil {
			orchOpts = append(orchOpts, orchestrator.WithObserver(opts.Metrics))
		}
		k.orchestrator = orchestrator.New(orchOpts...)
	}

	k.startTime = k.clock()

	k.logger.Info().
		Str("distribution", k.distribution).
		Strs("agents", k.registry.Names()).
		Msg("WayneOS kernel started")

	return k, nil
}

// ProcessCommand handles one command end to end. It never returns an error:
// failures, including panics raised while routing, become failed responses.
// Commands are processed one at a time.
func (k *Kernel) ProcessCommand(ctx context.Context, cmd Command) Response {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.commandsProcessed.Add(1)

	ctx = tracing.NewRequestContext(ctx, k.sessionID)
	ctx, span := tracing.StartSpan(ctx, "kernel.process_command",
		attribute.String("command.type", cmd.Type),
		attribute.String("kernel.distribution", k.distribution),
	)
	defer span.End()

	start := k.clock()
	resp := k.process(ctx, cmd)
	duration := k.clock().Sub(start)

	if !resp.Success {
		span.SetStatus(codes.Error, resp.Error)
	}
	if k.metrics != nil {
		k.metrics.ObserveCommand(cmd.Type, resp.Success, duration)
	}
	k.audit.RecordCommand(ctx, k.sessionID, cmd.Type, cmd.Command, resp.Success, duration, resp.Error)

	return resp
}

func (k *Kernel) process(ctx context.Context, cmd Command) Response {
	if cmd.Type != CommandTypeExecute {
		return ErrorResponse(fmt.Sprintf("Unknown command type: %s", cmd.Type))
	}

	result, err := k.execute(ctx, cmd)
	if err != nil {
		logger := tracing.LoggerFromContext(ctx, k.logger)
		logger.Error().
			Err(err).
			Str("command", cmd.Command).
			Msg("Command execution error")
		return ErrorResponse(err.Error())
	}

	perf := k.PerformanceMetrics()
	return Response{
		Success:     true,
		Result:      result,
		Performance: &perf,
	}
}

func (k *Kernel) execute(ctx context.Context, cmd Command) (result agent.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered panic: %v", r)
		}
	}()

	return k.orchestrator.Execute(ctx, cmd.Command, cmd.Params, k.registry)
}

// PerformanceMetrics reports the simulated throughput and the counters
func (k *Kernel) PerformanceMetrics() Performance {
	uptime := k.clock().Sub(k.startTime).Seconds()
	processed := k.commandsProcessed.Load()
	opsPerSec := float64(processed) / max(uptime, 1)

	return Performance{
		OpsPerSec:         int(targetOpsPerSec + opsPerSec*1000),
		CommandsProcessed: processed,
		Uptime:            uptime,
	}
}

// Status is a point-in-time snapshot of the kernel
type Status struct {
	SessionID    string    `json:"session_id"`
	Distribution string    `json:"distribution"`
	Agents       []string  `json:"agents"`
	StartTime    time.Time `json:"start_time"`
	Performance
}

// Status returns a snapshot of the kernel state
func (k *Kernel) Status() Status {
	return Status{
		SessionID:    k.sessionID,
		Distribution: k.distribution,
		Agents:       k.registry.Names(),
		StartTime:    k.startTime,
		Performance:  k.PerformanceMetrics(),
	}
}

// SessionID returns the kernel session id
func (k *Kernel) SessionID() string {
	return k.sessionID
}

// Distribution returns the selected distribution name
func (k *Kernel) Distribution() string {
	return k.distribution
}

// Agents returns the sealed agent registry
func (k *Kernel) Agents() *agent.Registry {
	return k.registry
}

// Orchestrator returns the orchestrator in use
func (k *Kernel) Orchestrator() *orchestrator.Orchestrator {
	return k.orchestrator
}

// CommandsProcessed returns the number of commands received
func (k *Kernel) CommandsProcessed() int64 {
	return k.commandsProcessed.Load()
}

// Close stops the status reporter
func (k *Kernel) Close() error {
	k.StopStatusReporter()
	k.logger.Info().
		Int64("commands_processed", k.commandsProcessed.Load()).
		Msg("WayneOS kernel stopped")
	return nil
}
