package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/WoodPyle/wayneos-vm-app/internal/bridge"
	"github.com/WoodPyle/wayneos-vm-app/internal/config"
	"github.com/WoodPyle/wayneos-vm-app/internal/kernel"
	"github.com/WoodPyle/wayneos-vm-app/internal/logger"
	"github.com/WoodPyle/wayneos-vm-app/internal/metrics"
	"github.com/WoodPyle/wayneos-vm-app/internal/observability"
	"github.com/WoodPyle/wayneos-vm-app/internal/tracing"
	"github.com/WoodPyle/wayneos-vm-app/pkg/agents"
	"github.com/WoodPyle/wayneos-vm-app/pkg/intent"
	"github.com/WoodPyle/wayneos-vm-app/pkg/orchestrator"
	"github.com/rs/zerolog"
)

// runtime is the wired kernel stack shared by run and serve
type runtime struct {
	cfg     *config.Config
	log     *logger.Logger
	logger  zerolog.Logger
	metrics *metrics.Metrics
	audit   *observability.AuditLogger
	kernel  *kernel.Kernel
	bridge  *bridge.Bridge

	metricsServer *http.Server
}

func newLogger(cfg *config.Config, stderr io.Writer) (*logger.Logger, error) {
	return logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   cfg.Logging.Console,
		Pretty:    cfg.Logging.Pretty,
		Redaction: cfg.Logging.Redaction,
		MaxSize:   cfg.Logging.MaxSize,
		MaxAge:    cfg.Logging.MaxAge,
		Compress:  cfg.Logging.Compress,
		Output:    stderr,
	})
}

func newClassifier(cfg *config.Config, log zerolog.Logger) (*intent.Classifier, error) {
	opts := []intent.Option{
		intent.WithCacheSize(cfg.Routing.ResultCacheSize),
		intent.WithLogger(log),
	}

	if cfg.Routing.RulesFile != "" {
		rules, err := intent.LoadRulesFile(cfg.Routing.RulesFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, intent.WithRules(rules))
	}

	return intent.New(opts...)
}

func newRuntime(cfg *config.Config, stderr io.Writer) (*runtime, error) {
	log, err := newLogger(cfg, stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	rt := &runtime{
		cfg:     cfg,
		log:     log,
		logger:  log.GetZerolog(),
		metrics: metrics.NewMetrics(),
	}

	if cfg.Tracing.Enabled {
		if err := tracing.InitOpenTelemetry(cfg.Tracing.ServiceName); err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.Audit.Enabled {
		var auditOpts []observability.AuditOption
		if cfg.Logging.Redaction {
			auditOpts = append(auditOpts, observability.WithRedactor(logger.NewRedactor()))
		}
		rt.audit, err = observability.NewAuditLogger(cfg.Audit.File, auditOpts...)
		if err != nil {
			rt.Close()
			return nil, err
		}
	}

	classifier, err := newClassifier(cfg, rt.logger)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to build intent classifier: %w", err)
	}

	orch := orchestrator.New(
		orchestrator.WithClassifier(classifier),
		orchestrator.WithLogger(rt.logger),
		orchestrator.WithObserver(rt.metrics),
	)

	rt.kernel, err = kernel.New(kernel.Options{
		Distribution: cfg.Distribution,
		Orchestrator: orch,
		Logger:       rt.logger,
		Metrics:      rt.metrics,
		Audit:        rt.audit,
		Deps:         agents.NewDeps(cfg.Agents.Seed, rt.logger),
	})
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to start kernel: %w", err)
	}

	if err := rt.kernel.StartStatusReporter(cfg.Status.Schedule); err != nil {
		rt.Close()
		return nil, err
	}

	rt.bridge = bridge.New(rt.kernel,
		bridge.WithLogger(rt.logger),
		bridge.WithMetrics(rt.metrics),
		bridge.WithMaxLineBytes(int(cfg.Gateway.MaxMessageBytes)),
	)

	return rt, nil
}

// startMetricsServer exposes /metrics on metrics.addr when enabled
func (rt *runtime) startMetricsServer() {
	if !rt.cfg.Metrics.Enabled {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", rt.metrics.Handler())
	rt.metricsServer = &http.Server{
		Addr:              rt.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	rt.logger.Info().Str("addr", rt.cfg.Metrics.Addr).Msg("Starting metrics server")

	go func() {
		if err := rt.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
}

// Close releases everything the runtime opened
func (rt *runtime) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if rt.metricsServer != nil {
		if err := rt.metricsServer.Shutdown(ctx); err != nil {
			rt.logger.Warn().Err(err).Msg("Failed to stop metrics server")
		}
	}
	if rt.kernel != nil {
		_ = rt.kernel.Close()
	}
	if rt.cfg.Tracing.Enabled {
		if err := tracing.ShutdownOpenTelemetry(ctx); err != nil {
			rt.logger.Warn().Err(err).Msg("Failed to shut down tracing")
		}
	}
	if err := rt.audit.Close(); err != nil {
		rt.logger.Warn().Err(err).Msg("Failed to close audit log")
	}
	_ = rt.log.Close()
}
