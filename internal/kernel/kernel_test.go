package kernel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/WoodPyle/wayneos-vm-app/internal/metrics"
	"github.com/WoodPyle/wayneos-vm-app/internal/observability"
	"github.com/WoodPyle/wayneos-vm-app/pkg/agent"
	"github.com/WoodPyle/wayneos-vm-app/pkg/agents"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

type faultyAgent struct {
	agent.Base
	err      error
	panicMsg string
}

func (f *faultyAgent) Execute(ctx context.Context, action string, params agent.Params) (agent.Result, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return nil, f.err
}

func newFaultyRegistry(a *faultyAgent) *agent.Registry {
	a.Base = agent.NewBase("process", []string{"launch_application"}, zerolog.Nop())
	reg := agent.NewRegistry()
	reg.MustRegister(a)
	return reg
}

func newTestKernel(t *testing.T, opts Options) *Kernel {
	t.Helper()

	if opts.Clock == nil {
		opts.Clock = func() time.Time { return baseTime }
	}
	if opts.Deps.Rand == nil {
		opts.Deps.Rand = rand.New(rand.NewPCG(1, 2))
	}

	k, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = k.Close() })
	return k
}

func execute(command string) Command {
	return Command{Type: CommandTypeExecute, Command: command}
}

func TestNew(t *testing.T) {
	t.Run("defaults to base distribution", func(t *testing.T) {
		k := newTestKernel(t, Options{})

		assert.Equal(t, agents.DefaultDistribution, k.Distribution())
		assert.Equal(t, 7, k.Agents().Count())
		assert.True(t, k.Agents().Sealed())
		assert.Len(t, k.SessionID(), 21)
		assert.NotNil(t, k.Orchestrator())
	})

	t.Run("distribution adds agents", func(t *testing.T) {
		k := newTestKernel(t, Options{Distribution: "wayneos-sspb"})

		assert.Equal(t, 8, k.Agents().Count())
		assert.True(t, k.Agents().Exists("medical"))
	})

	t.Run("unknown distribution falls back to base set", func(t *testing.T) {
		var buf bytes.Buffer
		k := newTestKernel(t, Options{
			Distribution: "wayneos-lunar",
			Logger:       zerolog.New(&buf),
		})

		assert.Equal(t, "wayneos-lunar", k.Distribution())
		assert.Equal(t, 7, k.Agents().Count())
		assert.Contains(t, buf.String(), "Unknown distribution, using base agent set")
	})

	t.Run("supplied registry is sealed", func(t *testing.T) {
		reg := agent.NewRegistry()
		k := newTestKernel(t, Options{Agents: reg})

		assert.Same(t, reg, k.Agents())
		assert.True(t, reg.Sealed())
	})

	t.Run("session ids differ", func(t *testing.T) {
		a := newTestKernel(t, Options{})
		b := newTestKernel(t, Options{})
		assert.NotEqual(t, a.SessionID(), b.SessionID())
	})
}

func TestProcessCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("execute routes to agent", func(t *testing.T) {
		k := newTestKernel(t, Options{})

		resp := k.ProcessCommand(ctx, execute("open firefox"))

		require.True(t, resp.Success)
		assert.Empty(t, resp.Error)
		assert.Equal(t, "Firefox launched successfully", resp.Result["message"])
		assert.Equal(t, 10000, resp.Result["pid"])
		require.NotNil(t, resp.Performance)
		assert.Equal(t, int64(1), resp.Performance.CommandsProcessed)
		assert.Equal(t, 313150+1000, resp.Performance.OpsPerSec)
	})

	t.Run("work email filter", func(t *testing.T) {
		k := newTestKernel(t, Options{})

		resp := k.ProcessCommand(ctx, execute("read my work email"))

		require.True(t, resp.Success)
		assert.Equal(t, "success", resp.Result["status"])

		emails := resp.Result["emails"].([]map[string]interface{})
		assert.Equal(t, len(emails), resp.Result["count"])

		var senders []string
		for _, e := range emails {
			from := e["from"].(string)
			if strings.HasPrefix(from, "sender") && strings.HasSuffix(from, "@example.com") {
				continue
			}
			senders = append(senders, from)
		}
		assert.Equal(t, []string{"ceo@company.com", "team@tanoak.com"}, senders)
	})

	t.Run("fallback", func(t *testing.T) {
		k := newTestKernel(t, Options{})

		resp := k.ProcessCommand(ctx, execute("xyzzy"))

		require.True(t, resp.Success)
		assert.Equal(t, "Command processed: xyzzy", resp.Result["message"])
		perf := resp.Result["performance"].(map[string]interface{})
		assert.Equal(t, 1500, perf["opsExecuted"])
	})

	t.Run("params reach the agent", func(t *testing.T) {
		k := newTestKernel(t, Options{})

		resp := k.ProcessCommand(ctx, Command{
			Type:    CommandTypeExecute,
			Command: "launch chrome",
			Params:  agent.Params{"url": "https://wayne.enterprises"},
		})

		require.True(t, resp.Success)
		assert.Equal(t, "chrome", resp.Result["app"])
		assert.Equal(t, "https://wayne.enterprises", resp.Result["url"])
	})

	t.Run("unknown command type is counted", func(t *testing.T) {
		k := newTestKernel(t, Options{})

		resp := k.ProcessCommand(ctx, Command{Type: "query", Command: "open firefox"})

		assert.False(t, resp.Success)
		assert.Equal(t, "Unknown command type: query", resp.Error)
		assert.Nil(t, resp.Result)
		assert.Nil(t, resp.Performance)
		assert.Equal(t, int64(1), k.CommandsProcessed())
	})

	t.Run("agent error becomes failed response", func(t *testing.T) {
		var buf bytes.Buffer
		k := newTestKernel(t, Options{
			Agents: newFaultyRegistry(&faultyAgent{err: errors.New("display unavailable")}),
			Logger: zerolog.New(&buf),
		})

		resp := k.ProcessCommand(ctx, execute("open firefox"))

		assert.False(t, resp.Success)
		assert.Equal(t, "process.launch_application: display unavailable", resp.Error)
		assert.Nil(t, resp.Performance)
		assert.Contains(t, buf.String(), "Command execution error")
		assert.Contains(t, buf.String(), `"request_id"`)
		assert.Equal(t, int64(1), k.CommandsProcessed())
	})

	t.Run("panic becomes failed response", func(t *testing.T) {
		k := newTestKernel(t, Options{
			Agents: newFaultyRegistry(&faultyAgent{panicMsg: "kaboom"}),
		})

		resp := k.ProcessCommand(ctx, execute("open firefox"))

		assert.False(t, resp.Success)
		assert.Equal(t, "recovered panic: kaboom", resp.Error)

		resp = k.ProcessCommand(ctx, execute("xyzzy"))
		assert.True(t, resp.Success)
		assert.Equal(t, int64(2), k.CommandsProcessed())
	})

	t.Run("response encoding", func(t *testing.T) {
		k := newTestKernel(t, Options{})

		data, err := json.Marshal(k.ProcessCommand(ctx, Command{Type: "bogus"}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":false,"error":"Unknown command type: bogus"}`, string(data))

		data, err = json.Marshal(k.ProcessCommand(ctx, execute("xyzzy")))
		require.NoError(t, err)

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, true, decoded["success"])
		assert.NotContains(t, decoded, "error")
		perf := decoded["performance"].(map[string]interface{})
		assert.Equal(t, float64(2), perf["commandsProcessed"])
		assert.Contains(t, perf, "opsPerSec")
		assert.Contains(t, perf, "uptime")
	})
}

func TestProcessCommandConcurrent(t *testing.T) {
	k := newTestKernel(t, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := k.ProcessCommand(context.Background(), execute("open firefox"))
			assert.True(t, resp.Success)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), k.CommandsProcessed())

	resp := k.ProcessCommand(context.Background(), execute("list processes"))
	require.True(t, resp.Success)
}

func TestPerformanceMetrics(t *testing.T) {
	now := baseTime
	k := newTestKernel(t, Options{Clock: func() time.Time { return now }})

	perf := k.PerformanceMetrics()
	assert.Equal(t, 313150, perf.OpsPerSec)
	assert.Equal(t, int64(0), perf.CommandsProcessed)
	assert.Equal(t, float64(0), perf.Uptime)

	for i := 0; i < 20; i++ {
		k.ProcessCommand(context.Background(), execute("xyzzy"))
	}
	now = baseTime.Add(10 * time.Second)

	perf = k.PerformanceMetrics()
	assert.Equal(t, 313150+2000, perf.OpsPerSec)
	assert.Equal(t, int64(20), perf.CommandsProcessed)
	assert.Equal(t, float64(10), perf.Uptime)

	now = baseTime.Add(500 * time.Millisecond)
	perf = k.PerformanceMetrics()
	assert.Equal(t, 313150+20000, perf.OpsPerSec, "uptime below one second counts as one")
}

func TestStatus(t *testing.T) {
	k := newTestKernel(t, Options{Distribution: "wayneos-financial"})
	k.ProcessCommand(context.Background(), execute("xyzzy"))

	status := k.Status()
	assert.Equal(t, k.SessionID(), status.SessionID)
	assert.Equal(t, "wayneos-financial", status.Distribution)
	assert.Contains(t, status.Agents, "market")
	assert.Len(t, status.Agents, 8)
	assert.Equal(t, baseTime, status.StartTime)
	assert.Equal(t, int64(1), status.CommandsProcessed)
}

func TestProcessCommandMetrics(t *testing.T) {
	m := metrics.NewMetrics()
	k := newTestKernel(t, Options{Metrics: m})

	k.ProcessCommand(context.Background(), execute("open firefox"))
	k.ProcessCommand(context.Background(), execute("xyzzy"))
	k.ProcessCommand(context.Background(), Command{Type: "query"})

	assert.Equal(t, float64(2), testutil.ToFloat64(m.CommandsTotal.WithLabelValues("execute", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CommandsTotal.WithLabelValues("query", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.IntentsTotal.WithLabelValues("application", "open_application")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AgentCallsTotal.WithLabelValues("process", "launch_application", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.FallbacksTotal))
}

func TestProcessCommandAudit(t *testing.T) {
	var buf bytes.Buffer
	k := newTestKernel(t, Options{Audit: observability.NewAuditWriter(&buf)})

	k.ProcessCommand(context.Background(), execute("open firefox"))
	k.ProcessCommand(context.Background(), Command{Type: "query", Command: "status"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "command", first["type"])
	assert.Equal(t, k.SessionID(), first["actor"])
	assert.Equal(t, "execute", first["action"])
	assert.Equal(t, "success", first["status"])
	assert.NotEmpty(t, first["request_id"])
	assert.Equal(t, "open firefox", first["metadata"].(map[string]interface{})["command"])

	var second map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "failure", second["status"])
	assert.Equal(t, "Unknown command type: query", second["metadata"].(map[string]interface{})["error"])
	assert.NotEqual(t, first["request_id"], second["request_id"])
}

func TestStatusReporter(t *testing.T) {
	t.Run("empty schedule disables", func(t *testing.T) {
		k := newTestKernel(t, Options{})
		require.NoError(t, k.StartStatusReporter(""))
		assert.Nil(t, k.reporter)
	})

	t.Run("invalid schedule", func(t *testing.T) {
		k := newTestKernel(t, Options{})
		err := k.StartStatusReporter("every so often")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid status schedule")
	})

	t.Run("start and stop", func(t *testing.T) {
		k := newTestKernel(t, Options{})
		require.NoError(t, k.StartStatusReporter("@every 1h"))
		require.NotNil(t, k.reporter)
		assert.Len(t, k.reporter.Entries(), 1)

		require.NoError(t, k.StartStatusReporter("@hourly"))
		assert.Len(t, k.reporter.Entries(), 1)

		k.StopStatusReporter()
		assert.Nil(t, k.reporter)
		k.StopStatusReporter()
	})

	t.Run("report line", func(t *testing.T) {
		var buf bytes.Buffer
		k := newTestKernel(t, Options{Logger: zerolog.New(&buf)})
		k.ProcessCommand(context.Background(), execute("xyzzy"))
		buf.Reset()

		k.reportStatus()

		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "Kernel status", line["message"])
		assert.Equal(t, float64(1), line["commands_processed"])
		assert.Equal(t, float64(7), line["agents"])
		assert.Equal(t, "kernel", line["component"])
	})
}
