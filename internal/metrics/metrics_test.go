package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/WoodPyle/wayneos-vm-app/pkg/intent"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()

	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
	if m.registry == nil {
		t.Error("Registry is nil")
	}
	if m.CommandsTotal == nil || m.CommandDuration == nil || m.InvalidRecords == nil {
		t.Error("command metrics not initialized")
	}
	if m.IntentsTotal == nil || m.FallbacksTotal == nil {
		t.Error("routing metrics not initialized")
	}
	if m.AgentCallsTotal == nil || m.AgentCallDuration == nil {
		t.Error("agent metrics not initialized")
	}
	if m.GatewayConnections == nil || m.GatewayRateLimited == nil {
		t.Error("gateway metrics not initialized")
	}
}

func TestObserverMethods(t *testing.T) {
	m := NewMetrics()

	m.IntentClassified(intent.Intent{Category: intent.CategoryEmail, Action: "read_emails"})
	m.IntentClassified(intent.Intent{Category: intent.CategoryEmail, Action: "read_emails"})
	m.AgentCalled("filesystem", "read_emails", 2*time.Millisecond, nil)
	m.AgentCalled("process", "launch_application", time.Millisecond, errors.New("boom"))
	m.Fallback("xyzzy")

	if got := testutil.ToFloat64(m.IntentsTotal.WithLabelValues("email", "read_emails")); got != 2 {
		t.Errorf("expected 2 email intents, got %v", got)
	}
	if got := testutil.ToFloat64(m.AgentCallsTotal.WithLabelValues("filesystem", "read_emails", "success")); got != 1 {
		t.Errorf("expected 1 successful filesystem call, got %v", got)
	}
	if got := testutil.ToFloat64(m.AgentCallsTotal.WithLabelValues("process", "launch_application", "error")); got != 1 {
		t.Errorf("expected 1 failed process call, got %v", got)
	}
	if got := testutil.ToFloat64(m.FallbacksTotal); got != 1 {
		t.Errorf("expected 1 fallback, got %v", got)
	}
}

func TestObserveCommand(t *testing.T) {
	m := NewMetrics()

	m.ObserveCommand("execute", true, 10*time.Millisecond)
	m.ObserveCommand("execute", false, 10*time.Millisecond)
	m.ObserveCommand("status", false, time.Millisecond)

	if got := testutil.ToFloat64(m.CommandsTotal.WithLabelValues("execute", "success")); got != 1 {
		t.Errorf("expected 1 successful execute, got %v", got)
	}
	if got := testutil.ToFloat64(m.CommandsTotal.WithLabelValues("status", "error")); got != 1 {
		t.Errorf("expected 1 failed status command, got %v", got)
	}
	if got := testutil.CollectAndCount(m.CommandDuration); got != 1 {
		t.Errorf("expected a single histogram series, got %d", got)
	}
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()

	m.ObserveCommand("execute", true, time.Millisecond)
	m.InvalidRecords.WithLabelValues("json").Inc()
	m.IntentClassified(intent.General("xyzzy"))
	m.AgentCalled("ml", "generate_task_list", time.Millisecond, nil)
	m.Fallback("xyzzy")
	m.GatewayConnections.Inc()
	m.GatewayRateLimited.Inc()

	handler := m.Handler()
	if handler == nil {
		t.Fatal("Handler returned nil")
	}

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	body := w.Body.String()
	expectedMetrics := []string{
		"wayneos_commands_total",
		"wayneos_command_duration_seconds",
		"wayneos_invalid_records_total",
		"wayneos_intents_total",
		"wayneos_fallbacks_total",
		"wayneos_agent_calls_total",
		"wayneos_agent_call_duration_seconds",
		"wayneos_gateway_connections",
		"wayneos_gateway_rate_limited_total",
	}
	for _, metric := range expectedMetrics {
		if !strings.Contains(body, metric) {
			t.Errorf("Metrics output missing: %s", metric)
		}
	}
}

func TestMetricsRegistry(t *testing.T) {
	m := NewMetrics()

	m.ObserveCommand("execute", true, time.Millisecond)
	m.InvalidRecords.WithLabelValues("schema").Inc()
	m.IntentClassified(intent.General("x"))
	m.AgentCalled("ml", "predict_usage", time.Millisecond, nil)

	metricFamilies, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	// vectors without observations are not gathered
	expectedCount := 9
	if len(metricFamilies) != expectedCount {
		t.Errorf("Expected %d metric families, got %d", expectedCount, len(metricFamilies))
	}
}
