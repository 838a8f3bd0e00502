package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAgent struct {
	Base
}

func newStubAgent(name string, caps ...string) *stubAgent {
	return &stubAgent{Base: NewBase(name, caps, zerolog.Nop())}
}

func (s *stubAgent) Execute(ctx context.Context, action string, params Params) (Result, error) {
	if action == "ping" {
		return Result{"status": "success"}, nil
	}
	return UnknownAction(action), nil
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r)
	assert.NotNil(t, r.agents)
	assert.Equal(t, 0, r.Count())
	assert.False(t, r.Sealed())
}

func TestRegister(t *testing.T) {
	t.Run("registers agent", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(newStubAgent("filesystem", "read_emails")))

		assert.Equal(t, 1, r.Count())
		assert.True(t, r.Exists("filesystem"))
	})

	t.Run("rejects duplicate name", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(newStubAgent("ml")))

		err := r.Register(newStubAgent("ml"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrAgentExists))
	})

	t.Run("rejects nil and unnamed agents", func(t *testing.T) {
		r := NewRegistry()
		assert.Error(t, r.Register(nil))
		assert.Error(t, r.Register(newStubAgent("")))
	})

	t.Run("rejects registration after seal", func(t *testing.T) {
		r := NewRegistry()
		r.Seal()

		err := r.Register(newStubAgent("late"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrRegistrySealed))
		assert.Equal(t, 0, r.Count())
	})

	t.Run("must register panics on duplicate", func(t *testing.T) {
		r := NewRegistry()
		assert.Panics(t, func() {
			r.MustRegister(newStubAgent("a"), newStubAgent("a"))
		})
	})
}

func TestGet(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(newStubAgent("process", "launch_application"))

	a, ok := r.Get("process")
	require.True(t, ok)
	assert.Equal(t, "process", a.Name())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestNamesAndList(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(newStubAgent("user"), newStubAgent("filesystem"), newStubAgent("ml"))

	assert.Equal(t, []string{"filesystem", "ml", "user"}, r.Names())

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, "filesystem", list[0].Name())
	assert.Equal(t, "user", list[2].Name())
}

func TestCapabilities(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(newStubAgent("network", "check_connectivity", "monitor_traffic"))

	caps := r.Capabilities()
	assert.Equal(t, []string{"check_connectivity", "monitor_traffic"}, caps["network"])

	// Mutating the returned slice must not leak into the agent
	caps["network"][0] = "changed"
	a, _ := r.Get("network")
	assert.Equal(t, "check_connectivity", a.Capabilities()[0])
}

func TestBase(t *testing.T) {
	a := newStubAgent("security", "scan_threats")

	assert.True(t, a.ValidateParams("anything", nil))
	assert.True(t, Has(a, "scan_threats"))
	assert.False(t, Has(a, "manage_firewall"))

	result, err := a.Execute(context.Background(), "nope", nil)
	require.NoError(t, err)
	assert.Equal(t, "Unknown action: nope", result["error"])
}

func TestParams(t *testing.T) {
	p := Params{"app": "firefox", "pid": 10}

	assert.Equal(t, "firefox", p.String("app", "x"))
	assert.Equal(t, "x", p.String("pid", "x"))
	assert.Equal(t, "x", p.String("missing", "x"))

	clone := p.Clone()
	clone["app"] = "vim"
	assert.Equal(t, "firefox", p["app"])
}
