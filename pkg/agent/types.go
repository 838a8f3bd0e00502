package agent

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Params carries the arguments of an agent action
type Params map[string]interface{}

// Result is the opaque payload an agent action returns
type Result map[string]interface{}

// Agent is a capability-declaring unit that executes named actions
type Agent interface {
	// Name returns the registry key of the agent
	Name() string

	// Capabilities returns the actions the agent declares
	Capabilities() []string

	// Execute runs an action. Unknown actions yield a Result carrying an
	// "error" key and a nil error.
	Execute(ctx context.Context, action string, params Params) (Result, error)

	// ValidateParams pre-checks the parameters of an action
	ValidateParams(action string, params Params) bool
}

// Lookup resolves agents by name
type Lookup interface {
	Get(name string) (Agent, bool)
}

// Base provides the shared parts of an agent: name, capabilities, logging and
// the permissive ValidateParams policy.
type Base struct {
	name         string
	capabilities []string
	logger       zerolog.Logger
}

// NewBase creates a Base for an agent
func NewBase(name string, capabilities []string, logger zerolog.Logger) Base {
	caps := make([]string, len(capabilities))
	copy(caps, capabilities)

	return Base{
		name:         name,
		capabilities: caps,
		logger:       logger.With().Str("agent", name).Logger(),
	}
}

// Name returns the agent name
func (b Base) Name() string {
	return b.name
}

// Capabilities returns a copy of the declared capabilities
func (b Base) Capabilities() []string {
	caps := make([]string, len(b.capabilities))
	copy(caps, b.capabilities)
	return caps
}

// ValidateParams accepts every action and parameter set
func (b Base) ValidateParams(action string, params Params) bool {
	return true
}

// Logger returns the agent scoped logger
func (b Base) Logger() zerolog.Logger {
	return b.logger
}

// LogAction logs an executed action and its result
func (b Base) LogAction(action string, result Result) {
	b.logger.Debug().
		Str("action", action).
		Interface("result", result).
		Msg("Action executed")
}

// UnknownAction builds the result returned for an undeclared action
func UnknownAction(action string) Result {
	return Result{"error": fmt.Sprintf("Unknown action: %s", action)}
}

// Has reports whether a capability is declared by the agent
func Has(a Agent, capability string) bool {
	for _, c := range a.Capabilities() {
		if c == capability {
			return true
		}
	}
	return false
}

// String returns a parameter as string, or def when absent or not a string
func (p Params) String(key, def string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return def
}

// Clone returns a shallow copy of the parameters
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
