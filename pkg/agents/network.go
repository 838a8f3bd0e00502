package agents

import (
	"context"
	"fmt"

	"github.com/WoodPyle/wayneos-vm-app/pkg/agent"
)

// NetworkAgent simulates connectivity checks and traffic monitoring
type NetworkAgent struct {
	agent.Base
	deps Deps
}

// NewNetworkAgent creates the network agent
func NewNetworkAgent(deps Deps) *NetworkAgent {
	deps = deps.withDefaults()
	return &NetworkAgent{
		Base: agent.NewBase("network", []string{
			"check_connectivity",
			"configure_network",
			"monitor_traffic",
		}, deps.Logger),
		deps: deps,
	}
}

// Execute runs a network action
func (a *NetworkAgent) Execute(ctx context.Context, action string, params agent.Params) (agent.Result, error) {
	var result agent.Result
	switch action {
	case "check_connectivity":
		result = agent.Result{
			"status":   "connected",
			"internet": true,
			"latency":  a.deps.between(10, 50),
			"speed": map[string]interface{}{
				"download": a.deps.between(50, 500),
				"upload":   a.deps.between(10, 100),
			},
		}
	case "configure_network":
		mode := params.String("mode", "auto")
		result = agent.Result{
			"status":  "configured",
			"mode":    mode,
			"message": fmt.Sprintf("Network configured for %s mode", mode),
		}
	case "monitor_traffic":
		result = agent.Result{
			"status": "monitoring",
			"traffic": map[string]interface{}{
				"incoming":    a.deps.between(1000, 10000),
				"outgoing":    a.deps.between(500, 5000),
				"connections": a.deps.between(10, 50),
			},
		}
	default:
		result = agent.UnknownAction(action)
	}

	a.LogAction(action, result)
	return result, nil
}
