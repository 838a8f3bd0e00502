package agents

import (
	"context"
	"fmt"

	"github.com/WoodPyle/wayneos-vm-app/pkg/agent"
)

// SecurityAgent simulates permission checks, scans and the firewall
type SecurityAgent struct {
	agent.Base
}

// NewSecurityAgent creates the security agent
func NewSecurityAgent(deps Deps) *SecurityAgent {
	return &SecurityAgent{
		Base: agent.NewBase("security", []string{
			"check_permissions",
			"scan_threats",
			"manage_firewall",
		}, deps.Logger),
	}
}

// Execute runs a security action
func (a *SecurityAgent) Execute(ctx context.Context, action string, params agent.Params) (agent.Result, error) {
	var result agent.Result
	switch action {
	case "check_permissions":
		result = agent.Result{
			"status":   "success",
			"resource": params.String("resource", "/home/user"),
			"permissions": map[string]interface{}{
				"read":    true,
				"write":   true,
				"execute": false,
			},
		}
	case "scan_threats":
		result = agent.Result{
			"status":        "clean",
			"threats_found": 0,
			"last_scan":     "just now",
			"message":       "No threats detected",
		}
	case "manage_firewall":
		result = agent.Result{
			"status":           "active",
			"rules":            42,
			"blocked_attempts": 0,
			"message":          fmt.Sprintf("Firewall %s completed", params.String("firewall_action", "status")),
		}
	default:
		result = agent.UnknownAction(action)
	}

	a.LogAction(action, result)
	return result, nil
}
