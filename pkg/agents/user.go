package agents

import (
	"context"

	"github.com/WoodPyle/wayneos-vm-app/pkg/agent"
)

// UserAgent serves preferences and session details. Its declared capabilities
// name the areas it covers, not the action strings it dispatches.
type UserAgent struct {
	agent.Base
}

// NewUserAgent creates the user agent
func NewUserAgent(deps Deps) *UserAgent {
	return &UserAgent{
		Base: agent.NewBase("user", []string{
			"user_preferences",
			"session_management",
			"profile_access",
		}, deps.Logger),
	}
}

// Execute runs a user action
func (a *UserAgent) Execute(ctx context.Context, action string, params agent.Params) (agent.Result, error) {
	var result agent.Result
	switch action {
	case "get_preferences":
		result = agent.Result{
			"status": "success",
			"preferences": map[string]interface{}{
				"theme":            "dark",
				"language":         "en",
				"performance_mode": "balanced",
			},
		}
	case "update_preferences":
		result = agent.Result{
			"status":  "success",
			"message": "Preferences updated",
		}
	case "get_session":
		result = agent.Result{
			"status": "success",
			"session": map[string]interface{}{
				"user_id":      params["user_id"],
				"distribution": params.String("distribution", "wayneos"),
				"uptime":       3600,
			},
		}
	default:
		result = agent.UnknownAction(action)
	}

	a.LogAction(action, result)
	return result, nil
}
