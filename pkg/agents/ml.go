package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/WoodPyle/wayneos-vm-app/pkg/agent"
)

// MLAgent derives task lists and usage insights from other agents' data
type MLAgent struct {
	agent.Base
	deps Deps
}

// Task is one generated task list entry
type Task struct {
	Priority string `json:"priority"`
	Task     string `json:"task"`
	Due      string `json:"due"`
	Category string `json:"category"`
}

// generalTasks are appended to every generated task list
var generalTasks = []Task{
	{Priority: "medium", Task: "Prepare for Grant Hooper meeting", Due: "Friday", Category: "work"},
	{Priority: "low", Task: "Update project documentation", Due: "end of week", Category: "work"},
}

// NewMLAgent creates the ML agent
func NewMLAgent(deps Deps) *MLAgent {
	deps = deps.withDefaults()
	return &MLAgent{
		Base: agent.NewBase("ml", []string{
			"generate_task_list",
			"analyze_patterns",
			"predict_usage",
		}, deps.Logger),
		deps: deps,
	}
}

// Execute runs an ML action
func (a *MLAgent) Execute(ctx context.Context, action string, params agent.Params) (agent.Result, error) {
	var result agent.Result
	switch action {
	case "generate_task_list":
		result = a.generateTaskList(params)
	case "analyze_patterns":
		result = agent.Result{
			"status": "success",
			"patterns": map[string]interface{}{
				"peak_hours":   "9-11 AM",
				"common_tasks": []string{"email", "browser", "documents"},
				"efficiency":   0.87,
			},
		}
	case "predict_usage":
		result = agent.Result{
			"status": "success",
			"predictions": map[string]interface{}{
				"next_hour":              "high activity",
				"suggested_optimization": "performance mode",
				"confidence":             0.92,
			},
		}
	default:
		result = agent.UnknownAction(action)
	}

	a.LogAction(action, result)
	return result, nil
}

func (a *MLAgent) generateTaskList(params agent.Params) agent.Result {
	tasks := make([]Task, 0, len(generalTasks)+3)

	for _, e := range sourceEmails(params["source"]) {
		if important, _ := e["important"].(bool); !important {
			continue
		}
		subject, _ := e["subject"].(string)
		switch {
		case strings.Contains(subject, "Q3"):
			tasks = append(tasks, Task{Priority: "high", Task: "Reply to CEO about Q3 projections", Due: "today", Category: "work"})
		case strings.Contains(subject, "Contract"):
			tasks = append(tasks, Task{Priority: "high", Task: "Review contract from TanOak", Due: "today", Category: "work"})
		case strings.Contains(subject, "Appointment"):
			tasks = append(tasks, Task{Priority: "medium", Task: "Schedule dentist appointment", Due: "this week", Category: "personal"})
		}
	}

	tasks = append(tasks, generalTasks...)

	return agent.Result{
		"status":  "success",
		"tasks":   tasks,
		"summary": fmt.Sprintf("Generated %d tasks from analysis", len(tasks)),
		"date":    a.deps.Now().Format("2006-01-02"),
	}
}

// sourceEmails extracts the "emails" sequence from a read_emails result. The
// source may be an in-process Result or a decoded JSON object.
func sourceEmails(source interface{}) []map[string]interface{} {
	var raw interface{}
	switch s := source.(type) {
	case agent.Result:
		raw = s["emails"]
	case map[string]interface{}:
		raw = s["emails"]
	default:
		return nil
	}

	switch emails := raw.(type) {
	case []map[string]interface{}:
		return emails
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(emails))
		for _, e := range emails {
			if m, ok := e.(map[string]interface{}); ok {
				out = append(out, m)
			}
		}
		return out
	}

	return nil
}
