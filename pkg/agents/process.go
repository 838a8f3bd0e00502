package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/WoodPyle/wayneos-vm-app/pkg/agent"
)

const firstPID = 10000

// Process is an entry of the simulated process table
type Process struct {
	Name   string  `json:"name"`
	PID    int     `json:"pid"`
	Memory int     `json:"memory"`
	CPU    float64 `json:"cpu"`
	URL    string  `json:"url"`
}

// ProcessAgent simulates application and process management
type ProcessAgent struct {
	agent.Base
	deps Deps

	mu        sync.Mutex
	processes map[int]Process
	nextPID   int
}

// NewProcessAgent creates the process agent
func NewProcessAgent(deps Deps) *ProcessAgent {
	deps = deps.withDefaults()
	return &ProcessAgent{
		Base: agent.NewBase("process", []string{
			"launch_application",
			"kill_process",
			"list_processes",
		}, deps.Logger),
		deps:      deps,
		processes: make(map[int]Process),
		nextPID:   firstPID,
	}
}

// Execute runs a process action
func (a *ProcessAgent) Execute(ctx context.Context, action string, params agent.Params) (agent.Result, error) {
	var result agent.Result
	switch action {
	case "launch_application":
		result = a.launch(params)
	case "kill_process":
		result = a.kill(params)
	case "list_processes":
		result = a.list()
	default:
		result = agent.UnknownAction(action)
	}

	a.LogAction(action, result)
	return result, nil
}

func (a *ProcessAgent) launch(params agent.Params) agent.Result {
	app := params.String("app", "firefox")
	url := params["url"]

	a.mu.Lock()
	pid := a.nextPID
	a.nextPID++
	a.processes[pid] = Process{
		Name:   app,
		PID:    pid,
		Memory: a.deps.between(100, 500),
		CPU:    0.1 + a.deps.Rand.Float64()*4.9,
		URL:    params.String("url", ""),
	}
	a.mu.Unlock()

	return agent.Result{
		"status":  "launched",
		"pid":     pid,
		"app":     app,
		"url":     url,
		"message": fmt.Sprintf("%s launched successfully", capitalize(app)),
	}
}

func (a *ProcessAgent) kill(params agent.Params) agent.Result {
	pid, ok := intParam(params["pid"])

	a.mu.Lock()
	defer a.mu.Unlock()

	proc, found := a.processes[pid]
	if !ok || !found {
		return agent.Result{
			"status":  "error",
			"message": fmt.Sprintf("Process %v not found", params["pid"]),
		}
	}
	delete(a.processes, pid)

	return agent.Result{
		"status": "killed",
		"pid":    pid,
		"name":   proc.Name,
	}
}

func (a *ProcessAgent) list() agent.Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	procs := make([]Process, 0, len(a.processes))
	for _, p := range a.processes {
		procs = append(procs, p)
	}
	sort.Slice(procs, func(i, j int) bool { return procs[i].PID < procs[j].PID })

	return agent.Result{
		"status":    "success",
		"processes": procs,
		"count":     len(procs),
	}
}

// capitalize upper-cases the first letter and lower-cases the rest
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// intParam accepts the numeric shapes a pid can arrive in
func intParam(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}
