package agents

import (
	"context"
	"fmt"
	"sync"

	"github.com/WoodPyle/wayneos-vm-app/pkg/agent"
)

// TargetOpsPerSec is the nominal kernel throughput the simulated hardware reports
const TargetOpsPerSec = 313150

type cpuProfile struct {
	Governor string `json:"governor"`
	Cores    int    `json:"cores"`
	Turbo    bool   `json:"turbo"`
}

type gpuProfile struct {
	Mode        string `json:"mode"`
	MemoryClock string `json:"memory_clock"`
}

type memoryProfile struct {
	Allocation string `json:"allocation"`
	Swap       string `json:"swap"`
}

// HardwareProfile is a named hardware configuration
type HardwareProfile struct {
	CPU    cpuProfile    `json:"cpu"`
	GPU    gpuProfile    `json:"gpu"`
	Memory memoryProfile `json:"memory"`
}

var hardwareProfiles = map[string]HardwareProfile{
	"work": {
		CPU:    cpuProfile{Governor: "balanced", Cores: 8, Turbo: false},
		GPU:    gpuProfile{Mode: "power_saving", MemoryClock: "low"},
		Memory: memoryProfile{Allocation: "16GB", Swap: "enabled"},
	},
	"gaming": {
		CPU:    cpuProfile{Governor: "performance", Cores: 32, Turbo: true},
		GPU:    gpuProfile{Mode: "maximum_performance", MemoryClock: "high"},
		Memory: memoryProfile{Allocation: "32GB", Swap: "disabled"},
	},
	"balanced": {
		CPU:    cpuProfile{Governor: "balanced", Cores: 16, Turbo: true},
		GPU:    gpuProfile{Mode: "balanced", MemoryClock: "medium"},
		Memory: memoryProfile{Allocation: "24GB", Swap: "enabled"},
	},
}

// HardwareAgent simulates hardware tuning and monitoring
type HardwareAgent struct {
	agent.Base
	deps Deps

	mu      sync.Mutex
	profile string
}

// NewHardwareAgent creates the hardware agent
func NewHardwareAgent(deps Deps) *HardwareAgent {
	deps = deps.withDefaults()
	return &HardwareAgent{
		Base: agent.NewBase("hardware", []string{
			"optimize_hardware",
			"get_hardware_info",
			"monitor_performance",
		}, deps.Logger),
		deps:    deps,
		profile: "balanced",
	}
}

// CurrentProfile returns the last applied profile name
func (a *HardwareAgent) CurrentProfile() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.profile
}

// Execute runs a hardware action
func (a *HardwareAgent) Execute(ctx context.Context, action string, params agent.Params) (agent.Result, error) {
	var result agent.Result
	switch action {
	case "optimize_hardware":
		result = a.optimize(params)
	case "get_hardware_info":
		result = hardwareInfo()
	case "monitor_performance":
		result = a.monitor()
	default:
		result = agent.UnknownAction(action)
	}

	a.LogAction(action, result)
	return result, nil
}

func (a *HardwareAgent) optimize(params agent.Params) agent.Result {
	profile := params.String("profile", "balanced")

	config, ok := hardwareProfiles[profile]
	if !ok {
		config = hardwareProfiles["balanced"]
	}

	a.mu.Lock()
	a.profile = profile
	a.mu.Unlock()

	cpuBoost, powerUsage := "0%", "-20%"
	if profile == "gaming" {
		cpuBoost, powerUsage = "+25%", "+50%"
	}

	return agent.Result{
		"status":        "configured",
		"profile":       profile,
		"configuration": config,
		"message":       fmt.Sprintf("Hardware optimized for %s", profile),
		"performance_impact": map[string]interface{}{
			"cpu_boost":   cpuBoost,
			"power_usage": powerUsage,
		},
	}
}

func hardwareInfo() agent.Result {
	return agent.Result{
		"status": "success",
		"hardware": map[string]interface{}{
			"cpu": map[string]interface{}{
				"model":   "AMD Ryzen 9 3950X",
				"cores":   16,
				"threads": 32,
				"clock":   "3.5 GHz",
			},
			"memory": map[string]interface{}{
				"total":     "32GB",
				"available": "24GB",
				"type":      "DDR4",
			},
			"gpu": map[string]interface{}{
				"model":  "Virtual GPU",
				"memory": "8GB",
				"driver": "latest",
			},
			"storage": map[string]interface{}{
				"system": "100GB NVMe",
				"data":   "500GB HDD",
			},
		},
	}
}

func (a *HardwareAgent) monitor() agent.Result {
	return agent.Result{
		"status": "monitoring",
		"metrics": map[string]interface{}{
			"cpu_usage":    a.deps.between(10, 50),
			"memory_usage": a.deps.between(20, 60),
			"gpu_usage":    a.deps.between(0, 30),
			"temperature": map[string]interface{}{
				"cpu": a.deps.between(40, 70),
				"gpu": a.deps.between(35, 65),
			},
			"ops_per_sec": TargetOpsPerSec + a.deps.between(-5000, 5000),
		},
	}
}
