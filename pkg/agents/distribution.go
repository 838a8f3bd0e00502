package agents

import (
	"context"
	"fmt"
	"sort"

	"github.com/WoodPyle/wayneos-vm-app/pkg/agent"
)

// DefaultDistribution is the selector for the base agent set
const DefaultDistribution = "wayneos"

// distributionSets lists the agents each distribution adds to the base set
var distributionSets = map[string]func(Deps) []agent.Agent{
	"wayneos-top": func(d Deps) []agent.Agent {
		return []agent.Agent{newVehicleAgent(d)}
	},
	"wayneos-sspb": func(d Deps) []agent.Agent {
		return []agent.Agent{newMedicalAgent(d)}
	},
	"wayneos-financial": func(d Deps) []agent.Agent {
		return []agent.Agent{newMarketAgent(d)}
	},
}

// Base returns the seven agents every distribution carries
func Base(deps Deps) []agent.Agent {
	deps = deps.withDefaults()
	return []agent.Agent{
		NewUserAgent(deps),
		NewFileSystemAgent(deps),
		NewProcessAgent(deps),
		NewNetworkAgent(deps),
		NewMLAgent(deps),
		NewSecurityAgent(deps),
		NewHardwareAgent(deps),
	}
}

// ForDistribution returns the base agents plus the set of the named
// distribution. Unknown names yield the base set.
func ForDistribution(name string, deps Deps) []agent.Agent {
	deps = deps.withDefaults()
	set := Base(deps)
	if extra, ok := distributionSets[name]; ok {
		set = append(set, extra(deps)...)
	}
	return set
}

// KnownDistribution reports whether name selects an agent set
func KnownDistribution(name string) bool {
	if name == DefaultDistribution {
		return true
	}
	_, ok := distributionSets[name]
	return ok
}

// Distributions returns every known selector in sorted order
func Distributions() []string {
	names := []string{DefaultDistribution}
	for name := range distributionSets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewRegistry builds a registry for a distribution. The registry is not sealed.
func NewRegistry(distribution string, deps Deps) (*agent.Registry, error) {
	reg := agent.NewRegistry()
	for _, a := range ForDistribution(distribution, deps) {
		if err := reg.Register(a); err != nil {
			return nil, fmt.Errorf("failed to build %s registry: %w", distribution, err)
		}
	}
	return reg, nil
}

type actionFunc func(params agent.Params) agent.Result

// tableAgent dispatches actions through a fixed table. Distribution agents are
// built on it.
type tableAgent struct {
	agent.Base
	actions map[string]actionFunc
}

func (a *tableAgent) Execute(ctx context.Context, action string, params agent.Params) (agent.Result, error) {
	result := agent.UnknownAction(action)
	if fn, ok := a.actions[action]; ok {
		result = fn(params)
	}

	a.LogAction(action, result)
	return result, nil
}

func newTableAgent(name string, deps Deps, actions map[string]actionFunc) *tableAgent {
	caps := make([]string, 0, len(actions))
	for action := range actions {
		caps = append(caps, action)
	}
	sort.Strings(caps)

	return &tableAgent{
		Base:    agent.NewBase(name, caps, deps.Logger),
		actions: actions,
	}
}

func newVehicleAgent(d Deps) agent.Agent {
	return newTableAgent("vehicle", d, map[string]actionFunc{
		"vehicle_diagnostics": func(agent.Params) agent.Result {
			return agent.Result{
				"status":        "success",
				"engine":        "nominal",
				"battery_level": d.between(60, 100),
				"tire_pressure": map[string]interface{}{"front": 35, "rear": 33},
			}
		},
		"navigation": func(p agent.Params) agent.Result {
			dest := p.String("destination", "home")
			return agent.Result{
				"status":      "routing",
				"destination": dest,
				"eta_minutes": d.between(5, 45),
				"message":     fmt.Sprintf("Route to %s calculated", dest),
			}
		},
		"climate_control": func(p agent.Params) agent.Result {
			return agent.Result{
				"status":      "configured",
				"temperature": p["temperature"],
				"message":     "Cabin climate updated",
			}
		},
	})
}

func newMedicalAgent(d Deps) agent.Agent {
	return newTableAgent("medical", d, map[string]actionFunc{
		"patient_lookup": func(p agent.Params) agent.Result {
			return agent.Result{
				"status":     "success",
				"patient_id": p["patient_id"],
				"records":    []string{"allergies", "prescriptions", "visits"},
			}
		},
		"vitals_monitor": func(agent.Params) agent.Result {
			return agent.Result{
				"status": "monitoring",
				"vitals": map[string]interface{}{
					"heart_rate": d.between(60, 100),
					"spo2":       d.between(94, 100),
				},
			}
		},
		"appointment_schedule": func(p agent.Params) agent.Result {
			return agent.Result{
				"status":  "scheduled",
				"date":    p.String("date", d.Now().Format("2006-01-02")),
				"message": "Appointment scheduled",
			}
		},
	})
}

func newMarketAgent(d Deps) agent.Agent {
	return newTableAgent("market", d, map[string]actionFunc{
		"market_data": func(p agent.Params) agent.Result {
			symbol := p.String("symbol", "SPY")
			return agent.Result{
				"status": "success",
				"symbol": symbol,
				"price":  float64(d.between(10000, 50000)) / 100,
			}
		},
		"portfolio_summary": func(agent.Params) agent.Result {
			return agent.Result{
				"status":     "success",
				"positions":  12,
				"day_change": "+0.8%",
			}
		},
		"risk_assessment": func(agent.Params) agent.Result {
			return agent.Result{
				"status":     "success",
				"risk_level": "moderate",
				"var_95":     "2.1%",
			}
		},
	})
}
