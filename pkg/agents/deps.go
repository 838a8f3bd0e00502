package agents

import (
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
)

// Deps carries the collaborators shared by the stub agents
type Deps struct {
	Rand   *rand.Rand
	Now    func() time.Time
	Logger zerolog.Logger
}

// NewDeps creates Deps seeded with seed. A zero seed draws a random one.
func NewDeps(seed uint64, logger zerolog.Logger) Deps {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return Deps{
		Rand:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		Now:    time.Now,
		Logger: logger,
	}
}

func (d Deps) withDefaults() Deps {
	if d.Rand == nil {
		d.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// between returns a uniform integer in [lo, hi]
func (d Deps) between(lo, hi int) int {
	return lo + d.Rand.IntN(hi-lo+1)
}
