package presence

import (
	"time"

	"github.com/carp-rpc/carp/internal/carperr"
	"github.com/carp-rpc/carp/internal/dispatch"
	"github.com/carp-rpc/carp/internal/pathmap"
)

// Config is the typed configuration bag of spec §6: "{clients,
// placement, fingerprints, asynchronous-executor, local-short-circuit}".
type Config struct {
	Clients           ClientSupplier
	Placement         Placement
	Fingerprints      FingerprintRepository
	Executor          dispatch.Executor
	LocalShortCircuit *bool
	PackratWindow     time.Duration
}

// LocalShortCircuitOrDefault returns the configured flag, defaulting to
// true per spec §6.
func (c Config) LocalShortCircuitOrDefault() bool {
	if c.LocalShortCircuit == nil {
		return true
	}
	return *c.LocalShortCircuit
}

func (c Config) packratWindowOrDefault() time.Duration {
	if c.PackratWindow <= 0 {
		return 5 * time.Second
	}
	return c.PackratWindow
}

// Flavor is one of the three presence shapes the builder can produce
// (spec §6).
type Flavor string

const (
	FlavorClientOnly Flavor = "client-only"
	FlavorServerOnly Flavor = "server-only"
	FlavorDuplex     Flavor = "duplex"
)

// Rank is a factory's fitness for a given Config, compared with plain
// ordering so that a higher Rank always wins (spec §6: "ranked OKAY >
// SUBOPTIMAL > OVERKILL > UNMET").
type Rank int

const (
	// Unmet: the factory cannot build from this configuration at all.
	Unmet Rank = iota
	// Overkill: the factory can build, but provisions collaborators the
	// resulting flavour will never use.
	Overkill
	// Suboptimal: the factory can build, but a better-fitting flavour
	// exists for this configuration and would leave nothing unused.
	Suboptimal
	// Okay: every configured collaborator this flavour needs is present,
	// and nothing configured goes unused.
	Okay
)

// Factory reports how well its Flavor fits a Config, used by Builder to
// pick the best-ranked candidate (spec §6: "a pluggable factory").
type Factory struct {
	Flavor Flavor
	Rank   func(cfg *Config) Rank
}

// defaultFactories implements the three built-in flavours. Duplex wants
// both collaborators; server-only and client-only each want exactly
// one and call the other's presence in their config Suboptimal rather
// than Unmet, since the flavour still functions correctly, it just
// leaves a configured collaborator idle.
var defaultFactories = []Factory{
	{Flavor: FlavorDuplex, Rank: rankDuplex},
	{Flavor: FlavorServerOnly, Rank: rankServerOnly},
	{Flavor: FlavorClientOnly, Rank: rankClientOnly},
}

func rankDuplex(cfg *Config) Rank {
	switch {
	case cfg.Placement != nil && cfg.Clients != nil:
		return Okay
	case cfg.Placement != nil || cfg.Clients != nil:
		return Overkill
	default:
		return Unmet
	}
}

func rankServerOnly(cfg *Config) Rank {
	switch {
	case cfg.Placement == nil:
		return Unmet
	case cfg.Clients != nil:
		return Suboptimal
	default:
		return Okay
	}
}

func rankClientOnly(cfg *Config) Rank {
	switch {
	case cfg.Clients == nil:
		return Unmet
	case cfg.Placement != nil:
		return Suboptimal
	default:
		return Okay
	}
}

// Builder drives the ranked factory selection of spec §6 and constructs
// the resulting Presence.
type Builder struct {
	Config    Config
	Factories []Factory
}

// NewBuilder starts a Builder over cfg with the three built-in
// flavours; callers may overwrite Factories to add or replace them.
func NewBuilder(cfg Config) *Builder {
	return &Builder{Config: cfg, Factories: append([]Factory(nil), defaultFactories...)}
}

// Build picks the highest-ranked factory for b.Config and constructs
// the Presence it names. Ties are broken by Factories order.
func (b *Builder) Build() (*Presence, error) {
	var best Factory
	bestRank := Unmet
	found := false
	for _, f := range b.Factories {
		r := f.Rank(&b.Config)
		if r == Unmet {
			continue
		}
		if !found || r > bestRank {
			best, bestRank, found = f, r, true
		}
	}
	if !found {
		return nil, carperr.New(carperr.TypeModel, "presence: no factory could build from the given configuration")
	}

	rt := pathmap.NewRuntime(b.Config.packratWindowOrDefault())
	p := newPresence(b.Config, best.Flavor, rt)
	if p.placement != nil {
		p.placement.RegisterHandler("/", p.Handler())
	}
	return p, nil
}
