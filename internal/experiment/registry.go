package experiment

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/san-kum/hardsphere/internal/compute"
	"github.com/san-kum/hardsphere/internal/config"
	"github.com/san-kum/hardsphere/internal/dynamo"
	"github.com/san-kum/hardsphere/internal/metrics"
	"github.com/san-kum/hardsphere/internal/physics"
)

type ResolverFactory func(cfg *config.Config, rng *rand.Rand) (physics.Resolver, error)

type Registry struct {
	resolvers map[string]ResolverFactory
	backends  map[string]func() (compute.Backend, error)
}

func NewRegistry() *Registry {
	r := &Registry{
		resolvers: make(map[string]ResolverFactory),
		backends:  make(map[string]func() (compute.Backend, error)),
	}

	for _, name := range dynamo.Models() {
		model, _ := dynamo.ParseModel(name)
		r.resolvers[name] = func(cfg *config.Config, rng *rand.Rand) (physics.Resolver, error) {
			return physics.New(model, physics.Params{
				Restitution:      cfg.Restitution,
				FusionThreshold:  cfg.FusionThreshold,
				FissionThreshold: cfg.FissionThreshold,
				Rand:             rng,
			})
		}
	}

	for _, name := range compute.Names() {
		backendName := name
		r.backends[name] = func() (compute.Backend, error) { return compute.New(backendName) }
	}

	return r
}

func (r *Registry) GetResolver(cfg *config.Config, rng *rand.Rand) (physics.Resolver, error) {
	model, err := cfg.ParsedModel()
	if err != nil {
		return nil, err
	}
	fn, ok := r.resolvers[model.String()]
	if !ok {
		return nil, fmt.Errorf("%w: unknown model: %s", dynamo.ErrInvalidConfig, cfg.Model)
	}
	return fn(cfg, rng)
}

func (r *Registry) GetBackend(name string) (compute.Backend, error) {
	if name == "" {
		name = "auto"
	}
	fn, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown backend: %s", dynamo.ErrBackend, name)
	}
	return fn()
}

func (r *Registry) ListModels() []string {
	return sortedKeys(r.resolvers)
}

func (r *Registry) ListBackends() []string {
	return sortedKeys(r.backends)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics() []dynamo.Metric {
	return metrics.Default()
}
