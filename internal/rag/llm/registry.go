package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/akolanti/DocChat/pkg/logger_i"
)

// Factory builds a provider for one model.
type Factory func(ctx context.Context, model string) (Provider, error)

// Registry hands out one provider per model name, built by the factory of the model's Kind.
type Registry struct {
	mu           sync.Mutex
	factories    map[Kind]Factory
	providers    map[string]Provider
	defaultModel string
	listers      []ModelLister
	running      RunningLister
	logger       *logger_i.Logger
}

func NewRegistry(defaultModel string) *Registry {
	return &Registry{
		factories:    make(map[Kind]Factory),
		providers:    make(map[string]Provider),
		defaultModel: defaultModel,
		logger:       logger_i.NewLogger("LLM Registry"),
	}
}

func (r *Registry) Register(kind Kind, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = f
}

// AddLister contributes to Available. The running lister, if any, answers Running.
func (r *Registry) AddLister(l ModelLister) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listers = append(r.listers, l)
	if rl, ok := l.(RunningLister); ok && r.running == nil {
		r.running = rl
	}
}

func (r *Registry) DefaultModel() string { return r.defaultModel }

// Provider returns the provider for model, or for the default model when model is empty.
func (r *Registry) Provider(ctx context.Context, model string) (Provider, error) {
	if strings.TrimSpace(model) == "" {
		model = r.defaultModel
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.providers[model]; ok {
		return p, nil
	}

	kind := KindFor(model)
	f, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("no %s backend configured for model %q", kind, model)
	}
	p, err := f(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("starting model %q: %w", model, err)
	}
	r.providers[model] = p
	r.logger.Info("Model ready", "model", model, "backend", kind)
	return p, nil
}

// Available is the sorted union of every lister's models. Failing listers are skipped.
func (r *Registry) Available(ctx context.Context) []string {
	r.mu.Lock()
	listers := append([]ModelLister(nil), r.listers...)
	r.mu.Unlock()

	seen := make(map[string]struct{})
	for _, l := range listers {
		models, err := l.ListModels(ctx)
		if err != nil {
			r.logger.WithTrace(ctx).Warn("Listing models failed", "error", err)
			continue
		}
		for _, m := range models {
			seen[m] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

func (r *Registry) Running(ctx context.Context) []string {
	r.mu.Lock()
	running := r.running
	r.mu.Unlock()
	if running == nil {
		return []string{}
	}

	models, err := running.RunningModels(ctx)
	if err != nil {
		r.logger.WithTrace(ctx).Warn("Listing running models failed", "error", err)
		return []string{}
	}
	seen := make(map[string]struct{}, len(models))
	for _, m := range models {
		seen[m] = struct{}{}
	}
	return sortedKeys(seen)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
