package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type mockProvider struct{ model string }

func (m *mockProvider) Generate(ctx context.Context, prompt string, history []Message, onToken TokenFunc) (string, error) {
	return "ok", nil
}
func (m *mockProvider) Model() string { return m.model }

type mockLister struct {
	OnListModels    func(ctx context.Context) ([]string, error)
	OnRunningModels func(ctx context.Context) ([]string, error)
}

func (m *mockLister) ListModels(ctx context.Context) ([]string, error) { return m.OnListModels(ctx) }

type mockRunningLister struct{ mockLister }

func (m *mockRunningLister) RunningModels(ctx context.Context) ([]string, error) {
	return m.OnRunningModels(ctx)
}

func TestKindFor(t *testing.T) {
	tests := map[string]Kind{
		"claude-3-5-sonnet": KindClaude,
		"Claude-Opus":       KindClaude,
		"gemini-2.5-flash":  KindGemini,
		"llama3.2:latest":   KindOllama,
		"":                  KindOllama,
	}
	for model, want := range tests {
		if got := KindFor(model); got != want {
			t.Errorf("KindFor(%q) = %s; want %s", model, got, want)
		}
	}
}

func TestRegistry_Provider(t *testing.T) {
	r := NewRegistry("llama3.2")
	built := 0
	r.Register(KindOllama, func(ctx context.Context, model string) (Provider, error) {
		built++
		return &mockProvider{model: model}, nil
	})
	r.Register(KindGemini, func(ctx context.Context, model string) (Provider, error) {
		return nil, errors.New("no key")
	})

	p, err := r.Provider(context.Background(), "")
	if err != nil || p.Model() != "llama3.2" {
		t.Fatalf("default provider = %v, %v", p, err)
	}
	if _, err := r.Provider(context.Background(), "llama3.2"); err != nil || built != 1 {
		t.Errorf("provider should be cached, built %d times", built)
	}
	if _, err := r.Provider(context.Background(), "claude-3"); err == nil {
		t.Error("claude has no factory")
	}
	if _, err := r.Provider(context.Background(), "gemini-pro"); err == nil || !strings.Contains(err.Error(), "no key") {
		t.Errorf("factory error should surface, got %v", err)
	}
}

func TestRegistry_Catalogue(t *testing.T) {
	r := NewRegistry("llama3.2")
	if got := r.Running(context.Background()); len(got) != 0 {
		t.Errorf("Running() without lister = %v", got)
	}

	ollama := &mockRunningLister{mockLister{
		OnListModels:    func(ctx context.Context) ([]string, error) { return []string{"mistral", "llama3.2"}, nil },
		OnRunningModels: func(ctx context.Context) ([]string, error) { return []string{"llama3.2", "llama3.2"}, nil },
	}}
	claude := &mockLister{OnListModels: func(ctx context.Context) ([]string, error) {
		return []string{"claude-3", "llama3.2"}, nil
	}}
	broken := &mockLister{OnListModels: func(ctx context.Context) ([]string, error) {
		return nil, errors.New("offline")
	}}
	r.AddLister(ollama)
	r.AddLister(claude)
	r.AddLister(broken)

	if got := strings.Join(r.Available(context.Background()), ","); got != "claude-3,llama3.2,mistral" {
		t.Errorf("Available() = %s", got)
	}
	if got := strings.Join(r.Running(context.Background()), ","); got != "llama3.2" {
		t.Errorf("Running() = %s", got)
	}
}
