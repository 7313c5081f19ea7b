package llm

import (
	"context"
	"strings"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

// TokenFunc receives generated text as it arrives. Providers without streaming call it once.
type TokenFunc func(token string)

type Provider interface {
	Generate(ctx context.Context, prompt string, history []Message, onToken TokenFunc) (string, error)
	Model() string
}

// ModelLister is implemented by backends that can enumerate their models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// RunningLister reports models currently loaded in memory.
type RunningLister interface {
	RunningModels(ctx context.Context) ([]string, error)
}

type Kind string

const (
	KindOllama Kind = "ollama"
	KindClaude Kind = "claude"
	KindGemini Kind = "gemini"
)

// KindFor picks the backend serving a model name.
func KindFor(model string) Kind {
	name := strings.ToLower(strings.TrimSpace(model))
	switch {
	case strings.HasPrefix(name, "claude"):
		return KindClaude
	case strings.HasPrefix(name, "gemini"):
		return KindGemini
	default:
		return KindOllama
	}
}
