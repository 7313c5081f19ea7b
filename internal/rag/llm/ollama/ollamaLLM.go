package ollama

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/customHttpClient"
	"github.com/akolanti/DocChat/internal/rag/llm"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"github.com/ollama/ollama/api"
)

type Client struct {
	api    *api.Client
	model  string
	logger *logger_i.Logger
}

var _ llm.Provider = (*Client)(nil)
var _ llm.RunningLister = (*Client)(nil)

// NewOllamaClient connects to host, or OLLAMA_HOST when host is empty. model may be empty
// for a client that only lists models.
func NewOllamaClient(host, model string) (*Client, error) {
	var c *api.Client
	if host == "" {
		var err error
		c, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("ollama client from environment: %w", err)
		}
	} else {
		u, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
		}
		c = api.NewClient(u, customHttpClient.NewClient(0))
	}
	return &Client{api: c, model: baseModel(model), logger: logger_i.NewLogger("llm_ollama")}, nil
}

func (c *Client) Model() string { return c.model }

func (c *Client) Generate(ctx context.Context, prompt string, history []llm.Message, onToken llm.TokenFunc) (string, error) {
	log := c.logger.WithTrace(ctx)

	messages := make([]api.Message, 0, len(history)+2)
	messages = append(messages, api.Message{Role: "system", Content: config.ModelContext})
	for _, m := range history {
		messages = append(messages, api.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, api.Message{Role: llm.RoleUser, Content: prompt})

	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Options:  map[string]any{"temperature": config.ModelTemperature},
	}

	var answer strings.Builder
	err := c.api.Chat(ctx, req, func(resp api.ChatResponse) error {
		if resp.Message.Content == "" {
			return nil
		}
		answer.WriteString(resp.Message.Content)
		if onToken != nil {
			onToken(resp.Message.Content)
		}
		return nil
	})
	if err != nil {
		log.Error("Ollama chat failed", "model", c.model, "error", err)
		return "", fmt.Errorf("failed to chat with ollama: %w", err)
	}
	return answer.String(), nil
}

// ListModels reports the locally pulled models (/api/tags).
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.api.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		out = append(out, m.Name)
	}
	return out, nil
}

// RunningModels reports the models loaded in memory (/api/ps).
func (c *Client) RunningModels(ctx context.Context) ([]string, error) {
	resp, err := c.api.ListRunning(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		out = append(out, m.Name)
	}
	return out, nil
}

// baseModel drops the default ":latest" tag.
func baseModel(name string) string {
	return strings.TrimSuffix(name, ":latest")
}
