package claude

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/rag/llm"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type Client struct {
	api    anthropic.Client
	model  string
	logger *logger_i.Logger
}

var _ llm.Provider = (*Client)(nil)

// NewClaudeClient needs ANTHROPIC_API_KEY. model may be empty for a client that only lists models.
func NewClaudeClient(apiKey, model string, opts ...option.RequestOption) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not found in environment variables")
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Client{
		api:    anthropic.NewClient(opts...),
		model:  model,
		logger: logger_i.NewLogger("llm_claude"),
	}, nil
}

func (c *Client) Model() string { return c.model }

func (c *Client) Generate(ctx context.Context, prompt string, history []llm.Message, onToken llm.TokenFunc) (string, error) {
	log := c.logger.WithTrace(ctx)

	messages := make([]anthropic.MessageParam, 0, len(history)+1)
	for _, m := range history {
		if m.Role == llm.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
			continue
		}
		messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)))

	resp, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(config.ClaudeMaxTokens),
		Messages:    messages,
		Temperature: anthropic.Float(float64(config.ModelTemperature)),
		System:      []anthropic.TextBlockParam{{Text: config.ModelContext}},
	})
	if err != nil {
		log.Error("Claude call failed", "model", c.model, "error", err)
		return "", fmt.Errorf("claude API call failed: %w", err)
	}

	var answer strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			answer.WriteString(block.Text)
		}
	}
	if answer.Len() == 0 {
		return "", errors.New("no response generated from Claude API")
	}
	if onToken != nil {
		onToken(answer.String())
	}
	return answer.String(), nil
}

// ListModels returns the claude models visible to the API key.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	page, err := c.api.Models.List(ctx, anthropic.ModelListParams{})
	if err != nil {
		return nil, err
	}
	var out []string
	for _, m := range page.Data {
		if strings.HasPrefix(m.ID, "claude") {
			out = append(out, m.ID)
		}
	}
	return out, nil
}
