package gemini

import (
	"context"
	"errors"
	"sync"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/rag/llm"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"google.golang.org/genai"
)

type llmClient struct {
	client    *genai.Client
	modelName string
}

var logger *logger_i.Logger
var geminiClient *genai.Client
var initErr error
var once sync.Once

// GetGeminiClient shares one genai client across every gemini model.
func GetGeminiClient(ctx context.Context, modelName string, apikey string) (llm.Provider, error) {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_gemini")
		geminiClient, initErr = newGeminiClient(ctx, apikey)
	})
	if initErr != nil {
		return nil, initErr
	}
	return &llmClient{client: geminiClient, modelName: modelName}, nil
}

func newGeminiClient(ctx context.Context, apikey string) (*genai.Client, error) {
	if apikey == "" {
		return nil, errors.New("GOOGLE_API_KEY not found in environment variables")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey})
	if err != nil {
		logger.Error("Error creating Gemini client", "error", err)
		return nil, err
	}
	logger.Info("Gemini client created")
	return c, nil
}

func (c *llmClient) Model() string { return c.modelName }

func (c *llmClient) Generate(ctx context.Context, prompt string, history []llm.Message, onToken llm.TokenFunc) (string, error) {
	log := logger.WithTrace(ctx)

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		role := genai.Role(genai.RoleUser)
		if m.Role == llm.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(prompt, genai.RoleUser))

	temperature := config.ModelTemperature
	result, err := c.client.Models.GenerateContent(ctx, c.modelName, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(config.ModelContext, genai.RoleUser),
		Temperature:       &temperature,
	})
	if err != nil {
		log.Error("Gemini call failed", "model", c.modelName, "error", err)
		return "", err
	}

	answer := result.Text()
	if answer == "" {
		return "", errors.New("no response generated from Gemini")
	}
	if onToken != nil {
		onToken(answer)
	}
	return answer, nil
}
