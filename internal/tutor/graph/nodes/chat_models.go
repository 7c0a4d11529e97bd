package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/nia-core/server/internal/tutor/model"
	logx "github.com/nia-core/server/pkg/logger"
)

// defaultTemperature is overridden per call by the response strategy.
const defaultTemperature float32 = 0.7

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	Client      *genai.Client
	Tutor       *model.TutorModelConfig
	SearchTools []*schema.ToolInfo
}

// ChatModels holds the tutor model and, when web search is available, a
// second instance of it with the search tool bound.
type ChatModels struct {
	Tutor          einomodel.BaseChatModel
	Search         einomodel.BaseChatModel
	TutorModelName string
}

// NewGeminiClient creates the shared Gemini API client.
func NewGeminiClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions.BaseURL = baseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return client, nil
}

func newTutorChatModel(ctx context.Context, client *genai.Client, cfg *model.TutorModelConfig) (*gemini.ChatModel, error) {
	temperature := defaultTemperature
	maxTokens := cfg.MaxTokens
	return gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(512)),
		},
	})
}

// NewChatModels creates the tutor chat models with the given configuration
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	if config.Client == nil || config.Tutor == nil {
		return nil, fmt.Errorf("chat model config is incomplete")
	}

	tutor, err := newTutorChatModel(ctx, config.Client, config.Tutor)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating tutor model")
		return nil, fmt.Errorf("error creating tutor model: %w", err)
	}
	cms := &ChatModels{Tutor: tutor, TutorModelName: config.Tutor.Model}

	if len(config.SearchTools) == 0 {
		return cms, nil
	}

	search, err := newTutorChatModel(ctx, config.Client, config.Tutor)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating search-enabled tutor model")
		return nil, fmt.Errorf("error creating search-enabled tutor model: %w", err)
	}
	if err := search.BindTools(config.SearchTools); err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools")
		return nil, fmt.Errorf("failed to bind tools: %w", err)
	}
	logx.Debug().Int("tools", len(config.SearchTools)).Msg("Successfully bound tools to tutor model")
	cms.Search = search
	return cms, nil
}

// pick returns the model for a strategy: the search-bound one only when the
// strategy allows search and it exists.
func (cm *ChatModels) pick(searchEnabled bool) einomodel.BaseChatModel {
	if searchEnabled && cm.Search != nil {
		return cm.Search
	}
	return cm.Tutor
}
