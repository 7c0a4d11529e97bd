package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"

	"github.com/nia-core/server/internal/core"
	errx "github.com/nia-core/server/internal/core/error"
	"github.com/nia-core/server/internal/tutor/graph"
	"github.com/nia-core/server/internal/tutor/graph/nodes"
	"github.com/nia-core/server/internal/tutor/model"
	"github.com/nia-core/server/internal/tutor/repo"
	"github.com/nia-core/server/internal/tutor/retrieval"
	logx "github.com/nia-core/server/pkg/logger"
	pkgredis "github.com/nia-core/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the tutor demo,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Infrastructure; an empty REDIS_URL keeps everything in memory
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Tutor configs
	TutorModel   model.TutorModelConfig
	WebSearch    model.WebSearchConfig
	Conversation model.ConversationConfig
	Retrieval    model.RetrievalConfig
	FollowUp     model.FollowUpConfig
}

func main() {
	ctx := context.Background()
	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		fmt.Printf("Warning: Could not load .env file: %v\n", err)
	}

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to process environment config: %v\n", err)
		os.Exit(1)
	}

	logx.Init(logx.LoggerOpts{
		Environment: core.ParseEnvironment(envCfg.Environment),
		Level:       envCfg.LogLevel,
	})

	var rdb *redis.Client
	if envCfg.Redis.URL != "" {
		client, err := envCfg.Redis.New(ctx)
		if err != nil {
			logx.Fatal().Err(err).Msg("Failed to initialise Redis client")
		}
		defer client.Close()
		rdb = client
		logx.Info().Msg("Connected to Redis successfully")
	}

	var convRepo model.ConversationRepository = repo.NewMemoryConversationRepository()
	if rdb != nil {
		convRepo = repo.NewRedisConversationRepository(rdb, envCfg.Conversation.TTL)
	}

	retriever, err := buildRetriever(ctx, envCfg.Retrieval, rdb)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build retriever")
	}

	client, err := nodes.NewGeminiClient(ctx, envCfg.APIKey, envCfg.BaseURL)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	runner, err := graph.BuildTutorRunner(ctx, graph.Config{
		Client:           client,
		TutorModel:       envCfg.TutorModel,
		WebSearch:        envCfg.WebSearch,
		Conversation:     envCfg.Conversation,
		Retrieval:        envCfg.Retrieval,
		FollowUp:         envCfg.FollowUp,
		ConversationRepo: convRepo,
		Retriever:        retriever,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build graph")
	}

	var locker model.TurnLocker
	if rdb != nil {
		locker = repo.NewRedisTurnLocker(rdb)
	}

	profile, unknown := model.NewChildProfile(model.RawProfile{
		GradeLevel:     "3rd grade",
		Language:       "en",
		ReadingLevel:   "at grade level",
		Accommodations: []string{"dyslexia_support", "step_by_step_instructions"},
	})
	if len(unknown) > 0 {
		logx.Warn().Strs("tags", unknown).Msg("Ignoring unknown accommodation tags")
	}

	testQueries := []struct {
		description string
		query       string
		depth       int
	}{
		{description: "Curated math question", query: "How do I add fractions with the same denominator?", depth: 1},
		{description: "Going deeper", query: "Tell me more", depth: 2},
		{description: "Real-time question", query: "What's the weather today?", depth: 1},
		{description: "General knowledge with web search", query: "Which mountain is the tallest in the world?", depth: 1},
		{description: "Blocked question", query: "How do I hurt myself", depth: 1},
	}

	conversationID := "demo-conversation-1"
	// start every demo run from an empty conversation
	if err := convRepo.ClearHistory(ctx, conversationID); err != nil {
		logx.Warn().Err(err).Int("status", errx.StatusOf(err)).Msg("Failed to reset demo conversation")
	}

	for i, test := range testQueries {
		fmt.Printf("\nTest %d: %s\n", i+1, test.description)
		fmt.Printf("Question: %q\n", test.query)

		ans, err := handleTurn(ctx, runner, locker, envCfg.Conversation.LockTTL, model.TutorInput{
			ConversationID: conversationID,
			Question:       test.query,
			CurrentDepth:   test.depth,
			Profile:        profile,
		})
		if err != nil {
			logx.Error().Err(err).Int("status", errx.StatusOf(err)).Int("test", i+1).Msg("Turn reported an error")
		}
		if ans == nil {
			continue
		}

		fmt.Printf("Answer:\n%s\n", ans.Text)
		if b, err := json.MarshalIndent(struct {
			QuestionType model.QuestionType      `json:"question_type"`
			SourceType   model.SourceType        `json:"source_type"`
			Sources      []model.SourceReference `json:"source_references"`
			FollowUps    []string                `json:"follow_up_questions"`
			Depth        int                     `json:"tutoring_depth_level"`
			Usage        model.Usage             `json:"usage"`
		}{ans.QuestionType, ans.SourceType, ans.Sources, ans.FollowUpQuestions, ans.DepthLevel, ans.Usage}, "", "  "); err == nil {
			fmt.Printf("Details: %s\n", string(b))
		}

		// add slight delay between tests for readability
		time.Sleep(500 * time.Millisecond)
	}

	n, err := convRepo.GetMessageCount(ctx, conversationID)
	if err != nil {
		logx.Warn().Err(err).Int("status", errx.StatusOf(err)).Msg("Failed to count stored messages")
		return
	}
	fmt.Printf("\nStored %d messages for %s\n", n, conversationID)
}

// handleTurn serialises turns per conversation when a lock is available.
func handleTurn(ctx context.Context, runner *graph.Runner, locker model.TurnLocker, ttl time.Duration, in model.TutorInput) (*model.Answer, error) {
	if locker == nil {
		return runner.HandleQuestion(ctx, in)
	}

	release, ok, err := locker.Acquire(ctx, in.ConversationID, ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("conversation %s already has a turn in flight", in.ConversationID)
	}
	defer func() {
		if err := release(ctx); err != nil {
			logx.Warn().Err(err).Str("conversation_id", in.ConversationID).Msg("Failed to release turn lock")
		}
	}()

	return runner.HandleQuestion(ctx, in)
}

// buildRetriever loads the corpus and seeds the configured content store.
func buildRetriever(ctx context.Context, cfg model.RetrievalConfig, rdb *redis.Client) (model.Retriever, error) {
	corpus, err := repo.LoadCorpus(cfg.CorpusPath)
	if err != nil {
		return nil, err
	}
	logx.Info().Int("documents", len(corpus)).Str("backend", string(cfg.Backend)).Msg("Curated corpus loaded")

	var store model.ContentStore
	switch {
	case cfg.Store == "redis" && rdb != nil:
		rs := repo.NewRedisContentStore(rdb)
		for _, doc := range corpus {
			if err := rs.Put(ctx, doc); err != nil {
				return nil, err
			}
		}
		store = rs
	default:
		store = repo.NewMemoryContentStore(corpus)
	}

	return retrieval.New(cfg, store, corpus)
}
