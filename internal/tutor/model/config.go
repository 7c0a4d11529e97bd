package model

import "time"

// ================ Config ================
type ConversationConfig struct {
	TTL          time.Duration `envconfig:"CONVERSATION_TTL" default:"24h"`
	HistoryTurns int           `envconfig:"CONVERSATION_HISTORY_TURNS" default:"4"`
	LockTTL      time.Duration `envconfig:"CONVERSATION_LOCK_TTL" default:"60s"`
	Tools        struct {
		MaxCalls int `envconfig:"CONVERSATION_TOOL_MAX_CALLS" default:"3"`
	}
}

type TutorModelConfig struct {
	Model     string        `envconfig:"TUTOR_MODEL" default:"gemini-2.5-flash"`
	MaxTokens int           `envconfig:"TUTOR_MAX_TOKENS" default:"2000"`
	Timeout   time.Duration `envconfig:"TUTOR_TIMEOUT" default:"30s"`
}

type WebSearchConfig struct {
	Enabled bool   `envconfig:"WEB_SEARCH_ENABLED" default:"true"`
	Model   string `envconfig:"WEB_SEARCH_MODEL" default:"gemini-2.5-flash-lite"`
}

// RetrievalBackend selects the Retriever implementation.
type RetrievalBackend string

const (
	BackendKeyword RetrievalBackend = "keyword"
	BackendLSI     RetrievalBackend = "lsi"
)

type RetrievalConfig struct {
	Backend          RetrievalBackend `envconfig:"RETRIEVAL_BACKEND" default:"keyword"`
	Store            string           `envconfig:"CONTENT_STORE" default:"memory"`
	CorpusPath       string           `envconfig:"RETRIEVAL_CORPUS_PATH" default:"data/corpus.json"`
	TopK             int              `envconfig:"RETRIEVAL_TOP_K" default:"3"`
	LSITopics        int              `envconfig:"RETRIEVAL_LSI_TOPICS" default:"100"`
	ContextMaxTokens int              `envconfig:"RETRIEVAL_CONTEXT_MAX_TOKENS" default:"3000"`
}

type FollowUpConfig struct {
	Count int `envconfig:"FOLLOW_UP_COUNT" default:"1"`
}
