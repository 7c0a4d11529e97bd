package model

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"
)

// ConversationState is the depth bookkeeping persisted per conversation.
type ConversationState struct {
	// MaxDepth is the deepest level reached so far, monotonic non-decreasing.
	MaxDepth     int `json:"total_depth_reached"`
	MessageCount int `json:"message_count"`
}

// InitialConversationState returns the state of a conversation that has not started.
func InitialConversationState() ConversationState {
	return ConversationState{MaxDepth: MinDepth}
}

type ConversationRepository interface {
	// AddMessage adds a message to the conversation history for the given conversation
	AddMessage(ctx context.Context, conversationID string, message *schema.Message) error

	// LoadHistory retrieves the conversation history for a conversation
	LoadHistory(ctx context.Context, conversationID string) (*ConversationHistory, error)

	// ClearHistory removes all conversation history and state for a conversation
	ClearHistory(ctx context.Context, conversationID string) error

	// GetMessageCount returns the number of messages in the conversation
	GetMessageCount(ctx context.Context, conversationID string) (int, error)

	// LoadState returns the depth state; unknown conversations get the initial state
	LoadState(ctx context.Context, conversationID string) (ConversationState, error)

	// SaveState persists the depth state
	SaveState(ctx context.Context, conversationID string, state ConversationState) error
}

// TurnLocker serialises turns on one conversation. The pipeline itself does
// not lock; callers that may run concurrent turns take the lock around HandleQuestion.
type TurnLocker interface {
	// Acquire returns a release func, or ok=false when another turn holds the lock.
	Acquire(ctx context.Context, conversationID string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

// ConversationHistory represents loaded conversation data with metadata.
type ConversationHistory struct {
	ConversationID string
	Messages       []*schema.Message
}
