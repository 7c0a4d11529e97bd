package repo

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/schema"

	"github.com/nia-core/server/internal/tutor/model"
)

// MemoryConversationRepository keeps conversations in process. It is used by
// tests and by the demo when no Redis URL is configured.
type MemoryConversationRepository struct {
	mu       sync.RWMutex
	messages map[string][]*schema.Message
	states   map[string]model.ConversationState
}

func NewMemoryConversationRepository() *MemoryConversationRepository {
	return &MemoryConversationRepository{
		messages: map[string][]*schema.Message{},
		states:   map[string]model.ConversationState{},
	}
}

func (r *MemoryConversationRepository) AddMessage(_ context.Context, conversationID string, message *schema.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[conversationID] = append(r.messages[conversationID], message)
	return nil
}

func (r *MemoryConversationRepository) LoadHistory(_ context.Context, conversationID string) (*model.ConversationHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	msgs := make([]*schema.Message, len(r.messages[conversationID]))
	copy(msgs, r.messages[conversationID])
	return &model.ConversationHistory{ConversationID: conversationID, Messages: msgs}, nil
}

func (r *MemoryConversationRepository) ClearHistory(_ context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.messages, conversationID)
	delete(r.states, conversationID)
	return nil
}

func (r *MemoryConversationRepository) GetMessageCount(_ context.Context, conversationID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.messages[conversationID]), nil
}

func (r *MemoryConversationRepository) LoadState(_ context.Context, conversationID string) (model.ConversationState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.states[conversationID]; ok {
		return s, nil
	}
	return model.InitialConversationState(), nil
}

func (r *MemoryConversationRepository) SaveState(_ context.Context, conversationID string, state model.ConversationState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	state.MaxDepth = model.ClampDepth(state.MaxDepth)
	r.states[conversationID] = state
	return nil
}

var _ model.ConversationRepository = (*MemoryConversationRepository)(nil)
