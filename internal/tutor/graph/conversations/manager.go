package conversations

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/nia-core/server/internal/tutor/model"
	logx "github.com/nia-core/server/pkg/logger"
)

// DefaultHistoryTurns is the number of stored messages sent with a question.
const DefaultHistoryTurns = 4

type MessagesManager struct {
	conversationRepo model.ConversationRepository
	historyTurns     int
}

func NewMessagesManager(conversationRepo model.ConversationRepository, config model.ConversationConfig) *MessagesManager {
	turns := config.HistoryTurns
	if turns <= 0 {
		turns = DefaultHistoryTurns
	}
	return &MessagesManager{
		conversationRepo: conversationRepo,
		historyTurns:     turns,
	}
}

// RecentHistory returns the last user/assistant messages of a conversation.
// A failing store yields no history rather than failing the turn.
func (cm *MessagesManager) RecentHistory(ctx context.Context, conversationID string) []*schema.Message {
	history, err := cm.conversationRepo.LoadHistory(ctx, conversationID)
	if err != nil {
		logx.Warn().Err(err).Str("conversation_id", conversationID).Msg("history unavailable, continuing without it")
		return nil
	}
	msgs := make([]*schema.Message, 0, len(history.Messages))
	for _, m := range history.Messages {
		if m == nil || strings.TrimSpace(m.Content) == "" {
			continue
		}
		if m.Role == schema.User || m.Role == schema.Assistant {
			msgs = append(msgs, m)
		}
	}
	return trimTail(msgs, cm.historyTurns)
}

// LoadState returns the conversation's depth state, or the initial state
// when it cannot be read.
func (cm *MessagesManager) LoadState(ctx context.Context, conversationID string) model.ConversationState {
	st, err := cm.conversationRepo.LoadState(ctx, conversationID)
	if err != nil {
		logx.Warn().Err(err).Str("conversation_id", conversationID).Msg("conversation state unavailable, assuming a new conversation")
		return model.InitialConversationState()
	}
	return st
}

// BuildContext assembles system prompt, history and the current user turn.
func (cm *MessagesManager) BuildContext(systemPrompt string, history []*schema.Message, userMessage string) []*schema.Message {
	messages := make([]*schema.Message, 0, len(history)+2)
	messages = append(messages, schema.SystemMessage(systemPrompt))
	messages = append(messages, history...)
	messages = append(messages, schema.UserMessage(userMessage))
	return messages
}

// SaveTurn stores the question, the answer and the new depth state.
func (cm *MessagesManager) SaveTurn(ctx context.Context, conversationID, question, answer string, state model.ConversationState) error {
	var errs []error
	if err := cm.conversationRepo.AddMessage(ctx, conversationID, schema.UserMessage(question)); err != nil {
		errs = append(errs, err)
	}
	if err := cm.conversationRepo.AddMessage(ctx, conversationID, schema.AssistantMessage(answer, nil)); err != nil {
		errs = append(errs, err)
	}
	if err := cm.conversationRepo.SaveState(ctx, conversationID, state); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ====================== Helper function ======================
func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if len(messages) <= maxTurns {
		return messages
	}
	return messages[len(messages)-maxTurns:]
}
