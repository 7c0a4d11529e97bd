package graph

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/eino/compose"

	"github.com/nia-core/server/internal/tutor/generation"
	"github.com/nia-core/server/internal/tutor/graph/conversations"
	"github.com/nia-core/server/internal/tutor/graph/observers"
	"github.com/nia-core/server/internal/tutor/model"
	logx "github.com/nia-core/server/pkg/logger"
)

// Runner executes the compiled graph for one tutoring turn.
// It is safe for concurrent use across conversations; turns on the same
// conversation must be serialised by the caller.
type Runner struct {
	runnable compose.Runnable[model.TutorInput, *model.Answer]
	mm       *conversations.MessagesManager
}

// NewRunner builds the graph from config and wraps it.
func NewRunner(ctx context.Context, config *GraphConfig) (*Runner, error) {
	runnable, err := BuildGraph(ctx, config)
	if err != nil {
		return nil, err
	}
	return &Runner{runnable: runnable, mm: config.MessagesManager}, nil
}

// HandleQuestion answers one question. The answer is never nil. A non-nil
// error reports an infrastructure fault the caller should log; the answer
// is still meant to be shown.
func (r *Runner) HandleQuestion(ctx context.Context, in model.TutorInput) (*model.Answer, error) {
	ans, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil || ans == nil {
		if err == nil {
			err = errors.New("graph returned no answer")
		}
		logx.Error().Err(err).Str("conversation_id", in.ConversationID).Msg("Tutor graph failed")
		return fallbackAnswer(in, err), err
	}

	logx.Info().
		Str("conversation_id", ans.ConversationID).
		Str("question_type", string(ans.QuestionType)).
		Str("source_type", string(ans.SourceType)).
		Str("model", ans.ModelID).
		Bool("blocked", ans.Blocked).
		Int("depth", ans.DepthLevel).
		Int("total_tokens", ans.Usage.TotalTokens).
		Msg("Tutoring turn completed")

	if ans.Blocked || ans.Failure != nil {
		return ans, nil
	}
	if err := r.mm.SaveTurn(ctx, ans.ConversationID, strings.TrimSpace(in.Question), ans.Text, ans.State); err != nil {
		logx.Warn().Err(err).Str("conversation_id", ans.ConversationID).Msg("Failed to persist tutoring turn")
		return ans, err
	}
	return ans, nil
}

func fallbackAnswer(in model.TutorInput, err error) *model.Answer {
	lang := in.Profile.WithDefaults().Language
	return &model.Answer{
		ConversationID:    in.ConversationID,
		Text:              generation.Apology(lang),
		Language:          lang,
		SourceType:        model.SourceGeneralKnowledge,
		SourceLabel:       generation.Label(model.SourceGeneralKnowledge, lang),
		Sources:           []model.SourceReference{},
		ModelID:           model.ModelIDError,
		DepthLevel:        model.ClampDepth(in.CurrentDepth),
		FollowUpQuestions: []string{},
		Folder:            generation.Folder(nil),
		State:             model.InitialConversationState(),
		Failure:           generation.Classify(err, nil),
	}
}
