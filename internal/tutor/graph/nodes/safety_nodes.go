package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"

	"github.com/nia-core/server/internal/tutor/generation"
	"github.com/nia-core/server/internal/tutor/graph/conversations"
	"github.com/nia-core/server/internal/tutor/model"
	"github.com/nia-core/server/internal/tutor/safety"
	logx "github.com/nia-core/server/pkg/logger"
)

// NewSafetyGatePreHandler normalises the request and resets per-turn state.
func NewSafetyGatePreHandler() func(context.Context, model.TutorInput, *model.TutorState) (model.TutorInput, error) {
	return func(ctx context.Context, in model.TutorInput, s *model.TutorState) (model.TutorInput, error) {
		in.Profile = in.Profile.WithDefaults()
		in.ConversationID = strings.TrimSpace(in.ConversationID)
		if in.ConversationID == "" {
			in.ConversationID = uuid.NewString()
		}
		*s = model.TutorState{
			Input:          in,
			ConversationID: in.ConversationID,
			Depth:          model.ClampDepth(in.CurrentDepth),
		}
		return in, nil
	}
}

// NewSafetyGateNode screens the question before anything else sees it and
// loads the conversation's prior depth state.
func NewSafetyGateNode(f *safety.Filter, mm *conversations.MessagesManager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.TutorInput) (model.TutorInput, error) {
		var v model.SafetyVerdict
		v.Safe, v.Reason = f.CheckInput(in.Question)
		if !v.Safe {
			v.NeedsIntervention = f.NeedsIntervention(in.Question)
		} else if ok, reason := f.CheckParentBlocklist(in.Question, in.ParentBlockedKeywords); !ok {
			v = model.SafetyVerdict{Safe: false, Reason: reason, ParentBlocked: true}
		}

		prior := mm.LoadState(ctx, in.ConversationID)

		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TutorState) error {
			s.Verdict = v
			s.Prior = prior
			return nil
		})
		if err != nil {
			return in, fmt.Errorf("failed to access state: %w", err)
		}

		if !v.Safe {
			logx.Warn().
				Str("conversation_id", in.ConversationID).
				Str("reason", v.Reason).
				Bool("needs_intervention", v.NeedsIntervention).
				Bool("parent_blocked", v.ParentBlocked).
				Msg("Question blocked by safety gate")
		}
		return in, nil
	})
}

// NewSafetyCondition routes blocked questions away from generation.
func NewSafetyCondition() func(context.Context, model.TutorInput) (string, error) {
	return func(ctx context.Context, _ model.TutorInput) (string, error) {
		var safe bool
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TutorState) error {
			safe = s.Verdict.Safe
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("failed to access state: %w", err)
		}
		if !safe {
			return NodeBlocked, nil
		}
		return NodeRouter, nil
	}
}

// NewBlockedNode answers a blocked question with a canned message. Nothing is
// generated, depth does not advance and follow-ups are never offered.
func NewBlockedNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.TutorInput) (*model.Answer, error) {
		var ans *model.Answer
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TutorState) error {
			ans = baseAnswer(s)
			lang := s.Input.Profile.Language
			ans.Text = safety.BlockedResponse(s.Verdict, lang)
			ans.Blocked = true
			ans.NeedsIntervention = s.Verdict.NeedsIntervention
			if s.Verdict.NeedsIntervention {
				ans.AlertType = model.AlertCrisis
			}
			ans.SourceType = model.SourceGeneralKnowledge
			ans.SourceLabel = generation.Label(model.SourceGeneralKnowledge, lang)
			ans.ModelID = ModelIDSafetyFilter
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}
		return ans, nil
	})
}

// ModelIDSafetyFilter marks answers produced by the safety gate.
const ModelIDSafetyFilter = "safety_filter"

// baseAnswer fills the fields every answer carries from turn state.
func baseAnswer(s *model.TutorState) *model.Answer {
	return &model.Answer{
		ConversationID:    s.ConversationID,
		Language:          s.Input.Profile.Language,
		QuestionType:      s.QuestionType,
		Sources:           []model.SourceReference{},
		DepthLevel:        s.Depth,
		FollowUpQuestions: []string{},
		Folder:            generation.Folder(s.Documents),
		State:             s.Prior,
		Usage:             s.Usage,
	}
}
