package nodes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/nia-core/server/internal/tutor/classify"
	"github.com/nia-core/server/internal/tutor/depth"
	"github.com/nia-core/server/internal/tutor/generation"
	"github.com/nia-core/server/internal/tutor/graph/conversations"
	"github.com/nia-core/server/internal/tutor/graph/tools"
	"github.com/nia-core/server/internal/tutor/model"
	"github.com/nia-core/server/internal/tutor/prompts"
	"github.com/nia-core/server/internal/tutor/retrieval"
	"github.com/nia-core/server/internal/tutor/rewrite"
	"github.com/nia-core/server/internal/tutor/safety"
	logx "github.com/nia-core/server/pkg/logger"
)

// RouterConfig tunes retrieval for the router node.
type RouterConfig struct {
	TopK             int
	ContextMaxTokens int
}

// NewRouterNode classifies the question, retrieves curated content and
// assembles the model context.
func NewRouterNode(mm *conversations.MessagesManager, retriever model.Retriever, cfg RouterConfig) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.TutorInput) ([]*schema.Message, error) {
		qt := classify.Classify(in.Question)
		strategy := classify.Strategy(qt)

		var docs []model.ContentDocument
		if retriever != nil {
			docs = retriever.Retrieve(ctx, in.Question, in.Profile.GradeLevel, cfg.TopK)
		}

		var d int
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TutorState) error {
			s.QuestionType = qt
			s.Strategy = strategy
			s.Documents = docs
			d = s.Depth
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		systemPrompt, err := prompts.RenderTutorSystem(ctx, prompts.TutorPromptInput{
			Profile:           in.Profile,
			HasCuratedContent: len(docs) > 0,
			Depth:             d,
			StrategyFragment:  strategy.PromptFragment,
		})
		if err != nil {
			return nil, fmt.Errorf("render tutor system prompt: %w", err)
		}

		logx.Debug().
			Str("conversation_id", in.ConversationID).
			Str("question_type", string(qt)).
			Int("documents", len(docs)).
			Int("depth", d).
			Bool("search_enabled", strategy.SearchEnabled).
			Msg("Question routed")

		userMsg := prompts.UserMessage(retrieval.BuildContext(docs, cfg.ContextMaxTokens), in.Question)
		return mm.BuildContext(systemPrompt, mm.RecentHistory(ctx, in.ConversationID), userMsg), nil
	})
}

// NewTutorModelPreHandler records the context and enforces the tool call limit.
func NewTutorModelPreHandler(maxToolCalls int) func(context.Context, []*schema.Message, *model.TutorState) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, state *model.TutorState) ([]*schema.Message, error) {
		// Some providers return tool results without tool_call_id; pair them
		// positionally with the most recent assistant tool calls.
		var lastCalls []schema.ToolCall
		for i := len(state.History) - 1; i >= 0; i-- {
			if msg := state.History[i]; msg != nil && msg.Role == schema.Assistant && len(msg.ToolCalls) > 0 {
				lastCalls = msg.ToolCalls
				break
			}
		}
		n := 0
		for _, m := range in {
			if m == nil || m.Role != schema.Tool {
				continue
			}
			if strings.TrimSpace(m.ToolCallID) == "" && n < len(lastCalls) {
				m.ToolCallID = lastCalls[n].ID
			}
			n++
		}

		state.History = append(state.History, in...)

		if checkAndMarkToolLimit(state, maxToolCalls) {
			maxToolCalls = normalizeMaxToolCalls(maxToolCalls)
			state.History = append(state.History, &schema.Message{
				Role: schema.System,
				Content: fmt.Sprintf(
					"SYSTEM NOTICE: You have reached the maximum web search limit (%d). "+
						"Answer the student now using what you have already found and what you know.",
					maxToolCalls,
				),
			})
		}

		return state.History, nil
	}
}

// NewTutorModelNode calls the tutor model with the strategy's temperature
// under a bounded wait. Failures are recorded in state and an empty reply is
// passed on; they never abort the graph.
func NewTutorModelNode(cms *ChatModels, cfg model.TutorModelConfig) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in []*schema.Message) (*schema.Message, error) {
		var strategy model.ResponseStrategy
		var conversationID string
		var limitReached bool
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TutorState) error {
			strategy = s.Strategy
			conversationID = s.ConversationID
			limitReached = s.ToolCallLimitReached
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		opts := []einomodel.Option{einomodel.WithTemperature(strategy.Temperature)}
		if cfg.MaxTokens > 0 {
			opts = append(opts, einomodel.WithMaxTokens(cfg.MaxTokens))
		}

		// The model runs inside a lambda; re-tag callbacks so chat model observers see it.
		genCtx := callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
			Name:      cms.TutorModelName,
			Type:      "Gemini",
			Component: components.ComponentOfChatModel,
		})
		if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			genCtx, cancel = context.WithTimeout(genCtx, cfg.Timeout)
			defer cancel()
		}

		started := time.Now()
		out, genErr := cms.pick(strategy.SearchEnabled && !limitReached).Generate(genCtx, in, opts...)
		failure := generation.Classify(genErr, out)

		err = compose.ProcessState(ctx, func(_ context.Context, s *model.TutorState) error {
			s.ModelID = cms.TutorModelName
			if failure != nil {
				s.Failure = failure
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		if failure != nil {
			logx.Error().
				Str("conversation_id", conversationID).
				Str("node", NodeTutorModel).
				Str("kind", string(failure.Kind)).
				Dur("elapsed", time.Since(started)).
				Err(genErr).
				Msg("Tutor generation failed")
			return schema.AssistantMessage("", nil), nil
		}
		return out, nil
	})
}

// NewTutorModelPostHandler accounts usage, normalises tool calls and
// harvests issued web searches as sources.
func NewTutorModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.TutorState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.TutorState) (*schema.Message, error) {
		if out == nil {
			return out, nil
		}
		if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
			state.Usage.Add(out.ResponseMeta.Usage, model.ResolvePricing(modelName))
			logx.Debug().
				Str("conversation_id", state.ConversationID).
				Str("node", NodeTutorModel).
				Str("model", modelName).
				Int("prompt_tokens", out.ResponseMeta.Usage.PromptTokens).
				Int("completion_tokens", out.ResponseMeta.Usage.CompletionTokens).
				Float64("total_cost_usd", state.Usage.CostUSD).
				Msg("LLM usage")
		}

		// Normalize tool calls: some providers may omit tool_call IDs.
		for i := range out.ToolCalls {
			if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
				state.ToolCallIDSeq++
				out.ToolCalls[i].ID = fmt.Sprintf("call_%d", state.ToolCallIDSeq)
			}
		}

		if refs := generation.HarvestSearches(out.ToolCalls, tools.ToolWebSearch, len(state.Sources)); len(refs) > 0 {
			state.Sources = append(state.Sources, refs...)
			state.UsedWebSearch = true
		}

		state.History = append(state.History, out)

		if len(out.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(out.ToolCalls)).Msg("Calling tools")
		}
		return out, nil
	}
}

// NewToolExecutorCondition creates the condition function for tool execution routing
func NewToolExecutorCondition() func(context.Context, *schema.Message) (string, error) {
	return func(ctx context.Context, input *schema.Message) (string, error) {
		var limitReached, failed bool
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.TutorState) error {
			limitReached = state.ToolCallLimitReached
			failed = state.Failure != nil
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("failed to access state: %w", err)
		}

		switch {
		case failed:
			return NodeFinalizer, nil
		case limitReached:
			logx.Debug().Msg("Tool limit reached previously - routing to finalizer")
			return NodeFinalizer, nil
		case input != nil && len(input.ToolCalls) > 0:
			logx.Debug().Int("tool_count", len(input.ToolCalls)).Msg("Routing to ToolExecutor")
			return NodeToolExecutor, nil
		default:
			return NodeFinalizer, nil
		}
	}
}

// NewToolExecutorPreHandler creates the pre-handler for ToolExecutor node
func NewToolExecutorPreHandler(maxToolCalls int) func(context.Context, *schema.Message, *model.TutorState) (*schema.Message, error) {
	return func(ctx context.Context, in *schema.Message, state *model.TutorState) (*schema.Message, error) {
		exceeded := incrementToolCallAndCheck(state, maxToolCalls)

		logx.Debug().
			Int("tool_call_count", state.ToolCallCount).
			Str("conversation_id", state.ConversationID).
			Msg("Tool execution attempt")

		if exceeded {
			logx.Warn().
				Int("tool_call_count", state.ToolCallCount).
				Int("max_tool_calls", normalizeMaxToolCalls(maxToolCalls)).
				Str("conversation_id", state.ConversationID).
				Msg("Tool call limit exceeded - flagging and continuing")
		}
		return in, nil
	}
}

// NewFinalizerNode shapes the reply: rewrite, output validation, source
// label, depth protocol. Generation failures become a localized apology.
func NewFinalizerNode(f *safety.Filter, protocol *depth.Protocol) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, reply *schema.Message) (*model.Answer, error) {
		var ans *model.Answer
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TutorState) error {
			ans = finalize(s, reply, f, protocol)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}
		return ans, nil
	})
}

func finalize(s *model.TutorState, reply *schema.Message, f *safety.Filter, protocol *depth.Protocol) *model.Answer {
	p := s.Input.Profile
	lang := p.Language
	ans := baseAnswer(s)
	ans.HasCuratedContent = len(s.Documents) > 0

	if s.Failure == nil && (reply == nil || strings.TrimSpace(reply.Content) == "") {
		s.Failure = generation.Classify(nil, nil)
	}
	if s.Failure != nil {
		ans.Text = generation.Apology(lang)
		ans.SourceType = model.SourceGeneralKnowledge
		ans.SourceLabel = generation.Label(model.SourceGeneralKnowledge, lang)
		ans.ModelID = model.ModelIDError
		ans.Failure = s.Failure
		return ans
	}

	source := generation.ResolveSource(s.UsedWebSearch, ans.HasCuratedContent)
	ans.SourceType = source
	ans.SourceLabel = generation.Label(source, lang)
	ans.ModelID = s.ModelID
	ans.Sources = append(generation.CuratedSources(s.Documents), s.Sources...)

	text := rewrite.Rewrite(strings.TrimSpace(reply.Content), p, retrieval.BandFor(p.GradeLevel))
	if ok, reason := f.ValidateOutput(text, p.ReadingLevel); !ok {
		logx.Warn().Str("conversation_id", s.ConversationID).Str("reason", reason).Msg("Generated answer failed output validation")
		ans.Text = safety.Deflection(lang)
	} else {
		ans.Text = generation.WithLabel(text, ans.SourceLabel)
	}

	out := protocol.Advance(s.Prior, s.Depth, lang)
	ans.DepthLevel = out.Depth
	ans.State = out.State
	ans.MaxDepthReached = out.MaxDepthReached
	ans.FollowUpOffered = out.FollowUpOffered
	ans.FollowUpQuestions = out.FollowUps
	return ans
}
