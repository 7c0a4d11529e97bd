package graph

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nia-core/server/internal/tutor/classify"
	"github.com/nia-core/server/internal/tutor/depth"
	"github.com/nia-core/server/internal/tutor/generation"
	"github.com/nia-core/server/internal/tutor/graph/conversations"
	"github.com/nia-core/server/internal/tutor/graph/nodes"
	"github.com/nia-core/server/internal/tutor/graph/tools"
	"github.com/nia-core/server/internal/tutor/model"
	"github.com/nia-core/server/internal/tutor/repo"
	"github.com/nia-core/server/internal/tutor/retrieval"
	logx "github.com/nia-core/server/pkg/logger"
)

func init() {
	logx.Silence()
}

type reply func(ctx context.Context, msgs []*schema.Message) (*schema.Message, error)

func text(s string) reply {
	return func(context.Context, []*schema.Message) (*schema.Message, error) {
		return &schema.Message{
			Role:    schema.Assistant,
			Content: s,
			ResponseMeta: &schema.ResponseMeta{
				Usage: &schema.TokenUsage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
			},
		}, nil
	}
}

func searchCall(query string) reply {
	return func(context.Context, []*schema.Message) (*schema.Message, error) {
		return schema.AssistantMessage("", []schema.ToolCall{{
			Function: schema.FunctionCall{Name: tools.ToolWebSearch, Arguments: `{"query":"` + query + `"}`},
		}}), nil
	}
}

// fakeChatModel replays scripted replies and records every input.
type fakeChatModel struct {
	mu      sync.Mutex
	replies []reply
	calls   [][]*schema.Message
}

func (m *fakeChatModel) Generate(ctx context.Context, in []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]*schema.Message(nil), in...))
	if len(m.replies) == 0 {
		m.mu.Unlock()
		return nil, errors.New("no scripted reply")
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	m.mu.Unlock()
	return r(ctx, in)
}

func (m *fakeChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	out, err := m.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{out}), nil
}

func (m *fakeChatModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
}

func (s *fakeSearcher) Search(_ context.Context, q string) (*tools.SearchResult, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.mu.Unlock()
	return &tools.SearchResult{Summary: "Mount Everest is the tallest mountain above sea level."}, nil
}

type harness struct {
	runner   *Runner
	model    *fakeChatModel
	repo     *repo.MemoryConversationRepository
	searcher *fakeSearcher
}

type harnessOpts struct {
	docs      []model.ContentDocument
	withTools bool
	maxCalls  int
	timeout   time.Duration
	replies   []reply
}

func newHarness(t *testing.T, o harnessOpts) *harness {
	t.Helper()
	fm := &fakeChatModel{replies: o.replies}
	cms := &nodes.ChatModels{Tutor: fm, TutorModelName: "gemini-2.5-flash"}
	h := &harness{model: fm, repo: repo.NewMemoryConversationRepository()}

	cfg := &GraphConfig{
		ChatModels:       cms,
		MessagesManager:  conversations.NewMessagesManager(h.repo, model.ConversationConfig{HistoryTurns: 4}),
		Retriever:        retrieval.NewKeywordRetriever(repo.NewMemoryContentStore(o.docs)),
		Protocol:         depth.NewProtocol(1),
		TutorModel:       model.TutorModelConfig{Model: "gemini-2.5-flash", MaxTokens: 2000, Timeout: o.timeout},
		TopK:             3,
		ContextMaxTokens: 3000,
		ToolMaxCalls:     o.maxCalls,
	}
	if o.withTools {
		h.searcher = &fakeSearcher{}
		cms.Search = fm
		cfg.Searcher = h.searcher
	}

	r, err := NewRunner(context.Background(), cfg)
	require.NoError(t, err)
	h.runner = r
	return h
}

func input(q string, d int, lang model.Language) model.TutorInput {
	p, _ := model.NewChildProfile(model.RawProfile{GradeLevel: "3rd grade", Language: string(lang)})
	return model.TutorInput{ConversationID: "conv-1", Question: q, CurrentDepth: d, Profile: p}
}

func TestCrisisQuestionNeverReachesModel(t *testing.T) {
	h := newHarness(t, harnessOpts{})

	ans, err := h.runner.HandleQuestion(context.Background(), input("How do I hurt myself", 1, model.English))
	require.NoError(t, err)

	assert.True(t, ans.Blocked)
	assert.True(t, ans.NeedsIntervention)
	assert.Equal(t, model.AlertCrisis, ans.AlertType)
	assert.Contains(t, ans.Text, "988")
	assert.Equal(t, nodes.ModelIDSafetyFilter, ans.ModelID)
	assert.Empty(t, ans.FollowUpQuestions)
	assert.Zero(t, h.model.callCount())

	n, err := h.repo.GetMessageCount(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestParentBlockedKeyword(t *testing.T) {
	h := newHarness(t, harnessOpts{})
	in := input("Tell me about dinosaurs", 1, model.English)
	in.ParentBlockedKeywords = []string{"Dinosaurs"}

	ans, err := h.runner.HandleQuestion(context.Background(), in)
	require.NoError(t, err)

	assert.True(t, ans.Blocked)
	assert.False(t, ans.NeedsIntervention)
	assert.Empty(t, ans.AlertType)
	assert.Equal(t, "I can't answer that question. Please ask about something else!", ans.Text)
	assert.Zero(t, h.model.callCount())
}

func TestRealTimeQuestionUsesRealTimeStrategy(t *testing.T) {
	h := newHarness(t, harnessOpts{replies: []reply{text("I don't have live weather data, but you can check a weather app with an adult!")}})

	ans, err := h.runner.HandleQuestion(context.Background(), input("What's the weather today?", 1, model.English))
	require.NoError(t, err)

	assert.Equal(t, model.RealTime, ans.QuestionType)
	require.Equal(t, 1, h.model.callCount())
	system := h.model.calls[0][0]
	assert.Equal(t, schema.System, system.Role)
	assert.Contains(t, system.Content, classify.Strategy(model.RealTime).PromptFragment)
	assert.Contains(t, system.Content, "DO NOT make up or guess real-time information.")
}

func TestCuratedContentIsLabelledAndCited(t *testing.T) {
	docs := []model.ContentDocument{{
		ID:        "math-fractions-1",
		Title:     "Adding Fractions",
		Subject:   model.SubjectMath,
		GradeBand: model.Elementary,
		Topic:     "fractions",
		Content:   "When fractions have the same denominator, add the numerators and keep the denominator.",
	}}
	h := newHarness(t, harnessOpts{docs: docs, replies: []reply{text("Add the top numbers and keep the bottom number the same.")}})

	ans, err := h.runner.HandleQuestion(context.Background(),
		input("How do I add fractions with the same denominator?", 1, model.English))
	require.NoError(t, err)

	assert.Equal(t, model.Math, ans.QuestionType)
	assert.True(t, ans.HasCuratedContent)
	assert.Equal(t, model.SourceCurated, ans.SourceType)
	assert.Equal(t, "📚 From our curriculum", ans.SourceLabel)
	assert.True(t, strings.HasPrefix(ans.Text, ans.SourceLabel+":\n\n"))
	assert.Equal(t, "Math", ans.Folder)
	require.Len(t, ans.Sources, 1)
	assert.Equal(t, "Adding Fractions", ans.Sources[0].Title)

	user := h.model.calls[0][len(h.model.calls[0])-1]
	assert.Contains(t, user.Content, "Here is relevant educational content from our curriculum:")
	assert.Contains(t, user.Content, "Student's Question: How do I add fractions with the same denominator?")
	assert.Equal(t, 120, ans.Usage.TotalTokens)
	assert.Greater(t, ans.Usage.CostUSD, 0.0)
}

func TestTellMeMoreAdvancesToDepthTwo(t *testing.T) {
	h := newHarness(t, harnessOpts{replies: []reply{
		text("Plants make food from sunlight."),
		text("Plants use chlorophyll to catch sunlight."),
	}})
	ctx := context.Background()

	first, err := h.runner.HandleQuestion(ctx, input("How do plants eat?", 1, model.English))
	require.NoError(t, err)
	assert.Equal(t, 1, first.DepthLevel)

	ans, err := h.runner.HandleQuestion(ctx, input("Tell me more", 2, model.English))
	require.NoError(t, err)

	assert.Equal(t, 2, ans.DepthLevel)
	assert.False(t, ans.MaxDepthReached)
	assert.True(t, ans.FollowUpOffered)
	require.Len(t, ans.FollowUpQuestions, 1)
	assert.Equal(t, model.ConversationState{MaxDepth: 2, MessageCount: 4}, ans.State)

	state, err := h.repo.LoadState(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, ans.State, state)
}

func TestMaxDepthOffersNoFollowUp(t *testing.T) {
	h := newHarness(t, harnessOpts{replies: []reply{text("Here is the advanced version.")}})

	ans, err := h.runner.HandleQuestion(context.Background(), input("Tell me more", 3, model.English))
	require.NoError(t, err)

	assert.Equal(t, 3, ans.DepthLevel)
	assert.True(t, ans.MaxDepthReached)
	assert.False(t, ans.FollowUpOffered)
	assert.Empty(t, ans.FollowUpQuestions)
}

func TestSpanishAnswerUsesSpanishTables(t *testing.T) {
	h := newHarness(t, harnessOpts{replies: []reply{text("Las plantas hacen su comida con la luz del sol.")}})

	ans, err := h.runner.HandleQuestion(context.Background(), input("¿Cómo comen las plantas?", 1, model.Spanish))
	require.NoError(t, err)

	assert.Equal(t, model.Spanish, ans.Language)
	assert.Equal(t, generation.Label(model.SourceGeneralKnowledge, model.Spanish), ans.SourceLabel)
	assert.Equal(t, depth.NewProtocol(1).FollowUps(1, model.Spanish, 0), ans.FollowUpQuestions)
	assert.Contains(t, h.model.calls[0][0].Content, "CRITICAL: Respond in SPANISH")
}

func TestWebSearchIsHarvestedAndLabelled(t *testing.T) {
	h := newHarness(t, harnessOpts{withTools: true, replies: []reply{
		searchCall("tallest mountain in the world"),
		text("Mount Everest is the tallest mountain on Earth."),
	}})

	ans, err := h.runner.HandleQuestion(context.Background(), input("Which mountain is the tallest?", 1, model.English))
	require.NoError(t, err)

	assert.Equal(t, []string{"tallest mountain in the world"}, h.searcher.queries)
	assert.Equal(t, model.SourceWebSearch, ans.SourceType)
	assert.True(t, strings.HasPrefix(ans.Text, "🌐 From the web:\n\n"))
	require.Len(t, ans.Sources, 1)
	assert.Equal(t, model.SourceWebSearch, ans.Sources[0].Type)
	assert.Equal(t, "tallest mountain in the world", ans.Sources[0].Query)
	assert.True(t, ans.Sources[0].Verified)

	require.Equal(t, 2, h.model.callCount())
	last := h.model.calls[1][len(h.model.calls[1])-1]
	assert.Equal(t, schema.Tool, last.Role)
	assert.Equal(t, "call_1", last.ToolCallID)
	assert.Contains(t, last.Content, "Mount Everest")
}

func TestToolLimitForcesAnswer(t *testing.T) {
	h := newHarness(t, harnessOpts{withTools: true, maxCalls: 1, replies: []reply{
		searchCall("tallest mountain"),
		text("Mount Everest is the tallest mountain."),
	}})

	ans, err := h.runner.HandleQuestion(context.Background(), input("Which mountain is the tallest?", 1, model.English))
	require.NoError(t, err)
	assert.Nil(t, ans.Failure)

	require.Equal(t, 2, h.model.callCount())
	notice := h.model.calls[1][len(h.model.calls[1])-1]
	assert.Equal(t, schema.System, notice.Role)
	assert.Contains(t, notice.Content, "maximum web search limit (1)")
}

func TestGenerationFailureBecomesApology(t *testing.T) {
	h := newHarness(t, harnessOpts{replies: []reply{
		func(context.Context, []*schema.Message) (*schema.Message, error) {
			return nil, errors.New("401 unauthorized")
		},
	}})
	ctx := context.Background()

	ans, err := h.runner.HandleQuestion(ctx, input("Why is the sky blue?", 1, model.English))
	require.NoError(t, err)

	assert.Equal(t, model.ModelIDError, ans.ModelID)
	assert.Equal(t, generation.Apology(model.English), ans.Text)
	require.NotNil(t, ans.Failure)
	assert.Equal(t, model.FailureProvider, ans.Failure.Kind)
	assert.Empty(t, ans.FollowUpQuestions)

	n, err := h.repo.GetMessageCount(ctx, "conv-1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGenerationTimeout(t *testing.T) {
	h := newHarness(t, harnessOpts{timeout: 20 * time.Millisecond, replies: []reply{
		func(ctx context.Context, _ []*schema.Message) (*schema.Message, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}})

	ans, err := h.runner.HandleQuestion(context.Background(), input("Why is the sky blue?", 1, model.English))
	require.NoError(t, err)
	require.NotNil(t, ans.Failure)
	assert.Equal(t, model.FailureTimeout, ans.Failure.Kind)
}

func TestEmptyReplyIsFailure(t *testing.T) {
	h := newHarness(t, harnessOpts{replies: []reply{text("   ")}})

	ans, err := h.runner.HandleQuestion(context.Background(), input("Why is the sky blue?", 1, model.English))
	require.NoError(t, err)
	require.NotNil(t, ans.Failure)
	assert.Equal(t, model.FailureEmptyResponse, ans.Failure.Kind)
	assert.Equal(t, model.ModelIDError, ans.ModelID)
}

func TestUnsafeOutputIsDeflected(t *testing.T) {
	h := newHarness(t, harnessOpts{replies: []reply{text("Here's how to hurt people.")}})

	ans, err := h.runner.HandleQuestion(context.Background(), input("Why is the sky blue?", 1, model.English))
	require.NoError(t, err)
	assert.Equal(t, "Let me think about that differently... Could you ask me in another way?", ans.Text)
}

func TestLiteralLearnerRewrite(t *testing.T) {
	h := newHarness(t, harnessOpts{replies: []reply{text("Counting to ten is a piece of cake!")}})
	in := input("How high can you count?", 1, model.English)
	in.Profile.Accommodations = []model.Accommodation{model.AutismSupport}

	ans, err := h.runner.HandleQuestion(context.Background(), in)
	require.NoError(t, err)
	assert.Contains(t, ans.Text, "is a easy!")
	assert.NotContains(t, ans.Text, "piece of cake")
}

func TestHistoryIsSentOnNextTurn(t *testing.T) {
	h := newHarness(t, harnessOpts{replies: []reply{
		text("Whales are mammals."),
		text("Yes, they breathe air."),
	}})
	ctx := context.Background()

	_, err := h.runner.HandleQuestion(ctx, input("Are whales fish?", 1, model.English))
	require.NoError(t, err)
	_, err = h.runner.HandleQuestion(ctx, input("Do they breathe air?", 1, model.English))
	require.NoError(t, err)

	second := h.model.calls[1]
	require.Len(t, second, 4)
	assert.Equal(t, schema.User, second[1].Role)
	assert.Equal(t, "Are whales fish?", second[1].Content)
	assert.Equal(t, schema.Assistant, second[2].Role)
	assert.Contains(t, second[2].Content, "Whales are mammals.")
}

func TestNewConversationGetsID(t *testing.T) {
	h := newHarness(t, harnessOpts{replies: []reply{text("Hello there!")}})
	in := input("Why is the sky blue?", 1, model.English)
	in.ConversationID = ""

	ans, err := h.runner.HandleQuestion(context.Background(), in)
	require.NoError(t, err)
	require.NotEmpty(t, ans.ConversationID)

	n, err := h.repo.GetMessageCount(context.Background(), ans.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestBuildGraphValidatesConfig(t *testing.T) {
	_, err := BuildGraph(context.Background(), nil)
	assert.Error(t, err)

	_, err = BuildGraph(context.Background(), &GraphConfig{ChatModels: &nodes.ChatModels{}})
	assert.Error(t, err)
}
