package generation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/nia-core/server/internal/tutor/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSource(t *testing.T) {
	assert.Equal(t, model.SourceWebSearch, ResolveSource(true, true))
	assert.Equal(t, model.SourceCurated, ResolveSource(false, true))
	assert.Equal(t, model.SourceGeneralKnowledge, ResolveSource(false, false))
}

func TestLabelsAreLocalized(t *testing.T) {
	for _, st := range []model.SourceType{model.SourceWebSearch, model.SourceCurated, model.SourceGeneralKnowledge} {
		en, es := Label(st, model.English), Label(st, model.Spanish)
		assert.NotEqual(t, en, es)
		assert.True(t, HasLabel(en))
		assert.True(t, HasLabel(es))
	}
	assert.Equal(t, "📚 De nuestro plan de estudios", Label(model.SourceCurated, model.Spanish))
	assert.Equal(t, Label(model.SourceCurated, model.English), Label(model.SourceCurated, model.Language("de")))
}

func TestWithLabelAvoidsDoubleLabel(t *testing.T) {
	l := Label(model.SourceGeneralKnowledge, model.English)
	assert.Equal(t, l+":\n\nPlants eat light.", WithLabel("Plants eat light.", l))
	assert.Equal(t, "🌐 From the web: stuff", WithLabel("🌐 From the web: stuff", l))
	assert.Equal(t, "  📚 From our curriculum:\n\nok", WithLabel("  📚 From our curriculum:\n\nok", l))
}

func TestWithLabelIgnoresEmojiInBody(t *testing.T) {
	curated := Label(model.SourceCurated, model.English)
	body := "Fractions are parts of a whole. Grab a book 📚 and try it!"
	assert.Equal(t, curated+":\n\n"+body, WithLabel(body, curated))

	web := Label(model.SourceWebSearch, model.English)
	body = "Everest is tall ℹ️ and cold."
	assert.False(t, HasLabel(body))
	assert.Equal(t, web+":\n\n"+body, WithLabel(body, web))
}

func TestClassify(t *testing.T) {
	assert.Nil(t, Classify(nil, schema.AssistantMessage("hi", nil)))
	assert.Nil(t, Classify(nil, schema.AssistantMessage("", []schema.ToolCall{{ID: "1"}})))

	assert.Equal(t, model.FailureEmptyResponse, Classify(nil, schema.AssistantMessage("  ", nil)).Kind)
	assert.Equal(t, model.FailureEmptyResponse, Classify(nil, nil).Kind)

	f := Classify(fmt.Errorf("generate: %w", context.DeadlineExceeded), nil)
	assert.Equal(t, model.FailureTimeout, f.Kind)
	assert.Contains(t, f.Error(), "timeout")

	assert.Equal(t, model.FailureCanceled, Classify(context.Canceled, nil).Kind)
	assert.Equal(t, model.FailureProvider, Classify(errors.New("401 unauthorized"), nil).Kind)
}

func TestHarvestSearches(t *testing.T) {
	calls := []schema.ToolCall{
		{ID: "a", Function: schema.FunctionCall{Name: "web_search", Arguments: `{"query":"tallest mountain"}`}},
		{ID: "b", Function: schema.FunctionCall{Name: "other", Arguments: `{"query":"x"}`}},
		{ID: "c", Function: schema.FunctionCall{Name: "web_search", Arguments: `not json`}},
		{ID: "d", Function: schema.FunctionCall{Name: "web_search", Arguments: `{"query":"deepest ocean"}`}},
	}
	refs := HarvestSearches(calls, "web_search", 2)
	require.Len(t, refs, 2)
	assert.Equal(t, "tallest mountain", refs[0].Query)
	assert.Equal(t, 3, refs[0].CitationIndex)
	assert.Equal(t, 4, refs[1].CitationIndex)
	for _, r := range refs {
		assert.Equal(t, model.SourceWebSearch, r.Type)
		assert.True(t, r.Verified)
	}
}

func TestApologyAndFolder(t *testing.T) {
	assert.Contains(t, Apology(model.Spanish), "Lo siento")
	assert.Contains(t, Apology(model.Language("")), "sorry")

	assert.Equal(t, "General", Folder(nil))
	assert.Equal(t, "Math", Folder([]model.ContentDocument{{Subject: model.SubjectMath}}))

	refs := CuratedSources([]model.ContentDocument{{Title: "Adding Fractions", Subject: model.SubjectMath}})
	require.Len(t, refs, 1)
	assert.Equal(t, model.SourceCurated, refs[0].Type)
}
