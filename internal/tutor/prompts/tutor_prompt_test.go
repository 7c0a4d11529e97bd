package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/nia-core/server/internal/tutor/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profile(lang model.Language, accs ...string) model.ChildProfile {
	p, _ := model.NewChildProfile(model.RawProfile{
		GradeLevel:     "3rd grade",
		Language:       string(lang),
		ReadingLevel:   "2nd grade",
		Accommodations: accs,
	})
	return p
}

func render(t *testing.T, in TutorPromptInput) string {
	t.Helper()
	out, err := RenderTutorSystem(context.Background(), in)
	require.NoError(t, err)
	return out
}

func TestRenderTutorSystemBase(t *testing.T) {
	out := render(t, TutorPromptInput{Profile: profile(model.English), Depth: 1, StrategyFragment: "Be a math helper."})

	assert.Contains(t, out, "- Grade Level: 3rd grade")
	assert.Contains(t, out, "- Preferred Language: English")
	assert.Contains(t, out, "- Reading Level: 2nd grade")
	assert.Contains(t, out, "introductory explanation")
	assert.NotContains(t, out, "PRIMARY source")
	assert.NotContains(t, out, "SPANISH")
	assert.NotContains(t, out, "Learning Accommodations")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "Be a math helper."), "strategy guidance comes last")
}

func TestRenderTutorSystemSections(t *testing.T) {
	out := render(t, TutorPromptInput{
		Profile:           profile(model.Spanish, "dyslexia_support", "literal_language_preference"),
		HasCuratedContent: true,
		Depth:             3,
		StrategyFragment:  "guidance",
	})

	curated := strings.Index(out, "PRIMARY source")
	spanish := strings.Index(out, "CRITICAL: Respond in SPANISH")
	accs := strings.Index(out, "Learning Accommodations: literal_language_preference, dyslexia_support")
	literal := strings.Index(out, "avoid metaphors")
	dyslexia := strings.Index(out, "Spell out numbers")
	depth := strings.Index(out, "deepest level")
	guidance := strings.Index(out, "Response guidance for this question:")

	for _, i := range []int{curated, spanish, accs, literal, dyslexia, depth, guidance} {
		require.GreaterOrEqual(t, i, 0, out)
	}
	assert.Less(t, curated, spanish)
	assert.Less(t, spanish, accs)
	assert.Less(t, literal, dyslexia)
	assert.Less(t, dyslexia, depth)
	assert.Less(t, depth, guidance)
	assert.Contains(t, out, "Do not offer to go deeper")
}

func TestRenderTutorSystemSharedLiteralBlock(t *testing.T) {
	out := render(t, TutorPromptInput{Profile: profile(model.English, "autism_support", "literal_language_preference"), Depth: 2})
	assert.Equal(t, 1, strings.Count(out, "avoid metaphors"))
}

func TestRenderTutorSystemTextToSpeech(t *testing.T) {
	p := profile(model.English)
	p.TextToSpeech = true
	out := render(t, TutorPromptInput{Profile: p, Depth: 1})
	assert.Contains(t, out, "read aloud")
}

func TestRenderTutorSystemDeterministic(t *testing.T) {
	in := TutorPromptInput{
		Profile:           profile(model.English, "visual_learner", "adhd_support", "simplified_language", "step_by_step_instructions"),
		HasCuratedContent: true,
		Depth:             2,
		StrategyFragment:  "guidance",
	}
	assert.Equal(t, render(t, in), render(t, in))
}

func TestRenderTutorSystemDefaults(t *testing.T) {
	out := render(t, TutorPromptInput{Depth: 9})
	assert.Contains(t, out, "- Grade Level: elementary")
	assert.Contains(t, out, "- Reading Level: at grade level")
	assert.Contains(t, out, "deepest level")
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Student's Question: why?", UserMessage("", "why?"))
	assert.Equal(t, "ctx\n\nStudent's Question: why?", UserMessage("ctx", "why?"))
}
