// Package prompts renders the tutor system prompt and user turn.
package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/nia-core/server/internal/tutor/model"
)

//go:embed template/tutor_prompt.txt
var tutorSystemPrompt string

var accommodationBlocks = map[model.Accommodation]string{
	model.AutismSupport: "- Use literal language, avoid metaphors and idioms\n" +
		"- Provide clear, structured explanations\n" +
		"- List steps explicitly as a numbered list\n",
	model.DyslexiaSupport: "- Use short, simple sentences\n" +
		"- Break information into bullet points\n" +
		"- Spell out numbers and dates clearly (for example \"three (3)\")\n",
	model.ADHDSupport: "- Keep responses concise and focused\n" +
		"- Use engaging language\n" +
		"- Use clear transitions between short sections and highlight key points\n",
	model.VisualLearner: "- Use visual descriptions\n" +
		"- Describe spatial relationships\n" +
		"- Paint mental pictures\n",
	model.SimplifiedLanguage: "- Use everyday words\n" +
		"- Define any new or technical word right after using it\n" +
		"- Keep sentences short\n",
	model.StepByStepInstructions: "- Break every task into small numbered steps\n" +
		"- Give one instruction per step\n",
}

const textToSpeechBlock = "- The answer will be read aloud: use plain text, avoid tables and symbols, and write numbers as words\n"

var depthInstructions = map[int]string{
	1: "This is an introductory explanation. Keep it clear and simple, covering the main concepts.",
	2: "This is a deeper dive. Provide more details, examples, and explanations than before.",
	3: "This is the deepest level. Provide comprehensive information with advanced details, multiple examples, and connections to related concepts.",
}

var languageNames = map[model.Language]string{
	model.English: "English",
	model.Spanish: "Spanish",
}

// TutorPromptInput is everything the system prompt depends on.
type TutorPromptInput struct {
	Profile           model.ChildProfile
	HasCuratedContent bool
	Depth             int
	StrategyFragment  string
}

// RenderTutorSystem renders the tutor system prompt through the eino prompt
// component so prompt callbacks fire. Equal inputs render byte-identical output.
func RenderTutorSystem(ctx context.Context, in TutorPromptInput) (string, error) {
	p := in.Profile.WithDefaults()
	depth := model.ClampDepth(in.Depth)

	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(tutorSystemPrompt),
	)
	vars := map[string]any{
		"GradeLevel":          p.GradeLevel,
		"Language":            languageNames[p.Language],
		"ReadingLevel":        p.ReadingLevel,
		"HasCuratedContent":   in.HasCuratedContent,
		"Spanish":             p.Language == model.Spanish,
		"Accommodations":      accommodationList(p),
		"AccommodationBlocks": accommodationText(p),
		"DepthInstruction":    depthInstructions[depth],
		"MaxDepth":            depth == model.MaxDepth,
		"StrategyFragment":    strings.TrimSpace(in.StrategyFragment),
	}
	ctx = callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      "TutorSystemPrompt",
		Type:      "GoTemplate",
		Component: components.ComponentOfPrompt,
	})
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("tutor prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("tutor prompt render: empty result")
	}
	return msgs[0].Content, nil
}

func accommodationList(p model.ChildProfile) string {
	tags := make([]string, 0, len(p.Accommodations)+1)
	for _, a := range model.Accommodations {
		if p.Has(a) {
			tags = append(tags, string(a))
		}
	}
	if p.TextToSpeech {
		tags = append(tags, "text_to_speech")
	}
	return strings.Join(tags, ", ")
}

// accommodationText emits blocks in vocabulary order. Autism support and the
// literal language preference share one block.
func accommodationText(p model.ChildProfile) []string {
	var blocks []string
	if p.WantsLiteralLanguage() {
		blocks = append(blocks, accommodationBlocks[model.AutismSupport])
	}
	for _, a := range model.Accommodations {
		if a == model.AutismSupport || a == model.LiteralLanguagePreference || !p.Has(a) {
			continue
		}
		blocks = append(blocks, accommodationBlocks[a])
	}
	if p.TextToSpeech {
		blocks = append(blocks, textToSpeechBlock)
	}
	return blocks
}

// UserMessage builds the user turn, prefixing the curated context block when present.
func UserMessage(curatedContext, question string) string {
	if curatedContext == "" {
		return "Student's Question: " + question
	}
	return curatedContext + "\n\nStudent's Question: " + question
}
