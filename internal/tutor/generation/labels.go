package generation

import (
	"strings"

	"github.com/samber/lo"

	"github.com/nia-core/server/internal/tutor/model"
)

var labels = map[model.Language]map[model.SourceType]string{
	model.English: {
		model.SourceWebSearch:        "🌐 From the web",
		model.SourceCurated:          "📚 From our curriculum",
		model.SourceGeneralKnowledge: "ℹ️ From what I know",
	},
	model.Spanish: {
		model.SourceWebSearch:        "🌐 De la web",
		model.SourceCurated:          "📚 De nuestro plan de estudios",
		model.SourceGeneralKnowledge: "ℹ️ Lo que sé",
	},
}

var labelGlyphs = []string{"🌐", "📚", "ℹ️"}

// ResolveSource picks the answer's source type. Web search wins over curated
// content, which wins over general knowledge.
func ResolveSource(usedWebSearch, hasCurated bool) model.SourceType {
	switch {
	case usedWebSearch:
		return model.SourceWebSearch
	case hasCurated:
		return model.SourceCurated
	default:
		return model.SourceGeneralKnowledge
	}
}

// Label returns the localized display label for a source type.
func Label(st model.SourceType, lang model.Language) string {
	table, ok := labels[lang]
	if !ok {
		table = labels[model.English]
	}
	if l, ok := table[st]; ok {
		return l
	}
	return table[model.SourceGeneralKnowledge]
}

// HasLabel reports whether text already opens with a source indicator glyph.
// Glyphs later in the body are ordinary emoji.
func HasLabel(text string) bool {
	head := strings.TrimSpace(text)
	return lo.ContainsBy(labelGlyphs, func(g string) bool { return strings.HasPrefix(head, g) })
}

// WithLabel prefixes text with label unless it is already labelled.
func WithLabel(text, label string) string {
	if HasLabel(text) {
		return text
	}
	return label + ":\n\n" + text
}
