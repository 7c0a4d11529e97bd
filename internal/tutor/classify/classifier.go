// Package classify maps a child's question to a question type and a response strategy.
package classify

import (
	"github.com/nia-core/server/internal/tutor/keywords"
	"github.com/nia-core/server/internal/tutor/model"
)

// Keyword vocabularies. Matching is on whole words, so inflected forms that
// should count are listed explicitly.
var (
	offTopicWords = keywords.NewSet(
		"video game", "video games", "youtube", "tiktok", "instagram",
		"buy", "buying", "purchase", "money", "phone number",
		"password", "passwords", "hack", "hacking",
	)
	realTimeWords = keywords.NewSet(
		"today", "now", "current", "currently", "weather", "temperature",
		"time", "latest", "recent news", "right now", "this week",
		"yesterday", "tomorrow", "tonight",
	)
	literacyWords = keywords.NewSet(
		"read", "reading", "reads", "write", "writing", "writes", "wrote",
		"spell", "spelling", "spelled", "word", "words", "letter", "letters",
		"alphabet", "story", "stories", "book", "books", "sentence", "sentences",
		"paragraph", "paragraphs", "essay", "essays", "vocabulary", "meaning",
		"define", "definition", "pronunciation", "pronounce", "rhyme", "rhymes",
		"syllable", "syllables", "grammar", "punctuation", "noun", "nouns",
		"verb", "verbs", "adjective", "adjectives", "synonym", "synonyms",
		"antonym", "antonyms",
	)
	mathWords = keywords.NewSet(
		"add", "adding", "addition", "subtract", "subtracting", "subtraction",
		"multiply", "multiplying", "multiplication", "divide", "dividing", "division",
		"plus", "minus", "times", "math", "maths", "number", "numbers",
		"count", "counting", "calculate", "calculating", "equation", "equations",
		"problem", "problems", "solve", "solving", "answer is",
		"fraction", "fractions",
	)
)

// rule pairs a vocabulary with the type it selects. Order is priority.
type rule struct {
	words *keywords.Set
	qt    model.QuestionType
}

var rules = []rule{
	{offTopicWords, model.OffTopic},
	{realTimeWords, model.RealTime},
	{literacyWords, model.Literacy},
	{mathWords, model.Math},
}

// Classify returns the question type. It is total: anything unmatched is general knowledge.
func Classify(question string) model.QuestionType {
	for _, r := range rules {
		if r.words.Contains(question) {
			return r.qt
		}
	}
	return model.GeneralKnowledge
}
