package retrieval

import (
	"github.com/nia-core/server/internal/tutor/keywords"
	"github.com/nia-core/server/internal/tutor/model"
)

type subjectWords struct {
	subject model.Subject
	words   *keywords.Set
}

// subjects is checked in order; the first hit wins.
var subjects = []subjectWords{
	{model.SubjectMath, keywords.NewSet(
		"math", "arithmetic", "algebra", "geometry", "fraction", "fractions",
		"multiply", "multiplying", "multiplication", "divide", "dividing", "division",
		"add", "adding", "addition", "subtract", "subtracting", "subtraction",
		"equation", "equations", "denominator", "numerator",
	)},
	{model.SubjectScience, keywords.NewSet(
		"science", "biology", "chemistry", "physics", "photosynthesis",
		"plant", "plants", "animal", "animals", "water cycle", "energy",
	)},
	{model.SubjectHistory, keywords.NewSet(
		"history", "washington", "revolution", "american", "civil war",
		"president", "presidents", "colony", "colonies",
	)},
	{model.SubjectEnglish, keywords.NewSet(
		"english", "grammar", "writing", "sentence", "sentences", "paragraph",
		"paragraphs", "noun", "nouns", "verb", "verbs", "adjective", "adjectives",
	)},
	{model.SubjectGeography, keywords.NewSet(
		"geography", "continent", "continents", "ocean", "oceans", "state", "states",
		"country", "countries", "map", "maps", "capital", "capitals",
	)},
}

// DetectSubject returns the curriculum subject a query is about, if any.
func DetectSubject(query string) (model.Subject, bool) {
	for _, s := range subjects {
		if s.words.Contains(query) {
			return s.subject, true
		}
	}
	return "", false
}
