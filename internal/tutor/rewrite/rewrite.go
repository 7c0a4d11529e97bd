// Package rewrite adapts generated text to a child's profile after generation.
package rewrite

import (
	"regexp"
	"strings"

	"github.com/nia-core/server/internal/tutor/model"
)

type replacement struct {
	re   *regexp.Regexp
	with string
}

func compile(pairs [][2]string) []replacement {
	out := make([]replacement, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, replacement{
			re:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(p[0]) + `\b`),
			with: p[1],
		})
	}
	return out
}

var idioms = compile([][2]string{
	{"piece of cake", "easy"},
	{"costs an arm and a leg", "is expensive"},
	{"under the weather", "sick"},
	{"hit the books", "study"},
})

var simpleWords = compile([][2]string{
	{"utilize", "use"},
	{"demonstrate", "show"},
	{"acquire", "get"},
	{"comprehend", "understand"},
	{"assist", "help"},
	{"commence", "start"},
	{"terminate", "end"},
})

// Rewrite replaces idioms for literal-language learners and simplifies
// complex words for the elementary band. band is the student's grade band.
func Rewrite(text string, p model.ChildProfile, band model.GradeBand) string {
	if p.WantsLiteralLanguage() {
		text = apply(text, idioms)
	}
	if band == model.Elementary {
		text = apply(text, simpleWords)
	}
	return text
}

func apply(text string, rs []replacement) string {
	for _, r := range rs {
		text = r.re.ReplaceAllStringFunc(text, func(m string) string {
			return matchCase(m, r.with)
		})
	}
	return text
}

// matchCase keeps a leading capital so sentence starts stay capitalised.
func matchCase(orig, with string) string {
	if orig != "" && orig[:1] == strings.ToUpper(orig[:1]) && orig[:1] != strings.ToLower(orig[:1]) {
		return strings.ToUpper(with[:1]) + with[1:]
	}
	return with
}
