package retrieval

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/nia-core/server/internal/tutor/model"
)

var gradeBands = map[string]model.GradeBand{
	"kindergarten": model.Elementary,
	"1st grade":    model.Elementary,
	"2nd grade":    model.Elementary,
	"3rd grade":    model.Elementary,
	"4th grade":    model.Elementary,
	"5th grade":    model.Elementary,
	"6th grade":    model.Middle,
	"7th grade":    model.Middle,
	"8th grade":    model.Middle,
	"9th grade":    model.High,
	"10th grade":   model.High,
	"11th grade":   model.High,
	"12th grade":   model.High,
}

var bandGrades = map[model.GradeBand][]string{
	model.Elementary: {"K", "1", "2", "3", "4", "5"},
	model.Middle:     {"6", "7", "8"},
	model.High:       {"9", "10", "11", "12"},
}

// BandFor maps a free-form grade string to its grade band. Unknown grades
// fall back to the band of their number, then to elementary.
func BandFor(grade string) model.GradeBand {
	g := strings.ToLower(strings.TrimSpace(grade))
	if band, ok := gradeBands[g]; ok {
		return band
	}
	if band := model.GradeBand(g); bandGrades[band] != nil {
		return band
	}
	if n, err := strconv.Atoi(gradeNumber(grade)); err == nil {
		switch {
		case n >= 1 && n <= 5:
			return model.Elementary
		case n >= 6 && n <= 8:
			return model.Middle
		case n >= 9 && n <= 12:
			return model.High
		}
	}
	return model.Elementary
}

// GradeMatches reports whether a student in studentGrade may see a document
// of the given band. Kindergarten counts as grade "K". Other grades without
// digits, and documents with an unknown band, always match.
func GradeMatches(studentGrade string, docBand model.GradeBand) bool {
	grades, known := bandGrades[model.GradeBand(strings.ToLower(string(docBand)))]
	if !known {
		return true
	}
	num := gradeNumber(studentGrade)
	if num == "" {
		return true
	}
	for _, g := range grades {
		if g == num {
			return true
		}
	}
	return false
}

func gradeNumber(grade string) string {
	g := strings.ToLower(strings.TrimSpace(grade))
	if g == "k" || strings.Contains(g, "kindergarten") {
		return "K"
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, g)
	// strip leading zeros so "03" matches "3"
	if n, err := strconv.Atoi(digits); err == nil {
		return strconv.Itoa(n)
	}
	return digits
}
