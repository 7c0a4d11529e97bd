package model

import (
	"strings"

	"github.com/samber/lo"
)

// Language is a supported tutoring language.
type Language string

const (
	English Language = "en"
	Spanish Language = "es"
)

// ParseLanguage normalises a language code; anything unrecognised is English.
func ParseLanguage(v string) Language {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "es", "spa", "spanish", "español", "espanol":
		return Spanish
	default:
		return English
	}
}

// Accommodation is a learning accommodation tag from a fixed vocabulary.
type Accommodation string

const (
	AutismSupport             Accommodation = "autism_support"
	DyslexiaSupport           Accommodation = "dyslexia_support"
	ADHDSupport               Accommodation = "adhd_support"
	VisualLearner             Accommodation = "visual_learner"
	SimplifiedLanguage        Accommodation = "simplified_language"
	LiteralLanguagePreference Accommodation = "literal_language_preference"
	StepByStepInstructions    Accommodation = "step_by_step_instructions"
)

// Accommodations lists the vocabulary in the order prompt blocks are emitted.
var Accommodations = []Accommodation{
	AutismSupport,
	LiteralLanguagePreference,
	DyslexiaSupport,
	ADHDSupport,
	VisualLearner,
	SimplifiedLanguage,
	StepByStepInstructions,
}

// ParseAccommodation reports whether v names a known accommodation.
func ParseAccommodation(v string) (Accommodation, bool) {
	a := Accommodation(strings.ToLower(strings.TrimSpace(v)))
	return a, lo.Contains(Accommodations, a)
}

const (
	// DefaultGradeLevel is used when a profile carries no grade.
	DefaultGradeLevel = "elementary"
	// DefaultReadingLevel is used when a profile carries no reading level.
	DefaultReadingLevel = "at grade level"
)

// ChildProfile describes the learner for one query. Build it with NewChildProfile
// so that accommodation tags are validated and defaults applied.
type ChildProfile struct {
	GradeLevel     string          `json:"grade_level"`
	Language       Language        `json:"preferred_language"`
	ReadingLevel   string          `json:"reading_level"`
	Accommodations []Accommodation `json:"learning_accommodations"`
	TextToSpeech   bool            `json:"enable_text_to_speech"`
}

// RawProfile is the loosely typed profile shape handed over by the persistence layer.
type RawProfile struct {
	GradeLevel     string   `json:"grade_level"`
	Language       string   `json:"preferred_language"`
	ReadingLevel   string   `json:"reading_level"`
	Accommodations []string `json:"learning_accommodations"`
	TextToSpeech   bool     `json:"enable_text_to_speech"`
}

// NewChildProfile normalises a raw profile. Unknown accommodation tags are
// returned separately so the caller can log them; they never fail the request.
func NewChildProfile(raw RawProfile) (ChildProfile, []string) {
	var unknown []string
	seen := map[Accommodation]bool{}
	for _, tag := range raw.Accommodations {
		a, ok := ParseAccommodation(tag)
		if !ok {
			unknown = append(unknown, tag)
			continue
		}
		seen[a] = true
	}
	// keep vocabulary order so equal sets produce equal profiles
	accs := lo.Filter(Accommodations, func(a Accommodation, _ int) bool { return seen[a] })

	p := ChildProfile{
		GradeLevel:     strings.TrimSpace(raw.GradeLevel),
		Language:       ParseLanguage(raw.Language),
		ReadingLevel:   strings.TrimSpace(raw.ReadingLevel),
		Accommodations: accs,
		TextToSpeech:   raw.TextToSpeech,
	}
	return p.WithDefaults(), unknown
}

// WithDefaults fills missing fields with safe defaults.
func (p ChildProfile) WithDefaults() ChildProfile {
	if p.GradeLevel == "" {
		p.GradeLevel = DefaultGradeLevel
	}
	if p.Language != Spanish {
		p.Language = English
	}
	if p.ReadingLevel == "" {
		p.ReadingLevel = DefaultReadingLevel
	}
	return p
}

// Has reports whether the profile carries the accommodation.
func (p ChildProfile) Has(a Accommodation) bool {
	return lo.Contains(p.Accommodations, a)
}

// WantsLiteralLanguage reports whether idioms and metaphors must be avoided.
func (p ChildProfile) WantsLiteralLanguage() bool {
	return p.Has(AutismSupport) || p.Has(LiteralLanguagePreference)
}
