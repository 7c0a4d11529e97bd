// Package safety screens child input and model output.
//
// The input policy is strict: any blocklisted keyword or instruction-seeking
// pattern blocks the question. The output policy is narrower because
// educational answers legitimately mention topics such as historical wars.
package safety

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"
)

const (
	ReasonSafe              = "safe"
	ReasonApproved          = "approved"
	ReasonSuspiciousPattern = "suspicious_pattern"
	reasonInappropriate     = "inappropriate_content"
	reasonOutputUnsafe      = "output_unsafe"
	reasonParentBlocked     = "parent_blocked"
)

var inputBlocklist = []string{
	"violence", "weapon", "blood", "kill", "murder",
	"sexual", "porn", "nude", "sex",
	"drug", "alcohol", "cigarette", "tobacco",
	"suicide", "self-harm", "cutting",
	"hate speech", "racist", "discriminat",
}

var inputPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(how (do i |to |can i )?make|build)\s+(a |an )?(bomb|weapon|explosive)s?\b`),
	regexp.MustCompile(`\b(buy|purchase)\s+(drugs|alcohol)`),
	regexp.MustCompile(`\bhurt\s+(myself|yourself|someone)`),
}

var outputBlocklist = []string{
	"porn", "pornograph", "nude photo", "explicit sex", "sexual intercourse",
	"how to make meth", "how to cook meth", "how to make drugs",
}

var outputPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bhere'?s how to\s+(hurt|harm|kill)\b`),
	regexp.MustCompile(`\bsteps to\s+(commit suicide|self-harm|kill yourself)`),
}

var distressMarkers = []string{"hurt myself", "kill myself", "suicide"}

// Filter applies the child safety policy. The zero value is ready to use and
// safe for concurrent use.
type Filter struct{}

// NewFilter returns the default filter.
func NewFilter() *Filter {
	return &Filter{}
}

// CheckInput classifies raw child input. Unmatched text is always safe.
func (f *Filter) CheckInput(text string) (bool, string) {
	lower := strings.ToLower(text)

	if kw, ok := lo.Find(inputBlocklist, func(k string) bool { return strings.Contains(lower, k) }); ok {
		return false, fmt.Sprintf("%s:%s", reasonInappropriate, kw)
	}
	if lo.ContainsBy(inputPatterns, func(re *regexp.Regexp) bool { return re.MatchString(lower) }) {
		return false, ReasonSuspiciousPattern
	}
	return true, ReasonSafe
}

// ValidateOutput re-checks model output before it reaches the child. The
// policy is the same for every reading level; readingLevel never loosens it.
func (f *Filter) ValidateOutput(text, readingLevel string) (bool, string) {
	lower := strings.ToLower(text)

	if kw, ok := lo.Find(outputBlocklist, func(k string) bool { return strings.Contains(lower, k) }); ok {
		return false, fmt.Sprintf("%s:%s", reasonOutputUnsafe, kw)
	}
	if lo.ContainsBy(outputPatterns, func(re *regexp.Regexp) bool { return re.MatchString(lower) }) {
		return false, fmt.Sprintf("%s:%s", reasonOutputUnsafe, ReasonSuspiciousPattern)
	}
	return true, ReasonApproved
}

// NeedsIntervention reports whether blocked text also carries distress markers.
func (f *Filter) NeedsIntervention(text string) bool {
	lower := strings.ToLower(text)
	return lo.ContainsBy(distressMarkers, func(m string) bool { return strings.Contains(lower, m) })
}

// CheckParentBlocklist matches parent-configured keywords case-insensitively.
func (f *Filter) CheckParentBlocklist(text string, blocked []string) (bool, string) {
	lower := strings.ToLower(text)
	for _, kw := range blocked {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(lower, kw) {
			return false, fmt.Sprintf("%s:%s", reasonParentBlocked, kw)
		}
	}
	return true, ReasonSafe
}
