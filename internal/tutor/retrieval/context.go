package retrieval

import (
	"fmt"
	"strings"

	"github.com/nia-core/server/internal/tutor/model"
)

const (
	// DefaultContextMaxTokens bounds the curated block added to the user turn.
	DefaultContextMaxTokens = 3000
	previewChars            = 1500
	charsPerToken           = 4
	contextHeader           = "Here is relevant educational content from our curriculum:\n"
)

// BuildContext renders documents as a curriculum block for the model. Each
// document is previewed and sections stop once the token estimate would
// exceed maxTokens. No documents yields "".
func BuildContext(docs []model.ContentDocument, maxTokens int) string {
	if len(docs) == 0 {
		return ""
	}
	if maxTokens <= 0 {
		maxTokens = DefaultContextMaxTokens
	}

	var b strings.Builder
	b.WriteString(contextHeader)
	used := 0
	for i, d := range docs {
		section := fmt.Sprintf("\n--- Source %d: %s (%s - %s) ---\n%s\n",
			i+1, d.Title, d.Subject, d.GradeBand, preview(d.Content))
		tokens := len(section) / charsPerToken
		if used+tokens > maxTokens {
			break
		}
		b.WriteString(section)
		used += tokens
	}
	return b.String()
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewChars {
		return s
	}
	return string(r[:previewChars])
}
