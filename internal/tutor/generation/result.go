// Package generation holds the orchestration helpers around the tutor model
// call: failure classification, source labels and web search harvesting.
package generation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/nia-core/server/internal/tutor/model"
)

var apologies = map[model.Language]string{
	model.English: "I'm sorry, I'm having trouble thinking right now. Could you please try asking again?",
	model.Spanish: "Lo siento, tengo problemas para pensar en este momento. ¿Podrías intentar preguntar de nuevo?",
}

// Apology is the localized reply used when generation fails.
func Apology(lang model.Language) string {
	if a, ok := apologies[lang]; ok {
		return a
	}
	return apologies[model.English]
}

// Classify converts a generation error into a tagged failure. A nil error
// with an empty reply is an empty_response failure.
func Classify(err error, reply *schema.Message) *model.GenerationFailure {
	switch {
	case err == nil && reply != nil && (strings.TrimSpace(reply.Content) != "" || len(reply.ToolCalls) > 0):
		return nil
	case err == nil:
		return &model.GenerationFailure{Kind: model.FailureEmptyResponse, Detail: "model returned no content"}
	case errors.Is(err, context.DeadlineExceeded):
		return &model.GenerationFailure{Kind: model.FailureTimeout, Detail: err.Error()}
	case errors.Is(err, context.Canceled):
		return &model.GenerationFailure{Kind: model.FailureCanceled, Detail: err.Error()}
	default:
		return &model.GenerationFailure{Kind: model.FailureProvider, Detail: err.Error()}
	}
}

type searchArgs struct {
	Query string `json:"query"`
}

// HarvestSearches turns search tool invocations into verified source
// references. Citation indexes continue from startIndex.
func HarvestSearches(calls []schema.ToolCall, toolName string, startIndex int) []model.SourceReference {
	var refs []model.SourceReference
	for _, c := range calls {
		if c.Function.Name != toolName {
			continue
		}
		var args searchArgs
		if err := json.Unmarshal([]byte(c.Function.Arguments), &args); err != nil || strings.TrimSpace(args.Query) == "" {
			continue
		}
		startIndex++
		refs = append(refs, model.SourceReference{
			Title:         "Web search: " + args.Query,
			Type:          model.SourceWebSearch,
			Query:         args.Query,
			CitationIndex: startIndex,
			Verified:      true,
		})
	}
	return refs
}

// CuratedSources describes retrieved documents as source references.
func CuratedSources(docs []model.ContentDocument) []model.SourceReference {
	refs := make([]model.SourceReference, 0, len(docs))
	for _, d := range docs {
		refs = append(refs, model.SourceReference{
			Title:    d.Title,
			Type:     model.SourceCurated,
			Subject:  d.Subject,
			Verified: true,
		})
	}
	return refs
}

// Folder is the subject of the best curated document, else "General".
func Folder(docs []model.ContentDocument) string {
	if len(docs) == 0 || docs[0].Subject == "" {
		return "General"
	}
	s := string(docs[0].Subject)
	return strings.ToUpper(s[:1]) + s[1:]
}
