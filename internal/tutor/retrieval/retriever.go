// Package retrieval finds curated educational passages for a question.
//
// Two backends share the model.Retriever contract: a keyword backend that
// filters a content store by subject and grade band, and an LSI backend over
// an in-memory corpus. Neither ever fails a request; problems surface as an
// empty result and a log line.
package retrieval

import (
	"fmt"
	"net/http"

	errx "github.com/nia-core/server/internal/core/error"
	"github.com/nia-core/server/internal/tutor/model"
)

// New selects the configured backend. The keyword backend needs store; the
// LSI backend indexes corpus.
func New(cfg model.RetrievalConfig, store model.ContentStore, corpus []model.ContentDocument) (model.Retriever, error) {
	switch cfg.Backend {
	case model.BackendKeyword, "":
		return NewKeywordRetriever(store), nil
	case model.BackendLSI:
		return NewLSIIndex(corpus, cfg.LSITopics), nil
	default:
		return nil, errx.New(fmt.Errorf("unknown retrieval backend %q", cfg.Backend), http.StatusBadRequest, errx.SystemErrorMessage)
	}
}
