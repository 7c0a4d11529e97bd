package retrieval

import (
	"context"

	logx "github.com/nia-core/server/pkg/logger"

	"github.com/nia-core/server/internal/tutor/model"
)

// KeywordRetriever filters a content store by detected subject and grade band.
type KeywordRetriever struct {
	store model.ContentStore
}

func NewKeywordRetriever(store model.ContentStore) *KeywordRetriever {
	return &KeywordRetriever{store: store}
}

func (r *KeywordRetriever) Retrieve(ctx context.Context, query, gradeLevel string, topK int) []model.ContentDocument {
	if r == nil || r.store == nil || topK <= 0 {
		return nil
	}

	subject, _ := DetectSubject(query)
	band := BandFor(gradeLevel)

	docs, err := r.store.Search(ctx, model.ContentQuery{
		Subject:   subject,
		GradeBand: band,
		Text:      query,
		Limit:     topK,
	})
	if err != nil {
		logx.Warn().Err(err).Str("subject", string(subject)).Str("grade_band", string(band)).Msg("content search failed, continuing without curated content")
		return nil
	}
	if len(docs) > topK {
		docs = docs[:topK]
	}

	out := make([]model.ContentDocument, len(docs))
	for i, d := range docs {
		if subject != "" && d.Subject == subject {
			d.Relevance = model.RelevanceHigh
		} else {
			d.Relevance = model.RelevanceMedium
		}
		out[i] = d
	}
	return out
}
