package retrieval

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/nia-core/server/internal/tutor/model"
	logx "github.com/nia-core/server/pkg/logger"
)

// DefaultLSITopics is the latent space size used when none is configured.
const DefaultLSITopics = 100

const (
	// rankEpsilon drops singular values that are numerically zero.
	rankEpsilon = 1e-10
	// minScore excludes documents sharing nothing with the query.
	minScore = 1e-9
)

// LSIIndex ranks curated documents by cosine similarity in a latent topic
// space obtained from a truncated SVD of the term-document count matrix.
// It is immutable once built and safe for concurrent use.
type LSIIndex struct {
	docs  []model.ContentDocument
	terms map[string]int
	// proj is U_k^T, k x terms
	proj *mat.Dense
	// docVecs are the documents projected into the latent space
	docVecs []*mat.VecDense
	topics  int
}

// NewLSIIndex builds the index. An empty corpus, or one without any
// indexable token, yields an index that always returns nothing.
func NewLSIIndex(docs []model.ContentDocument, topics int) *LSIIndex {
	if topics <= 0 {
		topics = DefaultLSITopics
	}
	idx := &LSIIndex{docs: docs, terms: map[string]int{}}
	if len(docs) == 0 {
		logx.Warn().Msg("no documents to index")
		return idx
	}

	tokenized := make([][]string, len(docs))
	for j, d := range docs {
		tokenized[j] = Tokenize(d.Content)
		for _, tok := range tokenized[j] {
			if _, ok := idx.terms[tok]; !ok {
				idx.terms[tok] = len(idx.terms)
			}
		}
	}
	if len(idx.terms) == 0 {
		logx.Warn().Int("documents", len(docs)).Msg("corpus has no indexable terms")
		return idx
	}

	counts := mat.NewDense(len(idx.terms), len(docs), nil)
	for j, toks := range tokenized {
		for _, tok := range toks {
			i := idx.terms[tok]
			counts.Set(i, j, counts.At(i, j)+1)
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(counts, mat.SVDThin); !ok {
		logx.Error().Int("documents", len(docs)).Msg("lsi factorization failed")
		return idx
	}
	values := svd.Values(nil)
	rank := 0
	for _, v := range values {
		if v > rankEpsilon {
			rank++
		}
	}
	if rank == 0 {
		return idx
	}
	k := min(topics, rank)

	var u mat.Dense
	svd.UTo(&u)
	uk := u.Slice(0, len(idx.terms), 0, k)

	idx.proj = mat.DenseCopyOf(uk.T())
	idx.topics = k
	idx.docVecs = make([]*mat.VecDense, len(docs))
	for j := range docs {
		v := mat.NewVecDense(k, nil)
		v.MulVec(idx.proj, counts.ColView(j))
		idx.docVecs[j] = v
	}

	logx.Info().Int("documents", len(docs)).Int("terms", len(idx.terms)).Int("topics", k).Msg("lsi index built")
	return idx
}

// Topics is the latent dimension actually used.
func (x *LSIIndex) Topics() int {
	return x.topics
}

func (x *LSIIndex) Retrieve(_ context.Context, query, gradeLevel string, topK int) []model.ContentDocument {
	if x == nil || x.proj == nil || topK <= 0 {
		return nil
	}

	bow := mat.NewVecDense(len(x.terms), nil)
	hit := false
	for _, tok := range Tokenize(query) {
		if i, ok := x.terms[tok]; ok {
			bow.SetVec(i, bow.AtVec(i)+1)
			hit = true
		}
	}
	if !hit {
		return nil
	}
	q := mat.NewVecDense(x.topics, nil)
	q.MulVec(x.proj, bow)

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, 0, len(x.docVecs))
	for j, dv := range x.docVecs {
		ranked = append(ranked, scored{j, cosine(q, dv)})
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	candidates := ranked[:min(len(ranked), topK*2)]
	out := make([]model.ContentDocument, 0, topK)
	for _, c := range candidates {
		if c.score <= minScore {
			break
		}
		doc := x.docs[c.idx]
		if gradeLevel != "" && !GradeMatches(gradeLevel, doc.GradeBand) {
			continue
		}
		doc.Score = c.score
		out = append(out, doc)
		if len(out) >= topK {
			break
		}
	}
	return out
}

func cosine(a, b *mat.VecDense) float64 {
	na, nb := mat.Norm(a, 2), mat.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	s := mat.Dot(a, b) / (na * nb)
	if math.IsNaN(s) {
		return 0
	}
	return s
}
