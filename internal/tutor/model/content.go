package model

import "context"

// Subject of a curated document.
type Subject string

const (
	SubjectMath      Subject = "math"
	SubjectScience   Subject = "science"
	SubjectHistory   Subject = "history"
	SubjectEnglish   Subject = "english"
	SubjectGeography Subject = "geography"
	SubjectGeneral   Subject = "general"
)

// GradeBand is the coarse grade grouping of a curated document.
type GradeBand string

const (
	Elementary GradeBand = "elementary"
	Middle     GradeBand = "middle"
	High       GradeBand = "high"
)

const (
	RelevanceHigh   = "high"
	RelevanceMedium = "medium"
)

// ContentDocument is a curated passage. Relevance and Score are per-query.
type ContentDocument struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Subject   Subject   `json:"subject"`
	GradeBand GradeBand `json:"grade_level"`
	Topic     string    `json:"topic"`
	Content   string    `json:"content"`
	Relevance string    `json:"relevance,omitempty"`
	Score     float64   `json:"relevance_score,omitempty"`
}

// ContentQuery filters a content store search. Zero values mean "no filter".
type ContentQuery struct {
	Subject   Subject
	GradeBand GradeBand
	Text      string
	Limit     int
}

// ContentStore is the read-only curated content collaborator.
type ContentStore interface {
	Search(ctx context.Context, q ContentQuery) ([]ContentDocument, error)
}

// Retriever finds curated documents for a query, best first, at most topK.
// It never fails: an absent or broken backend yields an empty slice.
type Retriever interface {
	Retrieve(ctx context.Context, query, gradeLevel string, topK int) []ContentDocument
}
