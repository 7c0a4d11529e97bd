package model

// SourceType says where an answer's substance came from.
type SourceType string

const (
	SourceWebSearch        SourceType = "web_search"
	SourceGeneralKnowledge SourceType = "general_knowledge"
	SourceCurated          SourceType = "curated_content"
)

// SourceReference attributes part of an answer.
type SourceReference struct {
	Title         string     `json:"title"`
	Type          SourceType `json:"type"`
	Query         string     `json:"query,omitempty"`
	CitationIndex int        `json:"citation_index,omitempty"`
	Subject       Subject    `json:"subject,omitempty"`
	Verified      bool       `json:"verified"`
}

// ModelIDError marks answers produced after a generation failure.
const ModelIDError = "error"

// AlertCrisis marks answers that need adult intervention.
const AlertCrisis = "crisis"

// Usage aggregates model token counters and estimated cost for one turn.
type Usage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	CostUSD          float64 `json:"cost_usd"`
}

// Answer is what the pipeline hands back for every question.
type Answer struct {
	ConversationID    string             `json:"conversation_id"`
	Text              string             `json:"text"`
	Language          Language           `json:"language"`
	QuestionType      QuestionType       `json:"question_type,omitempty"`
	SourceType        SourceType         `json:"source_type"`
	SourceLabel       string             `json:"source_label"`
	HasCuratedContent bool               `json:"has_curated_content"`
	Sources           []SourceReference  `json:"source_references"`
	ModelID           string             `json:"model_used"`
	DepthLevel        int                `json:"tutoring_depth_level"`
	MaxDepthReached   bool               `json:"max_depth_reached"`
	FollowUpOffered   bool               `json:"follow_up_offered"`
	FollowUpQuestions []string           `json:"follow_up_questions"`
	NeedsIntervention bool               `json:"needs_intervention"`
	AlertType         string             `json:"alert_type,omitempty"`
	Blocked           bool               `json:"blocked"`
	Folder            string             `json:"folder"`
	State             ConversationState  `json:"state"`
	Usage             Usage              `json:"usage"`
	Failure           *GenerationFailure `json:"failure,omitempty"`
}
