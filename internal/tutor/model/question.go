package model

// QuestionType is the semantic category of a question. Every question maps to exactly one.
type QuestionType string

const (
	Literacy         QuestionType = "literacy"
	RealTime         QuestionType = "real_time"
	GeneralKnowledge QuestionType = "general_knowledge"
	Math             QuestionType = "math"
	OffTopic         QuestionType = "off_topic"
)

// QuestionTypes lists every classification value.
var QuestionTypes = []QuestionType{Literacy, RealTime, GeneralKnowledge, Math, OffTopic}

// ResponseStrategy is the generation policy for a question type.
type ResponseStrategy struct {
	PromptFragment string
	Temperature    float32
	SearchEnabled  bool
}

const (
	MinDepth = 1
	MaxDepth = 3
)

// ClampDepth limits a depth level to [MinDepth, MaxDepth].
func ClampDepth(d int) int {
	if d < MinDepth {
		return MinDepth
	}
	if d > MaxDepth {
		return MaxDepth
	}
	return d
}

// TutorInput is the single inbound request to the pipeline.
type TutorInput struct {
	// ConversationID is opaque; empty starts a new conversation.
	ConversationID        string       `json:"conversation_id,omitempty"`
	Question              string       `json:"text"`
	CurrentDepth          int          `json:"current_depth"`
	Profile               ChildProfile `json:"profile"`
	// ParentBlockedKeywords come from the parent's content preferences.
	ParentBlockedKeywords []string     `json:"parent_blocked_keywords,omitempty"`
}
