package model

import (
	"github.com/cloudwego/eino/schema"
)

// SafetyVerdict is the outcome of the input gate.
type SafetyVerdict struct {
	Safe              bool
	Reason            string
	NeedsIntervention bool
	// ParentBlocked is set when a parent keyword, not the child safety filter, matched.
	ParentBlocked bool
}

// TutorState stores per-invocation state for the tutoring graph.
// Concurrency model:
//   - Registered as graph local state via compose.WithGenLocalState; one per Invoke.
//   - Read and written only inside eino state handlers or compose.ProcessState,
//     which serialise access, so no mutex is needed.
//   - Nothing in here outlives the invocation; persistence goes through repositories.
type TutorState struct {
	Input          TutorInput
	ConversationID string
	Depth          int
	Prior          ConversationState
	Verdict        SafetyVerdict

	QuestionType QuestionType
	Strategy     ResponseStrategy
	Documents    []ContentDocument

	History              []*schema.Message // mutated only inside state handlers
	Sources              []SourceReference // harvested web search invocations
	UsedWebSearch        bool
	ToolCallCount        int
	ToolCallLimitReached bool
	ToolCallIDSeq        int

	ModelID string
	Failure *GenerationFailure
	Usage   Usage
}
