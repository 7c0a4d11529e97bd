package model

import "fmt"

// FailureKind classifies why generation did not produce an answer.
type FailureKind string

const (
	FailureTimeout       FailureKind = "timeout"
	FailureCanceled      FailureKind = "canceled"
	FailureProvider      FailureKind = "provider"
	FailureEmptyResponse FailureKind = "empty_response"
)

// GenerationFailure is the failure arm of a generation result.
type GenerationFailure struct {
	Kind   FailureKind `json:"kind"`
	Detail string      `json:"detail"`
}

func (f *GenerationFailure) Error() string {
	return fmt.Sprintf("generation %s: %s", f.Kind, f.Detail)
}
