// Package pipeline defines the aggregation pipeline representation shared by
// the generator, validator and execution engine, plus the static validator
// that gates every candidate before it may touch the store.
package pipeline

import (
	"encoding/json"
)

// Stage is one aggregation stage: a single-key document mapping an operator
// name to its arguments. Single-keyness is enforced by the validator, not the
// type, because stages arrive from untrusted model output.
type Stage map[string]any

// Operator returns the stage's operator name, or "" if the stage is not a
// single-key document.
func (s Stage) Operator() string {
	if len(s) != 1 {
		return ""
	}
	for op := range s {
		return op
	}
	return ""
}

// Pipeline is an ordered sequence of stages.
type Pipeline []Stage

// JSON renders the pipeline as compact JSON, for prompts and diagnostics.
func (p Pipeline) JSON() string {
	if len(p) == 0 {
		return "[]"
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// Candidate is a generated pipeline awaiting validation, tagged with the
// collection it targets and its generation attempt. Owned exclusively by one
// request's execution flow.
type Candidate struct {
	Collection string
	Stages     Pipeline

	// NormCount is the number of leading normalization stages. These were
	// produced deterministically from the catalog, not by the model, and
	// the validator holds them to a stricter standard.
	NormCount int

	// Attempt is the 1-based generation attempt that produced this
	// candidate.
	Attempt int
}

// Verdict is the validator's decision on one candidate.
type Verdict struct {
	Accepted   bool
	Reason     string
	StageIndex int // offending stage for rejections, -1 otherwise
}

// Accept returns an accepting verdict.
func Accept() Verdict {
	return Verdict{Accepted: true, StageIndex: -1}
}

// Reject returns a rejecting verdict naming the violation and the offending
// stage.
func Reject(reason string, stageIndex int) Verdict {
	return Verdict{Accepted: false, Reason: reason, StageIndex: stageIndex}
}
