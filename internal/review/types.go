// Package review holds the answer data model and the validation engine:
// completion rules that gate the finish transition, and sanity-check
// rules evaluated over exported responses.
package review

import (
	"strings"
	"time"
)

// AnswerRecord is the answer to a single question. Choice questions
// store one or more selected option values (several only when the
// question allows multiple selection); text questions store their entry
// as the single value. Selected values may carry a detail suffix, e.g.
// "Other: grey literature".
type AnswerRecord struct {
	Values     []string `json:"values,omitempty"`
	Discussion string   `json:"discussion,omitempty"`
}

// Empty reports whether the record has no non-blank selected value.
func (r AnswerRecord) Empty() bool {
	for _, v := range r.Values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// HasValue reports whether value is selected, using normalized
// prefix-aware matching (see MatchesValue).
func (r AnswerRecord) HasValue(value string) bool {
	return MatchesValue(r.Values, value)
}

// Draft maps question ids to in-progress answers for one paper.
type Draft map[string]AnswerRecord

// Clone returns a deep copy of the draft.
func (d Draft) Clone() Draft {
	if d == nil {
		return nil
	}
	out := make(Draft, len(d))
	for id, rec := range d {
		cp := rec
		cp.Values = append([]string(nil), rec.Values...)
		out[id] = cp
	}
	return out
}

// Status is the lifecycle state of a paper's response.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

// PaperResponse is the complete answer set for one paper.
// Created lazily on first edit; one per paper.
type PaperResponse struct {
	PaperID    string     `json:"paper_id"`
	Status     Status     `json:"status"`
	Answers    Draft      `json:"answers"`
	SessionID  string     `json:"session_id,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Finished reports whether the response has been marked complete.
func (p PaperResponse) Finished() bool {
	return p.Status == StatusFinished
}
