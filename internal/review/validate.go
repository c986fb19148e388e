package review

import (
	"fmt"
	"strings"

	"github.com/roach88/papermark/internal/schema"
)

// Rule name constants, reported in violations.
const (
	RuleRequired   = "required"
	RuleDiscussion = "discussion"
)

// Violation identifies one reason a draft cannot be finished.
type Violation struct {
	QuestionID string `json:"question_id"`
	Rule       string `json:"rule"`
	Message    string `json:"message"`
}

// ValidationError carries the full violation list for a rejected finish.
// Validation errors are advisory: they block the finish transition and
// nothing else.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return fmt.Sprintf("cannot finish: %s", strings.Join(msgs, "; "))
}

// CompletionRule checks one question's answer against one policy.
// Returning nil means the rule passes. rec is the zero AnswerRecord when
// the draft has no entry for the question.
//
// Rules compose: adding a question-type-specific policy means appending
// to CompletionRules, not branching per field elsewhere.
type CompletionRule func(q schema.QuestionDefinition, rec AnswerRecord) *Violation

// CompletionRules is the policy list applied by CanFinish, in order.
var CompletionRules = []CompletionRule{
	requiredRule,
	discussionRule,
}

// requiredRule: every required question needs a non-empty value.
func requiredRule(q schema.QuestionDefinition, rec AnswerRecord) *Violation {
	if !q.Required || !rec.Empty() {
		return nil
	}
	return &Violation{
		QuestionID: q.ID,
		Rule:       RuleRequired,
		Message:    fmt.Sprintf("%q is required", q.Label),
	}
}

// discussionRule: a selected "Discussion needed" value demands non-empty
// discussion text. This is a conditional requirement layered on top of
// the static one — it applies whether or not the question is required.
// Questions without has_discussion never trigger it; a "Discussion
// needed" value on such a question is a schema misconfiguration (and is
// rejected at load), not a runtime fault.
func discussionRule(q schema.QuestionDefinition, rec AnswerRecord) *Violation {
	if !q.HasDiscussion {
		return nil
	}
	if !rec.HasValue(schema.DiscussionNeeded) {
		return nil
	}
	if strings.TrimSpace(rec.Discussion) != "" {
		return nil
	}
	return &Violation{
		QuestionID: q.ID,
		Rule:       RuleDiscussion,
		Message:    fmt.Sprintf("%q is marked %q but has no discussion text", q.Label, schema.DiscussionNeeded),
	}
}

// CanFinish reports whether the draft is complete enough to mark the
// paper finished, and every violation otherwise. Pure: no side effects,
// cheap enough to re-evaluate on every field change.
func CanFinish(qs *schema.Questionnaire, draft Draft) (bool, []Violation) {
	var violations []Violation
	for _, q := range qs.Questions {
		rec := draft[q.ID] // zero record when absent
		for _, rule := range CompletionRules {
			if v := rule(q, rec); v != nil {
				violations = append(violations, *v)
			}
		}
	}
	return len(violations) == 0, violations
}
