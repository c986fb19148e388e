package schema

import "strings"

// QuestionType identifies how a question is rendered and answered.
type QuestionType string

const (
	// TypeCheckbox is a choice question rendered as checkboxes.
	// With Multiple set, several options may be selected at once.
	TypeCheckbox QuestionType = "checkbox"

	// TypeRadio is a single-choice question.
	TypeRadio QuestionType = "radio"

	// TypeText is a free-text question with no fixed options.
	TypeText QuestionType = "text"
)

// Sentinel option values. Selected values may carry a detail suffix after
// a colon, e.g. "Other: grey literature". Matching against sentinels is
// prefix-aware (see review.MatchesValue).
const (
	// DiscussionNeeded marks an answer that requires accompanying
	// discussion text before the paper can be finished.
	DiscussionNeeded = "Discussion needed"

	// OtherOption marks a free-form answer outside the fixed options.
	OtherOption = "Other"

	// MultipleMarker, when present in an option list, enables
	// multi-select for that question. It is stripped from the rendered
	// options during load.
	MultipleMarker = "Multiple"
)

// QuestionDefinition describes a single review question.
// Immutable after load.
type QuestionDefinition struct {
	ID            string       `yaml:"id" json:"id"`
	Label         string       `yaml:"label" json:"label"`
	Type          QuestionType `yaml:"type" json:"type"`
	Required      bool         `yaml:"required,omitempty" json:"required"`
	HasDiscussion bool         `yaml:"has_discussion,omitempty" json:"has_discussion"`
	Multiple      bool         `yaml:"multiple,omitempty" json:"multiple"`
	Options       []string     `yaml:"options,omitempty" json:"options,omitempty"`
}

// IsChoice reports whether the question has a fixed option list.
func (q QuestionDefinition) IsChoice() bool {
	return q.Type == TypeCheckbox || q.Type == TypeRadio
}

// HasOption reports whether value is one of the question's options,
// comparing option prefixes before any ":" detail separator.
func (q QuestionDefinition) HasOption(value string) bool {
	prefix := value
	if i := strings.Index(value, ":"); i >= 0 {
		prefix = strings.TrimSpace(value[:i])
	}
	for _, opt := range q.Options {
		if opt == value || opt == prefix {
			return true
		}
	}
	return false
}

// Questionnaire is the ordered set of review questions.
// Immutable after load; ordering = definition order in the source file.
type Questionnaire struct {
	Title     string               `yaml:"title,omitempty" json:"title,omitempty"`
	Questions []QuestionDefinition `yaml:"questions" json:"questions"`
}

// Question returns the definition with the given id, or false.
func (s *Questionnaire) Question(id string) (QuestionDefinition, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return QuestionDefinition{}, false
}

// RequiredIDs returns the ids of all required questions, in order.
func (s *Questionnaire) RequiredIDs() []string {
	var ids []string
	for _, q := range s.Questions {
		if q.Required {
			ids = append(ids, q.ID)
		}
	}
	return ids
}
