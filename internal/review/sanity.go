package review

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Answer attributes addressable by sanity rules.
const (
	AttrValue      = "value"
	AttrDiscussion = "discussion"
)

// SanityRule is one conditional consistency check over an exported
// response: when the condition holds, the assertion must hold too.
//
// Rules live in an external YAML (or JSON) file so reviewers can add
// cross-question checks without code changes, e.g. "when rq5 is marked
// Discussion needed, rq5's discussion must not equal TODO".
type SanityRule struct {
	ID      string      `yaml:"id" json:"id"`
	When    SanityCond  `yaml:"when" json:"when"`
	Then    SanityCheck `yaml:"then" json:"then"`
	Message string      `yaml:"message,omitempty" json:"message,omitempty"`
}

// SanityCond selects the responses a rule applies to.
type SanityCond struct {
	Question  string `yaml:"question" json:"question"`
	Attribute string `yaml:"attribute,omitempty" json:"attribute,omitempty"` // default: value
	Equals    string `yaml:"equals" json:"equals"`
}

// SanityCheck is the assertion applied when the condition matched.
// Exactly one of MustEqual / MustNotEqual is set.
type SanityCheck struct {
	Question     string  `yaml:"question" json:"question"`
	Attribute    string  `yaml:"attribute,omitempty" json:"attribute,omitempty"` // default: value
	MustEqual    *string `yaml:"must_equal,omitempty" json:"must_equal,omitempty"`
	MustNotEqual *string `yaml:"must_not_equal,omitempty" json:"must_not_equal,omitempty"`
}

// sanityFile accepts the wrapped form {rules: [...]}. A bare list is
// also accepted by LoadSanityRules.
type sanityFile struct {
	Rules []SanityRule `yaml:"rules"`
}

// LoadSanityRules reads a rule file. Decoding is strict; a malformed
// rule file is an error, never an empty rule set.
func LoadSanityRules(path string) ([]SanityRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sanity rules: %w", err)
	}

	// Bare list form first.
	var rules []SanityRule
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rules); err == nil {
		return validateRules(rules)
	}

	var wrapped sanityFile
	dec = yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&wrapped); err != nil {
		return nil, fmt.Errorf("parsing sanity rules: %w", err)
	}
	return validateRules(wrapped.Rules)
}

func validateRules(rules []SanityRule) ([]SanityRule, error) {
	for i, r := range rules {
		if r.When.Question == "" {
			return nil, fmt.Errorf("rule %d (%s): when.question is required", i, r.ID)
		}
		if r.Then.Question == "" {
			return nil, fmt.Errorf("rule %d (%s): then.question is required", i, r.ID)
		}
		if (r.Then.MustEqual == nil) == (r.Then.MustNotEqual == nil) {
			return nil, fmt.Errorf("rule %d (%s): then needs exactly one of must_equal or must_not_equal", i, r.ID)
		}
		if err := checkAttribute(r.When.Attribute); err != nil {
			return nil, fmt.Errorf("rule %d (%s): when: %w", i, r.ID, err)
		}
		if err := checkAttribute(r.Then.Attribute); err != nil {
			return nil, fmt.Errorf("rule %d (%s): then: %w", i, r.ID, err)
		}
	}
	return rules, nil
}

func checkAttribute(attr string) error {
	switch attr {
	case "", AttrValue, AttrDiscussion:
		return nil
	default:
		return fmt.Errorf("unknown attribute %q", attr)
	}
}

// attributeValues extracts the addressed attribute from a response.
func attributeValues(resp PaperResponse, question, attribute string) []string {
	rec, ok := resp.Answers[question]
	if !ok {
		return nil
	}
	if attribute == AttrDiscussion {
		if rec.Discussion == "" {
			return nil
		}
		return []string{rec.Discussion}
	}
	return rec.Values
}

// Check evaluates the rule against one response. A non-matching
// condition means the rule does not apply.
func (r SanityRule) Check(resp PaperResponse) (violated bool, message string) {
	condValues := attributeValues(resp, r.When.Question, r.When.Attribute)
	if !MatchesValue(condValues, r.When.Equals) {
		return false, ""
	}

	thenValues := attributeValues(resp, r.Then.Question, r.Then.Attribute)
	ok := true
	switch {
	case r.Then.MustEqual != nil:
		ok = MatchesValue(thenValues, *r.Then.MustEqual)
	case r.Then.MustNotEqual != nil:
		ok = !MatchesValue(thenValues, *r.Then.MustNotEqual)
	}
	if ok {
		return false, ""
	}

	if r.Message != "" {
		return true, r.Message
	}
	id := r.ID
	if id == "" {
		id = "<unnamed>"
	}
	return true, fmt.Sprintf("rule %q violated", id)
}

// CheckSanity runs all rules against a response and returns the
// human-readable violation messages, empty when all pass.
func CheckSanity(resp PaperResponse, rules []SanityRule) []string {
	var messages []string
	for _, r := range rules {
		if violated, msg := r.Check(resp); violated {
			messages = append(messages, msg)
		}
	}
	return messages
}
