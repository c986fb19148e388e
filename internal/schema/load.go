package schema

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed questionnaire.cue
var questionnaireCUE string

// Error code constants for questionnaire loading.
const (
	ErrCodeSchemaRead      = "E101" // File missing or unreadable
	ErrCodeSchemaParse     = "E102" // YAML parse failure or unknown field
	ErrCodeSchemaViolation = "E103" // CUE contract violation
	ErrCodeDuplicateID     = "E104" // Duplicate question id
	ErrCodeBadSentinel     = "E105" // Sentinel misuse (e.g. Discussion needed without has_discussion)
)

// LoadError represents a fatal questionnaire loading failure.
// Schema errors halt startup per the error taxonomy: a partial UI with
// undefined fields is never presented.
type LoadError struct {
	Code    string
	Path    string
	Message string
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads, parses, and validates a questionnaire file.
//
// The file is YAML (a JSON document is also accepted, being a YAML
// subset). Decoding is strict: unknown fields are rejected so typos like
// "option:" vs "options:" fail loudly instead of silently dropping data.
// The decoded document is then unified against the embedded
// #Questionnaire CUE definition, followed by Go-side checks CUE cannot
// express (id uniqueness, sentinel placement).
func Load(path string) (*Questionnaire, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeSchemaRead, Path: path, Message: fmt.Sprintf("reading questionnaire: %v", err)}
	}

	var q Questionnaire
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields
	if err := dec.Decode(&q); err != nil {
		return nil, &LoadError{Code: ErrCodeSchemaParse, Path: path, Message: fmt.Sprintf("parsing questionnaire: %v", err)}
	}

	if err := validateCUE(&q); err != nil {
		return nil, &LoadError{Code: ErrCodeSchemaViolation, Path: path, Message: err.Error()}
	}

	if err := validateGo(&q); err != nil {
		loadErr := err.(*LoadError)
		loadErr.Path = path
		return nil, loadErr
	}

	stripMultipleMarkers(&q)

	return &q, nil
}

// validateCUE unifies the decoded document with #Questionnaire.
func validateCUE(q *Questionnaire) error {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileString(questionnaireCUE)
	if err := schemaVal.Err(); err != nil {
		return fmt.Errorf("internal: compiling questionnaire contract: %w", err)
	}

	def := schemaVal.LookupPath(cue.ParsePath("#Questionnaire"))
	if !def.Exists() {
		return fmt.Errorf("internal: #Questionnaire definition not found")
	}

	doc := ctx.Encode(q)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("encoding questionnaire: %w", err)
	}

	unified := def.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return err
	}

	return nil
}

// validateGo applies checks the CUE contract cannot express.
func validateGo(q *Questionnaire) error {
	seen := make(map[string]bool, len(q.Questions))
	for _, def := range q.Questions {
		if seen[def.ID] {
			return &LoadError{
				Code:    ErrCodeDuplicateID,
				Message: fmt.Sprintf("duplicate question id %q", def.ID),
			}
		}
		seen[def.ID] = true

		// "Discussion needed" in an option list only has meaning on a
		// question that carries discussion text. Treat the mismatch as a
		// misconfigured schema, not a runtime condition.
		if !def.HasDiscussion {
			for _, opt := range def.Options {
				if opt == DiscussionNeeded {
					return &LoadError{
						Code:    ErrCodeBadSentinel,
						Message: fmt.Sprintf("question %q offers %q but has_discussion is false", def.ID, DiscussionNeeded),
					}
				}
			}
		}
	}
	return nil
}

// stripMultipleMarkers converts the "Multiple" marker entry in option
// lists into the Multiple flag and removes it from the rendered options.
func stripMultipleMarkers(q *Questionnaire) {
	for i := range q.Questions {
		def := &q.Questions[i]
		kept := def.Options[:0]
		for _, opt := range def.Options {
			if opt == MultipleMarker {
				def.Multiple = true
				continue
			}
			kept = append(kept, opt)
		}
		def.Options = kept
	}
}
