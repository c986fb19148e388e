// Package corpus loads the fixed list of papers to annotate.
//
// The corpus is a CSV file with a header row. An "id" column is required
// and must be unique per row; "title" and "assignee" are recognized, and
// any other columns are preserved as opaque metadata. Row order defines
// paper order for the whole application.
package corpus

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Error code constants for corpus loading.
const (
	ErrCodeCorpusRead  = "E201" // File missing or unreadable
	ErrCodeCorpusParse = "E202" // Malformed CSV
	ErrCodeNoIDColumn  = "E203" // Header lacks an id column
	ErrCodeEmptyID     = "E204" // Row with empty id
	ErrCodeDuplicateID = "E205" // Duplicate paper id
	ErrCodeEmpty       = "E206" // No papers in file
)

// LoadError represents a fatal corpus loading failure.
type LoadError struct {
	Code    string
	Path    string
	Row     int // 1-based data row, 0 when not row-specific
	Message string
}

func (e *LoadError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s: %s: row %d: %s", e.Code, e.Path, e.Row, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Paper is one item of the review corpus. Immutable after load.
type Paper struct {
	ID       string            `json:"id"`
	Title    string            `json:"title,omitempty"`
	Assignee string            `json:"assignee,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Corpus is the ordered paper list.
type Corpus struct {
	Papers []Paper
}

// Paper returns the paper with the given id, or false.
func (c *Corpus) Paper(id string) (Paper, bool) {
	for _, p := range c.Papers {
		if p.ID == id {
			return p, true
		}
	}
	return Paper{}, false
}

// Index returns the position of the given paper id, or -1.
func (c *Corpus) Index(id string) int {
	for i, p := range c.Papers {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// IDs returns all paper ids in corpus order.
func (c *Corpus) IDs() []string {
	ids := make([]string, len(c.Papers))
	for i, p := range c.Papers {
		ids[i] = p.ID
	}
	return ids
}

// Load reads and validates a corpus CSV file.
func Load(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeCorpusRead, Path: path, Message: fmt.Sprintf("reading corpus: %v", err)}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeCorpusParse, Path: path, Message: fmt.Sprintf("parsing corpus: %v", err)}
	}
	if len(records) == 0 {
		return nil, &LoadError{Code: ErrCodeEmpty, Path: path, Message: "corpus file has no header row"}
	}

	header := records[0]
	idCol, titleCol, assigneeCol := -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "id":
			idCol = i
		case "title":
			titleCol = i
		case "assignee":
			assigneeCol = i
		}
	}
	if idCol < 0 {
		return nil, &LoadError{Code: ErrCodeNoIDColumn, Path: path, Message: fmt.Sprintf("header %v has no id column", header)}
	}

	c := &Corpus{}
	seen := make(map[string]bool, len(records)-1)
	for row, rec := range records[1:] {
		id := strings.TrimSpace(rec[idCol])
		if id == "" {
			return nil, &LoadError{Code: ErrCodeEmptyID, Path: path, Row: row + 1, Message: "empty paper id"}
		}
		if seen[id] {
			return nil, &LoadError{Code: ErrCodeDuplicateID, Path: path, Row: row + 1, Message: fmt.Sprintf("duplicate paper id %q", id)}
		}
		seen[id] = true

		p := Paper{ID: id}
		for i, val := range rec {
			switch i {
			case idCol:
				// already taken
			case titleCol:
				p.Title = val
			case assigneeCol:
				p.Assignee = val
			default:
				if i < len(header) && strings.TrimSpace(val) != "" {
					if p.Metadata == nil {
						p.Metadata = make(map[string]string)
					}
					p.Metadata[strings.TrimSpace(header[i])] = val
				}
			}
		}
		c.Papers = append(c.Papers, p)
	}

	if len(c.Papers) == 0 {
		return nil, &LoadError{Code: ErrCodeEmpty, Path: path, Message: "corpus has no papers"}
	}

	return c, nil
}
