// Package session persists the in-progress annotation state to a single
// recovery file so an interrupted run resumes where it stopped.
//
// The recovery file is one mutable JSON document, overwritten after
// every user-visible mutation; no history is kept. Losing it costs at
// most the latest keystroke batch, never a whole paper.
package session

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/papermark/internal/atomicfile"
	"github.com/roach88/papermark/internal/review"
)

// State is the resumable annotation state: exactly one active paper and
// its draft. Owned exclusively by the running process.
type State struct {
	SessionID      string       `json:"session_id"`
	CurrentPaperID string       `json:"current_paper_id"`
	Draft          review.Draft `json:"draft"`
}

// NewState starts a fresh session on the given paper with an empty
// draft and a newly minted session id.
func NewState(paperID string) State {
	return State{
		SessionID:      uuid.NewString(),
		CurrentPaperID: paperID,
		Draft:          review.Draft{},
	}
}

// Store reads and writes the recovery file.
type Store struct {
	path string
}

// NewStore creates a store for the recovery file at path.
func NewStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("recovery file path is required")
	}
	return &Store{path: path}, nil
}

// Path returns the recovery file location.
func (s *Store) Path() string {
	return s.path
}

// Save overwrites the recovery file with the given state. The write is
// atomic and durable; a crash mid-save leaves the previous state intact.
func (s *Store) Save(st State) error {
	if st.CurrentPaperID == "" {
		return errors.New("save session: current paper id is required")
	}
	if st.Draft == nil {
		st.Draft = review.Draft{}
	}
	if err := atomicfile.WriteJSON(s.path, st, 0o644); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load reads the recovery file.
//
// Returns ok=false when no resumable state exists: the file is absent
// (err nil) or unreadable/corrupt (err carries the reason, for logging).
// Corruption is recovered locally — the caller starts fresh — and never
// halts startup.
func (s *Store) Load() (State, bool, error) {
	var st State
	if err := atomicfile.ReadJSONStrict(s.path, &st); err != nil {
		if os.IsNotExist(err) {
			return State{}, false, nil
		}
		return State{}, false, fmt.Errorf("recovery file unreadable: %w", err)
	}
	if st.CurrentPaperID == "" {
		return State{}, false, errors.New("recovery file has no current paper id")
	}
	if st.Draft == nil {
		st.Draft = review.Draft{}
	}
	return st, true, nil
}

// Clear removes the recovery file. Called once every paper is finished;
// a missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
