// Package annotate drives paper navigation: which paper is active, how
// edits reach the session store, and when the finish transition fires
// an export. The controller owns the session state explicitly — there
// are no ambient globals — and persists it after every mutation.
package annotate

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/papermark/internal/corpus"
	"github.com/roach88/papermark/internal/export"
	"github.com/roach88/papermark/internal/review"
	"github.com/roach88/papermark/internal/schema"
	"github.com/roach88/papermark/internal/session"
)

// Phase is the navigation state.
type Phase string

const (
	// PhaseNoPaper is the pre-Start state.
	PhaseNoPaper Phase = "no_paper"

	// PhaseInProgress means one paper is active with a live draft.
	PhaseInProgress Phase = "in_progress"

	// PhaseAllComplete is terminal: every corpus paper is finished.
	PhaseAllComplete Phase = "all_complete"
)

// Config assembles a Controller.
type Config struct {
	Questions *schema.Questionnaire
	Corpus    *corpus.Corpus
	Sessions  *session.Store
	Exporter  *export.Writer

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Now defaults to time.Now; injectable for deterministic tests.
	Now func() time.Time
}

// Controller is the single owner of the active annotation session.
type Controller struct {
	questions *schema.Questionnaire
	papers    *corpus.Corpus
	sessions  *session.Store
	exporter  *export.Writer
	log       *slog.Logger
	now       func() time.Time

	phase    Phase
	state    session.State
	finished map[string]bool
}

// New creates a controller in PhaseNoPaper; call Start to load state.
func New(cfg Config) (*Controller, error) {
	if cfg.Questions == nil || cfg.Corpus == nil || cfg.Sessions == nil || cfg.Exporter == nil {
		return nil, fmt.Errorf("annotate: questions, corpus, sessions, and exporter are all required")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		questions: cfg.Questions,
		papers:    cfg.Corpus,
		sessions:  cfg.Sessions,
		exporter:  cfg.Exporter,
		log:       log,
		now:       now,
		phase:     PhaseNoPaper,
		finished:  map[string]bool{},
	}, nil
}

// Start performs the loadCorpus transition: resume from the recovery
// file when it parses and still points at an unfinished corpus paper,
// otherwise begin at the first unfinished paper in corpus order.
//
// The export file is read to learn which papers previous runs already
// finished; a corrupt export file fails Start loudly rather than
// risking double annotation against results that cannot be merged.
func (c *Controller) Start() error {
	exported, err := c.exporter.Read()
	if err != nil {
		return err
	}
	for id, resp := range exported.Papers {
		if resp.Finished() {
			c.finished[id] = true
		}
	}

	st, ok, loadErr := c.sessions.Load()
	if loadErr != nil {
		c.log.Warn("recovery file unusable, starting fresh", "error", loadErr)
	}
	if ok {
		if _, exists := c.papers.Paper(st.CurrentPaperID); !exists {
			// Corpus changed between runs and the recovery file points
			// at a paper that no longer exists. The draft cannot be
			// ported to another paper; discard and restart.
			c.log.Warn("recovery file references unknown paper, starting fresh",
				"paper_id", st.CurrentPaperID)
		} else if c.finished[st.CurrentPaperID] {
			c.log.Warn("recovery file references an already finished paper, starting fresh",
				"paper_id", st.CurrentPaperID)
		} else {
			c.state = st
			c.phase = PhaseInProgress
			c.log.Info("session resumed", "paper_id", st.CurrentPaperID,
				"answered", len(st.Draft))
			return nil
		}
	}

	next, found := c.nextUnfinished("")
	if !found {
		c.phase = PhaseAllComplete
		return c.sessions.Clear()
	}

	c.state = session.NewState(next)
	c.phase = PhaseInProgress
	if err := c.sessions.Save(c.state); err != nil {
		return err
	}
	c.log.Info("session started", "paper_id", next)
	return nil
}

// Phase returns the current navigation state.
func (c *Controller) Phase() Phase {
	return c.phase
}

// CurrentPaper returns the active paper, or false outside PhaseInProgress.
func (c *Controller) CurrentPaper() (corpus.Paper, bool) {
	if c.phase != PhaseInProgress {
		return corpus.Paper{}, false
	}
	return c.papers.Paper(c.state.CurrentPaperID)
}

// Draft returns a copy of the active draft.
func (c *Controller) Draft() review.Draft {
	return c.state.Draft.Clone()
}

// SessionID returns the id of the running session, empty before Start.
func (c *Controller) SessionID() string {
	return c.state.SessionID
}

// SetAnswer records an answer for the active paper and persists the
// session. Called on every field edit; the current CanFinish result is
// returned so the caller can drive finish-button enablement without a
// second call. A record with no values and no discussion clears the
// answer.
func (c *Controller) SetAnswer(questionID string, rec review.AnswerRecord) (bool, []review.Violation, error) {
	if err := c.requireActive(); err != nil {
		return false, nil, err
	}
	if _, ok := c.questions.Question(questionID); !ok {
		return false, nil, &StateError{
			Code:    ErrCodeUnknownQuestion,
			Message: fmt.Sprintf("no question with id %q", questionID),
		}
	}

	if rec.Empty() && rec.Discussion == "" {
		delete(c.state.Draft, questionID)
	} else {
		c.state.Draft[questionID] = rec
	}

	if err := c.sessions.Save(c.state); err != nil {
		return false, nil, err
	}

	canFinish, violations := review.CanFinish(c.questions, c.state.Draft)
	return canFinish, violations, nil
}

// CanFinish re-evaluates the completion rules for the active draft.
func (c *Controller) CanFinish() (bool, []review.Violation) {
	if c.phase != PhaseInProgress {
		return false, nil
	}
	return review.CanFinish(c.questions, c.state.Draft)
}

// Finish marks the active paper complete and advances.
//
// Gated on the validation engine: when the draft is incomplete a
// *review.ValidationError naming the missing fields is returned and
// nothing changes. On success the finished response is exported
// immediately, then navigation moves to the next unfinished paper — or
// to PhaseAllComplete, which removes the recovery file.
func (c *Controller) Finish() error {
	if err := c.requireActive(); err != nil {
		return err
	}

	canFinish, violations := review.CanFinish(c.questions, c.state.Draft)
	if !canFinish {
		return &review.ValidationError{Violations: violations}
	}

	paperID := c.state.CurrentPaperID
	finishedAt := c.now().UTC()
	resp := review.PaperResponse{
		PaperID:    paperID,
		Status:     review.StatusFinished,
		Answers:    c.state.Draft.Clone(),
		SessionID:  c.state.SessionID,
		FinishedAt: &finishedAt,
	}
	if err := c.exporter.Upsert(map[string]review.PaperResponse{paperID: resp}); err != nil {
		return err
	}
	c.finished[paperID] = true
	c.log.Info("paper finished", "paper_id", paperID)

	next, found := c.nextUnfinished(paperID)
	if !found {
		c.phase = PhaseAllComplete
		c.state.Draft = review.Draft{}
		return c.sessions.Clear()
	}

	c.state = session.State{
		SessionID:      c.state.SessionID,
		CurrentPaperID: next,
		Draft:          review.Draft{},
	}
	return c.sessions.Save(c.state)
}

// Exit performs the exit transition: persist the session and flush the
// current (possibly incomplete) draft to the export file as
// in_progress. Safe to call repeatedly and in any phase.
func (c *Controller) Exit() error {
	if c.phase != PhaseInProgress {
		return nil
	}
	if err := c.sessions.Save(c.state); err != nil {
		return err
	}
	return c.ExportCurrent()
}

// ExportCurrent upserts the active draft as an in_progress response —
// the explicit export action. An empty draft exports nothing: responses
// are created lazily on first edit.
func (c *Controller) ExportCurrent() error {
	if c.phase != PhaseInProgress || len(c.state.Draft) == 0 {
		return nil
	}
	resp := review.PaperResponse{
		PaperID:   c.state.CurrentPaperID,
		Status:    review.StatusInProgress,
		Answers:   c.state.Draft.Clone(),
		SessionID: c.state.SessionID,
	}
	return c.exporter.Upsert(map[string]review.PaperResponse{c.state.CurrentPaperID: resp})
}

// Progress summarizes corpus-wide completion.
type Progress struct {
	Total     int    `json:"total"`
	Finished  int    `json:"finished"`
	Remaining int    `json:"remaining"`
	Current   string `json:"current_paper_id,omitempty"`
}

// Progress reports how far through the corpus the review is.
func (c *Controller) Progress() Progress {
	p := Progress{Total: len(c.papers.Papers)}
	for _, paper := range c.papers.Papers {
		if c.finished[paper.ID] {
			p.Finished++
		}
	}
	p.Remaining = p.Total - p.Finished
	if c.phase == PhaseInProgress {
		p.Current = c.state.CurrentPaperID
	}
	return p
}

// nextUnfinished returns the first unfinished paper after the given id
// in corpus order, wrapping to catch papers skipped earlier. An empty
// after starts from the beginning.
func (c *Controller) nextUnfinished(after string) (string, bool) {
	start := 0
	if after != "" {
		start = c.papers.Index(after) + 1
	}
	n := len(c.papers.Papers)
	for i := 0; i < n; i++ {
		p := c.papers.Papers[(start+i)%n]
		if !c.finished[p.ID] {
			return p.ID, true
		}
	}
	return "", false
}

func (c *Controller) requireActive() error {
	switch c.phase {
	case PhaseInProgress:
		return nil
	case PhaseAllComplete:
		return &StateError{Code: ErrCodeAllComplete, Message: "all papers are finished"}
	default:
		return &StateError{Code: ErrCodeNotStarted, Message: "controller not started"}
	}
}
