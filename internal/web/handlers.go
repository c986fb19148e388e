package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roach88/papermark/internal/annotate"
	"github.com/roach88/papermark/internal/corpus"
	"github.com/roach88/papermark/internal/review"
)

// stateResponse is the full view the page renders from.
type stateResponse struct {
	Phase      annotate.Phase     `json:"phase"`
	Paper      *corpus.Paper      `json:"paper,omitempty"`
	Draft      review.Draft       `json:"draft"`
	CanFinish  bool               `json:"can_finish"`
	Violations []review.Violation `json:"violations"`
	Progress   annotate.Progress  `json:"progress"`
	Sanity     []string           `json:"sanity,omitempty"`
}

func (s *Server) currentState() stateResponse {
	canFinish, violations := s.ctrl.CanFinish()
	resp := stateResponse{
		Phase:      s.ctrl.Phase(),
		Draft:      s.ctrl.Draft(),
		CanFinish:  canFinish,
		Violations: violations,
		Progress:   s.ctrl.Progress(),
	}
	if resp.Violations == nil {
		resp.Violations = []review.Violation{}
	}
	if resp.Draft == nil {
		resp.Draft = review.Draft{}
	}
	if p, ok := s.ctrl.CurrentPaper(); ok {
		resp.Paper = &p
		if len(s.sanity) > 0 {
			resp.Sanity = review.CheckSanity(review.PaperResponse{
				PaperID: p.ID,
				Status:  review.StatusInProgress,
				Answers: resp.Draft,
			}, s.sanity)
		}
	}
	return resp
}

func (s *Server) handleIndex(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title":     s.questions.Title,
		"Questions": s.questions.Questions,
	})
}

func (s *Server) handleState(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.currentState())
}

func (s *Server) handleSetAnswer(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rec review.AnswerRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid answer body: " + err.Error()})
		return
	}

	canFinish, violations, err := s.ctrl.SetAnswer(c.Param("questionID"), rec)
	if err != nil {
		s.renderError(c, err)
		return
	}
	if violations == nil {
		violations = []review.Violation{}
	}
	c.JSON(http.StatusOK, gin.H{"can_finish": canFinish, "violations": violations})
}

func (s *Server) handleFinish(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ctrl.Finish(); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.currentState())
}

func (s *Server) handleExport(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ctrl.ExportCurrent(); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exported": true})
}

// handleQuit requests server shutdown; the exit transition (session
// save + export flush) runs in Run after the listener drains.
func (s *Server) handleQuit(c *gin.Context) {
	s.quitOnce.Do(func() { close(s.quit) })
	c.JSON(http.StatusOK, gin.H{"quitting": true})
}

// renderError maps controller errors onto HTTP statuses. Validation
// failures are the expected path and carry their violation list.
func (s *Server) renderError(c *gin.Context, err error) {
	var vErr *review.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      vErr.Error(),
			"violations": vErr.Violations,
		})
		return
	}

	var sErr *annotate.StateError
	if errors.As(err, &sErr) {
		status := http.StatusConflict
		if sErr.Code == annotate.ErrCodeUnknownQuestion {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": sErr.Message, "code": string(sErr.Code)})
		return
	}

	s.log.Error("request failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
