package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/papermark/internal/annotate"
	"github.com/roach88/papermark/internal/corpus"
	"github.com/roach88/papermark/internal/export"
	"github.com/roach88/papermark/internal/review"
	"github.com/roach88/papermark/internal/schema"
	"github.com/roach88/papermark/internal/session"
)

func newTestServer(t *testing.T) (*Server, *export.Writer) {
	t.Helper()
	dir := t.TempDir()

	questions := &schema.Questionnaire{
		Title: "Review",
		Questions: []schema.QuestionDefinition{
			{ID: "relevance", Label: "Relevant?", Type: schema.TypeRadio, Required: true, Options: []string{"Yes", "No"}},
			{ID: "notes", Label: "Notes", Type: schema.TypeText},
		},
	}
	papers := &corpus.Corpus{Papers: []corpus.Paper{
		{ID: "P1", Title: "First"},
		{ID: "P2", Title: "Second"},
	}}

	sessions, err := session.NewStore(filepath.Join(dir, "session.json"))
	require.NoError(t, err)
	exporter := export.NewWriter(filepath.Join(dir, "results.json"), papers.IDs()).
		WithClock(func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) })

	ctrl, err := annotate.New(annotate.Config{
		Questions: questions,
		Corpus:    papers,
		Sessions:  sessions,
		Exporter:  exporter,
		Logger:    slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
	})
	require.NoError(t, err)
	require.NoError(t, ctrl.Start())

	return NewServer(ctrl, questions, nil, slog.Default()), exporter
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestIndex_RendersQuestionnaire(t *testing.T) {
	s, _ := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Relevant?")
	assert.Contains(t, w.Body.String(), "radio")
}

func TestState_ReportsCurrentPaper(t *testing.T) {
	s, _ := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, w.Code)

	var state struct {
		Phase string `json:"phase"`
		Paper struct {
			ID string `json:"id"`
		} `json:"paper"`
		CanFinish bool `json:"can_finish"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, "in_progress", state.Phase)
	assert.Equal(t, "P1", state.Paper.ID)
	assert.False(t, state.CanFinish)
}

func TestSetAnswer_EnablesFinish(t *testing.T) {
	s, _ := newTestServer(t)
	w := doJSON(t, s, http.MethodPut, "/api/answers/relevance", `{"values":["Yes"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		CanFinish  bool               `json:"can_finish"`
		Violations []review.Violation `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.CanFinish)
	assert.Empty(t, body.Violations)
}

func TestSetAnswer_UnknownQuestion(t *testing.T) {
	s, _ := newTestServer(t)
	w := doJSON(t, s, http.MethodPut, "/api/answers/bogus", `{"values":["x"]}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetAnswer_BadBody(t *testing.T) {
	s, _ := newTestServer(t)
	w := doJSON(t, s, http.MethodPut, "/api/answers/relevance", `{"values":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFinish_IncompleteReturnsViolations(t *testing.T) {
	s, _ := newTestServer(t)
	w := doJSON(t, s, http.MethodPost, "/api/finish", "")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "relevance")
}

func TestFinish_AdvancesAndExports(t *testing.T) {
	s, exporter := newTestServer(t)
	doJSON(t, s, http.MethodPut, "/api/answers/relevance", `{"values":["Yes"]}`)

	w := doJSON(t, s, http.MethodPost, "/api/finish", "")
	require.Equal(t, http.StatusOK, w.Code)

	var state struct {
		Paper struct {
			ID string `json:"id"`
		} `json:"paper"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, "P2", state.Paper.ID)

	f, err := exporter.Read()
	require.NoError(t, err)
	assert.Equal(t, review.StatusFinished, f.Papers["P1"].Status)
}

func TestFinish_AfterAllCompleteConflicts(t *testing.T) {
	s, _ := newTestServer(t)
	for i := 0; i < 2; i++ {
		doJSON(t, s, http.MethodPut, "/api/answers/relevance", `{"values":["Yes"]}`)
		w := doJSON(t, s, http.MethodPost, "/api/finish", "")
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(t, s, http.MethodPost, "/api/finish", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestQuit_SignalsShutdownOnce(t *testing.T) {
	s, _ := newTestServer(t)
	require.Equal(t, http.StatusOK, doJSON(t, s, http.MethodPost, "/api/quit", "").Code)
	require.Equal(t, http.StatusOK, doJSON(t, s, http.MethodPost, "/api/quit", "").Code)

	select {
	case <-s.quit:
	default:
		t.Fatal("quit channel not closed")
	}
}

func TestExport_FlushesInProgress(t *testing.T) {
	s, exporter := newTestServer(t)
	doJSON(t, s, http.MethodPut, "/api/answers/notes", `{"values":["partial"]}`)

	w := doJSON(t, s, http.MethodPost, "/api/export", "")
	require.Equal(t, http.StatusOK, w.Code)

	f, err := exporter.Read()
	require.NoError(t, err)
	assert.Equal(t, review.StatusInProgress, f.Papers["P1"].Status)
}
