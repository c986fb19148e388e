package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/papermark/internal/review"
)

var fixedClock = func() time.Time {
	return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
}

func newTestWriter(t *testing.T, order ...string) *Writer {
	t.Helper()
	if order == nil {
		order = []string{"P1", "P2", "P3"}
	}
	path := filepath.Join(t.TempDir(), "export.json")
	return NewWriter(path, order).WithClock(fixedClock)
}

func finished(paperID string) review.PaperResponse {
	at := fixedClock()
	return review.PaperResponse{
		PaperID:    paperID,
		Status:     review.StatusFinished,
		Answers:    review.Draft{"q1": {Values: []string{"Tool"}}},
		SessionID:  "sess-1",
		FinishedAt: &at,
	}
}

func TestUpsert_CreatesFile(t *testing.T) {
	w := newTestWriter(t)
	require.NoError(t, w.Upsert(map[string]review.PaperResponse{"P1": finished("P1")}))

	f, err := w.Read()
	require.NoError(t, err)
	assert.NotEmpty(t, f.DatasetID, "first write should mint a dataset id")
	require.Contains(t, f.Papers, "P1")
	assert.Equal(t, review.StatusFinished, f.Papers["P1"].Status)
}

// Incremental export preserves unrelated entries: with {P1, P2} on disk,
// upserting only P1 keeps P2 byte-for-byte intact.
func TestUpsert_PreservesUnrelatedEntries(t *testing.T) {
	w := newTestWriter(t)
	require.NoError(t, w.Upsert(map[string]review.PaperResponse{
		"P1": finished("P1"),
		"P2": finished("P2"),
	}))

	updated := finished("P1")
	updated.Answers = review.Draft{"q1": {Values: []string{"Method"}}}
	require.NoError(t, w.Upsert(map[string]review.PaperResponse{"P1": updated}))

	f, err := w.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"Method"}, f.Papers["P1"].Answers["q1"].Values)
	assert.Equal(t, []string{"Tool"}, f.Papers["P2"].Answers["q1"].Values, "P2 must be unchanged")
}

// Entries written by a previous run against an older corpus survive
// upserts even though the current corpus does not know their ids.
func TestUpsert_PreservesEntriesOutsideCorpus(t *testing.T) {
	w := newTestWriter(t)
	require.NoError(t, w.Upsert(map[string]review.PaperResponse{
		"retired-paper": finished("retired-paper"),
	}))
	require.NoError(t, w.Upsert(map[string]review.PaperResponse{"P1": finished("P1")}))

	f, err := w.Read()
	require.NoError(t, err)
	assert.Contains(t, f.Papers, "retired-paper")
	assert.Contains(t, f.Papers, "P1")
}

// Export idempotence: exporting the same unchanged response twice
// produces identical bytes (the clock is fixed in these tests).
func TestUpsert_Idempotent(t *testing.T) {
	w := newTestWriter(t)
	resp := map[string]review.PaperResponse{"P1": finished("P1")}

	require.NoError(t, w.Upsert(resp))
	first, err := os.ReadFile(w.Path())
	require.NoError(t, err)

	require.NoError(t, w.Upsert(resp))
	second, err := os.ReadFile(w.Path())
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestUpsert_PreservesDatasetID(t *testing.T) {
	w := newTestWriter(t)
	require.NoError(t, w.Upsert(map[string]review.PaperResponse{"P1": finished("P1")}))
	f1, err := w.Read()
	require.NoError(t, err)

	require.NoError(t, w.Upsert(map[string]review.PaperResponse{"P2": finished("P2")}))
	f2, err := w.Read()
	require.NoError(t, err)

	assert.Equal(t, f1.DatasetID, f2.DatasetID)
}

func TestUpsert_CorpusOrderInOutput(t *testing.T) {
	w := newTestWriter(t, "zeta", "alpha")
	require.NoError(t, w.Upsert(map[string]review.PaperResponse{
		"alpha":  finished("alpha"),
		"zeta":   finished("zeta"),
		"extra9": finished("extra9"),
	}))

	data, err := os.ReadFile(w.Path())
	require.NoError(t, err)
	raw := string(data)

	zeta := strings.Index(raw, `"zeta"`)
	alpha := strings.Index(raw, `"alpha"`)
	extra := strings.Index(raw, `"extra9"`)
	require.True(t, zeta >= 0 && alpha >= 0 && extra >= 0)
	assert.Less(t, zeta, alpha, "corpus order, not alphabetical")
	assert.Less(t, alpha, extra, "non-corpus entries come last")
}

// Corrupt export file: the write must be refused and the existing bytes
// left untouched -- silent overwrite is data loss.
func TestUpsert_CorruptFileAborts(t *testing.T) {
	w := newTestWriter(t)
	garbage := []byte("{this is not json")
	require.NoError(t, os.WriteFile(w.Path(), garbage, 0o644))

	err := w.Upsert(map[string]review.PaperResponse{"P1": finished("P1")})
	require.Error(t, err)

	var corrupt *CorruptError
	require.True(t, errors.As(err, &corrupt))
	assert.Equal(t, w.Path(), corrupt.Path)

	data, readErr := os.ReadFile(w.Path())
	require.NoError(t, readErr)
	assert.Equal(t, garbage, data, "corrupt file must be left exactly as it was")
}

func TestUpsert_EmptyChangeSetIsNoOp(t *testing.T) {
	w := newTestWriter(t)
	require.NoError(t, w.Upsert(nil))

	_, err := os.Stat(w.Path())
	assert.True(t, os.IsNotExist(err), "no file should be created for an empty change set")
}

func TestWriteFull_ForceBypassesCorruptFile(t *testing.T) {
	w := newTestWriter(t)
	require.NoError(t, os.WriteFile(w.Path(), []byte("garbage"), 0o644))

	err := w.WriteFull(map[string]review.PaperResponse{"P1": finished("P1")}, false)
	var corrupt *CorruptError
	require.True(t, errors.As(err, &corrupt), "without force, corrupt file still aborts")

	require.NoError(t, w.WriteFull(map[string]review.PaperResponse{"P1": finished("P1")}, true))
	f, err := w.Read()
	require.NoError(t, err)
	assert.Contains(t, f.Papers, "P1")
}

func TestReadFile_Absent(t *testing.T) {
	f, err := ReadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Empty(t, f.DatasetID)
	assert.Empty(t, f.Papers)
}

func TestRoundTrip_MultiValueAnswers(t *testing.T) {
	w := newTestWriter(t)
	resp := review.PaperResponse{
		PaperID: "P1",
		Status:  review.StatusInProgress,
		Answers: review.Draft{
			"q5": {
				Values:     []string{"Technical (Benchmark), Quantitative", "User study, Qualitative"},
				Discussion: "mixed design",
			},
		},
		SessionID: "sess-1",
	}
	require.NoError(t, w.Upsert(map[string]review.PaperResponse{"P1": resp}))

	f, err := w.Read()
	require.NoError(t, err)
	assert.Equal(t, resp, f.Papers["P1"])
}
