package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "papers.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing corpus fixture: %v", err)
	}
	return path
}

func TestLoad_Valid(t *testing.T) {
	path := writeCorpus(t, "id,title,assignee,venue\nP1,First paper,alice,ICSE\nP2,Second paper,bob,\nP3,Third paper,alice,FSE\n")

	c, err := Load(path)
	require.NoError(t, err)
	require.Len(t, c.Papers, 3)

	assert.Equal(t, []string{"P1", "P2", "P3"}, c.IDs())
	assert.Equal(t, "First paper", c.Papers[0].Title)
	assert.Equal(t, "alice", c.Papers[0].Assignee)
	assert.Equal(t, "ICSE", c.Papers[0].Metadata["venue"])
	assert.Nil(t, c.Papers[1].Metadata, "empty metadata cells are dropped")
}

func TestLoad_PreservesRowOrder(t *testing.T) {
	path := writeCorpus(t, "id\nzeta\nalpha\nmid\n")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, c.IDs(), "ordering must be insertion order, not sorted")
}

func TestLoad_MissingIDColumn(t *testing.T) {
	path := writeCorpus(t, "title,assignee\nFirst,alice\n")

	_, err := Load(path)
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeNoIDColumn, loadErr.Code)
}

func TestLoad_DuplicateID(t *testing.T) {
	path := writeCorpus(t, "id,title\nP1,First\nP1,Again\n")

	_, err := Load(path)
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeDuplicateID, loadErr.Code)
	assert.Equal(t, 2, loadErr.Row)
}

func TestLoad_EmptyID(t *testing.T) {
	path := writeCorpus(t, "id,title\nP1,First\n,Second\n")

	_, err := Load(path)
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeEmptyID, loadErr.Code)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeCorpusRead, loadErr.Code)
}

func TestLoad_RaggedRows(t *testing.T) {
	path := writeCorpus(t, "id,title\nP1,First,extra-cell\n")

	_, err := Load(path)
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeCorpusParse, loadErr.Code)
}

func TestCorpus_Lookup(t *testing.T) {
	c := &Corpus{Papers: []Paper{{ID: "P1"}, {ID: "P2"}}}

	if got := c.Index("P2"); got != 1 {
		t.Errorf("Index(P2) = %d, want 1", got)
	}
	if got := c.Index("P9"); got != -1 {
		t.Errorf("Index(P9) = %d, want -1", got)
	}

	p, ok := c.Paper("P1")
	if !ok || p.ID != "P1" {
		t.Errorf("Paper(P1) = %+v, %v", p, ok)
	}
}
