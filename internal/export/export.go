// Package export maintains the durable results file: one JSON document
// mapping paper ids to responses, updated by incremental upsert rather
// than full rewrite, written atomically so a crash mid-export never
// truncates prior work.
package export

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/papermark/internal/atomicfile"
	"github.com/roach88/papermark/internal/review"
)

// File is the on-disk export document. Paper keys are emitted in corpus
// order (see marshal.go); papers unknown to the current corpus — e.g.
// written by a previous run against an older corpus — are preserved and
// emitted after the corpus-ordered keys.
type File struct {
	DatasetID string                           `json:"dataset_id"`
	UpdatedAt time.Time                        `json:"updated_at"`
	Papers    map[string]review.PaperResponse `json:"papers"`
}

// CorruptError reports an unreadable export file at write time. The
// write is aborted: silently overwriting prior results would be data
// loss, not recovery.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("export file %s is corrupt: %v (refusing to overwrite prior results)", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// Writer performs incremental exports to a single results file.
type Writer struct {
	path  string
	order []string // corpus order for stable key emission

	// now is the clock used for UpdatedAt stamps; injectable for
	// deterministic tests.
	now func() time.Time
}

// NewWriter creates a writer for the export file at path. corpusOrder
// fixes the emission order of paper keys.
func NewWriter(path string, corpusOrder []string) *Writer {
	return &Writer{
		path:  path,
		order: append([]string(nil), corpusOrder...),
		now:   time.Now,
	}
}

// WithClock overrides the writer's clock.
func (w *Writer) WithClock(now func() time.Time) *Writer {
	w.now = now
	return w
}

// Path returns the export file location.
func (w *Writer) Path() string {
	return w.path
}

// Read loads the current export file. Returns an empty File (with no
// dataset id) when the file does not exist, and a *CorruptError when it
// exists but cannot be parsed.
func (w *Writer) Read() (*File, error) {
	return ReadFile(w.path)
}

// ReadFile loads an export document from path.
func ReadFile(path string) (*File, error) {
	var f File
	if err := atomicfile.ReadJSONStrict(path, &f); err != nil {
		if os.IsNotExist(err) {
			return &File{Papers: map[string]review.PaperResponse{}}, nil
		}
		return nil, &CorruptError{Path: path, Err: err}
	}
	if f.Papers == nil {
		f.Papers = map[string]review.PaperResponse{}
	}
	return &f, nil
}

// Upsert merges the changed responses into the export file.
//
// The existing file is read first; entries for papers outside changed —
// including entries from previous runs — are preserved untouched. The
// merged document is written via temp-then-rename. If the existing file
// is corrupt the write is aborted with *CorruptError and the file is
// left exactly as it was.
func (w *Writer) Upsert(changed map[string]review.PaperResponse) error {
	if len(changed) == 0 {
		return nil
	}

	existing, err := w.Read()
	if err != nil {
		return err
	}

	if existing.DatasetID == "" {
		existing.DatasetID = uuid.NewString()
	}
	for id, resp := range changed {
		existing.Papers[id] = resp
	}
	existing.UpdatedAt = w.now().UTC()

	return w.write(existing)
}

// WriteFull rewrites the export file from scratch with the given
// responses — the manual fallback to incremental export. When force is
// false a corrupt existing file still aborts the write; force skips the
// read entirely and mints a fresh dataset id.
func (w *Writer) WriteFull(all map[string]review.PaperResponse, force bool) error {
	f := &File{Papers: all}
	if f.Papers == nil {
		f.Papers = map[string]review.PaperResponse{}
	}

	if !force {
		existing, err := w.Read()
		if err != nil {
			return err
		}
		f.DatasetID = existing.DatasetID
	}
	if f.DatasetID == "" {
		f.DatasetID = uuid.NewString()
	}
	f.UpdatedAt = w.now().UTC()

	return w.write(f)
}

func (w *Writer) write(f *File) error {
	data, err := marshalOrdered(f, w.order)
	if err != nil {
		return fmt.Errorf("marshal export: %w", err)
	}
	if err := atomicfile.WriteFile(w.path, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
