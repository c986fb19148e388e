package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// marshalOrdered serializes an export File with the papers object keyed
// in a fixed order: corpus order first, then any remaining paper ids
// (unknown to the current corpus) sorted lexicographically. Standard
// json.Marshal would sort all map keys alphabetically and lose corpus
// order; this writer keeps output deterministic AND corpus-ordered, so
// exporting unchanged data twice produces identical bytes.
func marshalOrdered(f *File, order []string) ([]byte, error) {
	keys := orderedKeys(f, order)

	var buf bytes.Buffer
	buf.WriteByte('{')

	if err := writeField(&buf, "dataset_id", f.DatasetID); err != nil {
		return nil, err
	}
	buf.WriteByte(',')
	if err := writeField(&buf, "updated_at", f.UpdatedAt.Format(time.RFC3339Nano)); err != nil {
		return nil, err
	}
	buf.WriteByte(',')

	buf.WriteString(`"papers":{`)
	for i, id := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeField(&buf, id, f.Papers[id]); err != nil {
			return nil, fmt.Errorf("paper %q: %w", id, err)
		}
	}
	buf.WriteString("}}")

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// orderedKeys returns the paper ids present in f: first those in the
// given order, then leftovers sorted.
func orderedKeys(f *File, order []string) []string {
	keys := make([]string, 0, len(f.Papers))
	inOrder := make(map[string]bool, len(order))
	for _, id := range order {
		inOrder[id] = true
		if _, ok := f.Papers[id]; ok {
			keys = append(keys, id)
		}
	}

	var extra []string
	for id := range f.Papers {
		if !inOrder[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)

	return append(keys, extra...)
}

// writeField emits `"key":<value>` in compact JSON.
func writeField(buf *bytes.Buffer, key string, value any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}
