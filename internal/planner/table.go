// Package planner persists the canonical schedule table: a delimited UTF-8
// text file with a header row, loaded and written via csvutil struct tags.
package planner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/jszwec/csvutil"

	"plannercal/internal/model"
)

// PersistenceError reports a failed table write. Fatal for that table only;
// sibling sources keep running.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persist %s: %v", e.Path, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

// Table is an ordered sequence of planner rows.
type Table struct {
	Rows []model.PlannerRow
}

// Load reads a planner table from path. A missing file yields an empty
// table, not an error.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Table{}, nil
		}
		return nil, err
	}

	var rows []model.PlannerRow
	if len(data) > 0 {
		if err := csvutil.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	return &Table{Rows: rows}, nil
}

// Merge appends the non-duplicate rows of incoming to the table, preserving
// their relative order. A row is a duplicate iff its (activity, start_date,
// time) key equals an existing row's key. Existing rows are never mutated or
// removed, so merging the same incoming rows twice is a no-op the second
// time.
func (t *Table) Merge(incoming []model.PlannerRow) int {
	keys := make(map[model.RowKey]struct{}, len(t.Rows))
	for _, r := range t.Rows {
		keys[r.Key()] = struct{}{}
	}

	added := 0
	for _, r := range incoming {
		k := r.Key()
		if _, dup := keys[k]; dup {
			continue
		}
		keys[k] = struct{}{}
		t.Rows = append(t.Rows, r)
		added++
	}
	return added
}

// SortByStartDate orders rows chronologically. Dates are in ISO form, so a
// lexical comparison suffices; the sort is stable to keep same-day order.
func (t *Table) SortByStartDate() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		return t.Rows[i].StartDate < t.Rows[j].StartDate
	})
}

// Save writes the table atomically: header plus rows to a temp file in the
// target directory, fsync, then rename over path. A crash mid-write never
// leaves a half-written table.
func (t *Table) Save(path string) error {
	rows := t.Rows
	if rows == nil {
		rows = []model.PlannerRow{}
	}
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return &PersistenceError{Path: path, Err: err}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &PersistenceError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".planner-*.tmp")
	if err != nil {
		return &PersistenceError{Path: path, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &PersistenceError{Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &PersistenceError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &PersistenceError{Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return &PersistenceError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &PersistenceError{Path: path, Err: err}
	}

	return nil
}
