package planner

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"plannercal/internal/model"
)

func row(activity, date, tod string) model.PlannerRow {
	return model.PlannerRow{
		KidName:      model.KidAll,
		Activity:     activity,
		Time:         tod,
		Duration:     1.0,
		Frequency:    model.FrequencyOnce,
		DaysOfWeek:   `["thursday"]`,
		StartDate:    date,
		EndDate:      date,
		Address:      "480 E Meadow Dr, Palo Alto, CA",
		PickupDriver: model.DriverNone,
		ReturnDriver: model.DriverNone,
	}
}

func TestMergeIdempotent(t *testing.T) {
	tbl := &Table{}
	incoming := []model.PlannerRow{row("JLS: First Day", "2025-08-14", "08:00")}

	if added := tbl.Merge(incoming); added != 1 {
		t.Fatalf("first merge added %d, want 1", added)
	}
	if added := tbl.Merge(incoming); added != 0 {
		t.Fatalf("second merge added %d, want 0", added)
	}
	if len(tbl.Rows) != 1 {
		t.Fatalf("table has %d rows, want 1", len(tbl.Rows))
	}
}

func TestMergeAppendOnly(t *testing.T) {
	tbl := &Table{Rows: []model.PlannerRow{row("JLS: First Day", "2025-08-14", "")}}

	// Same key with different payload is a duplicate: the existing row is
	// never mutated, even if the source data changed.
	changed := row("JLS: First Day", "2025-08-14", "")
	changed.Address = "somewhere else"
	tbl.Merge([]model.PlannerRow{changed})

	if len(tbl.Rows) != 1 {
		t.Fatalf("table has %d rows, want 1", len(tbl.Rows))
	}
	if tbl.Rows[0].Address != "480 E Meadow Dr, Palo Alto, CA" {
		t.Fatalf("existing row was mutated: %q", tbl.Rows[0].Address)
	}
}

func TestMergePreservesOrder(t *testing.T) {
	tbl := &Table{Rows: []model.PlannerRow{row("A", "2025-09-01", "")}}

	tbl.Merge([]model.PlannerRow{
		row("C", "2025-09-03", ""),
		row("A", "2025-09-01", ""), // duplicate
		row("B", "2025-09-02", ""),
	})

	want := []string{"A", "C", "B"}
	if len(tbl.Rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(tbl.Rows), len(want))
	}
	for i, w := range want {
		if tbl.Rows[i].Activity != w {
			t.Errorf("row %d = %q, want %q", i, tbl.Rows[i].Activity, w)
		}
	}
}

func TestMergeKeyIsExact(t *testing.T) {
	tbl := &Table{Rows: []model.PlannerRow{row("JLS: Open House", "2025-09-10", "18:00")}}

	tbl.Merge([]model.PlannerRow{
		row("jls: open house", "2025-09-10", "18:00"), // case differs: not a duplicate
		row("JLS: Open House", "2025-09-10", "19:00"), // time differs: not a duplicate
		row("JLS: Open House", "2025-09-11", "18:00"), // date differs: not a duplicate
	})

	if len(tbl.Rows) != 4 {
		t.Fatalf("got %d rows, want 4 (exact-match dedup only)", len(tbl.Rows))
	}
}

func TestMergeDuplicatesWithinIncoming(t *testing.T) {
	tbl := &Table{}
	added := tbl.Merge([]model.PlannerRow{
		row("X", "2025-09-01", ""),
		row("X", "2025-09-01", ""),
	})
	if added != 1 {
		t.Fatalf("added %d, want 1", added)
	}
}

func TestSortByStartDate(t *testing.T) {
	tbl := &Table{Rows: []model.PlannerRow{
		row("B", "2025-09-02", ""),
		row("A", "2025-09-01", "08:00"),
		row("A2", "2025-09-01", "10:00"),
	}}
	tbl.SortByStartDate()

	if tbl.Rows[0].Activity != "A" || tbl.Rows[1].Activity != "A2" || tbl.Rows[2].Activity != "B" {
		t.Fatalf("unexpected order: %q %q %q", tbl.Rows[0].Activity, tbl.Rows[1].Activity, tbl.Rows[2].Activity)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "school_events.csv")

	tbl := &Table{Rows: []model.PlannerRow{
		row("JLS: Back to School Night", "2025-08-27", "18:00"),
		row("JLS: Thanksgiving Break", "2025-11-24", ""),
	}}
	if err := tbl.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Rows) != 2 {
		t.Fatalf("loaded %d rows, want 2", len(loaded.Rows))
	}
	if loaded.Rows[0] != tbl.Rows[0] {
		t.Fatalf("row 0 mismatch:\n got %+v\nwant %+v", loaded.Rows[0], tbl.Rows[0])
	}
}

func TestSaveHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	tbl := &Table{}
	if err := tbl.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected header row only, got %d rows", len(records))
	}

	want := []string{
		"kid_name", "activity", "time", "duration", "frequency",
		"days_of_week", "start_date", "end_date", "address",
		"pickup_driver", "return_driver",
	}
	if len(records[0]) != len(want) {
		t.Fatalf("header has %d columns, want %d", len(records[0]), len(want))
	}
	for i, h := range want {
		if records[0][i] != h {
			t.Errorf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}
}

func TestSaveOverwritesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "table.csv")

	first := &Table{Rows: []model.PlannerRow{row("Old", "2025-01-01", "")}}
	if err := first.Save(path); err != nil {
		t.Fatal(err)
	}

	second := &Table{Rows: []model.PlannerRow{row("New", "2025-02-01", "")}}
	if err := second.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Rows) != 1 || loaded.Rows[0].Activity != "New" {
		t.Fatalf("expected fully replaced table, got %+v", loaded.Rows)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".planner-") {
			t.Fatalf("leftover temp file %q", e.Name())
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	tbl, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	if err != nil {
		t.Fatalf("Load of missing file: %v", err)
	}
	if len(tbl.Rows) != 0 {
		t.Fatalf("expected empty table, got %d rows", len(tbl.Rows))
	}
}

func TestSaveBadPath(t *testing.T) {
	tbl := &Table{}
	err := tbl.Save(filepath.Join(string(os.PathSeparator), "dev", "null", "nope", "x.csv"))
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}
	var pe *PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PersistenceError, got %T", err)
	}
}
