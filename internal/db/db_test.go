package db

import (
	"testing"

	"github.com/campus-data/parkmap/internal/ingest"
	"github.com/campus-data/parkmap/internal/layout"
	"github.com/campus-data/parkmap/internal/occupancy"
	"github.com/google/go-cmp/cmp"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	d, err := NewDB(t.TempDir() + "/test_parkmap.db")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})
	return d
}

func testResult() *ingest.Result {
	records := []occupancy.Record{
		{SpotID: "WF203", Dataset: "meter", RawStatus: "VACANT", State: occupancy.Vacant, StateText: "VACANT", Site: "PS1", Lat: 32.77, Lon: -117.06, EventTime: "2020-06-11T21:01:05"},
		{SpotID: "WF204", Dataset: "meter", RawStatus: "OCCUPIED", State: occupancy.Occupied, StateText: "OCCUPIED", Site: "PS1", Lat: 32.771, Lon: -117.061},
	}
	return &ingest.Result{
		RunID: "run-1",
		Meter: ingest.DatasetResult{
			Name: "meter",
			Assignments: map[string]layout.Assignment{
				"WF203": {Coordinate: layout.Coordinate{Lat: 32.77, Lon: -117.06}, Site: "PS1"},
				"WF204": {Coordinate: layout.Coordinate{Lat: 32.771, Lon: -117.061}, Site: "PS1"},
			},
			Records:  records,
			Capacity: occupancy.Summarize(records),
		},
	}
}

func TestStoreRunRoundTrip(t *testing.T) {
	d := testDB(t)

	if err := d.StoreRun(testResult()); err != nil {
		t.Fatalf("StoreRun failed: %v", err)
	}

	assignments, err := d.Assignments("meter")
	if err != nil {
		t.Fatalf("Assignments failed: %v", err)
	}
	want := []SpotAssignment{
		{Dataset: "meter", SpotID: "WF203", Site: "PS1", Lat: 32.77, Lon: -117.06},
		{Dataset: "meter", SpotID: "WF204", Site: "PS1", Lat: 32.771, Lon: -117.061},
	}
	if diff := cmp.Diff(want, assignments); diff != "" {
		t.Errorf("assignments mismatch (-want +got):\n%s", diff)
	}

	records, err := d.Observations("meter", 10)
	if err != nil {
		t.Fatalf("Observations failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(records))
	}
	// newest first
	if records[0].SpotID != "WF204" {
		t.Errorf("first observation = %s, want WF204", records[0].SpotID)
	}
	if records[1].State != occupancy.Vacant {
		t.Errorf("WF203 state = %v, want Vacant", records[1].State)
	}
}

func TestLatestCapacity(t *testing.T) {
	d := testDB(t)

	if err := d.StoreRun(testResult()); err != nil {
		t.Fatalf("StoreRun failed: %v", err)
	}

	summaries, err := d.LatestCapacity("meter")
	if err != nil {
		t.Fatalf("LatestCapacity failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 capacity row, got %d", len(summaries))
	}
	s := summaries[0]
	if s.Site != "PS1" || s.Total != 2 || s.Occupied != 1 || s.Vacant != 1 {
		t.Errorf("unexpected summary: %+v", s)
	}
	if s.PctFull != 50.0 {
		t.Errorf("PctFull = %v, want 50.0", s.PctFull)
	}
}

func TestLatestCapacityPrefersNewestRun(t *testing.T) {
	d := testDB(t)

	first := testResult()
	if err := d.StoreRun(first); err != nil {
		t.Fatal(err)
	}

	second := testResult()
	second.RunID = "run-2"
	second.Meter.Records[0].State = occupancy.Occupied
	second.Meter.Records[0].StateText = "OCCUPIED"
	second.Meter.Capacity = occupancy.Summarize(second.Meter.Records)
	if err := d.StoreRun(second); err != nil {
		t.Fatal(err)
	}

	summaries, err := d.LatestCapacity("meter")
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 capacity row, got %d", len(summaries))
	}
	if summaries[0].Occupied != 2 {
		t.Errorf("expected newest run's rollup (occupied=2), got %+v", summaries[0])
	}
}

func TestRecordObservation(t *testing.T) {
	d := testDB(t)

	rec := occupancy.Record{
		SpotID: "SP-001", RawStatus: "0", State: occupancy.Vacant, StateText: "VACANT",
		Site: "PS3", Lat: 32.772, Lon: -117.066,
	}
	if err := d.RecordObservation("iot", rec, "feed"); err != nil {
		t.Fatalf("RecordObservation failed: %v", err)
	}

	records, err := d.Observations("iot", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].SpotID != "SP-001" {
		t.Errorf("unexpected observations: %+v", records)
	}
}

func TestEmptyQueries(t *testing.T) {
	d := testDB(t)

	if assignments, err := d.Assignments("meter"); err != nil || len(assignments) != 0 {
		t.Errorf("expected no assignments, got %v (err %v)", assignments, err)
	}
	if summaries, err := d.LatestCapacity("meter"); err != nil || len(summaries) != 0 {
		t.Errorf("expected no capacity rows, got %v (err %v)", summaries, err)
	}
}

func TestOpenDBRecordsPath(t *testing.T) {
	path := t.TempDir() + "/custom_parkmap.db"
	d, err := NewDB(path)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	defer d.Close()

	// the admin tailsql source is derived from this path, so it must track
	// whatever file the caller actually opened
	if d.path != path {
		t.Errorf("recorded path %q, want %q", d.path, path)
	}
}
