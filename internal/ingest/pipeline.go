package ingest

import (
	"github.com/campus-data/parkmap/internal/config"
	"github.com/campus-data/parkmap/internal/layout"
	"github.com/campus-data/parkmap/internal/occupancy"
	"github.com/google/uuid"
)

// UnknownSite is the fallback structure name for a spot with no placement.
// It only appears if a record's identifier somehow missed assignment, e.g.
// when callers build records against a foreign assignment table.
const UnknownSite = "Unknown"

// DatasetResult is the computed output for one dataset.
type DatasetResult struct {
	Name        string
	Assignments map[string]layout.Assignment
	Records     []occupancy.Record
	Capacity    []occupancy.SiteSummary
}

// Result is the output of one full pipeline run over both datasets.
type Result struct {
	RunID string
	Meter DatasetResult
	IoT   DatasetResult
}

// SpotIDs returns the dataset's identifiers, deduplicated in first-seen
// order. Each identifier must map to exactly one placement, so duplicates
// collapse here before partitioning.
func (d *Dataset) SpotIDs() []string {
	ids := make([]string, 0, len(d.Rows))
	for _, r := range d.Rows {
		ids = append(ids, r.SpotID)
	}
	return layout.UniqueIDs(ids)
}

// BuildRecords merges the coordinate assignment onto each raw row and
// classifies its status under the dataset's encoding.
func BuildRecords(ds *Dataset, assignments map[string]layout.Assignment) []occupancy.Record {
	records := make([]occupancy.Record, 0, len(ds.Rows))
	for _, row := range ds.Rows {
		state := occupancy.Classify(row.RawStatus, ds.Encoding)
		rec := occupancy.Record{
			SpotID:    row.SpotID,
			Dataset:   ds.Name,
			RawStatus: row.RawStatus,
			State:     state,
			StateText: state.String(),
			Site:      UnknownSite,
			EventTime: row.EventTime,
		}
		if a, ok := assignments[row.SpotID]; ok {
			rec.Site = a.Site
			rec.Lat = a.Lat
			rec.Lon = a.Lon
		}
		records = append(records, rec)
	}
	return records
}

// Run executes the full pipeline for two datasets: per-dataset synthetic
// placement, classification, and capacity rollup. The run is pure and
// deterministic for a given input order; the run ID is the only fresh
// value and exists to tag stored output.
func Run(cfg *config.SiteConfig, meter, iot *Dataset) *Result {
	return &Result{
		RunID: uuid.NewString(),
		Meter: runDataset(cfg, meter),
		IoT:   runDataset(cfg, iot),
	}
}

func runDataset(cfg *config.SiteConfig, ds *Dataset) DatasetResult {
	if ds == nil {
		return DatasetResult{}
	}
	assignments := layout.AssignToSites(ds.SpotIDs(), cfg.Sites, cfg.SpacingDeg, cfg.PerRow)
	records := BuildRecords(ds, assignments)
	return DatasetResult{
		Name:        ds.Name,
		Assignments: assignments,
		Records:     records,
		Capacity:    occupancy.Summarize(records),
	}
}
