package occupancy

import "gonum.org/v1/gonum/stat"

// FleetStats summarises percent-full across all structures.
type FleetStats struct {
	Sites          int     `json:"sites"`
	MeanPctFull    float64 `json:"mean_pct_full"`
	StdDevPctFull  float64 `json:"stddev_pct_full"`
	TotalSpots     int     `json:"total_spots"`
	TotalOccupied  int     `json:"total_occupied"`
	OverallPctFull float64 `json:"overall_pct_full"`
}

// Stats computes fleet-wide occupancy statistics over a capacity summary.
// An empty summary yields the zero value.
func Stats(summaries []SiteSummary) FleetStats {
	if len(summaries) == 0 {
		return FleetStats{}
	}

	pcts := make([]float64, 0, len(summaries))
	var total, occ int
	for _, s := range summaries {
		pcts = append(pcts, s.PctFull)
		total += s.Total
		occ += s.Occupied
	}

	fs := FleetStats{
		Sites:         len(summaries),
		MeanPctFull:   stat.Mean(pcts, nil),
		TotalSpots:    total,
		TotalOccupied: occ,
	}
	if len(pcts) > 1 {
		fs.StdDevPctFull = stat.StdDev(pcts, nil)
	}
	if total > 0 {
		fs.OverallPctFull = float64(occ) / float64(total) * 100
	}
	return fs
}
