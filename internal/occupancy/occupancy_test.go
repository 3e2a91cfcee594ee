package occupancy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want Classification
	}{
		{"lowercase vacant", "vacant", Vacant},
		{"padded vacant", " VACANT ", Vacant},
		{"mixed case vacant", "Vacant", Vacant},
		{"occupied", "OCCUPIED", Occupied},
		{"unknown state", "UNKNOWN", Occupied},
		{"missing value", "", Occupied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ClassifyLabel(tt.raw))
		})
	}
}

func TestClassifyReading(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want Classification
	}{
		{"zero reading", "0", Vacant},
		{"zero float reading", "0.0", Vacant},
		{"positive reading", "1", Occupied},
		{"negative reading", "-1", Occupied},
		{"fractional reading", "0.35", Occupied},
		{"missing reading defaults occupied", "", Occupied},
		{"garbage reading defaults occupied", "n/a", Occupied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ClassifyReading(tt.raw))
		})
	}
}

func TestClassifyDispatch(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Vacant, Classify("vacant", LabelEncoding))
	assert.Equal(t, Occupied, Classify("vacant", ReadingEncoding))
	assert.Equal(t, Vacant, Classify("0", ReadingEncoding))
	assert.Equal(t, Occupied, Classify("0", LabelEncoding))
}

func TestClassificationString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "VACANT", Vacant.String())
	assert.Equal(t, "OCCUPIED", Occupied.String())
}

func rec(site string, state Classification) Record {
	return Record{SpotID: "x", Site: site, State: state}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	records := []Record{
		rec("PS1", Occupied),
		rec("PS1", Vacant),
		rec("PS1", Vacant),
		rec("PS1", Occupied),
		rec("PS1", Vacant),
	}
	// 5 records, 2 occupied
	summaries := Summarize(records)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, "PS1", s.Site)
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 2, s.Occupied)
	assert.Equal(t, 3, s.Vacant)
	assert.InDelta(t, 40.0, s.PctFull, 1e-9)
	assert.Equal(t, s.Total, s.Occupied+s.Vacant)
}

func TestSummarizeFirstSeenOrder(t *testing.T) {
	t.Parallel()

	records := []Record{
		rec("PS7", Occupied),
		rec("PS1", Vacant),
		rec("PS7", Vacant),
		rec("PS3", Occupied),
	}
	summaries := Summarize(records)
	require.Len(t, summaries, 3)
	assert.Equal(t, "PS7", summaries[0].Site)
	assert.Equal(t, "PS1", summaries[1].Site)
	assert.Equal(t, "PS3", summaries[2].Site)
}

func TestSummarizeRounding(t *testing.T) {
	t.Parallel()

	// 1 of 3 occupied: 33.333...% rounds to 33.3
	summaries := Summarize([]Record{
		rec("PS1", Occupied),
		rec("PS1", Vacant),
		rec("PS1", Vacant),
	})
	require.Len(t, summaries, 1)
	assert.InDelta(t, 33.3, summaries[0].PctFull, 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Summarize(nil))
}

func TestStats(t *testing.T) {
	t.Parallel()

	summaries := []SiteSummary{
		{Site: "PS1", Total: 10, Occupied: 5, Vacant: 5, PctFull: 50.0},
		{Site: "PS3", Total: 10, Occupied: 10, Vacant: 0, PctFull: 100.0},
	}
	fs := Stats(summaries)
	assert.Equal(t, 2, fs.Sites)
	assert.InDelta(t, 75.0, fs.MeanPctFull, 1e-9)
	assert.InDelta(t, math.Sqrt(1250), fs.StdDevPctFull, 1e-9)
	assert.Equal(t, 20, fs.TotalSpots)
	assert.Equal(t, 15, fs.TotalOccupied)
	assert.InDelta(t, 75.0, fs.OverallPctFull, 1e-9)
}

func TestStatsEmpty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FleetStats{}, Stats(nil))
}
