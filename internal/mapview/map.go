// Package mapview renders the parking occupancy visualizations: the
// per-spot map, the capacity bar chart, the dashboard shell that combines
// them, and a PNG layout plot for grid debugging.
package mapview

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/campus-data/parkmap/internal/occupancy"
)

const (
	vacantColor   = "#2e7d32"
	occupiedColor = "#c62828"
	iotVacant     = "#66bb6a"
	iotOccupied   = "#ff5252"
)

// RenderSpotMap renders the spot map as a self-contained HTML page: one
// scatter point per observation at its synthetic coordinate, green for
// vacant and red for occupied, with one toggleable series per dataset and
// state. Longitude is X and latitude is Y, so the scatter reads like the
// map it stands in for.
func RenderSpotMap(w io.Writer, meter, iot []occupancy.Record) error {
	minLat, maxLat := math.Inf(1), math.Inf(-1)
	minLon, maxLon := math.Inf(1), math.Inf(-1)

	series := map[string][]opts.ScatterData{}
	for _, r := range append(append([]occupancy.Record{}, meter...), iot...) {
		if r.Lat < minLat {
			minLat = r.Lat
		}
		if r.Lat > maxLat {
			maxLat = r.Lat
		}
		if r.Lon < minLon {
			minLon = r.Lon
		}
		if r.Lon > maxLon {
			maxLon = r.Lon
		}
		key := r.Dataset + " " + r.StateText
		name := fmt.Sprintf("%s (%s, %s)", r.SpotID, r.Site, r.StateText)
		if r.EventTime != "" {
			name += " @ " + r.EventTime
		}
		series[key] = append(series[key], opts.ScatterData{
			Name:  name,
			Value: []interface{}{r.Lon, r.Lat},
		})
	}

	if len(series) == 0 {
		// keep the axes sane for an empty map
		minLat, maxLat = 0, 1
		minLon, maxLon = 0, 1
	}

	latPad := (maxLat - minLat) * 0.1
	lonPad := (maxLon - minLon) * 0.1
	if latPad == 0 {
		latPad = 0.001
	}
	if lonPad == 0 {
		lonPad = 0.001
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Campus Parking Map", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Campus Parking Occupancy", Subtitle: fmt.Sprintf("meter=%d iot=%d", len(meter), len(iot))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: minLon - lonPad, Max: maxLon + lonPad, Name: "Longitude", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: minLat - latPad, Max: maxLat + latPad, Name: "Latitude", NameLocation: "middle", NameGap: 30}),
	)

	for _, s := range []struct {
		key, label, color string
		size              int
	}{
		{"meter VACANT", "Meter vacant", vacantColor, 8},
		{"meter OCCUPIED", "Meter occupied", occupiedColor, 8},
		{"iot VACANT", "IoT vacant", iotVacant, 6},
		{"iot OCCUPIED", "IoT occupied", iotOccupied, 6},
	} {
		pts := series[s.key]
		if len(pts) == 0 {
			continue
		}
		scatter.AddSeries(s.label, pts,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: s.size}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: s.color}),
		)
	}

	return scatter.Render(w)
}

// RenderCapacityChart renders the per-structure capacity rollup as a bar
// chart with occupied and vacant counts stacked per site.
func RenderCapacityChart(w io.Writer, summaries []occupancy.SiteSummary) error {
	sites := make([]string, 0, len(summaries))
	occ := make([]opts.BarData, 0, len(summaries))
	vac := make([]opts.BarData, 0, len(summaries))
	for _, s := range summaries {
		sites = append(sites, s.Site)
		occ = append(occ, opts.BarData{Value: s.Occupied})
		vac = append(vac, opts.BarData{Value: s.Vacant})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Structure Capacity", Width: "100%", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: "Structure Capacity", Subtitle: "occupied vs vacant per structure"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(sites).
		AddSeries("occupied", occ, charts.WithItemStyleOpts(opts.ItemStyle{Color: occupiedColor})).
		AddSeries("vacant", vac, charts.WithItemStyleOpts(opts.ItemStyle{Color: vacantColor})).
		SetSeriesOptions(charts.WithBarChartOpts(opts.BarChart{Stack: "capacity"}))

	return bar.Render(w)
}
