package mapview

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/campus-data/parkmap/internal/layout"
)

// SaveSiteLayoutPlot writes a PNG scatter of one structure's synthetic
// grid, a quick visual check that the generated cluster is centered and
// evenly spaced. Returns the number of spots plotted. A site the
// partitioner left empty writes nothing and returns 0; small inputs only
// fill the leading sites.
func SaveSiteLayoutPlot(outputDir, site string, assignments map[string]layout.Assignment) (int, error) {
	pts := make(plotter.XYs, 0, len(assignments))
	for _, a := range assignments {
		if a.Site != site {
			continue
		}
		pts = append(pts, plotter.XY{X: a.Lon, Y: a.Lat})
	}
	if len(pts) == 0 {
		return 0, nil
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create output dir: %w", err)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Site %s - Synthetic Grid (%d spots)", site, len(pts))
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return 0, fmt.Errorf("failed to create scatter: %w", err)
	}
	scatter.Radius = vg.Points(3)
	p.Add(scatter)

	file := filepath.Join(outputDir, fmt.Sprintf("site_%s_layout.png", site))
	if err := p.Save(8*vg.Inch, 8*vg.Inch, file); err != nil {
		return 0, fmt.Errorf("failed to save plot: %w", err)
	}
	return len(pts), nil
}
