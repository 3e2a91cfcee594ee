// Command render-map runs the CSV pipeline once and writes the occupancy
// map, capacity chart and dashboard as standalone HTML files, without a
// database or server. With -plots it also writes one PNG per structure
// showing the assigned grid layout.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/campus-data/parkmap/internal/config"
	"github.com/campus-data/parkmap/internal/ingest"
	"github.com/campus-data/parkmap/internal/mapview"
)

var (
	meterCSV  = flag.String("meter", "", "Path to the parking-meter occupancy CSV")
	iotCSV    = flag.String("iot", "", "Path to the IoT proximity CSV")
	sitesFile = flag.String("sites", "", "Path to a site config JSON file (default: built-in sites)")
	outDir    = flag.String("out", "out", "Directory for rendered artifacts")
	plots     = flag.Bool("plots", false, "Also write per-structure grid layout PNGs")
)

func readDataset(path string, maxRows int, read func(*os.File, int) (*ingest.Dataset, error)) (*ingest.Dataset, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return read(f, maxRows)
}

func writeArtifact(name string, render func(*os.File) error) error {
	f, err := os.Create(filepath.Join(*outDir, name))
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func run() error {
	cfg := config.Default()
	if *sitesFile != "" {
		var err error
		if cfg, err = config.Load(*sitesFile); err != nil {
			return err
		}
	}

	meter, err := readDataset(*meterCSV, cfg.MaxRows, func(f *os.File, n int) (*ingest.Dataset, error) {
		return ingest.ReadMeterCSV(f, n)
	})
	if err != nil {
		return fmt.Errorf("failed to read meter CSV: %w", err)
	}
	iot, err := readDataset(*iotCSV, cfg.MaxRows, func(f *os.File, n int) (*ingest.Dataset, error) {
		return ingest.ReadSensorCSV(f, n)
	})
	if err != nil {
		return fmt.Errorf("failed to read IoT CSV: %w", err)
	}
	if meter == nil && iot == nil {
		return fmt.Errorf("nothing to render: pass -meter and/or -iot")
	}

	result := ingest.Run(cfg, meter, iot)

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	if err := writeArtifact("map.html", func(f *os.File) error {
		return mapview.RenderSpotMap(f, result.Meter.Records, result.IoT.Records)
	}); err != nil {
		return fmt.Errorf("failed to render map: %w", err)
	}
	if err := writeArtifact("capacity.html", func(f *os.File) error {
		return mapview.RenderCapacityChart(f, result.Meter.Capacity)
	}); err != nil {
		return fmt.Errorf("failed to render capacity chart: %w", err)
	}
	if err := writeArtifact("dashboard.html", func(f *os.File) error {
		return mapview.RenderDashboard(f, result.Meter.Capacity)
	}); err != nil {
		return fmt.Errorf("failed to render dashboard: %w", err)
	}
	log.Printf("wrote map.html, capacity.html, dashboard.html to %s", *outDir)

	if *plots {
		assignments := result.IoT.Assignments
		if len(assignments) == 0 {
			assignments = result.Meter.Assignments
		}
		for _, site := range cfg.Sites {
			n, err := mapview.SaveSiteLayoutPlot(*outDir, site.Name, assignments)
			if err != nil {
				return fmt.Errorf("failed to plot site %s: %w", site.Name, err)
			}
			if n > 0 {
				log.Printf("plotted %d spots for %s", n, site.Name)
			}
		}
	}
	return nil
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
