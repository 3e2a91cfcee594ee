// Command parkmap ingests the two campus occupancy datasets, assigns every
// spot a synthetic map position, and serves the occupancy map, capacity
// charts and JSON API. Live proximity readings can also arrive over a
// serial bridge or an AMQP queue.
package main

import (
	"context"
	"embed"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/campus-data/parkmap/internal/api"
	"github.com/campus-data/parkmap/internal/broker"
	"github.com/campus-data/parkmap/internal/config"
	"github.com/campus-data/parkmap/internal/db"
	"github.com/campus-data/parkmap/internal/ingest"
	"github.com/campus-data/parkmap/internal/mapview"
	"github.com/campus-data/parkmap/internal/occupancy"
	"github.com/campus-data/parkmap/internal/sensormux"
)

var (
	//go:embed static/*
	staticFiles embed.FS

	devMode    = flag.Bool("dev", false, "Run in dev mode (mock sensor feed, local static files)")
	listen     = flag.String("listen", ":8080", "Listen address (empty disables the server)")
	dbFile     = flag.String("db", "parkmap.db", "Path to the sqlite database")
	sitesFile  = flag.String("sites", "", "Path to a site config JSON file (default: built-in sites)")
	meterCSV   = flag.String("meter-csv", "", "Path to the parking-meter occupancy CSV")
	iotCSV     = flag.String("iot-csv", "", "Path to the IoT proximity CSV")
	serialPath = flag.String("serial", "", "Serial port for the live sensor bridge")
	fixtures   = flag.String("fixtures", "fixtures.txt", "Sensor fixture file replayed in dev mode")
	amqpURL    = flag.String("amqp", "", "AMQP broker URL for the IoT event queue (empty disables; local brokers use "+defaultBroker.URL+")")
	amqpQueue  = flag.String("amqp-queue", defaultBroker.Queue, "AMQP queue name")
)

var defaultBroker = broker.DefaultConfig()

const migrationsDir = "migrations"

// liveRunID tags observations arriving from the serial or broker feed
// rather than a batch ingest run.
const liveRunID = "live"

// loadConfig returns the site configuration from the -sites file or the
// built-in defaults.
func loadConfig() (*config.SiteConfig, error) {
	if *sitesFile == "" {
		return config.Default(), nil
	}
	return config.Load(*sitesFile)
}

// runBatch reads whichever CSVs were supplied, runs the pipeline and
// stores the result.
func runBatch(cfg *config.SiteConfig, database *db.DB) error {
	var meter, iot *ingest.Dataset

	if *meterCSV != "" {
		f, err := os.Open(*meterCSV)
		if err != nil {
			return fmt.Errorf("failed to open meter CSV: %w", err)
		}
		defer f.Close()
		if meter, err = ingest.ReadMeterCSV(f, cfg.MaxRows); err != nil {
			return err
		}
	}
	if *iotCSV != "" {
		f, err := os.Open(*iotCSV)
		if err != nil {
			return fmt.Errorf("failed to open IoT CSV: %w", err)
		}
		defer f.Close()
		if iot, err = ingest.ReadSensorCSV(f, cfg.MaxRows); err != nil {
			return err
		}
	}

	result := ingest.Run(cfg, meter, iot)
	if err := database.StoreRun(result); err != nil {
		return fmt.Errorf("failed to store run: %w", err)
	}
	log.Printf("stored run %s: %d meter records, %d iot records",
		result.RunID, len(result.Meter.Records), len(result.IoT.Records))
	return nil
}

// assignmentLookup loads the stored IoT placements so live readings can be
// pinned to a structure and coordinate.
func assignmentLookup(database *db.DB) (map[string]db.SpotAssignment, error) {
	assignments, err := database.Assignments("iot")
	if err != nil {
		return nil, err
	}
	lookup := make(map[string]db.SpotAssignment, len(assignments))
	for _, a := range assignments {
		lookup[a.SpotID] = a
	}
	return lookup, nil
}

// handleReading classifies one live bridge line and stores it. Spots the
// pipeline has never placed land on the Unknown structure.
func handleReading(database *db.DB, lookup map[string]db.SpotAssignment, line string) error {
	reading, err := sensormux.ParseReading(line)
	if err != nil {
		return err
	}
	return storeLiveReading(database, lookup, reading.SpotID, reading.Proximity, reading.Timestamp)
}

func storeLiveReading(database *db.DB, lookup map[string]db.SpotAssignment, spotID, proximity, timestamp string) error {
	state := occupancy.ClassifyReading(proximity)
	rec := occupancy.Record{
		SpotID:    spotID,
		Dataset:   "iot",
		RawStatus: proximity,
		State:     state,
		StateText: state.String(),
		Site:      ingest.UnknownSite,
		EventTime: timestamp,
	}
	if a, ok := lookup[spotID]; ok {
		rec.Site = a.Site
		rec.Lat = a.Lat
		rec.Lon = a.Lon
	}
	return database.RecordObservation("iot", rec, liveRunID)
}

func main() {
	flag.Parse()

	// migrate subcommand manages the schema itself, so dispatch against the
	// -db flag before any DB is opened with the base schema
	if flag.Arg(0) == "migrate" {
		db.RunMigrateCommand(flag.Args()[1:], *dbFile, migrationsDir)
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load site config: %v", err)
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if *meterCSV != "" || *iotCSV != "" {
		if err := runBatch(cfg, database); err != nil {
			log.Fatalf("Batch ingest failed: %v", err)
		}
	}

	if *listen == "" {
		return
	}

	var feed sensormux.SensorFeed
	if *devMode {
		data, err := os.ReadFile(*fixtures)
		if err != nil {
			log.Fatalf("failed to open fixtures file: %v", err)
		}
		feed = sensormux.NewMockFeed(data)
	} else if *serialPath != "" {
		feed, err = sensormux.NewSerialFeed(*serialPath)
		if err != nil {
			log.Fatalf("failed to open sensor port: %v", err)
		}
	}
	if feed != nil {
		defer feed.Close()
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lookup, err := assignmentLookup(database)
	if err != nil {
		log.Fatalf("failed to load spot assignments: %v", err)
	}

	if feed != nil {
		// run the monitor routine to manage IO on the sensor port
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := feed.Monitor(ctx); err != nil && err != context.Canceled {
				log.Printf("failed to monitor sensor port: %v", err)
			}
			log.Print("monitor routine terminated")
		}()

		// subscribe to the reading lines and store them
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, c := feed.Subscribe()
			defer feed.Unsubscribe(id)
			for {
				select {
				case line := <-c:
					if err := handleReading(database, lookup, line); err != nil {
						log.Printf("error handling reading: %v", err)
					}
				case <-ctx.Done():
					log.Printf("subscribe routine terminated")
					return
				}
			}
		}()
	}

	if *amqpURL != "" {
		consumer, err := broker.NewConsumer(broker.Config{URL: *amqpURL, Queue: *amqpQueue})
		if err != nil {
			log.Fatalf("failed to connect to broker: %v", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer consumer.Close()
			err := consumer.Consume(ctx, func(e broker.Event) error {
				return storeLiveReading(database, lookup, e.SpotID, e.Proximity.String(), e.Timestamp)
			})
			if err != nil && err != context.Canceled {
				log.Printf("broker consumer stopped: %v", err)
			}
			log.Print("broker routine terminated")
		}()
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// admin debugging routes (accessible only in dev mode or over Tailscale)
		database.AttachAdminRoutes(mux)
		if feed != nil {
			feed.AttachAdminRoutes(mux)
		}

		apiMux := api.NewServer(database).ServeMux()
		mux.Handle("/api/", http.StripPrefix("/api", apiMux))

		mapview.NewWebServer(database).AttachRoutes(mux)

		// embedded static files in production, local ./static in dev for
		// easier iteration without restarting the server
		var staticHandler http.Handler
		if *devMode {
			staticHandler = http.FileServer(http.Dir("./static"))
		} else {
			staticHandler = http.FileServer(http.FS(staticFiles))
		}
		mux.Handle("/", staticHandler)

		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("got request %q", r.URL.Path)
			mux.ServeHTTP(w, r)
		})

		server := &http.Server{
			Addr:    *listen,
			Handler: h,
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
