// Package db stores pipeline output in sqlite: synthetic spot placements,
// classified observations, and per-structure capacity rollups, all tagged
// with the run that produced them.
package db

import (
	"compress/gzip"
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"

	"github.com/campus-data/parkmap/internal/ingest"
	"github.com/campus-data/parkmap/internal/occupancy"
)

type DB struct {
	*sql.DB
	path string
}

// OpenDB opens the database without initialising the schema. Used by the
// migrate subcommand, which manages the schema itself.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &DB{DB: db, path: path}, nil
}

// NewDB opens the database and ensures the base schema exists.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS spots (
			dataset           TEXT NOT NULL,
			spot_id           TEXT NOT NULL,
			site              TEXT NOT NULL,
			lat               DOUBLE NOT NULL,
			lon               DOUBLE NOT NULL,
			run_id            TEXT NOT NULL,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (dataset, spot_id, run_id)
		);
		CREATE TABLE IF NOT EXISTS observations (
			dataset           TEXT NOT NULL,
			spot_id           TEXT NOT NULL,
			raw_status        TEXT,
			state             TEXT NOT NULL,
			site              TEXT NOT NULL,
			lat               DOUBLE,
			lon               DOUBLE,
			event_time        TEXT,
			run_id            TEXT NOT NULL,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS capacity (
			dataset           TEXT NOT NULL,
			site              TEXT NOT NULL,
			position          BIGINT NOT NULL,
			total             BIGINT NOT NULL,
			occupied          BIGINT NOT NULL,
			vacant            BIGINT NOT NULL,
			pct_full          DOUBLE NOT NULL,
			run_id            TEXT NOT NULL,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return nil, err
	}

	return db, nil
}

// StoreRun persists one full pipeline result in a single transaction.
func (db *DB) StoreRun(result *ingest.Result) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, ds := range []ingest.DatasetResult{result.Meter, result.IoT} {
		if ds.Name == "" {
			continue
		}
		for id, a := range ds.Assignments {
			if _, err := tx.Exec(
				`INSERT INTO spots (dataset, spot_id, site, lat, lon, run_id) VALUES (?, ?, ?, ?, ?, ?)`,
				ds.Name, id, a.Site, a.Lat, a.Lon, result.RunID,
			); err != nil {
				return fmt.Errorf("failed to insert spot %s: %w", id, err)
			}
		}
		for _, r := range ds.Records {
			if _, err := tx.Exec(
				`INSERT INTO observations (dataset, spot_id, raw_status, state, site, lat, lon, event_time, run_id)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				ds.Name, r.SpotID, r.RawStatus, r.State.String(), r.Site, r.Lat, r.Lon, r.EventTime, result.RunID,
			); err != nil {
				return fmt.Errorf("failed to insert observation for %s: %w", r.SpotID, err)
			}
		}
		for i, s := range ds.Capacity {
			if _, err := tx.Exec(
				`INSERT INTO capacity (dataset, site, position, total, occupied, vacant, pct_full, run_id)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				ds.Name, s.Site, i, s.Total, s.Occupied, s.Vacant, s.PctFull, result.RunID,
			); err != nil {
				return fmt.Errorf("failed to insert capacity for %s: %w", s.Site, err)
			}
		}
	}

	return tx.Commit()
}

// RecordObservation stores one live observation (serial or broker feed).
func (db *DB) RecordObservation(dataset string, r occupancy.Record, runID string) error {
	_, err := db.Exec(
		`INSERT INTO observations (dataset, spot_id, raw_status, state, site, lat, lon, event_time, run_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		dataset, r.SpotID, r.RawStatus, r.State.String(), r.Site, r.Lat, r.Lon, r.EventTime, runID,
	)
	if err != nil {
		return err
	}
	return nil
}

// SpotAssignment is one stored placement row.
type SpotAssignment struct {
	Dataset string  `json:"dataset"`
	SpotID  string  `json:"spot_id"`
	Site    string  `json:"site"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Assignments returns the placements stored by the most recent run for the
// given dataset.
func (db *DB) Assignments(dataset string) ([]SpotAssignment, error) {
	rows, err := db.Query(
		`SELECT dataset, spot_id, site, lat, lon FROM spots
		 WHERE dataset = ? AND run_id = (
			SELECT run_id FROM spots WHERE dataset = ? ORDER BY timestamp DESC, rowid DESC LIMIT 1
		 )
		 ORDER BY spot_id`,
		dataset, dataset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []SpotAssignment
	for rows.Next() {
		var a SpotAssignment
		if err := rows.Scan(&a.Dataset, &a.SpotID, &a.Site, &a.Lat, &a.Lon); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assignments, nil
}

// Observations returns the most recent stored observations for a dataset,
// newest first.
func (db *DB) Observations(dataset string, limit int) ([]occupancy.Record, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := db.Query(
		`SELECT spot_id, raw_status, state, site, lat, lon, event_time FROM observations
		 WHERE dataset = ? ORDER BY rowid DESC LIMIT ?`,
		dataset, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []occupancy.Record
	for rows.Next() {
		var r occupancy.Record
		if err := rows.Scan(&r.SpotID, &r.RawStatus, &r.StateText, &r.Site, &r.Lat, &r.Lon, &r.EventTime); err != nil {
			return nil, err
		}
		r.Dataset = dataset
		if r.StateText == occupancy.Vacant.String() {
			r.State = occupancy.Vacant
		} else {
			r.State = occupancy.Occupied
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// LatestCapacity returns the capacity rollup stored by the most recent run
// for a dataset, in the order the aggregator emitted it.
func (db *DB) LatestCapacity(dataset string) ([]occupancy.SiteSummary, error) {
	rows, err := db.Query(
		`SELECT site, total, occupied, vacant, pct_full FROM capacity
		 WHERE dataset = ? AND run_id = (
			SELECT run_id FROM capacity WHERE dataset = ? ORDER BY timestamp DESC, rowid DESC LIMIT 1
		 )
		 ORDER BY position`,
		dataset, dataset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []occupancy.SiteSummary
	for rows.Next() {
		var s occupancy.SiteSummary
		if err := rows.Scan(&s.Site, &s.Total, &s.Occupied, &s.Vacant, &s.PctFull); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// AttachAdminRoutes mounts debug endpoints on the given mux: tailSQL live
// querying plus an on-demand gzip backup download. These are served under
// /debug/ and are not part of the public API.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://"+db.path, db.DB, &tailsql.DBOptions{
		Label: "Parking DB",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		unixTime := time.Now().Unix()
		backupPath := fmt.Sprintf("backup-%d.db", unixTime)
		if _, err := db.DB.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Encoding", "gzip")

		backupFile, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}
		defer func() {
			backupFile.Close()
			if err := os.Remove(backupPath); err != nil {
				log.Printf("Failed to remove backup file: %v", err)
			}
		}()

		gzipWriter := gzip.NewWriter(w)
		defer gzipWriter.Close()
		if _, err := io.Copy(gzipWriter, backupFile); err != nil {
			http.Error(w, fmt.Sprintf("Failed to write backup file: %v", err), http.StatusInternalServerError)
			return
		}
	}))
}
