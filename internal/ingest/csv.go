// Package ingest reads the two source occupancy tables and runs them
// through layout assignment and classification.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/campus-data/parkmap/internal/occupancy"
)

// Row is one raw observation before classification.
type Row struct {
	SpotID    string
	RawStatus string
	EventTime string
}

// Dataset is one source table: its rows in file order plus the status
// encoding its raw values use.
type Dataset struct {
	Name     string
	Encoding occupancy.Encoding
	Rows     []Row
}

// Column names in the meter export.
const (
	meterIDColumn     = "SpaceID"
	meterStatusColumn = "OccupancyState"
	meterTimeColumn   = "EventTime_UTC"
)

// Column names in the IoT export.
const (
	sensorIDColumn     = "Parking_Spot_ID"
	sensorStatusColumn = "Sensor_Reading_Proximity"
	sensorTimeColumn   = "Timestamp"
)

// ReadMeterCSV reads the parking-meter occupancy export. The status column
// carries textual states ("VACANT"/"OCCUPIED"). maxRows > 0 caps how many
// data rows are kept.
func ReadMeterCSV(r io.Reader, maxRows int) (*Dataset, error) {
	rows, err := readRows(r, meterIDColumn, meterStatusColumn, meterTimeColumn, maxRows)
	if err != nil {
		return nil, fmt.Errorf("meter dataset: %w", err)
	}
	return &Dataset{Name: "meter", Encoding: occupancy.LabelEncoding, Rows: rows}, nil
}

// ReadSensorCSV reads the IoT proximity export. The status column carries
// numeric sensor readings (0 = no car present).
func ReadSensorCSV(r io.Reader, maxRows int) (*Dataset, error) {
	rows, err := readRows(r, sensorIDColumn, sensorStatusColumn, sensorTimeColumn, maxRows)
	if err != nil {
		return nil, fmt.Errorf("sensor dataset: %w", err)
	}
	return &Dataset{Name: "iot", Encoding: occupancy.ReadingEncoding, Rows: rows}, nil
}

// readRows parses a CSV stream, addressing columns by header name so the
// exports can carry extra columns in any order. A missing status or time
// cell yields an empty string, never an error; only a missing identifier
// column is fatal.
func readRows(r io.Reader, idCol, statusCol, timeCol string, maxRows int) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	idIdx, statusIdx, timeIdx := -1, -1, -1
	for i, name := range header {
		switch name {
		case idCol:
			idIdx = i
		case statusCol:
			statusIdx = i
		case timeCol:
			timeIdx = i
		}
	}
	if idIdx < 0 {
		return nil, fmt.Errorf("missing required column %q", idCol)
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(rows)+2, err)
		}
		if maxRows > 0 && len(rows) >= maxRows {
			break
		}

		row := Row{SpotID: field(record, idIdx)}
		if row.SpotID == "" {
			continue
		}
		row.RawStatus = field(record, statusIdx)
		row.EventTime = field(record, timeIdx)
		rows = append(rows, row)
	}
	return rows, nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}
