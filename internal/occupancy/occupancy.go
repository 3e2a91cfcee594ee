// Package occupancy normalizes the two source status encodings into a
// single vacant/occupied classification and rolls occupancy up per
// parking structure.
package occupancy

import (
	"math"
	"strconv"
	"strings"
)

// Classification is the binary occupancy outcome for one observation.
type Classification int

const (
	Occupied Classification = iota
	Vacant
)

func (c Classification) String() string {
	if c == Vacant {
		return "VACANT"
	}
	return "OCCUPIED"
}

// Encoding names the raw status representation a dataset uses.
type Encoding int

const (
	// LabelEncoding is the meter feed's textual state ("VACANT"/"OCCUPIED").
	LabelEncoding Encoding = iota
	// ReadingEncoding is the IoT feed's numeric proximity reading (0 = no
	// car present).
	ReadingEncoding
)

// ClassifyLabel maps a textual occupancy state to a Classification. The
// value is trimmed and case-folded; only an exact "VACANT" counts as
// vacant. Anything else, including a missing value, is occupied.
func ClassifyLabel(raw string) Classification {
	if strings.ToUpper(strings.TrimSpace(raw)) == "VACANT" {
		return Vacant
	}
	return Occupied
}

// ClassifyReading maps a proximity sensor reading to a Classification. A
// reading of exactly zero means no car present. A missing or unparseable
// reading defaults to the non-zero sentinel and therefore classifies as
// occupied.
func ClassifyReading(raw string) Classification {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return Occupied
	}
	if v == 0 {
		return Vacant
	}
	return Occupied
}

// Classify resolves a raw status under the given encoding. Callers pick
// the encoding once per dataset at ingestion; nothing downstream branches
// on the raw representation again.
func Classify(raw string, enc Encoding) Classification {
	if enc == ReadingEncoding {
		return ClassifyReading(raw)
	}
	return ClassifyLabel(raw)
}

// Record is one classified observation, already merged with its synthetic
// placement.
type Record struct {
	SpotID    string         `json:"spot_id"`
	Dataset   string         `json:"dataset"`
	RawStatus string         `json:"raw_status"`
	State     Classification `json:"-"`
	StateText string         `json:"state"`
	Site      string         `json:"site"`
	Lat       float64        `json:"lat"`
	Lon       float64        `json:"lon"`
	EventTime string         `json:"event_time,omitempty"`
}

// SiteSummary is the per-structure capacity rollup.
type SiteSummary struct {
	Site     string  `json:"site"`
	Total    int     `json:"total"`
	Occupied int     `json:"occupied"`
	Vacant   int     `json:"vacant"`
	PctFull  float64 `json:"pct_full"`
}

// Summarize groups records by site and counts totals, occupied and vacant
// spots per site, plus percent-full rounded to one decimal. Sites appear
// in first-seen record order; a site with no records is never emitted, so
// the percentage is always well defined.
func Summarize(records []Record) []SiteSummary {
	order := make([]string, 0)
	totals := make(map[string]int)
	occupied := make(map[string]int)

	for _, r := range records {
		if _, ok := totals[r.Site]; !ok {
			order = append(order, r.Site)
		}
		totals[r.Site]++
		if r.State == Occupied {
			occupied[r.Site]++
		}
	}

	summaries := make([]SiteSummary, 0, len(order))
	for _, site := range order {
		total := totals[site]
		occ := occupied[site]
		summaries = append(summaries, SiteSummary{
			Site:     site,
			Total:    total,
			Occupied: occ,
			Vacant:   total - occ,
			PctFull:  math.Round(float64(occ)/float64(total)*1000) / 10,
		})
	}
	return summaries
}
