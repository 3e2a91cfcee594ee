// Package layout produces synthetic map coordinates for parking spots.
//
// Neither source dataset carries real per-spot positions, so spots are laid
// out on a regular grid centered on the parking structure each spot is
// assigned to. Assignment is positional: the ordered identifier list is cut
// into contiguous chunks, one per structure, in structure order.
package layout

import "math"

// Site is a named grid center (a physical parking structure).
type Site struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Coordinate is a synthetic latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Assignment is the placement of one spot: its grid coordinate plus the
// structure the spot was assigned to.
type Assignment struct {
	Coordinate
	Site string `json:"site"`
}

// UniqueIDs returns ids with duplicates removed, preserving first-seen
// order. Chunk boundaries depend on position, so the order of the result
// is significant.
func UniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// GridCoords lays out ids as a rectangular grid of coordinates centered on
// (baseLat, baseLon). The i-th identifier lands at row i/perRow, column
// i%perRow, with the whole grid shifted so it is symmetric around the base
// point regardless of how many rows it needs. An empty id list yields an
// empty map.
func GridCoords(ids []string, baseLat, baseLon, spacing float64, perRow int) map[string]Coordinate {
	coords := make(map[string]Coordinate, len(ids))
	if len(ids) == 0 || perRow <= 0 {
		return coords
	}

	rows := int(math.Ceil(float64(len(ids)) / float64(perRow)))
	rowCenter := float64(rows-1) / 2.0
	colCenter := float64(perRow-1) / 2.0

	for i, id := range ids {
		row := i / perRow
		col := i % perRow
		coords[id] = Coordinate{
			Lat: baseLat + (float64(row)-rowCenter)*spacing,
			Lon: baseLon + (float64(col)-colCenter)*spacing,
		}
	}
	return coords
}

// AssignToSites partitions ids across sites and grids each partition around
// its site. ids must already be deduplicated (see UniqueIDs); both ids and
// sites are consumed in order.
//
// The chunk size is ceil(N/K), so when N does not divide evenly the early
// sites receive full chunks and the tail sites receive a short chunk or
// nothing at all. This front-loaded split is deliberately preserved for
// compatibility: changing it would move spots to different structures and
// coordinates between versions.
func AssignToSites(ids []string, sites []Site, spacing float64, perRow int) map[string]Assignment {
	assignments := make(map[string]Assignment, len(ids))
	if len(ids) == 0 || len(sites) == 0 {
		return assignments
	}

	chunkSize := int(math.Ceil(float64(len(ids)) / float64(len(sites))))
	idx := 0

	for _, site := range sites {
		if idx >= len(ids) {
			break
		}
		end := idx + chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[idx:end]

		for id, c := range GridCoords(chunk, site.Lat, site.Lon, spacing, perRow) {
			assignments[id] = Assignment{Coordinate: c, Site: site.Name}
		}
		idx = end
	}
	return assignments
}
