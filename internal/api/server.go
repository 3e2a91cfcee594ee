// Package api serves the JSON API over the stored pipeline output.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/campus-data/parkmap/internal/db"
	"github.com/campus-data/parkmap/internal/occupancy"
)

// Server exposes assignments, observations, capacity and fleet stats.
type Server struct {
	db *db.DB
}

func NewServer(database *db.DB) *Server {
	return &Server{db: database}
}

// ServeMux returns the API routes. Callers mount it under /api/.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/assignments", s.listAssignments)
	mux.HandleFunc("/records", s.listRecords)
	mux.HandleFunc("/capacity", s.listCapacity)
	mux.HandleFunc("/stats", s.fleetStats)
	mux.HandleFunc("/", s.homeHandler)
	return mux
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Campus Parking Map API"))
}

// dataset returns the requested dataset name, defaulting to the meter feed.
func dataset(r *http.Request) string {
	if ds := r.URL.Query().Get("dataset"); ds != "" {
		return ds
	}
	return "meter"
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) listAssignments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	assignments, err := s.db.Assignments(dataset(r))
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to retrieve assignments: "+err.Error())
		return
	}
	if assignments == nil {
		assignments = []db.SpotAssignment{}
	}
	s.writeJSON(w, assignments)
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	records, err := s.db.Observations(dataset(r), limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to retrieve records: "+err.Error())
		return
	}
	if records == nil {
		records = []occupancy.Record{}
	}
	s.writeJSON(w, records)
}

func (s *Server) listCapacity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	summaries, err := s.db.LatestCapacity(dataset(r))
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to retrieve capacity: "+err.Error())
		return
	}
	if summaries == nil {
		summaries = []occupancy.SiteSummary{}
	}
	s.writeJSON(w, summaries)
}

func (s *Server) fleetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	summaries, err := s.db.LatestCapacity(dataset(r))
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to retrieve capacity: "+err.Error())
		return
	}
	s.writeJSON(w, occupancy.Stats(summaries))
}
