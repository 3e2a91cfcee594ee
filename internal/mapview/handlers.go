package mapview

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/campus-data/parkmap/internal/db"
)

// WebServer serves the charts over HTTP from the stored pipeline output.
type WebServer struct {
	db *db.DB
}

func NewWebServer(database *db.DB) *WebServer {
	return &WebServer{db: database}
}

// AttachRoutes mounts the chart endpoints under /charts/.
func (ws *WebServer) AttachRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/charts/map", ws.handleSpotMap)
	mux.HandleFunc("/charts/capacity", ws.handleCapacity)
	mux.HandleFunc("/charts/dashboard", ws.handleDashboard)
}

func (ws *WebServer) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (ws *WebServer) handleSpotMap(w http.ResponseWriter, r *http.Request) {
	meter, err := ws.db.Observations("meter", 0)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load meter records: %v", err))
		return
	}
	iot, err := ws.db.Observations("iot", 0)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load iot records: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := RenderSpotMap(w, meter, iot); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render map: %v", err))
	}
}

func (ws *WebServer) handleCapacity(w http.ResponseWriter, r *http.Request) {
	summaries, err := ws.db.LatestCapacity("meter")
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load capacity: %v", err))
		return
	}
	if len(summaries) == 0 {
		ws.writeJSONError(w, http.StatusNotFound, "no capacity rollup stored yet")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := RenderCapacityChart(w, summaries); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render capacity chart: %v", err))
	}
}

func (ws *WebServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summaries, err := ws.db.LatestCapacity("meter")
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load capacity: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := RenderDashboard(w, summaries); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render dashboard: %v", err))
	}
}
