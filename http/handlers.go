package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"heartguard/dataset"
	"heartguard/db"
	"heartguard/ml"
	"heartguard/monitoring"
	"heartguard/vitals"
)

// RiskModel scores one raw feature row. The fitted model satisfies it;
// tests inject fakes.
type RiskModel interface {
	Assess(row []float64) (ml.Prediction, error)
}

// ModelInfo is the metadata surfaced by GET /api/model.
type ModelInfo struct {
	Features          int        `json:"features"`
	TrainingRows      int        `json:"training_rows"`
	TrainedAt         time.Time  `json:"trained_at"`
	DegenerateColumns []string   `json:"degenerate_columns,omitempty"`
	Metrics           ml.Metrics `json:"metrics"`
}

const assessCacheSize = 512

var (
	model       RiskModel
	modelInfo   ModelInfo
	monitor     *monitoring.Hub
	assessCache *lru.Cache[string, assessResponse]
)

// SetModel installs the risk model and resets the assessment cache.
func SetModel(m RiskModel) {
	model = m
	assessCache, _ = lru.New[string, assessResponse](assessCacheSize)
}

// SetModelInfo installs the metadata returned by GET /api/model.
func SetModelInfo(info ModelInfo) {
	modelInfo = info
}

// SetMonitor installs the websocket hub assessment events are published to.
func SetMonitor(h *monitoring.Hub) {
	monitor = h
}

// RegisterHandlers wires all routes onto the mux.
func RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/schema", handleSchema)
	mux.HandleFunc("POST /api/assess", handleAssess)
	mux.HandleFunc("GET /api/model", handleModel)
	mux.HandleFunc("GET /api/dataset/stats", handleDatasetStats)
	mux.HandleFunc("GET /api/training/log", handleTrainingLog)
	mux.HandleFunc("GET /api/ws/monitor", handleMonitorWS)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func handleSchema(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]interface{}{
		"features":   dataset.FeatureColumns(),
		"label":      dataset.LabelColumn,
		"categories": vitals.Categories(),
	})
}

type assessResponse struct {
	Risk        string  `json:"risk"`
	Label       int     `json:"label"`
	Probability float64 `json:"probability"`
	Confidence  float64 `json:"confidence"`
}

func handleAssess(w http.ResponseWriter, r *http.Request) {
	if model == nil {
		http.Error(w, `{"error":"model not ready"}`, http.StatusServiceUnavailable)
		return
	}

	var input vitals.PatientVitals
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, `{"error":"invalid json body"}`, http.StatusBadRequest)
		return
	}

	row, err := input.FeatureRow()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := cacheKey(row)
	if cached, ok := assessCache.Get(key); ok {
		publishAssessment(cached)
		respondJSON(w, cached)
		return
	}

	prediction, err := model.Assess(row)
	if err != nil {
		// The builder guarantees a schema-correct row; anything here is a
		// programming error, not a user condition.
		respondError(w, http.StatusInternalServerError, "assessment failed")
		return
	}

	response := assessResponse{
		Label:       prediction.Label,
		Probability: prediction.Probability,
	}
	if prediction.Label == 1 {
		response.Risk = "high_risk"
		response.Confidence = prediction.Probability * 100
	} else {
		response.Risk = "healthy"
		response.Confidence = (1 - prediction.Probability) * 100
	}

	assessCache.Add(key, response)
	publishAssessment(response)
	respondJSON(w, response)
}

func handleModel(w http.ResponseWriter, r *http.Request) {
	if model == nil {
		http.Error(w, `{"error":"model not ready"}`, http.StatusServiceUnavailable)
		return
	}
	respondJSON(w, modelInfo)
}

func handleDatasetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := db.QueryDatasetStats()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, stats)
}

func handleTrainingLog(w http.ResponseWriter, r *http.Request) {
	logs, err := db.LoadTrainingLog()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, logs)
}

func handleMonitorWS(w http.ResponseWriter, r *http.Request) {
	if monitor == nil {
		http.Error(w, `{"error":"monitor not running"}`, http.StatusServiceUnavailable)
		return
	}
	monitor.HandleWebSocket(w, r)
}

func publishAssessment(response assessResponse) {
	if monitor == nil {
		return
	}
	monitor.PublishAssessment(monitoring.Assessment{
		Risk:       response.Risk,
		Confidence: response.Confidence,
	})
}

func cacheKey(row []float64) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return strings.Join(parts, "|")
}

func respondJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
