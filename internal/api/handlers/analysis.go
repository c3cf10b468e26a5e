package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/peergap/internal/analysis"
	"github.com/wonny/peergap/internal/contracts"
	"github.com/wonny/peergap/pkg/logger"
)

// Analyzer is the analysis service surface used by the API
type Analyzer interface {
	DiscoverPeers(ctx context.Context, symbol string, maxPeers int) (*analysis.PeerSet, error)
	Run(ctx context.Context, req analysis.Request) (*analysis.RunResult, error)
}

// AnalysisHandler handles peer and analysis endpoints
// ⭐ SSOT: 분석 API 핸들러는 이 구조체에서만
type AnalysisHandler struct {
	analyzer Analyzer
	store    contracts.ReportStore // nil = reports not persisted
	logger   *logger.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analyzer Analyzer, store contracts.ReportStore, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analyzer: analyzer,
		store:    store,
		logger:   log.WithModule("api"),
	}
}

// RunResponse is the POST /api/analysis response
type RunResponse struct {
	RunID           string                    `json:"run_id"`
	CompletedStages []string                  `json:"completed_stages"`
	Persisted       bool                      `json:"persisted"`
	DurationMs      int64                     `json:"duration_ms"`
	Report          *contracts.AnalysisReport `json:"report"`
}

// GetPeers discovers peers for a symbol
// GET /api/peers/{symbol}?max=5
func (h *AnalysisHandler) GetPeers(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	maxPeers := 0
	if s := r.URL.Query().Get("max"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "max must be a positive integer")
			return
		}
		maxPeers = n
	}

	set, err := h.analyzer.DiscoverPeers(r.Context(), symbol, maxPeers)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Peer discovery failed")
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, set)
}

// RunAnalysis runs a full analysis synchronously
// Progress is streamed on /ws/analysis while the request is open.
// POST /api/analysis {"symbol":"WRB","peers":["CINF"],"override":false}
func (h *AnalysisHandler) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	var req analysis.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.analyzer.Run(r.Context(), req)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", req.Symbol).Error("Analysis failed")
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, RunResponse{
		RunID:           result.RunID,
		CompletedStages: result.CompletedStages,
		Persisted:       result.Persisted,
		DurationMs:      result.Duration.Milliseconds(),
		Report:          result.Report,
	})
}

// ListReports returns stored report summaries
// GET /api/analysis?symbol=WRB&limit=20
func (h *AnalysisHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "report storage is not configured")
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	reports, err := h.store.ListReports(ctx, r.URL.Query().Get("symbol"), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list reports")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve reports")
		return
	}
	if reports == nil {
		reports = []contracts.ReportSummary{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}

// GetReport returns one stored report
// GET /api/analysis/{id}
func (h *AnalysisHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "report storage is not configured")
		return
	}

	id := mux.Vars(r)["id"]
	report, err := h.store.GetReport(r.Context(), id)
	if err != nil {
		status := statusFor(err)
		if status != http.StatusNotFound {
			h.logger.WithError(err).WithField("report_id", id).Error("Failed to get report")
			status = http.StatusInternalServerError
		}
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, report)
}
