package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/mtarnawa/signalgate/internal/contracts"
	"github.com/mtarnawa/signalgate/internal/pipeline"
	"github.com/mtarnawa/signalgate/internal/scoring"
	"github.com/mtarnawa/signalgate/pkg/logger"
)

// SignalHandler handles signal scoring and evaluation endpoints
type SignalHandler struct {
	signals     contracts.SignalReader
	scores      contracts.ScoreStore
	evaluations contracts.EvaluationStore
	scorer      *scoring.Scorer
	pipeline    *pipeline.Pipeline
	logger      *logger.Logger
}

// NewSignalHandler creates a signal handler
func NewSignalHandler(
	signals contracts.SignalReader,
	scores contracts.ScoreStore,
	evaluations contracts.EvaluationStore,
	scorer *scoring.Scorer,
	pipe *pipeline.Pipeline,
	log *logger.Logger,
) *SignalHandler {
	return &SignalHandler{
		signals:     signals,
		scores:      scores,
		evaluations: evaluations,
		scorer:      scorer,
		pipeline:    pipe,
		logger:      log,
	}
}

// Evaluate runs a signal through the validation pipeline
// POST /api/signals/{id}/evaluate
func (h *SignalHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sig, ok := h.loadSignal(w, r)
	if !ok {
		return
	}

	eval, err := h.pipeline.Evaluate(ctx, sig)
	if err != nil {
		h.logger.WithError(err).Error("Failed to evaluate signal")
		respondError(w, http.StatusInternalServerError, "Failed to evaluate signal")
		return
	}

	respondJSON(w, http.StatusOK, eval)
}

// Score computes and stores the score for a signal
// POST /api/signals/{id}/score
func (h *SignalHandler) Score(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sig, ok := h.loadSignal(w, r)
	if !ok {
		return
	}

	score, err := h.scorer.Score(ctx, sig)
	if err != nil {
		h.logger.WithError(err).Error("Failed to score signal")
		respondError(w, http.StatusInternalServerError, "Failed to score signal")
		return
	}

	respondJSON(w, http.StatusOK, score)
}

// GetScore returns the stored score for a signal
// GET /api/signals/{id}/score
func (h *SignalHandler) GetScore(w http.ResponseWriter, r *http.Request) {
	id, ok := signalID(w, r)
	if !ok {
		return
	}

	score, err := h.scores.GetBySignal(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "No score for signal")
		return
	}

	respondJSON(w, http.StatusOK, score)
}

// GetEvaluation returns the stored evaluation for a signal
// GET /api/signals/{id}/evaluation
func (h *SignalHandler) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	id, ok := signalID(w, r)
	if !ok {
		return
	}

	eval, err := h.evaluations.GetBySignal(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "No evaluation for signal")
		return
	}

	respondJSON(w, http.StatusOK, eval)
}

// RescoreRequest narrows a bulk rescore
type RescoreRequest struct {
	Strategy  string `json:"strategy,omitempty"`
	Symbol    string `json:"symbol,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	From      string `json:"from,omitempty"` // RFC 3339
	To        string `json:"to,omitempty"`
}

// Rescore recomputes scores for signals matching the filter
// POST /api/signals/rescore
func (h *SignalHandler) Rescore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RescoreRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	filter := contracts.SignalFilter{
		Strategy:  req.Strategy,
		Symbol:    req.Symbol,
		Timeframe: req.Timeframe,
	}

	var err error
	if filter.From, err = parseTime(req.From); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid from timestamp")
		return
	}
	if filter.To, err = parseTime(req.To); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid to timestamp")
		return
	}

	summary, err := h.scorer.BulkRescore(ctx, h.signals, filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to rescore signals")
		respondError(w, http.StatusInternalServerError, "Failed to rescore signals")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// loadSignal resolves the path id to a signal, writing the error
// response itself on failure
func (h *SignalHandler) loadSignal(w http.ResponseWriter, r *http.Request) (*contracts.Signal, bool) {
	id, ok := signalID(w, r)
	if !ok {
		return nil, false
	}

	sig, err := h.signals.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Signal not found")
		return nil, false
	}

	return sig, true
}

func signalID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid signal id")
		return 0, false
	}
	return id, true
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
