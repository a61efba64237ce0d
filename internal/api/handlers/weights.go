package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mtarnawa/signalgate/internal/contracts"
	"github.com/mtarnawa/signalgate/internal/optimizer"
	"github.com/mtarnawa/signalgate/pkg/config"
	"github.com/mtarnawa/signalgate/pkg/logger"
)

// WeightsHandler handles weight config endpoints
type WeightsHandler struct {
	weights   contracts.WeightStore
	optimizer *optimizer.Optimizer
	config    *config.Config
	logger    *logger.Logger
}

// NewWeightsHandler creates a weights handler
func NewWeightsHandler(weights contracts.WeightStore, opt *optimizer.Optimizer, cfg *config.Config, log *logger.Logger) *WeightsHandler {
	return &WeightsHandler{
		weights:   weights,
		optimizer: opt,
		config:    cfg,
		logger:    log,
	}
}

// List returns all weight configs, newest first
// GET /api/weights
func (h *WeightsHandler) List(w http.ResponseWriter, r *http.Request) {
	configs, err := h.weights.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list weight configs")
		respondError(w, http.StatusInternalServerError, "Failed to list weight configs")
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

// Active returns the active weight config
// GET /api/weights/active
func (h *WeightsHandler) Active(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.weights.Active(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get active weight config")
		respondError(w, http.StatusInternalServerError, "Failed to get active weight config")
		return
	}

	respondJSON(w, http.StatusOK, cfg)
}

// OptimizeRequest configures an optimization run
type OptimizeRequest struct {
	WindowDays   int     `json:"window_days,omitempty"`
	LearningRate float64 `json:"learning_rate,omitempty"`

	// Commit activates the proposal immediately instead of just
	// returning it
	Commit bool `json:"commit,omitempty"`
}

// OptimizeResponse pairs the proposal with the config it produced,
// when committed
type OptimizeResponse struct {
	Proposal  *optimizer.Proposal     `json:"proposal"`
	Committed *contracts.WeightConfig `json:"committed,omitempty"`
}

// Optimize runs the weight optimizer over recent outcomes
// POST /api/weights/optimize
func (h *WeightsHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := OptimizeRequest{
		WindowDays:   h.config.Scoring.OptimizerWindow,
		LearningRate: h.config.Scoring.OptimizerRate,
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	proposal, err := h.optimizer.Propose(ctx, req.WindowDays, req.LearningRate)
	if err != nil {
		h.logger.WithError(err).Error("Failed to propose weights")
		respondError(w, http.StatusInternalServerError, "Failed to propose weights")
		return
	}

	resp := OptimizeResponse{Proposal: proposal}

	if req.Commit && !proposal.Insufficient {
		committed, err := h.optimizer.Commit(ctx, proposal)
		if err != nil {
			h.logger.WithError(err).Error("Failed to commit weights")
			respondError(w, http.StatusInternalServerError, "Failed to commit weights")
			return
		}
		resp.Committed = committed
	}

	respondJSON(w, http.StatusOK, resp)
}

// Activate makes an existing weight config version active
// POST /api/weights/{version}/activate
func (h *WeightsHandler) Activate(w http.ResponseWriter, r *http.Request) {
	version := mux.Vars(r)["version"]

	if err := h.weights.Activate(r.Context(), version); err != nil {
		h.logger.WithError(err).WithField("version", version).Error("Failed to activate weight config")
		respondError(w, http.StatusNotFound, "Failed to activate weight config")
		return
	}

	cfg, err := h.weights.Get(r.Context(), version)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Activated but failed to reload config")
		return
	}

	respondJSON(w, http.StatusOK, cfg)
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
