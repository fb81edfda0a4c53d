// Package http exposes the toilet service endpoints consumed by the map
// UI. All routes are CORS-enabled for every origin, answer OPTIONS
// preflights with an empty 200 and reject other methods with 405.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/uber-go/tally/v6"
	"go.uber.org/zap"

	"toiletmap/internal/controller/toilet"
	"toiletmap/pkg/logging"
	"toiletmap/pkg/metrics"
	"toiletmap/pkg/model"
)

// Handler defines the toilet HTTP handler.
type Handler struct {
	ctrl          *toilet.Controller
	logger        *zap.Logger
	addMetrics    *metrics.EndpointMetrics
	voteMetrics   *metrics.EndpointMetrics
	updateMetrics *metrics.EndpointMetrics
	deleteMetrics *metrics.EndpointMetrics
	listMetrics   *metrics.EndpointMetrics
}

// New creates a new toilet HTTP handler.
func New(ctrl *toilet.Controller, logger *zap.Logger, scope tally.Scope) *Handler {
	logger = logger.With(
		zap.String(logging.FieldComponent, "handler"),
		zap.String(logging.FieldType, "http"),
	)
	return &Handler{
		ctrl:          ctrl,
		logger:        logger,
		addMetrics:    metrics.NewEndpointMetrics(scope, "AddToilet"),
		voteMetrics:   metrics.NewEndpointMetrics(scope, "UpdateToilet"),
		updateMetrics: metrics.NewEndpointMetrics(scope, "UpdateToiletDetails"),
		deleteMetrics: metrics.NewEndpointMetrics(scope, "DeleteToilet"),
		listMetrics:   metrics.NewEndpointMetrics(scope, "ListToilets"),
	}
}

// Routes builds the service router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(cors)
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "Method not allowed"})
	})
	r.Post("/add-toilet", h.AddToilet)
	r.Post("/update-toilet", h.UpdateToilet)
	r.Post("/update-toilet-details", h.UpdateToiletDetails)
	r.Post("/delete-toilet", h.DeleteToilet)
	r.Get("/toilets", h.ListToilets)
	return r
}

// cors allows every origin and short-circuits preflight requests.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// AddToilet handles POST /add-toilet requests.
func (h *Handler) AddToilet(w http.ResponseWriter, req *http.Request) {
	h.addMetrics.Calls.Inc(1)
	var in model.CreateToiletRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		h.addMetrics.InvalidArgumentErrors.Inc(1)
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Invalid request body"})
		return
	}
	res, err := h.ctrl.Create(req.Context(), &in)
	if err != nil {
		h.writeError(w, err, h.addMetrics)
		return
	}
	h.addMetrics.Successes.Inc(1)
	body := map[string]any{
		"success": true,
		"message": "Toilet added successfully",
		"toilet":  res.Toilet,
	}
	if res.ImageErr != nil {
		body["imageError"] = res.ImageErr.Error()
	}
	writeJSON(w, http.StatusOK, body)
}

type updateToiletRequest struct {
	ToiletID     string         `json:"toiletId"`
	Action       model.VoteKind `json:"action"`
	PreviousVote model.VoteKind `json:"previousVote"`
}

// UpdateToilet handles POST /update-toilet requests (like/dislike votes).
func (h *Handler) UpdateToilet(w http.ResponseWriter, req *http.Request) {
	h.voteMetrics.Calls.Inc(1)
	var in updateToiletRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil || in.ToiletID == "" || in.Action == "" {
		h.voteMetrics.InvalidArgumentErrors.Inc(1)
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Missing required parameters"})
		return
	}
	t, err := h.ctrl.Vote(req.Context(), model.ToiletID(in.ToiletID), in.Action, in.PreviousVote)
	if err != nil {
		h.writeError(w, err, h.voteMetrics)
		return
	}
	h.voteMetrics.Successes.Inc(1)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Toilet " + in.ToiletID + " updated successfully",
		"toilet":  t,
	})
}

type updateDetailsRequest struct {
	ToiletID string `json:"toiletId"`
	model.ToiletUpdate
}

// UpdateToiletDetails handles POST /update-toilet-details requests. The
// body is a typed partial update; unknown keys are rejected.
func (h *Handler) UpdateToiletDetails(w http.ResponseWriter, req *http.Request) {
	h.updateMetrics.Calls.Inc(1)
	dec := json.NewDecoder(req.Body)
	dec.DisallowUnknownFields()
	var in updateDetailsRequest
	if err := dec.Decode(&in); err != nil || in.ToiletID == "" {
		h.updateMetrics.InvalidArgumentErrors.Inc(1)
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Missing required parameters"})
		return
	}
	res, err := h.ctrl.Update(req.Context(), model.ToiletID(in.ToiletID), &in.ToiletUpdate)
	if err != nil {
		h.writeError(w, err, h.updateMetrics)
		return
	}
	h.updateMetrics.Successes.Inc(1)
	body := map[string]any{
		"success": true,
		"message": "Toilet updated successfully",
		"toilet":  res.Toilet,
	}
	if res.ImageErr != nil {
		body["imageError"] = res.ImageErr.Error()
	}
	writeJSON(w, http.StatusOK, body)
}

type deleteToiletRequest struct {
	ToiletID string `json:"toiletId"`
}

// DeleteToilet handles POST /delete-toilet requests.
func (h *Handler) DeleteToilet(w http.ResponseWriter, req *http.Request) {
	h.deleteMetrics.Calls.Inc(1)
	var in deleteToiletRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil || in.ToiletID == "" {
		h.deleteMetrics.InvalidArgumentErrors.Inc(1)
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Missing required parameters"})
		return
	}
	if err := h.ctrl.Delete(req.Context(), model.ToiletID(in.ToiletID)); err != nil {
		h.writeError(w, err, h.deleteMetrics)
		return
	}
	h.deleteMetrics.Successes.Inc(1)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Toilet deleted"})
}

// ListToilets handles GET /toilets requests: the startup load of every
// persisted record.
func (h *Handler) ListToilets(w http.ResponseWriter, req *http.Request) {
	h.listMetrics.Calls.Inc(1)
	toilets, err := h.ctrl.List(req.Context())
	if err != nil {
		h.writeError(w, err, h.listMetrics)
		return
	}
	h.listMetrics.Successes.Inc(1)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "toilets": toilets})
}

func (h *Handler) writeError(w http.ResponseWriter, err error, m *metrics.EndpointMetrics) {
	switch {
	case errors.Is(err, toilet.ErrValidation):
		m.InvalidArgumentErrors.Inc(1)
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": err.Error()})
	case errors.Is(err, toilet.ErrNotFound):
		m.NotFoundErrors.Inc(1)
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Toilet file not found"})
	case errors.Is(err, toilet.ErrImageTooLarge):
		m.TooLargeErrors.Inc(1)
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{"success": false, "error": "Image too large", "details": err.Error()})
	case errors.Is(err, toilet.ErrConflict):
		m.ConflictErrors.Inc(1)
		writeJSON(w, http.StatusConflict, map[string]any{"success": false, "error": "Concurrent modification, please retry", "details": err.Error()})
	default:
		m.InternalErrors.Inc(1)
		h.logger.Warn("Internal error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "Internal server error", "details": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
