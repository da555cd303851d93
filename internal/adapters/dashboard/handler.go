// Package dashboard exposes the injection network over HTTP for the operator
// dashboard: entity reads, the guarded association workflow, projections and
// the advisory endpoint.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"injectcore/internal/core"
)

// Handler routes the /api/v1 surface.
type Handler struct {
	Service     *core.Service
	Projections *core.Projections
	Advisor     AdviseFunc
}

// AdviseFunc adapts any advisor to the handler without importing its package.
// Implementations never fail; they degrade to a fallback string internally.
type AdviseFunc func(ctx context.Context, snapshot core.FieldSnapshot) string

// NewHandler constructs the dashboard HTTP handler.
func NewHandler(svc *core.Service, projections *core.Projections, advisor AdviseFunc) *Handler {
	return &Handler{Service: svc, Projections: projections, Advisor: advisor}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		writeError(w, http.StatusInternalServerError, "service not configured")
		return
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case r.Method == http.MethodGet && path == "/api/v1/advisory":
		h.handleAdvisory(w, r)
	case path == "/api/v1/associations" || strings.HasPrefix(path, "/api/v1/associations/"):
		h.handleAssociations(w, r, path)
	case strings.HasPrefix(path, "/api/v1/tanks/") && strings.HasSuffix(path, "/fill"):
		h.handleTankFill(w, r, segmentBetween(path, "/api/v1/tanks/", "/fill"))
	case strings.HasPrefix(path, "/api/v1/tanks/") && strings.HasSuffix(path, "/pumps"):
		h.handleTankPumps(w, r, segmentBetween(path, "/api/v1/tanks/", "/pumps"))
	case strings.HasPrefix(path, "/api/v1/wells/") && strings.HasSuffix(path, "/consumption"):
		h.handleWellConsumption(w, r, segmentBetween(path, "/api/v1/wells/", "/consumption"))
	case strings.HasPrefix(path, "/api/v1/"):
		h.handleEntities(w, r, strings.TrimPrefix(path, "/api/v1/"))
	default:
		http.NotFound(w, r)
	}
}

// handleEntities serves the read side for the five reference collections.
func (h *Handler) handleEntities(w http.ResponseWriter, r *http.Request, remainder string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	collection, id, _ := strings.Cut(remainder, "/")
	switch collection {
	case "products":
		serveCollection(w, id, h.Service.ListProducts, h.Service.GetProduct)
	case "sites":
		serveCollection(w, id, h.Service.ListSites, h.Service.GetSite)
	case "tanks":
		serveCollection(w, id, h.Service.ListTanks, h.Service.GetTank)
	case "pumps":
		serveCollection(w, id, h.Service.ListPumps, h.Service.GetPump)
	case "wells":
		serveCollection(w, id, h.Service.ListWells, h.Service.GetWell)
	case "associations":
		serveCollection(w, id, h.Service.ListAssociations, h.Service.GetAssociation)
	default:
		http.NotFound(w, r)
	}
}

func serveCollection[T any](w http.ResponseWriter, id string, list func() []T, get func(string) (T, bool)) {
	if id == "" {
		items := list()
		if items == nil {
			items = []T{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
		return
	}
	item, ok := get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type associationResponse struct {
	OK          bool              `json:"ok"`
	Association *core.Association `json:"association,omitempty"`
	Reason      core.RejectReason `json:"reason,omitempty"`
	Message     string            `json:"message,omitempty"`
}

func (h *Handler) handleAssociations(w http.ResponseWriter, r *http.Request, path string) {
	if path == "/api/v1/associations" {
		switch r.Method {
		case http.MethodGet:
			h.handleEntities(w, r, "associations")
		case http.MethodPost:
			h.handleAssociationCreate(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	remainder := strings.TrimPrefix(path, "/api/v1/associations/")
	id, action, hasAction := strings.Cut(remainder, "/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	switch {
	case !hasAction && r.Method == http.MethodGet:
		h.handleEntities(w, r, "associations/"+id)
	case !hasAction && r.Method == http.MethodDelete:
		if _, err := h.Service.RemoveAssociation(r.Context(), id); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	case hasAction && action == "toggle" && r.Method == http.MethodPost:
		h.handleAssociationToggle(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleAssociationCreate(w http.ResponseWriter, r *http.Request) {
	var input core.AssociationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid association payload")
		return
	}
	created, _, err := h.Service.CreateAssociation(r.Context(), input)
	if err != nil {
		writeRejection(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, associationResponse{OK: true, Association: &created})
}

func (h *Handler) handleAssociationToggle(w http.ResponseWriter, r *http.Request, id string) {
	toggled, _, err := h.Service.ToggleAssociation(r.Context(), id)
	if err != nil {
		var notFound core.ErrNotFound
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeRejection(w, err)
		return
	}
	writeJSON(w, http.StatusOK, associationResponse{OK: true, Association: &toggled})
}

// writeRejection maps a rule violation to 422 with the first blocking reason;
// anything else is a plain error response.
func writeRejection(w http.ResponseWriter, err error) {
	var violation core.RuleViolationError
	if errors.As(err, &violation) {
		resp := associationResponse{OK: false, Message: err.Error()}
		if first, ok := violation.Result.FirstBlocking(); ok {
			resp.Reason = first.Reason
			resp.Message = first.Message
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

func (h *Handler) handleTankFill(w http.ResponseWriter, r *http.Request, id string) {
	if !h.requireProjections(w) || !requireGet(w, r) {
		return
	}
	fill, err := h.Projections.TankFillRatio(r.Context(), id)
	if err != nil {
		writeProjectionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fill)
}

func (h *Handler) handleTankPumps(w http.ResponseWriter, r *http.Request, id string) {
	if !h.requireProjections(w) || !requireGet(w, r) {
		return
	}
	pumps, err := h.Projections.TankPumps(r.Context(), id)
	if err != nil {
		writeProjectionError(w, err)
		return
	}
	if pumps == nil {
		pumps = []core.Pump{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tank_id": id, "pumps": pumps, "count": len(pumps)})
}

func (h *Handler) handleWellConsumption(w http.ResponseWriter, r *http.Request, id string) {
	if !h.requireProjections(w) || !requireGet(w, r) {
		return
	}
	consumption, err := h.Projections.WellConsumptionRate(r.Context(), id)
	if err != nil {
		writeProjectionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, consumption)
}

// handleAdvisory never reports an error: missing wiring or snapshot failures
// fall back to advisory text the advisor chooses.
func (h *Handler) handleAdvisory(w http.ResponseWriter, r *http.Request) {
	var snapshot core.FieldSnapshot
	if h.Projections != nil {
		if snap, err := h.Projections.Snapshot(r.Context()); err == nil {
			snapshot = snap
		}
	}
	text := ""
	if h.Advisor != nil {
		text = h.Advisor(r.Context(), snapshot)
	}
	writeJSON(w, http.StatusOK, map[string]any{"advisory": text})
}

func (h *Handler) requireProjections(w http.ResponseWriter) bool {
	if h.Projections == nil {
		writeError(w, http.StatusInternalServerError, "projections not configured")
		return false
	}
	return true
}

func requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func writeProjectionError(w http.ResponseWriter, err error) {
	var notFound core.ErrNotFound
	if errors.As(err, &notFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func segmentBetween(path, prefix, suffix string) string {
	return strings.TrimSuffix(strings.TrimPrefix(path, prefix), suffix)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
