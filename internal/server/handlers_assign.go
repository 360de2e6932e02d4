package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/assign"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/metrics"
)

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var assignRequest struct {
		OrderIDs []string `json:"order_ids"`
		DriverID string   `json:"driver_id"`
	}
	if err := decodeJSON(r, &assignRequest); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(assignRequest.OrderIDs) == 0 {
		respondError(w, http.StatusBadRequest, "Missing order_ids")
		return
	}

	updated, err := s.assigner.AssignDriver(assignRequest.OrderIDs, assignRequest.DriverID)
	if err != nil {
		if errors.Is(err, assign.ErrNoDriver) {
			respondError(w, http.StatusBadRequest, "Missing driver_id")
			return
		}
		metrics.OperationErrorsTotal.WithLabelValues("assign").Inc()
		respondError(w, http.StatusInternalServerError, "Failed to assign orders")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleUnassign(w http.ResponseWriter, r *http.Request) {
	var unassignRequest struct {
		OrderIDs []string `json:"order_ids"`
	}
	if err := decodeJSON(r, &unassignRequest); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(unassignRequest.OrderIDs) == 0 {
		respondError(w, http.StatusBadRequest, "Missing order_ids")
		return
	}

	updated, err := s.assigner.Unassign(unassignRequest.OrderIDs)
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("unassign").Inc()
		respondError(w, http.StatusInternalServerError, "Failed to unassign orders")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDriverLoad(w http.ResponseWriter, r *http.Request) {
	driverID := mux.Vars(r)["id"]
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"driver_id": driverID,
		"orders":    s.assigner.OrderCount(driverID),
	})
}
