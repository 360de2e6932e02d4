package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/registry"
)

func (s *Server) handleCreateEquipment(w http.ResponseWriter, r *http.Request) {
	var in registry.EquipmentInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Name == "" {
		respondError(w, http.StatusBadRequest, "Missing name")
		return
	}

	item, err := s.equipment.Create(in)
	if err != nil {
		if errors.Is(err, registry.ErrInvalidStatus) {
			respondError(w, http.StatusBadRequest, "Error: "+err.Error())
			return
		}
		metrics.OperationErrorsTotal.WithLabelValues("create_equipment").Inc()
		respondError(w, http.StatusInternalServerError, "Failed to create equipment")
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (s *Server) handleListEquipment(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.equipment.List())
}

func (s *Server) handleGetEquipment(w http.ResponseWriter, r *http.Request) {
	item, err := s.equipment.Get(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, "Equipment not found")
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (s *Server) handleUpdateEquipment(w http.ResponseWriter, r *http.Request) {
	var in registry.EquipmentInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := s.equipment.Update(mux.Vars(r)["id"], in)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrEquipmentNotFound):
			respondError(w, http.StatusNotFound, "Equipment not found")
		case errors.Is(err, registry.ErrInvalidStatus):
			respondError(w, http.StatusBadRequest, "Error: "+err.Error())
		default:
			metrics.OperationErrorsTotal.WithLabelValues("update_equipment").Inc()
			respondError(w, http.StatusInternalServerError, "Failed to update equipment")
		}
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteEquipment(w http.ResponseWriter, r *http.Request) {
	if !confirmed(r) {
		respondError(w, http.StatusBadRequest, "Deletion requires confirm=true")
		return
	}

	if err := s.equipment.Delete(mux.Vars(r)["id"]); err != nil {
		if errors.Is(err, registry.ErrEquipmentNotFound) {
			respondError(w, http.StatusNotFound, "Equipment not found")
			return
		}
		metrics.OperationErrorsTotal.WithLabelValues("delete_equipment").Inc()
		respondError(w, http.StatusInternalServerError, "Failed to delete equipment")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Equipment deleted"})
}
