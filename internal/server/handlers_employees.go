package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/registry"
)

func (s *Server) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var in registry.EmployeeInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Name == "" {
		respondError(w, http.StatusBadRequest, "Missing name")
		return
	}

	employee, err := s.employees.Create(in)
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("create_employee").Inc()
		respondError(w, http.StatusInternalServerError, "Failed to create employee")
		return
	}
	respondJSON(w, http.StatusCreated, employee)
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.employees.List())
}

func (s *Server) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	employee, err := s.employees.Get(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, "Employee not found")
		return
	}
	respondJSON(w, http.StatusOK, employee)
}

func (s *Server) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var in registry.EmployeeInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	employee, err := s.employees.Update(mux.Vars(r)["id"], in)
	if err != nil {
		if errors.Is(err, registry.ErrEmployeeNotFound) {
			respondError(w, http.StatusNotFound, "Employee not found")
			return
		}
		metrics.OperationErrorsTotal.WithLabelValues("update_employee").Inc()
		respondError(w, http.StatusInternalServerError, "Failed to update employee")
		return
	}
	respondJSON(w, http.StatusOK, employee)
}

// handleDeleteEmployee removes the employee without touching orders that
// reference it; those references dangle and display as Unknown.
func (s *Server) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if !confirmed(r) {
		respondError(w, http.StatusBadRequest, "Deletion requires confirm=true")
		return
	}

	if err := s.employees.Delete(mux.Vars(r)["id"]); err != nil {
		if errors.Is(err, registry.ErrEmployeeNotFound) {
			respondError(w, http.StatusNotFound, "Employee not found")
			return
		}
		metrics.OperationErrorsTotal.WithLabelValues("delete_employee").Inc()
		respondError(w, http.StatusInternalServerError, "Failed to delete employee")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Employee deleted"})
}

func (s *Server) handleListDrivers(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.employees.Drivers())
}
