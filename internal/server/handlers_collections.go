package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/export"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/store"
)

// handleExportCollection streams a collection as downloadable JSON.
func (s *Server) handleExportCollection(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	var data interface{}
	switch key {
	case store.CollectionOrders:
		data = s.orders.List()
	case store.CollectionEmployees:
		data = s.employees.List()
	case store.CollectionEquipment:
		data = s.equipment.List()
	default:
		respondError(w, http.StatusNotFound, "Unknown collection")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+key+`.json"`)
	if err := export.WriteJSON(w, data); err != nil {
		s.logger.Error("failed to write collection export",
			zap.String("collection", key), zap.Error(err))
	}
}

// handleImportCollection replaces a collection wholesale. The payload must
// be a JSON array and the caller must confirm; a rejected import leaves the
// current data untouched.
func (s *Server) handleImportCollection(w http.ResponseWriter, r *http.Request) {
	if !confirmed(r) {
		respondError(w, http.StatusBadRequest, "Import replaces all data and requires confirm=true")
		return
	}

	key := mux.Vars(r)["key"]

	var count int
	var err error
	switch key {
	case store.CollectionOrders:
		orders, importErr := export.ImportOrders(r.Body)
		if importErr != nil {
			err = importErr
			break
		}
		count = len(orders)
		if err = s.orders.Replace(orders); err == nil {
			// The new collection may not contain every scheduled order.
			if pruneErr := s.scheduler.Prune(); pruneErr != nil {
				s.logger.Error("failed to prune schedule after import", zap.Error(pruneErr))
			}
		}
	case store.CollectionEmployees:
		employees, importErr := export.ImportEmployees(r.Body)
		if importErr != nil {
			err = importErr
			break
		}
		count = len(employees)
		err = s.employees.Replace(employees)
	case store.CollectionEquipment:
		equipment, importErr := export.ImportEquipment(r.Body)
		if importErr != nil {
			err = importErr
			break
		}
		count = len(equipment)
		err = s.equipment.Replace(equipment)
	default:
		respondError(w, http.StatusNotFound, "Unknown collection")
		return
	}

	if err != nil {
		if errors.Is(err, export.ErrNotArray) {
			respondError(w, http.StatusBadRequest, "Error: "+err.Error())
			return
		}
		metrics.OperationErrorsTotal.WithLabelValues("import").Inc()
		respondError(w, http.StatusBadRequest, "Error: "+err.Error())
		return
	}

	metrics.ImportsTotal.WithLabelValues(key).Inc()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Collection replaced",
		"imported": count,
	})
}
