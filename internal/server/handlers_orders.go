package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/export"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/model"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/registry"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/view"
)

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var in registry.OrderInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := s.orders.Create(in)
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("create_order").Inc()
		respondError(w, http.StatusInternalServerError, "Failed to create order")
		return
	}

	metrics.OrdersCreatedTotal.Inc()
	respondJSON(w, http.StatusCreated, order)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.orders.Get(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.orders.List())
}

func (s *Server) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	var in registry.OrderInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := s.orders.Update(mux.Vars(r)["id"], in)
	if err != nil {
		if errors.Is(err, registry.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "Order not found")
			return
		}
		metrics.OperationErrorsTotal.WithLabelValues("update_order").Inc()
		respondError(w, http.StatusInternalServerError, "Failed to update order")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// handleDeleteOrder hard-deletes after confirmation and drops any calendar
// placement the order held.
func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	if !confirmed(r) {
		respondError(w, http.StatusBadRequest, "Deletion requires confirm=true")
		return
	}

	id := mux.Vars(r)["id"]
	if err := s.orders.Delete(id); err != nil {
		if errors.Is(err, registry.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "Order not found")
			return
		}
		metrics.OperationErrorsTotal.WithLabelValues("delete_order").Inc()
		respondError(w, http.StatusInternalServerError, "Failed to delete order")
		return
	}

	if err := s.scheduler.Unschedule(id); err != nil {
		s.logger.Error("failed to unschedule deleted order",
			zap.String("order_id", id), zap.Error(err))
	}

	metrics.OrdersDeletedTotal.Inc()
	respondJSON(w, http.StatusOK, map[string]string{"message": "Order deleted"})
}

func (s *Server) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var statusRequest struct {
		Status model.OrderStatus `json:"status"`
	}
	if err := decodeJSON(r, &statusRequest); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := s.orders.SetStatus(mux.Vars(r)["id"], statusRequest.Status)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrOrderNotFound):
			respondError(w, http.StatusNotFound, "Order not found")
		case errors.Is(err, registry.ErrInvalidStatus), errors.Is(err, registry.ErrStatusLocked):
			respondError(w, http.StatusBadRequest, "Error: "+err.Error())
		default:
			metrics.OperationErrorsTotal.WithLabelValues("update_status").Inc()
			respondError(w, http.StatusInternalServerError, "Failed to update status")
		}
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (s *Server) handleBulkStatus(w http.ResponseWriter, r *http.Request) {
	var bulkRequest struct {
		OrderIDs []string          `json:"order_ids"`
		Status   model.OrderStatus `json:"status"`
	}
	if err := decodeJSON(r, &bulkRequest); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(bulkRequest.OrderIDs) == 0 {
		respondError(w, http.StatusBadRequest, "Missing order_ids")
		return
	}

	updated, err := s.orders.SetStatusBulk(bulkRequest.OrderIDs, bulkRequest.Status)
	if err != nil {
		if errors.Is(err, registry.ErrInvalidStatus) || errors.Is(err, registry.ErrStatusLocked) {
			respondError(w, http.StatusBadRequest, "Error: "+err.Error())
			return
		}
		metrics.OperationErrorsTotal.WithLabelValues("bulk_status").Inc()
		respondError(w, http.StatusInternalServerError, "Failed to update statuses")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleOrderHistory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !s.orders.Exists(id) {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}
	respondJSON(w, http.StatusOK, s.orders.History(id))
}

// handleOrderView runs the filter and sort engines over the full collection.
// Sort-direction toggling on repeated header clicks belongs to the client;
// the server takes the resolved field and direction.
func (s *Server) handleOrderView(w http.ResponseWriter, r *http.Request) {
	criteria, err := criteriaFromQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Error: "+err.Error())
		return
	}

	orders := view.Derive(s.orders.List(), criteria, s.employees.NameOf)
	orders = view.Sort(orders,
		view.SortField(r.URL.Query().Get("sort")),
		view.Direction(r.URL.Query().Get("dir")))

	respondJSON(w, http.StatusOK, orders)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	criteria, err := criteriaFromQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Error: "+err.Error())
		return
	}

	orders := view.Derive(s.orders.List(), criteria, s.employees.NameOf)
	orders = view.Sort(orders,
		view.SortField(r.URL.Query().Get("sort")),
		view.Direction(r.URL.Query().Get("dir")))

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.CSVFilename(time.Now())+`"`)
	if err := export.OrdersCSV(w, orders, s.employees.NameOf); err != nil {
		s.logger.Error("failed to write csv export", zap.Error(err))
	}
}

func criteriaFromQuery(r *http.Request) (view.Criteria, error) {
	q := r.URL.Query()

	criteria := view.Criteria{
		Tab:       view.Tab(q.Get("tab")),
		DriverID:  q.Get("driver"),
		Query:     q.Get("q"),
		DateField: view.DateField(q.Get("date_field")),
	}

	if from := q.Get("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return view.Criteria{}, errors.New("invalid 'from' date, use YYYY-MM-DD")
		}
		criteria.From = &t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return view.Criteria{}, errors.New("invalid 'to' date, use YYYY-MM-DD")
		}
		criteria.To = &t
	}
	return criteria, nil
}
