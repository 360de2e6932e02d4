package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/assign"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/audit"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/registry"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/schedule"
)

// Server exposes the engines over HTTP. Each route stands in for a UI
// action: form submits become POSTs, calendar drops become schedule calls.
type Server struct {
	orders    *registry.Orders
	employees *registry.Employees
	equipment *registry.Equipment
	scheduler *schedule.Engine
	assigner  *assign.Engine

	auditManager *audit.Manager
	logger       *zap.Logger
	server       *http.Server
}

func New(
	orders *registry.Orders,
	employees *registry.Employees,
	equipment *registry.Equipment,
	scheduler *schedule.Engine,
	assigner *assign.Engine,
	auditManager *audit.Manager,
	logger *zap.Logger,
) *Server {
	return &Server{
		orders:       orders,
		employees:    employees,
		equipment:    equipment,
		scheduler:    scheduler,
		assigner:     assigner,
		auditManager: auditManager,
		logger:       logger,
	}
}

// Run starts the HTTP server and blocks until it is shut down.
func (s *Server) Run(port string) error {
	s.server = &http.Server{
		Addr:         ":" + port,
		Handler:      s.setupRoutes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.logger.Info("server starting", zap.String("port", port))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("http server shutdown completed")
	return nil
}

func (s *Server) setupRoutes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.auditLogMiddleware)

	r.HandleFunc("/orders/view", s.handleOrderView).Methods(http.MethodGet)
	r.HandleFunc("/orders/export.csv", s.handleExportCSV).Methods(http.MethodGet)
	r.HandleFunc("/orders/status", s.handleBulkStatus).Methods(http.MethodPost)
	r.HandleFunc("/orders", s.handleCreateOrder).Methods(http.MethodPost)
	r.HandleFunc("/orders", s.handleListOrders).Methods(http.MethodGet)
	r.HandleFunc("/orders/{id}", s.handleGetOrder).Methods(http.MethodGet)
	r.HandleFunc("/orders/{id}", s.handleUpdateOrder).Methods(http.MethodPut)
	r.HandleFunc("/orders/{id}", s.handleDeleteOrder).Methods(http.MethodDelete)
	r.HandleFunc("/orders/{id}/status", s.handleUpdateOrderStatus).Methods(http.MethodPost)
	r.HandleFunc("/orders/{id}/history", s.handleOrderHistory).Methods(http.MethodGet)

	r.HandleFunc("/employees", s.handleCreateEmployee).Methods(http.MethodPost)
	r.HandleFunc("/employees", s.handleListEmployees).Methods(http.MethodGet)
	r.HandleFunc("/employees/{id}", s.handleGetEmployee).Methods(http.MethodGet)
	r.HandleFunc("/employees/{id}", s.handleUpdateEmployee).Methods(http.MethodPut)
	r.HandleFunc("/employees/{id}", s.handleDeleteEmployee).Methods(http.MethodDelete)
	r.HandleFunc("/drivers", s.handleListDrivers).Methods(http.MethodGet)
	r.HandleFunc("/drivers/{id}/load", s.handleDriverLoad).Methods(http.MethodGet)

	r.HandleFunc("/equipment", s.handleCreateEquipment).Methods(http.MethodPost)
	r.HandleFunc("/equipment", s.handleListEquipment).Methods(http.MethodGet)
	r.HandleFunc("/equipment/{id}", s.handleGetEquipment).Methods(http.MethodGet)
	r.HandleFunc("/equipment/{id}", s.handleUpdateEquipment).Methods(http.MethodPut)
	r.HandleFunc("/equipment/{id}", s.handleDeleteEquipment).Methods(http.MethodDelete)

	r.HandleFunc("/assign", s.handleAssign).Methods(http.MethodPost)
	r.HandleFunc("/unassign", s.handleUnassign).Methods(http.MethodPost)

	r.HandleFunc("/schedule", s.handleSchedule).Methods(http.MethodPost)
	r.HandleFunc("/schedule", s.handleScheduleLookup).Methods(http.MethodGet)
	r.HandleFunc("/schedule/span", s.handleScheduleSpan).Methods(http.MethodGet)
	r.HandleFunc("/schedule/unscheduled", s.handleUnscheduled).Methods(http.MethodGet)
	r.HandleFunc("/schedule/{orderID}", s.handleUnschedule).Methods(http.MethodDelete)

	r.HandleFunc("/collections/{key}/export", s.handleExportCollection).Methods(http.MethodGet)
	r.HandleFunc("/collections/{key}/import", s.handleImportCollection).Methods(http.MethodPost)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

func decodeJSON(r *http.Request, dest interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// confirmed gates destructive and replacing operations, mirroring the UI
// confirmation dialog.
func confirmed(r *http.Request) bool {
	return r.URL.Query().Get("confirm") == "true"
}
