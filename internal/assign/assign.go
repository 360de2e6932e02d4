package assign

import (
	"errors"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/model"
)

var ErrNoDriver = errors.New("driver id is required")

// Registry is the slice of the order registry the engine mutates. The order
// selection itself belongs to the caller.
type Registry interface {
	SetDriverBulk(ids []string, driverID string) ([]model.Order, error)
	CountByDriver(driverID string) int
}

// Engine binds orders to drivers. Assignment is independent of scheduling
// and unconditional: no capacity or calendar-conflict checks.
type Engine struct {
	registry Registry
	logger   *zap.Logger
}

func NewEngine(registry Registry, logger *zap.Logger) *Engine {
	return &Engine{
		registry: registry,
		logger:   logger,
	}
}

// AssignDriver sets the driver on every selected order, overwriting any
// previous assignment.
func (e *Engine) AssignDriver(orderIDs []string, driverID string) ([]model.Order, error) {
	if driverID == "" {
		return nil, ErrNoDriver
	}

	updated, err := e.registry.SetDriverBulk(orderIDs, driverID)
	if err != nil {
		return nil, err
	}
	metrics.AssignmentsTotal.Add(float64(len(updated)))
	e.logger.Debug("orders assigned",
		zap.String("driver_id", driverID), zap.Int("count", len(updated)))
	return updated, nil
}

// Unassign clears the driver on every selected order.
func (e *Engine) Unassign(orderIDs []string) ([]model.Order, error) {
	return e.registry.SetDriverBulk(orderIDs, "")
}

// OrderCount is the per-driver load figure. It counts orders of any status,
// finished ones included, matching the observed display behavior.
func (e *Engine) OrderCount(driverID string) int {
	return e.registry.CountByDriver(driverID)
}
