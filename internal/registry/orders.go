package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/model"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/store"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrEquipmentNotFound = errors.New("equipment not found")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrStatusLocked      = errors.New("finished orders cannot be reopened")
)

// OrderInput carries the caller-editable fields of an order. ID, status and
// timestamps are owned by the registry.
type OrderInput struct {
	Customer             string    `json:"customer"`
	CargoDescription     string    `json:"cargo_description"`
	Price                float64   `json:"price"`
	PickupTime           time.Time `json:"pickup_time"`
	PickupAddress        string    `json:"pickup_address"`
	DeliverBeforeTime    time.Time `json:"deliver_before_time"`
	DeliverBeforeAddress string    `json:"deliver_before_address"`
	EquipmentType        string    `json:"equipment_type"`
	DriverID             string    `json:"driver_id"`
	EmployeeID           string    `json:"employee_id"`
}

// Orders is the in-memory order collection. It is the single writer for the
// orders and order_history collections: every mutation happens under the
// lock and is written through to the store before it returns.
type Orders struct {
	mu          sync.RWMutex
	store       store.Store
	logger      *zap.Logger
	allowReopen bool

	orders  []model.Order
	history []model.HistoryEntry

	timeNow func() time.Time
	newID   func() string
}

func NewOrders(st store.Store, logger *zap.Logger, allowReopen bool) *Orders {
	r := &Orders{
		store:       st,
		logger:      logger,
		allowReopen: allowReopen,
		timeNow:     time.Now,
		newID:       uuid.NewString,
	}
	r.reload()
	return r
}

func (r *Orders) reload() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var orders []model.Order
	if err := r.store.Load(store.CollectionOrders, &orders); err != nil {
		r.logger.Error("failed to load orders", zap.Error(err))
	}
	var history []model.HistoryEntry
	if err := r.store.Load(store.CollectionHistory, &history); err != nil {
		r.logger.Error("failed to load order history", zap.Error(err))
	}
	r.orders = orders
	r.history = history
}

// Refresh re-reads the backing collection after an external change.
func (r *Orders) Refresh(collection string) {
	if collection == store.CollectionOrders || collection == store.CollectionHistory {
		r.reload()
	}
}

func (r *Orders) Create(in OrderInput) (model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.timeNow().UTC()
	order := model.Order{
		ID:                   r.newID(),
		Customer:             in.Customer,
		CargoDescription:     in.CargoDescription,
		Price:                in.Price,
		PickupTime:           in.PickupTime,
		PickupAddress:        in.PickupAddress,
		DeliverBeforeTime:    in.DeliverBeforeTime,
		DeliverBeforeAddress: in.DeliverBeforeAddress,
		EquipmentType:        in.EquipmentType,
		DriverID:             in.DriverID,
		EmployeeID:           in.EmployeeID,
		Status:               model.OrderStatusActive,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	r.orders = append(r.orders, order)
	r.appendHistory(order.ID, string(order.Status), now)

	if err := r.persist(); err != nil {
		return model.Order{}, err
	}
	return order, nil
}

func (r *Orders) Update(id string, in OrderInput) (model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return model.Order{}, ErrOrderNotFound
	}

	order := &r.orders[i]
	order.Customer = in.Customer
	order.CargoDescription = in.CargoDescription
	order.Price = in.Price
	order.PickupTime = in.PickupTime
	order.PickupAddress = in.PickupAddress
	order.DeliverBeforeTime = in.DeliverBeforeTime
	order.DeliverBeforeAddress = in.DeliverBeforeAddress
	order.EquipmentType = in.EquipmentType
	order.DriverID = in.DriverID
	order.EmployeeID = in.EmployeeID
	order.UpdatedAt = r.timeNow().UTC()

	if err := r.persist(); err != nil {
		return model.Order{}, err
	}
	return *order, nil
}

func (r *Orders) SetStatus(id string, status model.OrderStatus) (model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, err := r.setStatusLocked(id, status)
	if err != nil {
		return model.Order{}, err
	}
	if err := r.persist(); err != nil {
		return model.Order{}, err
	}
	return order, nil
}

// SetStatusBulk applies the status to every listed order. IDs with no
// matching order are skipped; the bulk selection may be stale.
func (r *Orders) SetStatusBulk(ids []string, status model.OrderStatus) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var updated []model.Order
	for _, id := range ids {
		order, err := r.setStatusLocked(id, status)
		if err != nil {
			if errors.Is(err, ErrOrderNotFound) {
				continue
			}
			return nil, err
		}
		updated = append(updated, order)
	}

	if len(updated) == 0 {
		return nil, nil
	}
	if err := r.persist(); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *Orders) setStatusLocked(id string, status model.OrderStatus) (model.Order, error) {
	if !model.ValidOrderStatus(status) {
		return model.Order{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	i := r.indexOf(id)
	if i < 0 {
		return model.Order{}, ErrOrderNotFound
	}

	order := &r.orders[i]
	if order.Status == status {
		return *order, nil
	}
	if order.Status == model.OrderStatusFinished && !r.allowReopen {
		return model.Order{}, ErrStatusLocked
	}

	now := r.timeNow().UTC()
	order.Status = status
	order.UpdatedAt = now
	r.appendHistory(id, string(status), now)
	return *order, nil
}

// SetDriverBulk overwrites the driver reference on every listed order. An
// empty driverID clears the assignment. Unknown ids are skipped.
func (r *Orders) SetDriverBulk(ids []string, driverID string) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.timeNow().UTC()
	var updated []model.Order
	for _, id := range ids {
		i := r.indexOf(id)
		if i < 0 {
			continue
		}
		r.orders[i].DriverID = driverID
		r.orders[i].UpdatedAt = now
		updated = append(updated, r.orders[i])
	}

	if len(updated) == 0 {
		return nil, nil
	}
	if err := r.persist(); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *Orders) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return ErrOrderNotFound
	}

	r.orders = append(r.orders[:i], r.orders[i+1:]...)
	return r.persist()
}

func (r *Orders) Get(id string) (model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return model.Order{}, ErrOrderNotFound
	}
	return r.orders[i], nil
}

func (r *Orders) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexOf(id) >= 0
}

// List returns the orders in insertion order.
func (r *Orders) List() []model.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Order, len(r.orders))
	copy(out, r.orders)
	return out
}

// CountByDriver counts orders referencing the driver regardless of status,
// matching the figure the order list displays.
func (r *Orders) CountByDriver(driverID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, o := range r.orders {
		if o.DriverID == driverID {
			count++
		}
	}
	return count
}

func (r *Orders) History(orderID string) []model.HistoryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []model.HistoryEntry
	for _, h := range r.history {
		if h.OrderID == orderID {
			entries = append(entries, h)
		}
	}
	return entries
}

// Replace swaps the whole collection, used by JSON import after the caller
// confirmed the replacement.
func (r *Orders) Replace(orders []model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.orders = make([]model.Order, len(orders))
	copy(r.orders, orders)
	return r.persist()
}

func (r *Orders) indexOf(id string) int {
	for i := range r.orders {
		if r.orders[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Orders) appendHistory(orderID, status string, at time.Time) {
	r.history = append(r.history, model.HistoryEntry{
		OrderID:   orderID,
		Status:    status,
		ChangedAt: at,
	})
}

func (r *Orders) persist() error {
	if err := r.store.Save(store.CollectionOrders, r.orders); err != nil {
		return fmt.Errorf("failed to save orders: %w", err)
	}
	if err := r.store.Save(store.CollectionHistory, r.history); err != nil {
		return fmt.Errorf("failed to save order history: %w", err)
	}
	return nil
}
