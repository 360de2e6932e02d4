package schedule

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/model"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/store"
)

var (
	ErrSlotOccupied = errors.New("slot already occupied by another order")
	ErrUnknownOrder = errors.New("order does not exist")
	ErrUnknownSlot  = errors.New("unknown time slot")
	ErrInvalidDate  = errors.New("invalid calendar date")
)

// OrderIndex answers existence checks against the order registry. The engine
// never caches order identity; it asks on every call.
type OrderIndex interface {
	Exists(id string) bool
}

type slotKey struct {
	date string
	slot string
}

// Engine owns the order -> (date, slot) mapping. Two invariants hold across
// every operation: an order occupies at most one slot, and a slot holds at
// most one order.
type Engine struct {
	mu     sync.RWMutex
	store  store.Store
	orders OrderIndex
	logger *zap.Logger

	entries []model.ScheduledOrder
	byOrder map[string]slotKey
	bySlot  map[slotKey]string
}

func NewEngine(st store.Store, orders OrderIndex, logger *zap.Logger) *Engine {
	e := &Engine{
		store:  st,
		orders: orders,
		logger: logger,
	}
	e.reload()
	return e
}

func (e *Engine) reload() {
	e.mu.Lock()
	defer e.mu.Unlock()

	var entries []model.ScheduledOrder
	if err := e.store.Load(store.CollectionSchedule, &entries); err != nil {
		e.logger.Error("failed to load schedule", zap.Error(err))
	}

	e.entries = e.entries[:0]
	e.byOrder = make(map[string]slotKey)
	e.bySlot = make(map[slotKey]string)

	for _, entry := range entries {
		date, err := NormalizeDate(entry.Date)
		if err != nil || !ValidSlot(entry.Slot) {
			e.logger.Warn("dropping malformed schedule entry",
				zap.String("order_id", entry.OrderID),
				zap.String("date", entry.Date),
				zap.String("slot", entry.Slot))
			continue
		}
		key := slotKey{date: date, slot: entry.Slot}
		if _, dup := e.byOrder[entry.OrderID]; dup {
			continue
		}
		if _, dup := e.bySlot[key]; dup {
			continue
		}
		entry.Date = date
		e.entries = append(e.entries, entry)
		e.byOrder[entry.OrderID] = key
		e.bySlot[key] = entry.OrderID
	}
	metrics.ScheduledOrders.Set(float64(len(e.entries)))
}

// Refresh re-reads the backing collection after an external change.
func (e *Engine) Refresh(collection string) {
	if collection == store.CollectionSchedule {
		e.reload()
	}
}

// Schedule places an order at (date, slot). Re-scheduling at its current
// slot is a no-op; at a new slot it is a move (the old entry goes away
// first); a slot held by a different order rejects the placement and leaves
// the mapping untouched.
func (e *Engine) Schedule(orderID, date, slot string) error {
	date, err := NormalizeDate(date)
	if err != nil {
		return err
	}
	if !ValidSlot(slot) {
		return fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}
	if !e.orders.Exists(orderID) {
		return fmt.Errorf("%w: %q", ErrUnknownOrder, orderID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	key := slotKey{date: date, slot: slot}

	if cur, ok := e.byOrder[orderID]; ok && cur == key {
		return nil
	}
	if holder, ok := e.bySlot[key]; ok && holder != orderID {
		metrics.ScheduleRejectedTotal.Inc()
		return ErrSlotOccupied
	}

	snapshot := e.snapshotLocked()
	e.removeLocked(orderID)
	e.entries = append(e.entries, model.ScheduledOrder{OrderID: orderID, Date: date, Slot: slot})
	e.byOrder[orderID] = key
	e.bySlot[key] = orderID

	if err := e.persistLocked(); err != nil {
		e.restoreLocked(snapshot)
		return err
	}
	metrics.SchedulePlacedTotal.Inc()
	return nil
}

// Unschedule drops the order's entry if it has one; no entry is a no-op.
func (e *Engine) Unschedule(orderID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.byOrder[orderID]; !ok {
		return nil
	}

	snapshot := e.snapshotLocked()
	e.removeLocked(orderID)
	if err := e.persistLocked(); err != nil {
		e.restoreLocked(snapshot)
		return err
	}
	return nil
}

func (e *Engine) IsOccupied(date, slot string) bool {
	normalized, err := NormalizeDate(date)
	if err != nil {
		return false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	_, ok := e.bySlot[slotKey{date: normalized, slot: slot}]
	return ok
}

// Lookup resolves the order occupying a calendar cell.
func (e *Engine) Lookup(date, slot string) (string, bool) {
	normalized, err := NormalizeDate(date)
	if err != nil {
		return "", false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	orderID, ok := e.bySlot[slotKey{date: normalized, slot: slot}]
	return orderID, ok
}

// Placement returns the entry for an order, if scheduled.
func (e *Engine) Placement(orderID string) (model.ScheduledOrder, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	key, ok := e.byOrder[orderID]
	if !ok {
		return model.ScheduledOrder{}, false
	}
	return model.ScheduledOrder{OrderID: orderID, Date: key.date, Slot: key.slot}, true
}

func (e *Engine) Entries() []model.ScheduledOrder {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]model.ScheduledOrder, len(e.entries))
	copy(out, e.entries)
	return out
}

// Unscheduled filters the source collection down to orders with no schedule
// entry, preserving the source's iteration order.
func (e *Engine) Unscheduled(orders []model.Order) []model.Order {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []model.Order
	for _, o := range orders {
		if _, ok := e.byOrder[o.ID]; !ok {
			out = append(out, o)
		}
	}
	return out
}

// Prune drops entries whose order no longer exists, restoring the
// referential invariant after a wholesale order replacement.
func (e *Engine) Prune() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var orphans []string
	for _, entry := range e.entries {
		if !e.orders.Exists(entry.OrderID) {
			orphans = append(orphans, entry.OrderID)
		}
	}
	if len(orphans) == 0 {
		return nil
	}

	snapshot := e.snapshotLocked()
	for _, id := range orphans {
		e.logger.Info("dropping schedule entry for missing order", zap.String("order_id", id))
		e.removeLocked(id)
	}
	if err := e.persistLocked(); err != nil {
		e.restoreLocked(snapshot)
		return err
	}
	return nil
}

type engineState struct {
	entries []model.ScheduledOrder
	byOrder map[string]slotKey
	bySlot  map[slotKey]string
}

// snapshotLocked and restoreLocked bracket a mutation so a failed save
// never leaves memory ahead of the store.
func (e *Engine) snapshotLocked() engineState {
	s := engineState{
		entries: make([]model.ScheduledOrder, len(e.entries)),
		byOrder: make(map[string]slotKey, len(e.byOrder)),
		bySlot:  make(map[slotKey]string, len(e.bySlot)),
	}
	copy(s.entries, e.entries)
	for k, v := range e.byOrder {
		s.byOrder[k] = v
	}
	for k, v := range e.bySlot {
		s.bySlot[k] = v
	}
	return s
}

func (e *Engine) restoreLocked(s engineState) {
	e.entries = s.entries
	e.byOrder = s.byOrder
	e.bySlot = s.bySlot
	metrics.ScheduledOrders.Set(float64(len(e.entries)))
}

func (e *Engine) removeLocked(orderID string) {
	key, ok := e.byOrder[orderID]
	if !ok {
		return
	}
	delete(e.byOrder, orderID)
	delete(e.bySlot, key)
	for i := range e.entries {
		if e.entries[i].OrderID == orderID {
			e.entries = append(e.entries[:i], e.entries[i+1:]...)
			break
		}
	}
}

func (e *Engine) persistLocked() error {
	if err := e.store.Save(store.CollectionSchedule, e.entries); err != nil {
		return fmt.Errorf("failed to save schedule: %w", err)
	}
	metrics.ScheduledOrders.Set(float64(len(e.entries)))
	return nil
}
