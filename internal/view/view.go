// Package view derives the displayed subset and ordering of the order
// collection. Everything here is a pure function over its inputs.
package view

import (
	"sort"
	"strings"
	"time"

	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/model"
)

type Tab string

const (
	TabAll        Tab = "all"
	TabUnassigned Tab = "unassigned"
	TabAssigned   Tab = "assigned"
	TabFinished   Tab = "finished"
)

// DateField selects which order timestamp the range filter compares.
type DateField string

const (
	DateFieldPickup        DateField = "pickup"
	DateFieldDeliverBefore DateField = "deliver_before"
)

// Criteria composes with logical AND; zero values pass everything.
type Criteria struct {
	Tab       Tab
	DriverID  string
	Query     string
	DateField DateField
	From      *time.Time
	To        *time.Time
}

// NameResolver resolves an employee id to a display name, for matching the
// search query against the assigned driver's name.
type NameResolver func(id string) string

// Derive filters the full collection down to the displayed subset, keeping
// the source order. With default criteria it returns every order unchanged.
func Derive(orders []model.Order, c Criteria, resolve NameResolver) []model.Order {
	query := strings.ToLower(strings.TrimSpace(c.Query))

	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if !matchesTab(o, c.Tab) {
			continue
		}
		if c.DriverID != "" && o.DriverID != c.DriverID {
			continue
		}
		if query != "" && !matchesQuery(o, query, resolve) {
			continue
		}
		if !matchesRange(o, c) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func matchesTab(o model.Order, tab Tab) bool {
	switch tab {
	case TabUnassigned:
		return o.DriverID == ""
	case TabAssigned:
		return o.DriverID != "" && o.Status != model.OrderStatusFinished
	case TabFinished:
		return o.Status == model.OrderStatusFinished
	default:
		return true
	}
}

func matchesQuery(o model.Order, query string, resolve NameResolver) bool {
	fields := []string{o.ID, o.Customer, o.PickupAddress, o.DeliverBeforeAddress}
	if o.DriverID != "" && resolve != nil {
		fields = append(fields, resolve(o.DriverID))
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

func matchesRange(o model.Order, c Criteria) bool {
	if c.From == nil && c.To == nil {
		return true
	}

	value := o.PickupTime
	if c.DateField == DateFieldDeliverBefore {
		value = o.DeliverBeforeTime
	}

	if c.From != nil && value.Before(*c.From) {
		return false
	}
	if c.To != nil && value.After(endOfDay(*c.To)) {
		return false
	}
	return true
}

// endOfDay makes the upper bound inclusive through 23:59:59.999.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999_000_000, t.Location())
}

type SortField string

const (
	SortCustomer      SortField = "customer"
	SortPrice         SortField = "price"
	SortPickupTime    SortField = "pickup_time"
	SortDeliverBefore SortField = "deliver_before_time"
	SortStatus        SortField = "status"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort orders a copy of the sequence by a single field. An unsupported or
// empty field is a stable pass-through.
func Sort(orders []model.Order, field SortField, dir Direction) []model.Order {
	out := make([]model.Order, len(orders))
	copy(out, orders)

	less := lessFunc(field)
	if less == nil {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		if dir == Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func lessFunc(field SortField) func(a, b model.Order) bool {
	switch field {
	case SortCustomer:
		return func(a, b model.Order) bool {
			return strings.ToLower(a.Customer) < strings.ToLower(b.Customer)
		}
	case SortPrice:
		return func(a, b model.Order) bool { return a.Price < b.Price }
	case SortPickupTime:
		return func(a, b model.Order) bool { return a.PickupTime.Before(b.PickupTime) }
	case SortDeliverBefore:
		return func(a, b model.Order) bool { return a.DeliverBeforeTime.Before(b.DeliverBeforeTime) }
	case SortStatus:
		return func(a, b model.Order) bool { return a.Status < b.Status }
	default:
		return nil
	}
}
