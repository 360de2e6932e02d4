package assign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/model"
)

// fakeRegistry records driver writes the way the order registry applies
// them: overwrite whatever was there, skip unknown ids.
type fakeRegistry struct {
	drivers map[string]string
}

func newFakeRegistry(ids ...string) *fakeRegistry {
	drivers := make(map[string]string, len(ids))
	for _, id := range ids {
		drivers[id] = ""
	}
	return &fakeRegistry{drivers: drivers}
}

func (f *fakeRegistry) SetDriverBulk(ids []string, driverID string) ([]model.Order, error) {
	var updated []model.Order
	for _, id := range ids {
		if _, ok := f.drivers[id]; !ok {
			continue
		}
		f.drivers[id] = driverID
		updated = append(updated, model.Order{ID: id, DriverID: driverID})
	}
	return updated, nil
}

func (f *fakeRegistry) CountByDriver(driverID string) int {
	count := 0
	for _, d := range f.drivers {
		if d == driverID && driverID != "" {
			count++
		}
	}
	return count
}

func TestEngine_AssignDriver(t *testing.T) {
	t.Run("assigns the driver to every selected order", func(t *testing.T) {
		reg := newFakeRegistry("ord-1", "ord-2")
		e := NewEngine(reg, zap.NewNop())

		updated, err := e.AssignDriver([]string{"ord-1", "ord-2"}, "emp-1")
		require.NoError(t, err)
		require.Len(t, updated, 2)
		assert.Equal(t, "emp-1", reg.drivers["ord-1"])
		assert.Equal(t, "emp-1", reg.drivers["ord-2"])
	})

	t.Run("overwrites a previous assignment", func(t *testing.T) {
		reg := newFakeRegistry("ord-1")
		reg.drivers["ord-1"] = "emp-old"
		e := NewEngine(reg, zap.NewNop())

		_, err := e.AssignDriver([]string{"ord-1"}, "emp-new")
		require.NoError(t, err)
		assert.Equal(t, "emp-new", reg.drivers["ord-1"])
	})

	t.Run("requires a driver id", func(t *testing.T) {
		e := NewEngine(newFakeRegistry("ord-1"), zap.NewNop())
		_, err := e.AssignDriver([]string{"ord-1"}, "")
		assert.ErrorIs(t, err, ErrNoDriver)
	})

	t.Run("unknown ids are skipped", func(t *testing.T) {
		reg := newFakeRegistry("ord-1")
		e := NewEngine(reg, zap.NewNop())

		updated, err := e.AssignDriver([]string{"ord-1", "ghost"}, "emp-1")
		require.NoError(t, err)
		assert.Len(t, updated, 1)
	})
}

func TestEngine_Unassign(t *testing.T) {
	reg := newFakeRegistry("ord-1", "ord-2")
	reg.drivers["ord-1"] = "emp-1"
	reg.drivers["ord-2"] = "emp-1"
	e := NewEngine(reg, zap.NewNop())

	updated, err := e.Unassign([]string{"ord-1"})
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Empty(t, reg.drivers["ord-1"])
	assert.Equal(t, "emp-1", reg.drivers["ord-2"])
}

func TestEngine_OrderCount(t *testing.T) {
	reg := newFakeRegistry("ord-1", "ord-2", "ord-3")
	reg.drivers["ord-1"] = "emp-1"
	reg.drivers["ord-2"] = "emp-1"
	e := NewEngine(reg, zap.NewNop())

	assert.Equal(t, 2, e.OrderCount("emp-1"))
	assert.Equal(t, 0, e.OrderCount("emp-2"))
}
