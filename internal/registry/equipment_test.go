package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/model"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/store"
)

func newTestEquipment(t *testing.T) *Equipment {
	t.Helper()

	st, err := store.NewFileStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return NewEquipment(st, zap.NewNop())
}

func TestEquipment_Create(t *testing.T) {
	r := newTestEquipment(t)

	t.Run("defaults status to available", func(t *testing.T) {
		item, err := r.Create(EquipmentInput{Name: "Box Truck 1", Type: "box-truck"})
		require.NoError(t, err)
		assert.Equal(t, model.EquipmentStatusAvailable, item.Status)
	})

	t.Run("accepts an explicit status", func(t *testing.T) {
		item, err := r.Create(EquipmentInput{Name: "Flatbed 2", Status: model.EquipmentStatusMaintenance})
		require.NoError(t, err)
		assert.Equal(t, model.EquipmentStatusMaintenance, item.Status)
	})

	t.Run("rejects an unknown status", func(t *testing.T) {
		_, err := r.Create(EquipmentInput{Name: "Bad", Status: model.EquipmentStatus("broken")})
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})
}

func TestEquipment_Update(t *testing.T) {
	r := newTestEquipment(t)
	item, err := r.Create(EquipmentInput{Name: "Box Truck 1", Type: "box-truck"})
	require.NoError(t, err)

	t.Run("empty status keeps the current one", func(t *testing.T) {
		updated, err := r.Update(item.ID, EquipmentInput{Name: "Box Truck 1", Type: "box-truck", Notes: "new tires"})
		require.NoError(t, err)
		assert.Equal(t, model.EquipmentStatusAvailable, updated.Status)
		assert.Equal(t, "new tires", updated.Notes)
	})

	t.Run("status transition", func(t *testing.T) {
		updated, err := r.Update(item.ID, EquipmentInput{Name: "Box Truck 1", Status: model.EquipmentStatusRetired})
		require.NoError(t, err)
		assert.Equal(t, model.EquipmentStatusRetired, updated.Status)
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := r.Update(item.ID, EquipmentInput{Status: model.EquipmentStatus("scrapped")})
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := r.Update("missing", EquipmentInput{Name: "X"})
		assert.ErrorIs(t, err, ErrEquipmentNotFound)
	})
}

func TestEquipment_Delete(t *testing.T) {
	r := newTestEquipment(t)
	item, err := r.Create(EquipmentInput{Name: "Box Truck 1"})
	require.NoError(t, err)

	require.NoError(t, r.Delete(item.ID))
	assert.ErrorIs(t, r.Delete(item.ID), ErrEquipmentNotFound)
	assert.Empty(t, r.List())
}
