package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/model"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/store"
)

func newTestEmployees(t *testing.T) *Employees {
	t.Helper()

	st, err := store.NewFileStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return NewEmployees(st, zap.NewNop())
}

func TestEmployees_CRUD(t *testing.T) {
	r := newTestEmployees(t)

	created, err := r.Create(EmployeeInput{Name: "Grace Hopper", Role: model.RoleDriver})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsDriver())

	t.Run("update", func(t *testing.T) {
		updated, err := r.Update(created.ID, EmployeeInput{Name: "G. Hopper", Role: "Dispatcher"})
		require.NoError(t, err)
		assert.Equal(t, "G. Hopper", updated.Name)
		assert.False(t, updated.IsDriver())
	})

	t.Run("update unknown id", func(t *testing.T) {
		_, err := r.Update("missing", EmployeeInput{})
		assert.ErrorIs(t, err, ErrEmployeeNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, r.Delete(created.ID))
		_, err := r.Get(created.ID)
		assert.ErrorIs(t, err, ErrEmployeeNotFound)
	})
}

func TestEmployees_Drivers(t *testing.T) {
	r := newTestEmployees(t)
	_, err := r.Create(EmployeeInput{Name: "Grace", Role: model.RoleDriver})
	require.NoError(t, err)
	_, err = r.Create(EmployeeInput{Name: "Alan", Role: "Dispatcher"})
	require.NoError(t, err)
	_, err = r.Create(EmployeeInput{Name: "Barbara", Role: model.RoleDriver})
	require.NoError(t, err)

	drivers := r.Drivers()
	require.Len(t, drivers, 2)
	assert.Equal(t, "Grace", drivers[0].Name)
	assert.Equal(t, "Barbara", drivers[1].Name)
}

func TestEmployees_NameOf(t *testing.T) {
	r := newTestEmployees(t)
	created, err := r.Create(EmployeeInput{Name: "Grace Hopper", Role: model.RoleDriver})
	require.NoError(t, err)

	t.Run("known id", func(t *testing.T) {
		assert.Equal(t, "Grace Hopper", r.NameOf(created.ID))
	})

	t.Run("empty id resolves to empty", func(t *testing.T) {
		assert.Equal(t, "", r.NameOf(""))
	})

	t.Run("dangling id resolves to Unknown", func(t *testing.T) {
		require.NoError(t, r.Delete(created.ID))
		assert.Equal(t, model.UnknownName, r.NameOf(created.ID))
	})
}
