package schedule

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/model"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/store"
)

type orderSet map[string]bool

func (s orderSet) Exists(id string) bool { return s[id] }

// flakyStore keeps collections in memory and can be told to fail saves.
type flakyStore struct {
	docs      map[string]json.RawMessage
	failSaves bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{docs: make(map[string]json.RawMessage)}
}

func (s *flakyStore) Load(collection string, dest interface{}) error {
	raw, ok := s.docs[collection]
	if !ok {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

func (s *flakyStore) Save(collection string, data interface{}) error {
	if s.failSaves {
		return errors.New("disk full")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	s.docs[collection] = raw
	return nil
}

func (s *flakyStore) Subscribe() <-chan store.Event { return nil }

func (s *flakyStore) Close() error { return nil }

func newTestEngine(t *testing.T, orders orderSet) *Engine {
	t.Helper()

	st, err := store.NewFileStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return NewEngine(st, orders, zap.NewNop())
}

func TestEngine_Schedule(t *testing.T) {
	t.Run("places an order into a free slot", func(t *testing.T) {
		e := newTestEngine(t, orderSet{"ord-1": true})

		require.NoError(t, e.Schedule("ord-1", "2025-03-10", "09:00"))

		assert.True(t, e.IsOccupied("2025-03-10", "09:00"))
		holder, ok := e.Lookup("2025-03-10", "09:00")
		require.True(t, ok)
		assert.Equal(t, "ord-1", holder)
	})

	t.Run("rejects occupied slot and leaves state unchanged", func(t *testing.T) {
		e := newTestEngine(t, orderSet{"ord-1": true, "ord-2": true})
		require.NoError(t, e.Schedule("ord-1", "2025-03-10", "09:00"))
		require.NoError(t, e.Schedule("ord-2", "2025-03-10", "10:00"))

		err := e.Schedule("ord-2", "2025-03-10", "09:00")
		assert.ErrorIs(t, err, ErrSlotOccupied)

		// Neither order moved.
		holder, _ := e.Lookup("2025-03-10", "09:00")
		assert.Equal(t, "ord-1", holder)
		placement, ok := e.Placement("ord-2")
		require.True(t, ok)
		assert.Equal(t, "10:00", placement.Slot)
	})

	t.Run("re-scheduling at the same slot is a no-op", func(t *testing.T) {
		e := newTestEngine(t, orderSet{"ord-1": true})
		require.NoError(t, e.Schedule("ord-1", "2025-03-10", "09:00"))

		require.NoError(t, e.Schedule("ord-1", "2025-03-10", "09:00"))

		assert.Len(t, e.Entries(), 1)
	})

	t.Run("re-scheduling at a new slot moves the order", func(t *testing.T) {
		e := newTestEngine(t, orderSet{"ord-1": true})
		require.NoError(t, e.Schedule("ord-1", "2025-03-10", "09:00"))

		require.NoError(t, e.Schedule("ord-1", "2025-03-11", "14:30"))

		assert.False(t, e.IsOccupied("2025-03-10", "09:00"))
		assert.True(t, e.IsOccupied("2025-03-11", "14:30"))
		assert.Len(t, e.Entries(), 1)
	})

	t.Run("moving within the same day frees the old slot", func(t *testing.T) {
		e := newTestEngine(t, orderSet{"ord-1": true, "ord-2": true})
		require.NoError(t, e.Schedule("ord-1", "2025-03-10", "09:00"))
		require.NoError(t, e.Schedule("ord-1", "2025-03-10", "09:30"))

		require.NoError(t, e.Schedule("ord-2", "2025-03-10", "09:00"))
	})

	t.Run("unknown order", func(t *testing.T) {
		e := newTestEngine(t, orderSet{})
		err := e.Schedule("ghost", "2025-03-10", "09:00")
		assert.ErrorIs(t, err, ErrUnknownOrder)
	})

	t.Run("unknown slot", func(t *testing.T) {
		e := newTestEngine(t, orderSet{"ord-1": true})
		err := e.Schedule("ord-1", "2025-03-10", "09:15")
		assert.ErrorIs(t, err, ErrUnknownSlot)
	})

	t.Run("invalid date", func(t *testing.T) {
		e := newTestEngine(t, orderSet{"ord-1": true})
		err := e.Schedule("ord-1", "10.03.2025", "09:00")
		assert.ErrorIs(t, err, ErrInvalidDate)
	})

	t.Run("same slot on another day is free", func(t *testing.T) {
		e := newTestEngine(t, orderSet{"ord-1": true, "ord-2": true})
		require.NoError(t, e.Schedule("ord-1", "2025-03-10", "09:00"))
		require.NoError(t, e.Schedule("ord-2", "2025-03-11", "09:00"))
	})
}

func TestEngine_Unschedule(t *testing.T) {
	t.Run("removes the placement", func(t *testing.T) {
		e := newTestEngine(t, orderSet{"ord-1": true})
		require.NoError(t, e.Schedule("ord-1", "2025-03-10", "09:00"))

		require.NoError(t, e.Unschedule("ord-1"))

		assert.False(t, e.IsOccupied("2025-03-10", "09:00"))
		_, ok := e.Placement("ord-1")
		assert.False(t, ok)
	})

	t.Run("missing entry is a no-op", func(t *testing.T) {
		e := newTestEngine(t, orderSet{})
		assert.NoError(t, e.Unschedule("never-scheduled"))
	})
}

func TestEngine_Unscheduled(t *testing.T) {
	e := newTestEngine(t, orderSet{"a": true, "b": true, "c": true})
	require.NoError(t, e.Schedule("b", "2025-03-10", "09:00"))

	orders := []model.Order{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	out := e.Unscheduled(orders)

	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "c", out[1].ID)
}

func TestEngine_Prune(t *testing.T) {
	orders := orderSet{"kept": true, "gone": true}
	e := newTestEngine(t, orders)
	require.NoError(t, e.Schedule("kept", "2025-03-10", "09:00"))
	require.NoError(t, e.Schedule("gone", "2025-03-10", "10:00"))

	delete(orders, "gone")
	require.NoError(t, e.Prune())

	require.Len(t, e.Entries(), 1)
	assert.Equal(t, "kept", e.Entries()[0].OrderID)
	assert.False(t, e.IsOccupied("2025-03-10", "10:00"))

	t.Run("nothing orphaned is a no-op", func(t *testing.T) {
		require.NoError(t, e.Prune())
		assert.Len(t, e.Entries(), 1)
	})
}

func TestEngine_SaveFailureRollsBack(t *testing.T) {
	orders := orderSet{"ord-1": true, "ord-2": true}
	st := newFlakyStore()
	e := NewEngine(st, orders, zap.NewNop())
	require.NoError(t, e.Schedule("ord-1", "2025-03-10", "09:00"))

	st.failSaves = true

	t.Run("failed placement leaves the slot free", func(t *testing.T) {
		require.Error(t, e.Schedule("ord-2", "2025-03-10", "10:00"))
		assert.False(t, e.IsOccupied("2025-03-10", "10:00"))
		_, ok := e.Placement("ord-2")
		assert.False(t, ok)
	})

	t.Run("failed move keeps the old placement", func(t *testing.T) {
		require.Error(t, e.Schedule("ord-1", "2025-03-10", "11:00"))
		placement, ok := e.Placement("ord-1")
		require.True(t, ok)
		assert.Equal(t, "09:00", placement.Slot)
		assert.False(t, e.IsOccupied("2025-03-10", "11:00"))
	})

	t.Run("failed unschedule keeps the entry", func(t *testing.T) {
		require.Error(t, e.Unschedule("ord-1"))
		assert.True(t, e.IsOccupied("2025-03-10", "09:00"))
	})

	t.Run("failed prune keeps the orphan", func(t *testing.T) {
		delete(orders, "ord-1")
		require.Error(t, e.Prune())
		assert.True(t, e.IsOccupied("2025-03-10", "09:00"))
		orders["ord-1"] = true
	})

	t.Run("memory and store agree after recovery", func(t *testing.T) {
		st.failSaves = false
		require.NoError(t, e.Schedule("ord-2", "2025-03-10", "10:00"))

		restarted := NewEngine(st, orders, zap.NewNop())
		assert.Equal(t, e.Entries(), restarted.Entries())
	})
}

func TestEngine_PersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	orders := orderSet{"ord-1": true}

	st, err := store.NewFileStore(dir, zap.NewNop())
	require.NoError(t, err)

	e := NewEngine(st, orders, zap.NewNop())
	require.NoError(t, e.Schedule("ord-1", "2025-03-10", "09:00"))
	require.NoError(t, st.Close())

	st2, err := store.NewFileStore(dir, zap.NewNop())
	require.NoError(t, err)
	defer st2.Close()

	e2 := NewEngine(st2, orders, zap.NewNop())
	holder, ok := e2.Lookup("2025-03-10", "09:00")
	require.True(t, ok)
	assert.Equal(t, "ord-1", holder)
}

func TestEngine_ReloadDropsMalformedEntries(t *testing.T) {
	dir := t.TempDir()

	st, err := store.NewFileStore(dir, zap.NewNop())
	require.NoError(t, err)
	defer st.Close()

	entries := []model.ScheduledOrder{
		{OrderID: "good", Date: "2025-03-10", Slot: "09:00"},
		{OrderID: "bad-slot", Date: "2025-03-10", Slot: "09:15"},
		{OrderID: "bad-date", Date: "not-a-date", Slot: "09:00"},
		{OrderID: "dup-slot", Date: "2025-03-10", Slot: "09:00"},
	}
	require.NoError(t, st.Save(store.CollectionSchedule, entries))

	e := NewEngine(st, orderSet{"good": true}, zap.NewNop())

	require.Len(t, e.Entries(), 1)
	assert.Equal(t, "good", e.Entries()[0].OrderID)
}
