package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	mock_db "gitlab.ozon.dev/pupkingeorgij/dispatch/internal/db/mocks"
)

func TestPostgresStore_Init(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	mockDB := mock_db.NewMockDB(ctrl)
	store := NewPostgresStore(ctx, mockDB, zap.NewNop())

	t.Run("creates the collections table", func(t *testing.T) {
		mockDB.EXPECT().Exec(ctx, gomock.Any()).Return(nil, nil)
		assert.NoError(t, store.Init())
	})

	t.Run("propagates the error", func(t *testing.T) {
		mockDB.EXPECT().Exec(ctx, gomock.Any()).Return(nil, errors.New("connection refused"))
		assert.Error(t, store.Init())
	})
}

func TestPostgresStore_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("unmarshals the stored document", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_db.NewMockDB(ctrl)
		store := NewPostgresStore(ctx, mockDB, zap.NewNop())

		mockDB.EXPECT().
			Get(ctx, gomock.Any(), gomock.Any(), gomock.Eq("records")).
			DoAndReturn(func(_ context.Context, dest interface{}, _ string, _ ...interface{}) error {
				*dest.(*[]byte) = []byte(`[{"id":"a","value":1}]`)
				return nil
			})

		var loaded []record
		require.NoError(t, store.Load("records", &loaded))
		require.Len(t, loaded, 1)
		assert.Equal(t, "a", loaded[0].ID)
	})

	t.Run("missing row keeps the default", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_db.NewMockDB(ctrl)
		store := NewPostgresStore(ctx, mockDB, zap.NewNop())

		mockDB.EXPECT().
			Get(ctx, gomock.Any(), gomock.Any(), gomock.Eq("records")).
			Return(pgx.ErrNoRows)

		loaded := []record{{ID: "default"}}
		require.NoError(t, store.Load("records", &loaded))
		assert.Equal(t, "default", loaded[0].ID)
	})

	t.Run("corrupt document keeps the default", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_db.NewMockDB(ctrl)
		store := NewPostgresStore(ctx, mockDB, zap.NewNop())

		mockDB.EXPECT().
			Get(ctx, gomock.Any(), gomock.Any(), gomock.Eq("records")).
			DoAndReturn(func(_ context.Context, dest interface{}, _ string, _ ...interface{}) error {
				*dest.(*[]byte) = []byte("{not json")
				return nil
			})

		loaded := []record{{ID: "default"}}
		require.NoError(t, store.Load("records", &loaded))
		assert.Equal(t, "default", loaded[0].ID)
	})
}

func TestPostgresStore_Save(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	mockDB := mock_db.NewMockDB(ctrl)
	store := NewPostgresStore(ctx, mockDB, zap.NewNop())

	events := store.Subscribe()
	saved := []record{{ID: "a", Value: 1}}

	mockDB.EXPECT().
		Exec(ctx, gomock.Any(), gomock.Eq("records"), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, args ...interface{}) (pgconn.CommandTag, error) {
			var doc []record
			require.NoError(t, json.Unmarshal(args[1].([]byte), &doc))
			assert.Equal(t, saved, doc)
			return nil, nil
		})

	require.NoError(t, store.Save("records", saved))

	t.Run("save notifies subscribers", func(t *testing.T) {
		select {
		case ev := <-events:
			assert.Equal(t, "records", ev.Collection)
		default:
			t.Fatal("expected an event after save")
		}
	})
}
