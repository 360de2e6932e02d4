package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v4"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/db"
)

// PostgresStore keeps each collection as a single jsonb document in a
// collections table. Events cover in-process saves only; cross-process
// change notification is a file-store feature.
type PostgresStore struct {
	ctx    context.Context
	db     db.DB
	logger *zap.Logger

	subsMu sync.Mutex
	subs   []chan Event
}

func NewPostgresStore(ctx context.Context, database db.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{
		ctx:    ctx,
		db:     database,
		logger: logger,
	}
}

// Init creates the collections table if it does not exist.
func (s *PostgresStore) Init() error {
	_, err := s.db.Exec(s.ctx, `
        CREATE TABLE IF NOT EXISTS collections (
            key        TEXT PRIMARY KEY,
            doc        JSONB NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )
    `)
	if err != nil {
		return fmt.Errorf("failed to create collections table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(collection string, dest interface{}) error {
	var doc []byte
	err := s.db.Get(s.ctx, &doc, "SELECT doc FROM collections WHERE key = $1", collection)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		s.logger.Warn("failed to read collection, using default",
			zap.String("collection", collection), zap.Error(err))
		return nil
	}

	if err := json.Unmarshal(doc, dest); err != nil {
		s.logger.Warn("corrupt collection data, using default",
			zap.String("collection", collection), zap.Error(err))
		return nil
	}
	return nil
}

func (s *PostgresStore) Save(collection string, data interface{}) error {
	doc, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode collection %s: %w", collection, err)
	}

	_, err = s.db.Exec(s.ctx, `
        INSERT INTO collections (key, doc, updated_at)
        VALUES ($1, $2, now())
        ON CONFLICT (key) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
    `, collection, doc)
	if err != nil {
		return fmt.Errorf("failed to write collection %s: %w", collection, err)
	}

	s.notify(Event{Collection: collection})
	return nil
}

func (s *PostgresStore) Subscribe() <-chan Event {
	ch := make(chan Event, 16)
	s.subsMu.Lock()
	s.subs = append(s.subs, ch)
	s.subsMu.Unlock()
	return ch
}

func (s *PostgresStore) Close() error {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for _, ch := range s.subs {
		close(ch)
	}
	s.subs = nil
	return nil
}

func (s *PostgresStore) notify(ev Event) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
