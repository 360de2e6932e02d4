package audit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager batches audit entries and hands full or timed-out batches to a
// worker pool that publishes them through the Producer. Entries are a
// best-effort trail: a batch that cannot be published is logged and dropped
// rather than blocking request handling.
type Manager struct {
	workerCount int
	batchSize   int
	timeout     time.Duration

	producer Producer
	logger   *zap.Logger

	inputChan  chan Entry
	batchChan  chan []Entry
	shutdownCh chan struct{}
	once       sync.Once
	wg         sync.WaitGroup
}

func NewManager(producer Producer, logger *zap.Logger, workerCount, batchSize int, timeout time.Duration) *Manager {
	return &Manager{
		workerCount: workerCount,
		batchSize:   batchSize,
		timeout:     timeout,
		producer:    producer,
		logger:      logger,
		inputChan:   make(chan Entry, workerCount*batchSize*2),
		batchChan:   make(chan []Entry, workerCount*2),
		shutdownCh:  make(chan struct{}),
	}
}

func (m *Manager) Start(ctx context.Context) {
	m.logger.Debug("starting audit manager",
		zap.Int("workers", m.workerCount), zap.Int("batch_size", m.batchSize))

	m.wg.Add(1)
	go m.runAggregator(ctx)

	for i := 0; i < m.workerCount; i++ {
		m.wg.Add(1)
		go m.runWorker(ctx, i)
	}
}

// Record queues an entry, dropping it if the pipeline is saturated or shut
// down.
func (m *Manager) Record(entry Entry) {
	select {
	case m.inputChan <- entry:
	case <-m.shutdownCh:
		m.logger.Warn("audit pipeline stopped, dropping entry", zap.String("path", entry.Path))
	default:
		m.logger.Warn("audit pipeline saturated, dropping entry", zap.String("path", entry.Path))
	}
}

func (m *Manager) Shutdown(ctx context.Context) {
	m.once.Do(func() {
		close(m.shutdownCh)

		done := make(chan struct{})
		go func() {
			m.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			m.logger.Debug("audit manager shutdown completed")
		case <-ctx.Done():
			m.logger.Warn("audit manager shutdown interrupted")
		}

		if err := m.producer.Close(); err != nil {
			m.logger.Error("failed to close audit producer", zap.Error(err))
		}
	})
}

func (m *Manager) runAggregator(ctx context.Context) {
	defer m.wg.Done()

	var (
		batch    []Entry
		timer    *time.Timer
		timeoutC <-chan time.Time
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
		if len(batch) > 0 {
			m.dispatchBatch(batch)
		}
		close(m.batchChan)
	}()

	for {
		select {
		case entry := <-m.inputChan:
			batch = append(batch, entry)
			if len(batch) >= m.batchSize {
				m.dispatchBatch(batch)
				batch = nil
				timeoutC = nil
			} else if len(batch) == 1 {
				timer = time.NewTimer(m.timeout)
				timeoutC = timer.C
			}

		case <-timeoutC:
			m.dispatchBatch(batch)
			batch = nil
			timeoutC = nil

		case <-ctx.Done():
			return

		case <-m.shutdownCh:
			return
		}
	}
}

func (m *Manager) dispatchBatch(batch []Entry) {
	batchCopy := make([]Entry, len(batch))
	copy(batchCopy, batch)

	select {
	case m.batchChan <- batchCopy:
	default:
		// All workers busy; publish inline rather than dropping.
		m.publish(batchCopy)
	}
}

func (m *Manager) runWorker(ctx context.Context, id int) {
	defer m.wg.Done()

	for {
		select {
		case batch, ok := <-m.batchChan:
			if !ok {
				return
			}
			m.publish(batch)
		case <-ctx.Done():
			// Drain whatever is queued before exiting.
			for {
				select {
				case batch, ok := <-m.batchChan:
					if !ok {
						return
					}
					m.publish(batch)
				default:
					return
				}
			}
		}
	}
}

func (m *Manager) publish(batch []Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.producer.Publish(ctx, batch); err != nil {
		m.logger.Error("failed to publish audit batch",
			zap.Int("entries", len(batch)), zap.Error(err))
	}
}
