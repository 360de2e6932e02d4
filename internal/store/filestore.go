package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileStore keeps one pretty-printed JSON document per collection under a
// data directory. A directory watcher turns external writes into Events, so
// a second process sharing the directory shows up the same way an in-process
// save does.
type FileStore struct {
	dir    string
	logger *zap.Logger

	mu sync.Mutex

	subsMu sync.Mutex
	subs   []chan Event

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create directory watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch data directory: %w", err)
	}

	fs := &FileStore{
		dir:     dir,
		logger:  logger,
		watcher: watcher,
		done:    make(chan struct{}),
	}

	fs.wg.Add(1)
	go fs.watch()

	return fs, nil
}

func (fs *FileStore) path(collection string) string {
	return filepath.Join(fs.dir, collection+".json")
}

// Load reads a collection into dest. A missing file or unparsable payload
// leaves dest untouched so the caller's default survives.
func (fs *FileStore) Load(collection string, dest interface{}) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	raw, err := os.ReadFile(fs.path(collection))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		fs.logger.Warn("failed to read collection, using default",
			zap.String("collection", collection), zap.Error(err))
		return nil
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		fs.logger.Warn("corrupt collection data, using default",
			zap.String("collection", collection), zap.Error(err))
		return nil
	}
	return nil
}

func (fs *FileStore) Save(collection string, data interface{}) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	file, err := os.Create(fs.path(collection))
	if err != nil {
		return fmt.Errorf("failed to write collection %s: %w", collection, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode collection %s: %w", collection, err)
	}
	return nil
}

func (fs *FileStore) Subscribe() <-chan Event {
	ch := make(chan Event, 16)
	fs.subsMu.Lock()
	fs.subs = append(fs.subs, ch)
	fs.subsMu.Unlock()
	return ch
}

func (fs *FileStore) Close() error {
	close(fs.done)
	err := fs.watcher.Close()
	fs.wg.Wait()

	fs.subsMu.Lock()
	for _, ch := range fs.subs {
		close(ch)
	}
	fs.subs = nil
	fs.subsMu.Unlock()

	return err
}

func (fs *FileStore) watch() {
	defer fs.wg.Done()

	for {
		select {
		case ev, ok := <-fs.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			name := filepath.Base(ev.Name)
			if !strings.HasSuffix(name, ".json") {
				continue
			}
			fs.notify(Event{Collection: strings.TrimSuffix(name, ".json")})
		case err, ok := <-fs.watcher.Errors:
			if !ok {
				return
			}
			fs.logger.Warn("directory watcher error", zap.Error(err))
		case <-fs.done:
			return
		}
	}
}

func (fs *FileStore) notify(ev Event) {
	fs.subsMu.Lock()
	defer fs.subsMu.Unlock()

	for _, ch := range fs.subs {
		select {
		case ch <- ev:
		default:
			// Slow subscriber; it will re-read current state on the next event.
		}
	}
}
