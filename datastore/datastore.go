// Package datastore is a small JSON-file key/value store backing the bot's
// persistent state (command usage history, counters). Values survive a
// process restart; writes are atomic and a background routine flushes dirty
// data periodically.
package datastore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// DataStore is a persistent map[string]any. Safe for concurrent use.
type DataStore struct {
	mu       sync.RWMutex
	data     map[string]any
	file     string
	interval time.Duration

	saveMu       sync.Mutex // serializes writers to file and lastChecksum
	lastChecksum string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeMu sync.RWMutex
	closed  bool
}

// New opens (or creates) the store at filePath and starts the autosave
// routine. Call Close to flush and stop it.
func New(filePath string) (*DataStore, error) {
	return NewWithInterval(filePath, 10*time.Second)
}

// NewWithInterval is New with a custom autosave interval; zero disables
// autosave entirely.
func NewWithInterval(filePath string, interval time.Duration) (*DataStore, error) {
	ctx, cancel := context.WithCancel(context.Background())
	ds := &DataStore{
		data:     make(map[string]any),
		file:     filePath,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}

	if _, err := os.Stat(filePath); err == nil {
		if err := ds.loadFromFile(); err != nil {
			cancel()
			return nil, fmt.Errorf("load datastore %s: %w", filePath, err)
		}
	}

	if interval > 0 {
		ds.wg.Add(1)
		go ds.autoSave()
	}
	return ds, nil
}

// Add stores a key-value pair, replacing any previous value.
func (ds *DataStore) Add(key string, value any) {
	if ds.isClosed() {
		return
	}
	ds.mu.Lock()
	ds.data[key] = value
	ds.mu.Unlock()
}

// Get retrieves a value by key.
func (ds *DataStore) Get(key string) (any, bool) {
	if ds.isClosed() {
		return nil, false
	}
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	value, exists := ds.data[key]
	return value, exists
}

// Delete removes a key-value pair.
func (ds *DataStore) Delete(key string) {
	if ds.isClosed() {
		return
	}
	ds.mu.Lock()
	delete(ds.data, key)
	ds.mu.Unlock()
}

// Keys returns all keys currently in the store, in no particular order.
func (ds *DataStore) Keys() []string {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	keys := make([]string, 0, len(ds.data))
	for k := range ds.data {
		keys = append(keys, k)
	}
	return keys
}

// SaveToFile forces an immediate flush to disk.
func (ds *DataStore) SaveToFile() error {
	if ds.isClosed() {
		return fmt.Errorf("datastore is closed")
	}
	return ds.saveToFile()
}

// Close stops the autosave routine and performs a final flush. Close is
// idempotent.
func (ds *DataStore) Close() error {
	ds.closeMu.Lock()
	if ds.closed {
		ds.closeMu.Unlock()
		return nil
	}
	ds.closed = true
	ds.closeMu.Unlock()

	ds.cancel()
	ds.wg.Wait()
	return ds.saveToFile()
}

func (ds *DataStore) isClosed() bool {
	ds.closeMu.RLock()
	defer ds.closeMu.RUnlock()
	return ds.closed
}

// saveToFile writes the current data atomically, skipping the write when
// nothing changed since the last save.
func (ds *DataStore) saveToFile() error {
	ds.saveMu.Lock()
	defer ds.saveMu.Unlock()

	ds.mu.RLock()
	data, err := json.MarshalIndent(ds.data, "", "  ")
	ds.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal datastore: %w", err)
	}

	sum := sha256.Sum256(data)
	checksum := hex.EncodeToString(sum[:])
	if checksum == ds.lastChecksum {
		return nil
	}

	tmp := ds.file + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, ds.file); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}

	ds.lastChecksum = checksum
	return nil
}

func (ds *DataStore) loadFromFile() error {
	data, err := os.ReadFile(ds.file)
	if err != nil {
		return err
	}
	var loaded map[string]any
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	ds.mu.Lock()
	ds.data = loaded
	ds.mu.Unlock()
	sum := sha256.Sum256(data)
	ds.lastChecksum = hex.EncodeToString(sum[:])
	return nil
}

func (ds *DataStore) autoSave() {
	defer ds.wg.Done()
	ticker := time.NewTicker(ds.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ds.ctx.Done():
			return
		case <-ticker.C:
			ds.saveToFile() //nolint:errcheck
		}
	}
}
