// Package storage persists command usage on top of the JSON datastore: a
// bounded per-channel history of invocations and a global per-command
// counter. The dispatcher feeds it through its recorder hook.
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"plugbot/datastore"
)

const usageHistoryLimit = 50

const (
	keyUsagePrefix = "usage:"
	keyCounters    = "counters"
)

// UsageRecord is one recorded command invocation.
type UsageRecord struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	Channel  string    `json:"channel"`
	Command  string    `json:"command"`
	Plugin   string    `json:"plugin"`
	Arg      string    `json:"arg,omitempty"`
	Datetime time.Time `json:"datetime"`
}

// Storage wraps the datastore with typed accessors.
type Storage struct {
	ds *datastore.DataStore
}

// New opens the storage file at path.
func New(path string) (*Storage, error) {
	ds, err := datastore.New(path)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

// Close flushes and closes the underlying datastore.
func (s *Storage) Close() error {
	return s.ds.Close()
}

// RecordUsage appends rec to the channel's usage history (bounded) and bumps
// the command's counter.
func (s *Storage) RecordUsage(rec UsageRecord) error {
	history, err := s.UsageHistory(rec.Channel)
	if err != nil {
		return err
	}
	history = append(history, rec)
	if len(history) > usageHistoryLimit {
		history = history[len(history)-usageHistoryLimit:]
	}
	s.ds.Add(keyUsagePrefix+rec.Channel, history)

	counters, err := s.Counters()
	if err != nil {
		return err
	}
	counters[rec.Command]++
	s.ds.Add(keyCounters, counters)
	return nil
}

// UsageHistory returns the recorded invocations for a channel, oldest first.
func (s *Storage) UsageHistory(channel string) ([]UsageRecord, error) {
	data, ok := s.ds.Get(keyUsagePrefix + channel)
	if !ok {
		return []UsageRecord{}, nil
	}
	var history []UsageRecord
	if err := remarshal(data, &history); err != nil {
		return nil, fmt.Errorf("decode usage history: %w", err)
	}
	return history, nil
}

// Counters returns the invocation count per command identifier.
func (s *Storage) Counters() (map[string]int64, error) {
	data, ok := s.ds.Get(keyCounters)
	if !ok {
		return map[string]int64{}, nil
	}
	counters := map[string]int64{}
	if err := remarshal(data, &counters); err != nil {
		return nil, fmt.Errorf("decode counters: %w", err)
	}
	return counters, nil
}

// remarshal converts a datastore value (possibly a raw map loaded from disk)
// into its typed form.
func remarshal(data, out any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
