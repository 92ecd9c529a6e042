package store

import (
	"context"
	"time"
)

// RecordStore is the persistence contract shared by the append-only
// ErrorLog and the pebble-backed archive in pkg/storage.
type RecordStore interface {
	// Write validates raw strictly and persists it under a new record ID.
	Write(raw []byte) (uint64, error)
	// Read returns the raw record stored under id, or ErrRecordNotFound.
	Read(id uint64) ([]byte, error)
	// Delete removes id, or returns ErrRecordNotFound.
	Delete(id uint64) error
	// IDs lists live record IDs in ascending order.
	IDs(ctx context.Context) ([]uint64, error)
	Close() error
}

// StoreStats holds statistics about a record store
type StoreStats struct {
	Records  int           `json:"records"`
	DataSize int64         `json:"data_size"`
	Rejected uint64        `json:"rejected"`
	Uptime   time.Duration `json:"uptime"`
}

var _ RecordStore = (*ErrorLog)(nil)
