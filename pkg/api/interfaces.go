// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/ssargent/cperd/pkg/cper"
	"github.com/ssargent/cperd/pkg/storage"
	"github.com/ssargent/cperd/pkg/store"
)

// StatsProvider is implemented by record stores that report statistics
type StatsProvider interface {
	Stats() *store.StoreStats
}

// QuarantineLister is implemented by record stores that keep rejected
// records around for inspection
type QuarantineLister interface {
	Quarantined(ctx context.Context) ([]storage.QuarantineEntry, error)
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves the API until ctx is done
	StartServer(ctx context.Context, records store.RecordStore, decoder *cper.Decoder, config ServerConfig) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
