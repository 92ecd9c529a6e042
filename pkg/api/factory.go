// Package api provides factory implementations for dependency injection
package api

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/ssargent/cperd/pkg/cper"
	"github.com/ssargent/cperd/pkg/store"
)

// DefaultServerFactory is the default implementation of ServerFactory
type DefaultServerFactory struct{}

// NewServerFactory creates a new server factory
func NewServerFactory() ServerFactory {
	return &DefaultServerFactory{}
}

// CreateServerStarter creates a server starter
func (f *DefaultServerFactory) CreateServerStarter() ServerStarter {
	return &DefaultServerStarter{}
}

// DefaultServerStarter is the default implementation of ServerStarter.
// Metrics go to the process-wide Prometheus registry.
type DefaultServerStarter struct{}

// StartServer starts the API server with the given configuration
func (s *DefaultServerStarter) StartServer(
	ctx context.Context,
	records store.RecordStore,
	decoder *cper.Decoder,
	config ServerConfig,
) error {
	metrics := NewMetrics(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	return StartServer(ctx, NewServer(records, decoder, config, metrics), config)
}
