// Package di provides dependency injection container
package di

import (
	"fmt"
	"path/filepath"

	"github.com/coreos/pkg/capnslog"

	"github.com/ssargent/cperd/pkg/api" //nolint:depguard
	"github.com/ssargent/cperd/pkg/config"
	"github.com/ssargent/cperd/pkg/cper"
	"github.com/ssargent/cperd/pkg/recordid"
	"github.com/ssargent/cperd/pkg/smbios"
	"github.com/ssargent/cperd/pkg/storage"
	"github.com/ssargent/cperd/pkg/store"
)

var plog = capnslog.NewPackageLogger("github.com/ssargent/cperd", "di")

// archiveDirName is the pebble directory under data_dir
const archiveDirName = "archive"

// Container holds all the dependencies for the application
type Container struct {
	serverFactory api.ServerFactory
	smbiosLoader  func() (*smbios.Resolver, error)
	ids           *recordid.Generator
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		serverFactory: api.NewServerFactory(),
		smbiosLoader:  smbios.Load,
		ids:           recordid.New(nil),
	}
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}

// SetSMBIOSLoader allows overriding where SMBIOS tables come from (for testing)
func (c *Container) SetSMBIOSLoader(loader func() (*smbios.Resolver, error)) {
	c.smbiosLoader = loader
}

// SetIDGenerator allows overriding the record ID generator (for testing)
func (c *Container) SetIDGenerator(ids *recordid.Generator) {
	c.ids = ids
}

// OpenStore opens the record store backend cfg selects
func (c *Container) OpenStore(cfg *config.Config) (store.RecordStore, error) {
	switch cfg.Storage.Backend {
	case config.BackendLog, "":
		l, err := store.NewErrorLog(store.ErrorLogConfig{
			DataDir:       cfg.DataDir,
			FsyncInterval: cfg.Storage.FsyncInterval,
			IDs:           c.ids,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create error log: %w", err)
		}
		result, err := l.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open error log: %w", err)
		}
		if result.RecordsTruncated > 0 {
			plog.Warningf("recovered error log: %d bytes truncated", result.BytesTruncated)
		}
		plog.Debugf("opened error log with %d records in %v", result.RecordsValidated, result.RecoveryTime)
		return l, nil

	case config.BackendPebble:
		a, err := storage.Open(filepath.Join(cfg.DataDir, archiveDirName), storage.Options{
			Compression:       cfg.Storage.Compression,
			Sync:              cfg.Storage.FsyncInterval == 0,
			QuarantineRejects: cfg.Decode.StrictIngest,
			IDs:               c.ids,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open archive: %w", err)
		}
		return a, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// Decoder builds the record decoder. With decode.smbios set, memory
// module handles are resolved from the platform's SMBIOS tables; when
// those cannot be read the decoder works without them.
func (c *Container) Decoder(cfg *config.Config) *cper.Decoder {
	if !cfg.Decode.SMBIOS {
		return cper.NewDecoder()
	}

	resolver, err := c.smbiosLoader()
	if err != nil {
		plog.Warningf("SMBIOS tables unavailable, DIMM locations will not be resolved: %v", err)
		return cper.NewDecoder()
	}
	plog.Infof("resolving DIMM locations from %d SMBIOS memory devices", resolver.Len())
	return cper.NewDecoder(cper.WithResolver(resolver))
}
