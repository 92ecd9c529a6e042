// Package smbios resolves memory module handles reported in CPER memory
// error sections to the slot names in the platform's SMBIOS tables.
package smbios

import (
	"fmt"
	"io"
	"sync"

	"github.com/coreos/pkg/capnslog"
	gosmbios "github.com/digitalocean/go-smbios/smbios"
)

var plog = capnslog.NewPackageLogger("github.com/ssargent/cperd", "smbios")

// TypeMemoryDevice is the SMBIOS structure type describing one memory
// module slot.
const TypeMemoryDevice = 17

// Offsets into a memory device structure's formatted area, which starts
// after the 4-byte structure header.
const (
	deviceLocatorOff = 0x0c
	bankLocatorOff   = 0x0d
)

// Location names one memory device slot.
type Location struct {
	Bank   string
	Device string
}

// Resolver maps memory device handles to locations. It implements
// cper.MemoryModuleResolver and is safe for concurrent use.
type Resolver struct {
	mu      sync.RWMutex
	modules map[uint16]Location
}

// NewResolver indexes the memory device structures in ss. Other structure
// types are skipped.
func NewResolver(ss []*gosmbios.Structure) *Resolver {
	r := &Resolver{modules: make(map[uint16]Location)}
	for _, s := range ss {
		if s == nil || s.Header.Type != TypeMemoryDevice {
			continue
		}
		r.modules[s.Header.Handle] = Location{
			Bank:   locator(s, bankLocatorOff),
			Device: locator(s, deviceLocatorOff),
		}
	}
	return r
}

// Decode reads a raw SMBIOS structure table from rd.
func Decode(rd io.Reader) (*Resolver, error) {
	ss, err := gosmbios.NewDecoder(rd).Decode()
	if err != nil {
		return nil, fmt.Errorf("decode smbios table: %w", err)
	}
	return NewResolver(ss), nil
}

// Load reads the running system's SMBIOS tables.
func Load() (*Resolver, error) {
	rc, ep, err := gosmbios.Stream()
	if err != nil {
		return nil, fmt.Errorf("open smbios stream: %w", err)
	}
	defer rc.Close()

	major, minor, rev := ep.Version()
	plog.Debugf("reading SMBIOS %d.%d.%d tables", major, minor, rev)

	r, err := Decode(rc)
	if err != nil {
		return nil, err
	}
	plog.Infof("indexed %d memory devices", r.Len())
	return r, nil
}

// ResolveMemoryModule returns the bank and device locator of handle.
func (r *Resolver) ResolveMemoryModule(handle uint16) (string, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	loc, ok := r.modules[handle]
	return loc.Bank, loc.Device, ok
}

// Len is the number of indexed memory devices.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.modules)
}

// locator returns the string referenced by the formatted byte at off.
// String references are 1-based; zero means no string.
func locator(s *gosmbios.Structure, off int) string {
	if off >= len(s.Formatted) {
		return ""
	}
	idx := int(s.Formatted[off])
	if idx == 0 || idx > len(s.Strings) {
		return ""
	}
	return s.Strings[idx-1]
}
