package cper

import (
	"sync"
)

// MemoryModuleResolver maps an SMBIOS memory device handle to the bank and
// device locator strings of the module. Resolution is best effort.
type MemoryModuleResolver interface {
	ResolveMemoryModule(handle uint16) (bank, device string, ok bool)
}

// ResolverFunc adapts a function to MemoryModuleResolver.
type ResolverFunc func(handle uint16) (bank, device string, ok bool)

func (f ResolverFunc) ResolveMemoryModule(handle uint16) (string, string, bool) {
	return f(handle)
}

// DecodeContext is what a section decoder sees besides the payload.
type DecodeContext struct {
	Severity Severity
	Resolver MemoryModuleResolver
}

// DecodeFunc decodes a payload that is at least MinLength bytes long.
type DecodeFunc func(ctx DecodeContext, payload []byte) (SectionView, error)

// SectionDecoder binds a section type to its decoder.
type SectionDecoder struct {
	Type      GUID
	Name      string
	MinLength int
	Decode    DecodeFunc
}

// Registry maps section type GUIDs to decoders.
type Registry struct {
	mu       sync.RWMutex
	decoders map[GUID]SectionDecoder
	names    map[GUID]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		decoders: make(map[GUID]SectionDecoder),
		names:    make(map[GUID]string),
	}
}

// DefaultRegistry returns a registry holding the processor, memory and
// PCIe decoders plus names for the other well-known section types. Each
// call returns a fresh registry the caller may extend.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for t, name := range wellKnownSections {
		r.names[t] = name
	}
	r.Register(SectionDecoder{
		Type:      SectionProcessorGeneric,
		Name:      "general processor error",
		MinLength: ProcessorSectionSize,
		Decode:    decodeProcessor,
	})
	r.Register(SectionDecoder{
		Type:      SectionPlatformMemory,
		Name:      "memory error",
		MinLength: MemorySectionSize,
		Decode:    decodeMemory,
	})
	r.Register(SectionDecoder{
		Type:      SectionPCIe,
		Name:      "PCIe error",
		MinLength: PCIeSectionSize,
		Decode:    decodePCIe,
	})
	return r
}

// Register adds or replaces the decoder for d.Type.
func (r *Registry) Register(d SectionDecoder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.decoders[d.Type] = d
	if d.Name != "" {
		r.names[d.Type] = d.Name
	}
}

// Lookup returns the decoder registered for t.
func (r *Registry) Lookup(t GUID) (SectionDecoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.decoders[t]
	return d, ok
}

// Name returns a human-readable name for t, or "" when t is not known.
func (r *Registry) Name(t GUID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.names[t]
}
