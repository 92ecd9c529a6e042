package cper

import "fmt"

// Decoder turns records into sections using a Registry and an optional
// memory module resolver. A Decoder is safe for concurrent use.
type Decoder struct {
	registry *Registry
	resolver MemoryModuleResolver
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithRegistry replaces the default registry.
func WithRegistry(r *Registry) Option {
	return func(d *Decoder) { d.registry = r }
}

// WithResolver enriches memory sections with module locations.
func WithResolver(r MemoryModuleResolver) Option {
	return func(d *Decoder) { d.resolver = r }
}

// NewDecoder creates a decoder. Without options it uses DefaultRegistry
// and no resolver.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		opt(d)
	}
	if d.registry == nil {
		d.registry = DefaultRegistry()
	}
	return d
}

var defaultDecoder = NewDecoder()

// Decode decodes buf with the default decoder.
func Decode(buf []byte) (*Record, error) { return defaultDecoder.Decode(buf) }

// NewWalker walks buf with the default decoder.
func NewWalker(buf []byte) *Walker { return defaultDecoder.Walk(buf) }

// DecodeSection decodes one payload with the default decoder.
func DecodeSection(t GUID, severity Severity, payload []byte) (SectionView, error) {
	return defaultDecoder.DecodeSection(t, severity, payload)
}

// Walk returns a tolerant, forward-only iterator over the sections of buf.
func (d *Decoder) Walk(buf []byte) *Walker {
	return &Walker{dec: d, buf: buf}
}

// Decode walks buf to the end. On a section overrun the returned record
// holds every section decoded before it, alongside the error. A header
// failure returns a nil record.
func (d *Decoder) Decode(buf []byte) (*Record, error) {
	w := d.Walk(buf)
	var sections []*Section
	for w.Next() {
		sections = append(sections, w.Section())
	}
	if !w.headerOK {
		return nil, w.Err()
	}
	return &Record{Header: w.Header(), Sections: sections}, w.Err()
}

// DecodeSection dispatches one payload to the decoder registered for t.
// Unknown types yield an *UnknownView and no error. A payload shorter than
// the type's fixed layout yields ErrSectionTooSmall.
func (d *Decoder) DecodeSection(t GUID, severity Severity, payload []byte) (SectionView, error) {
	dec, ok := d.registry.Lookup(t)
	if !ok {
		return &UnknownView{Type: t, Name: d.registry.Name(t), Severity: severity}, nil
	}
	if len(payload) < dec.MinLength {
		return nil, fmt.Errorf("%w: %s needs %d bytes, have %d", ErrSectionTooSmall, dec.Name, dec.MinLength, len(payload))
	}
	return dec.Decode(DecodeContext{Severity: severity, Resolver: d.resolver}, payload)
}

// decodeSection materialises the section at offset and runs its decoder.
// Decode failures stay on the section.
func (d *Decoder) decodeSection(index, offset int, hdr, payload []byte) *Section {
	s := parseSection(index, offset, hdr, payload)
	s.Name = d.registry.Name(s.Type)

	view, err := d.DecodeSection(s.Type, s.Severity, s.Payload)
	if err != nil {
		s.Err = &ValidationError{Err: err, Section: index, Offset: offset, Detail: "section not decoded"}
		return s
	}
	s.View = view
	return s
}
