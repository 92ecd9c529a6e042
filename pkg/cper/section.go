package cper

import (
	"bytes"
	"encoding/binary"
)

// Section header validity bits.
const (
	SectionValidFRUID   = 1 << 0
	SectionValidFRUText = 1 << 1
)

const fruTextSize = 20

// SectionView is the typed, validity-gated content of one section.
type SectionView interface {
	SectionType() GUID
}

// UnknownView stands in for sections without a registered decoder.
type UnknownView struct {
	Type     GUID     `json:"-"`
	Name     string   `json:"name,omitempty"`
	Severity Severity `json:"severity"`
}

func (v *UnknownView) SectionType() GUID { return v.Type }

// Section is one error data entry of a record.
type Section struct {
	Index          int
	Offset         int // offset of the section header in the record buffer
	Type           GUID
	Name           string
	Severity       Severity
	Revision       uint16
	ValidationBits uint8
	Flags          uint8
	Length         uint32

	FRUID   *GUID
	FRUText *string

	Payload []byte
	View    SectionView

	// Err is set when the section could not be decoded, for example
	// ErrSectionTooSmall. The walk continues past such sections.
	Err error
}

// Known reports whether a decoder produced a typed view for the section.
func (s *Section) Known() bool {
	if s.View == nil {
		return false
	}
	_, unknown := s.View.(*UnknownView)
	return !unknown
}

// parseSection builds a Section from a header slice of exactly
// SectionHeaderSize bytes and its already bounds-checked payload.
func parseSection(index, offset int, hdr, payload []byte) *Section {
	s := &Section{
		Index:          index,
		Offset:         offset,
		Type:           readGUID(hdr[0:16]),
		Severity:       Severity(binary.LittleEndian.Uint32(hdr[16:20])),
		Revision:       binary.LittleEndian.Uint16(hdr[20:22]),
		ValidationBits: hdr[22],
		Flags:          hdr[23],
		Length:         binary.LittleEndian.Uint32(hdr[24:28]),
		Payload:        bytes.Clone(payload),
	}

	if s.ValidationBits&SectionValidFRUID != 0 {
		id := readGUID(hdr[28:44])
		s.FRUID = &id
	}
	if s.ValidationBits&SectionValidFRUText != 0 {
		text := cString(hdr[44 : 44+fruTextSize])
		s.FRUText = &text
	}
	return s
}

// cString returns b up to its first NUL.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func sectionLength(hdr []byte) uint64 {
	return uint64(binary.LittleEndian.Uint32(hdr[24:28]))
}
