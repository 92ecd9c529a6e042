package cper

import (
	"encoding/binary"
)

const (
	// RecordHeaderSize is the size of the generic error status block header.
	RecordHeaderSize = 20
	// SectionHeaderSize is the size of a generic error data entry header.
	SectionHeaderSize = 64
)

// BlockStatus is the block_status word of a record header.
type BlockStatus uint32

func (b BlockStatus) UncorrectableValid() bool    { return b&(1<<0) != 0 }
func (b BlockStatus) CorrectableValid() bool      { return b&(1<<1) != 0 }
func (b BlockStatus) MultipleUncorrectable() bool { return b&(1<<2) != 0 }
func (b BlockStatus) MultipleCorrectable() bool   { return b&(1<<3) != 0 }

// EntryCount is the number of error data entries firmware claims follow.
func (b BlockStatus) EntryCount() int { return int((b >> 4) & 0x3ff) }

// Flags renders the four status bits.
func (b BlockStatus) Flags() FlagSet { return RenderFlags(uint32(b)&0xf, BlockStatusFlags) }

// RecordHeader is the fixed header of an error status block.
type RecordHeader struct {
	BlockStatus   BlockStatus `json:"block_status"`
	RawDataOffset uint32      `json:"raw_data_offset"`
	RawDataLength uint32      `json:"raw_data_length"`
	DataLength    uint32      `json:"data_length"`
	Severity      Severity    `json:"severity"`
}

// Len returns the total length of the record the header describes,
// including a trailing raw data region when one is declared. It is never
// shorter than the header plus its section data.
func (h RecordHeader) Len() uint64 {
	n := RecordHeaderSize + uint64(h.DataLength)
	if h.RawDataLength != 0 {
		if end := uint64(h.RawDataOffset) + uint64(h.RawDataLength); end > n {
			n = end
		}
	}
	return n
}

// Bytes returns the prefix of buf that holds exactly the record at its
// start, dropping anything after it. A raw data region reaching past the
// end of buf is cut at len(buf).
func Bytes(buf []byte) ([]byte, error) {
	h, err := ParseHeader(buf)
	if err != nil {
		return nil, err
	}
	n := h.Len()
	if n > uint64(len(buf)) {
		n = uint64(len(buf))
	}
	return buf[:n], nil
}

// ParseHeader reads the record header at the start of buf. It fails when
// buf cannot hold the header or the section data the header declares.
func ParseHeader(buf []byte) (RecordHeader, error) {
	if len(buf) < RecordHeaderSize {
		return RecordHeader{}, headerError(0, "buffer holds %d bytes, header needs %d", len(buf), RecordHeaderSize)
	}

	h := RecordHeader{
		BlockStatus:   BlockStatus(binary.LittleEndian.Uint32(buf[0:4])),
		RawDataOffset: binary.LittleEndian.Uint32(buf[4:8]),
		RawDataLength: binary.LittleEndian.Uint32(buf[8:12]),
		DataLength:    binary.LittleEndian.Uint32(buf[12:16]),
		Severity:      Severity(binary.LittleEndian.Uint32(buf[16:20])),
	}

	if RecordHeaderSize+uint64(h.DataLength) > uint64(len(buf)) {
		return h, headerError(12, "data length %d exceeds the %d bytes after the header",
			h.DataLength, len(buf)-RecordHeaderSize)
	}
	return h, nil
}

// CheckHeader applies the structural checks that need no payload access:
// a nonzero data length must hold at least one section header, and a raw
// data region may not overlap the section data.
func CheckHeader(h RecordHeader) error {
	if h.DataLength != 0 && h.DataLength < SectionHeaderSize {
		return headerError(12, "data length %d is smaller than a section header", h.DataLength)
	}
	if h.RawDataLength != 0 && uint64(h.RawDataOffset) < RecordHeaderSize+uint64(h.DataLength) {
		return headerError(4, "raw data offset %d overlaps section data ending at %d",
			h.RawDataOffset, RecordHeaderSize+uint64(h.DataLength))
	}
	return nil
}

// Record is a decoded error status block.
type Record struct {
	Header   RecordHeader
	Sections []*Section
}

// Severity is the event severity of the whole record.
func (r *Record) Severity() Severity { return r.Header.Severity }
