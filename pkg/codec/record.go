package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"time"
)

// HeaderSize is the size of an encoded frame header:
// CRC32(4) + ID(8) + Length(4) + Timestamp(8).
const HeaderSize = 24

// MaxDataSize bounds the payload of a single frame.
const MaxDataSize = 1 << 24

var (
	ErrShortFrame    = errors.New("codec: data too short for frame")
	ErrFrameTooLarge = errors.New("codec: frame data exceeds limit")
	ErrChecksum      = errors.New("codec: CRC32 mismatch")
)

// Frame is one entry of the error record log: a stored CPER record, or a
// tombstone when Data is empty.
type Frame struct {
	CRC32     uint32 // covers every field after itself
	ID        uint64 // record identifier
	Length    uint32 // len(Data)
	Timestamp uint64 // unix nanoseconds at encode time
	Data      []byte
}

// FrameCodec handles serialization and deserialization of frames
type FrameCodec struct {
	now func() time.Time
}

// NewFrameCodec creates a new frame codec instance
func NewFrameCodec() *FrameCodec {
	return &FrameCodec{now: time.Now}
}

// Encode serializes a record under id.
// Format: [CRC32(4)][ID(8)][Length(4)][Timestamp(8)][Data]
func (c *FrameCodec) Encode(id uint64, data []byte) ([]byte, error) {
	if len(data) > MaxDataSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(data))
	}
	f := &Frame{
		ID:        id,
		Length:    uint32(len(data)),
		Timestamp: uint64(c.now().UnixNano()),
		Data:      data,
	}
	f.CRC32 = f.checksum()

	buf := make([]byte, f.Size())
	putHeader(buf, f)
	copy(buf[HeaderSize:], f.Data)
	return buf, nil
}

// EncodeTombstone serializes a deletion marker for id.
func (c *FrameCodec) EncodeTombstone(id uint64) []byte {
	buf, _ := c.Encode(id, nil)
	return buf
}

// DecodeHeader reads the fixed header of a frame. The returned frame has
// no Data; Length says how much follows.
func (c *FrameCodec) DecodeHeader(header []byte) (*Frame, error) {
	if len(header) < HeaderSize {
		return nil, fmt.Errorf("%w: %d < %d", ErrShortFrame, len(header), HeaderSize)
	}
	f := &Frame{
		CRC32:     binary.LittleEndian.Uint32(header[0:4]),
		ID:        binary.LittleEndian.Uint64(header[4:12]),
		Length:    binary.LittleEndian.Uint32(header[12:16]),
		Timestamp: binary.LittleEndian.Uint64(header[16:24]),
	}
	if f.Length > MaxDataSize {
		return nil, fmt.Errorf("%w: header declares %d bytes", ErrFrameTooLarge, f.Length)
	}
	return f, nil
}

// Decode deserializes a complete frame. Data aliases buf.
func (c *FrameCodec) Decode(buf []byte) (*Frame, error) {
	f, err := c.DecodeHeader(buf)
	if err != nil {
		return nil, err
	}
	end := HeaderSize + int(f.Length)
	if len(buf) < end {
		return nil, fmt.Errorf("%w: have %d bytes, frame needs %d", ErrShortFrame, len(buf), end)
	}
	f.Data = buf[HeaderSize:end]
	return f, nil
}

// Validate checks the integrity of a frame using CRC32
func (f *Frame) Validate() error {
	if sum := f.checksum(); f.CRC32 != sum {
		return fmt.Errorf("%w: %d != %d", ErrChecksum, f.CRC32, sum)
	}
	if int(f.Length) != len(f.Data) {
		return fmt.Errorf("%w: length %d, have %d data bytes", ErrShortFrame, f.Length, len(f.Data))
	}
	return nil
}

// IsTombstone reports whether the frame marks its record deleted. A CPER
// record is never empty, so an empty payload is unambiguous.
func (f *Frame) IsTombstone() bool { return f.Length == 0 }

// Size returns the total size of the frame when encoded
func (f *Frame) Size() int {
	return HeaderSize + len(f.Data)
}

// Time returns the encode timestamp.
func (f *Frame) Time() time.Time { return time.Unix(0, int64(f.Timestamp)) }

func putHeader(buf []byte, f *Frame) {
	binary.LittleEndian.PutUint32(buf[0:4], f.CRC32)
	binary.LittleEndian.PutUint64(buf[4:12], f.ID)
	binary.LittleEndian.PutUint32(buf[12:16], f.Length)
	binary.LittleEndian.PutUint64(buf[16:24], f.Timestamp)
}

// checksum computes CRC32 over the header fields after the checksum and
// the data.
func (f *Frame) checksum() uint32 {
	var hdr [HeaderSize - 4]byte
	binary.LittleEndian.PutUint64(hdr[0:8], f.ID)
	binary.LittleEndian.PutUint32(hdr[8:12], f.Length)
	binary.LittleEndian.PutUint64(hdr[12:20], f.Timestamp)

	crc := crc32.NewIEEE()
	crc.Write(hdr[:])
	crc.Write(f.Data)
	return crc.Sum32()
}
