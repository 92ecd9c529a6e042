package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"
)

func fixedCodec(ts int64) *FrameCodec {
	return &FrameCodec{now: func() time.Time { return time.Unix(0, ts) }}
}

func TestFrameCodec_EncodeDecodeRoundTrip(t *testing.T) {
	codec := NewFrameCodec()

	testCases := []struct {
		name string
		id   uint64
		data []byte
	}{
		{
			name: "empty record header",
			id:   1,
			data: make([]byte, 20),
		},
		{
			name: "binary data",
			id:   uint64(1700000000)<<32 | 7,
			data: []byte{0x00, 0x01, 0x02, 0x03, 0xFF, 0xFE},
		},
		{
			name: "large record",
			id:   42,
			data: bytes.Repeat([]byte{0xa5}, 64*1024),
		},
		{
			name: "max id",
			id:   ^uint64(0),
			data: []byte("cper"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := codec.Encode(tc.id, tc.data)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if len(encoded) != HeaderSize+len(tc.data) {
				t.Fatalf("encoded size = %d, want %d", len(encoded), HeaderSize+len(tc.data))
			}

			frame, err := codec.Decode(encoded)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if err := frame.Validate(); err != nil {
				t.Fatalf("Frame validation failed: %v", err)
			}
			if frame.ID != tc.id {
				t.Errorf("ID = %d, want %d", frame.ID, tc.id)
			}
			if !bytes.Equal(frame.Data, tc.data) {
				t.Errorf("data mismatch")
			}
			if frame.IsTombstone() {
				t.Errorf("record frame reported as tombstone")
			}
		})
	}
}

func TestFrameCodec_Layout(t *testing.T) {
	codec := fixedCodec(1719043200000000000)
	encoded, err := codec.Encode(0x0102030405060708, []byte{0xaa, 0xbb})
	if err != nil {
		t.Fatal(err)
	}

	if got := binary.LittleEndian.Uint64(encoded[4:12]); got != 0x0102030405060708 {
		t.Errorf("id field = %#x", got)
	}
	if got := binary.LittleEndian.Uint32(encoded[12:16]); got != 2 {
		t.Errorf("length field = %d", got)
	}
	if got := binary.LittleEndian.Uint64(encoded[16:24]); got != 1719043200000000000 {
		t.Errorf("timestamp field = %d", got)
	}
	if !bytes.Equal(encoded[24:], []byte{0xaa, 0xbb}) {
		t.Errorf("data = %x", encoded[24:])
	}
}

func TestFrameCodec_Tombstone(t *testing.T) {
	codec := NewFrameCodec()
	encoded := codec.EncodeTombstone(99)
	if len(encoded) != HeaderSize {
		t.Fatalf("tombstone size = %d, want %d", len(encoded), HeaderSize)
	}

	frame, err := codec.Decode(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if err := frame.Validate(); err != nil {
		t.Fatal(err)
	}
	if !frame.IsTombstone() || frame.ID != 99 {
		t.Errorf("got tombstone=%v id=%d", frame.IsTombstone(), frame.ID)
	}
}

func TestFrameCodec_CRCValidation(t *testing.T) {
	codec := NewFrameCodec()
	encoded, err := codec.Encode(5, []byte("payload"))
	if err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		name   string
		offset int
	}{
		{"corrupted checksum", 0},
		{"corrupted id", 6},
		{"corrupted timestamp", 20},
		{"corrupted data", HeaderSize + 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			corrupted := append([]byte(nil), encoded...)
			corrupted[tc.offset] ^= 0xff

			frame, err := codec.Decode(corrupted)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if err := frame.Validate(); !errors.Is(err, ErrChecksum) {
				t.Errorf("Validate = %v, want ErrChecksum", err)
			}
		})
	}
}

func TestFrameCodec_MalformedData(t *testing.T) {
	codec := NewFrameCodec()
	valid, err := codec.Encode(1, []byte("0123456789"))
	if err != nil {
		t.Fatal(err)
	}

	oversized := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(oversized[12:16], MaxDataSize+1)

	testCases := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrShortFrame},
		{"short header", valid[:HeaderSize-1], ErrShortFrame},
		{"truncated data", valid[:len(valid)-1], ErrShortFrame},
		{"oversized length", oversized, ErrFrameTooLarge},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := codec.Decode(tc.data); !errors.Is(err, tc.want) {
				t.Errorf("Decode = %v, want %v", err, tc.want)
			}
		})
	}

	if _, err := codec.Encode(1, make([]byte, MaxDataSize+1)); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("Encode oversized = %v", err)
	}
}

func TestFrameCodec_DecodeHeader(t *testing.T) {
	codec := fixedCodec(10)
	encoded, err := codec.Encode(77, []byte("abc"))
	if err != nil {
		t.Fatal(err)
	}

	frame, err := codec.DecodeHeader(encoded[:HeaderSize])
	if err != nil {
		t.Fatal(err)
	}
	if frame.ID != 77 || frame.Length != 3 || frame.Timestamp != 10 || frame.Data != nil {
		t.Errorf("unexpected header %+v", frame)
	}
	if !frame.Time().Equal(time.Unix(0, 10)) {
		t.Errorf("Time = %v", frame.Time())
	}
}

func TestFrame_ValidateLengthMismatch(t *testing.T) {
	f := &Frame{ID: 1, Length: 4, Data: []byte{1, 2, 3, 4}}
	f.CRC32 = f.checksum()
	f.Data = f.Data[:3]
	if err := f.Validate(); err == nil {
		t.Fatal("expected an error")
	}
}
