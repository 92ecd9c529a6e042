package store

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ssargent/cperd/pkg/cper"
	"github.com/ssargent/cperd/pkg/recordid"
)

// cperRecord builds a well-formed record with one section per payload.
func cperRecord(severity cper.Severity, payloads ...[]byte) []byte {
	var data []byte
	for _, p := range payloads {
		hdr := make([]byte, cper.SectionHeaderSize)
		copy(hdr[0:16], cper.SectionPlatformMemory[:])
		binary.LittleEndian.PutUint32(hdr[16:20], uint32(severity))
		binary.LittleEndian.PutUint32(hdr[24:28], uint32(len(p)))
		data = append(data, hdr...)
		data = append(data, p...)
	}
	buf := make([]byte, cper.RecordHeaderSize)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(len(data)))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(severity))
	return append(buf, data...)
}

func memoryPayload(addr uint64) []byte {
	p := make([]byte, cper.MemorySectionSize)
	binary.LittleEndian.PutUint64(p[0:8], cper.MemValidPA)
	binary.LittleEndian.PutUint64(p[16:24], addr)
	return p
}

func fixedIDs() *recordid.Generator {
	return recordid.New(func() time.Time { return time.Unix(1700000000, 0) })
}

const idBase = uint64(1700000000) << 32

func openLog(t *testing.T, dir string, ids *recordid.Generator) *ErrorLog {
	t.Helper()
	l, err := NewErrorLog(ErrorLogConfig{DataDir: dir, IDs: ids})
	require.NoError(t, err)
	_, err = l.Open()
	require.NoError(t, err)
	return l
}
