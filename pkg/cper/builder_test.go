package cper

import (
	"encoding/binary"
)

// Test fixtures assemble records byte by byte so they do not depend on the
// decoder under test.

type testSection struct {
	typ      GUID
	severity Severity
	valid    uint8
	fruID    GUID
	fruText  string
	payload  []byte
	declared *uint32 // overrides the encoded error_data_length
}

func (s testSection) bytes() []byte {
	b := make([]byte, SectionHeaderSize+len(s.payload))
	copy(b[0:16], s.typ[:])
	binary.LittleEndian.PutUint32(b[16:20], uint32(s.severity))
	binary.LittleEndian.PutUint16(b[20:22], 0x0201)
	b[22] = s.valid
	length := uint32(len(s.payload))
	if s.declared != nil {
		length = *s.declared
	}
	binary.LittleEndian.PutUint32(b[24:28], length)
	copy(b[28:44], s.fruID[:])
	copy(b[44:64], s.fruText)
	copy(b[SectionHeaderSize:], s.payload)
	return b
}

type testRecord struct {
	severity   Severity
	status     BlockStatus
	rawOffset  uint32
	rawLength  uint32
	dataLength *uint32 // overrides the computed data_length
	trailer    []byte  // appended after the sections, counted in data_length
	sections   []testSection
}

func (r testRecord) bytes() []byte {
	var data []byte
	for _, s := range r.sections {
		data = append(data, s.bytes()...)
	}
	data = append(data, r.trailer...)

	buf := make([]byte, RecordHeaderSize, RecordHeaderSize+len(data))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(r.status))
	binary.LittleEndian.PutUint32(buf[4:8], r.rawOffset)
	binary.LittleEndian.PutUint32(buf[8:12], r.rawLength)
	length := uint32(len(data))
	if r.dataLength != nil {
		length = *r.dataLength
	}
	binary.LittleEndian.PutUint32(buf[12:16], length)
	binary.LittleEndian.PutUint32(buf[16:20], uint32(r.severity))
	return append(buf, data...)
}

func u32(v uint32) *uint32 { return &v }

func processorPayload(valid uint64) []byte {
	p := make([]byte, ProcessorSectionSize)
	le := binary.LittleEndian
	le.PutUint64(p[0:8], valid)
	p[8] = 0  // IA32/X64
	p[9] = 2  // X64
	p[10] = 0x05
	p[11] = 1 // data read
	p[12] = 0x09
	p[13] = 2
	le.PutUint64(p[16:24], 0x000306f2)
	copy(p[24:152], "Intel(R) Xeon(R) CPU E5-2680 v3")
	le.PutUint64(p[152:160], 0x11)
	le.PutUint64(p[160:168], 0x22)
	le.PutUint64(p[168:176], 0x33)
	le.PutUint64(p[176:184], 0x44)
	le.PutUint64(p[184:192], 0xffffffff81000000)
	return p
}

func memoryPayload(valid uint64, errorType uint8, moduleHandle uint16) []byte {
	p := make([]byte, MemorySectionSize)
	le := binary.LittleEndian
	le.PutUint64(p[0:8], valid)
	le.PutUint64(p[8:16], 0x0400)
	le.PutUint64(p[16:24], 0x1234567000)
	le.PutUint64(p[24:32], 0xfffffffffffff000)
	for i, off := 0, 32; off <= 46; i, off = i+1, off+2 {
		le.PutUint16(p[off:off+2], uint16(i+1))
	}
	le.PutUint64(p[48:56], 0xa1)
	le.PutUint64(p[56:64], 0xb2)
	le.PutUint64(p[64:72], 0xc3)
	p[72] = errorType
	le.PutUint16(p[74:76], 3)
	le.PutUint16(p[76:78], 0x0010)
	le.PutUint16(p[78:80], moduleHandle)
	return p
}

func pciePayload(valid uint64) []byte {
	p := make([]byte, PCIeSectionSize)
	le := binary.LittleEndian
	le.PutUint64(p[0:8], valid)
	le.PutUint32(p[8:12], 4) // root port
	p[12] = 1                // minor
	p[13] = 3                // major
	le.PutUint16(p[16:18], 0x0547)
	le.PutUint16(p[18:20], 0x4010)
	le.PutUint16(p[24:26], 0x8086)
	le.PutUint16(p[26:28], 0x2f08)
	p[28], p[29], p[30] = 0x06, 0x04, 0x00
	p[31] = 2    // function
	p[32] = 0x1c // device
	le.PutUint16(p[33:35], 0x0001)
	p[35] = 0x80 // bus
	p[36] = 0x81 // secondary bus
	le.PutUint16(p[37:39], 5<<3)
	le.PutUint32(p[40:44], 0xdeadbeef)
	le.PutUint32(p[44:48], 0xcafef00d)
	le.PutUint16(p[48:50], 0x2000)
	le.PutUint16(p[50:52], 0x0003)
	p[52] = 0x10
	aer := p[112:]
	le.PutUint32(aer[4:8], 0x00100000)
	le.PutUint32(aer[8:12], 0x00400000)
	le.PutUint32(aer[12:16], 0x00062030)
	le.PutUint32(aer[16:20], 0x00000001)
	le.PutUint32(aer[20:24], 0x00002000)
	le.PutUint32(aer[24:28], 0x000000a0)
	le.PutUint32(aer[28:32], 0x40000001)
	le.PutUint32(aer[32:36], 0x0000000f)
	le.PutUint32(aer[36:40], 0xfee00000)
	le.PutUint32(aer[40:44], 0x00000000)
	return p
}
