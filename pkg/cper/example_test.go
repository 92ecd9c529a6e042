package cper_test

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"

	"github.com/ssargent/cperd/pkg/cper"
)

// ExampleNewWalker walks a record holding a single DMAr section.
func ExampleNewWalker() {
	buf := make([]byte, cper.RecordHeaderSize+cper.SectionHeaderSize)
	binary.LittleEndian.PutUint32(buf[12:16], cper.SectionHeaderSize)
	binary.LittleEndian.PutUint32(buf[16:20], uint32(cper.SeverityCorrected))
	copy(buf[20:36], cper.SectionDMArGeneric[:])

	fmt.Println("strict check:", cper.Check(buf))

	w := cper.NewWalker(buf)
	for w.Next() {
		s := w.Section()
		fmt.Printf("section %d: %s (%s)\n", s.Index, s.Name, s.Severity)
	}
	if err := w.Err(); err != nil {
		log.Fatal(err)
	}

	// Output:
	// strict check: <nil>
	// section 0: DMAr generic error (recoverable)
}

// ExampleDecodeSection decodes a bare memory error payload.
func ExampleDecodeSection() {
	p := make([]byte, cper.MemorySectionSize)
	binary.LittleEndian.PutUint64(p[0:8], cper.MemValidPA|cper.MemValidErrorType)
	binary.LittleEndian.PutUint64(p[16:24], 0x1234567000)
	p[72] = 2

	view, err := cper.DecodeSection(cper.SectionPlatformMemory, cper.SeverityCorrected, p)
	if err != nil {
		log.Fatal(err)
	}
	mem := view.(*cper.MemoryView)
	fmt.Printf("%s at %#x\n", mem.ErrorType.String(), *mem.PhysicalAddress)
	fmt.Println("module handle valid:", mem.ModuleHandle != nil)

	_, err = cper.DecodeSection(cper.SectionPlatformMemory, cper.SeverityCorrected, p[:40])
	fmt.Println("short payload:", errors.Is(err, cper.ErrSectionTooSmall))

	// Output:
	// single-bit ECC at 0x1234567000
	// module handle valid: false
	// short payload: true
}
