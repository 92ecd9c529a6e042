// Package cper decodes and validates UEFI Common Platform Error Records.
//
// A CPER error status block is the structure firmware hands to the operating
// system (through HEST/GHES, BERT or ERST) to describe one hardware error
// event. It is untrusted input: every length field is checked against the
// bytes actually remaining before anything is sliced.
//
// # Record Format
//
// A record is a fixed header followed by a sequence of sections:
//
//	[BlockStatus(4)][RawDataOffset(4)][RawDataLength(4)][DataLength(4)][Severity(4)]
//	[Section 0 header(64)][Section 0 payload]...[Section N header(64)][Section N payload]
//
// Each section header carries a type GUID, a severity, two validity bits for
// the optional FRU id and FRU text, and the length of the payload that
// follows it. DataLength must account exactly for every section header and
// payload.
//
// # Validation
//
// Two walkers are provided and they intentionally differ:
//
//   - Check is strict. Any overrun, or any remainder left after the last
//     section, rejects the record. Use it before a record is persisted.
//   - Walker (and Decoder.Decode built on it) is tolerant. An overrun stops
//     iteration but keeps the sections already yielded, and a remainder
//     shorter than a section header is ignored. Use it before reporting.
//
// # Section Types
//
// Generic processor, platform memory and PCIe sections are decoded into
// ProcessorView, MemoryView and PCIeView. Every optional field is a pointer
// that is nil unless its validity bit is set. Unknown section types are not
// errors; they decode to an UnknownView carrying the type GUID, and the raw
// payload stays available on the Section. Additional decoders can be added
// with Registry.Register.
//
// # Usage
//
//	if err := cper.Check(buf); err != nil {
//	    return err // do not store
//	}
//
//	rec, err := cper.Decode(buf)
//	for _, s := range rec.Sections {
//	    switch v := s.View.(type) {
//	    case *cper.MemoryView:
//	        ...
//	    }
//	}
//
// # Thread Safety
//
// Decoding touches only the input buffer and allocates its output, so any
// number of decodes may run concurrently. A Registry may be shared once
// registration is complete.
package cper
