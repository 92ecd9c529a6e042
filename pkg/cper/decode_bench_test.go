//go:build bench
// +build bench

package cper

import (
	"testing"
)

func BenchmarkDecode(b *testing.B) {
	rec := twoSectionRecord()
	rec.sections = append(rec.sections, testSection{typ: SectionPCIe, severity: SeverityFatal, payload: pciePayload(0xff)})
	buf := rec.bytes()

	b.ReportAllocs()
	b.SetBytes(int64(len(buf)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(buf); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCheck(b *testing.B) {
	buf := twoSectionRecord().bytes()

	b.SetBytes(int64(len(buf)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := Check(buf); err != nil {
			b.Fatal(err)
		}
	}
}
