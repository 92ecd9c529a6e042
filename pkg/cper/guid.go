package cper

import (
	"github.com/linuxboot/fiano/pkg/guid"
)

// GUID is a UEFI GUID in its on-the-wire (mixed-endian) byte order.
type GUID = guid.GUID

// Section type GUIDs from UEFI Appendix N.
var (
	SectionProcessorGeneric = *guid.MustParse("9876CCAD-47B4-4BDB-B65E-16F193C4F3DB")
	SectionPlatformMemory   = *guid.MustParse("A5BC1114-6F64-4EDE-B863-3E83ED7C83B1")
	SectionPCIe             = *guid.MustParse("D995E954-BBC1-430F-AD91-B44DCB3C6F35")

	// Recognised by name only; no decoder is registered for these.
	SectionProcessorIA      = *guid.MustParse("DC3EA0B0-A144-4797-B95B-53FA242B6E1D")
	SectionProcessorIPF     = *guid.MustParse("E429FAF1-3CB7-11D4-BCA7-0080C73C8881")
	SectionFirmwareErrorRef = *guid.MustParse("81212A96-09ED-4996-9471-8D729C8E69ED")
	SectionPCIXBus          = *guid.MustParse("C5753963-3B84-4095-BF78-EDDAD3F9C9DD")
	SectionPCIDevice        = *guid.MustParse("EB5E4685-CA66-4769-B6A2-26068B001326")
	SectionDMArGeneric      = *guid.MustParse("5B51FEF7-C79D-4434-8F1B-AA62DE3E2C64")
)

var wellKnownSections = map[GUID]string{
	SectionProcessorIA:      "IA32/X64 processor error",
	SectionProcessorIPF:     "IA64 processor error",
	SectionFirmwareErrorRef: "firmware error record reference",
	SectionPCIXBus:          "PCI/PCI-X bus error",
	SectionPCIDevice:        "PCI component/device error",
	SectionDMArGeneric:      "DMAr generic error",
}

func readGUID(b []byte) GUID {
	var g GUID
	copy(g[:], b[:len(g)])
	return g
}
