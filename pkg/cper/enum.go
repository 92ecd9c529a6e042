package cper

import (
	"encoding/json"
)

// UnknownName is returned by every classifier for values outside its table.
const UnknownName = "unknown"

// symbolTable maps small firmware-supplied integers to names. Lookups are
// range checked; reserved slots hold UnknownName.
type symbolTable []string

func (t symbolTable) name(v uint64) string {
	if v >= uint64(len(t)) {
		return UnknownName
	}
	return t[v]
}

func (t symbolTable) known(v uint64) bool {
	return v < uint64(len(t)) && t[v] != UnknownName
}

// enumValue is the JSON shape shared by all classified values.
type enumValue struct {
	Value uint64 `json:"value"`
	Name  string `json:"name"`
}

func marshalEnum(v uint64, name string) ([]byte, error) {
	return json.Marshal(enumValue{Value: v, Name: name})
}

// Severity is the error severity of a record or section. The full 32-bit
// field is classified: a value with any of the high 16 bits set is unknown,
// not narrowed to its low half, and never counts as fatal.
type Severity uint32

const (
	SeverityRecoverable Severity = iota
	SeverityFatal
	SeverityCorrected
	SeverityInformational
)

var severityNames = symbolTable{
	"recoverable",
	"fatal",
	"corrected",
	"info",
}

func (s Severity) String() string { return severityNames.name(uint64(s)) }

// Known reports whether s is one of the four defined severities.
func (s Severity) Known() bool { return severityNames.known(uint64(s)) }

func (s Severity) MarshalJSON() ([]byte, error) { return marshalEnum(uint64(s), s.String()) }

// ProcessorType is the processor architecture family of a generic
// processor error.
type ProcessorType uint8

var processorTypeNames = symbolTable{
	"IA32/X64",
	"IA64",
}

func (p ProcessorType) String() string { return processorTypeNames.name(uint64(p)) }
func (p ProcessorType) Known() bool    { return processorTypeNames.known(uint64(p)) }
func (p ProcessorType) MarshalJSON() ([]byte, error) {
	return marshalEnum(uint64(p), p.String())
}

// ProcessorISA is the instruction set of a generic processor error.
type ProcessorISA uint8

var processorISANames = symbolTable{
	"IA32",
	"IA64",
	"X64",
}

func (p ProcessorISA) String() string { return processorISANames.name(uint64(p)) }
func (p ProcessorISA) Known() bool    { return processorISANames.known(uint64(p)) }
func (p ProcessorISA) MarshalJSON() ([]byte, error) {
	return marshalEnum(uint64(p), p.String())
}

// ProcessorOperation is the kind of operation that faulted.
type ProcessorOperation uint8

var processorOperationNames = symbolTable{
	"unknown or generic",
	"data read",
	"data write",
	"instruction execution",
}

func (p ProcessorOperation) String() string { return processorOperationNames.name(uint64(p)) }
func (p ProcessorOperation) Known() bool    { return processorOperationNames.known(uint64(p)) }
func (p ProcessorOperation) MarshalJSON() ([]byte, error) {
	return marshalEnum(uint64(p), p.String())
}

// MemoryErrorType classifies a platform memory error.
type MemoryErrorType uint8

var memoryErrorTypeNames = symbolTable{
	"unknown",
	"no error",
	"single-bit ECC",
	"multi-bit ECC",
	"single-symbol chipkill ECC",
	"multi-symbol chipkill ECC",
	"master abort",
	"target abort",
	"parity error",
	"watchdog timeout",
	"invalid address",
	"mirror Broken",
	"memory sparing",
	"scrub corrected error",
	"scrub uncorrected error",
	"physical memory map-out event",
}

func (m MemoryErrorType) String() string { return memoryErrorTypeNames.name(uint64(m)) }
func (m MemoryErrorType) Known() bool    { return memoryErrorTypeNames.known(uint64(m)) }
func (m MemoryErrorType) MarshalJSON() ([]byte, error) {
	return marshalEnum(uint64(m), m.String())
}

// PCIePortType is the PCIe device/port type of the reporting function.
type PCIePortType uint32

var pciePortTypeNames = symbolTable{
	"PCIe end point",
	"legacy PCI end point",
	UnknownName,
	UnknownName,
	"root port",
	"upstream switch port",
	"downstream switch port",
	"PCIe to PCI/PCI-X bridge",
	"PCI/PCI-X to PCIe bridge",
	"root complex integrated endpoint device",
	"root complex event collector",
}

func (p PCIePortType) String() string { return pciePortTypeNames.name(uint64(p)) }
func (p PCIePortType) Known() bool    { return pciePortTypeNames.known(uint64(p)) }
func (p PCIePortType) MarshalJSON() ([]byte, error) {
	return marshalEnum(uint64(p), p.String())
}
