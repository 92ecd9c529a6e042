package cper

import (
	"encoding/binary"
)

// ProcessorSectionSize is the fixed size of a generic processor error section.
const ProcessorSectionSize = 192

// Generic processor error validity bits.
const (
	ProcValidType uint64 = 1 << iota
	ProcValidISA
	ProcValidErrorType
	ProcValidOperation
	ProcValidFlags
	ProcValidLevel
	ProcValidVersion
	ProcValidBrandInfo
	ProcValidID
	ProcValidTargetAddress
	ProcValidRequestorID
	ProcValidResponderID
	ProcValidIP
)

// ProcessorView is a decoded generic processor error section. Nil fields
// were not marked valid by firmware.
type ProcessorView struct {
	ValidationBits uint64 `json:"validation_bits"`

	Type          *ProcessorType      `json:"processor_type,omitempty"`
	ISA           *ProcessorISA       `json:"processor_isa,omitempty"`
	ErrorType     *FlagSet            `json:"error_type,omitempty"`
	Operation     *ProcessorOperation `json:"operation,omitempty"`
	Flags         *FlagSet            `json:"flags,omitempty"`
	Level         *uint8              `json:"level,omitempty"`
	Version       *uint64             `json:"version_info,omitempty"`
	BrandInfo     *string             `json:"brand_info,omitempty"`
	ID            *uint64             `json:"processor_id,omitempty"`
	TargetAddress *uint64             `json:"target_address,omitempty"`
	RequestorID   *uint64             `json:"requestor_id,omitempty"`
	ResponderID   *uint64             `json:"responder_id,omitempty"`
	IP            *uint64             `json:"ip,omitempty"`
}

func (v *ProcessorView) SectionType() GUID { return SectionProcessorGeneric }

func decodeProcessor(_ DecodeContext, p []byte) (SectionView, error) {
	le := binary.LittleEndian
	valid := le.Uint64(p[0:8])
	v := &ProcessorView{ValidationBits: valid}

	if valid&ProcValidType != 0 {
		v.Type = ptr(ProcessorType(p[8]))
	}
	if valid&ProcValidISA != 0 {
		v.ISA = ptr(ProcessorISA(p[9]))
	}
	if valid&ProcValidErrorType != 0 {
		v.ErrorType = ptr(RenderFlags(uint32(p[10]), ProcessorErrorTypeFlags))
	}
	if valid&ProcValidOperation != 0 {
		v.Operation = ptr(ProcessorOperation(p[11]))
	}
	if valid&ProcValidFlags != 0 {
		v.Flags = ptr(RenderFlags(uint32(p[12]), ProcessorFlags))
	}
	if valid&ProcValidLevel != 0 {
		v.Level = ptr(p[13])
	}
	if valid&ProcValidVersion != 0 {
		v.Version = ptr(le.Uint64(p[16:24]))
	}
	if valid&ProcValidBrandInfo != 0 {
		v.BrandInfo = ptr(cString(p[24:152]))
	}
	if valid&ProcValidID != 0 {
		v.ID = ptr(le.Uint64(p[152:160]))
	}
	if valid&ProcValidTargetAddress != 0 {
		v.TargetAddress = ptr(le.Uint64(p[160:168]))
	}
	if valid&ProcValidRequestorID != 0 {
		v.RequestorID = ptr(le.Uint64(p[168:176]))
	}
	if valid&ProcValidResponderID != 0 {
		v.ResponderID = ptr(le.Uint64(p[176:184]))
	}
	if valid&ProcValidIP != 0 {
		v.IP = ptr(le.Uint64(p[184:192]))
	}
	return v, nil
}

func ptr[T any](v T) *T { return &v }
