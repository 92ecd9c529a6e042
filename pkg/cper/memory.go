package cper

import (
	"encoding/binary"
)

// MemorySectionSize is the fixed size of a platform memory error section.
const MemorySectionSize = 80

// Platform memory error validity bits.
const (
	MemValidErrorStatus uint64 = 1 << iota
	MemValidPA
	MemValidPAMask
	MemValidNode
	MemValidCard
	MemValidModule
	MemValidBank
	MemValidDevice
	MemValidRow
	MemValidColumn
	MemValidBitPosition
	MemValidRequestorID
	MemValidResponderID
	MemValidTargetID
	MemValidErrorType
	MemValidRankNumber
	MemValidCardHandle
	MemValidModuleHandle
)

// MemoryLocation is the physical slot of a memory module as named by the
// platform's SMBIOS tables.
type MemoryLocation struct {
	Bank   string `json:"bank"`
	Device string `json:"device"`
}

// MemoryView is a decoded platform memory error section. Nil fields were
// not marked valid by firmware.
type MemoryView struct {
	ValidationBits uint64 `json:"validation_bits"`

	ErrorStatus         *uint64          `json:"error_status,omitempty"`
	PhysicalAddress     *uint64          `json:"physical_address,omitempty"`
	PhysicalAddressMask *uint64          `json:"physical_address_mask,omitempty"`
	Node                *uint16          `json:"node,omitempty"`
	Card                *uint16          `json:"card,omitempty"`
	Module              *uint16          `json:"module,omitempty"`
	Rank                *uint16          `json:"rank,omitempty"`
	Bank                *uint16          `json:"bank,omitempty"`
	Device              *uint16          `json:"device,omitempty"`
	Row                 *uint16          `json:"row,omitempty"`
	Column              *uint16          `json:"column,omitempty"`
	BitPosition         *uint16          `json:"bit_position,omitempty"`
	RequestorID         *uint64          `json:"requestor_id,omitempty"`
	ResponderID         *uint64          `json:"responder_id,omitempty"`
	TargetID            *uint64          `json:"target_id,omitempty"`
	ErrorType           *MemoryErrorType `json:"error_type,omitempty"`
	CardHandle          *uint16          `json:"card_handle,omitempty"`
	ModuleHandle        *uint16          `json:"module_handle,omitempty"`

	// Location is set when ModuleHandle is valid and the resolver knows it.
	Location *MemoryLocation `json:"location,omitempty"`
}

func (v *MemoryView) SectionType() GUID { return SectionPlatformMemory }

func decodeMemory(ctx DecodeContext, p []byte) (SectionView, error) {
	le := binary.LittleEndian
	valid := le.Uint64(p[0:8])
	v := &MemoryView{ValidationBits: valid}

	u64 := func(bit uint64, off int) *uint64 {
		if valid&bit == 0 {
			return nil
		}
		return ptr(le.Uint64(p[off : off+8]))
	}
	u16 := func(bit uint64, off int) *uint16 {
		if valid&bit == 0 {
			return nil
		}
		return ptr(le.Uint16(p[off : off+2]))
	}

	v.ErrorStatus = u64(MemValidErrorStatus, 8)
	v.PhysicalAddress = u64(MemValidPA, 16)
	v.PhysicalAddressMask = u64(MemValidPAMask, 24)
	v.Node = u16(MemValidNode, 32)
	v.Card = u16(MemValidCard, 34)
	v.Module = u16(MemValidModule, 36)
	v.Bank = u16(MemValidBank, 38)
	v.Device = u16(MemValidDevice, 40)
	v.Row = u16(MemValidRow, 42)
	v.Column = u16(MemValidColumn, 44)
	v.BitPosition = u16(MemValidBitPosition, 46)
	v.RequestorID = u64(MemValidRequestorID, 48)
	v.ResponderID = u64(MemValidResponderID, 56)
	v.TargetID = u64(MemValidTargetID, 64)
	if valid&MemValidErrorType != 0 {
		v.ErrorType = ptr(MemoryErrorType(p[72]))
	}
	v.Rank = u16(MemValidRankNumber, 74)
	v.CardHandle = u16(MemValidCardHandle, 76)
	v.ModuleHandle = u16(MemValidModuleHandle, 78)

	if v.ModuleHandle != nil && ctx.Resolver != nil {
		if bank, device, ok := ctx.Resolver.ResolveMemoryModule(*v.ModuleHandle); ok {
			v.Location = &MemoryLocation{Bank: bank, Device: device}
		}
	}
	return v, nil
}
