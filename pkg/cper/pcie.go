package cper

import (
	"bytes"
	"encoding/binary"
)

// PCIeSectionSize is the fixed size of a PCIe error section.
const PCIeSectionSize = 208

// PCIe error validity bits.
const (
	PCIeValidPortType uint64 = 1 << iota
	PCIeValidVersion
	PCIeValidCommandStatus
	PCIeValidDeviceID
	PCIeValidSerialNumber
	PCIeValidBridgeControlStatus
	PCIeValidCapability
	PCIeValidAERInfo
)

const (
	pcieSlotShift    = 3
	pcieCapabilityAt = 52
	pcieCapabilityLn = 60
	pcieAERAt        = 112
)

// PCIeVersion is the PCIe specification version the port complies with.
type PCIeVersion struct {
	Major uint8 `json:"major"`
	Minor uint8 `json:"minor"`
}

// PCIeCommandStatus holds the command and status registers.
type PCIeCommandStatus struct {
	Command uint16 `json:"command"`
	Status  uint16 `json:"status"`
}

// PCIeDevice locates the reporting function.
type PCIeDevice struct {
	Segment      uint16  `json:"segment"`
	Bus          uint8   `json:"bus"`
	Device       uint8   `json:"device"`
	Function     uint8   `json:"function"`
	Slot         uint16  `json:"slot"`
	SecondaryBus uint8   `json:"secondary_bus"`
	VendorID     uint16  `json:"vendor_id"`
	DeviceID     uint16  `json:"device_id"`
	ClassCode    [3]byte `json:"class_code"`
}

// PCIeSerial is the device serial number capability value.
type PCIeSerial struct {
	Lower uint32 `json:"lower"`
	Upper uint32 `json:"upper"`
}

// PCIeBridge holds bridge secondary status and control registers.
type PCIeBridge struct {
	SecondaryStatus uint16 `json:"secondary_status"`
	Control         uint16 `json:"control"`
}

// AERInfo is the subset of the AER capability block surfaced for fatal
// PCIe errors.
type AERInfo struct {
	UncorStatus   uint32    `json:"uncor_status"`
	UncorMask     uint32    `json:"uncor_mask"`
	UncorSeverity uint32    `json:"uncor_severity"`
	CorStatus     uint32    `json:"cor_status"`
	CorMask       uint32    `json:"cor_mask"`
	CapControl    uint32    `json:"cap_control"`
	TLPHeader     [4]uint32 `json:"tlp_header"`
}

// PCIeView is a decoded PCIe error section. Nil fields were not marked
// valid by firmware. AER is only present for fatal sections; recoverable
// and corrected AER errors are reported by the dedicated AER path.
type PCIeView struct {
	ValidationBits uint64 `json:"validation_bits"`

	PortType      *PCIePortType      `json:"port_type,omitempty"`
	Version       *PCIeVersion       `json:"version,omitempty"`
	CommandStatus *PCIeCommandStatus `json:"command_status,omitempty"`
	Device        *PCIeDevice        `json:"device_id,omitempty"`
	Serial        *PCIeSerial        `json:"serial_number,omitempty"`
	Bridge        *PCIeBridge        `json:"bridge,omitempty"`
	Capability    []byte             `json:"capability,omitempty"`
	AER           *AERInfo           `json:"aer_info,omitempty"`
}

func (v *PCIeView) SectionType() GUID { return SectionPCIe }

func decodePCIe(ctx DecodeContext, p []byte) (SectionView, error) {
	le := binary.LittleEndian
	valid := le.Uint64(p[0:8])
	v := &PCIeView{ValidationBits: valid}

	if valid&PCIeValidPortType != 0 {
		v.PortType = ptr(PCIePortType(le.Uint32(p[8:12])))
	}
	if valid&PCIeValidVersion != 0 {
		v.Version = &PCIeVersion{Minor: p[12], Major: p[13]}
	}
	if valid&PCIeValidCommandStatus != 0 {
		v.CommandStatus = &PCIeCommandStatus{
			Command: le.Uint16(p[16:18]),
			Status:  le.Uint16(p[18:20]),
		}
	}
	if valid&PCIeValidDeviceID != 0 {
		d := &PCIeDevice{
			VendorID:     le.Uint16(p[24:26]),
			DeviceID:     le.Uint16(p[26:28]),
			Function:     p[31],
			Device:       p[32],
			Segment:      le.Uint16(p[33:35]),
			Bus:          p[35],
			SecondaryBus: p[36],
			Slot:         le.Uint16(p[37:39]) >> pcieSlotShift,
		}
		copy(d.ClassCode[:], p[28:31])
		v.Device = d
	}
	if valid&PCIeValidSerialNumber != 0 {
		v.Serial = &PCIeSerial{
			Lower: le.Uint32(p[40:44]),
			Upper: le.Uint32(p[44:48]),
		}
	}
	if valid&PCIeValidBridgeControlStatus != 0 {
		v.Bridge = &PCIeBridge{
			SecondaryStatus: le.Uint16(p[48:50]),
			Control:         le.Uint16(p[50:52]),
		}
	}
	if valid&PCIeValidCapability != 0 {
		v.Capability = bytes.Clone(p[pcieCapabilityAt : pcieCapabilityAt+pcieCapabilityLn])
	}
	if valid&PCIeValidAERInfo != 0 && ctx.Severity == SeverityFatal {
		aer := p[pcieAERAt:]
		v.AER = &AERInfo{
			UncorStatus:   le.Uint32(aer[4:8]),
			UncorMask:     le.Uint32(aer[8:12]),
			UncorSeverity: le.Uint32(aer[12:16]),
			CorStatus:     le.Uint32(aer[16:20]),
			CorMask:       le.Uint32(aer[20:24]),
			CapControl:    le.Uint32(aer[24:28]),
			TLPHeader: [4]uint32{
				le.Uint32(aer[28:32]),
				le.Uint32(aer[32:36]),
				le.Uint32(aer[36:40]),
				le.Uint32(aer[40:44]),
			},
		}
	}
	return v, nil
}
