package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ssargent/cperd/pkg/cper"
)

const indent = " "

// CorrectedAdvisory is printed ahead of records firmware reports as
// corrected.
const CorrectedAdvisory = "It has been corrected by h/w and requires no further action"

// TextSink writes the line-oriented console format: one "key: value" per
// valid field, sections numbered from zero and indented under the record.
type TextSink struct {
	w      io.Writer
	prefix string
}

// NewTextSink writes to w, starting every line with prefix.
func NewTextSink(w io.Writer, prefix string) *TextSink {
	return &TextSink{w: w, prefix: prefix}
}

func (t *TextSink) Begin(rec *cper.Record) error {
	p := t.printer(t.prefix)
	if rec.Header.Severity == cper.SeverityCorrected {
		p.line(CorrectedAdvisory)
	}
	p.linef("event severity: %s", rec.Header.Severity)
	return p.err
}

func (t *TextSink) End(*cper.Record) error { return nil }

func (t *TextSink) Render(_ *cper.Record, s *cper.Section) error {
	pfx := t.prefix + indent
	p := t.printer(pfx)

	p.linef("Error %d, type: %s", s.Index, s.Severity)
	if s.FRUID != nil {
		p.linef("fru_id: %s", strings.ToLower(s.FRUID.String()))
	}
	if s.FRUText != nil {
		p.linef("fru_text: %s", *s.FRUText)
	}

	p = t.printer(pfx + indent)
	switch v := s.View.(type) {
	case *cper.ProcessorView:
		p.line("section_type: general processor error")
		p.processor(v)
	case *cper.MemoryView:
		p.line("section_type: memory error")
		p.memory(v)
	case *cper.PCIeView:
		p.line("section_type: PCIe error")
		p.pcie(v)
	case *cper.UnknownView:
		name := v.Name
		if name == "" {
			name = cper.UnknownName
		}
		p.linef("section type: %s, %s", name, strings.ToLower(v.Type.String()))
	case nil:
		if s.Name != "" {
			p.linef("section_type: %s", s.Name)
		}
		if errors.Is(s.Err, cper.ErrSectionTooSmall) {
			p.line("error section length is too small")
		} else if s.Err != nil {
			p.linef("section not decoded: %v", s.Err)
		}
	default:
		p.linef("section type: %s", s.Name)
	}
	return p.err
}

// printer writes prefixed lines and keeps the first write error.
type printer struct {
	w   io.Writer
	pfx string
	err error
}

func (t *TextSink) printer(pfx string) *printer {
	return &printer{w: t.w, pfx: pfx}
}

func (p *printer) line(s string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, "%s%s\n", p.pfx, s)
}

func (p *printer) linef(format string, args ...interface{}) {
	p.line(fmt.Sprintf(format, args...))
}

func (p *printer) flags(fs *cper.FlagSet) {
	for _, names := range fs.Lines(len(p.pfx)) {
		p.line(strings.Join(names, ", "))
	}
}

func (p *printer) processor(v *cper.ProcessorView) {
	if v.Type != nil {
		p.linef("processor_type: %d, %s", *v.Type, v.Type)
	}
	if v.ISA != nil {
		p.linef("processor_isa: %d, %s", *v.ISA, v.ISA)
	}
	if v.ErrorType != nil {
		p.linef("error_type: 0x%02x", v.ErrorType.Mask)
		p.flags(v.ErrorType)
	}
	if v.Operation != nil {
		p.linef("operation: %d, %s", *v.Operation, v.Operation)
	}
	if v.Flags != nil {
		p.linef("flags: 0x%02x", v.Flags.Mask)
		p.flags(v.Flags)
	}
	if v.Level != nil {
		p.linef("level: %d", *v.Level)
	}
	if v.Version != nil {
		p.linef("version_info: 0x%016x", *v.Version)
	}
	if v.BrandInfo != nil {
		p.linef("brand_info: %s", *v.BrandInfo)
	}
	hex64(p, "processor_id", v.ID)
	hex64(p, "target_address", v.TargetAddress)
	hex64(p, "requestor_id", v.RequestorID)
	hex64(p, "responder_id", v.ResponderID)
	hex64(p, "IP", v.IP)
}

func (p *printer) memory(v *cper.MemoryView) {
	hex64(p, "error_status", v.ErrorStatus)
	hex64(p, "physical_address", v.PhysicalAddress)
	hex64(p, "physical_address_mask", v.PhysicalAddressMask)
	dec16(p, "node", v.Node)
	dec16(p, "card", v.Card)
	dec16(p, "module", v.Module)
	dec16(p, "rank", v.Rank)
	dec16(p, "bank", v.Bank)
	dec16(p, "device", v.Device)
	dec16(p, "row", v.Row)
	dec16(p, "column", v.Column)
	dec16(p, "bit_position", v.BitPosition)
	hex64(p, "requestor_id", v.RequestorID)
	hex64(p, "responder_id", v.ResponderID)
	hex64(p, "target_id", v.TargetID)
	if v.ErrorType != nil {
		p.linef("error_type: %d, %s", *v.ErrorType, v.ErrorType)
	}
	if v.CardHandle != nil {
		p.linef("card_handle: 0x%04x", *v.CardHandle)
	}
	if v.ModuleHandle != nil {
		if v.Location != nil {
			p.linef("DIMM location: %s %s", v.Location.Bank, v.Location.Device)
		} else {
			p.linef("DIMM DMI handle: 0x%04x", *v.ModuleHandle)
		}
	}
}

func (p *printer) pcie(v *cper.PCIeView) {
	if v.PortType != nil {
		p.linef("port_type: %d, %s", *v.PortType, v.PortType)
	}
	if v.Version != nil {
		p.linef("version: %d.%d", v.Version.Major, v.Version.Minor)
	}
	if cs := v.CommandStatus; cs != nil {
		p.linef("command: 0x%04x, status: 0x%04x", cs.Command, cs.Status)
	}
	if d := v.Device; d != nil {
		p.linef("device_id: %04x:%02x:%02x.%x", d.Segment, d.Bus, d.Device, d.Function)
		p.linef("slot: %d", d.Slot)
		p.linef("secondary_bus: 0x%02x", d.SecondaryBus)
		p.linef("vendor_id: 0x%04x, device_id: 0x%04x", d.VendorID, d.DeviceID)
		p.linef("class_code: %02x%02x%02x", d.ClassCode[0], d.ClassCode[1], d.ClassCode[2])
	}
	if sn := v.Serial; sn != nil {
		p.linef("serial number: 0x%04x, 0x%04x", sn.Lower, sn.Upper)
	}
	if b := v.Bridge; b != nil {
		p.linef("bridge: secondary_status: 0x%04x, control: 0x%04x", b.SecondaryStatus, b.Control)
	}
	if aer := v.AER; aer != nil {
		p.linef("aer_uncor_status: 0x%08x, aer_uncor_mask: 0x%08x", aer.UncorStatus, aer.UncorMask)
		p.linef("aer_uncor_severity: 0x%08x", aer.UncorSeverity)
		p.linef("TLP Header: %08x %08x %08x %08x",
			aer.TLPHeader[0], aer.TLPHeader[1], aer.TLPHeader[2], aer.TLPHeader[3])
	}
}

func hex64(p *printer, name string, v *uint64) {
	if v != nil {
		p.linef("%s: 0x%016x", name, *v)
	}
}

func dec16(p *printer, name string, v *uint16) {
	if v != nil {
		p.linef("%s: %d", name, *v)
	}
}
