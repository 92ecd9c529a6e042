package report

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/ssargent/cperd/pkg/cper"
)

// Document is the JSON shape of a decoded record.
type Document struct {
	Header     cper.RecordHeader `json:"header"`
	Status     cper.FlagSet      `json:"block_status_flags"`
	EntryCount int               `json:"entry_count"`
	Sections   []SectionDocument `json:"sections"`
	Error      string            `json:"error,omitempty"`
}

// SectionDocument is the JSON shape of one section. Raw carries the
// payload of sections that produced no typed view.
type SectionDocument struct {
	Index    int              `json:"index"`
	Offset   int              `json:"offset"`
	Type     string           `json:"type"`
	Name     string           `json:"name,omitempty"`
	Severity cper.Severity    `json:"severity"`
	Revision uint16           `json:"revision"`
	Flags    uint8            `json:"flags"`
	Length   uint32           `json:"length"`
	FRUID    string           `json:"fru_id,omitempty"`
	FRUText  *string          `json:"fru_text,omitempty"`
	View     cper.SectionView `json:"view,omitempty"`
	Raw      []byte           `json:"raw,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// NewDocument converts rec. walkErr is the error the decode returned
// alongside rec, if any.
func NewDocument(rec *cper.Record, walkErr error) *Document {
	doc := &Document{
		Header:     rec.Header,
		Status:     rec.Header.BlockStatus.Flags(),
		EntryCount: rec.Header.BlockStatus.EntryCount(),
		Sections:   make([]SectionDocument, 0, len(rec.Sections)),
	}
	for _, s := range rec.Sections {
		doc.Sections = append(doc.Sections, newSectionDocument(s))
	}
	if walkErr != nil {
		doc.Error = walkErr.Error()
	}
	return doc
}

func newSectionDocument(s *cper.Section) SectionDocument {
	sd := SectionDocument{
		Index:    s.Index,
		Offset:   s.Offset,
		Type:     strings.ToLower(s.Type.String()),
		Name:     s.Name,
		Severity: s.Severity,
		Revision: s.Revision,
		Flags:    s.Flags,
		Length:   s.Length,
		FRUText:  s.FRUText,
		View:     s.View,
	}
	if s.FRUID != nil {
		sd.FRUID = strings.ToLower(s.FRUID.String())
	}
	if !s.Known() {
		sd.Raw = s.Payload
	}
	if s.Err != nil {
		sd.Error = s.Err.Error()
	}
	return sd
}

// JSONSink writes one Document per record as a line of JSON.
type JSONSink struct {
	enc *json.Encoder
}

// NewJSONSink writes to w. With indent set the documents are
// pretty-printed.
func NewJSONSink(w io.Writer, indent bool) *JSONSink {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return &JSONSink{enc: enc}
}

func (j *JSONSink) Begin(*cper.Record) error { return nil }

// Render is a no-op; the document is written whole by End.
func (j *JSONSink) Render(*cper.Record, *cper.Section) error { return nil }

func (j *JSONSink) End(rec *cper.Record) error {
	return j.enc.Encode(NewDocument(rec, nil))
}
