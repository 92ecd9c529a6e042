// Package report renders decoded CPER records for people and machines.
//
// Decoding and rendering are separate: a Sink receives sections that
// pkg/cper already decoded and never touches raw record bytes itself.
package report

import (
	"errors"

	"github.com/ssargent/cperd/pkg/cper"
)

// Sink consumes the sections of a record in buffer order.
type Sink interface {
	Render(rec *cper.Record, s *cper.Section) error
}

// RecordSink is a Sink that also wants to know where records begin and
// end. Begin sees the header; End sees every section rendered.
type RecordSink interface {
	Sink
	Begin(rec *cper.Record) error
	End(rec *cper.Record) error
}

// Write renders a fully decoded record.
func Write(sink Sink, rec *cper.Record) error {
	rs, framed := sink.(RecordSink)
	if framed {
		if err := rs.Begin(rec); err != nil {
			return err
		}
	}
	for _, s := range rec.Sections {
		if err := sink.Render(rec, s); err != nil {
			return err
		}
	}
	if framed {
		return rs.End(rec)
	}
	return nil
}

// Stream renders sections as w yields them. Sections decoded before a
// structural failure are still rendered; the failure is returned after
// the record is closed. A header failure renders nothing.
func Stream(sink Sink, w *cper.Walker) error {
	rs, framed := sink.(RecordSink)
	rec := &cper.Record{}
	began := false

	begin := func() error {
		began = true
		rec.Header = w.Header()
		if framed {
			return rs.Begin(rec)
		}
		return nil
	}

	for w.Next() {
		if !began {
			if err := begin(); err != nil {
				return err
			}
		}
		s := w.Section()
		rec.Sections = append(rec.Sections, s)
		if err := sink.Render(rec, s); err != nil {
			return err
		}
	}

	walkErr := w.Err()
	if !began {
		if errors.Is(walkErr, cper.ErrMalformedHeader) {
			return walkErr
		}
		if err := begin(); err != nil {
			return err
		}
	}
	if framed {
		if err := rs.End(rec); err != nil {
			return err
		}
	}
	return walkErr
}
