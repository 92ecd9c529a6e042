package cper

// Check validates buf strictly: the header checks, every section length
// within the remaining data, and no bytes left over after the last section.
// It is the gate for records about to be persisted.
func Check(buf []byte) error {
	h, err := ParseHeader(buf)
	if err != nil {
		return err
	}
	if err := CheckHeader(h); err != nil {
		return err
	}

	remaining := uint64(h.DataLength)
	cursor := RecordHeaderSize
	index := 0
	for remaining >= SectionHeaderSize {
		length := sectionLength(buf[cursor : cursor+SectionHeaderSize])
		if length > remaining-SectionHeaderSize {
			return sectionError(ErrSectionOverrun, index, cursor,
				"declares %d payload bytes, %d remain", length, remaining-SectionHeaderSize)
		}
		remaining -= SectionHeaderSize + length
		cursor += SectionHeaderSize + int(length)
		index++
	}
	if remaining != 0 {
		return sectionError(ErrTrailingBytes, index, cursor, "%d bytes left after last section", remaining)
	}
	return nil
}

// Walker iterates the sections of a record, one at a time and in buffer
// order. It is tolerant: an overrun ends the walk with an error but leaves
// earlier sections valid, and a remainder shorter than a section header
// ends the walk quietly. A Walker is not restartable.
type Walker struct {
	dec *Decoder
	buf []byte

	header    RecordHeader
	headerOK  bool
	started   bool
	done      bool
	cursor    int
	remaining uint64
	index     int

	cur *Section
	err error
}

// Next advances to the next section. It returns false at the end of the
// record or on the first structural failure; see Err.
func (w *Walker) Next() bool {
	w.cur = nil
	if w.done {
		return false
	}
	if !w.started {
		w.started = true
		if !w.begin() {
			return false
		}
	}

	if w.remaining < SectionHeaderSize {
		w.done = true
		return false
	}

	hdr := w.buf[w.cursor : w.cursor+SectionHeaderSize]
	length := sectionLength(hdr)
	if length > w.remaining-SectionHeaderSize {
		w.fail(sectionError(ErrSectionOverrun, w.index, w.cursor,
			"declares %d payload bytes, %d remain", length, w.remaining-SectionHeaderSize))
		return false
	}

	start := w.cursor + SectionHeaderSize
	end := start + int(length)
	w.cur = w.dec.decodeSection(w.index, w.cursor, hdr, w.buf[start:end])

	w.remaining -= SectionHeaderSize + length
	w.cursor = end
	w.index++
	return true
}

func (w *Walker) begin() bool {
	h, err := ParseHeader(w.buf)
	if err == nil {
		err = CheckHeader(h)
	}
	w.header = h
	if err != nil {
		w.fail(err)
		return false
	}
	w.headerOK = true
	w.remaining = uint64(h.DataLength)
	w.cursor = RecordHeaderSize
	return true
}

func (w *Walker) fail(err error) {
	w.err = err
	w.done = true
}

// Section returns the section produced by the last successful Next.
func (w *Walker) Section() *Section { return w.cur }

// Header returns the record header. It is meaningful once Next has been
// called at least once.
func (w *Walker) Header() RecordHeader { return w.header }

// Err returns the structural failure that stopped the walk, if any.
func (w *Walker) Err() error { return w.err }
