// Package storage keeps CPER records in a pebble database, optionally
// zstd-compressed, alongside a quarantine of records that failed strict
// validation.
package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/coreos/pkg/capnslog"
	"github.com/klauspost/compress/zstd"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/cperd/pkg/cper"
	"github.com/ssargent/cperd/pkg/recordid"
	"github.com/ssargent/cperd/pkg/store"
)

var plog = capnslog.NewPackageLogger("github.com/ssargent/cperd", "storage")

var (
	recordPrefix     = []byte("r/")
	quarantinePrefix = []byte("q/")
)

// Value encodings, stored as the first byte of every record value.
const (
	encodingRaw  byte = 0
	encodingZstd byte = 1
)

// Options configures an Archive.
type Options struct {
	Compression       bool                // zstd-compress record values
	Sync              bool                // fsync every write
	QuarantineRejects bool                // keep records that fail the strict check
	IDs               *recordid.Generator // nil uses a clock-seeded generator
}

// Archive is a pebble-backed record store.
type Archive struct {
	db   *pebble.DB
	opts Options
	ids  *recordid.Generator
	enc  *zstd.Encoder
	dec  *zstd.Decoder
	wo   *pebble.WriteOptions
}

// QuarantineEntry is a record that was refused by the strict check.
type QuarantineEntry struct {
	ID     ksuid.KSUID `json:"id"`
	Reason string      `json:"reason"`
	Raw    []byte      `json:"raw"`
}

// Time is when the record was quarantined.
func (q QuarantineEntry) Time() time.Time { return q.ID.Time() }

// Open opens or creates the archive at path.
func Open(path string, opts Options) (*Archive, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", path, err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a := &Archive{
		db:   db,
		opts: opts,
		ids:  opts.IDs,
		enc:  enc,
		dec:  dec,
		wo:   pebble.NoSync,
	}
	if opts.Sync {
		a.wo = pebble.Sync
	}
	if a.ids == nil {
		a.ids = recordid.New(nil)
	}

	last, err := a.lastID()
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.ids.Observe(last)
	plog.Infof("opened archive %s, last record id %d", path, last)
	return a, nil
}

func recordKey(id uint64) []byte {
	key := make([]byte, len(recordPrefix)+8)
	copy(key, recordPrefix)
	binary.BigEndian.PutUint64(key[len(recordPrefix):], id)
	return key
}

func recordID(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(recordPrefix):])
}

// prefixUpperBound returns the smallest key greater than every key with
// the given prefix.
func prefixUpperBound(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	end[len(end)-1]++
	return end
}

func (a *Archive) lastID() (uint64, error) {
	iter, err := a.db.NewIter(&pebble.IterOptions{
		LowerBound: recordPrefix,
		UpperBound: prefixUpperBound(recordPrefix),
	})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	if !iter.Last() {
		return 0, iter.Error()
	}
	return recordID(iter.Key()), nil
}

func (a *Archive) encode(raw []byte) []byte {
	if !a.opts.Compression {
		return append([]byte{encodingRaw}, raw...)
	}
	return a.enc.EncodeAll(raw, []byte{encodingZstd})
}

func (a *Archive) decode(value []byte) ([]byte, error) {
	if len(value) == 0 {
		return nil, store.ErrCorruption
	}
	switch value[0] {
	case encodingRaw:
		return bytes.Clone(value[1:]), nil
	case encodingZstd:
		raw, err := a.dec.DecodeAll(value[1:], nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", store.ErrCorruption, err)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: unknown value encoding %d", store.ErrCorruption, value[0])
	}
}

// Write validates raw strictly and stores it under a new record ID. A
// rejected record is quarantined when the archive is configured to.
func (a *Archive) Write(raw []byte) (uint64, error) {
	if err := cper.Check(raw); err != nil {
		if a.opts.QuarantineRejects {
			if _, qerr := a.Quarantine(raw, err.Error()); qerr != nil {
				plog.Errorf("quarantine rejected record: %v", qerr)
			}
		}
		return 0, fmt.Errorf("%w: %w", store.ErrInvalidRecord, err)
	}
	raw, err := cper.Bytes(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", store.ErrInvalidRecord, err)
	}

	id := a.ids.Next()
	if err := a.db.Set(recordKey(id), a.encode(raw), a.wo); err != nil {
		return 0, err
	}
	return id, nil
}

// Read returns the raw record stored under id.
func (a *Archive) Read(id uint64) ([]byte, error) {
	value, closer, err := a.db.Get(recordKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, store.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	// value is only valid until closer runs; decode copies it
	return a.decode(value)
}

// Delete removes the record stored under id.
func (a *Archive) Delete(id uint64) error {
	key := recordKey(id)
	_, closer, err := a.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return store.ErrRecordNotFound
	}
	if err != nil {
		return err
	}
	closer.Close()

	return a.db.Delete(key, a.wo)
}

// IDs lists stored record IDs in ascending order.
func (a *Archive) IDs(ctx context.Context) ([]uint64, error) {
	iter, err := a.db.NewIter(&pebble.IterOptions{
		LowerBound: recordPrefix,
		UpperBound: prefixUpperBound(recordPrefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var ids []uint64
	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ids = append(ids, recordID(iter.Key()))
	}
	return ids, iter.Error()
}

// Quarantine stores raw with the reason it was refused.
func (a *Archive) Quarantine(raw []byte, reason string) (ksuid.KSUID, error) {
	id := ksuid.New()
	value, err := json.Marshal(QuarantineEntry{ID: id, Reason: reason, Raw: raw})
	if err != nil {
		return ksuid.Nil, err
	}

	key := append(bytes.Clone(quarantinePrefix), id.Bytes()...)
	if err := a.db.Set(key, value, a.wo); err != nil {
		return ksuid.Nil, err
	}
	plog.Warningf("quarantined record %s: %s", id, reason)
	return id, nil
}

// Quarantined lists quarantined records ordered by the second they were
// quarantined.
func (a *Archive) Quarantined(ctx context.Context) ([]QuarantineEntry, error) {
	iter, err := a.db.NewIter(&pebble.IterOptions{
		LowerBound: quarantinePrefix,
		UpperBound: prefixUpperBound(quarantinePrefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var entries []QuarantineEntry
	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var e QuarantineEntry
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			return nil, fmt.Errorf("%w: quarantine entry: %v", store.ErrCorruption, err)
		}
		entries = append(entries, e)
	}
	return entries, iter.Error()
}

// Close closes the archive.
func (a *Archive) Close() error {
	a.dec.Close()
	if err := a.enc.Close(); err != nil {
		_ = a.db.Close()
		return err
	}
	return a.db.Close()
}

var _ store.RecordStore = (*Archive)(nil)
