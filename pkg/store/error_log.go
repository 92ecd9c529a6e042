package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/coreos/pkg/capnslog"

	"github.com/ssargent/cperd/pkg/cper"
	"github.com/ssargent/cperd/pkg/recordid"
)

var plog = capnslog.NewPackageLogger("github.com/ssargent/cperd", "store")

// DataFileName is the log file inside the data directory.
const DataFileName = "errors.log"

// ErrorLog is an append-only, crash-recoverable log of raw CPER records
// keyed by record ID
type ErrorLog struct {
	config   ErrorLogConfig
	writer   *LogWriter
	reader   *LogReader
	index    *HashIndex
	ids      *recordid.Generator
	dataFile string
	mutex    sync.Mutex
	isOpen   bool
	openedAt time.Time
	rejected uint64
}

// NewErrorLog creates a new error log instance
func NewErrorLog(config ErrorLogConfig) (*ErrorLog, error) {
	if err := os.MkdirAll(config.DataDir, 0750); err != nil {
		return nil, err
	}

	ids := config.IDs
	if ids == nil {
		ids = recordid.New(nil)
	}

	return &ErrorLog{
		config:   config,
		dataFile: filepath.Join(config.DataDir, DataFileName),
		index:    NewHashIndex(),
		ids:      ids,
	}, nil
}

// Open initializes the log and loads existing data with crash recovery
func (l *ErrorLog) Open() (*RecoveryResult, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.isOpen {
		return &RecoveryResult{}, nil
	}

	recovery, err := l.validateLogFile(l.dataFile)
	if err != nil {
		return nil, err
	}

	writer, err := NewLogWriter(LogWriterConfig{
		FilePath:      l.dataFile,
		FsyncInterval: l.config.FsyncInterval,
		BufferSize:    64 * 1024,
	})
	if err != nil {
		return nil, err
	}

	reader, err := NewLogReader(LogReaderConfig{FilePath: l.dataFile})
	if err != nil {
		_ = writer.Close()
		return nil, err
	}

	maxID, err := l.index.BuildFromLog(reader)
	if err != nil {
		_ = reader.Close()
		_ = writer.Close()
		return nil, err
	}
	l.ids.Observe(maxID)

	l.writer = writer
	l.reader = reader
	l.isOpen = true
	l.openedAt = time.Now()

	plog.Infof("opened %s: %d records, %d frames validated", l.dataFile, l.index.Size(), recovery.RecordsValidated)
	return recovery, nil
}

// Write strictly validates raw, assigns it a record ID and appends it
func (l *ErrorLog) Write(raw []byte) (uint64, error) {
	if err := cper.Check(raw); err != nil {
		l.mutex.Lock()
		l.rejected++
		l.mutex.Unlock()
		return 0, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	raw, err := cper.Bytes(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	if !l.isOpen {
		return 0, ErrStoreClosed
	}

	id := l.ids.Next()
	offset, size, err := l.writer.Append(id, raw)
	if err != nil {
		return 0, err
	}

	l.index.Put(id, &IndexEntry{
		Offset:    offset,
		Size:      size,
		Timestamp: uint64(time.Now().UnixNano()),
	})
	return id, nil
}

// Read returns the raw record stored under id
func (l *ErrorLog) Read(id uint64) ([]byte, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if !l.isOpen {
		return nil, ErrStoreClosed
	}

	entry, exists := l.index.Get(id)
	if !exists {
		return nil, ErrRecordNotFound
	}

	if err := l.writer.Flush(); err != nil {
		return nil, err
	}

	frame, err := l.reader.ReadAt(entry.Offset)
	if err != nil {
		return nil, err
	}
	if frame.ID != id || frame.IsTombstone() {
		return nil, ErrCorruption
	}
	return frame.Data, nil
}

// Delete writes a tombstone for id
func (l *ErrorLog) Delete(id uint64) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if !l.isOpen {
		return ErrStoreClosed
	}

	if _, exists := l.index.Get(id); !exists {
		return ErrRecordNotFound
	}

	if _, _, err := l.writer.AppendTombstone(id); err != nil {
		return err
	}
	l.index.Delete(id)
	return nil
}

// IDs returns the live record IDs in ascending order
func (l *ErrorLog) IDs(ctx context.Context) ([]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	if !l.isOpen {
		return nil, ErrStoreClosed
	}
	return l.index.IDs(), nil
}

// Close shuts down the log
func (l *ErrorLog) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if !l.isOpen {
		return nil
	}

	l.isOpen = false

	// Close writer first (ensures all data is flushed)
	if err := l.writer.Close(); err != nil {
		_ = l.reader.Close()
		return err
	}

	return l.reader.Close()
}

// validateLogFile validates the log file integrity and truncates a torn or
// corrupted tail
func (l *ErrorLog) validateLogFile(filePath string) (*RecoveryResult, error) {
	startTime := time.Now()

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &RecoveryResult{
				IndexRebuilt: true,
				RecoveryTime: time.Since(startTime),
			}, nil
		}
		return nil, err
	}

	fileSizeBefore := fileInfo.Size()

	reader, err := NewLogReader(LogReaderConfig{FilePath: filePath})
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var recordsValidated int64
	var lastValidOffset int64
	var corruptionFound bool

	for {
		_, err := reader.ReadNext()
		if err != nil {
			if err != io.EOF {
				corruptionFound = true
			}
			break
		}

		recordsValidated++
		lastValidOffset = reader.Offset()
	}

	result := &RecoveryResult{
		RecordsValidated: recordsValidated,
		FileSizeBefore:   fileSizeBefore,
		FileSizeAfter:    fileSizeBefore,
		IndexRebuilt:     true,
	}

	if corruptionFound {
		if err := os.Truncate(filePath, lastValidOffset); err != nil {
			return nil, err
		}
		result.FileSizeAfter = lastValidOffset
		result.BytesTruncated = fileSizeBefore - lastValidOffset
		result.RecordsTruncated = 1 // Everything after the first bad frame goes
		plog.Warningf("truncated %d bytes of corrupt data from %s at offset %d",
			result.BytesTruncated, filePath, lastValidOffset)
	}

	result.RecoveryTime = time.Since(startTime)
	return result, nil
}

// Stats returns log statistics
func (l *ErrorLog) Stats() *StoreStats {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if !l.isOpen {
		return &StoreStats{}
	}

	return &StoreStats{
		Records:  l.index.Size(),
		DataSize: l.writer.Size(),
		Rejected: l.rejected,
		Uptime:   time.Since(l.openedAt),
	}
}
