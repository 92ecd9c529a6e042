package store

import (
	"time"

	"github.com/ssargent/cperd/pkg/codec"
	"github.com/ssargent/cperd/pkg/recordid"
)

// IndexEntry represents the location of a record's latest frame in the log
type IndexEntry struct {
	Offset    int64  // Byte offset within the file
	Size      uint32 // Size of the frame in bytes
	Timestamp uint64 // Frame timestamp
}

// LogWriterConfig holds configuration for the log writer
type LogWriterConfig struct {
	FilePath      string        // Path to the active data file
	FsyncInterval time.Duration // How often to fsync (0 = every write)
	BufferSize    int           // Write buffer size
}

// LogReaderConfig holds configuration for the log reader
type LogReaderConfig struct {
	FilePath    string // Path to the data file
	StartOffset int64  // Offset to start reading from
}

// ErrorLogConfig holds configuration for the error record log
type ErrorLogConfig struct {
	DataDir       string              // Directory for data files
	FsyncInterval time.Duration       // Fsync interval for durability
	IDs           *recordid.Generator // Record ID source; nil uses a clock-seeded generator
}

// FrameIterator provides streaming access to log frames
type FrameIterator interface {
	Next() bool
	Frame() *codec.Frame
	Err() error
	Close() error
}

// RecoveryResult reports what Open found and repaired in the log file
type RecoveryResult struct {
	RecordsValidated int64 // Frames that passed CRC validation
	RecordsTruncated int64 // Torn or corrupt frames cut from the tail
	BytesTruncated   int64
	FileSizeBefore   int64
	FileSizeAfter    int64
	IndexRebuilt     bool
	RecoveryTime     time.Duration
}

// Errors
var (
	ErrRecordNotFound = &StoreError{"record not found"}
	ErrInvalidRecord  = &StoreError{"invalid CPER record"}
	ErrCorruption     = &StoreError{"data corruption detected"}
	ErrStoreClosed    = &StoreError{"store is not open"}
)

// StoreError represents an error record store error
type StoreError struct {
	Message string
}

func (e *StoreError) Error() string {
	return e.Message
}
