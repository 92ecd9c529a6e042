package store

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ssargent/cperd/pkg/codec"
)

// LogWriter handles append-only writes to the active data file
type LogWriter struct {
	file       *os.File
	writer     *bufio.Writer
	codec      *codec.FrameCodec
	fsyncTimer *time.Timer
	config     LogWriterConfig
	mutex      sync.Mutex
	offset     int64 // Current write offset
}

// NewLogWriter creates a new log writer with the given configuration
func NewLogWriter(config LogWriterConfig) (*LogWriter, error) {
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0750); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	if config.BufferSize <= 0 {
		config.BufferSize = 64 * 1024
	}

	writer := &LogWriter{
		file:   file,
		writer: bufio.NewWriterSize(file, config.BufferSize),
		codec:  codec.NewFrameCodec(),
		config: config,
		offset: offset,
	}

	if config.FsyncInterval > 0 {
		writer.fsyncTimer = time.AfterFunc(config.FsyncInterval, func() {
			writer.mutex.Lock()
			defer writer.mutex.Unlock()
			if err := writer.sync(); err != nil {
				plog.Warningf("background fsync of %s failed: %v", config.FilePath, err)
			}
		})
	}

	return writer, nil
}

// Append frames data under id and returns the frame's offset and size
func (w *LogWriter) Append(id uint64, data []byte) (int64, uint32, error) {
	frame, err := w.codec.Encode(id, data)
	if err != nil {
		return 0, 0, err
	}
	return w.write(frame)
}

// AppendTombstone writes a deletion marker for id
func (w *LogWriter) AppendTombstone(id uint64) (int64, uint32, error) {
	return w.write(w.codec.EncodeTombstone(id))
}

func (w *LogWriter) write(frame []byte) (int64, uint32, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	n, err := w.writer.Write(frame)
	if err != nil {
		return 0, 0, err
	}

	frameOffset := w.offset
	w.offset += int64(n)

	if w.config.FsyncInterval == 0 {
		if err := w.sync(); err != nil {
			return 0, 0, err
		}
	} else if w.fsyncTimer != nil {
		w.fsyncTimer.Reset(w.config.FsyncInterval)
	}

	return frameOffset, uint32(n), nil
}

// Flush hands buffered frames to the OS so readers can see them, without
// waiting for an fsync
func (w *LogWriter) Flush() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.writer.Flush()
}

// Sync forces a fsync to disk
func (w *LogWriter) Sync() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.sync()
}

func (w *LogWriter) sync() error {
	if err := w.writer.Flush(); err != nil {
		return err
	}
	return w.file.Sync()
}

// Close closes the log writer and ensures all data is synced
func (w *LogWriter) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.fsyncTimer != nil {
		w.fsyncTimer.Stop()
	}

	if err := w.sync(); err != nil {
		_ = w.file.Close()
		return err
	}

	return w.file.Close()
}

// Size returns the current size of the log file
func (w *LogWriter) Size() int64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.offset
}

// Path returns the file path
func (w *LogWriter) Path() string {
	return w.config.FilePath
}
