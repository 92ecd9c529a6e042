package store

import (
	"bufio"
	"errors"
	"io"
	"os"

	"github.com/ssargent/cperd/pkg/codec"
)

// LogReader provides sequential and random access to frames in a log file
type LogReader struct {
	file   *os.File
	reader *bufio.Reader
	codec  *codec.FrameCodec
	offset int64
	config LogReaderConfig
}

// NewLogReader creates a new log reader for the specified file
func NewLogReader(config LogReaderConfig) (*LogReader, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, err
	}

	if config.StartOffset > 0 {
		if _, err := file.Seek(config.StartOffset, io.SeekStart); err != nil {
			_ = file.Close()
			return nil, err
		}
	}

	return &LogReader{
		file:   file,
		reader: bufio.NewReader(file),
		codec:  codec.NewFrameCodec(),
		offset: config.StartOffset,
		config: config,
	}, nil
}

// ReadNext reads the frame at the current offset. It returns io.EOF at a
// clean end of file and ErrCorruption for a torn or damaged frame.
func (r *LogReader) ReadNext() (*codec.Frame, error) {
	header := make([]byte, codec.HeaderSize)
	if _, err := io.ReadFull(r.reader, header); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return nil, ErrCorruption
		}
		return nil, err
	}

	frame, err := r.codec.DecodeHeader(header)
	if err != nil {
		return nil, ErrCorruption
	}

	if frame.Length > 0 {
		frame.Data = make([]byte, frame.Length)
		if _, err := io.ReadFull(r.reader, frame.Data); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, ErrCorruption
			}
			return nil, err
		}
	}

	if err := frame.Validate(); err != nil {
		return nil, ErrCorruption
	}

	r.offset += int64(frame.Size())
	return frame, nil
}

// ReadAt reads the frame at a specific offset without moving the
// sequential cursor. It is safe to call concurrently.
func (r *LogReader) ReadAt(offset int64) (*codec.Frame, error) {
	header := make([]byte, codec.HeaderSize)
	if _, err := r.file.ReadAt(header, offset); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrCorruption
		}
		return nil, err
	}

	frame, err := r.codec.DecodeHeader(header)
	if err != nil {
		return nil, ErrCorruption
	}

	if frame.Length > 0 {
		frame.Data = make([]byte, frame.Length)
		if _, err := r.file.ReadAt(frame.Data, offset+codec.HeaderSize); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrCorruption
			}
			return nil, err
		}
	}

	if err := frame.Validate(); err != nil {
		return nil, ErrCorruption
	}
	return frame, nil
}

// Seek sets the read offset
func (r *LogReader) Seek(offset int64) error {
	if _, err := r.file.Seek(offset, io.SeekStart); err != nil {
		return err
	}

	r.reader = bufio.NewReader(r.file) // Recreate reader to clear buffer
	r.offset = offset
	return nil
}

// Offset returns the current read offset
func (r *LogReader) Offset() int64 {
	return r.offset
}

// Iterator returns a streaming iterator over frames from the current offset
func (r *LogReader) Iterator() FrameIterator {
	return &logFrameIterator{reader: r}
}

// Close closes the log reader
func (r *LogReader) Close() error {
	return r.file.Close()
}

// logFrameIterator implements FrameIterator for streaming access
type logFrameIterator struct {
	reader *LogReader
	frame  *codec.Frame
	err    error
}

func (it *logFrameIterator) Next() bool {
	if it.err != nil {
		return false
	}
	it.frame, it.err = it.reader.ReadNext()
	return it.err == nil
}

func (it *logFrameIterator) Frame() *codec.Frame {
	return it.frame
}

// Err returns the error that stopped iteration; a clean end of file is nil.
func (it *logFrameIterator) Err() error {
	if it.err == io.EOF {
		return nil
	}
	return it.err
}

func (it *logFrameIterator) Close() error {
	// Don't close the underlying reader as it's owned by the caller
	return nil
}
