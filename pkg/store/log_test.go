package store

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/cperd/pkg/codec"
)

func TestLogWriterReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.log")

	w, err := NewLogWriter(LogWriterConfig{FilePath: path})
	require.NoError(t, err)
	assert.Equal(t, path, w.Path())

	off1, size1, err := w.Append(1, []byte("first"))
	require.NoError(t, err)
	off2, size2, err := w.Append(2, []byte("second record"))
	require.NoError(t, err)
	off3, size3, err := w.AppendTombstone(1)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, int64(0), off1)
	assert.Equal(t, uint32(codec.HeaderSize+5), size1)
	assert.Equal(t, int64(size1), off2)
	assert.Equal(t, off2+int64(size2), off3)
	assert.Equal(t, uint32(codec.HeaderSize), size3)

	r, err := NewLogReader(LogReaderConfig{FilePath: path})
	require.NoError(t, err)
	defer r.Close()

	var frames []*codec.Frame
	it := r.Iterator()
	for it.Next() {
		frames = append(frames, it.Frame())
	}
	require.NoError(t, it.Err())
	require.NoError(t, it.Close())
	require.Len(t, frames, 3)
	assert.Equal(t, []byte("second record"), frames[1].Data)
	assert.True(t, frames[2].IsTombstone())
	assert.Equal(t, off3+int64(size3), r.Offset())

	f, err := r.ReadAt(off2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), f.ID)

	require.NoError(t, r.Seek(off2))
	f, err = r.ReadNext()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), f.ID)
}

func TestLogWriterAppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")

	w, err := NewLogWriter(LogWriterConfig{FilePath: path})
	require.NoError(t, err)
	_, size, err := w.Append(1, []byte("a"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	w, err = NewLogWriter(LogWriterConfig{FilePath: path})
	require.NoError(t, err)
	assert.Equal(t, int64(size), w.Size())
	off, _, err := w.Append(2, []byte("b"))
	require.NoError(t, err)
	assert.Equal(t, int64(size), off)
	require.NoError(t, w.Close())
}

func TestLogReaderCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	w, err := NewLogWriter(LogWriterConfig{FilePath: path})
	require.NoError(t, err)
	_, _, err = w.Append(1, []byte("payload"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	testCases := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"torn header", func(b []byte) []byte { return b[:10] }},
		{"torn data", func(b []byte) []byte { return b[:len(b)-2] }},
		{"flipped bit", func(b []byte) []byte {
			c := append([]byte(nil), b...)
			c[len(c)-1] ^= 0x01
			return c
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, os.WriteFile(path, tc.mutate(data), 0600))
			r, err := NewLogReader(LogReaderConfig{FilePath: path})
			require.NoError(t, err)
			defer r.Close()

			_, err = r.ReadNext()
			assert.ErrorIs(t, err, ErrCorruption)
			_, err = r.ReadAt(0)
			assert.ErrorIs(t, err, ErrCorruption)
		})
	}

	t.Run("empty file", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, nil, 0600))
		r, err := NewLogReader(LogReaderConfig{FilePath: path})
		require.NoError(t, err)
		defer r.Close()

		_, err = r.ReadNext()
		assert.Equal(t, io.EOF, err)
	})
}

func TestHashIndex(t *testing.T) {
	idx := NewHashIndex()
	idx.Put(30, &IndexEntry{Offset: 300})
	idx.Put(10, &IndexEntry{Offset: 100})
	idx.Put(20, &IndexEntry{Offset: 200})

	entry, ok := idx.Get(20)
	require.True(t, ok)
	assert.Equal(t, int64(200), entry.Offset)
	assert.Equal(t, []uint64{10, 20, 30}, idx.IDs())

	idx.Delete(20)
	_, ok = idx.Get(20)
	assert.False(t, ok)
	assert.Equal(t, 2, idx.Stats().TotalRecords)

	idx.Clear()
	assert.Zero(t, idx.Size())
	assert.Empty(t, idx.IDs())
}

func TestHashIndexBuildFromLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	w, err := NewLogWriter(LogWriterConfig{FilePath: path})
	require.NoError(t, err)
	_, _, err = w.Append(5, []byte("five"))
	require.NoError(t, err)
	off, _, err := w.Append(7, []byte("seven"))
	require.NoError(t, err)
	_, _, err = w.AppendTombstone(5)
	require.NoError(t, err)
	_, _, err = w.AppendTombstone(9)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := NewLogReader(LogReaderConfig{FilePath: path})
	require.NoError(t, err)
	defer r.Close()

	idx := NewHashIndex()
	idx.Put(99, &IndexEntry{})
	maxID, err := idx.BuildFromLog(r)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), maxID)
	assert.Equal(t, []uint64{7}, idx.IDs())

	entry, _ := idx.Get(7)
	assert.Equal(t, off, entry.Offset)
	assert.Equal(t, uint32(codec.HeaderSize+5), entry.Size)
}
