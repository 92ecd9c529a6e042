package store

import (
	"sort"
	"sync"
)

// HashIndex maps record IDs to the location of their latest frame
type HashIndex struct {
	entries map[uint64]*IndexEntry
	mutex   sync.RWMutex
}

// NewHashIndex creates a new hash index
func NewHashIndex() *HashIndex {
	return &HashIndex{
		entries: make(map[uint64]*IndexEntry),
	}
}

// Put adds or updates the index entry for id
func (idx *HashIndex) Put(id uint64, entry *IndexEntry) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	idx.entries[id] = entry
}

// Get retrieves the index entry for id
func (idx *HashIndex) Get(id uint64) (*IndexEntry, bool) {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	entry, exists := idx.entries[id]
	return entry, exists
}

// Delete removes id from the index
func (idx *HashIndex) Delete(id uint64) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	delete(idx.entries, id)
}

// Size returns the number of live records in the index
func (idx *HashIndex) Size() int {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	return len(idx.entries)
}

// Clear removes all entries from the index
func (idx *HashIndex) Clear() {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	idx.entries = make(map[uint64]*IndexEntry)
}

// IDs returns every indexed record ID in ascending order
func (idx *HashIndex) IDs() []uint64 {
	idx.mutex.RLock()
	ids := make([]uint64, 0, len(idx.entries))
	for id := range idx.entries {
		ids = append(ids, id)
	}
	idx.mutex.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// BuildFromLog scans a log file and populates the index. It returns the
// highest record ID seen, tombstones included, so the caller never
// reissues one.
func (idx *HashIndex) BuildFromLog(reader *LogReader) (uint64, error) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	idx.entries = make(map[uint64]*IndexEntry)

	if err := reader.Seek(0); err != nil {
		return 0, err
	}

	iterator := reader.Iterator()
	defer iterator.Close()

	var maxID uint64
	for iterator.Next() {
		frame := iterator.Frame()
		if frame.ID > maxID {
			maxID = frame.ID
		}

		if frame.IsTombstone() {
			delete(idx.entries, frame.ID)
			continue
		}
		idx.entries[frame.ID] = &IndexEntry{
			Offset:    reader.Offset() - int64(frame.Size()),
			Size:      uint32(frame.Size()),
			Timestamp: frame.Timestamp,
		}
	}

	return maxID, iterator.Err()
}

// Stats returns index statistics
func (idx *HashIndex) Stats() *IndexStats {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	return &IndexStats{
		TotalRecords: len(idx.entries),
	}
}

// IndexStats holds statistics about the index
type IndexStats struct {
	TotalRecords int
}
