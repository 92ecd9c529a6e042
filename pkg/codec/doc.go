// Package codec frames CPER records for the append-only error record log.
//
// # Frame Format
//
// Each log entry is serialized as:
//
//	[CRC32(4)][ID(8)][Length(4)][Timestamp(8)][Data]
//
// Fields:
//   - CRC32: IEEE checksum over every byte after it (little-endian)
//   - ID: record identifier assigned by pkg/recordid (little-endian)
//   - Length: number of data bytes that follow (little-endian)
//   - Timestamp: unix nanoseconds when the frame was encoded (little-endian)
//   - Data: the raw error status block, byte for byte as firmware produced it
//
// A frame with zero data bytes is a tombstone: it marks the record with the
// same ID deleted. The smallest CPER record is its 20-byte header, so a
// stored record is never mistaken for a tombstone.
//
// # Usage
//
//	c := codec.NewFrameCodec()
//
//	encoded, err := c.Encode(id, raw)
//	if err != nil {
//	    return err
//	}
//
//	frame, err := c.Decode(encoded)
//	if err != nil {
//	    return err
//	}
//	if err := frame.Validate(); err != nil {
//	    return err // frame is corrupted
//	}
//
// Decode only checks lengths; call Validate to verify the checksum. The
// codec does not look inside Data, so whether the record itself is well
// formed is for pkg/cper to decide before a frame is written.
//
// # Thread Safety
//
// FrameCodec instances are safe for concurrent use.
package codec
