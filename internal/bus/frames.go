package bus

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// EncodeFrames packs a ZeroMQ-style multipart message into a single
// length-prefixed blob, so it can travel as one Redis list element. The
// mailbox transport uses this to carry [reply_key, ...protocol_frames]
// in a single LPUSH/BLPOP round trip.
func EncodeFrames(frames [][]byte) []byte {
	var buf bytes.Buffer
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(len(frames)))
	buf.Write(tmp[:])
	for _, f := range frames {
		binary.BigEndian.PutUint32(tmp[:], uint32(len(f)))
		buf.Write(tmp[:])
		buf.Write(f)
	}
	return buf.Bytes()
}

// DecodeFrames is the inverse of EncodeFrames.
func DecodeFrames(b []byte) ([][]byte, error) {
	r := bytes.NewReader(b)
	var tmp [4]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return nil, fmt.Errorf("bus: decode frame count: %w", err)
	}
	count := binary.BigEndian.Uint32(tmp[:])

	frames := make([][]byte, count)
	for i := range frames {
		if _, err := io.ReadFull(r, tmp[:]); err != nil {
			return nil, fmt.Errorf("bus: decode frame %d length: %w", i, err)
		}
		length := binary.BigEndian.Uint32(tmp[:])
		frame := make([]byte, length)
		if length > 0 {
			if _, err := io.ReadFull(r, frame); err != nil {
				return nil, fmt.Errorf("bus: decode frame %d payload: %w", i, err)
			}
		}
		frames[i] = frame
	}
	return frames, nil
}
