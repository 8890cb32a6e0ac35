package bus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fty-ops/alert-registry/internal/bus"
)

func TestEncodeDecodeFramesRoundTrip(t *testing.T) {
	frames := [][]byte{[]byte("reply-key-123"), []byte("LIST"), []byte("ALL")}
	decoded, err := bus.DecodeFrames(bus.EncodeFrames(frames))
	require.NoError(t, err)
	assert.Equal(t, frames, decoded)
}

func TestEncodeDecodeFramesEmpty(t *testing.T) {
	decoded, err := bus.DecodeFrames(bus.EncodeFrames(nil))
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestDecodeFramesRejectsTruncated(t *testing.T) {
	full := bus.EncodeFrames([][]byte{[]byte("a"), []byte("bb")})
	_, err := bus.DecodeFrames(full[:len(full)-1])
	assert.Error(t, err)
}
