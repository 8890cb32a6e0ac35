package wire_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fty-ops/alert-registry/internal/domain/entity"
	"github.com/fty-ops/alert-registry/internal/wire"
)

func sample() *entity.Alert {
	return &entity.Alert{
		Rule:        "Threshold",
		Element:     "Žluťoučký kůň супер",
		State:       entity.StateActive,
		Severity:    "CRITICAL",
		Description: `some "json" {"a":1}`,
		Metadata:    `{"k":"v"}`,
		Time:        123,
		TTL:         60,
		CTime:       100,
		LastSent:    110,
		Actions:     []string{"EMAIL", "SMS"},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	a := sample()
	decoded, err := wire.Decode(wire.Encode(a))
	require.NoError(t, err)
	assert.Equal(t, a, decoded)
}

func TestFramedRoundTripMultiple(t *testing.T) {
	a1 := sample()
	a2 := sample()
	a2.Element = "store"
	a2.Actions = nil

	var buf []byte
	buf = append(buf, wire.EncodeFramed(a1)...)
	buf = append(buf, wire.EncodeFramed(a2)...)

	decoded, err := wire.DecodeAllFramed(buf)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, a1, decoded[0])
	assert.Equal(t, a2, decoded[1])
}

func TestDecodeRejectsTruncated(t *testing.T) {
	full := wire.Encode(sample())
	_, err := wire.Decode(full[:len(full)-3])
	assert.Error(t, err)
}
