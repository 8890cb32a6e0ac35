package mailbox_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fty-ops/alert-registry/internal/domain/entity"
	"github.com/fty-ops/alert-registry/internal/domain/registry"
	"github.com/fty-ops/alert-registry/internal/mailbox"
	"github.com/fty-ops/alert-registry/internal/wire"
)

func TestListActiveReturnsOneAlert(t *testing.T) {
	store := registry.New()
	store.Lock()
	store.InsertEndLocked(&entity.Alert{Rule: "Threshold", Element: "ups", State: entity.StateActive})
	store.Unlock()

	reply := mailbox.HandleList(store, [][]byte{[]byte("LIST"), []byte("ACTIVE")})
	require.Len(t, reply, 3)
	assert.Equal(t, "LIST", string(reply[0]))
	assert.Equal(t, "ACTIVE", string(reply[1]))
	decoded, err := wire.Decode(reply[2])
	require.NoError(t, err)
	assert.Equal(t, "ups", decoded.Element)
}

func TestListResolvedIsEmpty(t *testing.T) {
	store := registry.New()
	store.Lock()
	store.InsertEndLocked(&entity.Alert{Rule: "Threshold", Element: "ups", State: entity.StateActive})
	store.Unlock()

	reply := mailbox.HandleList(store, [][]byte{[]byte("LIST"), []byte("RESOLVED")})
	require.Len(t, reply, 2)
	assert.Equal(t, "RESOLVED", string(reply[1]))
}

func TestListUnknownStateIsNotFound(t *testing.T) {
	store := registry.New()
	reply := mailbox.HandleList(store, [][]byte{[]byte("LIST"), []byte("ACTIVE-ALL")})
	assert.Equal(t, [][]byte{[]byte("ERROR"), []byte("NOT_FOUND")}, reply)
}

func TestListExEchoesCorrelationID(t *testing.T) {
	store := registry.New()
	reply := mailbox.HandleList(store, [][]byte{[]byte("LIST_EX"), []byte("1234"), []byte("ALL")})
	require.Len(t, reply, 3)
	assert.Equal(t, "LIST_EX", string(reply[0]))
	assert.Equal(t, "1234", string(reply[1]))
	assert.Equal(t, "ALL", string(reply[2]))
}

func TestListExMissingCorrelationIDIsBadMessage(t *testing.T) {
	store := registry.New()
	reply := mailbox.HandleList(store, [][]byte{[]byte("LIST_EX")})
	assert.Equal(t, [][]byte{[]byte("ERROR"), []byte("BAD_MESSAGE")}, reply)
}

func TestListUnknownCommandIsBadMessage(t *testing.T) {
	store := registry.New()
	reply := mailbox.HandleList(store, [][]byte{[]byte("NOPE")})
	assert.Equal(t, [][]byte{[]byte("ERROR"), []byte("BAD_MESSAGE")}, reply)
}

func TestListEmptyRequestIsBadMessage(t *testing.T) {
	store := registry.New()
	reply := mailbox.HandleList(store, nil)
	assert.Equal(t, [][]byte{[]byte("ERROR"), []byte("BAD_MESSAGE")}, reply)
}
