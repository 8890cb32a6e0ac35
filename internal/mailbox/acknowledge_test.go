package mailbox_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fty-ops/alert-registry/internal/clock"
	"github.com/fty-ops/alert-registry/internal/domain/entity"
	"github.com/fty-ops/alert-registry/internal/domain/registry"
	"github.com/fty-ops/alert-registry/internal/mailbox"
)

func TestAcknowledgeSuccess(t *testing.T) {
	store := registry.New()
	store.Lock()
	store.InsertEndLocked(&entity.Alert{Rule: "Threshold", Element: "ups", State: entity.StateActive, Severity: "HIGH", Time: 10})
	store.Unlock()

	clk := &clock.Fixed{Mono: 500, Wall: 9999}
	result := mailbox.HandleAcknowledge(store, clk, [][]byte{[]byte("Threshold"), []byte("ups"), []byte("ACK-WIP")})

	require.Equal(t, [][]byte{[]byte("OK"), []byte("Threshold"), []byte("ups"), []byte("ACK-WIP")}, result.Reply)
	require.NotNil(t, result.Publish)
	assert.Equal(t, entity.StateAckWIP, result.Publish.State)
	assert.EqualValues(t, 9999, result.Publish.Time)
	assert.Equal(t, "Threshold/HIGH@ups", result.Subject)

	store.Lock()
	stored, _ := store.FindLocked(entity.Identity{Rule: "Threshold", Element: "ups"})
	store.Unlock()
	assert.Equal(t, entity.StateAckWIP, stored.State)
	assert.EqualValues(t, 10, stored.Time, "ack must not touch the timeline timestamp")
}

func TestAcknowledgeSubjectUsesStoredCaseNotRequestCase(t *testing.T) {
	store := registry.New()
	store.Lock()
	store.InsertEndLocked(&entity.Alert{Rule: "Threshold", Element: "ups", State: entity.StateActive, Severity: "HIGH", Time: 10})
	store.Unlock()

	clk := &clock.Fixed{Mono: 500, Wall: 9999}
	result := mailbox.HandleAcknowledge(store, clk, [][]byte{[]byte("threshold"), []byte("UPS"), []byte("ACK-WIP")})

	require.NotNil(t, result.Publish)
	assert.Equal(t, "Threshold/HIGH@ups", result.Subject, "subject must use the stored identity's casing, not the request's")
}

func TestAcknowledgeResolvedIsBadState(t *testing.T) {
	store := registry.New()
	store.Lock()
	store.InsertEndLocked(&entity.Alert{Rule: "Threshold", Element: "ups", State: entity.StateResolved})
	store.Unlock()

	clk := &clock.Fixed{}
	result := mailbox.HandleAcknowledge(store, clk, [][]byte{[]byte("Threshold"), []byte("ups"), []byte("ACK-WIP")})
	assert.Equal(t, [][]byte{[]byte("ERROR"), []byte("BAD_STATE")}, result.Reply)
	assert.Nil(t, result.Publish)
}

func TestAcknowledgeUnknownIdentityIsNotFound(t *testing.T) {
	store := registry.New()
	clk := &clock.Fixed{}
	result := mailbox.HandleAcknowledge(store, clk, [][]byte{[]byte("Threshold"), []byte("ups"), []byte("ACK-WIP")})
	assert.Equal(t, [][]byte{[]byte("ERROR"), []byte("NOT_FOUND")}, result.Reply)
}

func TestAcknowledgeInvalidTargetStateIsBadState(t *testing.T) {
	store := registry.New()
	store.Lock()
	store.InsertEndLocked(&entity.Alert{Rule: "Threshold", Element: "ups", State: entity.StateActive})
	store.Unlock()

	clk := &clock.Fixed{}
	result := mailbox.HandleAcknowledge(store, clk, [][]byte{[]byte("Threshold"), []byte("ups"), []byte("RESOLVED")})
	assert.Equal(t, [][]byte{[]byte("ERROR"), []byte("BAD_STATE")}, result.Reply)
}

func TestAcknowledgeMissingFrameIsBadMessage(t *testing.T) {
	store := registry.New()
	clk := &clock.Fixed{}
	result := mailbox.HandleAcknowledge(store, clk, [][]byte{[]byte("Threshold"), []byte("ups")})
	assert.Equal(t, [][]byte{[]byte("ERROR"), []byte("BAD_MESSAGE")}, result.Reply)
}
