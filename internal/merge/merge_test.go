package merge_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fty-ops/alert-registry/internal/clock"
	"github.com/fty-ops/alert-registry/internal/domain/entity"
	"github.com/fty-ops/alert-registry/internal/domain/registry"
	"github.com/fty-ops/alert-registry/internal/merge"
	"github.com/fty-ops/alert-registry/internal/ttl"
)

func setup() (*registry.Store, *clock.Fixed, *ttl.Map) {
	return registry.New(), &clock.Fixed{Mono: 1000, Wall: 1000}, ttl.NewMap(3600)
}

func TestFirstIngestPublishesAndStampsCTime(t *testing.T) {
	store, clk, expiry := setup()

	incoming := &entity.Alert{Rule: "Threshold", Element: "ups", State: entity.StateActive, Severity: "CRITICAL", Time: 5, TTL: 10}
	dec := merge.Ingest(context.Background(), store, clk, expiry, incoming)

	require.NotNil(t, dec.ToPublish)
	assert.EqualValues(t, 5, dec.ToPublish.CTime)

	store.Lock()
	stored, ok := store.FindLocked(entity.Identity{Rule: "threshold", Element: "ups"})
	store.Unlock()
	require.True(t, ok)
	assert.Equal(t, entity.StateActive, stored.State)

	deadline, ok := expiry.Deadline("Threshold")
	require.True(t, ok)
	assert.EqualValues(t, 1010, deadline)
}

func TestResolvedResolvedIsNoMutationNoPublish(t *testing.T) {
	store, clk, expiry := setup()
	merge.Ingest(context.Background(), store, clk, expiry, &entity.Alert{Rule: "r", Element: "e", State: entity.StateResolved, Severity: "LOW", Description: "first", Time: 1})

	dec := merge.Ingest(context.Background(), store, clk, expiry, &entity.Alert{Rule: "r", Element: "e", State: entity.StateResolved, Severity: "LOW", Description: "second", Time: 2})
	assert.Nil(t, dec.ToPublish)

	store.Lock()
	stored, _ := store.FindLocked(entity.Identity{Rule: "r", Element: "e"})
	store.Unlock()
	assert.Equal(t, "first", stored.Description)
}

func TestResolvedToActiveRepublishes(t *testing.T) {
	store, clk, expiry := setup()
	merge.Ingest(context.Background(), store, clk, expiry, &entity.Alert{Rule: "r", Element: "e", State: entity.StateResolved, Severity: "LOW"})

	dec := merge.Ingest(context.Background(), store, clk, expiry, &entity.Alert{Rule: "r", Element: "e", State: entity.StateActive, Severity: "LOW", Description: "back up", TTL: 30, Time: 99})
	require.NotNil(t, dec.ToPublish)
	assert.Equal(t, entity.StateActive, dec.ToPublish.State)
	assert.Equal(t, "back up", dec.ToPublish.Description)
	assert.EqualValues(t, 99, dec.ToPublish.CTime)
}

func TestAckActiveSameSeveritySuppressesAndKeepsAckState(t *testing.T) {
	store, clk, expiry := setup()
	merge.Ingest(context.Background(), store, clk, expiry, &entity.Alert{Rule: "r", Element: "e", State: entity.StateActive, Severity: "HIGH", TTL: 100})

	store.Lock()
	stored, _ := store.FindLocked(entity.Identity{Rule: "r", Element: "e"})
	stored.State = entity.StateAckWIP
	store.Unlock()

	dec := merge.Ingest(context.Background(), store, clk, expiry, &entity.Alert{Rule: "r", Element: "e", State: entity.StateActive, Severity: "HIGH", Description: "upd", TTL: 100})
	assert.Nil(t, dec.ToPublish)

	store.Lock()
	stored, _ = store.FindLocked(entity.Identity{Rule: "r", Element: "e"})
	store.Unlock()
	assert.Equal(t, entity.StateAckWIP, stored.State)
	assert.Equal(t, "upd", stored.Description)
}

func TestAckActiveSeverityChangedPublishesAndKeepsAckState(t *testing.T) {
	store, clk, expiry := setup()
	merge.Ingest(context.Background(), store, clk, expiry, &entity.Alert{Rule: "r", Element: "e", State: entity.StateActive, Severity: "HIGH"})
	store.Lock()
	stored, _ := store.FindLocked(entity.Identity{Rule: "r", Element: "e"})
	stored.State = entity.StateAckIgnore
	store.Unlock()

	dec := merge.Ingest(context.Background(), store, clk, expiry, &entity.Alert{Rule: "r", Element: "e", State: entity.StateActive, Severity: "CRITICAL", Time: 42})
	require.NotNil(t, dec.ToPublish)
	assert.Equal(t, entity.StateAckIgnore, dec.ToPublish.State)
	assert.EqualValues(t, 42, dec.ToPublish.CTime)
}

func TestActiveActiveZeroTTLPublishesOnceOnly(t *testing.T) {
	store, clk, expiry := setup()
	dec1 := merge.Ingest(context.Background(), store, clk, expiry, &entity.Alert{Rule: "r", Element: "e", State: entity.StateActive, Severity: "HIGH", Time: 1, TTL: 0})
	require.NotNil(t, dec1.ToPublish)
	store.Lock()
	store.SetLastSentLocked(entity.Identity{Rule: "r", Element: "e"}, clk.Mono)
	store.Unlock()

	clk.Advance(1)
	dec2 := merge.Ingest(context.Background(), store, clk, expiry, &entity.Alert{Rule: "r", Element: "e", State: entity.StateActive, Severity: "HIGH", Time: 2, TTL: 0})
	assert.Nil(t, dec2.ToPublish)
}

func TestActiveActiveHeartbeatHalfTTLBound(t *testing.T) {
	store, clk, expiry := setup()
	dec1 := merge.Ingest(context.Background(), store, clk, expiry, &entity.Alert{Rule: "r", Element: "e", State: entity.StateActive, Severity: "HIGH", Time: 1, TTL: 10})
	require.NotNil(t, dec1.ToPublish)
	store.Lock()
	store.SetLastSentLocked(entity.Identity{Rule: "r", Element: "e"}, clk.Mono)
	store.Unlock()

	// Within half-TTL: suppressed.
	clk.Advance(4)
	dec2 := merge.Ingest(context.Background(), store, clk, expiry, &entity.Alert{Rule: "r", Element: "e", State: entity.StateActive, Severity: "HIGH", Time: 2, TTL: 10})
	assert.Nil(t, dec2.ToPublish)

	// At half-TTL boundary: republished.
	clk.Advance(1)
	dec3 := merge.Ingest(context.Background(), store, clk, expiry, &entity.Alert{Rule: "r", Element: "e", State: entity.StateActive, Severity: "HIGH", Time: 3, TTL: 10})
	assert.NotNil(t, dec3.ToPublish)
}

func TestActionsAreCopiedNotAliased(t *testing.T) {
	store, clk, expiry := setup()
	actions := []string{"EMAIL"}
	merge.Ingest(context.Background(), store, clk, expiry, &entity.Alert{Rule: "r", Element: "e", State: entity.StateActive, Severity: "HIGH", Actions: actions})

	actions[0] = "SMS"

	store.Lock()
	stored, _ := store.FindLocked(entity.Identity{Rule: "r", Element: "e"})
	store.Unlock()
	assert.Equal(t, "EMAIL", stored.Actions[0])
}
