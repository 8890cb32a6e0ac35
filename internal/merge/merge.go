// Package merge implements the stream worker's merge state machine:
// given an incoming alert event and the currently stored alert (if any),
// decide how to update the store and whether the result should be
// republished downstream.
package merge

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/fty-ops/alert-registry/internal/clock"
	"github.com/fty-ops/alert-registry/internal/domain/entity"
	"github.com/fty-ops/alert-registry/internal/domain/registry"
	"github.com/fty-ops/alert-registry/internal/infrastructure/tracing"
	"github.com/fty-ops/alert-registry/internal/ttl"
)

// ExpiryTracker is the narrow view of the TTL expiry map the merge state
// machine needs. It is owned exclusively by the stream worker and is
// passed in rather than reached for as a global.
type ExpiryTracker interface {
	Refresh(rule string, ttlSeconds int64, nowMonoSeconds int64)
}

var _ ExpiryTracker = (*ttl.Map)(nil)

// Decision is the outcome of merging one incoming event into the store.
// ToPublish is nil when no publication should occur. Suppressed is true
// when an ACTIVE heartbeat was deliberately not republished (zero TTL, or
// still within the half-TTL window) — a narrower condition than
// ToPublish == nil, which is also true for the RESOLVED-to-RESOLVED
// no-mutation case.
type Decision struct {
	Identity   entity.Identity
	ToPublish  *entity.Alert
	Suppressed bool
}

// Ingest applies incoming to the store under the registry lock and
// returns the publish decision. It never performs bus I/O itself — the
// caller (the stream worker) is responsible for encoding and sending
// ToPublish, and for calling store.SetLastSentLocked afterward: release
// the mutex before calling into the bus, then reacquire only to stamp
// last_sent.
//
// incoming.State must be StateActive or StateResolved; the stream worker
// filters everything else out before calling Ingest.
func Ingest(ctx context.Context, store *registry.Store, clk clock.Clock, expiry ExpiryTracker, incoming *entity.Alert) Decision {
	_, span := tracing.StartSpan(ctx, "merge.ingest")
	defer span.End()
	span.SetAttributes(
		attribute.String("rule", incoming.Rule),
		attribute.String("element", incoming.Element),
		attribute.String("state", string(incoming.State)),
	)

	id := incoming.Identity()
	now := clk.MonotonicSeconds()

	store.Lock()
	defer store.Unlock()

	stored, found := store.FindLocked(id)
	if !found {
		incoming.CTime = incoming.Time
		incoming.CopyActionsFrom(incoming.Actions)
		store.InsertEndLocked(incoming)
		store.SetLastSentLocked(id, 0)
		if incoming.State == entity.StateActive {
			expiry.Refresh(incoming.Rule, incoming.TTL, now)
		}
		return Decision{Identity: id, ToPublish: incoming.Clone()}
	}

	severityChanged := stored.Severity != incoming.Severity
	stored.Severity = incoming.Severity
	stored.CopyActionsFrom(incoming.Actions)

	publish := false
	suppressed := false

	switch {
	case stored.State != entity.StateResolved && incoming.State == entity.StateResolved:
		stored.State = entity.StateResolved
		stored.Time = incoming.Time
		stored.Metadata = incoming.Metadata
		stored.CTime = incoming.Time
		publish = true

	case stored.State == entity.StateResolved && incoming.State == entity.StateResolved:
		publish = false

	case stored.State == entity.StateResolved && incoming.State == entity.StateActive:
		stored.State = entity.StateActive
		stored.Time = incoming.Time
		stored.Metadata = incoming.Metadata
		stored.Description = incoming.Description
		stored.CTime = incoming.Time
		stored.TTL = incoming.TTL
		expiry.Refresh(stored.Rule, incoming.TTL, now)
		publish = true

	case entity.IsAcknowledgeState(stored.State) && incoming.State == entity.StateActive:
		stored.Description = incoming.Description
		stored.TTL = incoming.TTL
		expiry.Refresh(stored.Rule, incoming.TTL, now)
		if severityChanged {
			stored.CTime = incoming.Time
			publish = true
		}

	case stored.State == entity.StateActive && incoming.State == entity.StateActive:
		// The heartbeat half-TTL check below must use the TTL that was in
		// effect before this ingest, so it is read before stored.TTL is
		// updated to the incoming value.
		previousTTL := stored.TTL
		stored.Description = incoming.Description
		stored.Time = incoming.Time
		stored.TTL = incoming.TTL
		expiry.Refresh(stored.Rule, incoming.TTL, now)
		switch {
		case severityChanged:
			stored.CTime = incoming.Time
			publish = true
		case previousTTL <= 0:
			// No TTL means no downstream consumer is timing out a missing
			// heartbeat for this alert, so there is nothing to protect by
			// republishing an unchanged ACTIVE alert.
			publish = false
			suppressed = true
		default:
			publish = now >= stored.LastSent+previousTTL/2
			suppressed = !publish
		}
	}

	if !publish {
		return Decision{Identity: id, Suppressed: suppressed}
	}
	return Decision{Identity: id, ToPublish: stored.Clone()}
}
