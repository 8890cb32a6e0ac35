// Package ttl implements the per-rule expiry map and the periodic sweep
// that resolves ACTIVE alerts whose deadline has elapsed.
//
// The expiry map is owned exclusively by the stream worker and is never
// touched by the mailbox worker — it therefore needs no lock of its own;
// the only concurrency discipline required is that all calls come from
// the stream worker's single goroutine.
package ttl

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fty-ops/alert-registry/internal/domain/entity"
	"github.com/fty-ops/alert-registry/internal/infrastructure/tracing"
)

func traceAttrs(rule, element, state string) trace.EventOption {
	return trace.WithAttributes(
		attribute.String("rule", rule),
		attribute.String("element", element),
		attribute.String("state", state),
	)
}

// Map tracks, per rule, the absolute monotonic-seconds deadline at which
// ACTIVE alerts for that rule should be considered expired.
type Map struct {
	deadlines         map[string]int64
	staleAfterSeconds int64
}

// NewMap returns an empty expiry map. staleAfterSeconds is how long past
// its deadline an entry is kept around before GC drops it.
func NewMap(staleAfterSeconds int64) *Map {
	return &Map{
		deadlines:         make(map[string]int64),
		staleAfterSeconds: staleAfterSeconds,
	}
}

// Len returns the number of rules currently tracked.
func (m *Map) Len() int {
	return len(m.deadlines)
}

// Refresh sets (overwrites) the deadline for rule to now+ttl, if ttl > 0.
// A zero or negative ttl leaves the map untouched: the deadline only
// advances on an ACTIVE ingest that carries a positive ttl.
func (m *Map) Refresh(rule string, ttl int64, nowMonoSeconds int64) {
	if ttl <= 0 {
		return
	}
	m.deadlines[strings.ToLower(rule)] = nowMonoSeconds + ttl
}

// Deadline returns the current deadline for rule and whether one exists.
func (m *Map) Deadline(rule string) (int64, bool) {
	d, ok := m.deadlines[strings.ToLower(rule)]
	return d, ok
}

// GC drops deadline entries more than m.staleAfterSeconds in the past,
// relative to nowMonoSeconds.
func (m *Map) GC(nowMonoSeconds int64) {
	for rule, deadline := range m.deadlines {
		if nowMonoSeconds-deadline > m.staleAfterSeconds {
			delete(m.deadlines, rule)
		}
	}
}

// SweepResult reports what a single Sweep call changed, for metrics and
// logging.
type SweepResult struct {
	Resolved []entity.Identity
}

// Sweep walks every stored alert under the registry lock and resolves any
// ACTIVE alert whose rule's deadline has passed. store is any type
// exposing the locked iteration primitive the sweep needs; callers pass
// *registry.Store.
//
// A span covers the whole pass; each resolved alert is recorded as a span
// event tagged with its rule, element and new state.
func Sweep(ctx context.Context, store interface {
	Lock()
	Unlock()
	ForEachMutLocked(func(*entity.Alert))
}, m *Map, nowMonoSeconds int64) SweepResult {
	ctx, span := tracing.StartSpan(ctx, "ttl.sweep")
	defer span.End()

	var result SweepResult

	store.Lock()
	store.ForEachMutLocked(func(a *entity.Alert) {
		if a.State != entity.StateActive {
			return
		}
		deadline, ok := m.Deadline(a.Rule)
		if !ok || deadline > nowMonoSeconds {
			return
		}
		a.State = entity.StateResolved
		a.Description = appendCleanupSuffix(a.Description)
		result.Resolved = append(result.Resolved, a.Identity())
		span.AddEvent("resolved", traceAttrs(a.Rule, a.Element, string(a.State)))
	})
	store.Unlock()

	m.GC(nowMonoSeconds)

	span.SetAttributes(attribute.Int("resolved_count", len(result.Resolved)))

	return result
}

// cleanupSuffix is appended to the description of any alert resolved by a
// TTL sweep. It contains no unescaped quotes or control bytes, so it
// stays safe to embed in a JSON string value.
const cleanupSuffix = " - TTLCLEANUP"

func appendCleanupSuffix(description string) string {
	return description + cleanupSuffix
}
