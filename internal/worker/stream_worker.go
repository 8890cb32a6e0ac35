// Package worker implements the two event-loop workers the supervisor
// runs: the stream worker (ingress merge + TTL sweeps) and the mailbox
// worker (list/acknowledge request service).
package worker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/fty-ops/alert-registry/internal/bus"
	"github.com/fty-ops/alert-registry/internal/clock"
	"github.com/fty-ops/alert-registry/internal/domain/entity"
	"github.com/fty-ops/alert-registry/internal/domain/registry"
	"github.com/fty-ops/alert-registry/internal/infrastructure/metrics"
	"github.com/fty-ops/alert-registry/internal/merge"
	"github.com/fty-ops/alert-registry/internal/ttl"
)

// StreamWorker consumes the ingress stream, runs the merge state
// machine, republishes on the egress stream, and answers the
// supervisor's periodic TTL-sweep tick.
type StreamWorker struct {
	store  *registry.Store
	clk    clock.Clock
	expiry *ttl.Map
	bus    *bus.StreamBus

	ingressStream string
	egressStream  string
	consumerGroup string
}

// NewStreamWorker constructs a StreamWorker. The caller retains
// ownership of store and expiry. store is shared with the mailbox
// worker and the supervisor's persistence routine; expiry is not handed
// to the mailbox worker.
func NewStreamWorker(store *registry.Store, clk clock.Clock, expiry *ttl.Map, b *bus.StreamBus, ingressStream, egressStream, consumerGroup string) *StreamWorker {
	return &StreamWorker{
		store:         store,
		clk:           clk,
		expiry:        expiry,
		bus:           b,
		ingressStream: ingressStream,
		egressStream:  egressStream,
		consumerGroup: consumerGroup,
	}
}

// Start begins consuming the ingress stream in the background.
func (w *StreamWorker) Start(ctx context.Context) error {
	if err := w.bus.Consume(ctx, w.ingressStream, w.consumerGroup, w.handle); err != nil {
		return fmt.Errorf("stream worker: %w", err)
	}
	return nil
}

// Stop ends the consume loop and waits for it to return.
func (w *StreamWorker) Stop() {
	w.bus.Stop()
}

// Sweep runs one TTL-cleanup pass. It is invoked by the supervisor's
// periodic timer, not by the stream worker's own loop — the timer is
// owned by the supervisor so its period is configurable independently
// of bus delivery. The timer carries no request-scoped context of its
// own, so Sweep opens a fresh background one for the pass's span.
func (w *StreamWorker) Sweep() {
	result := ttl.Sweep(context.Background(), w.store, w.expiry, w.clk.MonotonicSeconds())
	if len(result.Resolved) > 0 {
		metrics.TTLSweepResolvedTotal.Add(float64(len(result.Resolved)))
		log.Info().Int("count", len(result.Resolved)).Msg("ttl sweep resolved alerts")
	}

	total, active := w.store.Counts()
	metrics.RegistrySizeGauge.Set(float64(total))
	metrics.AlertsActiveGauge.Set(float64(active))
	metrics.AlertExpiryEntriesGauge.Set(float64(w.expiry.Len()))
}

func (w *StreamWorker) handle(ctx context.Context, a *entity.Alert) error {
	if a.State != entity.StateActive && a.State != entity.StateResolved {
		log.Warn().Str("rule", a.Rule).Str("element", a.Element).Str("state", string(a.State)).
			Msg("ignoring ingress event with non-stream state")
		metrics.StreamMessagesConsumedTotal.WithLabelValues("ignored").Inc()
		return nil
	}

	decision := merge.Ingest(ctx, w.store, w.clk, w.expiry, a)
	metrics.StreamMessagesConsumedTotal.WithLabelValues("merged").Inc()

	if decision.Suppressed {
		metrics.AlertsSuppressedTotal.Inc()
	}

	if decision.ToPublish == nil {
		return nil
	}

	if err := w.bus.Publish(ctx, w.egressStream, decision.ToPublish); err != nil {
		log.Error().Err(err).Str("rule", decision.Identity.Rule).Str("element", decision.Identity.Element).
			Msg("failed to publish merged alert, will retry on next ingest")
		return nil
	}

	w.store.Lock()
	w.store.SetLastSentLocked(decision.Identity, w.clk.MonotonicSeconds())
	w.store.Unlock()
	metrics.StreamMessagesPublishedTotal.Inc()
	return nil
}
