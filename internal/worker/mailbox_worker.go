package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fty-ops/alert-registry/internal/bus"
	"github.com/fty-ops/alert-registry/internal/clock"
	"github.com/fty-ops/alert-registry/internal/domain/registry"
	"github.com/fty-ops/alert-registry/internal/infrastructure/logger"
	"github.com/fty-ops/alert-registry/internal/infrastructure/metrics"
	"github.com/fty-ops/alert-registry/internal/infrastructure/tracing"
	"github.com/fty-ops/alert-registry/internal/mailbox"
)

// replyTimeout bounds how long a pending reply mailbox key survives
// before expiring, matching the 5000ms mailbox send timeout clients are
// expected to honor.
const replyTimeout = 5 * time.Second

// pollTimeout is how long each BLPOP waits before looping back to check
// ctx; it bounds shutdown latency, not protocol behavior.
const pollTimeout = time.Second

// MailboxWorker services rfc-alerts-list and rfc-alerts-acknowledge
// requests arriving over the mailbox transport.
type MailboxWorker struct {
	store *registry.Store
	clk   clock.Clock
	inbox *bus.MailboxBus
	relay *bus.StreamBus

	listKey        string
	acknowledgeKey string
	egressStream   string

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewMailboxWorker constructs a MailboxWorker. listKey and
// acknowledgeKey are the Redis list keys clients LPUSH requests onto
// for rfc-alerts-list and rfc-alerts-acknowledge respectively.
func NewMailboxWorker(store *registry.Store, clk clock.Clock, inbox *bus.MailboxBus, relay *bus.StreamBus, listKey, acknowledgeKey, egressStream string) *MailboxWorker {
	return &MailboxWorker{
		store:          store,
		clk:            clk,
		inbox:          inbox,
		relay:          relay,
		listKey:        listKey,
		acknowledgeKey: acknowledgeKey,
		egressStream:   egressStream,
		stopCh:         make(chan struct{}),
	}
}

// Start begins servicing both request queues in the background.
func (w *MailboxWorker) Start(ctx context.Context) {
	w.wg.Add(2)
	go w.serve(ctx, w.listKey, "rfc-alerts-list", w.handleList)
	go w.serve(ctx, w.acknowledgeKey, "rfc-alerts-acknowledge", w.handleAcknowledge)
}

// Stop ends both loops and waits for them to return.
func (w *MailboxWorker) Stop() {
	close(w.stopCh)
	w.wg.Wait()
}

func (w *MailboxWorker) serve(ctx context.Context, key, subject string, handle func(context.Context, [][]byte) [][]byte) {
	defer w.wg.Done()
	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		raw, err := w.inbox.BlockingPop(ctx, key, pollTimeout)
		if err != nil {
			continue // timeout or transient error; loop and re-check stop conditions
		}

		frames, err := bus.DecodeFrames(raw)
		if err != nil || len(frames) < 1 {
			log.Error().Err(err).Str("subject", subject).Msg("malformed mailbox envelope, dropping")
			continue
		}
		replyKey := string(frames[0])
		request := frames[1:]

		reply := handle(ctx, request)

		if err := w.inbox.Push(ctx, replyKey, bus.EncodeFrames(reply), replyTimeout); err != nil {
			log.Error().Err(err).Str("subject", subject).Str("reply_key", replyKey).Msg("failed to deliver mailbox reply")
		}
	}
}

func (w *MailboxWorker) handleList(ctx context.Context, request [][]byte) [][]byte {
	var state string
	if len(request) >= 2 {
		state = string(request[len(request)-1])
	}

	// A LIST_EX request carries a caller-chosen correlation id as its
	// second frame; attach it to the logging context so every line this
	// request produces can be matched back to the client's own id.
	if len(request) >= 3 && string(request[0]) == "LIST_EX" {
		ctx = logger.WithCorrelationID(ctx, string(request[1]))
	}

	ctx, span := tracing.StartSpan(ctx, "mailbox.list")
	defer span.End()
	span.SetAttributes(attribute.String("state", state))
	ctx = stampSpanContext(ctx, span)

	reply := mailbox.HandleList(w.store, request)
	outcome := outcomeOf(reply)
	metrics.MailboxRequestsTotal.WithLabelValues("rfc-alerts-list", outcome).Inc()
	if outcome == "error" {
		logger.WithContext(ctx).Warn().Str("state", state).Msg("rejected mailbox list request")
	}
	return reply
}

func (w *MailboxWorker) handleAcknowledge(ctx context.Context, request [][]byte) [][]byte {
	var rule, element, newState string
	if len(request) >= 3 {
		rule, element, newState = string(request[0]), string(request[1]), string(request[2])
	}

	ctx, span := tracing.StartSpan(ctx, "mailbox.acknowledge")
	defer span.End()
	span.SetAttributes(
		attribute.String("rule", rule),
		attribute.String("element", element),
		attribute.String("state", newState),
	)
	ctx = stampSpanContext(ctx, span)

	result := mailbox.HandleAcknowledge(w.store, w.clk, request)
	outcome := outcomeOf(result.Reply)
	metrics.MailboxRequestsTotal.WithLabelValues("rfc-alerts-acknowledge", outcome).Inc()

	if outcome == "ok" {
		metrics.AcknowledgementsTotal.WithLabelValues(newState).Inc()
	}

	if result.Publish != nil {
		if err := w.relay.PublishWithSubject(ctx, w.egressStream, result.Subject, result.Publish); err != nil {
			logger.WithContext(ctx).Error().Err(err).Str("subject", result.Subject).Msg("failed to publish acknowledge-driven republication")
		}
	}
	return result.Reply
}

// stampSpanContext attaches span's trace and span IDs to ctx so any log
// line emitted through logger.WithContext while this span is active can
// be correlated with the trace backend, even though the span itself
// carries no zerolog sink of its own.
func stampSpanContext(ctx context.Context, span trace.Span) context.Context {
	sc := span.SpanContext()
	if !sc.IsValid() {
		return ctx
	}
	ctx = logger.WithTraceID(ctx, sc.TraceID().String())
	ctx = logger.WithSpanID(ctx, sc.SpanID().String())
	return ctx
}

func outcomeOf(reply [][]byte) string {
	if len(reply) > 0 && string(reply[0]) == "ERROR" {
		return "error"
	}
	return "ok"
}
