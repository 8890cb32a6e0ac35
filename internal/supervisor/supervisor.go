// Package supervisor owns the stream and mailbox workers, wires the
// periodic TTL-sweep timer, and writes the final snapshot on shutdown.
// The startup reload of the state file happens in cmd/alertregistryd.
package supervisor

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/fty-ops/alert-registry/internal/bus"
	"github.com/fty-ops/alert-registry/internal/clock"
	"github.com/fty-ops/alert-registry/internal/domain/registry"
	"github.com/fty-ops/alert-registry/internal/infrastructure/config"
	"github.com/fty-ops/alert-registry/internal/persistence"
	"github.com/fty-ops/alert-registry/internal/ttl"
	"github.com/fty-ops/alert-registry/internal/worker"
)

// Supervisor wires and runs the two workers plus the TTL timer.
type Supervisor struct {
	cfg   *config.Config
	store *registry.Store

	stream  *worker.StreamWorker
	mailbox *worker.MailboxWorker
	cron    *cron.Cron
}

// New constructs a Supervisor. Both the stream and mailbox transports
// share one Redis connection, since the bus is a single external
// collaborator regardless of which protocol rides over it.
func New(cfg *config.Config, store *registry.Store, expiry *ttl.Map, clk clock.Clock, streamBus *bus.StreamBus, mailboxBus *bus.MailboxBus) *Supervisor {
	streamWorker := worker.NewStreamWorker(store, clk, expiry, streamBus,
		cfg.EventBus.IngressStream, cfg.EventBus.EgressStream, cfg.EventBus.ConsumerGroup)

	mailboxWorker := worker.NewMailboxWorker(store, clk, mailboxBus, streamBus,
		mailboxKey(cfg.EventBus.ListSubject), mailboxKey(cfg.EventBus.AcknowledgeSubj), cfg.EventBus.EgressStream)

	return &Supervisor{
		cfg:     cfg,
		store:   store,
		stream:  streamWorker,
		mailbox: mailboxWorker,
		cron:    cron.New(),
	}
}

func mailboxKey(subject string) string {
	return "mailbox:" + subject
}

// Start launches both workers and installs the periodic TTL-sweep tick.
// It does not block.
func (s *Supervisor) Start(ctx context.Context) error {
	if err := s.stream.Start(ctx); err != nil {
		return fmt.Errorf("supervisor: start stream worker: %w", err)
	}
	s.mailbox.Start(ctx)

	spec := fmt.Sprintf("@every %s", s.cfg.Registry.SweepInterval)
	if _, err := s.cron.AddFunc(spec, s.stream.Sweep); err != nil {
		return fmt.Errorf("supervisor: schedule ttl sweep: %w", err)
	}
	s.cron.Start()

	log.Info().Str("sweep_interval", s.cfg.Registry.SweepInterval.String()).Msg("supervisor started")
	return nil
}

// Shutdown stops the TTL timer and both workers in reverse order, then
// writes a final snapshot.
func (s *Supervisor) Shutdown() error {
	sweepCtx := s.cron.Stop()
	<-sweepCtx.Done()

	s.mailbox.Stop()
	s.stream.Stop()

	alerts := s.store.Snapshot()
	if err := persistence.Save(s.cfg.Persistence.StateFile, alerts); err != nil {
		return fmt.Errorf("supervisor: save final snapshot: %w", err)
	}
	log.Info().Int("count", len(alerts)).Str("path", s.cfg.Persistence.StateFile).Msg("saved final snapshot")
	return nil
}
