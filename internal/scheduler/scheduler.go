// Package scheduler runs the periodic dispatch loop: scan for due,
// unsent records, resolve channels and strategy, deliver, persist the
// outcome.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"notification-service/internal/dispatch"
	"notification-service/internal/domain"
	"notification-service/internal/events"
	"notification-service/internal/repository"
	"notification-service/internal/strategy"
)

type Config struct {
	Interval   time.Duration
	ClaimLease time.Duration
	Workers    int
	Batch      int
}

func (c *Config) fill() {
	if c.Interval <= 0 {
		c.Interval = 15 * time.Second
	}
	if c.ClaimLease <= 0 {
		c.ClaimLease = 2 * time.Minute
	}
	if c.Workers <= 0 {
		c.Workers = 8
	}
	if c.Batch <= 0 {
		c.Batch = 100
	}
}

// Scheduler is the dispatch loop. One scan completes before the next
// begins; within a scan, claimed records are dispatched concurrently
// by a bounded worker pool.
type Scheduler struct {
	store    repository.NotificationStore
	resolver *dispatch.PreferenceResolver
	registry *strategy.Registry
	events   *events.Publisher
	lease    Lease
	cfg      Config
	now      func() time.Time
}

// New builds a scheduler. events and lease may be nil.
func New(store repository.NotificationStore, resolver *dispatch.PreferenceResolver, registry *strategy.Registry, publisher *events.Publisher, lease Lease, cfg Config) *Scheduler {
	cfg.fill()
	return &Scheduler{
		store:    store,
		resolver: resolver,
		registry: registry,
		events:   publisher,
		lease:    lease,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Run blocks until ctx is cancelled, scanning at the configured
// interval.
func (s *Scheduler) Run(ctx context.Context) {
	log.Printf("[Scheduler] dispatch loop started (interval=%s workers=%d batch=%d)",
		s.cfg.Interval, s.cfg.Workers, s.cfg.Batch)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[Scheduler] dispatch loop stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single scan cycle: claim due records, dispatch
// them through the worker pool, and wait for completion.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if s.lease != nil {
		ok, err := s.lease.TryAcquire(ctx)
		if err != nil {
			log.Printf("[Scheduler] leader lease check failed, scanning anyway: %v", err)
		} else if !ok {
			return
		} else {
			defer func() {
				if err := s.lease.Release(ctx); err != nil {
					log.Printf("[Scheduler] leader lease release failed: %v", err)
				}
			}()
		}
	}

	now := s.now()
	due, err := s.store.ClaimDue(ctx, now, s.cfg.ClaimLease, s.cfg.Batch)
	if err != nil {
		// Claims carry a lease, so anything half-claimed here frees
		// itself; the whole cycle retries at the next tick.
		log.Printf("[Scheduler] scan aborted, store unavailable: %v", err)
		return
	}
	if len(due) == 0 {
		return
	}
	log.Printf("[Scheduler] claimed %d due record(s)", len(due))

	jobs := make(chan *domain.Notification)
	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range jobs {
				s.dispatchOne(ctx, n)
			}
		}()
	}
	for _, n := range due {
		jobs <- n
	}
	close(jobs)
	wg.Wait()
}

// dispatchOne delivers a single claimed record. A failure here never
// affects the other records in the scan.
func (s *Scheduler) dispatchOne(ctx context.Context, n *domain.Notification) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Scheduler] panic dispatching record %s: %v", n.ID, r)
			if err := s.store.ReleaseClaim(ctx, n.ID); err != nil {
				log.Printf("[Scheduler] release claim for %s failed: %v", n.ID, err)
			}
		}
	}()

	channels := s.resolver.ResolveChannels(ctx, n.UserID, n.Type)

	state := domain.ChannelState{}
	for ch, o := range n.ChannelState {
		state[ch] = o
	}

	// Channels already delivered on an earlier pass are not retried.
	pending := state.Pending(channels)
	if len(pending) > 0 {
		strat := s.registry.Resolve(n.Type)
		for ch, outcome := range strat.Deliver(ctx, n, pending) {
			state[ch] = outcome
		}
	}

	// Terminal when every enabled channel reached a terminal outcome.
	// An all-channels-disabled recipient is terminal with nothing
	// delivered.
	sent := true
	for _, ch := range channels {
		if o, ok := state[ch]; !ok || !o.Terminal() {
			sent = false
			break
		}
	}
	delivered := state.AnyDelivered()

	var sentAt *time.Time
	if sent {
		t := s.now()
		sentAt = &t
	}

	if err := s.store.CompleteDispatch(ctx, n.ID, state, sent, delivered, sentAt); err != nil {
		log.Printf("[Scheduler] persist outcome for %s failed: %v", n.ID, err)
		if rerr := s.store.ReleaseClaim(ctx, n.ID); rerr != nil {
			log.Printf("[Scheduler] release claim for %s failed: %v", n.ID, rerr)
		}
		return
	}

	if err := s.events.PublishDispatched(ctx, n, state, sent, delivered); err != nil {
		log.Printf("[Scheduler] publish dispatch event for %s failed: %v", n.ID, err)
	}
}
