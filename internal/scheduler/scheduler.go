package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/aleister1102/releasewatch/internal/monitor"
	"github.com/rs/zerolog"
)

// GroupRunner runs one cycle over all entities of a monitor group
type GroupRunner interface {
	Kind() models.EntityKind
	RunCycle(ctx context.Context, snap *config.Snapshot, trigger models.Trigger, observe monitor.ResultObserver) ([]models.EntityResult, error)
}

// SnapshotSource supplies the configuration snapshot each cycle reads
type SnapshotSource interface {
	Current() *config.Snapshot
}

// EventPublisher receives live cycle events
type EventPublisher interface {
	Publish(event models.Event)
}

// Scheduler drives every monitor group on its own loop. Cycles of one group
// never overlap; a manual trigger arriving during a cycle is queued, and at
// most one trigger per group is kept pending.
type Scheduler struct {
	source    SnapshotSource
	groups    map[models.EntityKind]*group
	order     []models.EntityKind
	history   *HistoryDB
	publisher EventPublisher
	clock     Clock
	logger    zerolog.Logger

	stopChan  chan struct{}
	wg        sync.WaitGroup
	isRunning bool
	mu        sync.Mutex
}

type group struct {
	runner  GroupRunner
	pending chan models.Trigger
	running sync.Mutex
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithHistory records every cycle in db
func WithHistory(db *HistoryDB) Option {
	return func(s *Scheduler) { s.history = db }
}

// WithPublisher forwards cycle events to p
func WithPublisher(p EventPublisher) Option {
	return func(s *Scheduler) { s.publisher = p }
}

// WithClock replaces the wall clock
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// NewScheduler creates a Scheduler for runners
func NewScheduler(source SnapshotSource, runners []GroupRunner, logger zerolog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		source:   source,
		groups:   make(map[models.EntityKind]*group, len(runners)),
		clock:    RealClock(),
		logger:   logger.With().Str("component", "Scheduler").Logger(),
		stopChan: make(chan struct{}),
	}
	for _, r := range runners {
		s.groups[r.Kind()] = &group{runner: r, pending: make(chan models.Trigger, 1)}
		s.order = append(s.order, r.Kind())
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Groups lists the monitor groups in registration order
func (s *Scheduler) Groups() []models.EntityKind {
	return append([]models.EntityKind(nil), s.order...)
}

// Start runs every group loop until ctx is cancelled or Stop is called.
// Each group runs one cycle immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	stop := s.stopChan
	s.mu.Unlock()

	s.logger.Info().Int("groups", len(s.groups)).Msg("Starting scheduler")

	for _, kind := range s.order {
		s.wg.Add(1)
		go func(g *group) {
			defer s.wg.Done()
			s.loop(ctx, g, stop)
		}(s.groups[kind])
	}

	select {
	case <-stop:
		s.logger.Info().Msg("Internal stop acknowledged")
	case <-ctx.Done():
		s.logger.Info().Msg("Context cancelled, stopping scheduler")
		s.Stop()
	}

	s.wg.Wait()
	s.logger.Info().Msg("Scheduler fully stopped")
	return nil
}

// Stop signals every group loop to exit
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	close(s.stopChan)
	s.isRunning = false
}

// IsRunning reports whether Start is active
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Trigger asks the loop of kind for a manual cycle. It returns false when a
// manual cycle for that group is already pending.
func (s *Scheduler) Trigger(kind models.EntityKind) (bool, error) {
	g, ok := s.groups[kind]
	if !ok {
		return false, WrapError(ErrUnknownGroup, string(kind))
	}
	select {
	case g.pending <- models.TriggerManual:
		s.logger.Info().Str("group", string(kind)).Msg("Manual cycle queued")
		return true, nil
	default:
		s.logger.Info().Str("group", string(kind)).Msg("Manual cycle already pending")
		return false, nil
	}
}

// RunOnce runs one cycle of kind synchronously, waiting for any cycle of the
// same group that is in flight.
func (s *Scheduler) RunOnce(ctx context.Context, kind models.EntityKind, trigger models.Trigger) (models.CycleSummary, error) {
	g, ok := s.groups[kind]
	if !ok {
		return models.CycleSummary{}, WrapError(ErrUnknownGroup, string(kind))
	}
	summary := s.runCycle(ctx, g, trigger)
	if summary.Status == models.CycleStatusFailed {
		return summary, NewError(summary.Error)
	}
	return summary, nil
}

func (s *Scheduler) loop(ctx context.Context, g *group, stop <-chan struct{}) {
	kind := string(g.runner.Kind())
	log := s.logger.With().Str("group", kind).Logger()

	summary := s.runCycle(ctx, g, models.TriggerTimer)
	for {
		delay := s.source.Current().Interval()
		if summary.Status == models.CycleStatusFailed {
			delay = s.source.Current().ErrorCooldown()
			log.Warn().Str("error", summary.Error).Dur("cooldown", delay).Msg("Cycle failed, cooling down")
		} else {
			log.Info().Time("next_cycle", s.clock.Now().Add(delay)).Msg("Next cycle scheduled")
		}

		timer := s.clock.NewTimer(delay)
		select {
		case <-timer.C():
			summary = s.runCycle(ctx, g, models.TriggerTimer)
		case trigger := <-g.pending:
			timer.Stop()
			summary = s.runCycle(ctx, g, trigger)
		case <-stop:
			timer.Stop()
			log.Info().Msg("Stop signal received, exiting group loop")
			return
		case <-ctx.Done():
			timer.Stop()
			log.Info().Msg("Context cancelled, exiting group loop")
			return
		}
	}
}

// runCycle holds the group lock for one full cycle. It never panics and never
// returns an error; failures are reported in the summary.
func (s *Scheduler) runCycle(ctx context.Context, g *group, trigger models.Trigger) (summary models.CycleSummary) {
	g.running.Lock()
	defer g.running.Unlock()

	kind := g.runner.Kind()
	start := s.clock.Now()
	summary = models.CycleSummary{
		ID:        newCycleID(string(kind), start),
		Group:     kind,
		Trigger:   trigger,
		StartedAt: start,
		Status:    models.CycleStatusStarted,
	}
	log := s.logger.With().Str("group", string(kind)).Str("cycle_id", summary.ID).Str("trigger", string(trigger)).Logger()
	log.Info().Msg("Cycle started")
	started := summary
	s.publish(models.Event{Type: models.EventCycleStarted, Time: start, Cycle: &started})

	var historyID int64
	if s.history != nil {
		id, err := s.history.RecordCycleStart(ctx, summary)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to record cycle start")
		}
		historyID = id
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("stack", string(debug.Stack())).Msg("Cycle panicked")
			summary.Status = models.CycleStatusFailed
			summary.Error = fmt.Sprintf("panic: %v", r)
		}
		summary.FinishedAt = s.clock.Now()
		s.finishCycle(ctx, log, historyID, summary)
	}()

	snap := s.source.Current()
	results, err := g.runner.RunCycle(ctx, snap, trigger, func(r models.EntityResult) {
		result := r
		s.publish(models.Event{Type: models.EventEntityResult, Time: s.clock.Now(), Result: &result})
	})
	summary.Results = results
	if err != nil {
		summary.Status = models.CycleStatusFailed
		summary.Error = err.Error()
		log.Error().Err(err).Msg("Cycle aborted")
		return summary
	}
	summary.Status = models.CycleStatusCompleted
	return summary
}

func (s *Scheduler) finishCycle(ctx context.Context, log zerolog.Logger, historyID int64, summary models.CycleSummary) {
	if s.history != nil && historyID != 0 {
		if err := s.history.UpdateCycleCompletion(ctx, historyID, summary); err != nil {
			log.Warn().Err(err).Msg("Failed to record cycle completion")
		}
	}
	log.Info().
		Str("status", summary.Status).
		Int("notified", summary.Count(models.OutcomeNotified)).
		Int("unchanged", summary.Count(models.OutcomeUnchanged)).
		Int("failed", summary.Count(models.OutcomeFetchFailed)).
		Dur("duration", summary.FinishedAt.Sub(summary.StartedAt)).
		Msg("Cycle finished")
	final := summary
	s.publish(models.Event{Type: models.EventCycleFinished, Time: summary.FinishedAt, Cycle: &final})
}

func (s *Scheduler) publish(event models.Event) {
	if s.publisher != nil {
		s.publisher.Publish(event)
	}
}

// History returns the history database, nil when cycles are not recorded
func (s *Scheduler) History() *HistoryDB {
	return s.history
}
