package nag

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-nagbot/conversations"
	"github.com/jrsteele09/go-nagbot/tasks"
	"github.com/jrsteele09/go-nagbot/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var errStopping = errors.New("scheduler stopping")

// UserDirectory lists every signed-in identity
type UserDirectory interface {
	List(ctx context.Context) ([]users.Profile, error)
}

// TokenProvider yields a usable access token for an identity, if one can be had
type TokenProvider interface {
	AccessTokenForIdentity(ctx context.Context, identity string) (string, bool)
}

// TaskSource reads tagged tasks and records reminders against them
type TaskSource interface {
	FetchTagged(ctx context.Context, token string) ([]tasks.Item, error)
	Patch(ctx context.Context, token, itemID string, fields tasks.Patch) error
}

// Conversations resolves the chat handles bound to an identity
type Conversations interface {
	FindAll(identity string) []conversations.Reference
}

// Dispatcher resumes a stored conversation and hands fn a way to post into it
type Dispatcher interface {
	Continue(ctx context.Context, ref conversations.Reference, fn func(ctx context.Context, send conversations.SendFunc) error) error
}

// Deps groups what a Scheduler reads from and writes to
type Deps struct {
	Users         UserDirectory
	Tokens        TokenProvider
	Tasks         TaskSource
	Conversations Conversations
	Dispatcher    Dispatcher
}

func (d Deps) validate() error {
	switch {
	case d.Users == nil:
		return errors.New("users directory is required")
	case d.Tokens == nil:
		return errors.New("token provider is required")
	case d.Tasks == nil:
		return errors.New("task source is required")
	case d.Conversations == nil:
		return errors.New("conversation directory is required")
	case d.Dispatcher == nil:
		return errors.New("dispatcher is required")
	}
	return nil
}

// Scheduler periodically walks every identity's tagged tasks and posts reminders
// into each bound conversation.
type Scheduler struct {
	deps     Deps
	policy   string
	evaluate Policy
	interval time.Duration
	nowFunc  func() time.Time
	logger   zerolog.Logger

	mu      sync.Mutex
	current chan struct{} // closed when the in-flight tick returns
	stopped bool
	stop    chan struct{}
	once    sync.Once
}

type SchedulerOption func(*Scheduler)

func WithNowFunc(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		s.nowFunc = now
	}
}

func WithLogger(logger zerolog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

func WithInterval(interval time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// NewScheduler fails when policy names no registered policy
func NewScheduler(deps Deps, policy string, options ...SchedulerOption) (*Scheduler, error) {
	if err := deps.validate(); err != nil {
		return nil, fmt.Errorf("[NewScheduler] %w", err)
	}
	evaluate, err := LookupPolicy(policy)
	if err != nil {
		return nil, fmt.Errorf("[NewScheduler] %w", err)
	}

	s := &Scheduler{
		deps:     deps,
		policy:   policy,
		evaluate: evaluate,
		interval: time.Hour,
		nowFunc:  time.Now,
		logger:   log.Logger,
		stop:     make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "nag").Str("policy", policy).Logger()
	return s, nil
}

// Run ticks immediately and then on every interval until ctx is done or Shutdown is called
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("Nag scheduler started")
	defer s.logger.Info().Msg("Nag scheduler stopped")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stop:
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick performs one pass over all identities. It returns false without doing
// anything when a previous pass is still running or the scheduler is stopped.
func (s *Scheduler) Tick(ctx context.Context) bool {
	s.mu.Lock()
	if s.stopped || s.current != nil {
		running := s.current != nil
		s.mu.Unlock()
		if running {
			s.logger.Warn().Msg("Previous nag pass still running, skipping tick")
		}
		return false
	}
	done := make(chan struct{})
	s.current = done
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.current = nil
		s.mu.Unlock()
		close(done)
	}()

	s.pass(ctx, s.nowFunc())
	return true
}

// Shutdown stops future ticks and waits for an in-flight pass to reach a safe boundary
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.once.Do(func() { close(s.stop) })

	s.mu.Lock()
	s.stopped = true
	done := s.current
	s.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("[Scheduler Shutdown] waiting for nag pass: %w", ctx.Err())
	}
}

type passStats struct {
	identities int
	sent       int
	failures   int
}

func (s *Scheduler) pass(ctx context.Context, now time.Time) {
	start := time.Now()
	profiles, err := s.deps.Users.List(ctx)
	if err != nil {
		s.logger.Err(err).Msg("Failed to list users")
		return
	}

	var stats passStats
	for _, profile := range profiles {
		if err := s.interrupted(ctx); err != nil {
			s.logger.Info().Err(err).Msg("Nag pass interrupted")
			break
		}
		stats.identities++
		logger := s.logger.With().Str("identity", profile.Identity).Logger()
		if err := isolate(func() error { return s.processIdentity(ctx, logger, profile.Identity, now, &stats) }); err != nil && !errors.Is(err, errStopping) {
			stats.failures++
			logger.Err(err).Msg("Failed to process identity")
		}
	}

	s.logger.Info().
		Int("identities", stats.identities).
		Int("sent", stats.sent).
		Int("failures", stats.failures).
		Dur("took", time.Since(start)).
		Msg("Nag pass complete")
}

func (s *Scheduler) processIdentity(ctx context.Context, logger zerolog.Logger, identity string, now time.Time, stats *passStats) error {
	token, ok := s.deps.Tokens.AccessTokenForIdentity(ctx, identity)
	if !ok {
		logger.Debug().Msg("No usable session, skipping identity")
		return nil
	}

	items, err := s.deps.Tasks.FetchTagged(ctx, token)
	if err != nil {
		return fmt.Errorf("fetch tagged tasks: %w", err)
	}

	for i := range items {
		if err := s.interrupted(ctx); err != nil {
			return err
		}
		item := items[i]
		itemLogger := logger.With().Str("task", item.ID).Logger()
		if err := isolate(func() error { return s.processItem(ctx, itemLogger, identity, token, item, now, stats) }); err != nil {
			stats.failures++
			itemLogger.Err(err).Msg("Failed to process task")
		}
	}
	return nil
}

func (s *Scheduler) processItem(ctx context.Context, logger zerolog.Logger, identity, token string, item tasks.Item, now time.Time, stats *passStats) error {
	decision := s.evaluate(item, now)
	if !decision.Notify {
		return nil
	}

	message := ComposeMessage(item, decision)
	for _, ref := range s.deps.Conversations.FindAll(identity) {
		refLogger := logger.With().Str("conversation", ref.ConversationID).Logger()
		if err := isolate(func() error { return s.notify(ctx, token, ref, item, message, now) }); err != nil {
			stats.failures++
			refLogger.Err(err).Msg("Failed to deliver reminder")
			continue
		}
		stats.sent++
		refLogger.Debug().Int("daysUntilDue", decision.DaysUntilDue).Msg("Reminder delivered")
	}
	return nil
}

func (s *Scheduler) notify(ctx context.Context, token string, ref conversations.Reference, item tasks.Item, message string, now time.Time) error {
	err := s.deps.Dispatcher.Continue(ctx, ref, func(ctx context.Context, send conversations.SendFunc) error {
		return send(ctx, message)
	})
	if err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}

	patch := tasks.Patch{LastNaggedAt: now, Tags: item.Tags}
	if err := s.deps.Tasks.Patch(ctx, token, item.ID, patch); err != nil {
		return fmt.Errorf("record reminder: %w", err)
	}
	return nil
}

func (s *Scheduler) interrupted(ctx context.Context) error {
	select {
	case <-s.stop:
		return errStopping
	default:
	}
	return ctx.Err()
}

// isolate runs fn, reporting a panic as an error
func isolate(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
