package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/gatherly/gatherly/internal/cache"
	"github.com/gatherly/gatherly/internal/services"
	"github.com/gatherly/gatherly/pkg/logger"
)

const (
	defaultAuditRetentionDays = 90
	defaultInviteTTL          = 7 * 24 * time.Hour
	defaultSchedule           = "@hourly"
)

// Sweeper coordinates background maintenance: expiring stale invitations,
// pruning expired cache entries, and enforcing audit log retention.
type Sweeper struct {
	memberships *services.MembershipService
	audit       *services.AuditService
	store       *cache.DatabaseStore

	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
	schedule  string
	inviteTTL time.Duration
	retention int
}

// Option customises the Sweeper.
type Option func(*Sweeper)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Sweeper) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithNow overrides the clock used for cutoff comparisons.
func WithNow(now func() time.Time) Option {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSchedule overrides the cron specification shared by all sweep jobs.
func WithSchedule(spec string) Option {
	return func(s *Sweeper) {
		if spec != "" {
			s.schedule = spec
		}
	}
}

// WithInviteTTL adjusts how long a pending invitation stays answerable.
func WithInviteTTL(ttl time.Duration) Option {
	return func(s *Sweeper) {
		if ttl > 0 {
			s.inviteTTL = ttl
		}
	}
}

// WithAuditRetentionDays adjusts how long audit logs are retained.
func WithAuditRetentionDays(days int) Option {
	return func(s *Sweeper) {
		if days > 0 {
			s.retention = days
		}
	}
}

// NewSweeper constructs a Sweeper with sensible defaults. Any nil dependency
// results in the corresponding job being skipped.
func NewSweeper(memberships *services.MembershipService, audit *services.AuditService, store *cache.DatabaseStore, opts ...Option) *Sweeper {
	sweeper := &Sweeper{
		memberships: memberships,
		audit:       audit,
		store:       store,
		now:         time.Now,
		schedule:    defaultSchedule,
		inviteTTL:   defaultInviteTTL,
		retention:   defaultAuditRetentionDays,
		log:         logger.WithComponent("maintenance"),
	}

	for _, opt := range opts {
		opt(sweeper)
	}

	if sweeper.cron == nil {
		sweeper.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return sweeper
}

// Start registers the sweep with the cron scheduler and launches it when at
// least one dependency is configured.
func (s *Sweeper) Start() error {
	if s.memberships == nil && s.audit == nil && s.store == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunOnce(context.Background()); err != nil {
			s.log.Warn("maintenance sweep failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (s *Sweeper) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// RunOnce executes all configured sweep routines sequentially. Also used during
// graceful shutdown.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	now := s.now()
	var errs error

	if s.memberships != nil {
		expired, err := s.memberships.ExpireInvites(ctx, now.Add(-s.inviteTTL))
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if expired > 0 {
			s.log.Info("expired stale invitations", zap.Int64("count", expired))
		}
	}

	if s.store != nil {
		pruned, err := s.store.PruneExpired(ctx, now)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if pruned > 0 {
			s.log.Debug("pruned expired cache entries", zap.Int64("count", pruned))
		}
	}

	if s.audit != nil && s.retention > 0 {
		if _, err := s.audit.CleanupOlderThan(ctx, s.retention); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}
