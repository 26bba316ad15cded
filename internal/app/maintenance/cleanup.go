package maintenance

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sessiondeck/folderdeck/internal/folders"
	"github.com/sessiondeck/folderdeck/pkg/logger"
)

const defaultPruneSpec = "@hourly"

// Pruner periodically drops expansion-state entries that refer to folders
// which no longer exist. Deletes leave those entries behind on purpose, so
// the document would otherwise grow without bound.
type Pruner struct {
	store    *folders.Store
	cron     *cron.Cron
	log      *zap.Logger
	schedule string
}

// Option customises the Pruner.
type Option func(*Pruner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(pruner *Pruner) {
		if c != nil {
			pruner.cron = c
		}
	}
}

// WithSchedule overrides the cron specification for expansion pruning.
func WithSchedule(spec string) Option {
	return func(pruner *Pruner) {
		if spec != "" {
			pruner.schedule = spec
		}
	}
}

// NewPruner constructs a Pruner with sensible defaults. A nil store results
// in a no-op scheduler.
func NewPruner(store *folders.Store, opts ...Option) *Pruner {
	pruner := &Pruner{
		store:    store,
		schedule: defaultPruneSpec,
		log:      logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(pruner)
	}

	if pruner.cron == nil {
		pruner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return pruner
}

// Start registers the prune job with the cron scheduler and launches it.
func (p *Pruner) Start() error {
	if p.store == nil {
		return nil
	}

	if _, err := p.cron.AddFunc(p.schedule, func() {
		p.RunOnce(context.Background())
	}); err != nil {
		return err
	}

	p.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (p *Pruner) Stop() context.Context {
	if p.cron == nil {
		return context.Background()
	}
	return p.cron.Stop()
}

// RunOnce executes a single prune pass. Primarily used in tests and during
// graceful shutdown.
func (p *Pruner) RunOnce(ctx context.Context) int {
	if p.store == nil {
		return 0
	}
	if ctx == nil {
		ctx = context.Background()
	}

	pruned := p.store.PruneExpansion(ctx)
	if pruned > 0 {
		p.log.Info("pruned stale expansion entries", zap.Int("count", pruned))
	}
	return pruned
}
