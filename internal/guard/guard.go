package guard

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Wikid82/nginxguard/internal/config"
	"github.com/Wikid82/nginxguard/internal/logger"
	"github.com/Wikid82/nginxguard/internal/metrics"
	"github.com/Wikid82/nginxguard/internal/models"
	"github.com/Wikid82/nginxguard/internal/nginx"
	"github.com/Wikid82/nginxguard/internal/services"
	"github.com/Wikid82/nginxguard/internal/sources"
	"github.com/Wikid82/nginxguard/internal/state"
	"github.com/Wikid82/nginxguard/internal/whitelist"
)

var (
	ErrLocked          = errors.New("another run holds the lock")
	ErrLockUnavailable = errors.New("cannot open lock file")
	ErrUnsupportedMode = errors.New("unsupported mode")
)

// Result describes what one run did.
type Result struct {
	RunID         string
	Sources       []string
	Changed       bool
	Written       bool
	SnapshotSaved bool
	Reloaded      bool
	ReloadErr     error
}

// Guard runs the fetch, compare, write, reload cycle.
type Guard struct {
	cfg      config.Config
	log      *logrus.Logger
	provider sources.Provider
	reloader nginx.Reloader
	history  *services.HistoryService
	notifier *services.NotificationService
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option customizes a Guard.
type Option func(*Guard)

// WithProvider replaces the GitHub meta provider.
func WithProvider(p sources.Provider) Option { return func(g *Guard) { g.provider = p } }

// WithReloader replaces the nginx binary reloader.
func WithReloader(r nginx.Reloader) Option { return func(g *Guard) { g.reloader = r } }

// WithHistory records every rewrite.
func WithHistory(h *services.HistoryService) Option { return func(g *Guard) { g.history = h } }

// WithNotifier announces rewrites and reload failures.
func WithNotifier(n *services.NotificationService) Option { return func(g *Guard) { g.notifier = n } }

// WithMetrics exports run gauges to cfg.MetricsFile.
func WithMetrics(m *metrics.Metrics) Option { return func(g *Guard) { g.metrics = m } }

func New(cfg config.Config, log *logrus.Logger, opts ...Option) *Guard {
	g := &Guard{cfg: cfg, log: log, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Start runs the guard in its configured mode.
func (g *Guard) Start(ctx context.Context) error {
	switch g.cfg.Mode {
	case config.ModeOneShot:
		_, err := g.RunOnce(ctx)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedMode, g.cfg.Mode)
	}
}

// RunOnce performs a single update. Only fatal failures are returned; a failed
// reload is reported through Result.ReloadErr.
func (g *Guard) RunOnce(ctx context.Context) (res Result, err error) {
	res.RunID = uuid.NewString()
	log := g.log.WithField("run_id", res.RunID)
	log.WithField("mode", g.cfg.Mode).Debug("Starting NginxGuard")

	lock, err := acquireLock(g.cfg.LockFile)
	switch {
	case errors.Is(err, ErrLockUnavailable):
		log.WithError(err).WithField("lock_file", g.cfg.LockFile).Warn("running without the lock")
		err = nil
	case err != nil:
		// the holder owns the metrics textfile for this round
		return res, err
	}
	defer func() {
		if rerr := lock.release(); rerr != nil {
			log.WithError(rerr).Warn("release lock")
		}
	}()
	defer func() { g.exportMetrics(log, res, err) }()

	store := state.NewStore(g.cfg.StateFile)
	agg := sources.NewAggregator(g.cfg.AllowStatic, g.providerFor(log), component(log, "sources"))
	detector := state.NewDetector(store, g.cfg.Compare, component(log, "state"))
	writer := whitelist.NewWriter(g.cfg.WhitelistFile, store, component(log, "whitelist"))

	res.Sources, err = agg.Collect(ctx)
	if err != nil {
		return res, err
	}

	if !detector.Changed(res.Sources) {
		log.Info("No changes detected.")
		return res, nil
	}
	res.Changed = true
	log.Info("Changes detected, updating whitelist.")

	res.SnapshotSaved, err = writer.Write(res.Sources)
	if err != nil {
		return res, err
	}
	res.Written = true

	if rerr := g.reloaderFor(log).Reload(ctx); rerr != nil {
		res.ReloadErr = rerr
		log.WithError(rerr).Error("Failed to reload nginx!")
	} else {
		res.Reloaded = true
	}

	g.recordHistory(log, res)
	g.notify(res)
	return res, nil
}

func (g *Guard) providerFor(log *logrus.Entry) sources.Provider {
	if g.provider != nil {
		return g.provider
	}
	return sources.NewGitHubMeta(g.cfg.FetchTimeout, component(log, "sources"))
}

func (g *Guard) reloaderFor(log *logrus.Entry) nginx.Reloader {
	if g.reloader != nil {
		return g.reloader
	}
	return nginx.NewBinaryReloader(g.cfg.NginxBin, g.cfg.ReloadTimeout, component(log, "nginx"))
}

func (g *Guard) recordHistory(log *logrus.Entry, res Result) {
	if g.history == nil {
		return
	}
	update := &models.WhitelistUpdate{
		RunID:         res.RunID,
		WhitelistFile: g.cfg.WhitelistFile,
		Entries:       len(res.Sources),
		ContentHash:   fmt.Sprintf("%x", sha256.Sum256(whitelist.Render(res.Sources))),
		SnapshotSaved: res.SnapshotSaved,
		Reloaded:      res.Reloaded,
		AppliedAt:     g.now(),
	}
	if res.ReloadErr != nil {
		update.ErrorMsg = res.ReloadErr.Error()
	}
	// Best effort - don't fail the run if audit logging fails
	if err := g.history.Record(update); err != nil {
		log.WithError(err).Warn("record whitelist update")
	}
}

func (g *Guard) notify(res Result) {
	if g.notifier == nil || !g.notifier.Enabled() {
		return
	}
	g.notifier.Send("whitelist updated",
		fmt.Sprintf("%s now allows %d entries", g.cfg.WhitelistFile, len(res.Sources)))
	if res.ReloadErr != nil {
		g.notifier.Send("nginx reload failed", res.ReloadErr.Error())
	}
}

func (g *Guard) exportMetrics(log *logrus.Entry, res Result, runErr error) {
	if g.metrics == nil {
		return
	}
	g.metrics.ObserveSources(len(res.Sources))
	g.metrics.ObserveChanged(res.Written)
	if res.Written {
		g.metrics.ObserveReload(res.Reloaded)
	}
	g.metrics.ObserveRun(runErr == nil, g.now())

	if g.cfg.MetricsFile == "" {
		return
	}
	if err := g.metrics.WriteTextfile(g.cfg.MetricsFile); err != nil {
		log.WithError(err).Warn("write metrics textfile")
	}
}

func component(log *logrus.Entry, name string) *logrus.Entry {
	return log.WithField(logger.ComponentKey, name)
}
