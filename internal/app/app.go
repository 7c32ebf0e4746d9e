// Package app holds the long-lived services of a sitefix run and wires them
// together, acting as a small dependency injection container.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/JakeFAU/sitefix/internal/analyzer"
	"github.com/JakeFAU/sitefix/internal/clock/system"
	"github.com/JakeFAU/sitefix/internal/config"
	"github.com/JakeFAU/sitefix/internal/dispatcher"
	"github.com/JakeFAU/sitefix/internal/id/uuid"
	"github.com/JakeFAU/sitefix/internal/logging"
	"github.com/JakeFAU/sitefix/internal/metrics"
	"github.com/JakeFAU/sitefix/internal/report"
	"github.com/JakeFAU/sitefix/internal/site"
	"github.com/JakeFAU/sitefix/internal/tracker"
)

// Clock supplies the run's start time and its duration.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// App holds the services shared by one run.
type App struct {
	opts    config.Options
	logger  *zap.Logger
	fs      afero.Fs
	metrics *metrics.Recorder
	clock   Clock
	runID   string
}

// Option customizes an App.
type Option func(*App)

// WithLogger replaces the logger built from the options.
func WithLogger(logger *zap.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithFs replaces the OS filesystem.
func WithFs(fsys afero.Fs) Option {
	return func(a *App) {
		a.fs = fsys
	}
}

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(a *App) {
		a.clock = c
	}
}

// NewApp validates opts and builds the services for a run.
func NewApp(opts config.Options, options ...Option) (*App, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &App{
		opts:    opts,
		fs:      afero.NewOsFs(),
		metrics: metrics.New(),
		clock:   system.New(),
	}
	for _, opt := range options {
		opt(a)
	}
	if a.logger == nil {
		logger, err := logging.New(opts.Verbose, logging.Format(opts.LogFormat))
		if err != nil {
			return nil, err
		}
		a.logger = logger
	}

	runID, err := uuid.New().NewID()
	if err != nil {
		return nil, fmt.Errorf("run id: %w", err)
	}
	a.runID = runID
	a.logger = a.logger.With(zap.String("run_id", runID))
	return a, nil
}

// GetLogger returns the run's logger.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetMetrics returns the run's metrics recorder.
func (a *App) GetMetrics() *metrics.Recorder {
	return a.metrics
}

// RunID returns the identifier attached to every log line of the run.
func (a *App) RunID() string {
	return a.runID
}

// Run discovers the site's pages, checks every one of them and writes the
// report to w. It returns report.ErrIssuesFound when issues were printed.
func (a *App) Run(ctx context.Context, w io.Writer) (report.Summary, error) {
	start := a.clock.Now()
	l := a.logger
	l.Info("Running sitefix")
	l.Debug("Running in verbose mode")
	l.Info("Source", zap.String("source", a.opts.Source))

	l.Info("Walking source directory")
	pages, err := site.Discover(a.fs, a.opts.Source, a.opts.Glob)
	if err != nil {
		return report.Summary{}, err
	}
	l.Info(fmt.Sprintf("Found %d file%s matching %s", len(pages), plural(len(pages)), a.opts.Glob))

	root, err := tracker.CompileSelector(a.opts.RootSelector)
	if err != nil {
		return report.Summary{}, err
	}
	cfg := analyzer.Config{
		Tracker: tracker.Config{
			Root:            root,
			IgnoreAttribute: a.opts.IgnoreAttribute,
		},
		LinkTags:      a.opts.LinkTags,
		ResolveLinks:  a.opts.ResolveLinks,
		SkipSchemes:   a.opts.SkipSchemes,
		ChunkSize:     a.opts.ChunkSize,
		MaxTokenBytes: a.opts.MaxTokenBytes,
	}

	l.Info("Parsing files")
	d := dispatcher.New(func(urls site.URLSet) dispatcher.FileAnalyzer {
		return analyzer.New(a.fs, urls, cfg,
			analyzer.WithLogger(l),
			analyzer.WithMetrics(a.metrics),
			analyzer.WithClock(a.clock),
		)
	}, l)
	outcomes := d.Run(ctx, pages)

	summary, reportErr := report.New(w, l, a.opts.RootSelector).Write(outcomes)
	if reportErr != nil && !errors.Is(reportErr, report.ErrIssuesFound) {
		return summary, reportErr
	}

	if err := a.metrics.WriteTextfile(a.opts.MetricsFile); err != nil {
		l.Warn("Failed to write metrics", zap.Error(err))
	}
	l.Info(fmt.Sprintf("Finished in %.3f seconds", a.clock.Since(start).Seconds()))
	return summary, reportErr
}

// Close flushes the logger. It is called by a Cobra hook after the command finishes.
func (a *App) Close() {
	// Syncing stderr fails on some platforms; nothing useful can be done about it.
	_ = a.logger.Sync()
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
