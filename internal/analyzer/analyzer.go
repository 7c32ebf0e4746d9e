// Package analyzer checks a single HTML file: it streams the file through the
// markup source and tracker and returns the issues that survive.
package analyzer

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/JakeFAU/sitefix/internal/clock/system"
	"github.com/JakeFAU/sitefix/internal/issue"
	"github.com/JakeFAU/sitefix/internal/linkcheck"
	"github.com/JakeFAU/sitefix/internal/markup"
	"github.com/JakeFAU/sitefix/internal/metrics"
	"github.com/JakeFAU/sitefix/internal/retry"
	"github.com/JakeFAU/sitefix/internal/site"
	"github.com/JakeFAU/sitefix/internal/tracker"
)

// Defaults applied when Config fields are zero.
const (
	DefaultChunkSize     = 20000
	DefaultMaxTokenBytes = 4 << 20
)

// Result is the outcome of a successfully analysed file.
type Result struct {
	Path    string
	URL     string
	Issues  []issue.Issue
	SawRoot bool
}

// ParseError reports a file that could not be read or tokenized. The file
// contributes no issues to the run.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Clock supplies timestamps for latency metrics.
type Clock interface {
	Now() time.Time
}

// Config holds the per-run settings shared by every analysed file.
type Config struct {
	Tracker  tracker.Config
	LinkTags []string
	// ResolveLinks resolves relative hrefs against the page and ignores
	// query strings before the lookup.
	ResolveLinks bool
	// SkipSchemes leaves mailto:, tel:, javascript: and data: hrefs unchecked.
	SkipSchemes bool
	// ChunkSize caps the bytes requested from the file per read.
	ChunkSize int
	// MaxTokenBytes caps the bytes buffered for one token.
	MaxTokenBytes int
}

// Analyzer checks files against one site's URL set. It is safe for
// concurrent use; every call to Analyze builds its own Tracker.
type Analyzer struct {
	fs         afero.Fs
	cfg        Config
	classifier *linkcheck.Classifier
	policy     retry.Policy
	logger     *zap.Logger
	metrics    *metrics.Recorder
	clock      Clock
	sleep      func(time.Duration)
}

// Option customizes an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger used for warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMetrics records file, issue and retry counts on m.
func WithMetrics(m *metrics.Recorder) Option {
	return func(a *Analyzer) {
		a.metrics = m
	}
}

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(a *Analyzer) {
		if p != nil {
			a.policy = p
		}
	}
}

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(a *Analyzer) {
		if c != nil {
			a.clock = c
		}
	}
}

// WithSleep replaces time.Sleep between retries.
func WithSleep(sleep func(time.Duration)) Option {
	return func(a *Analyzer) {
		if sleep != nil {
			a.sleep = sleep
		}
	}
}

// New builds an Analyzer reading from fsys and resolving links against urls.
func New(fsys afero.Fs, urls site.URLSet, cfg Config, opts ...Option) *Analyzer {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.MaxTokenBytes <= 0 {
		cfg.MaxTokenBytes = DefaultMaxTokenBytes
	}
	var linkOpts []linkcheck.Option
	if cfg.ResolveLinks {
		linkOpts = append(linkOpts, linkcheck.WithLinkResolution())
	}
	if cfg.SkipSchemes {
		linkOpts = append(linkOpts, linkcheck.WithSchemeSkipping())
	}
	a := &Analyzer{
		fs:         fsys,
		cfg:        cfg,
		classifier: linkcheck.New(urls, cfg.LinkTags, linkOpts...),
		policy:     retry.NewExponentialPolicy(),
		logger:     zap.NewNop(),
		clock:      system.New(),
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze streams page's file and returns its surviving issues. Any failure
// is returned as a *ParseError.
func (a *Analyzer) Analyze(page site.Page) (Result, error) {
	start := a.clock.Now()
	res, err := a.analyze(page)
	elapsed := a.clock.Now().Sub(start)
	if err != nil {
		a.metrics.ObserveFile(metrics.ResultFailed, elapsed)
		a.logger.Warn("Failed to parse file", zap.String("path", page.Path), zap.Error(err))
		return Result{}, &ParseError{Path: page.Path, Err: err}
	}
	a.metrics.ObserveFile(metrics.ResultOK, elapsed)
	a.metrics.ObserveIssues(res.Issues)
	a.logger.Debug("Analyzed file",
		zap.String("path", page.Path),
		zap.Int("issues", len(res.Issues)),
		zap.Duration("elapsed", elapsed),
	)
	return res, nil
}

func (a *Analyzer) analyze(page site.Page) (Result, error) {
	f, err := a.open(page.Path)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			a.logger.Debug("Failed to close file", zap.String("path", page.Path), zap.Error(cerr))
		}
	}()

	r := &chunkReader{
		r:    f,
		size: a.cfg.ChunkSize,
		retry: func(err error, attempt int) bool {
			return a.shouldRetry(page.Path, err, attempt)
		},
	}
	src := markup.NewSource(r, markup.Options{MaxTokenBytes: a.cfg.MaxTokenBytes})
	tr := tracker.New(a.cfg.Tracker, a.classifier, page.URL)
	for {
		ev, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, err
		}
		tr.Handle(ev)
	}

	summary := tr.Finish()
	decodeErrs := tr.DecodeErrors()
	for _, derr := range decodeErrs {
		a.logger.Warn("Could not decode href", zap.String("path", page.Path), zap.Error(derr))
	}
	a.metrics.IncDecodeErrors(len(decodeErrs))

	return Result{
		Path:    page.Path,
		URL:     page.URL,
		Issues:  summary.Issues,
		SawRoot: summary.SawRoot,
	}, nil
}

func (a *Analyzer) open(path string) (afero.File, error) {
	for attempt := 1; ; attempt++ {
		f, err := a.fs.Open(path)
		if err == nil {
			return f, nil
		}
		if !a.shouldRetry(path, err, attempt) {
			return nil, fmt.Errorf("open: %w", err)
		}
	}
}

// shouldRetry consults the policy and, when another attempt is allowed,
// waits out the backoff first.
func (a *Analyzer) shouldRetry(path string, err error, attempt int) bool {
	if !a.policy.ShouldRetry(err, attempt) {
		return false
	}
	delay := a.policy.Backoff(attempt - 1)
	a.metrics.IncReadRetries()
	a.logger.Debug("Retrying file read",
		zap.String("path", path),
		zap.Int("attempt", attempt),
		zap.Duration("backoff", delay),
		zap.Error(err),
	)
	a.sleep(delay)
	return true
}

// chunkReader hands the tokenizer at most size bytes per read. Data read
// alongside an error is delivered first and the error is held for the next
// call, since the tokenizer discards bytes returned with an error.
type chunkReader struct {
	r       io.Reader
	size    int
	pending error
	retry   func(err error, attempt int) bool
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(p) > c.size {
		p = p[:c.size]
	}
	attempt := 1
	if err := c.pending; err != nil {
		c.pending = nil
		if errors.Is(err, io.EOF) || !c.retry(err, attempt) {
			return 0, err
		}
		attempt++
	}
	for ; ; attempt++ {
		n, err := c.r.Read(p)
		switch {
		case err == nil:
			return n, nil
		case n > 0:
			c.pending = err
			return n, nil
		case errors.Is(err, io.EOF):
			return 0, err
		case !c.retry(err, attempt):
			return 0, err
		}
	}
}
