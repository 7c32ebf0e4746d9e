// Package dispatcher runs the per-file analysis of a whole site.
//
// A run has two phases separated by a barrier. The URL set of every page is
// built first; only then are files analysed, concurrently, each against that
// read-only set.
package dispatcher

import (
	"context"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/sitefix/internal/analyzer"
	"github.com/JakeFAU/sitefix/internal/site"
)

// FileAnalyzer checks one page.
type FileAnalyzer interface {
	Analyze(page site.Page) (analyzer.Result, error)
}

// Factory builds the FileAnalyzer for a site once its URL set is complete.
type Factory func(urls site.URLSet) FileAnalyzer

// Outcome is what happened to one page. Exactly one of Result and Err is set.
type Outcome struct {
	Page   site.Page
	Result *analyzer.Result
	Err    error
}

// Dispatcher fans page analysis out to a bounded number of goroutines.
type Dispatcher struct {
	newAnalyzer Factory
	limit       int
	logger      *zap.Logger
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithLimit caps the number of files analysed at once. Values below one are ignored.
func WithLimit(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.limit = n
		}
	}
}

// New creates a Dispatcher. The concurrency limit defaults to GOMAXPROCS.
func New(factory Factory, logger *zap.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		newAnalyzer: factory,
		limit:       runtime.GOMAXPROCS(0),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run analyses every page and returns one Outcome per page, in input order.
// A failing file never stops its siblings. Pages not yet started when ctx is
// done get ctx's error; files already being analysed run to completion.
func (d *Dispatcher) Run(ctx context.Context, pages []site.Page) []Outcome {
	urls := site.NewURLSet(pages)
	d.logger.Debug("Built site URL set", zap.Int("urls", urls.Len()))
	fa := d.newAnalyzer(urls)

	outcomes := make([]Outcome, len(pages))
	var g errgroup.Group
	g.SetLimit(d.limit)
	for i, page := range pages {
		g.Go(func() error {
			outcomes[i] = d.analyze(ctx, fa, page)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (d *Dispatcher) analyze(ctx context.Context, fa FileAnalyzer, page site.Page) Outcome {
	if err := ctx.Err(); err != nil {
		return Outcome{Page: page, Err: err}
	}
	res, err := fa.Analyze(page)
	if err != nil {
		return Outcome{Page: page, Err: err}
	}
	return Outcome{Page: page, Result: &res}
}

// Succeeded returns the results of pages that were analysed, in input order.
func Succeeded(outcomes []Outcome) []analyzer.Result {
	results := make([]analyzer.Result, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Result != nil {
			results = append(results, *o.Result)
		}
	}
	return results
}

// Failed returns the outcomes that carry an error.
func Failed(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}
