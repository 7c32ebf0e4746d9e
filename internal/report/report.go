// Package report turns the outcomes of a run into the user-facing summary.
package report

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/JakeFAU/sitefix/internal/dispatcher"
)

// ErrIssuesFound is returned by Write when at least one issue was reported.
var ErrIssuesFound = errors.New("issues found")

// Summary counts what a run saw.
type Summary struct {
	Checked     int
	Failed      int
	WithoutRoot int
	Issues      int
}

// Reporter prints issues to w and status lines to the logger.
type Reporter struct {
	w            io.Writer
	logger       *zap.Logger
	rootSelector string
}

// New creates a Reporter. rootSelector is only used in the missing-root warning.
func New(w io.Writer, logger *zap.Logger, rootSelector string) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{w: w, logger: logger, rootSelector: rootSelector}
}

// Write reports outcomes in order. Every issue is printed as
// "* <path>: <issue>"; a clean run prints "All ok!". The returned error is
// ErrIssuesFound when issues were printed, or a write failure.
func (r *Reporter) Write(outcomes []dispatcher.Outcome) (Summary, error) {
	results := dispatcher.Succeeded(outcomes)
	failed := dispatcher.Failed(outcomes)
	sum := Summary{Checked: len(results), Failed: len(failed)}

	var withoutRoot []string
	for _, res := range results {
		if !res.SawRoot {
			withoutRoot = append(withoutRoot, res.Path)
		}
		sum.Issues += len(res.Issues)
	}
	sum.WithoutRoot = len(withoutRoot)

	if len(withoutRoot) > 0 {
		r.logger.Warn(fmt.Sprintf(
			"%d page%s found without a root element matching %q. Pages without it are not checked; "+
				"use the root selector config to target a different root element.",
			len(withoutRoot), plural(len(withoutRoot)), r.rootSelector))
		for _, path := range withoutRoot {
			r.logger.Debug("Page has no root element", zap.String("path", path))
		}
	}
	if len(failed) > 0 {
		r.logger.Warn(fmt.Sprintf("%d file%s could not be parsed", len(failed), plural(len(failed))))
	}
	r.logger.Info(fmt.Sprintf("Checked %d file%s", sum.Checked, plural(sum.Checked)))

	if sum.Issues == 0 {
		if _, err := fmt.Fprintln(r.w, "All ok!"); err != nil {
			return sum, fmt.Errorf("write report: %w", err)
		}
		return sum, nil
	}

	if _, err := fmt.Fprintf(r.w, "%d issue%s:\n", sum.Issues, plural(sum.Issues)); err != nil {
		return sum, fmt.Errorf("write report: %w", err)
	}
	for _, res := range results {
		for _, i := range res.Issues {
			if _, err := fmt.Fprintf(r.w, "* %s: %s\n", res.Path, i); err != nil {
				return sum, fmt.Errorf("write report: %w", err)
			}
		}
	}
	return sum, ErrIssuesFound
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
