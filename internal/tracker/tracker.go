// Package tracker follows the chain of currently open elements while a page
// is streamed and decides which link issues survive.
//
// Only the path from the document root to the deepest open element is kept.
// When an element closes, its issues are merged into its parent, or dropped
// when the element or one of its ancestors carries the ignore attribute.
// Memory use is therefore bounded by nesting depth, not document size.
package tracker

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/JakeFAU/sitefix/internal/issue"
	"github.com/JakeFAU/sitefix/internal/linkcheck"
	"github.com/JakeFAU/sitefix/internal/markup"
)

// Defaults used when Config fields are empty.
const (
	DefaultRootSelector    = "html"
	DefaultIgnoreAttribute = "data-sitefix-ignore"
)

// Status says whether a frame's issues are kept when it closes.
type Status int

// Frame statuses.
const (
	Fixing Status = iota
	Ignored
)

// Matcher reports whether an element matches a selector.
type Matcher interface {
	Match(n *html.Node) bool
}

// Classifier turns one element into at most one issue.
type Classifier interface {
	Classify(l linkcheck.Link) (issue.Issue, bool, error)
}

// CompileSelector parses a CSS selector group such as "html" or "main, article".
func CompileSelector(sel string) (Matcher, error) {
	group, err := cascadia.ParseGroup(sel)
	if err != nil {
		return nil, fmt.Errorf("parse selector %q: %w", sel, err)
	}
	return group, nil
}

// Config holds the per-run settings shared by every Tracker.
type Config struct {
	// Root matches the document root element. Elements matching Root, and
	// their descendants, are examined for issues.
	Root Matcher
	// IgnoreAttribute marks a subtree whose issues are discarded.
	IgnoreAttribute string
}

// Summary is the outcome of tracking one page.
type Summary struct {
	Issues  []issue.Issue
	SawRoot bool
}

type frame struct {
	node    *html.Node
	issues  []issue.Issue
	status  Status
	inScope bool
}

// Tracker consumes element events for a single page. It is not safe for
// concurrent use; each page gets its own Tracker.
type Tracker struct {
	cfg        Config
	classifier Classifier
	page       string

	stack      []frame
	sawRoot    bool
	decodeErrs []error
}

// New creates a Tracker for the page served at pageURL. A nil cfg.Root selects
// DefaultRootSelector.
func New(cfg Config, classifier Classifier, pageURL string) *Tracker {
	if cfg.Root == nil {
		cfg.Root = cascadia.MustCompile(DefaultRootSelector)
	}
	if cfg.IgnoreAttribute == "" {
		cfg.IgnoreAttribute = DefaultIgnoreAttribute
	}
	root := frame{node: &html.Node{Type: html.DocumentNode}, status: Fixing}
	return &Tracker{
		cfg:        cfg,
		classifier: classifier,
		page:       pageURL,
		stack:      []frame{root},
	}
}

// Depth returns the number of open elements.
func (t *Tracker) Depth() int {
	return len(t.stack) - 1
}

// Handle applies one markup event.
func (t *Tracker) Handle(ev markup.Event) {
	switch ev.Kind {
	case markup.Open:
		t.Open(ev.Tag, ev.Attrs)
	case markup.Close:
		t.Close()
	case markup.OpenNoClose:
		t.OpenNoClose(ev.Tag, ev.Attrs)
	}
}

// Open pushes a frame for a newly opened element.
func (t *Tracker) Open(tag string, attrs []html.Attribute) {
	parent := t.top()
	node := &html.Node{
		Type:   html.ElementNode,
		Data:   tag,
		Attr:   attrs,
		Parent: parent.node,
	}

	isRoot := t.cfg.Root.Match(node)
	if isRoot {
		t.sawRoot = true
	}

	f := frame{
		node:    node,
		status:  parent.status,
		inScope: isRoot || parent.inScope,
	}
	if f.inScope {
		if f.status != Ignored && hasAttr(attrs, t.cfg.IgnoreAttribute) {
			f.status = Ignored
		}
		href, hasHref := attr(attrs, "href")
		found, ok, err := t.classifier.Classify(linkcheck.Link{
			Page:    t.page,
			Tag:     tag,
			Href:    href,
			HasHref: hasHref,
		})
		switch {
		case err != nil:
			t.decodeErrs = append(t.decodeErrs, err)
		case ok:
			f.issues = append(f.issues, found)
		}
	}
	t.stack = append(t.stack, f)
}

// OpenNoClose handles an element that will never see a close event.
func (t *Tracker) OpenNoClose(tag string, attrs []html.Attribute) {
	t.Open(tag, attrs)
	t.Close()
}

// Close pops the innermost open element, merging its issues into the parent
// unless it is ignored. With no element open it does nothing.
func (t *Tracker) Close() {
	if len(t.stack) <= 1 {
		return
	}
	n := len(t.stack) - 1
	f := t.stack[n]
	t.stack[n] = frame{}
	t.stack = t.stack[:n]
	if f.status == Ignored {
		return
	}
	parent := &t.stack[n-1]
	parent.issues = append(parent.issues, f.issues...)
}

// Finish closes every element still open, innermost first, exactly as if
// their end tags had been seen, and returns the surviving issues. Calling it
// again returns the same result.
func (t *Tracker) Finish() Summary {
	for len(t.stack) > 1 {
		t.Close()
	}
	return Summary{
		Issues:  append([]issue.Issue(nil), t.stack[0].issues...),
		SawRoot: t.sawRoot,
	}
}

// DecodeErrors returns the hrefs that could not be decoded, in document order.
func (t *Tracker) DecodeErrors() []error {
	return t.decodeErrs
}

func (t *Tracker) top() *frame {
	return &t.stack[len(t.stack)-1]
}

func attr(attrs []html.Attribute, key string) (string, bool) {
	for _, a := range attrs {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func hasAttr(attrs []html.Attribute, key string) bool {
	_, ok := attr(attrs, key)
	return ok
}
