// Package linkcheck decides whether a link-bearing element is missing its
// target or points at a page that does not exist in the site.
package linkcheck

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/JakeFAU/sitefix/internal/issue"
	"github.com/JakeFAU/sitefix/internal/site"
)

// DefaultLinkTags lists the elements whose href is checked when none are configured.
var DefaultLinkTags = []string{"a"}

// externalURL matches an optional scheme followed by "//".
var externalURL = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.-]*:)?//`)

// nonNavigational schemes never name a page of the site.
var nonNavigational = []string{"mailto:", "tel:", "javascript:", "data:"}

// Link is the input to Classify: one element and its href, if any.
type Link struct {
	// Page is the site URL of the document containing the element. With
	// WithLinkResolution relative targets are resolved against it; empty
	// means the site root.
	Page    string
	Tag     string
	Href    string
	HasHref bool
}

// DecodeError reports an href that is not valid percent-encoded UTF-8.
type DecodeError struct {
	Tag  string
	Href string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode href %q on <%s>: %v", e.Href, e.Tag, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Classifier checks links against the URLs of a site.
type Classifier struct {
	urls        site.URLSet
	tags        map[string]struct{}
	resolve     bool
	skipSchemes bool
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLinkResolution makes lookups behave like a browser would: the query
// string is dropped, relative and empty hrefs are resolved against the page,
// and a trailing index.html names its directory.
func WithLinkResolution() Option {
	return func(c *Classifier) {
		c.resolve = true
	}
}

// WithSchemeSkipping leaves mailto:, tel:, javascript: and data: hrefs unchecked.
func WithSchemeSkipping() Option {
	return func(c *Classifier) {
		c.skipSchemes = true
	}
}

// New builds a Classifier for urls. Tag names are compared case-insensitively;
// an empty list falls back to DefaultLinkTags. Without options an href is
// looked up exactly as written, minus its fragment.
func New(urls site.URLSet, linkTags []string, opts ...Option) *Classifier {
	if len(linkTags) == 0 {
		linkTags = DefaultLinkTags
	}
	tags := make(map[string]struct{}, len(linkTags))
	for _, t := range linkTags {
		tags[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	c := &Classifier{urls: urls, tags: tags}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsLinkTag reports whether tag is link-bearing.
func (c *Classifier) IsLinkTag(tag string) bool {
	_, ok := c.tags[strings.ToLower(tag)]
	return ok
}

// Classify returns the issue raised by l, if any. The error is a *DecodeError
// when the href cannot be percent-decoded; no issue is returned with it.
func (c *Classifier) Classify(l Link) (issue.Issue, bool, error) {
	if !c.IsLinkTag(l.Tag) {
		return issue.Issue{}, false, nil
	}
	if !l.HasHref {
		return issue.MissingLink(l.Tag), true, nil
	}

	decoded, err := decode(l.Href)
	if err != nil {
		return issue.Issue{}, false, &DecodeError{Tag: l.Tag, Href: l.Href, Err: err}
	}

	if strings.HasPrefix(decoded, "#") {
		// In-page anchors are not checked.
		return issue.Issue{}, false, nil
	}
	if externalURL.MatchString(decoded) {
		return issue.Issue{}, false, nil
	}
	if c.skipSchemes && hasNonNavigationalScheme(decoded) {
		return issue.Issue{}, false, nil
	}

	target, _, _ := strings.Cut(decoded, "#")
	if c.resolve {
		target, _, _ = strings.Cut(target, "?")
		target = site.Canonical(resolve(l.Page, target))
	}
	if !c.urls.Contains(target) {
		return issue.DeadLink(l.Tag, decoded), true, nil
	}
	return issue.Issue{}, false, nil
}

func decode(href string) (string, error) {
	decoded, err := url.PathUnescape(href)
	if err != nil {
		return "", err
	}
	if !utf8.ValidString(decoded) {
		return "", fmt.Errorf("decoded value is not valid UTF-8")
	}
	return decoded, nil
}

func hasNonNavigationalScheme(target string) bool {
	lower := strings.ToLower(target)
	for _, scheme := range nonNavigational {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}

// resolve turns target into a site-absolute path. Absolute targets are
// returned unchanged; relative ones are joined to the directory of page.
func resolve(page, target string) string {
	if strings.HasPrefix(target, "/") {
		return target
	}
	if page == "" {
		page = "/"
	}
	if target == "" {
		return page
	}
	dir := page[:strings.LastIndex(page, "/")+1]
	joined := path.Join(dir, target)
	last := target[strings.LastIndex(target, "/")+1:]
	if (last == "" || last == "." || last == "..") && !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	return joined
}
