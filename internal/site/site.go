// Package site models the pages of a built static website: where they live on
// disk, the canonical URL each one is served under, and the immutable set of
// those URLs used to decide whether a link target exists.
package site

import (
	"fmt"
	"path/filepath"
	"strings"
)

const indexDocument = "index.html"

// Page is one HTML file discovered under the source directory.
type Page struct {
	// Path is the file location on disk.
	Path string
	// URL is the canonical site-relative URL, e.g. "/about/" for about/index.html.
	URL string
}

// BuildURL derives the canonical site URL of file relative to the source root.
// The source prefix is stripped, a leading slash added and a trailing
// index.html removed.
func BuildURL(source, file string) (string, error) {
	rel, err := filepath.Rel(filepath.Clean(source), filepath.Clean(file))
	if err != nil {
		return "", fmt.Errorf("relative path of %s: %w", file, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("file %s is not inside source directory %s", file, source)
	}
	if rel == "." {
		rel = ""
	}
	return Canonical("/" + rel), nil
}

// Canonical strips a trailing index.html path segment so that
// "/docs/index.html" and "/docs/" name the same page. "/docs/myindex.html"
// is left alone.
func Canonical(u string) string {
	if u == indexDocument || strings.HasSuffix(u, "/"+indexDocument) {
		return strings.TrimSuffix(u, indexDocument)
	}
	return u
}

// URLSet is the read-only set of canonical URLs for every page of a site.
// It is fully built by NewURLSet before anyone reads it and has no mutators,
// so it can be shared between goroutines without locking.
type URLSet struct {
	urls map[string]struct{}
}

// NewURLSet collects the URLs of pages into a set.
func NewURLSet(pages []Page) URLSet {
	urls := make(map[string]struct{}, len(pages))
	for _, p := range pages {
		urls[p.URL] = struct{}{}
	}
	return URLSet{urls: urls}
}

// URLSetOf builds a set directly from URL strings.
func URLSetOf(urls ...string) URLSet {
	pages := make([]Page, 0, len(urls))
	for _, u := range urls {
		pages = append(pages, Page{URL: u})
	}
	return NewURLSet(pages)
}

// Contains reports whether u is the URL of a page in the site.
func (s URLSet) Contains(u string) bool {
	_, ok := s.urls[u]
	return ok
}

// Len returns the number of URLs in the set.
func (s URLSet) Len() int {
	return len(s.urls)
}
