package site

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"
	"github.com/spf13/afero"
)

// CompileGlob compiles a slash separated file glob such as "**/*.{html}".
func CompileGlob(pattern string) (glob.Glob, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("compile glob %q: %w", pattern, err)
	}
	return g, nil
}

// Discover walks source and returns every file matching pattern, sorted by path.
// Patterns are matched against the slash separated path relative to source; a
// leading "**/" also matches files directly inside source.
func Discover(fsys afero.Fs, source, pattern string) ([]Page, error) {
	g, err := CompileGlob(pattern)
	if err != nil {
		return nil, err
	}

	var pages []Page
	walkErr := afero.Walk(fsys, source, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(source, path)
		if err != nil {
			return fmt.Errorf("relative path of %s: %w", path, err)
		}
		rel = filepath.ToSlash(rel)
		if !g.Match(rel) && !g.Match("/"+rel) {
			return nil
		}
		u, err := BuildURL(source, path)
		if err != nil {
			return err
		}
		pages = append(pages, Page{Path: path, URL: u})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].Path < pages[j].Path })
	return pages, nil
}
