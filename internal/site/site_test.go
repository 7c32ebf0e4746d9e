package site

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildURL(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		file string
		want string
	}{
		{"root index", "public/index.html", "/"},
		{"nested index", "public/about/index.html", "/about/"},
		{"plain page", "public/blog/post.html", "/blog/post.html"},
		{"deep page", "public/a/b/c.html", "/a/b/c.html"},
		{"name ending in index", "public/blog/myindex.html", "/blog/myindex.html"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := BuildURL("public", filepath.FromSlash(tc.file))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBuildURLOutsideSource(t *testing.T) {
	t.Parallel()

	_, err := BuildURL("public", filepath.FromSlash("other/index.html"))
	assert.Error(t, err)
}

func TestURLSet(t *testing.T) {
	t.Parallel()

	set := NewURLSet([]Page{
		{Path: "public/index.html", URL: "/"},
		{Path: "public/about/index.html", URL: "/about/"},
		{Path: "public/about/index.html", URL: "/about/"},
	})

	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Contains("/"))
	assert.True(t, set.Contains("/about/"))
	assert.False(t, set.Contains("/about"))
	assert.False(t, set.Contains("/missing/"))

	var empty URLSet
	assert.False(t, empty.Contains("/"))
	assert.Equal(t, 0, empty.Len())
}

func TestCanonical(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/docs/", Canonical("/docs/index.html"))
	assert.Equal(t, "/", Canonical("/index.html"))
	assert.Equal(t, "/docs/page.html", Canonical("/docs/page.html"))
	assert.Equal(t, "/blog/myindex.html", Canonical("/blog/myindex.html"))
	assert.Equal(t, "", Canonical("index.html"))
	assert.Equal(t, "notindex.html", Canonical("notindex.html"))
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	for _, name := range []string{
		"/public/index.html",
		"/public/about/index.html",
		"/public/blog/2024/post.html",
		"/public/css/site.css",
		"/public/img/logo.png",
	} {
		require.NoError(t, afero.WriteFile(fsys, filepath.FromSlash(name), []byte("<html></html>"), 0o644))
	}

	pages, err := Discover(fsys, "/public", "**/*.{html}")
	require.NoError(t, err)

	urls := make([]string, 0, len(pages))
	for _, p := range pages {
		urls = append(urls, p.URL)
	}
	assert.Equal(t, []string{"/about/", "/blog/2024/post.html", "/"}, urls)
}

func TestDiscoverCustomGlob(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, filepath.FromSlash("/site/docs/a.html"), []byte(""), 0o644))
	require.NoError(t, afero.WriteFile(fsys, filepath.FromSlash("/site/blog/b.html"), []byte(""), 0o644))

	pages, err := Discover(fsys, "/site", "docs/**.html")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "/docs/a.html", pages[0].URL)
}

func TestDiscoverErrors(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()

	_, err := Discover(fsys, "/missing", "**/*.html")
	assert.Error(t, err)

	_, err = Discover(fsys, "/missing", "[")
	assert.Error(t, err)
}
