package linkcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/sitefix/internal/issue"
	"github.com/JakeFAU/sitefix/internal/site"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	c := New(site.URLSetOf("/", "/about/", "/blog/post.html", "/café/"), nil)

	testCases := []struct {
		name     string
		link     Link
		wantKind issue.Kind
		wantMsg  string
	}{
		{
			name:     "missing href",
			link:     Link{Page: "/", Tag: "a"},
			wantKind: issue.KindMissingLink,
			wantMsg:  "<a> has no href",
		},
		{
			name:     "dead link",
			link:     Link{Page: "/", Tag: "a", Href: "/missing/", HasHref: true},
			wantKind: issue.KindDeadLink,
			wantMsg:  "<a> links to /missing/, but that page does not exist",
		},
		{
			name: "existing page",
			link: Link{Page: "/", Tag: "a", Href: "/about/", HasHref: true},
		},
		{
			name: "hash stripped before lookup",
			link: Link{Page: "/", Tag: "a", Href: "/about/#team", HasHref: true},
		},
		{
			name: "fragment only",
			link: Link{Page: "/", Tag: "a", Href: "#section", HasHref: true},
		},
		{
			name: "encoded fragment only",
			link: Link{Page: "/", Tag: "a", Href: "%23section", HasHref: true},
		},
		{
			name: "external https",
			link: Link{Page: "/", Tag: "a", Href: "https://example.com/x", HasHref: true},
		},
		{
			name: "protocol relative",
			link: Link{Page: "/", Tag: "a", Href: "//example.com/x", HasHref: true},
		},
		{
			name: "other scheme with slashes",
			link: Link{Page: "/", Tag: "a", Href: "ftp://example.com/file", HasHref: true},
		},
		{
			name: "percent encoded target",
			link: Link{Page: "/", Tag: "a", Href: "/caf%C3%A9/", HasHref: true},
		},
		{
			name: "not a link tag",
			link: Link{Page: "/", Tag: "div"},
		},
		{
			name: "link tag without href check on img",
			link: Link{Page: "/", Tag: "img", Href: "/missing.png", HasHref: true},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok, err := c.Classify(tc.link)
			require.NoError(t, err)
			if tc.wantKind == "" {
				assert.False(t, ok, "unexpected issue %v", got)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tc.wantKind, got.Kind)
			assert.Equal(t, tc.wantMsg, got.Message)
		})
	}
}

func TestClassifyStrictByDefault(t *testing.T) {
	t.Parallel()

	c := New(site.URLSetOf("/", "/about/"), nil)

	for _, href := range []string{
		"mailto:x@example.com",
		"tel:123",
		"",
		"?x",
		"/?x",
		"/about/index.html",
		"about/",
	} {
		got, ok, err := c.Classify(Link{Page: "/", Tag: "a", Href: href, HasHref: true})
		require.NoError(t, err, href)
		require.True(t, ok, "href %q", href)
		assert.Equal(t, issue.DeadLink("a", href), got)
	}
}

func TestClassifyWithOptions(t *testing.T) {
	t.Parallel()

	c := New(site.URLSetOf("/", "/about/", "/blog/post.html", "/blog/myindex.html"), nil,
		WithLinkResolution(), WithSchemeSkipping())

	testCases := []struct {
		name     string
		link     Link
		wantKind issue.Kind
		wantMsg  string
	}{
		{
			name: "query stripped before lookup",
			link: Link{Page: "/", Tag: "a", Href: "/about/?ref=nav", HasHref: true},
		},
		{
			name: "index document resolves to directory",
			link: Link{Page: "/", Tag: "a", Href: "/about/index.html", HasHref: true},
		},
		{
			name: "mailto",
			link: Link{Page: "/", Tag: "a", Href: "mailto:hi@example.com", HasHref: true},
		},
		{
			name: "tel",
			link: Link{Page: "/", Tag: "a", Href: "TEL:+15555550100", HasHref: true},
		},
		{
			name: "relative sibling page",
			link: Link{Page: "/blog/other.html", Tag: "a", Href: "post.html", HasHref: true},
		},
		{
			name: "relative parent directory",
			link: Link{Page: "/blog/post.html", Tag: "a", Href: "../about/", HasHref: true},
		},
		{
			name: "relative up to root",
			link: Link{Page: "/about/", Tag: "a", Href: "..", HasHref: true},
		},
		{
			name: "empty href is the page itself",
			link: Link{Page: "/about/", Tag: "a", Href: "", HasHref: true},
		},
		{
			name:     "relative dead link",
			link:     Link{Page: "/blog/post.html", Tag: "a", Href: "missing.html", HasHref: true},
			wantKind: issue.KindDeadLink,
			wantMsg:  "<a> links to missing.html, but that page does not exist",
		},
		{
			name: "javascript",
			link: Link{Page: "/", Tag: "a", Href: "javascript:void(0)", HasHref: true},
		},
		{
			name: "query only is the page itself",
			link: Link{Page: "/about/", Tag: "a", Href: "?tab=2", HasHref: true},
		},
		{
			name: "file name ending in index",
			link: Link{Page: "/", Tag: "a", Href: "/blog/myindex.html", HasHref: true},
		},
		{
			name:     "index suffix is not a directory",
			link:     Link{Page: "/", Tag: "a", Href: "/blog/my", HasHref: true},
			wantKind: issue.KindDeadLink,
			wantMsg:  "<a> links to /blog/my, but that page does not exist",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok, err := c.Classify(tc.link)
			require.NoError(t, err)
			if tc.wantKind == "" {
				assert.False(t, ok, "unexpected issue %v", got)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tc.wantKind, got.Kind)
			assert.Equal(t, tc.wantMsg, got.Message)
		})
	}
}

func TestSchemeSkippingAlone(t *testing.T) {
	t.Parallel()

	c := New(site.URLSetOf("/"), nil, WithSchemeSkipping())

	_, ok, err := c.Classify(Link{Page: "/", Tag: "a", Href: "mailto:x@example.com", HasHref: true})
	require.NoError(t, err)
	assert.False(t, ok)

	got, ok, err := c.Classify(Link{Page: "/", Tag: "a", Href: "?x", HasHref: true})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, issue.DeadLink("a", "?x"), got)
}

func TestClassifyDecodeError(t *testing.T) {
	t.Parallel()

	c := New(site.URLSetOf("/"), nil)

	for _, href := range []string{"/bad%zzpath", "/latin1-%E9/", "100%"} {
		_, ok, err := c.Classify(Link{Page: "/", Tag: "a", Href: href, HasHref: true})
		assert.False(t, ok, href)

		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr, href)
		assert.Equal(t, href, decodeErr.Href)
		assert.Equal(t, "a", decodeErr.Tag)
	}
}

func TestCustomLinkTags(t *testing.T) {
	t.Parallel()

	c := New(site.URLSetOf("/"), []string{"A", " area "})

	assert.True(t, c.IsLinkTag("a"))
	assert.True(t, c.IsLinkTag("area"))
	assert.False(t, c.IsLinkTag("link"))

	got, ok, err := c.Classify(Link{Page: "/", Tag: "area"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, issue.MissingLink("area"), got)
}

func TestResolve(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		page, target, want string
	}{
		{"/", "/abs/", "/abs/"},
		{"/docs/", "guide/", "/docs/guide/"},
		{"/docs/page.html", "other.html", "/docs/other.html"},
		{"/docs/page.html", "./", "/docs/"},
		{"/docs/a/", "../b/", "/docs/b/"},
		{"/docs/a/", "..", "/docs/"},
		{"", "x.html", "/x.html"},
		{"/docs/", "", "/docs/"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, resolve(tc.page, tc.target), "resolve(%q, %q)", tc.page, tc.target)
	}
}
