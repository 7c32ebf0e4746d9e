package markup

type tagSet map[string]struct{}

func newTagSet(tags ...string) tagSet {
	s := make(tagSet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// voidElements never have content or an end tag.
var voidElements = newTagSet(
	"area", "base", "br", "col", "embed", "hr", "img", "input", "keygen",
	"link", "meta", "param", "source", "track", "wbr",
)

func isVoid(tag string) bool {
	_, ok := voidElements[tag]
	return ok
}

// impliedEnd describes the open elements a start tag closes. The nearest
// open element in closes is closed together with everything above it, unless
// a barrier is met first. A nil barriers set restricts the search to the
// current element.
type impliedEnd struct {
	closes   tagSet
	barriers tagSet
}

// listItemBarriers are the special elements that stop an implied </li>,
// </dt> or </dd>: every special element except address, div and p.
var listItemBarriers = newTagSet(
	"applet", "article", "aside", "blockquote", "body", "button", "caption",
	"center", "dd", "details", "dir", "dl", "dt", "fieldset", "figcaption",
	"figure", "footer", "form", "h1", "h2", "h3", "h4", "h5", "h6", "header",
	"hgroup", "html", "iframe", "li", "main", "marquee", "menu", "nav",
	"object", "ol", "pre", "section", "select", "summary", "table", "tbody",
	"td", "template", "textarea", "tfoot", "th", "thead", "tr", "ul",
)

// buttonScopeBarriers stop an implied </p>.
var buttonScopeBarriers = newTagSet(
	"applet", "button", "caption", "html", "marquee", "object", "table",
	"td", "template", "th",
)

func without(set tagSet, tags ...string) tagSet {
	out := make(tagSet, len(set))
	for t := range set {
		out[t] = struct{}{}
	}
	for _, t := range tags {
		delete(out, t)
	}
	return out
}

// impliedEnds maps a start tag to the optional end tags it implies.
var impliedEnds = func() map[string]impliedEnd {
	m := map[string]impliedEnd{
		"li":       {closes: newTagSet("li"), barriers: without(listItemBarriers, "li")},
		"dt":       {closes: newTagSet("dt", "dd"), barriers: without(listItemBarriers, "dt", "dd")},
		"dd":       {closes: newTagSet("dt", "dd"), barriers: without(listItemBarriers, "dt", "dd")},
		"option":   {closes: newTagSet("option")},
		"optgroup": {closes: newTagSet("option", "optgroup")},
		"tr":       {closes: newTagSet("td", "th", "tr"), barriers: newTagSet("table", "tbody", "thead", "tfoot", "template", "html")},
		"td":       {closes: newTagSet("td", "th"), barriers: newTagSet("tr", "table", "template", "html")},
		"th":       {closes: newTagSet("td", "th"), barriers: newTagSet("tr", "table", "template", "html")},
	}
	for _, block := range []string{
		"address", "article", "aside", "blockquote", "details", "div", "dl",
		"fieldset", "figure", "footer", "form", "h1", "h2", "h3", "h4", "h5",
		"h6", "header", "hr", "main", "nav", "ol", "p", "pre", "section",
		"table", "ul",
	} {
		m[block] = impliedEnd{closes: newTagSet("p"), barriers: buttonScopeBarriers}
	}
	return m
}()
