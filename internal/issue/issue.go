// Package issue defines the link problems reported for a page.
package issue

import "fmt"

// Kind classifies an Issue.
type Kind string

// Issue kinds reported by the link checker.
const (
	KindMissingLink Kind = "missing_link"
	KindDeadLink    Kind = "dead_link"
)

// Label returns the human readable prefix used when printing an Issue.
func (k Kind) Label() string {
	switch k {
	case KindMissingLink:
		return "Missing Link"
	case KindDeadLink:
		return "Dead Link"
	default:
		return string(k)
	}
}

// Issue is a single problem found on a page. Values are never mutated after creation.
type Issue struct {
	Kind    Kind
	Message string
}

// MissingLink reports a link-bearing element without an href attribute.
func MissingLink(tag string) Issue {
	return Issue{
		Kind:    KindMissingLink,
		Message: fmt.Sprintf("<%s> has no href", tag),
	}
}

// DeadLink reports a link whose target is not a page of the site.
func DeadLink(tag, target string) Issue {
	return Issue{
		Kind:    KindDeadLink,
		Message: fmt.Sprintf("<%s> links to %s, but that page does not exist", tag, target),
	}
}

// String implements fmt.Stringer.
func (i Issue) String() string {
	return i.Kind.Label() + ": " + i.Message
}
