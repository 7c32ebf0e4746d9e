// Package markup turns a stream of HTML bytes into an ordered stream of
// element events: an element opened, an element closed, or an element that
// opened and can never receive a matching close.
//
// It is a thin layer over the golang.org/x/net/html tokenizer. Only the names
// of currently open elements are retained, so memory is bounded by nesting
// depth rather than document size.
package markup

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html"
)

// Kind identifies an Event.
type Kind int

// Event kinds emitted by a Source, in document order.
const (
	// Open is emitted for an element whose close will be signalled later,
	// either by its end tag, an implied end, or not at all if the input ends.
	Open Kind = iota
	// Close is emitted exactly once for each Open, innermost first.
	Close
	// OpenNoClose is emitted for void and self-closing elements.
	OpenNoClose
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Open:
		return "open"
	case Close:
		return "close"
	case OpenNoClose:
		return "open-no-close"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is a single element transition. Tag and Attrs are set for Open and
// OpenNoClose; Close carries the Tag of the element being closed.
type Event struct {
	Kind  Kind
	Tag   string
	Attrs []html.Attribute
}

// Options tunes a Source.
type Options struct {
	// MaxTokenBytes caps the bytes buffered for a single token. Zero means no limit.
	MaxTokenBytes int
}

// Source reads HTML from an io.Reader and yields Events.
type Source struct {
	z       *html.Tokenizer
	open    []string
	pending []Event
}

// NewSource creates a Source reading from r.
func NewSource(r io.Reader, opts Options) *Source {
	z := html.NewTokenizer(r)
	if opts.MaxTokenBytes > 0 {
		z.SetMaxBuf(opts.MaxTokenBytes)
	}
	return &Source{z: z}
}

// Depth returns the number of elements currently open.
func (s *Source) Depth() int {
	return len(s.open)
}

// Next returns the next Event. It returns io.EOF once the input is exhausted;
// elements still open at that point receive no Close. Any other error means
// the input could not be tokenized.
func (s *Source) Next() (Event, error) {
	for len(s.pending) == 0 {
		tt := s.z.Next()
		switch tt {
		case html.ErrorToken:
			err := s.z.Err()
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			return Event{}, fmt.Errorf("tokenize: %w", err)
		case html.StartTagToken:
			tok := s.z.Token()
			s.closeImplied(tok.Data)
			if isVoid(tok.Data) {
				s.pending = append(s.pending, Event{Kind: OpenNoClose, Tag: tok.Data, Attrs: tok.Attr})
				continue
			}
			s.open = append(s.open, tok.Data)
			s.pending = append(s.pending, Event{Kind: Open, Tag: tok.Data, Attrs: tok.Attr})
		case html.SelfClosingTagToken:
			tok := s.z.Token()
			s.closeImplied(tok.Data)
			s.pending = append(s.pending, Event{Kind: OpenNoClose, Tag: tok.Data, Attrs: tok.Attr})
		case html.EndTagToken:
			name, _ := s.z.TagName()
			s.closeTo(string(name))
		default:
			// Text, comments and doctypes carry no element structure.
		}
	}
	ev := s.pending[0]
	s.pending = s.pending[1:]
	return ev, nil
}

// closeTo closes every element above and including the innermost open element
// named tag. An end tag with no matching open element is ignored.
func (s *Source) closeTo(tag string) {
	for i := len(s.open) - 1; i >= 0; i-- {
		if s.open[i] == tag {
			s.closeFrom(i)
			return
		}
	}
}

// closeFrom emits a Close for open[i] and every element above it, innermost first.
func (s *Source) closeFrom(i int) {
	for j := len(s.open) - 1; j >= i; j-- {
		s.pending = append(s.pending, Event{Kind: Close, Tag: s.open[j]})
	}
	s.open = s.open[:i]
}

// closeImplied closes open elements whose end tag is implied by a new start tag,
// e.g. an open <li> when the next <li> begins. Elements opened inside the
// implied one are closed with it.
func (s *Source) closeImplied(tag string) {
	rule, ok := impliedEnds[tag]
	if !ok {
		return
	}
	for {
		i := s.impliedIndex(rule)
		if i < 0 {
			return
		}
		s.closeFrom(i)
	}
}

// impliedIndex finds the innermost open element rule closes, or -1 when a
// barrier or the bottom of the stack comes first.
func (s *Source) impliedIndex(rule impliedEnd) int {
	for i := len(s.open) - 1; i >= 0; i-- {
		name := s.open[i]
		if _, ok := rule.closes[name]; ok {
			return i
		}
		if rule.barriers == nil {
			return -1
		}
		if _, ok := rule.barriers[name]; ok {
			return -1
		}
	}
	return -1
}
