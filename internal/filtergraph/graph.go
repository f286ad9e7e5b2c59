// Package filtergraph builds ffmpeg filter_complex expressions from typed
// fragments. Each fragment is one filter chain: the labels it consumes, the
// filters it applies, and the labels it produces. Fragments serialize to text
// only at the boundary, in insertion order, so the graph ffmpeg evaluates is
// exactly the graph that was constructed.
package filtergraph

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Static errors for graph construction.
var (
	// ErrEmptyGraph is returned when a graph with no fragments is serialized.
	ErrEmptyGraph = errors.New("filtergraph: graph has no fragments")
	// ErrMissingName is returned when a filter has no name.
	ErrMissingName = errors.New("filtergraph: filter name is required")
)

// Param is one key-value filter parameter. Order is preserved because ffmpeg
// also accepts positional parameters and some filters care about order.
type Param struct {
	Key   string
	Value string
}

// Filter is a single filter invocation: a name plus ordered parameters.
type Filter struct {
	Name   string
	Params []Param
}

// NewFilter creates a Filter with no parameters.
func NewFilter(name string) Filter {
	return Filter{Name: name}
}

// With appends a key=value parameter and returns the filter for chaining.
func (f Filter) With(key, value string) Filter {
	f.Params = append(f.Params, Param{Key: key, Value: value})
	return f
}

// WithInt appends an integer parameter.
func (f Filter) WithInt(key string, value int) Filter {
	return f.With(key, strconv.Itoa(value))
}

// WithFloat appends a float parameter formatted with minimal digits.
func (f Filter) WithFloat(key string, value float64) Filter {
	return f.With(key, FormatFloat(value))
}

func (f Filter) render(sb *strings.Builder) error {
	if f.Name == "" {
		return ErrMissingName
	}
	sb.WriteString(f.Name)
	for i, p := range f.Params {
		if i == 0 {
			sb.WriteByte('=')
		} else {
			sb.WriteByte(':')
		}
		if p.Key != "" {
			sb.WriteString(p.Key)
			sb.WriteByte('=')
		}
		sb.WriteString(p.Value)
	}
	return nil
}

// Fragment is one chain of the graph: input labels, filters applied in
// sequence, output labels.
type Fragment struct {
	Inputs  []string
	Filters []Filter
	Outputs []string
}

func (fr Fragment) render(sb *strings.Builder) error {
	if len(fr.Filters) == 0 {
		return ErrMissingName
	}
	for _, in := range fr.Inputs {
		fmt.Fprintf(sb, "[%s]", in)
	}
	for i, f := range fr.Filters {
		if i > 0 {
			sb.WriteByte(',')
		}
		if err := f.render(sb); err != nil {
			return err
		}
	}
	for _, out := range fr.Outputs {
		fmt.Fprintf(sb, "[%s]", out)
	}
	return nil
}

// Graph is an ordered list of fragments.
type Graph struct {
	fragments []Fragment
}

// Add appends a fragment to the graph.
func (g *Graph) Add(inputs []string, outputs []string, filters ...Filter) *Graph {
	g.fragments = append(g.fragments, Fragment{Inputs: inputs, Filters: filters, Outputs: outputs})
	return g
}

// Chain is shorthand for a fragment with one input and one output label.
func (g *Graph) Chain(input, output string, filters ...Filter) *Graph {
	var in, out []string
	if input != "" {
		in = []string{input}
	}
	if output != "" {
		out = []string{output}
	}
	return g.Add(in, out, filters...)
}

// Len returns the number of fragments in the graph.
func (g *Graph) Len() int {
	return len(g.fragments)
}

// String serializes the graph, joining fragments with semicolons.
// Returns an error for an empty graph or a fragment with an unnamed filter.
func (g *Graph) String() (string, error) {
	if len(g.fragments) == 0 {
		return "", ErrEmptyGraph
	}
	var sb strings.Builder
	for i, fr := range g.fragments {
		if i > 0 {
			sb.WriteByte(';')
		}
		if err := fr.render(&sb); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

// FormatFloat renders a float the way ffmpeg expects: no exponent, no
// trailing zeros beyond what the value needs.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// EscapePath makes a filesystem path safe for use inside a filter parameter.
// Backslashes become forward slashes and drive-style colons are escaped,
// because a bare colon is the filter-option separator and would silently
// corrupt the graph. The transformation is idempotent: an already-escaped
// path passes through unchanged.
func EscapePath(path string) string {
	// Undo any prior escaping so a second pass cannot double-escape.
	path = strings.ReplaceAll(path, `\:`, ":")
	path = strings.ReplaceAll(path, `\`, "/")
	return strings.ReplaceAll(path, ":", `\:`)
}
