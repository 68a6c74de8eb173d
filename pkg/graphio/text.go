package graphio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/causalite/causalite/pkg/graph"
)

// WriteText writes a graph as a plain edge list, one edge per line in
// conventional notation ("A --> B", "A o-> B", "A --- B"). Isolated
// variables are listed after the edges, one per line, so the variable set
// survives a round trip through [ReadText].
func WriteText(g *graph.Graph, w io.Writer) error {
	connected := map[string]bool{}
	for _, e := range g.Edges() {
		if _, err := fmt.Fprintln(w, e.String()); err != nil {
			return err
		}
		connected[e.A] = true
		connected[e.B] = true
	}
	for _, name := range g.NodeNames() {
		if connected[name] {
			continue
		}
		if _, err := fmt.Fprintln(w, name); err != nil {
			return err
		}
	}
	return nil
}

// ReadText parses the edge-list format produced by [WriteText]. Lines are
// either "<name> <mark> <name>" or a bare variable name; blank lines and
// lines starting with # are skipped.
func ReadText(r io.Reader) (*graph.Graph, error) {
	g := graph.New()
	ensure := func(name string) error {
		if _, ok := g.Node(name); ok {
			return nil
		}
		return g.AddNode(graph.NewNode(name))
	}

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		switch len(fields) {
		case 1:
			if err := ensure(fields[0]); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		case 3:
			a, mark, b := fields[0], fields[1], fields[2]
			endA, endB, err := parseMark(mark)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			if err := ensure(a); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			if err := ensure(b); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			if err := g.SetEdge(a, endA, b, endB); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		default:
			return nil, fmt.Errorf("line %d: expected %q or a variable name, got %q", line, "A --> B", text)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return g, nil
}

// parseMark decodes a three-character edge mark like "-->", "o->", "<->",
// "---", or "o-o" into its two endpoints.
func parseMark(mark string) (graph.Endpoint, graph.Endpoint, error) {
	if len(mark) != 3 || mark[1] != '-' {
		return 0, 0, fmt.Errorf("unknown edge mark %q", mark)
	}
	left, ok := parseEnd(mark[0], '<')
	if !ok {
		return 0, 0, fmt.Errorf("unknown edge mark %q", mark)
	}
	right, ok := parseEnd(mark[2], '>')
	if !ok {
		return 0, 0, fmt.Errorf("unknown edge mark %q", mark)
	}
	return left, right, nil
}

func parseEnd(c, arrow byte) (graph.Endpoint, bool) {
	switch c {
	case arrow:
		return graph.Arrow, true
	case 'o':
		return graph.Circle, true
	case '-':
		return graph.Tail, true
	default:
		return 0, false
	}
}
