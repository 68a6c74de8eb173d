package graphio

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/causalite/causalite/pkg/graph"
)

// DOTOptions configures DOT output.
type DOTOptions struct {
	// Name sets the digraph name; empty defaults to "G".
	Name string
	// Landscape lays ranks left-to-right instead of top-to-bottom.
	Landscape bool
}

var arrowShape = map[graph.Endpoint]string{
	graph.Tail:   "none",
	graph.Arrow:  "normal",
	graph.Circle: "odot",
}

// ToDOT converts a graph to Graphviz DOT format. Every edge is emitted with
// dir=both and explicit arrowtail/arrowhead shapes so circle and tail marks
// render faithfully for CPDAGs and PAGs, not just DAGs. Latent variables are
// drawn with dashed outlines.
//
// The resulting DOT string can be rendered using [RenderSVG] or [RenderPNG].
func ToDOT(g *graph.Graph, opts DOTOptions) string {
	name := opts.Name
	if name == "" {
		name = "G"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %q {\n", name)
	if opts.Landscape {
		buf.WriteString("  rankdir=LR;\n")
	}
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=ellipse, style=filled, fillcolor=white, fontsize=14];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		if n.Type == graph.Latent {
			fmt.Fprintf(&buf, "  %q [style=\"filled,dashed\"];\n", n.Name)
		} else {
			fmt.Fprintf(&buf, "  %q;\n", n.Name)
		}
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q [dir=both, arrowtail=%s, arrowhead=%s];\n",
			e.A, e.B, arrowShape[e.EndA], arrowShape[e.EndB])
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.SVG)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
