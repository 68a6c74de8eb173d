// Package graphio serializes causal graphs: JSON documents for storage and
// the HTTP API, plain-text edge lists for terminals, and Graphviz DOT with
// rendered SVG/PNG output.
package graphio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/causalite/causalite/pkg/graph"
)

var endpointToString = map[graph.Endpoint]string{
	graph.Tail:   "tail",
	graph.Arrow:  "arrow",
	graph.Circle: "circle",
}

var stringToEndpoint = map[string]graph.Endpoint{
	"tail":   graph.Tail,
	"arrow":  graph.Arrow,
	"circle": graph.Circle,
}

// Document is the serialized form of a graph. The same shape is embedded in
// stored run records, so fields carry both JSON and BSON tags.
type Document struct {
	Variables []Variable `json:"variables" bson:"variables"`
	Edges     []Edge     `json:"edges" bson:"edges"`
}

// Variable is one serialized node.
type Variable struct {
	Name       string `json:"name" bson:"name"`
	Type       string `json:"type,omitempty" bson:"type,omitempty"`
	Categories int    `json:"categories,omitempty" bson:"categories,omitempty"`
}

// Edge is one serialized edge with its endpoint marks.
type Edge struct {
	From    string `json:"from" bson:"from"`
	To      string `json:"to" bson:"to"`
	MarkAtA string `json:"markFrom" bson:"markFrom"`
	MarkAtB string `json:"markTo" bson:"markTo"`
}

// ToDocument converts a graph into its serializable form. Variables keep
// insertion order; edges are emitted in the graph's sorted order.
func ToDocument(g *graph.Graph) Document {
	doc := Document{
		Variables: make([]Variable, 0, g.NodeCount()),
		Edges:     make([]Edge, 0, g.EdgeCount()),
	}
	for _, n := range g.Nodes() {
		v := Variable{Name: n.Name, Categories: n.Categories}
		if n.Type != graph.Continuous {
			v.Type = n.Type.String()
		}
		doc.Variables = append(doc.Variables, v)
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, Edge{
			From:    e.A,
			To:      e.B,
			MarkAtA: endpointToString[e.EndA],
			MarkAtB: endpointToString[e.EndB],
		})
	}
	return doc
}

// FromDocument reconstructs a graph from its serialized form.
func FromDocument(doc Document) (*graph.Graph, error) {
	g := graph.New()
	for _, v := range doc.Variables {
		n := graph.NewNode(v.Name)
		switch v.Type {
		case "", "continuous":
		case "discrete":
			n = graph.NewDiscreteNode(v.Name, v.Categories)
		case "latent":
			n = graph.NewLatentNode(v.Name)
		default:
			return nil, fmt.Errorf("unknown variable type %q", v.Type)
		}
		if err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("variable %s: %w", v.Name, err)
		}
	}
	for _, e := range doc.Edges {
		ma, ok := stringToEndpoint[e.MarkAtA]
		if !ok {
			return nil, fmt.Errorf("edge %s - %s: unknown mark %q", e.From, e.To, e.MarkAtA)
		}
		mb, ok := stringToEndpoint[e.MarkAtB]
		if !ok {
			return nil, fmt.Errorf("edge %s - %s: unknown mark %q", e.From, e.To, e.MarkAtB)
		}
		if err := g.SetEdge(e.From, ma, e.To, mb); err != nil {
			return nil, fmt.Errorf("edge %s - %s: %w", e.From, e.To, err)
		}
	}
	return g, nil
}

// WriteJSON encodes a graph as indented JSON and writes it to w.
// The output can be re-imported with [ReadJSON] for round-trip processing.
func WriteJSON(g *graph.Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ToDocument(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a graph from JSON.
func ReadJSON(r io.Reader) (*graph.Graph, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return FromDocument(doc)
}

// ExportJSON writes a graph to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(g *graph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(g, f)
}

// ImportJSON reads a graph from a JSON file at path.
func ImportJSON(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
