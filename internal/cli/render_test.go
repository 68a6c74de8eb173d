package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/causalite/causalite/pkg/graph"
)

func testGraph() *graph.Graph {
	g := graph.New(graph.NewNode("a"), graph.NewNode("b"), graph.NewNode("c"))
	g.AddDirected("a", "b")
	g.AddUndirected("b", "c")
	return g
}

func TestEncodeGraphFormats(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"text", "a --> b"},
		{"json", `"variables"`},
		{"dot", "digraph"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out, err := encodeGraph(context.Background(), testGraph(), tt.format)
			if err != nil {
				t.Fatalf("encodeGraph(%s) error = %v", tt.format, err)
			}
			if !strings.Contains(string(out), tt.want) {
				t.Errorf("encodeGraph(%s) = %q, want substring %q", tt.format, out, tt.want)
			}
		})
	}
}

func TestEncodeGraphRejectsUnknownFormat(t *testing.T) {
	if _, err := encodeGraph(context.Background(), testGraph(), "pdf"); err == nil {
		t.Error("unknown format should be rejected")
	}
}

func TestBinaryFormat(t *testing.T) {
	tests := []struct {
		format string
		want   bool
	}{
		{"svg", true},
		{"PNG", true},
		{"text", false},
		{"json", false},
		{"dot", false},
	}
	for _, tt := range tests {
		if got := binaryFormat(tt.format); got != tt.want {
			t.Errorf("binaryFormat(%q) = %v, want %v", tt.format, got, tt.want)
		}
	}
}

func TestWriteGraphOutputToFile(t *testing.T) {
	c := New(os.Stderr, LogInfo)
	path := filepath.Join(t.TempDir(), "graph.json")

	if err := c.writeGraphOutput(context.Background(), testGraph(), "json", path, "input.csv"); err != nil {
		t.Fatalf("writeGraphOutput() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("output file not written: %v", err)
	}
	if !strings.Contains(string(data), `"edges"`) {
		t.Errorf("output = %q, want graph JSON", data)
	}
}
