package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/causalite/causalite/pkg/errors"
	"github.com/causalite/causalite/pkg/graph"
	"github.com/causalite/causalite/pkg/graphio"
	"github.com/causalite/causalite/pkg/store"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output string // output file path; stdout for textual formats if empty
	format string // output format: text, json, dot, svg, png
}

// renderCommand creates the render command. It accepts either a stored run
// ID or a graph JSON file and re-emits the graph in any supported format.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{format: "svg"}

	cmd := &cobra.Command{
		Use:   "render <run-id-or-graph.json>",
		Short: "Render a stored run or a graph file",
		Long: `Render a causal graph to any supported format.

The argument is either the ID of a stored run (see "causalite runs") or the
path of a graph JSON file written by a previous search.

Examples:
  causalite render 7c9e6679-7425-40de-944b-e07fc1f90ae7 --format svg
  causalite render graph.json --format text
  causalite render graph.json -f png -o graph.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (derived from input for svg/png if empty)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg (default), png, dot, text, json")

	return cmd
}

// runRender resolves the argument to a graph and writes it out.
func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	if err := errors.ValidateGraphFormat(opts.format); err != nil {
		return err
	}

	g, err := c.loadGraph(ctx, input)
	if err != nil {
		return err
	}
	logger.Debugf("Loaded graph: %d variables, %d edges", g.NodeCount(), g.EdgeCount())

	return c.writeGraphOutput(ctx, g, opts.format, opts.output, input)
}

// loadGraph resolves a run ID via the run store, or falls back to reading
// the argument as a graph JSON file.
func (c *CLI) loadGraph(ctx context.Context, input string) (*graph.Graph, error) {
	if errors.ValidateRunID(input) == nil {
		s, err := c.newStore(ctx)
		if err != nil {
			return nil, err
		}
		defer s.Close()

		rec, err := s.Get(ctx, input)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeRunNotFound, err, "run %s", input)
		}
		return graphFromRecord(rec)
	}

	if err := errors.ValidatePath(input); err != nil {
		return nil, err
	}
	return graphio.ImportJSON(input)
}

// =============================================================================
// Format Dispatch
// =============================================================================

// encodeGraph serializes a graph in the requested format. SVG and PNG go
// through DOT and graphviz; the rest are native encoders.
func encodeGraph(ctx context.Context, g *graph.Graph, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json":
		var buf bytes.Buffer
		if err := graphio.WriteJSON(g, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "text":
		var buf bytes.Buffer
		if err := graphio.WriteText(g, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "dot":
		return []byte(graphio.ToDOT(g, graphio.DOTOptions{Name: appName})), nil
	case "svg":
		return graphio.RenderSVG(ctx, graphio.ToDOT(g, graphio.DOTOptions{Name: appName}))
	case "png":
		return graphio.RenderPNG(ctx, graphio.ToDOT(g, graphio.DOTOptions{Name: appName}))
	default:
		return nil, errors.ValidateGraphFormat(format)
	}
}

// binaryFormat reports whether the format should never go to a terminal.
func binaryFormat(format string) bool {
	switch strings.ToLower(format) {
	case "svg", "png":
		return true
	}
	return false
}

// writeGraphOutput encodes the graph and writes it to the output path.
// Textual formats default to stdout; svg and png derive a file name from
// the input when no output is given.
func (c *CLI) writeGraphOutput(ctx context.Context, g *graph.Graph, format, output, input string) error {
	data, err := encodeGraph(ctx, g, format)
	if err != nil {
		return err
	}

	if output == "" {
		if !binaryFormat(format) {
			_, err := os.Stdout.Write(data)
			return err
		}
		base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		output = base + "." + strings.ToLower(format)
	}

	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	printFile(output)
	return nil
}

// graphFromRecord rebuilds the output graph stored in a run record.
func graphFromRecord(rec *store.Record) (*graph.Graph, error) {
	g, err := graphio.FromDocument(rec.Graph)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "stored graph is corrupt")
	}
	return g, nil
}
