package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/causalite/causalite/pkg/cache"
	"github.com/causalite/causalite/pkg/data"
	"github.com/causalite/causalite/pkg/errors"
	"github.com/causalite/causalite/pkg/knowledge"
	"github.com/causalite/causalite/pkg/search"
	"github.com/causalite/causalite/pkg/search/boss"
	"github.com/causalite/causalite/pkg/store"
)

// searchOpts holds the command-line flags for the search command.
type searchOpts struct {
	algorithm     string // move family: "boss" or "grasp"
	knowledgePath string // TOML background-knowledge file
	penalty       float64
	starts        int
	seed          int64
	maxParents    int
	maxIterations int
	skipBackward  bool
	dag           bool    // emit the DAG instead of its CPDAG
	latent        bool    // finalize as a PAG
	alpha         float64 // independence level for --latent
	depth         int
	maxPathLength int
	output        string
	format        string
	noCache       bool
	noSave        bool
	plain         bool // disable the interactive progress view
}

// searchCommand creates the search command, the main entry point of the tool.
func (c *CLI) searchCommand() *cobra.Command {
	opts := searchOpts{format: "text"}

	cmd := &cobra.Command{
		Use:   "search <dataset.csv>",
		Short: "Run a causal structure search over a CSV dataset",
		Long: `Run a permutation-based causal structure search over a CSV dataset.

The dataset must have a header row of variable names and numeric data rows.
The output is a CPDAG by default; use --dag for the raw DAG or --latent for
a PAG with FCI-style circle endpoints.

Examples:
  causalite search data.csv
  causalite search data.csv -a grasp --starts 8 --seed 7
  causalite search data.csv --knowledge priors.toml --format svg -o out.svg
  causalite search data.csv --latent --alpha 0.01`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applySearchDefaults(cmd, &opts)
			return c.runSearch(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.algorithm, "algorithm", "a", "", "search algorithm: boss (default), grasp")
	cmd.Flags().StringVarP(&opts.knowledgePath, "knowledge", "k", "", "TOML background-knowledge file")
	cmd.Flags().Float64Var(&opts.penalty, "penalty", 0, "SEM-BIC penalty discount (default 2)")
	cmd.Flags().IntVar(&opts.starts, "starts", 0, "number of random restarts (default 1)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "restart shuffle seed")
	cmd.Flags().IntVar(&opts.maxParents, "max-parents", 0, "per-variable parent bound (0 = unbounded)")
	cmd.Flags().IntVar(&opts.maxIterations, "max-iterations", 0, "per-restart sweep cap (0 = unbounded)")
	cmd.Flags().BoolVar(&opts.skipBackward, "skip-backward", false, "disable the backward equivalence search")
	cmd.Flags().BoolVar(&opts.dag, "dag", false, "output the DAG instead of its CPDAG")
	cmd.Flags().BoolVar(&opts.latent, "latent", false, "allow latent confounders: finalize as a PAG")
	cmd.Flags().Float64Var(&opts.alpha, "alpha", 0, "independence test level for --latent (default 0.01)")
	cmd.Flags().IntVar(&opts.depth, "depth", 0, "conditioning set bound for --latent (0 = unbounded)")
	cmd.Flags().IntVar(&opts.maxPathLength, "max-path-length", 0, "discriminating path bound for --latent (0 = unbounded)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout for textual formats if empty)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: text (default), json, dot, svg, png")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the result cache")
	cmd.Flags().BoolVar(&opts.noSave, "no-save", false, "do not persist the run in the run store")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "plain progress output instead of the interactive view")

	return cmd
}

// applySearchDefaults fills flag values the user did not set from the config
// file, so flags override config and config overrides built-in defaults.
func (c *CLI) applySearchDefaults(cmd *cobra.Command, opts *searchOpts) {
	cfg := c.Config.Search
	if !cmd.Flags().Changed("algorithm") && cfg.Algorithm != "" {
		opts.algorithm = cfg.Algorithm
	}
	if !cmd.Flags().Changed("penalty") {
		opts.penalty = cfg.PenaltyDiscount
	}
	if !cmd.Flags().Changed("starts") {
		opts.starts = cfg.NumStarts
	}
	if !cmd.Flags().Changed("seed") {
		opts.seed = cfg.Seed
	}
	if !cmd.Flags().Changed("max-parents") {
		opts.maxParents = cfg.MaxParents
	}
	if !cmd.Flags().Changed("max-iterations") {
		opts.maxIterations = cfg.MaxIterations
	}
	if !cmd.Flags().Changed("alpha") {
		opts.alpha = cfg.Alpha
	}
	if !cmd.Flags().Changed("depth") {
		opts.depth = cfg.Depth
	}
	if !cmd.Flags().Changed("max-path-length") {
		opts.maxPathLength = cfg.MaxPathLength
	}
}

// searchFingerprint is the cache-key view of a search invocation: everything
// that changes the result, nothing that does not (progress sinks, output).
type searchFingerprint struct {
	Algorithm     string  `json:"algorithm"`
	Knowledge     string  `json:"knowledge"` // hash of the knowledge file, "" if none
	Penalty       float64 `json:"penalty"`
	Starts        int     `json:"starts"`
	Seed          int64   `json:"seed"`
	MaxParents    int     `json:"max_parents"`
	MaxIterations int     `json:"max_iterations"`
	SkipBackward  bool    `json:"skip_backward"`
	DAG           bool    `json:"dag"`
	Latent        bool    `json:"latent"`
	Alpha         float64 `json:"alpha"`
	Depth         int     `json:"depth"`
	MaxPathLength int     `json:"max_path_length"`
}

// runSearch loads the dataset, consults the cache, runs the search if
// needed, persists the run, and writes the graph in the requested format.
func (c *CLI) runSearch(ctx context.Context, input string, opts *searchOpts) error {
	logger := loggerFromContext(ctx)

	if err := errors.ValidatePath(input); err != nil {
		return err
	}
	if err := errors.ValidateGraphFormat(opts.format); err != nil {
		return err
	}
	algorithm, err := search.ParseAlgorithm(defaultString(opts.algorithm, string(search.AlgorithmBOSS)))
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read dataset %s: %w", input, err)
	}
	d, err := data.ReadCSV(bytes.NewReader(raw))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidData, err, "dataset rejected")
	}
	logger.Debugf("Loaded dataset: %d variables, %d samples", d.ColumnCount(), d.SampleSize())

	var kn *knowledge.Knowledge
	knHash := ""
	if opts.knowledgePath != "" {
		knRaw, err := os.ReadFile(opts.knowledgePath)
		if err != nil {
			return fmt.Errorf("read knowledge %s: %w", opts.knowledgePath, err)
		}
		kn, err = knowledge.Parse(knRaw)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidKnowledge, err, "knowledge file rejected")
		}
		knHash = cache.Hash(knRaw)
	}

	fp := searchFingerprint{
		Algorithm:     string(algorithm),
		Knowledge:     knHash,
		Penalty:       opts.penalty,
		Starts:        opts.starts,
		Seed:          opts.seed,
		MaxParents:    opts.maxParents,
		MaxIterations: opts.maxIterations,
		SkipBackward:  opts.skipBackward,
		DAG:           opts.dag,
		Latent:        opts.latent,
		Alpha:         opts.alpha,
		Depth:         opts.depth,
		MaxPathLength: opts.maxPathLength,
	}
	resultCache := c.newCache(opts.noCache)
	defer resultCache.Close()
	key := cache.ResultKey(cache.Hash(raw), fp)

	rec, cached, err := resultCache.Get(ctx, key)
	if err != nil {
		logger.Warnf("Cache read failed: %v", err)
	}

	if !cached {
		searchOptions := search.Options{
			Algorithm:       algorithm,
			Knowledge:       kn,
			PenaltyDiscount: opts.penalty,
			MaxParents:      opts.maxParents,
			NumStarts:       opts.starts,
			Seed:            opts.seed,
			MaxIterations:   opts.maxIterations,
			SkipBackward:    opts.skipBackward,
			OutputDAG:       opts.dag,
			Latent:          opts.latent,
			Alpha:           opts.alpha,
			Depth:           opts.depth,
			MaxPathLength:   opts.maxPathLength,
		}

		var res *search.Result
		if opts.plain {
			res, err = c.searchWithSpinner(ctx, d, searchOptions, input)
		} else {
			res, err = c.searchWithView(ctx, d, searchOptions, filepath.Base(input))
		}
		if err != nil {
			return err
		}
		if res.Status != boss.StatusCompleted {
			printWarning("Search %s", res.Status)
		}

		rec = store.NewRecord(res)
		if err := resultCache.Set(ctx, key, rec, defaultCacheTTL); err != nil {
			logger.Warnf("Cache write failed: %v", err)
		}
		if !opts.noSave {
			if err := c.saveRun(ctx, rec); err != nil {
				logger.Warnf("Run not saved: %v", err)
			}
		}
	}

	g, err := graphFromRecord(rec)
	if err != nil {
		return err
	}

	if err := c.writeGraphOutput(ctx, g, opts.format, opts.output, input); err != nil {
		return err
	}

	printStats(g.NodeCount(), g.EdgeCount(), rec.Score, cached)
	if !opts.noSave {
		printNextStep("Render it later", fmt.Sprintf("causalite render %s --format svg", rec.ID))
	}
	return nil
}

// searchWithSpinner runs the search behind a single-line spinner that
// reports live score improvements.
func (c *CLI) searchWithSpinner(ctx context.Context, d *data.Dataset, opts search.Options, input string) (*search.Result, error) {
	prog := newProgress(loggerFromContext(ctx))
	sp := newSpinnerWithContext(ctx, fmt.Sprintf("Searching %s (%s)", input, opts.Algorithm))
	opts.Progress = func(ev boss.Event) {
		sp.SetMessage(fmt.Sprintf("Searching %s (%s) · restart %d · %s · score %.2f",
			input, opts.Algorithm, ev.Restart+1, ev.Phase, ev.Score))
	}
	sp.Start()

	res, err := search.Run(ctx, d, opts)
	if err != nil {
		sp.StopWithError("Search failed")
		return nil, err
	}
	sp.Stop()
	prog.done(fmt.Sprintf("Search finished: score %.2f", res.Score))
	return res, nil
}

// saveRun persists a run record in the configured run store.
func (c *CLI) saveRun(ctx context.Context, rec *store.Record) error {
	s, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Save(ctx, rec)
}

// defaultString returns s, or fallback when s is empty.
func defaultString(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
