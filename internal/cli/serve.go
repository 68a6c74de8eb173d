package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/causalite/causalite/pkg/cache"
	"github.com/causalite/causalite/pkg/data"
	"github.com/causalite/causalite/pkg/errors"
	"github.com/causalite/causalite/pkg/knowledge"
	"github.com/causalite/causalite/pkg/search"
	"github.com/causalite/causalite/pkg/store"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr    string
	maxBody int64 // request body limit in bytes
}

// serveCommand creates the serve command exposing the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{addr: ":8080", maxBody: 32 << 20}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the causalite HTTP API",
		Long: `Serve an HTTP API for submitting searches and fetching stored runs.

Endpoints:
  POST   /api/runs             multipart: "dataset" (CSV), optional "options" (JSON), "knowledge" (TOML)
  GET    /api/runs             list stored runs
  GET    /api/runs/{id}        fetch one run
  DELETE /api/runs/{id}        delete a run
  GET    /api/runs/{id}/graph  fetch the graph (?format=json|text|dot|svg|png)

The run store backend comes from the [store] section of causalite.toml.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().Int64Var(&opts.maxBody, "max-body", opts.maxBody, "maximum request body size in bytes")

	return cmd
}

// server holds the HTTP API's dependencies.
type server struct {
	cli     *CLI
	store   store.Store
	cache   cache.Cache
	maxBody int64
}

// runServe starts the HTTP server and blocks until interrupted.
func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	logger := loggerFromContext(ctx)

	st, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	srv := &server{
		cli:     c,
		store:   st,
		cache:   cache.Instrumented(cache.NewMemoryCache(), "search-result"),
		maxBody: opts.maxBody,
	}
	httpSrv := &http.Server{
		Addr:              opts.addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Serving on %s (store: %s)", opts.addr, c.Config.Store.Backend)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}

// routes builds the chi router.
func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api/runs", func(r chi.Router) {
		r.Post("/", s.handleSubmit)
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGet)
		r.Delete("/{id}", s.handleDelete)
		r.Get("/{id}/graph", s.handleGraph)
	})

	return r
}

// apiSearchOptions is the JSON shape of the "options" multipart field.
type apiSearchOptions struct {
	Algorithm     string  `json:"algorithm"`
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

// handleSubmit runs a search over an uploaded dataset and stores the result.
func (s *server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := r.ParseMultipartForm(s.maxBody); err != nil {
		writeAPIError(w, errors.New(errors.ErrCodeInvalidInput, "multipart form required"))
		return
	}

	file, _, err := r.FormFile("dataset")
	if err != nil {
		writeAPIError(w, errors.New(errors.ErrCodeInvalidInput, "missing dataset file"))
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeAPIError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "dataset upload"))
		return
	}
	d, err := data.ReadCSV(bytes.NewReader(raw))
	if err != nil {
		writeAPIError(w, errors.Wrap(errors.ErrCodeInvalidData, err, "dataset rejected"))
		return
	}

	var api apiSearchOptions
	if opts := r.FormValue("options"); opts != "" {
		if err := json.Unmarshal([]byte(opts), &api); err != nil {
			writeAPIError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "options rejected"))
			return
		}
	}

	var kn *knowledge.Knowledge
	knHash := ""
	if knFile, _, err := r.FormFile("knowledge"); err == nil {
		defer knFile.Close()
		knRaw, err := io.ReadAll(io.LimitReader(knFile, s.maxBody))
		if err != nil {
			writeAPIError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "knowledge upload"))
			return
		}
		kn, err = knowledge.Parse(knRaw)
		if err != nil {
			writeAPIError(w, errors.Wrap(errors.ErrCodeInvalidKnowledge, err, "knowledge file rejected"))
			return
		}
		knHash = cache.Hash(knRaw)
	}

	// A repeated upload of the same dataset and configuration reuses the
	// run finished earlier in this process.
	key := cache.ResultKey(cache.Hash(raw), struct {
		Options   apiSearchOptions `json:"options"`
		Knowledge string           `json:"knowledge"`
	}{api, knHash})
	if rec, ok, _ := s.cache.Get(r.Context(), key); ok {
		writeJSON(w, http.StatusOK, rec)
		return
	}

	res, err := search.Run(r.Context(), d, search.Options{
		Algorithm:       search.Algorithm(defaultString(api.Algorithm, string(search.AlgorithmBOSS))),
		Knowledge:       kn,
		PenaltyDiscount: api.Penalty,
		MaxParents:      api.MaxParents,
		NumStarts:       api.Starts,
		Seed:            api.Seed,
		MaxIterations:   api.MaxIterations,
		SkipBackward:    api.SkipBackward,
		OutputDAG:       api.DAG,
		Latent:          api.Latent,
		Alpha:           api.Alpha,
		Depth:           api.Depth,
		MaxPathLength:   api.MaxPathLength,
	})
	if err != nil {
		writeAPIError(w, err)
		return
	}

	rec := store.NewRecord(res)
	if err := s.store.Save(r.Context(), rec); err != nil {
		writeAPIError(w, err)
		return
	}
	_ = s.cache.Set(r.Context(), key, rec, defaultCacheTTL)
	writeJSON(w, http.StatusCreated, rec)
}

// handleList returns all stored runs.
func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.List(r.Context())
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// handleGet returns one run by ID.
func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.fetchRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleDelete removes a run.
func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateRunID(id); err != nil {
		writeAPIError(w, err)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		writeAPIError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGraph returns the run's graph in the requested format.
func (s *server) handleGraph(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.fetchRun(w, r)
	if !ok {
		return
	}

	format := defaultString(r.URL.Query().Get("format"), "json")
	if err := errors.ValidateGraphFormat(format); err != nil {
		writeAPIError(w, err)
		return
	}

	g, err := graphFromRecord(rec)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	payload, err := encodeGraph(r.Context(), g, format)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	w.Header().Set("Content-Type", graphContentType(format))
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

// fetchRun resolves the {id} URL parameter to a stored run, writing the
// error response itself when the run cannot be served.
func (s *server) fetchRun(w http.ResponseWriter, r *http.Request) (*store.Record, bool) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateRunID(id); err != nil {
		writeAPIError(w, err)
		return nil, false
	}
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeAPIError(w, errors.Wrap(errors.ErrCodeRunNotFound, err, "run %s", id))
		return nil, false
	}
	return rec, true
}

// graphContentType maps a graph format to its MIME type.
func graphContentType(format string) string {
	switch strings.ToLower(format) {
	case "json":
		return "application/json"
	case "svg":
		return "image/svg+xml"
	case "png":
		return "image/png"
	default:
		return "text/plain; charset=utf-8"
	}
}

// writeJSON writes v as an indented JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// apiError is the JSON error body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeAPIError maps a structured error to an HTTP status and JSON body.
func writeAPIError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := http.StatusInternalServerError
	switch {
	case code == errors.ErrCodeRunNotFound || code == errors.ErrCodeNotFound || code == errors.ErrCodeFileNotFound:
		status = http.StatusNotFound
	case strings.HasPrefix(string(code), "INVALID"):
		status = http.StatusBadRequest
	case code == errors.ErrCodeSearchCancelled:
		status = http.StatusRequestTimeout
	}
	writeJSON(w, status, apiError{Code: string(code), Message: errors.UserMessage(err)})
}
