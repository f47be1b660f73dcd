// Package server implements the HTTP preview server.
//
// The server exposes the render pipeline over HTTP and a small CRUD
// API for saving diagrams so they can be shared by link:
//
//	POST   /render               render source text to an artifact
//	POST   /v1/diagrams          save a diagram document
//	GET    /v1/diagrams          list saved diagrams
//	GET    /v1/diagrams/{id}     fetch a saved diagram document
//	GET    /v1/diagrams/{id}.svg render a saved diagram as SVG
//	DELETE /v1/diagrams/{id}     delete a saved diagram
//	GET    /healthz              liveness probe
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/markviz/markviz/pkg/cache"
	"github.com/markviz/markviz/pkg/errors"
	"github.com/markviz/markviz/pkg/pipeline"
	"github.com/markviz/markviz/pkg/store"
)

// Server wires the pipeline runner and diagram store behind HTTP handlers.
type Server struct {
	runner *pipeline.Runner
	store  store.Store
	logger *log.Logger
}

// New creates a Server. A nil runner gets an uncached default; a nil
// store gets the in-memory backend.
func New(runner *pipeline.Runner, st store.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	if st == nil {
		st = store.NewMemoryStore()
	}
	return &Server{runner: runner, store: st, logger: logger}
}

// NewFromConfig builds a Server with the cache and store backends the
// config selects.
func NewFromConfig(ctx context.Context, cfg Config, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}

	var c cache.Cache
	var err error
	switch cfg.Cache.Backend {
	case "redis":
		c, err = cache.NewRedisCache(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
	case "file":
		dir := cfg.Cache.Dir
		if dir == "" {
			base, cerr := os.UserCacheDir()
			if cerr != nil {
				base = os.TempDir()
			}
			dir = filepath.Join(base, "markviz")
		}
		c, err = cache.NewFileCache(dir)
	case "none":
		c = cache.NewNullCache()
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCache, err, "failed to open %s cache", cfg.Cache.Backend)
	}

	var st store.Store
	if cfg.Mongo.URI != "" {
		st, err = store.NewMongoStore(ctx, store.MongoConfig{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
		})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "failed to connect to mongo")
		}
		logger.Info("using mongo store", "database", cfg.Mongo.Database)
	} else {
		st = store.NewMemoryStore()
		logger.Info("using in-memory store")
	}

	return New(pipeline.NewRunner(c, nil, logger), st, logger), nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/render", s.handleRender)

	r.Route("/v1/diagrams", func(r chi.Router) {
		r.Post("/", s.handleCreateDiagram)
		r.Get("/", s.handleListDiagrams)
		r.Get("/{id}", s.handleGetDiagram)
		r.Delete("/{id}", s.handleDeleteDiagram)
	})

	return r
}

// ListenAndServe runs the server until the context is canceled.
func (s *Server) ListenAndServe(ctx context.Context, cfg Config) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout.Duration,
		WriteTimeout: cfg.WriteTimeout.Duration,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("preview server listening", "addr", cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.WriteTimeout.Duration)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		return err
	}
}

// Close releases the runner cache and the store.
func (s *Server) Close(ctx context.Context) error {
	err := s.runner.Close()
	if serr := s.store.Close(ctx); serr != nil && err == nil {
		err = serr
	}
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRender runs the pipeline on request-supplied source and returns
// the first requested format as the response body.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(opts.Formats) == 0 {
		opts.Formats = []string{pipeline.FormatSVG}
	}
	if len(opts.Formats) != 1 {
		writeError(w, http.StatusBadRequest, "render accepts exactly one format")
		return
	}
	if err := pipeline.ValidateFormats(opts.Formats); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts.Logger = s.logger

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, statusForError(err), errors.UserMessage(err))
		return
	}

	format := opts.Formats[0]
	w.Header().Set("Content-Type", contentType(format))
	w.Header().Set("X-Diagram-Kind", string(result.Stats.Kind))
	w.Header().Set("X-Diagram-Hash", result.DiagramHash)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

type createDiagramRequest struct {
	Title  string `json:"title,omitempty"`
	Source string `json:"source"`
	Theme  string `json:"theme,omitempty"`
}

// handleCreateDiagram validates the source by parsing it, then saves a
// document and returns it with its assigned ID.
func (s *Server) handleCreateDiagram(w http.ResponseWriter, r *http.Request) {
	var req createDiagramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if _, err := s.runner.Parse(r.Context(), pipeline.Options{Source: req.Source, Logger: s.logger}); err != nil {
		writeError(w, http.StatusUnprocessableEntity, errors.UserMessage(err))
		return
	}

	doc := store.NewDocument(req.Title, req.Source, req.Theme)
	if err := s.store.Put(r.Context(), doc); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save diagram")
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleListDiagrams(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list diagrams")
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// handleGetDiagram serves either the document JSON or, with a .svg
// suffix on the ID, the rendered SVG.
func (s *Server) handleGetDiagram(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	renderSVG := strings.HasSuffix(id, ".svg")
	id = strings.TrimSuffix(id, ".svg")

	if err := store.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid diagram id")
		return
	}

	doc, err := s.store.Get(r.Context(), id)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "diagram not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load diagram")
		return
	}

	if !renderSVG {
		writeJSON(w, http.StatusOK, doc)
		return
	}

	// Rendered responses are cached against the document revision so a
	// re-saved diagram invalidates naturally.
	respKey := s.runner.Keyer.HTTPKey("diagram-svg", doc.ID+":"+doc.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if data, hit, cerr := s.runner.Cache.Get(r.Context(), respKey); cerr == nil && hit {
		w.Header().Set("Content-Type", contentType(pipeline.FormatSVG))
		w.Header().Set("X-Cache", "hit")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	opts := pipeline.Options{
		Source:  doc.Source,
		Theme:   doc.Theme,
		Formats: []string{pipeline.FormatSVG},
		Logger:  s.logger,
	}
	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, statusForError(err), errors.UserMessage(err))
		return
	}

	svg := result.Artifacts[pipeline.FormatSVG]
	_ = s.runner.Cache.Set(r.Context(), respKey, svg, cache.TTLHTTP)

	w.Header().Set("Content-Type", contentType(pipeline.FormatSVG))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

func (s *Server) handleDeleteDiagram(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := store.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid diagram id")
		return
	}

	if err := s.store.Delete(r.Context(), id); err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "diagram not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete diagram")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// statusForError maps pipeline error codes onto HTTP statuses.
func statusForError(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidTheme:
		return http.StatusBadRequest
	case errors.ErrCodeParseUnknownKind, errors.ErrCodeParseEdgeSyntax,
		errors.ErrCodeParseNodeSyntax, errors.ErrCodeParseUnterminated, errors.ErrCodeParseMissingElement:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound, errors.ErrCodeDiagramNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func contentType(format string) string {
	switch format {
	case pipeline.FormatSVG:
		return "image/svg+xml"
	case pipeline.FormatPNG:
		return "image/png"
	case pipeline.FormatPDF:
		return "application/pdf"
	case pipeline.FormatJSON:
		return "application/json"
	case pipeline.FormatDOT:
		return "text/vnd.graphviz"
	default:
		return "application/octet-stream"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
