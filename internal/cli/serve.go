package cli

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/schemaflow/internal/config"
	"github.com/matzehuels/schemaflow/pkg/cache"
	"github.com/matzehuels/schemaflow/pkg/errors"
	"github.com/matzehuels/schemaflow/pkg/manifest"
	"github.com/matzehuels/schemaflow/pkg/observability"
	"github.com/matzehuels/schemaflow/pkg/pipeline"
)

// defaultServeAddr is where the diagram server listens unless --addr is set.
const defaultServeAddr = "localhost:8080"

// newServeCmd creates the serve command.
func newServeCmd() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve [dir]",
		Short: "Serve diagrams over HTTP",
		Long: `Serve the diagram model and rendered artifacts over HTTP.

Artifacts are rebuilt on demand and answered from the build cache when the
schemas have not changed. Responses carry an ETag derived from the model
hash, so browsers revalidate cheaply.

Endpoints:
  GET /             HTML viewer
  GET /model.json   diagram model as JSON
  GET /diagram.svg  rendered SVG
  GET /diagram.png  rendered PNG

Append ?refresh=1 to an artifact endpoint to bypass the cache.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runServe(cmd.Context(), dir, addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultServeAddr, "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the build cache")

	return cmd
}

// runServe starts the diagram server and blocks until the context is
// cancelled or the server fails.
func runServe(ctx context.Context, dir, addr string, noCache bool) error {
	cfg, err := loadProject(dir)
	if err != nil {
		return err
	}

	logger := loggerFromContext(ctx)
	runner, err := newProjectRunner(logger, cfg, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	srv := &diagramServer{runner: runner, cfg: cfg, logger: logger}

	eg, egctx := errgroup.WithContext(ctx)

	httpSrv := &http.Server{
		Addr:    addr,
		Handler: srv.routes(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting diagram server", "addr", addr)
	printInfo("Serving diagrams at %s", StyleLink.Render("http://"+addr))
	printDetail("Press Ctrl+C to stop")

	eg.Go(func() error {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		logger.Debug("shutting down diagram server")
		return httpSrv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// newProjectRunner creates a runner whose cache keys are scoped by the
// manifest's project ID, so projects sharing the machine cache never collide.
func newProjectRunner(logger *log.Logger, cfg *config.Config, noCache bool) (*pipeline.Runner, error) {
	store, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewDefaultKeyer()
	if id := projectID(cfg); id != "" {
		keyer = cache.NewScopedKeyer(keyer, "project:"+id+":")
	}
	return pipeline.NewRunner(store, keyer, logger), nil
}

// projectID reads the project ID from the configured manifest. Any failure
// yields an empty ID and unscoped cache keys; a broken manifest surfaces
// properly on the first build, not here.
func projectID(cfg *config.Config) string {
	if cfg.Manifest == "" {
		return ""
	}
	m, err := manifest.ReadFile(cfg.Manifest)
	if err != nil {
		return ""
	}
	return m.Meta.ProjectID
}

// diagramServer serves the diagram model and rendered artifacts for one
// project.
type diagramServer struct {
	runner *pipeline.Runner
	cfg    *config.Config
	logger *log.Logger
}

// routes builds the HTTP route tree.
func (s *diagramServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.hooks)

	r.Get("/", s.handleIndex)
	r.Get("/model.json", s.handleFormat(pipeline.FormatJSON, "application/json"))
	r.Get("/diagram.svg", s.handleFormat(pipeline.FormatSVG, "image/svg+xml"))
	r.Get("/diagram.png", s.handleFormat(pipeline.FormatPNG, "image/png"))

	return r
}

// hooks emits observability events around each request.
func (s *diagramServer) hooks(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		observability.Server().OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		observability.Server().OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

func (s *diagramServer) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

// handleFormat returns a handler that builds the project and serves one
// artifact format. Identical schemas produce identical model hashes, so the
// ETag lets clients revalidate without re-downloading.
func (s *diagramServer) handleFormat(format, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refresh := r.URL.Query().Get("refresh") == "1"

		opts := optionsFromConfig(s.cfg)
		opts.Logger = s.logger
		opts.Formats = []string{format}
		opts.Refresh = refresh

		result, err := s.runner.Execute(r.Context(), opts)
		if err != nil {
			s.logger.Error("build failed", "format", format, "error", err)
			http.Error(w, errors.UserMessage(err), http.StatusInternalServerError)
			return
		}

		etag := `"` + result.ModelHash + "-" + format + `"`
		if !refresh && r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("ETag", etag)
		_, _ = w.Write(result.Artifacts[format])
	}
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>schemaflow</title>
  <style>
    body { font-family: sans-serif; margin: 2rem; color: #222; }
    nav a { margin-right: 1rem; }
    img { max-width: 100%; border: 1px solid #ddd; margin-top: 1rem; }
  </style>
</head>
<body>
  <h1>schemaflow</h1>
  <nav>
    <a href="/model.json">model.json</a>
    <a href="/diagram.svg">diagram.svg</a>
    <a href="/diagram.png">diagram.png</a>
    <a href="/diagram.svg?refresh=1">rebuild</a>
  </nav>
  <img src="/diagram.svg" alt="Migration lineage diagram">
</body>
</html>
`
