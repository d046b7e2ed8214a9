// Package api exposes a conversation graph over HTTP for a browser front-end.
//
// The server holds one [pipeline.Runner] in memory. Nothing is persisted
// server side: clients download the graph with the export endpoints and
// upload it again with the import endpoint.
//
// # Routes
//
//	GET    /healthz                 liveness
//	GET    /api/graph               current graph as a JSON document
//	POST   /api/prompts             {parentId, text}, starts a batch (202)
//	POST   /api/system-nodes        {content?}, adds a conversation root
//	PATCH  /api/nodes/{id}          {content?, position?}
//	POST   /api/nodes/delete        {ids}, cascading delete
//	POST   /api/edges               {source, target}, manual connect
//	DELETE /api/edges/{id}          remove an edge
//	GET    /api/settings            {responseCount}
//	PUT    /api/settings            {responseCount}
//	GET    /api/export/{format}     json, tree, dot, svg, png or pdf download
//	POST   /api/import              merge a JSON document (413 above Options.MaxImportBytes)
//
// Errors are returned as {"code": "...", "message": "..."} with a status
// derived from the error code.
package api

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/matzehuels/promptree/pkg/pipeline"
)

// DefaultMaxImportBytes bounds the size of an uploaded graph.
const DefaultMaxImportBytes = 10 << 20

// Options configures a Server.
type Options struct {
	// AllowedOrigins lists origins allowed by CORS. Empty allows none.
	AllowedOrigins []string

	// Now is the clock used for export file names; nil means time.Now.
	Now func() time.Time

	// MaxImportBytes bounds import bodies; 0 means DefaultMaxImportBytes.
	// Larger bodies are rejected with 413.
	MaxImportBytes int64
}

// Server serves the HTTP API for one runner.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	opts   Options
	router chi.Router
}

// NewServer creates a server for runner.
// If logger is nil, the runner's logger is used.
func NewServer(runner *pipeline.Runner, opts Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = runner.Logger
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxImportBytes <= 0 {
		opts.MaxImportBytes = DefaultMaxImportBytes
	}
	s := &Server{runner: runner, logger: logger, opts: opts}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	router := chi.NewRouter()

	// Global middleware
	router.Use(requestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(s.logger))
	if len(s.opts.AllowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
			ExposedHeaders: []string{RequestIDHeader, "Content-Disposition"},
			MaxAge:         300,
		}))
	}

	router.Get("/healthz", s.health)

	router.Route("/api", func(r chi.Router) {
		r.Get("/graph", s.getGraph)
		r.Post("/prompts", s.submitPrompt)
		r.Post("/system-nodes", s.addSystemNode)

		r.Route("/nodes", func(r chi.Router) {
			r.Patch("/{nodeID}", s.patchNode)
			r.Post("/delete", s.deleteNodes)
		})

		r.Route("/edges", func(r chi.Router) {
			r.Post("/", s.createEdge)
			r.Delete("/{edgeID}", s.deleteEdge)
		})

		r.Get("/settings", s.getSettings)
		r.Put("/settings", s.putSettings)

		r.Get("/export/{format}", s.export)
		r.Post("/import", s.importGraph)
	})

	return router
}
