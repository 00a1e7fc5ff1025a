package web

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net/http"

	"github.com/kmorand/attache/internal/db"
	"github.com/kmorand/attache/internal/dossier"
	"github.com/kmorand/attache/internal/graph"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// NewServer creates and configures the HTTP server for the Attaché web
// surface: one HTML dossier view plus the thin JSON endpoints the UI layer
// consumes.
func NewServer(synth *dossier.Synthesizer, cache *graph.Cache, notes *db.NotesStore, version, bind string, port int) *http.Server {
	// Create sub-FS for templates (strip "templates/" prefix)
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		log.Fatalf("failed to create template sub-FS: %v", err)
	}

	// Create sub-FS for static files (strip "static/" prefix)
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatalf("failed to create static sub-FS: %v", err)
	}

	renderer := NewRenderer(templateSub, version)

	h := &Handlers{
		synth:    synth,
		cache:    cache,
		notes:    notes,
		renderer: renderer,
	}

	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dossier", http.StatusFound)
	})
	mux.HandleFunc("GET /dossier", h.HandleDossierPage)

	// JSON API consumed by the UI layer
	mux.HandleFunc("GET /api/dossier", h.HandleDossier)
	mux.HandleFunc("GET /api/notes", h.HandleNotesGet)
	mux.HandleFunc("PUT /api/notes", h.HandleNotesSet)
	mux.HandleFunc("GET /api/graph-data", h.HandleGraphData)
	mux.HandleFunc("POST /api/episode", h.HandleEpisode)
	mux.HandleFunc("POST /api/conversation", h.HandleConversation)
	mux.HandleFunc("DELETE /api/graph-clear", h.HandleGraphClear)
	mux.HandleFunc("GET /api/graph-health", h.HandleGraphHealth)
	mux.HandleFunc("POST /api/layout", h.HandleLayoutSave)

	// Unmatched API paths get a structured JSON 404 instead of the
	// mux's plain-text default.
	mux.HandleFunc("/api/", h.HandleAPINotFound)

	// Static file server
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	// Wrap with security headers
	handler := securityHeaders(mux)

	return &http.Server{
		Addr:    fmt.Sprintf("%s:%d", bind, port),
		Handler: handler,
	}
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}
