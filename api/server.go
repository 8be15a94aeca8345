/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the grid frontend

ROUTE GROUPS:
  /api/grid, /api/tables/*   Rendering and selection
  /api/keys, /api/cells ...  Editing
  /api/save, /api/publish    Persistence
  /api/versions/*            Named snapshots
  /api/scenarios/*           Demo scenarios
  /*                         Static files (frontend)

STATIC FILE SERVING:
  Serves the built frontend from web/dist/ when present.
  Falls back to index.html for client-side routing.

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Rendering and selection
		r.Get("/grid", h.GetGrid)
		r.Route("/tables/{table}", func(r chi.Router) {
			r.Post("/focus", h.Focus)
			r.Post("/selection/start", h.StartSelection)
			r.Post("/selection/update", h.UpdateSelection)
			r.Post("/selection/end", h.EndSelection)
			r.Delete("/selection", h.ClearSelection)
		})

		// Editing
		r.Post("/keys", h.HandleKey)
		r.Put("/cells", h.SetCell)
		r.Post("/fill", h.Fill)
		r.Post("/copy", h.Copy)
		r.Post("/paste", h.Paste)
		r.Post("/clipboard", h.PasteClipboard)
		r.Post("/undo", h.Undo)
		r.Post("/edit/enter", h.EnterEdit)
		r.Post("/edit/exit", h.ExitEdit)

		// Persistence
		r.Post("/save", h.Save)
		r.Post("/publish", h.Publish)
		r.Post("/discard", h.Discard)
		r.Get("/year", h.GetYear)
		r.Post("/year", h.SwitchYear)

		// Reports
		r.Get("/summary", h.GetSummary)
		r.Get("/statuses", h.ListStatuses)

		// Versions
		r.Route("/versions", func(r chi.Router) {
			r.Get("/", h.ListVersions)
			r.Post("/", h.SaveVersion)
			r.Post("/{id}/restore", h.RestoreVersion)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	serveFrontend(r)
	return r
}

// serveFrontend mounts web/dist, trying the working directory first and
// the executable's directory second.
func serveFrontend(r chi.Router) {
	staticDir := "./web/dist"
	if _, err := os.Stat(staticDir); os.IsNotExist(err) {
		exe, _ := os.Executable()
		staticDir = filepath.Join(filepath.Dir(exe), "web", "dist")
	}

	if _, err := os.Stat(staticDir); err != nil {
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Shift Grid</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Shift Grid API</h1>
<p>The frontend is not built yet.</p>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/grid">/api/grid</a> - Main table</li>
<li><a href="/api/grid?table=offset">/api/grid?table=offset</a> - Offset quarter table</li>
<li><a href="/api/summary">/api/summary</a> - Quarter summary</li>
<li><a href="/api/scenarios">/api/scenarios</a> - List scenarios</li>
</ul>
</body>
</html>`))
		})
		return
	}

	fileServer := http.FileServer(http.Dir(staticDir))
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		fullPath := filepath.Join(staticDir, r.URL.Path)
		if _, err := os.Stat(fullPath); os.IsNotExist(err) {
			// SPA routing: serve index.html
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}
