package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/quillpress/quillpress/internal/auth"
	"github.com/quillpress/quillpress/internal/comments"
	"github.com/quillpress/quillpress/internal/identity"
	"github.com/quillpress/quillpress/internal/live"
	"github.com/quillpress/quillpress/internal/notifications"
	"github.com/quillpress/quillpress/internal/observability"
	"github.com/quillpress/quillpress/internal/posts"
	"github.com/quillpress/quillpress/internal/tags"
	"github.com/quillpress/quillpress/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger               *slog.Logger
	Config               *Config
	Authenticator        identity.Authenticator
	AuthHandler          *auth.Handler
	PostsHandler         *posts.Handler
	CommentsHandler      *comments.Handler
	TagsHandler          *tags.Handler
	NotificationsHandler *notifications.Handler
	StreamHandler        *live.StreamHandler
	JobHandler           *jobs.Handler
	Metrics              *observability.Metrics
}

// NewRouter constructs the chi.Router with QuillPress defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/auth", params.AuthHandler.MountRoutes)

	// JSON API: authenticated, bounded, compressed.
	r.Group(func(r chi.Router) {
		r.Use(params.Authenticator.Middleware)
		r.Use(APITimeout(params.Config))
		r.Use(chimw.Compress(5))

		r.Route("/api/posts", params.PostsHandler.MountRoutes)
		r.Route("/api/comments", params.CommentsHandler.MountRoutes)
		r.Route("/api/tags", params.TagsHandler.MountRoutes)
		r.Route("/api/notifications", params.NotificationsHandler.MountRoutes)

		if params.JobHandler != nil {
			r.Route("/api/jobs", params.JobHandler.MountRoutes)
		}
	})

	// The live stream holds its connection open: authenticated but outside
	// the timeout and compression wrappers.
	if params.StreamHandler != nil {
		r.Group(func(r chi.Router) {
			r.Use(params.Authenticator.Middleware)
			r.Get("/api/notifications/stream", params.StreamHandler.Stream)
		})
	}

	// Uploaded media is served statically from the local store.
	if params.Config != nil && params.Config.MediaDir != "" {
		fileServer := http.StripPrefix("/media/", http.FileServer(http.Dir(params.Config.MediaDir)))
		r.Get("/media/*", func(w http.ResponseWriter, r *http.Request) {
			fileServer.ServeHTTP(w, r)
		})
	}

	return r
}
