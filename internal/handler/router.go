package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	authhandler "github.com/vedpatil1345/codetalk/internal/handler/auth"
	"github.com/vedpatil1345/codetalk/internal/handler/chat"
	"github.com/vedpatil1345/codetalk/internal/handler/contact"
	"github.com/vedpatil1345/codetalk/internal/handler/prompts"
	renderhandler "github.com/vedpatil1345/codetalk/internal/handler/render"
	"github.com/vedpatil1345/codetalk/internal/handler/stream"
	visionhandler "github.com/vedpatil1345/codetalk/internal/handler/vision"
	"github.com/vedpatil1345/codetalk/internal/handler/ws"
	middlewarePkg "github.com/vedpatil1345/codetalk/internal/middleware"
	"github.com/vedpatil1345/codetalk/internal/service/auth"
	"github.com/vedpatil1345/codetalk/internal/service/history"
	"github.com/vedpatil1345/codetalk/internal/service/request"
	"github.com/vedpatil1345/codetalk/pkg/utils"
)

// Dependencies are the services the router exposes.
type Dependencies struct {
	AllowedOrigins []string
	CookieSecure   bool

	Streamer  request.Streamer
	Converter visionhandler.Converter
	Mailer    contact.Sender
	Renderer  renderhandler.Markdown
	Identity  auth.Provider
	Sessions  *auth.Sessions
	Histories *history.Registry

	// Pages serves the browser client; nil disables page routes.
	Pages http.Handler
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.AllowedOrigins))
	r.Use(middlewarePkg.Authenticate(deps.Sessions))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		// Public routes.
		authhandler.New(deps.Identity, deps.Sessions, deps.Histories, deps.CookieSecure).RegisterRoutes(api)
		prompts.New().RegisterRoutes(api)
		renderhandler.New(deps.Renderer).RegisterRoutes(api)
		contact.New(deps.Mailer).RegisterRoutes(api)

		// Routes that spend provider quota or touch a user's history.
		api.Group(func(private chi.Router) {
			private.Use(middlewarePkg.RequireUser)

			stream.New(deps.Streamer).RegisterRoutes(private)
			ws.New(deps.Streamer, deps.AllowedOrigins).RegisterRoutes(private)
			chat.New(deps.Histories, deps.Streamer).RegisterRoutes(private)
			visionhandler.New(deps.Converter).RegisterRoutes(private)
		})
	})

	if deps.Pages != nil {
		r.Handle("/assets/*", deps.Pages)
		r.Handle("/favicon.ico", deps.Pages)
		r.Group(func(pages chi.Router) {
			pages.Use(middlewarePkg.Gate)
			pages.Handle("/*", deps.Pages)
		})
	}

	return r
}
