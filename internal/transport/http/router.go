package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-video-intake/internal/application/csrf"
	"github.com/go-video-intake/internal/application/gatekeeper"
	"github.com/go-video-intake/internal/application/ipreputation"
	"github.com/go-video-intake/internal/config"
	"github.com/go-video-intake/internal/pkg/emailcheck"
	"github.com/go-video-intake/internal/pkg/validate"
	"github.com/go-video-intake/internal/transport/http/handler"
	appmiddleware "github.com/go-video-intake/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.ClientIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(appmiddleware.SecurityHeaders)
	// cors treats an empty origin list as "allow all", so leave it off entirely
	// when no origins are configured and browsers stay same-origin.
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	tokenRL := appmiddleware.NewRateLimiter(rate.Limit(cfg.TokenEndpointRPS), cfg.TokenEndpointBurst)

	blocklist := emailcheck.NewBlocklist(cfg.DisposableEmailDomains...)
	csrfSvc := csrf.NewService(deps.Sessions, cfg.CSRFTokenTTL)
	gateSvc := gatekeeper.NewService(gatekeeper.Deps{
		IPReputation: ipreputation.NewService(cfg.IPDenyList, cfg.IPAllowList),
		Limiter:      deps.Limiter,
		Validator:    validate.New(blocklist),
		Blocklist:    blocklist,
		Submissions:  deps.Submissions,
		Preview:      deps.Preview,
		Events:       deps.Events,
	}, gatekeeper.Options{
		RateLimit:       cfg.SubmitRateLimit,
		RateWindow:      cfg.SubmitRateWindow,
		DuplicateWindow: cfg.DuplicateWindow,
		PreviewTimeout:  cfg.PreviewTimeout,
	})

	healthH := handler.NewHealthHandler()
	csrfH := handler.NewCSRFHandler(csrfSvc, cfg.CSRFTokenTTL, cfg.CSRFCookieSecure)
	submitH := handler.NewSubmitHandler(gateSvc, csrfSvc)

	r.Get("/health-check/{action}", healthH.Ping)
	r.Post("/health-check/{action}", healthH.Ping)

	r.Route("/api", func(r chi.Router) {
		r.With(tokenRL.Limit).Get("/csrf-token", csrfH.Token)
		r.Post("/submit", submitH.Submit)
	})

	return r
}
