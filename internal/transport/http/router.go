package http

import (
	"context"
	"net/http"

	"github.com/classsync/internal/application/auth"
	"github.com/classsync/internal/application/leaderboard"
	"github.com/classsync/internal/application/schedule"
	"github.com/classsync/internal/application/schedulesync"
	"github.com/classsync/internal/config"
	"github.com/classsync/internal/domain"
	"github.com/classsync/internal/transport/http/handler"
	appmiddleware "github.com/classsync/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// CatalogSource is the minimal interface the router requires from the catalogue loader.
type CatalogSource interface {
	Catalog(ctx context.Context) (*domain.Catalog, error)
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	sessionOpts := appmiddleware.DefaultSessionOptions()
	sessionOpts.Secure = cfg.IsProduction()
	r.Use(appmiddleware.Session(deps.Tokens, sessionOpts))

	// 1 request/second, burst of 5, on the endpoints that send mail or consume codes.
	loginRL := appmiddleware.NewRateLimiter(rate.Limit(1), 5, cfg.TrustedProxies...)

	authSvc := auth.NewService(auth.ServiceDeps{
		Codes:         deps.Codes,
		Mailer:        deps.Mailer,
		Tokens:        deps.Tokens,
		AllowedDomain: cfg.AllowedEmailDomain,
		CodeTTL:       cfg.LoginCodeTTL,
		SiteName:      cfg.MailSenderName,
		LogCodes:      cfg.IsDevelopment(),
	})
	scheduleSvc := schedule.NewService(deps.Catalog, nil)
	leaderboardSvc := leaderboard.NewService(deps.Catalog)
	syncSvc := schedulesync.NewService(schedulesync.ServiceDeps{
		Catalog:       deps.Catalog,
		Remote:        deps.ClassSync,
		Publisher:     deps.Publisher,
		AllowedDomain: cfg.AllowedEmailDomain,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc, cfg.SessionMaxAge, cfg.IsProduction())
	scheduleH := handler.NewScheduleHandler(scheduleSvc, leaderboardSvc, syncSvc, authSvc)
	pageH := handler.NewPageHandler(scheduleSvc, leaderboardSvc, authSvc, cfg.AllowedEmailDomain)

	// ── Pages ────────────────────────────────────────────────────────────
	r.Get("/", pageH.Root)
	r.Get("/login", pageH.Login)
	r.Get("/dashboard", pageH.Dashboard)
	r.Get("/leaderboard", pageH.Leaderboard)

	r.Route("/api", func(r chi.Router) {
		// ── Public routes (allowed through by Session) ───────────────────
		r.Get("/health", healthH.Ping)
		r.With(loginRL.Limit).Post("/auth/send-code", authH.SendCode)
		r.With(loginRL.Limit).Post("/auth/verify", authH.Verify)

		// ── Authenticated routes ─────────────────────────────────────────
		r.Post("/auth/logout", authH.Logout)
		r.Get("/me", scheduleH.Me)
		r.Get("/schedule", scheduleH.Week)
		r.Get("/leaderboard", scheduleH.Leaderboard)
		r.Post("/sync", scheduleH.Sync)
	})

	return r
}
