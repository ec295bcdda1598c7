package main

import (
	"crypto/subtle"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-dyntax/internal/auth"
	"github.com/noah-isme/toko-dyntax/internal/cart"
	"github.com/noah-isme/toko-dyntax/internal/catalog"
	"github.com/noah-isme/toko-dyntax/internal/common"
	"github.com/noah-isme/toko-dyntax/internal/config"
	"github.com/noah-isme/toko-dyntax/internal/health"
	"github.com/noah-isme/toko-dyntax/internal/obs"
	"github.com/noah-isme/toko-dyntax/internal/ratelimit"
	"github.com/noah-isme/toko-dyntax/internal/security"
	"github.com/noah-isme/toko-dyntax/internal/settings"
)

const adminPageCSP = "default-src 'self'; form-action 'self'; frame-ancestors 'none'"

type routerDeps struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Metrics    *obs.HTTPMetrics
	Health     *health.Handler
	Catalog    *catalog.Handler
	Cart       *cart.Handler
	Settings   *settings.Handler
	Page       *settings.Page
	Auth       auth.Middleware
	CSRF       security.CSRF
	Idem       common.Idem
	AdminLimit ratelimit.Policy
	CartLimit  ratelimit.Policy
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.Tracing(serviceName))
	r.Use(obs.HTTPObs{Metrics: d.Metrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: d.Logger}.Middleware)
	r.Use(security.Headers{HSTS: hstsMaxAge(d.Config)}.Middleware)
	r.Use(security.BodyLimit{Max: 1 << 20}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(d.Config),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-CSRF-Token"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	if d.Config.PprofEnabled {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), d.Config.PprofUser, d.Config.PprofPass))
	}
	r.Get("/health/live", d.Health.Live)
	r.Get("/health/ready", d.Health.Ready)

	r.Route("/admin/dynamic-taxes", func(page chi.Router) {
		page.Use(security.Headers{CSP: adminPageCSP, FrameOptions: "SAMEORIGIN"}.Middleware)
		page.Use(d.Auth.RequireAuth)
		page.Use(auth.RequireCapability(auth.ManageOptions))
		page.Use(d.CSRF.Middleware)
		page.Get("/", d.Page.Render)
		page.With(d.AdminLimit.Middleware).Post("/", d.Page.Submit)
	})

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/categories", d.Catalog.Categories)
		v.Get("/categories/{id}", d.Catalog.Category)

		v.Route("/carts", func(c chi.Router) {
			c.Get("/{id}", d.Cart.Get)
			c.Group(func(g chi.Router) {
				g.Use(d.CartLimit.Middleware)
				g.Use(d.Idem.Middleware)
				g.Post("/", d.Cart.Create)
				g.Post("/{id}/items", d.Cart.AddItem)
				g.Patch("/{id}/items/{itemId}", d.Cart.UpdateItem)
				g.Delete("/{id}/items/{itemId}", d.Cart.RemoveItem)
				g.Post("/{id}/quote/fees", d.Cart.QuoteFees)
			})
		})

		v.Route("/admin/dynamic-taxes", func(admin chi.Router) {
			admin.Use(d.Auth.RequireAuth)
			admin.Use(auth.RequireCapability(auth.ManageOptions))
			admin.Use(d.CSRF.Middleware)
			admin.Get("/", d.Settings.Get)
			admin.Group(func(w chi.Router) {
				w.Use(d.AdminLimit.Middleware)
				w.Use(d.Idem.Middleware)
				w.Put("/", d.Settings.Put)
				w.Patch("/", d.Settings.Patch)
			})
		})
	})
	return r
}

func hstsMaxAge(cfg *config.Config) time.Duration {
	if !cfg.IsProduction() {
		return 0
	}
	return 365 * 24 * time.Hour
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		mux.Handle("/"+name, pprof.Handler(name))
	}
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
