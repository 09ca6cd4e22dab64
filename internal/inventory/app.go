package inventory

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"MiniInventory/internal/auth"
	"MiniInventory/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	// Auth enables /auth and guards writes with a writer token. Nil disables both.
	Auth *auth.Server

	MetricsEnabled bool
	MetricsToken   string
}

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	r := chi.NewRouter()

	setupMiddleware(r, deps)
	setupMetrics(r, s.Manager, deps)

	if deps.Auth != nil {
		r.Mount("/auth", deps.Auth.Routes())
		s.WriteGuard = auth.RequireRole(deps.Auth.JWT, auth.RoleWriter)
	}

	r.Mount("/", s.Routes())
	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer(log))
	r.Use(kit.Logging(log))
}

func setupMetrics(r *chi.Mux, m *Manager, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	deps.Registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "inventory_products",
			Help:        "Number of SKUs held by the inventory",
			ConstLabels: prometheus.Labels{"service": deps.Service},
		},
		func() float64 { return float64(m.Len()) },
	))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}
