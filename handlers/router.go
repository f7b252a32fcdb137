package handlers

import (
	"net/http"

	"github.com/ferreirogomes/promissory/logger"
	"github.com/ferreirogomes/promissory/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterConfig reúne as dependências das rotas. Sandbox é nil fora da chain
// em memória.
type RouterConfig struct {
	Ledger         *services.PropertyLedger
	Sandbox        *SandboxHandler
	Log            *zap.Logger
	MetricsEnabled bool
}

func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	propertyHandler := NewPropertyHandler(cfg.Ledger)
	investmentHandler := NewInvestmentHandler(cfg.Ledger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(log))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/properties", func(r chi.Router) {
		r.Post("/", propertyHandler.CreateProperty)
		r.Get("/", propertyHandler.ListProperties)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", propertyHandler.GetProperty)
			r.Get("/events", propertyHandler.ListEvents)
			r.Put("/interest-rate", propertyHandler.UpdateInterestRate)
			r.Put("/token-supply", propertyHandler.UpdateTokenSupply)
			r.Put("/locking-period", propertyHandler.UpdateLockingPeriod)
			r.Post("/approve", propertyHandler.ApproveProperty)
			r.Post("/ban", propertyHandler.BanProperty)

			r.Post("/investments", investmentHandler.Invest)
			r.Get("/investments/{investor}", investmentHandler.GetInvestment)
			r.Post("/claims/investment", investmentHandler.ClaimInvestment)
			r.Post("/claims/tokens", investmentHandler.ClaimPropertyTokens)
			r.Post("/claims/return", investmentHandler.ClaimReturn)
			r.Post("/settlements", investmentHandler.ReturnInvestment)
		})
	})

	r.Get("/custody", investmentHandler.Custody)

	r.Route("/sandbox", func(r chi.Router) {
		if cfg.Sandbox == nil {
			r.HandleFunc("/*", sandboxDisabled)
			return
		}
		r.Post("/faucet", cfg.Sandbox.Faucet)
		r.Post("/approve", cfg.Sandbox.Approve)
		r.Get("/balances/{address}", cfg.Sandbox.Balances)
	})

	return r
}
