package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/services"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/utils"
)

type RouterConfig struct {
	AllowedOrigins     []string
	RateLimitRPS       float64
	RateLimitBurst     int
	MaxUploadSizeBytes int64
}

// NewRouter wires every API route. Everything under /api requires a bearer
// token; /healthz is public.
func NewRouter(auth TokenValidator, prices PriceReader, portfolio *services.PortfolioService, cfg RouterConfig) http.Handler {
	limit := rate.Inf
	if cfg.RateLimitRPS > 0 {
		limit = rate.Limit(cfg.RateLimitRPS)
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}
	maxUpload := cfg.MaxUploadSizeBytes
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}

	priceHandler := NewPriceHandler(prices)
	portfolioHandler := NewPortfolioHandler(portfolio)
	txHandler := NewTransactionHandler(portfolio)
	uploadHandler := NewUploadHandler(portfolio, maxUpload)
	taxHandler := NewTaxHandler(portfolio)
	settingsHandler := NewSettingsHandler(portfolio)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS(cfg.AllowedOrigins))
	r.Use(rateLimitMiddleware(rate.NewLimiter(limit, burst)))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.SendJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(auth))

		r.Get("/prices", priceHandler.HandleListPrices)
		r.Get("/prices/{symbol}", priceHandler.HandleGetPrice)
		r.Get("/prices/{symbol}/{quote}", priceHandler.HandleGetPrice)

		r.Get("/portfolio", portfolioHandler.HandleGetDashboard)
		r.Put("/holdings/{symbol}", portfolioHandler.HandleUpsertHolding)
		r.Delete("/holdings/{symbol}", portfolioHandler.HandleDeleteHolding)
		r.Delete("/holdings", portfolioHandler.HandleResetHoldings)

		r.Get("/transactions", txHandler.HandleListTransactions)
		r.Post("/transactions", txHandler.HandleAddTransaction)
		r.Post("/transactions/import", uploadHandler.HandleImport)
		r.Delete("/transactions/{id}", txHandler.HandleDeleteTransaction)
		r.Delete("/transactions", txHandler.HandleClearTransactions)

		r.Get("/tax/report", taxHandler.HandleGetReport)
		r.Get("/tax/events.csv", taxHandler.HandleExportEvents)

		r.Get("/settings/goal", settingsHandler.HandleGetGoal)
		r.Put("/settings/goal", settingsHandler.HandleSetGoal)
	})

	return r
}
