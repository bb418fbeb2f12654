package main

import (
	"crypto/tls"
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/username/tradejournal/backend/src/config"
	"github.com/username/tradejournal/backend/src/database"
	"github.com/username/tradejournal/backend/src/handlers"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/processors"
	"github.com/username/tradejournal/backend/src/services"
	"golang.org/x/time/rate"
)

func proxyHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "https" {
			r.URL.Scheme = "https"
			r.TLS = &tls.ConnectionState{}
		}
		next.ServeHTTP(w, r)
	})
}

// newRateLimitMiddleware applies one token bucket to all requests.
func newRateLimitMiddleware(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newCORSMiddleware(origins []string) func(http.Handler) http.Handler {
	allowedOrigins := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowedOrigins[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if allowedOrigins[origin] || allowedOrigins["*"] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
				w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-Requested-With, If-None-Match")
				w.Header().Set("Access-Control-Expose-Headers", "ETag, Content-Disposition, X-Request-ID")
			} else if origin == "" {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type routerDeps struct {
	trades      *handlers.TradeHandler
	screenshots *handlers.ScreenshotHandler
	parse       *handlers.ParseHandler
	export      *handlers.ExportHandler
}

func newRouter(cfg *config.AppConfig, h routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(proxyHeadersMiddleware)
	r.Use(newCORSMiddleware(cfg.AllowedOrigins))
	r.Use(newRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Trade Journal backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/trades", h.trades.HandleListTrades)
		r.Post("/trades", h.trades.HandleCreateTrade)
		r.Get("/trades/{id}", h.trades.HandleGetTrade)
		r.Put("/trades/{id}", h.trades.HandleUpdateTrade)
		r.Delete("/trades/{id}", h.trades.HandleDeleteTrade)
		r.Post("/trades/{id}/screenshots", h.screenshots.HandleAddScreenshot)

		r.Get("/screenshots/{screenshot}", h.screenshots.HandleGetScreenshot)
		r.Delete("/screenshots/{screenshot}", h.screenshots.HandleDeleteScreenshot)

		r.Get("/export/excel", h.export.HandleExportExcel)
		r.Post("/parse-trade", h.parse.HandleParseTrade)
		r.Get("/stats", h.trades.HandleGetStats)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "Not found"})
			return
		}
		http.NotFound(w, r)
	})

	return r
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Trade Journal backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations()
	defer database.DB.Close()

	if err := os.MkdirAll(config.Cfg.UploadFolder, 0o755); err != nil {
		stdlog.Fatalf("Failed to create upload folder %s: %v", config.Cfg.UploadFolder, err)
	}

	reportCache := cache.New(config.Cfg.CacheTTL, services.CacheCleanupInterval)

	tradeService := services.NewTradeService(
		database.DB,
		processors.NewStatsProcessor(),
		reportCache,
		config.Cfg.UploadFolder,
		config.Cfg.MaxUploadSizeBytes,
		config.Cfg.DefaultParserSource,
	)
	exportService := services.NewExportService(database.DB, config.Cfg.ExportPath)

	router := newRouter(config.Cfg, routerDeps{
		trades:      handlers.NewTradeHandler(tradeService),
		screenshots: handlers.NewScreenshotHandler(tradeService),
		parse:       handlers.NewParseHandler(tradeService),
		export:      handlers.NewExportHandler(exportService),
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
