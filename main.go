package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/fleetledger/src/config"
	"github.com/username/fleetledger/src/database"
	"github.com/username/fleetledger/src/handlers"
	"github.com/username/fleetledger/src/logger"
	"github.com/username/fleetledger/src/parsers"
	"github.com/username/fleetledger/src/parsers/subiekt"
	"github.com/username/fleetledger/src/processors"
	"github.com/username/fleetledger/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func loadDomainConfig() *config.DomainConfig {
	path := config.Cfg.DomainConfigPath
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.L.Info("Domain config file not found, using built-in defaults", "path", path)
		return config.DefaultDomainConfig()
	}
	domainCfg, err := config.LoadDomainConfig(path)
	if err != nil {
		logger.L.Error("Failed to load domain config", "path", path, "error", err)
		os.Exit(1)
	}
	logger.L.Info("Domain config loaded", "path", path,
		"fleetVehicles", len(domainCfg.Fleet), "aliases", len(domainCfg.Aliases))
	return domainCfg
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Fleetledger server starting...")

	domainCfg := loadDomainConfig()

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)

	canonicalizer := processors.NewCanonicalizer(domainCfg)
	attributor := processors.NewAttributor(domainCfg)
	registry := parsers.NewRegistry(domainCfg, canonicalizer)
	ledgerParser := subiekt.NewParser(domainCfg, canonicalizer)

	rateService := services.NewNBPRateService(config.Cfg.NBPBaseURL, config.Cfg.NBPTimeout)
	importService := services.NewImportService(registry, reportCache)
	reportService := services.NewReportService(domainCfg, rateService, registry, ledgerParser, attributor, reportCache)

	importHandler := handlers.NewImportHandler(importService, domainCfg)
	reportHandler := handlers.NewReportHandler(reportService, rateService, importService, domainCfg)
	fileHandler := handlers.NewFileHandler(importService)

	apiRouter := http.NewServeMux()
	apiRouter.HandleFunc("POST /api/import", importHandler.HandleImport)
	apiRouter.HandleFunc("GET /api/reports/expenses", reportHandler.HandleExpenseReport)
	apiRouter.HandleFunc("POST /api/reports/profitability", reportHandler.HandleProfitabilityReport)
	apiRouter.HandleFunc("GET /api/reports/reinvoice", reportHandler.HandleReinvoiceReport)
	apiRouter.HandleFunc("GET /api/transactions/range", reportHandler.HandleDateRange)
	apiRouter.HandleFunc("GET /api/rates", reportHandler.HandleRates)
	apiRouter.HandleFunc("GET /api/files", fileHandler.HandleListFiles)
	apiRouter.HandleFunc("GET /api/files/{name}", fileHandler.HandleDownloadFile)
	apiRouter.HandleFunc("DELETE /api/files/{name}", fileHandler.HandleDeleteFile)

	rootMux := http.NewServeMux()
	rootMux.Handle("/api/", apiRouter)
	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"service": "fleetledger", "status": "ok"})
	})

	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server listening", "address", serverAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Could not listen on address", "address", serverAddr, "error", err)
		stdlog.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
	}
}
