package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/worksheet-gen/backend/internal/auth"
	"github.com/worksheet-gen/backend/internal/config"
	"github.com/worksheet-gen/backend/internal/database"
	"github.com/worksheet-gen/backend/internal/middleware"
	"github.com/worksheet-gen/backend/internal/share"
	"github.com/worksheet-gen/backend/internal/suggest"
	"github.com/worksheet-gen/backend/internal/templates"
	"github.com/worksheet-gen/backend/internal/worksheets"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Server.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize services
	worksheetService := worksheets.NewService(worksheets.NewMetrics(prometheus.DefaultRegisterer))
	drafts := worksheets.NewDraftStore(worksheetService, cfg.Drafts.TTL)
	go drafts.StartSweeper(ctx, time.Minute)

	llm, model := suggest.NewClient(cfg.Suggest)
	suggester := suggest.NewSuggester(llm, model, cfg.Suggest.RatePerMinute)

	// Initialize handlers
	authHandler := auth.NewHandler(auth.NewPostgresStore(db), []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	worksheetHandler := worksheets.NewHandler(worksheetService, drafts)
	templateHandler := templates.NewHandler(templates.NewService(templates.NewStore(db)))
	shareHandler := share.NewHandler(cfg.Server.PublicBaseURL)
	suggestHandler := suggest.NewHandler(suggester)

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(logger))
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/worksheets/share", shareHandler.Share).Methods("POST")
	api.HandleFunc("/student", shareHandler.Student).Methods("GET")
	api.HandleFunc("/suggestions", suggestHandler.Suggest).Methods("POST")
	worksheetHandler.RegisterRoutes(api)

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware([]byte(cfg.Auth.JWTSecret)))
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")
	templateHandler.RegisterRoutes(api, protected)

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"database unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", cfg.Server.Port, "suggest_mode", cfg.Suggest.Mode)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
