// This is the main entry point of the garage application. It is responsible
// for loading configuration, connecting to the database, running migrations,
// constructing services and handlers, setting up the HTTP router and
// middleware, and starting the HTTP server with graceful shutdown.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/user/garage-go/auth"
	"github.com/user/garage-go/cars"
	"github.com/user/garage-go/config"
	"github.com/user/garage-go/db"
	appmiddleware "github.com/user/garage-go/middleware"
	"github.com/user/garage-go/web"
)

func main() {
	// .env support for development; production sets real environment variables.
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading it: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// The process must not accept traffic without a reachable store: pool
	// creation pings the database and failing here is fatal.
	pool, err := db.NewPool(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(cfg.DB, "./migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}

	// Services and handlers are constructed here and injected explicitly;
	// there is no ambient module state.
	authService := auth.NewService(
		auth.NewPGUserStore(pool),
		auth.NewPGSessionStore(pool, cfg.Session.TTL),
		*cfg.Session,
	)
	authHandlers := auth.NewHandlers(authService, renderer)

	carService := cars.NewService(cars.NewPGStore(pool))
	carHandlers := cars.NewHandlers(carService, authService, renderer)

	rateLimiter := appmiddleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	stopBackground := make(chan struct{})
	rateLimiter.StartCleanup(10*time.Minute, stopBackground)
	startSessionCleanup(authService, stopBackground)

	r := chi.NewRouter()

	// Global middleware; chi requires all of it registered before any routes.
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(rateLimiter.Handler)
	r.Use(authService.LoadSession)

	// Public routes.
	r.Get("/", authHandlers.HandleIndex())
	r.Post("/login", authHandlers.HandleLogin())
	r.Post("/logout", authHandlers.HandleLogout())

	// Strict routes: no authenticated session means a redirect to the entry
	// page (or 401 for /api paths), with no further processing.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)

		r.Get("/dashboard", carHandlers.HandleDashboard())
		r.Post("/cars", carHandlers.HandleCreateForm())
		r.Post("/cars/{id}/update", carHandlers.HandleUpdateForm())
		r.Post("/cars/{id}/delete", carHandlers.HandleDeleteForm())
		r.Get("/api/me", carHandlers.HandleMe())
	})

	// Permissive routes: unauthenticated requests proceed as the shared demo
	// identity so the JSON API can be exercised without a login flow.
	r.Group(func(r chi.Router) {
		r.Use(authService.WithDemoUser)

		r.Get("/data", carHandlers.HandleData())
		r.Post("/add", carHandlers.HandleAdd())
		r.Post("/modify", carHandlers.HandleModify())
		r.Post("/delete", carHandlers.HandleDelete())
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "Not found")
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	close(stopBackground)

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped gracefully")
}

// startSessionCleanup purges expired sessions periodically so the sessions
// table does not grow without bound. Stops when stop is closed.
func startSessionCleanup(service *auth.Service, stop <-chan struct{}) {
	ticker := time.NewTicker(time.Hour)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if err := service.CleanupExpiredSessions(ctx); err != nil {
					log.Printf("session cleanup failed: %v", err)
				}
				cancel()
			case <-stop:
				return
			}
		}
	}()
}
