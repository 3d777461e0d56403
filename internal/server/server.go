// Package server provides HTTP server initialization and lifecycle management
// for the Kindred companion API.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/scrypster/kindred/internal/auth"
	"github.com/scrypster/kindred/internal/companion"
	"github.com/scrypster/kindred/internal/config"
	"github.com/scrypster/kindred/internal/llm"
	"github.com/scrypster/kindred/internal/storage"
	"github.com/scrypster/kindred/web/handlers"
)

// Deps bundles the stores and model client the server routes over.
type Deps struct {
	Companions storage.CompanionStore
	Users      storage.UserStore
	Sessions   storage.SessionStore
	Generator  llm.Generator
	Health     handlers.HealthChecker
}

// Start initializes and starts the HTTP server.
// Returns the actual address being listened on (useful for testing with port 0).
func Start(ctx context.Context, cfg *config.Config, deps Deps) (string, error) {
	mux := http.NewServeMux()

	// Create rate limiter (10 req/sec, burst of 20)
	rateLimiter := handlers.NewRateLimiter(10.0, 20)

	dispatcher := companion.NewDispatcher(deps.Companions, deps.Generator, companion.DispatcherConfig{
		HistoryLimit: cfg.Chat.HistoryLimit,
		IntimacyStep: cfg.Chat.IntimacyStep,
	})

	authService := auth.NewService(deps.Users, deps.Sessions,
		time.Duration(cfg.Security.SessionTTLHours)*time.Hour)

	companionHandlers := handlers.NewCompanionHandlers(deps.Companions)
	chatHandlers := handlers.NewChatHandlers(dispatcher)
	authHandlers := handlers.NewAuthHandlers(authService, cfg.Security.SecureCookies)
	statusHandler := handlers.NewStatusHandler(deps.Companions, deps.Health)

	mux.HandleFunc("/api/companion/chat", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		chatHandlers.Chat(w, r)
	})

	mux.HandleFunc("/api/companions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			companionHandlers.ListCompanions(w, r)
		case http.MethodPost:
			companionHandlers.CreateCompanion(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/companions/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			companionHandlers.GetCompanion(w, r)
		case http.MethodPatch:
			companionHandlers.UpdateCompanion(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/companions/{id}/greeting", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		companionHandlers.GetGreeting(w, r)
	})
	mux.HandleFunc("/api/companions/{id}/teach", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		companionHandlers.TeachCompanion(w, r)
	})

	mux.HandleFunc("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		authHandlers.Register(w, r)
	})
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		authHandlers.Login(w, r)
	})
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		authHandlers.Logout(w, r)
	})
	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		authHandlers.Me(w, r)
	})

	mux.HandleFunc("/api/status", statusHandler.GetStatus)

	// Wrap with rate limiting, then CORS, then security headers
	handler := handlers.RateLimitMiddleware(mux, rateLimiter)
	handler = handlers.CORSMiddleware(handler, cfg.Server.CORSOrigins)
	handler = handlers.SecurityHeadersMiddleware(handler)

	// Create server with security timeouts
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("listening on %s: %w", addr, err)
	}

	actualAddr := listener.Addr().String()

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	// Handle graceful shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	return actualAddr, nil
}
