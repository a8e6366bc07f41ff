// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/NicholasBelschner/Click2Leadmain/internal/advisory"
	"github.com/NicholasBelschner/Click2Leadmain/internal/agent"
	"github.com/NicholasBelschner/Click2Leadmain/internal/broker"
	"github.com/NicholasBelschner/Click2Leadmain/internal/config"
	"github.com/NicholasBelschner/Click2Leadmain/internal/events"
	"github.com/NicholasBelschner/Click2Leadmain/internal/handler"
	"github.com/NicholasBelschner/Click2Leadmain/internal/llm"
	"github.com/NicholasBelschner/Click2Leadmain/internal/middleware"
	"github.com/NicholasBelschner/Click2Leadmain/internal/orchestrator"
	"github.com/NicholasBelschner/Click2Leadmain/pkg/logger"
	"github.com/NicholasBelschner/Click2Leadmain/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "agent-conversation-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS when configured. The conversation core does not
	// depend on the event stream, so a missing broker is not fatal.
	var eventsClient *events.Client
	var publisher *events.Publisher
	if cfg.NATSURL != "" {
		eventsClient, err = events.Connect(events.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Warn("failed to connect to NATS, audit events disabled", zap.Error(err))
		} else {
			defer eventsClient.Close()

			publisher = events.NewPublisher(eventsClient)
			if err := publisher.EnsureStream(ctx); err != nil {
				log.Warn("failed to ensure audit stream, audit events disabled", zap.Error(err))
				publisher = nil
			}
		}
	}

	// Initialize LLM client
	llmClient, err := llm.NewClient(llm.Provider(cfg.DefaultLLM), llmAPIKey(cfg), cfg.XAIBaseURL)
	if err != nil {
		log.Error("failed to create LLM client", zap.Error(err))
		os.Exit(1)
	}
	gateway := llm.NewGateway(llmClient, cfg.LLMTimeout, log)

	// Initialize conversation components
	registry := agent.NewRegistry(gateway, log)
	parser := agent.NewSpecParser(gateway, log)
	suggester := agent.NewSuggester(gateway, log)

	b := broker.New(registry, parser, suggester, gateway, log)
	b.SetMaxExchanges(cfg.MaxExchanges)
	b.SetAdvisor(advisory.NewRuleBased())

	var sink orchestrator.EventSink
	if publisher != nil {
		sink = publisher
	}
	orch := orchestrator.New(b, registry, suggester, sink, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(eventsClient)
	agentHandler := handler.NewAgentHandler(orch, log)
	conversationHandler := handler.NewConversationHandler(orch, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Agents
		r.Route("/agents", func(r chi.Router) {
			r.Get("/", agentHandler.List)
			r.Post("/suggestions", agentHandler.Suggestions)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", agentHandler.Get)
				r.Put("/", agentHandler.Update)
				r.Delete("/", agentHandler.Delete)
			})
		})

		// Conversations
		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", conversationHandler.Start)
			r.Post("/specification", conversationHandler.Specification)
			r.Post("/exchange", conversationHandler.Exchange)
			r.Post("/full", conversationHandler.Full)
			r.Get("/status", conversationHandler.Status)
			r.Get("/export", conversationHandler.Export)
			r.Post("/reset", conversationHandler.Reset)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

func llmAPIKey(cfg *config.Config) string {
	if llm.Provider(cfg.DefaultLLM) == llm.ProviderAnthropic {
		return cfg.AnthropicAPIKey
	}
	return cfg.XAIAPIKey
}
