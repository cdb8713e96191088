package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/markdave123-py/EduAI/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/EduAI/internal/api/middlewares"
	"github.com/markdave123-py/EduAI/internal/config"
)

// Server wraps the HTTP server instance.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

func NewServer(cfg *config.Config, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// NewRouter builds and wires all routes.
func NewRouter(a *App) http.Handler {
	log := a.Logger

	authHandler := handlers.NewAuthHandler(a.Users, log)
	configHandler := handlers.NewAgentConfigHandler(a.Configs, log)
	chatHandler := handlers.NewChatHandler(a.Chat, log)
	docHandler := handlers.NewDocumentHandler(a.Content, log)
	knowledgeHandler := handlers.NewKnowledgeHandler(a.Knowledge, log)
	ncertHandler := handlers.NewNCERTHandler(a.Store, a.Scraper, a.Ingestor, log)
	arHandler := handlers.NewARHandler(a.Assets, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(appMiddleware.RequestLogger(log))
	r.Use(middleware.Recoverer)
	timeout := a.Config.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	r.Use(middleware.Timeout(timeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.Config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Get("/health", handlers.Health(a.Config.StoreDriver, a.started))

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware(a.Signer, a.Users, log))

			protected.Get("/users/me", authHandler.Me)
			protected.Post("/users", authHandler.Register)

			protected.Get("/agent-configs", configHandler.List)
			protected.Post("/agent-configs", configHandler.Create)
			protected.Patch("/agent-configs/{id}", configHandler.Update)

			protected.Get("/chat-sessions", chatHandler.ListSessions)
			protected.Post("/chat-sessions", chatHandler.CreateSession)
			protected.Get("/chat-sessions/{id}/messages", chatHandler.Messages)
			protected.Post("/chat-sessions/{id}/messages", chatHandler.PostMessage)

			protected.Post("/content", docHandler.Generate)
			protected.Get("/content", docHandler.List)
			protected.Get("/content/{id}", docHandler.Get)
			protected.Get("/content/{id}/document", docHandler.Document)

			protected.Post("/knowledge-base/ask", knowledgeHandler.Ask)
			protected.Get("/knowledge-base/history", knowledgeHandler.History)
			protected.Get("/knowledge-base/search", knowledgeHandler.Search)

			protected.Get("/ncert/textbooks", ncertHandler.List)
			if a.Config.APIScrape {
				protected.Post("/ncert/scrape", ncertHandler.Scrape)
			}
			protected.Post("/ncert/textbooks/{id}/extract", ncertHandler.Extract)

			protected.Post("/ar/search", arHandler.Search)
			protected.Post("/ar/embed", arHandler.Embed)
		})
	})

	return r
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
