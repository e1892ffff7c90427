package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/valai/valai-api/internal/chat"
	"github.com/valai/valai-api/internal/circuitbreaker"
	"github.com/valai/valai-api/internal/config"
	"github.com/valai/valai-api/internal/handler"
	"github.com/valai/valai-api/internal/middleware"
	"github.com/valai/valai-api/internal/quota"
	"github.com/valai/valai-api/internal/ratelimit"
	"github.com/valai/valai-api/internal/repository"
	"github.com/valai/valai-api/internal/service"
	"github.com/valai/valai-api/internal/storage"
)

type Server struct {
	router      *gin.Engine
	config      *config.Config
	db          *storage.SQLite
	authHandler *handler.AuthHandler
	chatHandler *handler.ChatHandler
	httpServer  *http.Server
}

// Wires the request pipeline: auth resolves the user, then every chat
// completion runs rate limit -> quota -> clamp -> upstream -> settle.
// redisClient may be nil, which selects the in-memory rate limiter.
func New(cfg *config.Config, db *storage.SQLite, redisClient *storage.RedisClient, logger zerolog.Logger) *Server {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	userRepo := repository.NewUserRepository(db)
	usageRepo := repository.NewTokenUsageRepository(db)

	authService := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.ExpiryHours)
	ledger := quota.NewLedger(usageRepo, cfg.Quota.TierLimits, logger)
	limiter := ratelimit.New(redisClient, logger)
	gateway := chat.NewOpenAIGateway(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	breaker := circuitbreaker.New(circuitbreaker.Config{}, logger)
	chatService := chat.NewService(limiter, ledger, gateway, breaker, logger)

	s := &Server{
		router:      router,
		config:      cfg,
		db:          db,
		authHandler: handler.NewAuthHandler(authService),
		chatHandler: handler.NewChatHandler(chatService, ledger, cfg.Quota.TierLimits),
	}

	s.setupMiddleware(logger)
	s.setupRoutes(authService)

	return s
}

func (s *Server) setupMiddleware(logger zerolog.Logger) {
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Recovery(logger))
	s.router.Use(middleware.Logger(logger))
}

func (s *Server) setupRoutes(authService *service.AuthService) {
	s.router.GET("/health", s.healthCheck)

	auth := s.router.Group("/api/auth")
	{
		auth.POST("/register", s.authHandler.Register)
		auth.POST("/login", s.authHandler.Login)
	}

	api := s.router.Group("/api/chat")
	{
		api.GET("/limits", s.chatHandler.Limits)

		protected := api.Group("")
		protected.Use(middleware.RequireAuth(authService))
		{
			protected.POST("/completions", s.chatHandler.Completions)
			protected.GET("/usage", s.chatHandler.Usage)
			protected.GET("/usage/history", s.chatHandler.UsageHistory)
		}
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}
