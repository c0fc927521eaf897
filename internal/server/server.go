package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cadastro-api/config"
	"cadastro-api/internal/handler"
	"cadastro-api/internal/middleware"
	"cadastro-api/internal/services"
	"cadastro-api/internal/transport/httpdto"
	cadastro_errors "cadastro-api/pkg/errors"
	"cadastro-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

// Handlers are the dependencies behind the route table. When StoreErr is set
// the service could not be wired and every request answers 500.
type Handlers struct {
	Auth        *handler.AuthHandler
	AuthService *services.AuthService
	Limiter     middleware.AuthLimiter
	StoreErr    error
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	if l == nil {
		l = logger.NewNop()
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(middleware.RecoveryMiddleware(l))

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.AppPort),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

// Handler exposes the engine for serverless entrypoints and tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) SetupRoutes(handlers *Handlers) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.NoMethod(middleware.MethodNotAllowedHandler(s.engine))
	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("Recurso não encontrado.", "NOT_FOUND"))
	})

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse("pong", gin.H{}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if handlers.AuthService == nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("store not configured", "UNHEALTHY"))
			return
		}
		if err := handlers.AuthService.Ping(c.Request.Context()); err != nil {
			s.logger.WarnCtx(c.Request.Context(), "health check failed", zap.Error(err))
			unavailable := cadastro_errors.New(cadastro_errors.ErrServiceUnavailable, "store unavailable")
			c.JSON(services.HTTPStatus(unavailable), httpdto.NewErrorResponse(unavailable.Error(), "UNHEALTHY"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse("healthy", gin.H{"status": "healthy"}))
	})

	if handlers.StoreErr != nil {
		guard := misconfigured(handlers.StoreErr, s.logger)
		api := s.engine.Group("/api")
		api.POST("/cadastrar", guard)
		api.POST("/login", guard)
		api.GET("/confirmar", guard)
		return
	}
	if handlers.Auth == nil {
		return
	}

	api := s.engine.Group("/api")
	api.Use(middleware.RateLimitMiddleware(handlers.Limiter, s.logger))
	{
		api.POST("/cadastrar", handlers.Auth.Register)
		api.POST("/login", handlers.Auth.Login)
		api.GET("/confirmar", handlers.Auth.Confirm)
		if handlers.AuthService != nil && handlers.AuthService.TokensEnabled() {
			api.GET("/sessao", middleware.AuthMiddleware(handlers.AuthService), handlers.Auth.Session)
		}
	}
}

func misconfigured(cause error, l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		l.ErrorCtx(c.Request.Context(), "store not configured", zap.Error(cause))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			httpdto.NewErrorResponse(cadastro_errors.ErrMisconfigured.Error(), "INTERNAL_ERROR"))
	}
}

func (s *Server) Start() error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		s.logger.Errorf("Error in starting the server: %s", err)
		return err
	case <-quit:
	}

	s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		return err
	}

	s.logger.Infof("Server stopped gracefully")
	return nil
}
