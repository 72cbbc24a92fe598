package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reefward/diveops/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Server struct {
	http *http.Server
	log  *zap.Logger
}

func New(cfg config.Config, handlers *Handlers, log *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(log))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/v1")
	{
		v1.POST("/trips/:id/quote", handlers.Quote)
		v1.GET("/trips/:id/pricing-validation", handlers.ValidatePricing)
		v1.POST("/bookings/:id/price-snapshot", handlers.Snapshot)
		v1.GET("/bookings/:id/price-snapshot", handlers.GetSnapshot)
		v1.POST("/bookings/:id/rentals", handlers.AddRental)
		v1.GET("/bookings/:id/rentals", handlers.ListRentals)
		v1.GET("/audit", handlers.ListAudit)
	}

	return &Server{
		http: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func (s *Server) Start() error {
	s.log.Info("http server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func Register(lc fx.Lifecycle, s *Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := s.Start(); err != nil {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: s.Stop,
	})
}
