package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/parley-chat/parley/pkg/config"
	"github.com/parley-chat/parley/pkg/event"
	"github.com/parley-chat/parley/pkg/handler"
	"github.com/parley-chat/parley/pkg/models"
	"github.com/parley-chat/parley/pkg/service"
	"github.com/parley-chat/parley/pkg/view"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	ginEngine *gin.Engine
	cfg       *config.AppConfig
	svcs      *service.Services
	events    *event.Emitter
	registry  *prometheus.Registry
	logger    *slog.Logger
	port      int
	done      chan struct{}
}

func NewServer(cfg *config.AppConfig, svcs *service.Services, events *event.Emitter, logger *slog.Logger) *Server {
	ginEngine := gin.New()
	ginEngine.Use(gin.Recovery())
	ginEngine.Use(handler.RequestLogger(logger))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	ginEngine.Use(handler.NewMetrics(registry).Middleware())

	// CORS: only local browser origins may call the API.
	ginEngine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if origin != "" {
			if !allowedOrigin(origin) {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	attachStatic(ginEngine, cfg.StaticDir())

	server := &Server{
		ginEngine: ginEngine,
		cfg:       cfg,
		svcs:      svcs,
		events:    events,
		registry:  registry,
		logger:    logger,
		done:      make(chan struct{}),
	}

	server.SetupRoutes()

	return server
}

func allowedOrigin(origin string) bool {
	for _, prefix := range []string{"http://localhost", "http://127.0.0.1", "https://localhost", "https://127.0.0.1"} {
		if strings.HasPrefix(origin, prefix) {
			return true
		}
	}
	return false
}

// Start binds the listener and serves in the background. It returns an
// error only if the address cannot be bound. The server shuts down
// gracefully when ctx is cancelled; Done is closed afterwards.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Attempt to listen on port first; if occupied return error immediately
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	} else {
		s.port = s.cfg.Port()
	}
	s.logger.Info("http server listening", "addr", ln.Addr().String())

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server stopped", "error", err)
		}
	}()

	go func() {
		defer close(s.done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("graceful shutdown failed", "error", err)
		}
	}()
	return nil
}

// Done is closed once the server has shut down.
func (s *Server) Done() <-chan struct{} { return s.done }

func (s *Server) SetupRoutes() {
	s.ginEngine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.ginEngine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	// Server-rendered pages
	// /view
	view.NewPages(s.svcs, s.logger).RegisterRoutes(s.ginEngine.Group("/view"))

	// API group
	// /api
	rps, burst := s.cfg.RateLimits()
	apiGroup := s.ginEngine.Group("/api")
	apiGroup.Use(handler.NewRateLimiter(rps, burst).Middleware())

	// Runtime info for clients that need to discover the base URLs
	apiGroup.GET("/runtime", func(c *gin.Context) {
		host := s.cfg.Host()
		if host == "0.0.0.0" || host == "::" {
			host = "127.0.0.1"
		}
		port := s.port
		if port == 0 {
			port = s.cfg.Port()
		}
		c.JSON(http.StatusOK, models.RuntimeInfo{
			HTTPBaseURL: fmt.Sprintf("http://%s:%d", host, port),
			WSBaseURL:   fmt.Sprintf("ws://%s:%d", host, port),
			Port:        port,
			Version:     version,
		})
	})

	// Change notifications
	// /api/events/ws
	ws := event.NewWSHandler(s.events, event.WSOptions{
		PingInterval: s.cfg.WSPingInterval(),
		ReadTimeout:  s.cfg.WSReadTimeout(),
	})
	apiGroup.GET("/events/ws", ws.Handle)

	handler.RegisterAPI(apiGroup, s.svcs, s.logger)
}
