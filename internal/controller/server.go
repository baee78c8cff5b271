package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ideb/interview-agenda/internal/app"
	"github.com/ideb/interview-agenda/internal/service"
	"go.uber.org/zap"
)

// Server is the HTTP surface of the agenda engine: booking, queue inspection
// and the protected manual trigger for the daily close.
type Server struct {
	allocation *service.AllocationService
	closeJob   *app.CloseScheduler
	cronSecret string
	logger     *zap.Logger

	httpServer *http.Server
}

func NewServer(
	allocation *service.AllocationService,
	closeJob *app.CloseScheduler,
	cronSecret string,
	env string,
	logger *zap.Logger,
) *Server {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		allocation: allocation,
		closeJob:   closeJob,
		cronSecret: cronSecret,
		logger:     logger,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	s.registerRoutes(router)

	s.httpServer = &http.Server{Handler: router}

	return s
}

func (s *Server) registerRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		interviews := api.Group("/interviews")
		interviews.POST("", s.createInterview)
		interviews.GET("/queue", s.getQueue)
		interviews.GET("/date/:date", s.getByDate)
		interviews.GET("/guardian/:id", s.getByGuardian)
		interviews.POST("/range", s.getByRange)
		interviews.PATCH("/:id/status", s.updateStatus)

		api.GET("/professionals/:kind/:id/dates", s.getEnabledDates)

		jobs := api.Group("/jobs", s.requireCronSecret())
		jobs.POST("/agenda-close", s.runAgendaClose)
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// Start begins serving on addr. Blocks until the listener fails or Stop is
// called.
func (s *Server) Start(addr string) error {
	s.httpServer.Addr = addr
	s.logger.Info("HTTP server listening", zap.String("addr", addr))

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests and shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}
