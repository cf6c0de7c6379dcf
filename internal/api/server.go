package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/bakkerme/rctbc-bins/internal/core"
	"github.com/bakkerme/rctbc-bins/internal/reading"
	"github.com/bakkerme/rctbc-bins/internal/runner"
)

// Runner is the part of runner.Runner the API reads from.
type Runner interface {
	Caches() []*reading.Cache
	RunOnce(ctx context.Context) (*runner.Run, error)
}

// ValidateFunc checks a candidate address against the council site.
type ValidateFunc func(ctx context.Context, number, postcode string) (reading.Entry, error)

// Server publishes sensors over HTTP for a home-automation host to poll.
type Server struct {
	runner   Runner
	validate ValidateFunc
	logger   *slog.Logger
	echo     *echo.Echo
}

type validateRequest struct {
	Number   string `json:"number"`
	Postcode string `json:"postcode"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func NewServer(r Runner, validate ValidateFunc, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("http request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	server := &Server{
		runner:   r,
		validate: validate,
		logger:   logger,
		echo:     e,
	}
	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/sensors", s.handleListSensors)
	api.GET("/sensors/:number/:postcode", s.handleGetSensor)
	api.POST("/refresh", s.handleRefresh)
	api.POST("/validate", s.handleValidate)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(addr string) error {
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "rctbc-bins",
		"addresses": len(s.runner.Caches()),
	})
}

func (s *Server) handleListSensors(c echo.Context) error {
	caches := s.runner.Caches()
	sensors := make([]reading.Sensor, 0, len(caches))
	for _, cache := range caches {
		sensors = append(sensors, cache.Sensor())
	}
	return c.JSON(http.StatusOK, sensors)
}

func (s *Server) handleGetSensor(c echo.Context) error {
	key := core.NewAddressKey(c.Param("number"), c.Param("postcode"))
	for _, cache := range s.runner.Caches() {
		if cache.Address() == key {
			return c.JSON(http.StatusOK, cache.Sensor())
		}
	}
	return c.JSON(http.StatusNotFound, errorResponse{Error: "not_found", Message: "address is not tracked: " + key.String()})
}

func (s *Server) handleRefresh(c echo.Context) error {
	run, err := s.runner.RunOnce(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "refresh_aborted", Message: err.Error()})
	}
	sensors := make([]reading.Sensor, 0, len(run.Results))
	for _, res := range run.Results {
		sensors = append(sensors, res.Sensor)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"run_id":       run.ID,
		"completed_at": run.CompletedAt.Format(time.RFC3339),
		"sensors":      sensors,
	})
}

func (s *Server) handleValidate(c echo.Context) error {
	if s.validate == nil {
		return c.JSON(http.StatusNotImplemented, errorResponse{Error: reading.ValidationUnknown})
	}
	var req validateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: reading.ValidationUnknown, Message: "invalid request body"})
	}
	entry, err := s.validate(c.Request().Context(), req.Number, req.Postcode)
	if err != nil {
		code := reading.ValidationUnknown
		var verr *reading.ValidationError
		if errors.As(err, &verr) {
			code = verr.Code
		}
		return c.JSON(http.StatusBadRequest, errorResponse{Error: code})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"title":    entry.Title,
		"number":   entry.Address.PropertyNumber,
		"postcode": entry.Address.Postcode,
	})
}
