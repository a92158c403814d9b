package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/sirupsen/logrus"

	"github.com/vultisig/zap-planner/internal/types"
	"github.com/vultisig/zap-planner/service"
)

type ZapPlanner interface {
	Plan(ctx context.Context, dto types.ZapPlanRequestDto) (*types.ZapPlanResponseDto, error)
}

type Server struct {
	host    string
	port    int64
	planner ZapPlanner
	logger  *logrus.Logger
}

func NewServer(host string, port int64, planner ZapPlanner, logger *logrus.Logger) *Server {
	return &Server{
		host:    host,
		port:    port,
		planner: planner,
		logger:  logger,
	}
}

func (s *Server) StartServer() error {
	e := s.router()
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	s.logger.Infof("zap planner listening on %s", addr)
	return e.Start(addr)
}

func (s *Server) router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(log.INFO)
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("64K"))
	e.Use(middleware.CORS())

	e.GET("/healthz", s.Healthz)
	zapGroup := e.Group("/zap")
	zapGroup.POST("/plan", s.PlanZap)
	return e
}

func (s *Server) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (s *Server) PlanZap(c echo.Context) error {
	var req types.ZapPlanRequestDto
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("fail to parse request"))
	}

	resp, err := s.planner.Plan(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPlanRequest) {
			return c.JSON(http.StatusBadRequest, NewErrorResponse(err.Error()))
		}
		s.logger.WithError(err).Error("fail to plan zap")
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("fail to plan zap"))
	}
	return c.JSON(http.StatusOK, resp)
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Message: message}
}
