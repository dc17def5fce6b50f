package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vitos/futures_risk_guard/internal/domain"
	"github.com/vitos/futures_risk_guard/internal/usecase"
	"go.uber.org/zap"
)

type Server struct {
	router     *http.ServeMux
	server     *http.Server
	monitor    *usecase.PositionMonitor
	submitter  *usecase.OrderSubmitter
	controller *usecase.PositionController
	cooldown   *usecase.CooldownController
	calc       *usecase.RiskCalculator
	api        domain.PanelAPI
	journal    domain.JournalRepository
	hub        *Hub
	logger     *zap.Logger
}

func NewServer(
	port int,
	monitor *usecase.PositionMonitor,
	submitter *usecase.OrderSubmitter,
	controller *usecase.PositionController,
	cooldown *usecase.CooldownController,
	calc *usecase.RiskCalculator,
	api domain.PanelAPI,
	journal domain.JournalRepository,
	hub *Hub,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:     http.NewServeMux(),
		monitor:    monitor,
		submitter:  submitter,
		controller: controller,
		cooldown:   cooldown,
		calc:       calc,
		api:        api,
		journal:    journal,
		hub:        hub,
		logger:     logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes() {
	// Dashboard state
	s.router.HandleFunc("GET /api/state", s.handleState)

	// Orders
	s.router.HandleFunc("POST /api/orders", s.handleSubmitOrder)

	// Positions
	s.router.HandleFunc("POST /api/positions/close", s.handleClosePosition)
	s.router.HandleFunc("POST /api/positions/protective", s.handleProtectiveOrders)
	s.router.HandleFunc("GET /api/positions/{symbol}/details", s.handlePositionDetails)
	s.router.HandleFunc("POST /api/refresh", s.handleRefresh)

	// Risk template
	s.router.HandleFunc("GET /api/risk-template", s.handleRiskTemplate)

	// Ticker proxy
	s.router.HandleFunc("GET /api/ticker/{symbol}", s.handleTicker)

	// Journal
	s.router.HandleFunc("GET /api/journal", s.handleJournal)

	// Notifications
	s.router.HandleFunc("GET /ws", s.hub.ServeWS)

	// Metrics
	s.router.Handle("GET /metrics", promhttp.Handler())
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
