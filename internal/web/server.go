package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/baltex/ffa_ledger/internal/usecase"
	"go.uber.org/zap"
)

type Server struct {
	router     *http.ServeMux
	server     *http.Server
	accounts   *usecase.AccountService
	engine     *usecase.TradingEngine
	settlement *usecase.SettlementGenerator
	hub        *StreamHub
	logger     *zap.Logger
}

func NewServer(
	port int,
	accounts *usecase.AccountService,
	engine *usecase.TradingEngine,
	settlement *usecase.SettlementGenerator,
	hub *StreamHub,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:     http.NewServeMux(),
		accounts:   accounts,
		engine:     engine,
		settlement: settlement,
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
	// Accounts
	s.router.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	s.router.HandleFunc("GET /api/accounts/{id}/summary", s.handleAccountSummary)
	s.router.HandleFunc("GET /api/accounts/{id}/positions", s.handlePositions)

	// Trades
	s.router.HandleFunc("POST /api/accounts/{id}/trades", s.handleExecuteTrade)
	s.router.HandleFunc("GET /api/accounts/{id}/trades", s.handleListTrades)

	// Transfers
	s.router.HandleFunc("POST /api/accounts/{id}/transfers", s.handleTransfer)

	// Settlement
	s.router.HandleFunc("POST /api/accounts/{id}/statements", s.handleCreateStatement)
	s.router.HandleFunc("GET /api/statements/{id}", s.handleStatementDetail)

	// Marks
	s.router.HandleFunc("POST /api/marks", s.handleApplyMarks)

	// Contracts
	s.router.HandleFunc("GET /api/contracts", s.handleContracts)

	// Live summary stream
	s.router.HandleFunc("GET /ws/accounts/{id}", s.handleAccountStream)
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
