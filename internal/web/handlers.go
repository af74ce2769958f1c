package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/baltex/ffa_ledger/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// writeError maps the error taxonomy onto HTTP statuses and the
// {success, message} body shape.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch domain.KindOf(err) {
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindConflict:
		status = http.StatusConflict
	}
	s.writeJSON(w, status, map[string]any{
		"success": false,
		"message": err.Error(),
	})
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Owner         string          `json:"owner"`
		InitialEquity decimal.Decimal `json:"initial_equity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	account, err := s.accounts.CreateAccount(r.Context(), req.Owner, req.InitialEquity)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, account)
}

func (s *Server) handleAccountSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.accounts.Summary(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.accounts.Positions(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, positions)
}

func (s *Server) handleExecuteTrade(w http.ResponseWriter, r *http.Request) {
	var req domain.TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	trade, err := s.engine.ExecuteTrade(r.Context(), r.PathValue("id"), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "trade executed",
		"trade":   trade,
	})
}

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	trades, err := s.accounts.Trades(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, trades)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind   domain.TransferKind `json:"kind"`
		Amount decimal.Decimal     `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	accountID := r.PathValue("id")
	var transfer *domain.CashTransfer
	var err error
	switch req.Kind {
	case domain.TransferDeposit:
		transfer, err = s.accounts.Deposit(r.Context(), accountID, req.Amount)
	case domain.TransferWithdrawal:
		transfer, err = s.accounts.Withdraw(r.Context(), accountID, req.Amount)
	default:
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, transfer)
}

func (s *Server) handleCreateStatement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PeriodStart time.Time `json:"period_start"`
		PeriodEnd   time.Time `json:"period_end"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	stmt, err := s.settlement.Generate(r.Context(), r.PathValue("id"), req.PeriodStart, req.PeriodEnd)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, stmt)
}

func (s *Server) handleStatementDetail(w http.ResponseWriter, r *http.Request) {
	stmt, closed, err := s.settlement.StatementDetail(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"statement":     stmt,
		"closed_trades": closed,
	})
}

func (s *Server) handleApplyMarks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Marks []domain.MarkPrice `json:"marks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if err := s.engine.ApplyMarks(r.Context(), req.Marks); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "marks applied",
	})
}

func (s *Server) handleContracts(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, domain.ListContracts())
}
