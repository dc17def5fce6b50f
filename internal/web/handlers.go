package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/vitos/futures_risk_guard/internal/domain"
	"go.uber.org/zap"
)

type stateResponse struct {
	Positions         []domain.PositionView `json:"positions"`
	SubmissionAllowed bool                  `json:"submission_allowed"`
	Cooldown          cooldownState         `json:"cooldown"`
}

type cooldownState struct {
	Active           bool       `json:"active"`
	EndsAt           *time.Time `json:"ends_at,omitempty"`
	RemainingSeconds int        `json:"remaining_seconds"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	resp := stateResponse{
		Positions:         s.monitor.Snapshot(),
		SubmissionAllowed: s.cooldown.SubmissionAllowed(),
	}
	if window := s.cooldown.Window(); !window.IsZero() {
		resp.Cooldown = cooldownState{
			Active:           true,
			EndsAt:           &window.EndsAt,
			RemainingSeconds: int(s.cooldown.Remaining().Seconds()),
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &domain.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}

	result, err := s.submitter.Submit(r.Context(), &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleClosePosition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol string `json:"symbol"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &domain.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}

	if err := s.controller.ClosePosition(r.Context(), req.Symbol, false); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleProtectiveOrders(w http.ResponseWriter, r *http.Request) {
	var upd domain.ProtectiveUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		s.writeError(w, &domain.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}

	if err := s.controller.UpdateProtectiveOrders(r.Context(), upd); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handlePositionDetails(w http.ResponseWriter, r *http.Request) {
	details, err := s.api.GetPositionDetails(r.Context(), r.PathValue("symbol"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, details)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.monitor.RefreshNow()
	if err := s.cooldown.Sync(r.Context()); err != nil {
		s.logger.Warn("cooldown sync on refresh failed", zap.Error(err))
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleRiskTemplate(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		s.writeError(w, &domain.ValidationError{Field: "symbol", Reason: "symbol is required"})
		return
	}
	side := domain.ParseSide(r.URL.Query().Get("side"))
	if side == "" {
		side = domain.SideLong
	}

	price, _ := strconv.ParseFloat(r.URL.Query().Get("price"), 64)
	if price <= 0 {
		last, err := s.api.GetTicker(r.Context(), symbol)
		if err != nil {
			s.writeError(w, err)
			return
		}
		price = last
	}

	stopLoss, takeProfit := s.calc.ProtectiveDefaults(price, side)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":      symbol,
		"side":        side,
		"price":       price,
		"stop_loss":   stopLoss,
		"take_profit": takeProfit,
		"risk_reward": s.calc.RiskReward(price, stopLoss, takeProfit, side),
	})
}

func (s *Server) handleTicker(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	last, err := s.api.GetTicker(r.Context(), symbol)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"symbol": symbol, "last": last})
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		s.writeJSON(w, http.StatusOK, []*domain.JournalEntry{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.journal.ListEntries(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to list journal entries", zap.Error(err))
		http.Error(w, "Failed to list journal entries", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []*domain.JournalEntry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// writeError maps the domain error taxonomy to HTTP statuses: client
// mistakes are 400, server-side rejections 422, panel unreachability 502.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	var bizErr *domain.BusinessError

	status := http.StatusBadGateway
	message := "Upstream request failed, please retry"
	switch {
	case errors.As(err, &vErr):
		status = http.StatusBadRequest
		message = vErr.Error()
	case errors.As(err, &bizErr):
		status = http.StatusUnprocessableEntity
		message = bizErr.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
