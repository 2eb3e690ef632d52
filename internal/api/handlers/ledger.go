package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/saldo-certo/internal/api/middleware"
	"github.com/dvloznov/saldo-certo/internal/logger"
	"github.com/dvloznov/saldo-certo/internal/domain"
	"github.com/dvloznov/saldo-certo/internal/store"
)

// LedgerHandler serves read-only views of a user's ledger.
type LedgerHandler struct {
	ledger store.Ledger
	log    zerolog.Logger
	now    func() time.Time
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(ledger store.Ledger, log zerolog.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, log: log, now: time.Now}
}

// Balance handles GET /api/users/{id}/balance
func (h *LedgerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	balance, err := h.ledger.Balance(r.Context(), userID)
	if err != nil {
		log := logger.FromContextOr(r.Context(), h.log)
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get balance")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get balance")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"balance": balance,
	})
}

// ListTransactions handles GET /api/users/{id}/transactions
func (h *LedgerHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	var since time.Time
	if s := r.URL.Query().Get("since"); s != "" {
		var err error
		since, err = time.Parse("2006-01-02", s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid since format")
			return
		}
	}

	transactions, err := h.ledger.ListTransactions(r.Context(), userID, since)
	if err != nil {
		log := logger.FromContextOr(r.Context(), h.log)
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	if transactions == nil {
		transactions = []*domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// ReportResponse is the current month summary.
type ReportResponse struct {
	UserID  string          `json:"user_id"`
	Month   string          `json:"month"`
	Balance decimal.Decimal `json:"balance"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
	Count   int             `json:"count"`
}

// Report handles GET /api/users/{id}/report
func (h *LedgerHandler) Report(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.PathValue("id")
	month := store.StartOfMonth(h.now())

	balance, err := h.ledger.Balance(ctx, userID)
	if err != nil {
		log := logger.FromContextOr(r.Context(), h.log)
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get balance")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build report")
		return
	}
	totals, err := h.ledger.Totals(ctx, userID, month)
	if err != nil {
		log := logger.FromContextOr(r.Context(), h.log)
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get totals")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build report")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, ReportResponse{
		UserID:  userID,
		Month:   month.Format("2006-01"),
		Balance: balance,
		Income:  totals.Income,
		Expense: totals.Expense,
		Net:     totals.Net(),
		Count:   totals.Count,
	})
}
