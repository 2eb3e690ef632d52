// Package handlers implements the HTTP endpoints of the API server.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/saldo-certo/internal/api/middleware"
	"github.com/dvloznov/saldo-certo/internal/logger"
	"github.com/dvloznov/saldo-certo/internal/domain"
	"github.com/dvloznov/saldo-certo/internal/interpreter"
)

const maxUtteranceBytes = 4 << 10

// InterpretHandler exposes the interpreter as a dry run: nothing is stored.
type InterpretHandler struct {
	interp *interpreter.Interpreter
	log    zerolog.Logger
}

// NewInterpretHandler creates a new interpret handler.
func NewInterpretHandler(interp *interpreter.Interpreter, log zerolog.Logger) *InterpretHandler {
	return &InterpretHandler{interp: interp, log: log}
}

// CandidateResponse is one interpreted transaction.
type CandidateResponse struct {
	Amount     decimal.Decimal  `json:"amount"`
	Direction  domain.Direction `json:"direction"`
	Category   string           `json:"category,omitempty"`
	Resolved   bool             `json:"resolved"`
	Provenance string           `json:"provenance"`
	Note       string           `json:"note"`
}

// Interpret handles POST /api/interpret
func (h *InterpretHandler) Interpret(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUtteranceBytes)).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "text is required")
		return
	}

	txs, err := h.interp.Interpret(r.Context(), req.Text)
	if err != nil {
		log := logger.FromContextOr(r.Context(), h.log)
		log.Error().Err(err).Msg("Failed to interpret text")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to interpret text")
		return
	}

	out := make([]CandidateResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, CandidateResponse{
			Amount:     tx.Amount,
			Direction:  tx.Direction,
			Category:   tx.Category.Name(),
			Resolved:   tx.Category.Resolved(),
			Provenance: tx.Category.Source().String(),
			Note:       tx.Note,
		})
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": out,
		"count":        len(out),
	})
}
