package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/logger"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/models"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/services"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/utils"
)

type TransactionHandler struct {
	portfolio *services.PortfolioService
}

func NewTransactionHandler(portfolio *services.PortfolioService) *TransactionHandler {
	return &TransactionHandler{portfolio: portfolio}
}

func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	txs, err := h.portfolio.ListTransactions(r.Context(), userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Error listing transactions", "error", err)
		writeServiceError(w, err, "Error retrieving transactions")
		return
	}
	utils.SendJSON(w, txs, http.StatusOK)
}

type transactionRequest struct {
	Symbol    string       `json:"symbol"`
	Type      string       `json:"type"`
	Quantity  decimalField `json:"quantity"`
	Price     decimalField `json:"price"`
	Fee       decimalField `json:"fee"`
	Timestamp string       `json:"timestamp"`
	Exchange  string       `json:"exchange"`
	TradeID   string       `json:"trade_id"`
}

func (h *TransactionHandler) HandleAddTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req transactionRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	side, err := models.ParseSide(req.Type)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var ts time.Time
	if strings.TrimSpace(req.Timestamp) != "" {
		if ts, err = utils.ParseTimestamp(req.Timestamp); err != nil {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	tx, err := h.portfolio.AddTransaction(r.Context(), userID, models.Transaction{
		Exchange:  strings.ToLower(strings.TrimSpace(req.Exchange)),
		TradeID:   strings.TrimSpace(req.TradeID),
		Symbol:    req.Symbol,
		Side:      side,
		Quantity:  req.Quantity.Value,
		Price:     req.Price.Value,
		Fee:       req.Fee.Value,
		Timestamp: ts,
	})
	if err != nil {
		writeServiceError(w, err, "Error saving transaction")
		return
	}
	utils.SendJSON(w, tx, http.StatusCreated)
}

func (h *TransactionHandler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		utils.SendJSONError(w, "invalid transaction id", http.StatusBadRequest)
		return
	}
	if err := h.portfolio.DeleteTransaction(r.Context(), userID, id); err != nil {
		writeServiceError(w, err, "Error deleting transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TransactionHandler) HandleClearTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	n, err := h.portfolio.ClearTransactions(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "Error deleting transactions")
		return
	}
	utils.SendJSON(w, map[string]int64{"deleted": n}, http.StatusOK)
}
