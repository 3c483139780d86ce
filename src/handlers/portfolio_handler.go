package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/logger"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/services"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/utils"
)

type PortfolioHandler struct {
	portfolio *services.PortfolioService
}

func NewPortfolioHandler(portfolio *services.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{portfolio: portfolio}
}

func (h *PortfolioHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	summary, err := h.portfolio.Dashboard(r.Context(), userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Error building dashboard", "error", err)
		writeServiceError(w, err, "Error retrieving portfolio")
		return
	}
	utils.SendJSON(w, summary, http.StatusOK)
}

type holdingRequest struct {
	Amount  decimalField `json:"amount"`
	AvgCost decimalField `json:"avg_buy_price"`
}

func (h *PortfolioHandler) HandleUpsertHolding(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req holdingRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !req.Amount.Set {
		utils.SendJSONError(w, "amount is required", http.StatusBadRequest)
		return
	}

	holding, err := h.portfolio.UpsertHolding(r.Context(), userID, chi.URLParam(r, "symbol"), req.Amount.Value, req.AvgCost.Value)
	if err != nil {
		writeServiceError(w, err, "Error saving holding")
		return
	}
	utils.SendJSON(w, holding, http.StatusOK)
}

func (h *PortfolioHandler) HandleDeleteHolding(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.portfolio.DeleteHolding(r.Context(), userID, chi.URLParam(r, "symbol")); err != nil {
		writeServiceError(w, err, "Error deleting holding")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PortfolioHandler) HandleResetHoldings(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.portfolio.ResetHoldings(r.Context(), userID); err != nil {
		writeServiceError(w, err, "Error resetting holdings")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
