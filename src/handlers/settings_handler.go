package handlers

import (
	"net/http"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/services"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/utils"
)

type SettingsHandler struct {
	portfolio *services.PortfolioService
}

func NewSettingsHandler(portfolio *services.PortfolioService) *SettingsHandler {
	return &SettingsHandler{portfolio: portfolio}
}

type goalPayload struct {
	NetWorthGoal decimalField `json:"net_worth_goal"`
}

func (h *SettingsHandler) HandleGetGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	goal, err := h.portfolio.NetWorthGoal(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "Error retrieving goal")
		return
	}
	utils.SendJSON(w, map[string]float64{"net_worth_goal": goal}, http.StatusOK)
}

func (h *SettingsHandler) HandleSetGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req goalPayload
	if err := decodeJSONBody(w, r, &req); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.portfolio.SetNetWorthGoal(r.Context(), userID, req.NetWorthGoal.Value); err != nil {
		writeServiceError(w, err, "Error saving goal")
		return
	}
	utils.SendJSON(w, map[string]float64{"net_worth_goal": req.NetWorthGoal.Value}, http.StatusOK)
}
