package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/logger"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/security/validation"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/services"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/utils"
)

type TaxHandler struct {
	portfolio *services.PortfolioService
}

func NewTaxHandler(portfolio *services.PortfolioService) *TaxHandler {
	return &TaxHandler{portfolio: portfolio}
}

// HandleGetReport serves the FIFO tax report with ETag revalidation.
func (h *TaxHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	log := logger.FromContext(r.Context())

	report, err := h.portfolio.TaxReport(r.Context(), userID)
	if err != nil {
		log.Error("Error building tax report", "error", err)
		writeServiceError(w, err, "Error calculating tax report")
		return
	}

	w.Header().Set("Cache-Control", "no-cache, private")
	etag, err := utils.GenerateETag(report)
	if err != nil {
		log.Error("Failed to generate ETag for tax report", "error", err)
	} else {
		quoted := fmt.Sprintf("%q", etag)
		w.Header().Set("ETag", quoted)
		for _, candidate := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(candidate) == quoted {
				log.Debug("ETag match for tax report", "etag", etag)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}
	utils.SendJSON(w, report, http.StatusOK)
}

var taxEventsHeader = []string{"symbol", "acquired", "sold", "quantity", "proceeds", "cost_basis", "gain", "term", "held_days"}

// HandleExportEvents streams every realized lot match as CSV.
func (h *TaxHandler) HandleExportEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	report, err := h.portfolio.TaxReport(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "Error calculating tax report")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="tax_events.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write(taxEventsHeader)
	for _, e := range report.Events {
		_ = cw.Write([]string{
			validation.SanitizeForFormulaInjection(e.Symbol),
			e.AcquiredAt.Format("2006-01-02"),
			e.Date(),
			formatFloat(e.Quantity),
			formatFloat(e.Proceeds),
			formatFloat(e.CostBasis),
			formatFloat(e.Gain),
			string(e.Term),
			strconv.Itoa(e.HeldDays),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		logger.FromContext(r.Context()).Error("Error writing tax events CSV", "error", err)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
