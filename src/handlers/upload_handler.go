package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/logger"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/security/validation"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/services"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/utils"
)

type UploadHandler struct {
	portfolio      *services.PortfolioService
	maxUploadBytes int64
}

func NewUploadHandler(portfolio *services.PortfolioService, maxUploadBytes int64) *UploadHandler {
	return &UploadHandler{portfolio: portfolio, maxUploadBytes: maxUploadBytes}
}

// HandleImport ingests a CSV export sent as the multipart field "file".
// The parser is chosen by ?source= (default "generic").
func (h *UploadHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	log := logger.FromContext(r.Context())

	source := strings.TrimSpace(r.URL.Query().Get("source"))
	if source == "" {
		source = "generic"
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		log.Warn("Failed to parse multipart form or request too large", "error", err, "limit", h.maxUploadBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d bytes)", h.maxUploadBytes), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		log.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	detected, err := validation.ValidateCSVContent(file)
	if err != nil {
		log.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.Info("Processing import request", "filename", fileHeader.Filename, "source", source, "detectedType", detected)

	result, err := h.portfolio.ImportTransactions(r.Context(), userID, source, file)
	if err != nil {
		log.Warn("Import failed", "filename", fileHeader.Filename, "error", err)
		writeServiceError(w, err, "An internal error occurred while processing the file.")
		return
	}
	utils.SendJSON(w, result, http.StatusOK)
}
