package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/models"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/services"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/utils"
)

const maxJSONBodyBytes = 1 << 20

// decimalField accepts a JSON number or a numeric string and parses it
// strictly, so "1,5" or "abc" are rejected before reaching the ledger.
type decimalField struct {
	Value float64
	Set   bool
}

func (d *decimalField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	raw := string(b)
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}
	v, err := utils.ParseDecimal("value", raw)
	if err != nil {
		return err
	}
	d.Value, d.Set = v, true
	return nil
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// writeServiceError maps service errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrNotFound):
		utils.SendJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrDuplicate):
		utils.SendJSONError(w, err.Error(), http.StatusConflict)
	default:
		utils.SendJSONError(w, fallback, http.StatusInternalServerError)
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
	}
	return userID, ok
}
