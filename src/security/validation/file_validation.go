package validation

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/logger"
)

// allowedDeclaredTypes are the client-declared MIME types accepted for a
// ledger CSV upload. Spreadsheet formats other than CSV are refused.
var allowedDeclaredTypes = map[string]bool{
	"text/csv":                 true,
	"application/csv":          true,
	"application/vnd.ms-excel": true,
	"text/plain":               true,
	"application/octet-stream": true,
}

var allowedDetectedTypes = map[string]bool{
	"text/plain":               true,
	"text/csv":                 true,
	"application/csv":          true,
	"application/octet-stream": true,
}

// ValidateClientContentType checks the Content-Type the client declared for
// the uploaded file. An empty value is accepted; the content sniff still runs.
func ValidateClientContentType(contentType string) error {
	if strings.TrimSpace(contentType) == "" {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !allowedDeclaredTypes[strings.ToLower(mediaType)] {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		return fmt.Errorf("file type '%s' is not allowed for CSV import", contentType)
	}
	return nil
}

// ValidateCSVContent sniffs the first 512 bytes of file and rewinds it. It
// returns the detected type and an error when the content is not text.
func ValidateCSVContent(file io.ReadSeeker) (string, error) {
	if file == nil {
		return "", fmt.Errorf("file is nil")
	}

	buffer := make([]byte, 512)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", err)
	}
	if n == 0 {
		return "", fmt.Errorf("file is empty")
	}

	detected := strings.ToLower(strings.Split(http.DetectContentType(buffer[:n]), ";")[0])
	if !allowedDetectedTypes[detected] {
		logger.L.Warn("Disallowed detected file content type", "detectedContentType", detected)
		return detected, fmt.Errorf("detected file content type '%s' is not consistent with a CSV file", detected)
	}
	return detected, nil
}
