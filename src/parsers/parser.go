package parsers

import (
	"io"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/models"
)

// Parser turns one exchange's CSV export into ledger rows. Implementations
// reject the whole file on the first malformed row.
type Parser interface {
	Parse(file io.Reader) ([]models.Transaction, error)
}
