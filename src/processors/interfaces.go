package processors

import (
	"github.com/kathytingcheng-oss/crypto-quant-os/src/models"
)

// TaxCalculator computes realized gains from a ledger snapshot.
type TaxCalculator interface {
	Calculate(transactions []models.Transaction) (float64, []models.TaxEvent)
}

var _ TaxCalculator = (*TaxLotProcessor)(nil)
