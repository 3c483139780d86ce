package processors

import "github.com/kathytingcheng-oss/crypto-quant-os/src/models"

// AverageCost is the quantity-weighted unit price of the BUY rows in txs.
// ok is false when there is no bought quantity to average over.
func AverageCost(txs []models.Transaction) (avg float64, ok bool) {
	var totalCost, totalQty float64
	for _, tx := range txs {
		if tx.Side != models.SideBuy {
			continue
		}
		totalCost += tx.Price * tx.Quantity
		totalQty += tx.Quantity
	}
	if totalQty <= 0 {
		return 0, false
	}
	return totalCost / totalQty, true
}
