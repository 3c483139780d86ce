package processors

import (
	"sort"
	"strings"
	"time"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/models"
)

// LotEpsilon is the remaining quantity at or below which a lot counts as exhausted.
const LotEpsilon = 1e-8

// LongTermDays is the holding period a lot must exceed to be taxed as LONG.
const LongTermDays = 365

type lot struct {
	quantity  float64
	unitPrice float64
	acquired  time.Time
}

// TaxLotProcessor replays a ledger with FIFO lot matching. It holds no state
// and is safe for concurrent use.
type TaxLotProcessor struct{}

func NewTaxLotProcessor() *TaxLotProcessor {
	return &TaxLotProcessor{}
}

// Calculate returns the realized gain of every sale in txs together with one
// TaxEvent per sale/lot match. Symbols are processed in lexical order and,
// within a symbol, rows in ascending timestamp order (ties keep ledger order).
// Sold quantity with no open lot left is ignored.
func (p *TaxLotProcessor) Calculate(txs []models.Transaction) (float64, []models.TaxEvent) {
	realized := 0.0
	events := []models.TaxEvent{}

	bySymbol := groupTransactionsBySymbol(txs)
	symbols := make([]string, 0, len(bySymbol))
	for symbol := range bySymbol {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		rows := bySymbol[symbol]
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].Timestamp.Before(rows[j].Timestamp)
		})

		var queue []*lot
		for _, tx := range rows {
			switch tx.Side {
			case models.SideBuy:
				queue = append(queue, &lot{quantity: tx.Quantity, unitPrice: tx.Price, acquired: tx.Timestamp})
			case models.SideSell:
				remaining := tx.Quantity
				for remaining > 0 && len(queue) > 0 {
					head := queue[0]
					matched := min(remaining, head.quantity)

					cost := matched * head.unitPrice
					proceeds := matched * tx.Price
					days := heldDays(head.acquired, tx.Timestamp)

					event := models.TaxEvent{
						Symbol:     symbol,
						Quantity:   matched,
						Proceeds:   proceeds,
						CostBasis:  cost,
						Gain:       proceeds - cost,
						Term:       termFor(days),
						HeldDays:   days,
						AcquiredAt: head.acquired,
						SoldAt:     tx.Timestamp,
					}
					events = append(events, event)
					realized += event.Gain

					remaining -= matched
					head.quantity -= matched
					if head.quantity <= LotEpsilon {
						queue = queue[1:]
					}
				}
			}
		}
	}

	return realized, events
}

// groupTransactionsBySymbol copies rows into per-symbol slices so sorting
// never touches the caller's snapshot.
func groupTransactionsBySymbol(txs []models.Transaction) map[string][]models.Transaction {
	grouped := make(map[string][]models.Transaction)
	for _, tx := range txs {
		symbol := strings.ToUpper(strings.TrimSpace(tx.Symbol))
		if symbol == "" {
			continue
		}
		grouped[symbol] = append(grouped[symbol], tx)
	}
	return grouped
}

// heldDays is the number of whole days between acquisition and sale.
func heldDays(acquired, sold time.Time) int {
	d := sold.Sub(acquired)
	days := int(d / (24 * time.Hour))
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return days
}

func termFor(days int) models.HoldingTerm {
	if days > LongTermDays {
		return models.TermLong
	}
	return models.TermShort
}
