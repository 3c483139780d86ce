package generic

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/models"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/parsers/csvutil"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/utils"
)

const DefaultExchange = "csv"

// tradeNamespace seeds the deterministic trade ids of rows without one, so a
// re-imported file is recognized as a duplicate.
var tradeNamespace = uuid.MustParse("6f1d0c1e-3b7a-4c55-9a36-1e8f2f4f9b21")

// GenericParser reads the neutral ledger layout:
// timestamp,symbol,side,quantity,price[,fee,exchange,trade_id]
type GenericParser struct{}

func NewParser() *GenericParser {
	return &GenericParser{}
}

func (p *GenericParser) Parse(file io.Reader) ([]models.Transaction, error) {
	table, err := csvutil.Read(file)
	if err != nil {
		return nil, err
	}
	sideCol := "side"
	if !table.Has(sideCol) && table.Has("type") {
		sideCol = "type"
	}
	if err := table.Require("timestamp", "symbol", sideCol, "quantity", "price"); err != nil {
		return nil, err
	}

	txs := make([]models.Transaction, 0, len(table.Rows))
	for i, row := range table.Rows {
		tx, err := parseRow(table, row, sideCol)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func parseRow(t *csvutil.Table, row []string, sideCol string) (models.Transaction, error) {
	ts, err := utils.ParseTimestamp(t.Get(row, "timestamp"))
	if err != nil {
		return models.Transaction{}, err
	}
	side, err := models.ParseSide(t.Get(row, sideCol))
	if err != nil {
		return models.Transaction{}, err
	}
	symbol := strings.ToUpper(t.Get(row, "symbol"))
	if symbol == "" {
		return models.Transaction{}, fmt.Errorf("symbol is required")
	}
	qty, err := utils.ParseDecimal("quantity", t.Get(row, "quantity"))
	if err != nil {
		return models.Transaction{}, err
	}
	price, err := utils.ParseDecimal("price", t.Get(row, "price"))
	if err != nil {
		return models.Transaction{}, err
	}
	fee, err := utils.ParseOptionalDecimal("fee", t.Get(row, "fee"))
	if err != nil {
		return models.Transaction{}, err
	}

	exchange := strings.ToLower(t.Get(row, "exchange"))
	if exchange == "" {
		exchange = DefaultExchange
	}
	tradeID := t.Get(row, "trade_id")
	if tradeID == "" {
		tradeID = uuid.NewSHA1(tradeNamespace, []byte(strings.Join(row, "\x1f"))).String()
	}

	return models.Transaction{
		Exchange:  exchange,
		TradeID:   tradeID,
		Symbol:    symbol,
		Side:      side,
		Quantity:  qty,
		Price:     price,
		Fee:       fee,
		Timestamp: ts,
	}, nil
}
