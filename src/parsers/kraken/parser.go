package kraken

import (
	"fmt"
	"io"
	"strings"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/models"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/parsers/csvutil"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/utils"
)

const Exchange = "kraken"

// Longest first so ZUSD wins over USD.
var quoteSuffixes = []string{
	"ZUSD", "ZEUR", "ZGBP", "ZCAD", "ZJPY", "ZCHF", "ZAUD",
	"USDT", "USDC", "XXBT", "XETH",
	"USD", "EUR", "GBP", "CAD", "JPY", "CHF", "AUD", "XBT", "ETH", "DAI",
}

// legacyCodes maps Kraken's prefixed and renamed asset codes to common ones.
var legacyCodes = map[string]string{
	"XXBT": "BTC", "XBT": "BTC",
	"XXDG": "DOGE", "XDG": "DOGE",
	"XETH": "ETH", "XETC": "ETC", "XLTC": "LTC", "XXRP": "XRP",
	"XXLM": "XLM", "XXMR": "XMR", "XZEC": "ZEC", "XREP": "REP", "XMLN": "MLN",
	"ZUSD": "USD", "ZEUR": "EUR", "ZGBP": "GBP", "ZCAD": "CAD",
	"ZJPY": "JPY", "ZCHF": "CHF", "ZAUD": "AUD",
}

// The ledger is denominated in USD; trades quoted in anything else are refused.
var usdQuotes = map[string]bool{
	"USD": true, "USDT": true, "USDC": true, "DAI": true,
}

// KrakenParser reads the "Trades" export of the Kraken history page.
type KrakenParser struct{}

func NewParser() *KrakenParser {
	return &KrakenParser{}
}

func (p *KrakenParser) Parse(file io.Reader) ([]models.Transaction, error) {
	table, err := csvutil.Read(file)
	if err != nil {
		return nil, err
	}
	if err := table.Require("txid", "pair", "time", "type", "price", "vol"); err != nil {
		return nil, err
	}

	txs := make([]models.Transaction, 0, len(table.Rows))
	for i, row := range table.Rows {
		tx, err := parseRow(table, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func parseRow(t *csvutil.Table, row []string) (models.Transaction, error) {
	txid := t.Get(row, "txid")
	if txid == "" {
		return models.Transaction{}, fmt.Errorf("txid is required")
	}
	base, quote, err := SplitAssetPair(t.Get(row, "pair"))
	if err != nil {
		return models.Transaction{}, err
	}
	if !usdQuotes[quote] {
		return models.Transaction{}, fmt.Errorf("pair %q is quoted in %s, only USD and USD stablecoin pairs can be imported", t.Get(row, "pair"), quote)
	}
	ts, err := utils.ParseTimestamp(t.Get(row, "time"))
	if err != nil {
		return models.Transaction{}, err
	}
	side, err := models.ParseSide(t.Get(row, "type"))
	if err != nil {
		return models.Transaction{}, err
	}
	price, err := utils.ParseDecimal("price", t.Get(row, "price"))
	if err != nil {
		return models.Transaction{}, err
	}
	vol, err := utils.ParseDecimal("vol", t.Get(row, "vol"))
	if err != nil {
		return models.Transaction{}, err
	}
	fee, err := utils.ParseOptionalDecimal("fee", t.Get(row, "fee"))
	if err != nil {
		return models.Transaction{}, err
	}

	return models.Transaction{
		Exchange:  Exchange,
		TradeID:   txid,
		Symbol:    base,
		Side:      side,
		Quantity:  vol,
		Price:     price,
		Fee:       fee,
		Timestamp: ts,
	}, nil
}

// SplitAssetPair extracts the common base and quote codes from a Kraken pair
// name such as XXBTZUSD, XBTUSDT or XBT/USD.
func SplitAssetPair(pair string) (base, quote string, err error) {
	pair = strings.ToUpper(strings.TrimSpace(pair))
	if b, q, ok := strings.Cut(pair, "/"); ok {
		if b == "" || q == "" {
			return "", "", fmt.Errorf("invalid pair %q", pair)
		}
		return commonCode(b), commonCode(q), nil
	}
	for _, q := range quoteSuffixes {
		if len(pair) <= len(q) || !strings.HasSuffix(pair, q) {
			continue
		}
		b := strings.TrimSuffix(pair, q)
		// Prefixed quotes (ZUSD, XXBT) only follow prefixed bases, as in
		// XXBTZUSD. XTZUSD is XTZ/USD.
		if isPrefixed(q) && !isPrefixed(b) {
			continue
		}
		return commonCode(b), commonCode(q), nil
	}
	return "", "", fmt.Errorf("unrecognized pair %q", pair)
}

func isPrefixed(code string) bool {
	_, ok := legacyCodes[code]
	return ok && len(code) == 4
}

func commonCode(code string) string {
	if c, ok := legacyCodes[code]; ok {
		return c
	}
	return code
}
