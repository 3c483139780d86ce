package generic

import (
	"strings"
	"testing"
	"time"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/models"
)

func TestParse(t *testing.T) {
	input := "Timestamp,Symbol,Side,Quantity,Price,Fee\n" +
		"2024-01-02 10:00:00,btc,buy,0.5,42000,1.5\n" +
		"\n" +
		"2024-02-03T08:30:00Z,BTC,SELL,0.25,50000,\n"

	txs, err := NewParser().Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}

	first := txs[0]
	if first.Symbol != "BTC" || first.Side != models.SideBuy || first.Quantity != 0.5 || first.Price != 42000 || first.Fee != 1.5 {
		t.Errorf("unexpected first row %+v", first)
	}
	if !first.Timestamp.Equal(time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected timestamp %v", first.Timestamp)
	}
	if first.Exchange != DefaultExchange || first.TradeID == "" {
		t.Errorf("expected default exchange and a generated trade id, got %+v", first)
	}
	if txs[1].Side != models.SideSell || txs[1].Fee != 0 {
		t.Errorf("unexpected second row %+v", txs[1])
	}
}

func TestParseGeneratedTradeIDsAreStable(t *testing.T) {
	input := "timestamp,symbol,type,quantity,price\n2024-01-02,ETH,BUY,1,2000\n"

	a, err := NewParser().Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewParser().Parse(strings.NewReader(input))
	if a[0].TradeID != b[0].TradeID {
		t.Fatalf("expected stable trade ids, got %q and %q", a[0].TradeID, b[0].TradeID)
	}
}

func TestParseKeepsExplicitTradeID(t *testing.T) {
	input := "timestamp,symbol,side,quantity,price,exchange,trade_id\n2024-01-02,ETH,BUY,1,2000,Coinbase,abc-1\n"
	txs, err := NewParser().Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if txs[0].TradeID != "abc-1" || txs[0].Exchange != "coinbase" {
		t.Fatalf("unexpected row %+v", txs[0])
	}
}

func TestParseRejectsMalformedRows(t *testing.T) {
	tests := map[string]string{
		"bad number":     "timestamp,symbol,side,quantity,price\n2024-01-02,ETH,BUY,one,2000\n",
		"bad side":       "timestamp,symbol,side,quantity,price\n2024-01-02,ETH,HODL,1,2000\n",
		"bad timestamp":  "timestamp,symbol,side,quantity,price\nsoon,ETH,BUY,1,2000\n",
		"missing column": "timestamp,symbol,side,quantity\n2024-01-02,ETH,BUY,1\n",
		"empty file":     "",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := NewParser().Parse(strings.NewReader(input)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestParseReportsRowNumber(t *testing.T) {
	input := "timestamp,symbol,side,quantity,price\n2024-01-02,ETH,BUY,1,2000\n2024-01-03,ETH,BUY,1,abc\n"
	_, err := NewParser().Parse(strings.NewReader(input))
	if err == nil || !strings.Contains(err.Error(), "row 2") {
		t.Fatalf("expected the error to name row 2, got %v", err)
	}
}
