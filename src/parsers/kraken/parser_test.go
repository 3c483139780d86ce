package kraken

import (
	"strings"
	"testing"
	"time"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/models"
)

const tradesExport = `"txid","ordertxid","pair","time","type","ordertype","price","cost","fee","vol","margin","misc","ledgers"
"TXA-1","OA-1","XXBTZUSD","2023-05-01 09:15:22.1234","buy","limit","29000.0","2900.0","4.64","0.1","0.0","","L1,L2"
"TXA-2","OA-2","XDGUSD","2023-06-01 10:00:00","sell","market","0.07","7.0","0.01","100","0.0","","L3,L4"
"TXA-3","OA-3","SOL/USDT","2023-07-01 10:00:00","buy","market","20","20","0","1","0.0","","L5"
`

func TestParseTradesExport(t *testing.T) {
	txs, err := NewParser().Parse(strings.NewReader(tradesExport))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(txs))
	}

	btc := txs[0]
	if btc.Symbol != "BTC" || btc.Side != models.SideBuy || btc.Quantity != 0.1 || btc.Price != 29000 || btc.Fee != 4.64 {
		t.Errorf("unexpected BTC row %+v", btc)
	}
	if btc.Exchange != Exchange || btc.TradeID != "TXA-1" {
		t.Errorf("unexpected identity %s/%s", btc.Exchange, btc.TradeID)
	}
	if btc.Timestamp.Year() != 2023 || btc.Timestamp.Month() != time.May || btc.Timestamp.Second() != 22 {
		t.Errorf("unexpected timestamp %v", btc.Timestamp)
	}
	if txs[1].Symbol != "DOGE" || txs[1].Side != models.SideSell {
		t.Errorf("unexpected DOGE row %+v", txs[1])
	}
	if txs[2].Symbol != "SOL" {
		t.Errorf("unexpected SOL row %+v", txs[2])
	}
}

func TestParseRejectsBadRows(t *testing.T) {
	header := `txid,pair,time,type,price,vol` + "\n"
	tests := map[string]string{
		"bad price":    header + "T1,XXBTZUSD,2023-05-01,buy,abc,1\n",
		"unknown pair": header + "T1,FOO,2023-05-01,buy,1,1\n",
		"missing txid": header + ",XXBTZUSD,2023-05-01,buy,1,1\n",
		"not kraken":   "timestamp,symbol,side,quantity,price\n2024-01-02,ETH,BUY,1,2000\n",
		"btc quote":    header + "T1,XETHXXBT,2023-05-01,buy,0.05,1\n",
		"eur quote":    header + "T1,XETHZEUR,2023-05-01,buy,1800,1\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := NewParser().Parse(strings.NewReader(input)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestParseCrossQuoteNamesRow(t *testing.T) {
	input := "txid,pair,time,type,price,vol\n" +
		"T1,XXBTZUSD,2023-05-01,buy,29000,1\n" +
		"T2,XETHXXBT,2023-05-02,buy,0.05,1\n"
	_, err := NewParser().Parse(strings.NewReader(input))
	if err == nil || !strings.Contains(err.Error(), "row 2") || !strings.Contains(err.Error(), "BTC") {
		t.Fatalf("expected a row 2 error naming the BTC quote, got %v", err)
	}
}

func TestSplitAssetPair(t *testing.T) {
	cases := map[string][2]string{
		"XXBTZUSD": {"BTC", "USD"},
		"XETHZEUR": {"ETH", "EUR"},
		"XBTUSDT":  {"BTC", "USDT"},
		"ETHXBT":   {"ETH", "BTC"},
		"XETHXXBT": {"ETH", "BTC"},
		"DOTUSD":   {"DOT", "USD"},
		"xbt/usd":  {"BTC", "USD"},
		"ADAEUR":   {"ADA", "EUR"},
		"XDGUSD":   {"DOGE", "USD"},
		"ZETAUSD":  {"ZETA", "USD"},
		"XTZUSD":   {"XTZ", "USD"},
		"ZRXUSD":   {"ZRX", "USD"},
	}
	for pair, want := range cases {
		base, quote, err := SplitAssetPair(pair)
		if err != nil || base != want[0] || quote != want[1] {
			t.Errorf("SplitAssetPair(%q) = %q, %q, %v; want %q, %q", pair, base, quote, err, want[0], want[1])
		}
	}
	if _, _, err := SplitAssetPair("BTC/"); err == nil {
		t.Error("expected an error for a pair without quote")
	}
}
