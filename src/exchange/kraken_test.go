package exchange

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/models"
)

const assetPairsBody = `{"error":[],"result":{
	"XXBTZUSD":{"altname":"XBTUSD","wsname":"XBT/USD"},
	"XETHXXBT":{"altname":"ETHXBT","wsname":"ETH/XBT"},
	"XDGUSDT":{"altname":"XDGUSDT","wsname":"XDG/USDT"},
	"ODDPAIR":{"altname":"ODD","wsname":""}
}}`

const tickerBody = `{"error":[],"result":{
	"XXBTZUSD":{"c":["65000.5","0.01"]},
	"XETHXXBT":{"c":["0.052","1.0"]},
	"XDGUSDT":{"c":["0.12","100"]},
	"ODDPAIR":{"c":["1.0","1"]}
}}`

func TestKrakenFetchTickers(t *testing.T) {
	t.Parallel()

	var pairCalls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/0/public/AssetPairs":
			pairCalls.Add(1)
			_, _ = w.Write([]byte(assetPairsBody))
		case "/0/public/Ticker":
			if r.URL.Query().Get("pair") != "" {
				t.Errorf("expected an unfiltered ticker request, got %q", r.URL.RawQuery)
			}
			_, _ = w.Write([]byte(tickerBody))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	src := NewKrakenSource(ts.URL, 0)
	tickers, err := src.FetchTickers(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	sort.Slice(tickers, func(i, j int) bool { return tickers[i].Pair < tickers[j].Pair })
	want := []models.Ticker{
		{Pair: "BTC/USD", Last: 65000.5},
		{Pair: "DOGE/USDT", Last: 0.12},
		{Pair: "ETH/BTC", Last: 0.052},
	}
	if len(tickers) != len(want) {
		t.Fatalf("expected %d tickers, got %+v", len(want), tickers)
	}
	for i := range want {
		if tickers[i] != want[i] {
			t.Fatalf("ticker %d: expected %+v, got %+v", i, want[i], tickers[i])
		}
	}

	// ODDPAIR is unknown to the pair map, so the map is reloaded once per call.
	if got := pairCalls.Load(); got != 2 {
		t.Fatalf("expected 2 AssetPairs calls, got %d", got)
	}
}

func TestKrakenFetchTicker(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("pair"); got != "XBTUSD" {
			t.Errorf("expected pair XBTUSD, got %q", got)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("expected a user agent")
		}
		_, _ = w.Write([]byte(`{"error":[],"result":{"XXBTZUSD":{"c":["64000.0","0.5"]}}}`))
	}))
	defer ts.Close()

	ticker, err := NewKrakenSource(ts.URL, 0).FetchTicker(context.Background(), " btc/usd ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ticker.Pair != "BTC/USD" || ticker.Last != 64000 {
		t.Fatalf("unexpected ticker %+v", ticker)
	}
}

func TestKrakenFetchTickerUnknownPair(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":["EQuery:Unknown asset pair"]}`))
	}))
	defer ts.Close()

	_, err := NewKrakenSource(ts.URL, 0).FetchTicker(context.Background(), "ZZZ/USD")
	if !errors.Is(err, ErrPairNotFound) {
		t.Fatalf("expected ErrPairNotFound, got %v", err)
	}
}

func TestKrakenFetchTickerRejectsBarePair(t *testing.T) {
	t.Parallel()

	_, err := NewKrakenSource("http://127.0.0.1:0", 0).FetchTicker(context.Background(), "BTC")
	if !errors.Is(err, ErrPairNotFound) {
		t.Fatalf("expected ErrPairNotFound, got %v", err)
	}
}

func TestKrakenHTTPError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	if _, err := NewKrakenSource(ts.URL, 0).FetchTickers(context.Background()); err == nil {
		t.Fatal("expected an error for HTTP 429")
	}
}

func TestNewFromName(t *testing.T) {
	t.Parallel()

	src, err := NewFromName("Kraken", "", 1)
	if err != nil {
		t.Fatalf("expected kraken source, got %v", err)
	}
	if _, ok := src.(*KrakenSource); !ok {
		t.Fatalf("expected *KrakenSource, got %T", src)
	}

	none, err := NewFromName("", "", 0)
	if err != nil {
		t.Fatalf("expected missing source, got %v", err)
	}
	if _, err := none.FetchTickers(context.Background()); !errors.Is(err, ErrUnknownSource) {
		t.Fatalf("expected ErrUnknownSource from missing source, got %v", err)
	}

	if _, err := NewFromName("binance", "", 0); !errors.Is(err, ErrUnknownSource) {
		t.Fatalf("expected ErrUnknownSource, got %v", err)
	}
}

func TestSplitPair(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in          string
		base, quote string
		ok          bool
	}{
		{"BTC/USD", "BTC", "USD", true},
		{"BTC", "BTC", "", false},
		{"/USD", "/USD", "", false},
		{"BTC/", "BTC/", "", false},
	}
	for _, tc := range tests {
		base, quote, ok := SplitPair(tc.in)
		if base != tc.base || quote != tc.quote || ok != tc.ok {
			t.Errorf("SplitPair(%q) = %q, %q, %v", tc.in, base, quote, ok)
		}
	}
}
