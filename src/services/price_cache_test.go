package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/models"
)

type mockPriceSource struct {
	mu          sync.Mutex
	tickers     []models.Ticker
	tickersErr  error
	live        map[string]float64
	liveErr     error
	block       chan struct{}
	tickerCalls atomic.Int32
	liveCalls   atomic.Int32
}

func (m *mockPriceSource) FetchTickers(ctx context.Context) ([]models.Ticker, error) {
	m.tickerCalls.Add(1)
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tickersErr != nil {
		return nil, m.tickersErr
	}
	return append([]models.Ticker(nil), m.tickers...), nil
}

func (m *mockPriceSource) FetchTicker(ctx context.Context, pair string) (models.Ticker, error) {
	m.liveCalls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.liveErr != nil {
		return models.Ticker{}, m.liveErr
	}
	if price, ok := m.live[pair]; ok {
		return models.Ticker{Pair: pair, Last: price}, nil
	}
	return models.Ticker{}, errors.New("unknown pair")
}

func (m *mockPriceSource) set(tickers []models.Ticker, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickers = tickers
	m.tickersErr = err
}

func TestRefreshAliasGuardIgnoresCrossPairs(t *testing.T) {
	orders := map[string][]models.Ticker{
		"usd first": {{Pair: "BTC/USD", Last: 65000}, {Pair: "BTC/ETH", Last: 20}},
		"eth first": {{Pair: "BTC/ETH", Last: 20}, {Pair: "BTC/USD", Last: 65000}},
	}
	for name, tickers := range orders {
		t.Run(name, func(t *testing.T) {
			cache := NewPriceCache(&mockPriceSource{tickers: tickers}, time.Second)
			if err := cache.Refresh(context.Background()); err != nil {
				t.Fatalf("refresh failed: %v", err)
			}

			ctx := context.Background()
			if got := cache.GetPrice(ctx, "BTC"); got != 65000 {
				t.Fatalf("GetPrice(BTC) = %v, want 65000", got)
			}
			if got := cache.GetPrice(ctx, "btc/usd"); got != 65000 {
				t.Fatalf("GetPrice(BTC/USD) = %v, want 65000", got)
			}
			if got := cache.GetPrice(ctx, "BTC/ETH"); got != 20 {
				t.Fatalf("GetPrice(BTC/ETH) = %v, want 20", got)
			}
		})
	}
}

func TestRefreshStablecoinQuoteFeedsAliases(t *testing.T) {
	cache := NewPriceCache(&mockPriceSource{tickers: []models.Ticker{{Pair: "SOL/USDT", Last: 150}}}, time.Second)
	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	snap := cache.Snapshot()
	for _, key := range []string{"SOL", "SOL/USD", "SOL/USDT"} {
		if snap[key] != 150 {
			t.Fatalf("expected %s = 150, got %v (snapshot %v)", key, snap[key], snap)
		}
	}
}

func TestRefreshPrefersUSDOverOtherFiat(t *testing.T) {
	tickers := []models.Ticker{
		{Pair: "ETH/EUR", Last: 2800},
		{Pair: "ETH/USDT", Last: 3001},
		{Pair: "ETH/USD", Last: 3000},
	}
	cache := NewPriceCache(&mockPriceSource{tickers: tickers}, time.Second)
	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	snap := cache.Snapshot()
	if snap["ETH"] != 3000 {
		t.Fatalf("expected bare ETH from the USD pair, got %v", snap["ETH"])
	}
	if snap["ETH/USDT"] != 3001 {
		t.Fatalf("raw ETH/USDT must not be replaced by an alias, got %v", snap["ETH/USDT"])
	}
	if snap["ETH/EUR"] != 2800 {
		t.Fatalf("expected raw ETH/EUR, got %v", snap["ETH/EUR"])
	}
}

func TestRefreshOtherFiatIsNotAliased(t *testing.T) {
	tickers := []models.Ticker{
		{Pair: "ADA/JPY", Last: 60},
		{Pair: "DOT/EUR", Last: 5},
	}
	cache := NewPriceCache(&mockPriceSource{tickers: tickers}, time.Second)
	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	snap := cache.Snapshot()
	if len(snap) != 2 || snap["ADA/JPY"] != 60 || snap["DOT/EUR"] != 5 {
		t.Fatalf("expected only the raw pairs, got %v", snap)
	}
	for _, key := range []string{"ADA", "ADA/USD", "DOT", "DOT/USDT"} {
		if _, ok := snap[key]; ok {
			t.Errorf("non-USD quote must not feed the %s alias", key)
		}
	}
}

func TestRefreshSkipsNonPositivePrices(t *testing.T) {
	cache := NewPriceCache(&mockPriceSource{tickers: []models.Ticker{{Pair: "BAD/USD", Last: 0}}}, time.Second)
	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(cache.Snapshot()) != 0 {
		t.Fatalf("expected empty cache, got %v", cache.Snapshot())
	}
}

func TestRefreshFailureKeepsLastGoodPrice(t *testing.T) {
	src := &mockPriceSource{tickers: []models.Ticker{{Pair: "BTC/USD", Last: 60000}}, liveErr: errors.New("down")}
	cache := NewPriceCache(src, time.Second)
	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	src.set(nil, errors.New("rate limited"))
	if err := cache.Refresh(context.Background()); err == nil {
		t.Fatal("expected the refresh error to be returned")
	}

	if got := cache.GetPrice(context.Background(), "BTC"); got != 60000 {
		t.Fatalf("expected stale price 60000, got %v", got)
	}
	if src.liveCalls.Load() != 0 {
		t.Fatal("a cache hit must not call the source")
	}
}

func TestGetPriceStablecoinFallback(t *testing.T) {
	src := &mockPriceSource{liveErr: errors.New("unreachable")}
	cache := NewPriceCache(src, time.Second)

	for _, sym := range []string{"USDT", " usdc ", "DAI", "BUSD", "FDUSD"} {
		if got := cache.GetPrice(context.Background(), sym); got != 1.0 {
			t.Fatalf("GetPrice(%q) = %v, want 1.0", sym, got)
		}
	}
	if src.liveCalls.Load() != 0 {
		t.Fatalf("stablecoin fallback must not hit the network, got %d calls", src.liveCalls.Load())
	}
}

func TestGetPriceCachedStablecoinWins(t *testing.T) {
	cache := NewPriceCache(&mockPriceSource{tickers: []models.Ticker{{Pair: "USDT/USD", Last: 0.9995}}}, time.Second)
	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := cache.GetPrice(context.Background(), "USDT"); got != 0.9995 {
		t.Fatalf("expected cached stablecoin price, got %v", got)
	}
}

func TestGetPriceUnknownSentinel(t *testing.T) {
	src := &mockPriceSource{liveErr: errors.New("unreachable")}
	cache := NewPriceCache(src, time.Second)

	if got := cache.GetPrice(context.Background(), "ZZZNOTACOIN"); got != UnknownPrice {
		t.Fatalf("expected the unknown sentinel, got %v", got)
	}
	if src.liveCalls.Load() != 1 {
		t.Fatalf("expected exactly one live fetch, got %d", src.liveCalls.Load())
	}
	if got := cache.GetPrice(context.Background(), "   "); got != UnknownPrice {
		t.Fatalf("expected sentinel for blank symbol, got %v", got)
	}
}

func TestGetPriceLiveFallback(t *testing.T) {
	src := &mockPriceSource{live: map[string]float64{"PEPE/USD": 0.00001, "PEPE/EUR": 0.000009}}
	cache := NewPriceCache(src, time.Second)

	if got := cache.GetPrice(context.Background(), "pepe"); got != 0.00001 {
		t.Fatalf("expected live USD price, got %v", got)
	}
	if got := cache.GetPrice(context.Background(), "PEPE/EUR"); got != 0.000009 {
		t.Fatalf("expected the explicit pair to be fetched, got %v", got)
	}
	if len(cache.Snapshot()) != 0 {
		t.Fatal("live fallback results must not be written to the cache")
	}
}

func TestGetPriceLookupOrder(t *testing.T) {
	cache := NewPriceCache(&mockPriceSource{}, time.Second)
	cache.prices["ABC/USD"] = 2
	cache.prices["ABC/USDT"] = 3
	if got := cache.GetPrice(context.Background(), "ABC"); got != 2 {
		t.Fatalf("expected /USD before /USDT, got %v", got)
	}
	cache.prices["ABC"] = 1
	if got := cache.GetPrice(context.Background(), "ABC"); got != 1 {
		t.Fatalf("expected the bare key first, got %v", got)
	}
}

func TestGetPriceDoesNotWaitForSlowRefresh(t *testing.T) {
	src := &mockPriceSource{tickers: []models.Ticker{{Pair: "BTC/USD", Last: 50000}}}
	cache := NewPriceCache(src, time.Second)
	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	src.block = make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = cache.Refresh(context.Background())
		close(done)
	}()

	for src.tickerCalls.Load() < 2 {
		time.Sleep(time.Millisecond)
	}

	got := make(chan float64, 1)
	go func() { got <- cache.GetPrice(context.Background(), "BTC") }()
	select {
	case price := <-got:
		if price != 50000 {
			t.Fatalf("unexpected price %v", price)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reader blocked on an in-flight fetch")
	}

	close(src.block)
	<-done
}

func TestConcurrentReadersAndRefresh(t *testing.T) {
	src := &mockPriceSource{tickers: []models.Ticker{{Pair: "BTC/USD", Last: 1}, {Pair: "ETH/USD", Last: 2}}}
	cache := NewPriceCache(src, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if p := cache.GetPrice(context.Background(), "BTC"); p != 1 && p != UnknownPrice {
					t.Errorf("unexpected price %v", p)
					return
				}
			}
		}()
	}
	for i := 0; i < 50; i++ {
		_ = cache.Refresh(context.Background())
	}
	wg.Wait()
}

func TestRunRefreshesUntilCancelled(t *testing.T) {
	src := &mockPriceSource{tickersErr: errors.New("boom")}
	cache := NewPriceCache(src, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		cache.Run(ctx)
		close(stopped)
	}()

	deadline := time.After(2 * time.Second)
	for src.tickerCalls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatal("expected the loop to keep running after failures")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	cancel()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNormalizeSymbol(t *testing.T) {
	cases := map[string]string{
		" btc ":      "BTC",
		"eth / usdt": "ETH/USDT",
		"Sol/usd":    "SOL/USD",
	}
	for in, want := range cases {
		if got := NormalizeSymbol(in); got != want {
			t.Errorf("NormalizeSymbol(%q) = %q, want %q", in, got, want)
		}
	}
	if !IsAliasQuote("usd") || !IsAliasQuote("USDC") || IsAliasQuote("ETH") || IsAliasQuote("EUR") {
		t.Fatal("unexpected alias quote classification")
	}
}
