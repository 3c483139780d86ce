package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/exchange"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/logger"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/models"
)

// UnknownPrice is returned by GetPrice when no price is available. Callers
// must read it as "use the cost basis", never as a market price of zero.
const UnknownPrice = 0.0

const (
	DefaultRefreshInterval = 5 * time.Second
	DefaultFetchTimeout    = 10 * time.Second
)

// Stablecoins (and USD itself) are worth 1.0 when nothing better is known.
var stablecoins = map[string]bool{
	"USD": true, "USDT": true, "USDC": true, "DAI": true, "BUSD": true,
	"FDUSD": true, "TUSD": true, "PYUSD": true, "USDP": true,
}

// aliasQuotes lists the quotes whose pairs may also be stored under the bare
// base code and its /USD and /USDT aliases, highest priority first. Only USD
// and USD stablecoins qualify: the aliases are USD-denominated, so a EUR or
// JPY quote stays under its raw pair key only.
var aliasQuotes = []string{
	"USD", "USDT", "USDC", "DAI", "BUSD", "FDUSD", "TUSD", "PYUSD", "USDP",
}

var aliasPriority = func() map[string]int {
	m := make(map[string]int, len(aliasQuotes))
	for i, q := range aliasQuotes {
		m[q] = i
	}
	return m
}()

// PriceCache is a single-writer, multi-reader map of symbol to last price.
// Run is the only writer; GetPrice may be called from any goroutine.
type PriceCache struct {
	source       exchange.PriceSource
	interval     time.Duration
	fetchTimeout time.Duration

	mu     sync.RWMutex
	prices map[string]float64
}

func NewPriceCache(source exchange.PriceSource, interval time.Duration) *PriceCache {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &PriceCache{
		source:       source,
		interval:     interval,
		fetchTimeout: DefaultFetchTimeout,
		prices:       make(map[string]float64),
	}
}

// SetFetchTimeout bounds every network call made by Refresh and GetPrice.
func (c *PriceCache) SetFetchTimeout(d time.Duration) {
	if d > 0 {
		c.fetchTimeout = d
	}
}

// Run refreshes the cache until ctx is cancelled. Failed refreshes keep the
// previous prices.
func (c *PriceCache) Run(ctx context.Context) {
	NewScheduler("price-refresh", c.interval, c.Refresh).Run(ctx)
}

// Refresh performs one refresh tick. The source is queried without holding
// the lock; the resulting batch is merged under a single write lock.
func (c *PriceCache) Refresh(ctx context.Context) error {
	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	tickers, err := c.source.FetchTickers(fetchCtx)
	if err != nil {
		return err
	}

	batch := buildPriceBatch(tickers)

	c.mu.Lock()
	for key, price := range batch {
		c.prices[key] = price
	}
	c.mu.Unlock()

	logger.L.Debug("Price cache refreshed", "pairs", len(tickers), "keys", len(batch))
	return nil
}

// buildPriceBatch turns one tick of tickers into cache writes. Raw pairs are
// always written. Bare and /USD, /USDT aliases come only from fiat or
// stablecoin quotes, preferring the highest-priority quote per base, and never
// replace a raw pair fetched in the same tick.
func buildPriceBatch(tickers []models.Ticker) map[string]float64 {
	batch := make(map[string]float64, len(tickers)*2)
	type aliasSource struct {
		price    float64
		priority int
	}
	best := make(map[string]aliasSource)

	for _, t := range tickers {
		if t.Last <= 0 {
			continue
		}
		pair := NormalizeSymbol(t.Pair)
		batch[pair] = t.Last

		base, quote, ok := exchange.SplitPair(pair)
		if !ok {
			continue
		}
		prio, ok := aliasPriority[quote]
		if !ok {
			continue
		}
		if cur, seen := best[base]; !seen || prio < cur.priority {
			best[base] = aliasSource{price: t.Last, priority: prio}
		}
	}

	raw := make(map[string]bool, len(batch))
	for key := range batch {
		raw[key] = true
	}
	for base, src := range best {
		for _, key := range []string{base, base + "/USD", base + "/USDT"} {
			if raw[key] {
				continue
			}
			batch[key] = src.price
		}
	}
	return batch
}

// GetPrice returns the best known price for symbol, or UnknownPrice.
// Cache hits never touch the network. Misses on non-stablecoins fall back
// to one live fetch of the USD pair.
func (c *PriceCache) GetPrice(ctx context.Context, symbol string) float64 {
	lookup := NormalizeSymbol(symbol)
	if lookup == "" {
		return UnknownPrice
	}

	if price, ok := c.cached(lookup); ok {
		return price
	}

	if IsStablecoin(lookup) {
		return 1.0
	}

	pair := lookup + "/USD"
	if _, _, ok := exchange.SplitPair(lookup); ok {
		pair = lookup
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()
	ticker, err := c.source.FetchTicker(fetchCtx, pair)
	if err != nil || ticker.Last <= 0 {
		logger.FromContext(ctx).Debug("Live price fallback failed", "symbol", lookup, "pair", pair, "error", err)
		return UnknownPrice
	}
	return ticker.Last
}

func (c *PriceCache) cached(lookup string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, key := range []string{lookup, lookup + "/USD", lookup + "/USDT"} {
		if price, ok := c.prices[key]; ok && price > 0 {
			return price, true
		}
	}
	return 0, false
}

// Snapshot returns a copy of every cached key and price.
func (c *PriceCache) Snapshot() map[string]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]float64, len(c.prices))
	for k, v := range c.prices {
		out[k] = v
	}
	return out
}

// NormalizeSymbol upper-cases and trims a symbol or BASE/QUOTE pair.
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if base, quote, ok := strings.Cut(s, "/"); ok {
		return strings.TrimSpace(base) + "/" + strings.TrimSpace(quote)
	}
	return s
}

func IsStablecoin(symbol string) bool {
	return stablecoins[NormalizeSymbol(symbol)]
}

// IsAliasQuote reports whether pairs quoted in quote feed the bare-symbol alias.
func IsAliasQuote(quote string) bool {
	_, ok := aliasPriority[NormalizeSymbol(quote)]
	return ok
}
