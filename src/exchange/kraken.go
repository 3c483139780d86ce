package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/logger"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/models"
	"golang.org/x/time/rate"
)

const krakenDefaultBaseURL = "https://api.kraken.com"

// Kraken uses legacy codes for a few assets in its pair names.
var krakenToCommon = map[string]string{
	"XBT": "BTC",
	"XDG": "DOGE",
}

var commonToKraken = map[string]string{
	"BTC":  "XBT",
	"DOGE": "XDG",
}

type krakenEnvelope struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

type krakenAssetPair struct {
	Altname string `json:"altname"`
	WSName  string `json:"wsname"`
}

type krakenTicker struct {
	// c is [last trade price, lot volume].
	C []string `json:"c"`
}

// KrakenSource reads public ticker data from the Kraken REST API.
type KrakenSource struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter

	mu    sync.Mutex
	pairs map[string]string // kraken pair name -> BASE/QUOTE
}

func NewKrakenSource(baseURL string, rps float64) *KrakenSource {
	resolved := strings.TrimRight(baseURL, "/")
	if resolved == "" {
		resolved = krakenDefaultBaseURL
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &KrakenSource{
		baseURL: resolved,
		client:  newHTTPClient(15 * time.Second),
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (k *KrakenSource) FetchTickers(ctx context.Context) ([]models.Ticker, error) {
	pairs, err := k.assetPairs(ctx, false)
	if err != nil {
		return nil, err
	}

	var raw map[string]krakenTicker
	if err := k.get(ctx, "/0/public/Ticker", nil, &raw); err != nil {
		return nil, err
	}

	tickers := make([]models.Ticker, 0, len(raw))
	reloaded := false
	for name, t := range raw {
		pair, ok := pairs[name]
		if !ok && !reloaded {
			// A pair listed after our last AssetPairs call.
			if pairs, err = k.assetPairs(ctx, true); err != nil {
				return nil, err
			}
			reloaded = true
			pair, ok = pairs[name]
		}
		if !ok {
			continue
		}
		last, ok := lastPrice(t)
		if !ok {
			continue
		}
		tickers = append(tickers, models.Ticker{Pair: pair, Last: last})
	}
	logger.L.Debug("Kraken tickers fetched", "count", len(tickers))
	return tickers, nil
}

func (k *KrakenSource) FetchTicker(ctx context.Context, pair string) (models.Ticker, error) {
	base, quote, ok := SplitPair(strings.ToUpper(strings.TrimSpace(pair)))
	if !ok {
		return models.Ticker{}, fmt.Errorf("%w: %q is not a BASE/QUOTE pair", ErrPairNotFound, pair)
	}

	q := url.Values{}
	q.Set("pair", toKraken(base)+toKraken(quote))

	var raw map[string]krakenTicker
	if err := k.get(ctx, "/0/public/Ticker", q, &raw); err != nil {
		return models.Ticker{}, err
	}
	for _, t := range raw {
		if last, ok := lastPrice(t); ok {
			return models.Ticker{Pair: base + "/" + quote, Last: last}, nil
		}
	}
	return models.Ticker{}, fmt.Errorf("%w: %s", ErrPairNotFound, pair)
}

func (k *KrakenSource) assetPairs(ctx context.Context, force bool) (map[string]string, error) {
	k.mu.Lock()
	cached := k.pairs
	k.mu.Unlock()
	if cached != nil && !force {
		return cached, nil
	}

	var raw map[string]krakenAssetPair
	if err := k.get(ctx, "/0/public/AssetPairs", nil, &raw); err != nil {
		return nil, err
	}

	pairs := make(map[string]string, len(raw))
	for name, p := range raw {
		base, quote, ok := SplitPair(p.WSName)
		if !ok {
			continue
		}
		pairs[name] = fromKraken(base) + "/" + fromKraken(quote)
	}

	k.mu.Lock()
	k.pairs = pairs
	k.mu.Unlock()
	return pairs, nil
}

func (k *KrakenSource) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := k.limiter.Wait(ctx); err != nil {
		return err
	}

	endpoint := k.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := k.client.Do(req)
	if err != nil {
		return fmt.Errorf("kraken request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("kraken error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var env krakenEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode kraken response for %s: %w", path, err)
	}
	if len(env.Error) > 0 {
		msg := strings.Join(env.Error, "; ")
		if strings.Contains(msg, "Unknown asset pair") {
			return fmt.Errorf("%w: %s", ErrPairNotFound, msg)
		}
		return fmt.Errorf("kraken error: %s", msg)
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("failed to decode kraken result for %s: %w", path, err)
	}
	return nil
}

func lastPrice(t krakenTicker) (float64, bool) {
	if len(t.C) == 0 {
		return 0, false
	}
	last, err := strconv.ParseFloat(t.C[0], 64)
	if err != nil || last <= 0 {
		return 0, false
	}
	return last, true
}

func fromKraken(code string) string {
	if common, ok := krakenToCommon[code]; ok {
		return common
	}
	return code
}

func toKraken(code string) string {
	if k, ok := commonToKraken[code]; ok {
		return k
	}
	return code
}
