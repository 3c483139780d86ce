// Package exchange holds the market price sources the price cache refreshes from.
package exchange

import (
	"context"
	"errors"
	"strings"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/models"
)

var (
	ErrUnknownSource = errors.New("unknown price source")
	ErrPairNotFound  = errors.New("pair not found")
)

// PriceSource fetches last-traded prices. Pairs are BASE/QUOTE in upper case.
type PriceSource interface {
	// FetchTickers returns the last price of every tradable pair in one call.
	FetchTickers(ctx context.Context) ([]models.Ticker, error)
	// FetchTicker returns the last price of a single pair.
	FetchTicker(ctx context.Context, pair string) (models.Ticker, error)
}

// SplitPair splits "BASE/QUOTE". ok is false when s carries no quote.
func SplitPair(s string) (base, quote string, ok bool) {
	base, quote, ok = strings.Cut(s, "/")
	if !ok || base == "" || quote == "" {
		return s, "", false
	}
	return base, quote, true
}
