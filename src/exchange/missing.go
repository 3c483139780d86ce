package exchange

import (
	"context"
	"fmt"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/models"
)

// MissingSource stands in when no price source is configured. Every fetch fails.
type MissingSource struct {
	Name string
}

func NewMissingSource(name string) MissingSource {
	return MissingSource{Name: name}
}

func (s MissingSource) FetchTickers(ctx context.Context) ([]models.Ticker, error) {
	return nil, fmt.Errorf("%w: %q is not configured", ErrUnknownSource, s.Name)
}

func (s MissingSource) FetchTicker(ctx context.Context, pair string) (models.Ticker, error) {
	return models.Ticker{}, fmt.Errorf("%w: %q is not configured", ErrUnknownSource, s.Name)
}
