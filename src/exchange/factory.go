package exchange

import (
	"fmt"
	"strings"
)

// NewFromName returns the price source registered under name. rps paces the
// outgoing requests of sources that talk to a remote API.
func NewFromName(name, baseURL string, rps float64) (PriceSource, error) {
	switch strings.TrimSpace(strings.ToLower(name)) {
	case "kraken":
		return NewKrakenSource(baseURL, rps), nil
	case "", "none":
		return NewMissingSource("none"), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, name)
	}
}
