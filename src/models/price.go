package models

// Ticker is a last-traded price for one BASE/QUOTE pair.
type Ticker struct {
	Pair string  `json:"pair"`
	Last float64 `json:"last"`
}
