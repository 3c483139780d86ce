package handlers

import (
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/services"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/utils"
)

// PriceReader is the part of the price cache the API exposes.
type PriceReader interface {
	services.PriceLookup
	Snapshot() map[string]float64
}

type PriceHandler struct {
	prices PriceReader
}

func NewPriceHandler(prices PriceReader) *PriceHandler {
	return &PriceHandler{prices: prices}
}

type priceResponse struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Known  bool    `json:"known"`
}

// HandleListPrices returns the requested symbols (?symbols=BTC,ETH) or,
// without a filter, every cached key.
func (h *PriceHandler) HandleListPrices(w http.ResponseWriter, r *http.Request) {
	filter := strings.TrimSpace(r.URL.Query().Get("symbols"))
	if filter == "" {
		utils.SendJSON(w, h.prices.Snapshot(), http.StatusOK)
		return
	}

	seen := make(map[string]bool)
	out := []priceResponse{}
	for _, s := range strings.Split(filter, ",") {
		symbol := services.NormalizeSymbol(s)
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		out = append(out, h.lookup(r, symbol))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	utils.SendJSON(w, out, http.StatusOK)
}

// HandleGetPrice serves /prices/{symbol} and /prices/{symbol}/{quote}. An
// escaped pair such as BTC%2FUSD is accepted as well.
func (h *PriceHandler) HandleGetPrice(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "symbol")
	if quote := chi.URLParam(r, "quote"); quote != "" {
		raw += "/" + quote
	}
	unescaped, err := url.PathUnescape(raw)
	if err != nil {
		utils.SendJSONError(w, "invalid symbol", http.StatusBadRequest)
		return
	}
	symbol := services.NormalizeSymbol(unescaped)
	if symbol == "" {
		utils.SendJSONError(w, "symbol is required", http.StatusBadRequest)
		return
	}
	utils.SendJSON(w, h.lookup(r, symbol), http.StatusOK)
}

func (h *PriceHandler) lookup(r *http.Request, symbol string) priceResponse {
	price := h.prices.GetPrice(r.Context(), symbol)
	return priceResponse{Symbol: symbol, Price: price, Known: price != services.UnknownPrice}
}
