package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/Rhymond/go-money"
	"github.com/google/subcommands"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/config"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/database"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/exchange"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/model"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/processors"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/services"
)

// Commands are registered by main in this order.
var Commands = []subcommands.Command{
	&serveCmd{},
	&priceCmd{},
	&gainsCmd{},
	&importCmd{},
	&tokenCmd{},
}

// stdout receives command output. Logs go through the logger package.
var stdout io.Writer = os.Stdout

const displayCurrency = "USD"

func newPriceCache() (*services.PriceCache, error) {
	source, err := exchange.NewFromName(config.Cfg.PriceSource, config.Cfg.PriceSourceBaseURL, config.Cfg.PriceSourceRPS)
	if err != nil {
		return nil, err
	}
	prices := services.NewPriceCache(source, config.Cfg.PriceRefreshInterval)
	prices.SetFetchTimeout(config.Cfg.PriceFetchTimeout)
	return prices, nil
}

// newPortfolio opens the configured database and builds the portfolio
// service on top of it.
func newPortfolio(prices services.PriceLookup) *services.PortfolioService {
	database.InitDB(config.Cfg.DatabasePath)
	repo := model.NewRepository(database.DB)
	return services.NewPortfolioService(repo, repo, repo, prices,
		cache.New(config.Cfg.ReportCacheTTL, services.CacheCleanupInterval),
		portfolioOptions())
}

func portfolioOptions() services.PortfolioOptions {
	return services.PortfolioOptions{
		DefaultNetWorthGoal: config.Cfg.DefaultNetWorthGoal,
		TaxRates: processors.TaxRates{
			ShortTerm: config.Cfg.ShortTermTaxRate,
			LongTerm:  config.Cfg.LongTermTaxRate,
		},
	}
}

// formatMoney renders amount in the display currency, rounded to its minor
// unit.
func formatMoney(amount float64) string {
	cur := money.GetCurrency(displayCurrency)
	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	minor := decimal.NewFromFloat(amount).Mul(factor).Round(0)
	return money.New(minor.IntPart(), displayCurrency).Display()
}

func formatQuantity(q float64) string {
	return decimal.NewFromFloat(q).String()
}

func usageError(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	return subcommands.ExitUsageError
}

func failure(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	return subcommands.ExitFailure
}
