package cli

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/google/subcommands"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/logger"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/services"
)

type priceCmd struct{}

func (*priceCmd) Name() string     { return "price" }
func (*priceCmd) Synopsis() string { return "print current prices for one or more symbols" }
func (*priceCmd) Usage() string {
	return `price SYMBOL...

  Refreshes the price cache once and prints the price of each symbol. A symbol
  may be bare (BTC) or a pair (ETH/BTC). Unknown symbols print 0.
`
}

func (*priceCmd) SetFlags(*flag.FlagSet) {}

func (*priceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return usageError("Error: at least one symbol is required.")
	}
	prices, err := newPriceCache()
	if err != nil {
		return failure("Error creating price source: %v", err)
	}
	if err := prices.Refresh(ctx); err != nil {
		logger.L.Warn("Bulk refresh failed, falling back to live lookups", "error", err)
	}

	for _, arg := range f.Args() {
		symbol := services.NormalizeSymbol(arg)
		price := prices.GetPrice(ctx, symbol)
		fmt.Fprintf(stdout, "%-12s %s\n", symbol, strconv.FormatFloat(price, 'f', -1, 64))
	}
	return subcommands.ExitSuccess
}
