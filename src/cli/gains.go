package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/models"
)

type gainsCmd struct {
	user   string
	events bool
}

func (*gainsCmd) Name() string     { return "gains" }
func (*gainsCmd) Synopsis() string { return "realized gains and estimated tax from the FIFO ledger" }
func (*gainsCmd) Usage() string {
	return `gains -user <id> [-events]

  Replays the user's ledger through the FIFO lot engine and prints realized
  gains per year, split into short and long term.
`
}

func (c *gainsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "User id (required)")
	f.BoolVar(&c.events, "events", false, "Also list every matched lot")
}

func (c *gainsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" {
		return usageError("Error: -user is required.")
	}
	// The report only needs the ledger, so no price source is involved.
	portfolio := newPortfolio(noPrices{})
	report, err := portfolio.TaxReport(ctx, c.user)
	if err != nil {
		return failure("Error building tax report: %v", err)
	}
	writeGains(stdout, report, c.events)
	return subcommands.ExitSuccess
}

type noPrices struct{}

func (noPrices) GetPrice(context.Context, string) float64 { return 0 }

func writeGains(out io.Writer, report models.TaxReport, events bool) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Year\tShort term\tLong term\tEstimated tax\t")
	for _, y := range report.Years {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t\n", y.Year, formatMoney(y.ShortTermGain), formatMoney(y.LongTermGain), formatMoney(y.EstimatedTax))
	}
	fmt.Fprintf(w, "Total\t%s\t%s\t%s\t\n", formatMoney(report.ShortTermGain), formatMoney(report.LongTermGain), formatMoney(report.EstimatedTax))
	w.Flush()
	fmt.Fprintf(out, "\nRealized P&L: %s\n", formatMoney(report.RealizedPnL))

	if !events || len(report.Events) == 0 {
		return
	}
	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Sold\tSymbol\tQuantity\tProceeds\tCost basis\tGain\tTerm")
	for _, e := range report.Events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", e.Date(), e.Symbol, formatQuantity(e.Quantity),
			formatMoney(e.Proceeds), formatMoney(e.CostBasis), formatMoney(e.Gain), e.Term)
	}
	w.Flush()
}
