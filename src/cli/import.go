package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/parsers"
)

type importCmd struct {
	user   string
	source string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a CSV trade export into a user's ledger" }
func (*importCmd) Usage() string {
	return `import -user <id> [-source <source>] FILE

  Parses FILE with the chosen parser and adds its trades to the ledger.
  Trades already present (same exchange and trade id) are skipped.
  Sources: ` + strings.Join(parsers.Sources(), ", ") + `
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "User id (required)")
	f.StringVar(&c.source, "source", "generic", "CSV layout of the file")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" || f.NArg() != 1 {
		return usageError("Error: -user and exactly one FILE are required.")
	}
	file, err := os.Open(f.Arg(0))
	if err != nil {
		return failure("Error opening %s: %v", f.Arg(0), err)
	}
	defer file.Close()

	portfolio := newPortfolio(noPrices{})
	result, err := portfolio.ImportTransactions(ctx, c.user, c.source, file)
	if err != nil {
		return failure("Error importing %s: %v", f.Arg(0), err)
	}
	fmt.Fprintf(stdout, "Imported %d trades, skipped %d duplicates (%s)\n",
		result.Inserted, result.Skipped, strings.Join(result.Symbols, ", "))
	return subcommands.ExitSuccess
}
