package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/config"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/security"
)

type tokenCmd struct {
	user string
	ttl  time.Duration
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "issue a bearer token for a user id" }
func (*tokenCmd) Usage() string {
	return `token -user <id> [-ttl 24h]

  Prints a token signed with JWT_SECRET, for local use against the API.
`
}

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "User id (required)")
	f.DurationVar(&c.ttl, "ttl", 24*time.Hour, "Token lifetime")
}

func (c *tokenCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	if c.user == "" {
		return usageError("Error: -user is required.")
	}
	token, err := security.NewAuthService(config.Cfg.JWTSecret).GenerateToken(c.user, c.ttl)
	if err != nil {
		return failure("Error signing token: %v", err)
	}
	fmt.Fprintln(stdout, token)
	return subcommands.ExitSuccess
}
