package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/cli"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/config"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/logger"
)

var logLevel = flag.String("log-level", "", "Overrides LOG_LEVEL (debug, info, warn, error)")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range cli.Commands {
		commander.Register(c, "")
	}

	flag.Parse()

	config.LoadConfig()
	level := config.Cfg.LogLevel
	if *logLevel != "" {
		level = *logLevel
	}
	logger.InitLogger(level)

	os.Exit(int(commander.Execute(context.Background())))
}
