package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "yatori",
		Usage: "Solana ledger gateway CLI",
		Description: `A command-line tool for querying a yatori gateway.

Every query command talks to the gateway over HTTP. Use --json for raw output
and --jq to filter it, e.g.:

  yatori --jq '.isActivated' activated <OWNER>`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Commands: []*cli.Command{
			balanceCommand(),
			tokenBalanceCommand(),
			activatedCommand(),
			transactionCommand(),
			signaturesCommand(),
			blockhashCommand(),
			feeCommand(),
			{
				Name:  "server",
				Usage: "Server utility commands",
				Subcommands: []*cli.Command{
					healthCommand(),
					pingCommand(),
					versionCommand(),
				},
			},
		},
		// Global flags available to all commands
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server-url",
				Usage:   "Gateway URL",
				EnvVars: []string{"YATORI_SERVER_URL"},
				Value:   "http://localhost:8080",
			},
			&cli.StringFlag{
				Name:    "network",
				Aliases: []string{"n"},
				Usage:   "Solana network (mainnet-beta, devnet, testnet); empty uses the gateway default",
				EnvVars: []string{"YATORI_NETWORK"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Request timeout",
				Value: defaultRequestTimeout,
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output in JSON format",
			},
			&cli.StringFlag{
				Name:  "jq",
				Usage: "jq filter applied to the JSON output (implies --json)",
			},
		},
	}
}
