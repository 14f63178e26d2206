package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/brojonat/yatori/client"
	"github.com/brojonat/yatori/service/solana"
	"github.com/urfave/cli/v2"
)

const defaultRequestTimeout = 30 * time.Second

func commitmentFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "commitment",
		Aliases: []string{"c"},
		Usage:   "Commitment level (processed, confirmed, finalized)",
		Value:   string(solana.CommitmentFinalized),
	}
}

// newGatewayClient builds a gateway client from the global flags.
func newGatewayClient(c *cli.Context) *client.Client {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Only errors to stderr
	}))
	httpClient := &http.Client{Timeout: c.Duration("timeout")}
	return client.NewClient(c.String("server-url"), httpClient, logger)
}

// commitmentArg validates the --commitment flag locally so typos fail
// before a request is sent.
func commitmentArg(c *cli.Context) (string, error) {
	level, err := solana.ParseCommitment(c.String("commitment"))
	if err != nil {
		return "", err
	}
	return level.String(), nil
}

func balanceCommand() *cli.Command {
	return &cli.Command{
		Name:      "balance",
		Usage:     "Show the SOL balance of an address",
		ArgsUsage: "ADDRESS",
		Flags:     []cli.Flag{commitmentFlag()},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("address is required")
			}
			address := c.Args().Get(0)

			commitment, err := commitmentArg(c)
			if err != nil {
				return err
			}
			p, err := newPrinter(c)
			if err != nil {
				return err
			}

			lamports, err := newGatewayClient(c).NativeBalance(c.Context, c.String("network"), address, commitment)
			if err != nil {
				return fmt.Errorf("failed to get balance: %w", err)
			}

			result := map[string]any{
				"address":    address,
				"commitment": commitment,
				"lamports":   lamports,
				"sol":        formatSOL(lamports),
			}
			return p.print(result, func(w io.Writer) {
				fmt.Fprintf(w, "Address:     %s\n", address)
				fmt.Fprintf(w, "Commitment:  %s\n", commitment)
				fmt.Fprintf(w, "Balance:     %s SOL (%d lamports)\n", formatSOL(lamports), lamports)
			})
		},
	}
}

func tokenBalanceCommand() *cli.Command {
	return &cli.Command{
		Name:      "token-balance",
		Usage:     "Show the balance of an owner's associated token account",
		ArgsUsage: "OWNER MINT",
		Flags:     []cli.Flag{commitmentFlag()},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("owner and mint addresses are required")
			}
			owner, mint := c.Args().Get(0), c.Args().Get(1)

			commitment, err := commitmentArg(c)
			if err != nil {
				return err
			}
			p, err := newPrinter(c)
			if err != nil {
				return err
			}

			balance, err := newGatewayClient(c).TokenBalance(c.Context, c.String("network"), owner, mint, commitment)
			if err != nil {
				return fmt.Errorf("failed to get token balance: %w", err)
			}

			return p.print(balance, func(w io.Writer) {
				fmt.Fprintf(w, "Owner:       %s\n", owner)
				fmt.Fprintf(w, "Mint:        %s\n", mint)
				fmt.Fprintf(w, "Balance:     %s (%s base units, %d decimals)\n",
					balance.DisplayAmount, balance.BaseAmount, balance.Decimals)
			})
		},
	}
}

func activatedCommand() *cli.Command {
	return &cli.Command{
		Name:      "activated",
		Usage:     "Check whether an owner's associated token account is rent exempt",
		ArgsUsage: "OWNER",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "mint",
				Usage: "Token mint address",
				Value: solana.USDCMainnetMint.String(),
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("owner address is required")
			}
			owner := c.Args().Get(0)
			mint := c.String("mint")

			p, err := newPrinter(c)
			if err != nil {
				return err
			}

			activation, err := newGatewayClient(c).IsActivated(c.Context, c.String("network"), owner, mint)
			if err != nil {
				return fmt.Errorf("failed to check activation: %w", err)
			}

			return p.print(activation, func(w io.Writer) {
				state := "not activated"
				if activation.Activated {
					state = "activated"
				}
				fmt.Fprintf(w, "Owner:       %s\n", owner)
				fmt.Fprintf(w, "Mint:        %s\n", mint)
				fmt.Fprintf(w, "Balance:     %s SOL (%d lamports)\n", formatSOL(activation.Balance), activation.Balance)
				fmt.Fprintf(w, "Status:      %s (rent exempt minimum %d lamports)\n", state, solana.RentExemptMinimum)
			})
		},
	}
}

func transactionCommand() *cli.Command {
	return &cli.Command{
		Name:      "tx",
		Usage:     "Fetch a confirmed transaction by signature",
		ArgsUsage: "SIGNATURE",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("signature is required")
			}

			p, err := newPrinter(c)
			if err != nil {
				return err
			}

			tx, err := newGatewayClient(c).Transaction(c.Context, c.String("network"), c.Args().Get(0))
			if err != nil {
				return fmt.Errorf("failed to get transaction: %w", err)
			}

			// Transactions are only meaningful as JSON, so human mode indents them.
			return p.print(tx, func(w io.Writer) {
				var v any
				if err := json.Unmarshal(tx, &v); err != nil {
					fmt.Fprintln(w, string(tx))
					return
				}
				writeIndented(w, v)
			})
		},
	}
}

func signaturesCommand() *cli.Command {
	return &cli.Command{
		Name:      "signatures",
		Usage:     "List memo-tagged signatures of an address, newest first",
		ArgsUsage: "ADDRESS",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "latest",
				Usage: "Only inspect the newest signature",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("address is required")
			}
			address := c.Args().Get(0)

			p, err := newPrinter(c)
			if err != nil {
				return err
			}

			gw := newGatewayClient(c)
			var sigs []client.SignatureEntry
			if c.Bool("latest") {
				sigs, err = gw.LatestSignature(c.Context, c.String("network"), address)
			} else {
				sigs, err = gw.Signatures(c.Context, c.String("network"), address)
			}
			if err != nil {
				return fmt.Errorf("failed to list signatures: %w", err)
			}

			return p.print(sigs, func(w io.Writer) {
				printSignatures(w, sigs)
			})
		},
	}
}

func printSignatures(w io.Writer, sigs []client.SignatureEntry) {
	if len(sigs) == 0 {
		fmt.Fprintln(w, "No signatures found.")
		return
	}

	fmt.Fprintf(w, "Found %d signature(s):\n\n", len(sigs))
	for _, sig := range sigs {
		fmt.Fprintf(w, "Signature:   %s\n", sig.Signature)
		fmt.Fprintf(w, "Slot:        %d\n", sig.Slot)
		if sig.BlockTime != nil {
			fmt.Fprintf(w, "Block Time:  %s\n", time.Unix(*sig.BlockTime, 0).UTC().Format(time.RFC3339))
		}
		if sig.ConfirmationStatus != "" {
			fmt.Fprintf(w, "Status:      %s\n", sig.ConfirmationStatus)
		}
		if sig.Memo != nil {
			fmt.Fprintf(w, "Memo:        %s\n", *sig.Memo)
		}
		fmt.Fprintln(w)
	}
}

func blockhashCommand() *cli.Command {
	return &cli.Command{
		Name:  "blockhash",
		Usage: "Show the latest finalized blockhash",
		Action: func(c *cli.Context) error {
			p, err := newPrinter(c)
			if err != nil {
				return err
			}

			hash, err := newGatewayClient(c).Blockhash(c.Context, c.String("network"))
			if err != nil {
				return fmt.Errorf("failed to get blockhash: %w", err)
			}

			return p.print(map[string]string{"blockhash": hash}, func(w io.Writer) {
				fmt.Fprintln(w, hash)
			})
		},
	}
}
