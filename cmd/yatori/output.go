package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"

	"github.com/itchyny/gojq"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

// lamportsPerSOLExp is the decimal exponent between lamports and SOL.
const lamportsPerSOLExp = -9

// printer writes command results either as human text or as JSON,
// optionally filtered through a jq program.
type printer struct {
	w    io.Writer
	json bool
	jq   *gojq.Code
}

func newPrinter(c *cli.Context) (*printer, error) {
	p := &printer{
		w:    c.App.Writer,
		json: c.Bool("json"),
	}

	if filter := c.String("jq"); filter != "" {
		code, err := compileJQ(filter)
		if err != nil {
			return nil, err
		}
		p.jq = code
		p.json = true
	}

	return p, nil
}

func compileJQ(filter string) (*gojq.Code, error) {
	query, err := gojq.Parse(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
	}
	return code, nil
}

// print emits v as JSON in JSON mode and calls human otherwise.
func (p *printer) print(v any, human func(w io.Writer)) error {
	if !p.json {
		human(p.w)
		return nil
	}
	if p.jq == nil {
		return writeIndented(p.w, v)
	}
	return p.runJQ(v)
}

// runJQ feeds v through the jq program and prints every result on its own line.
func (p *printer) runJQ(v any) error {
	// gojq only understands plain JSON values, so round trip through encoding/json.
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	var input any
	if err := json.Unmarshal(raw, &input); err != nil {
		return fmt.Errorf("failed to decode output: %w", err)
	}

	iter := p.jq.Run(input)
	for {
		result, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, isErr := result.(error); isErr {
			return fmt.Errorf("jq filter failed: %w", err)
		}
		line, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal jq result: %w", err)
		}
		fmt.Fprintln(p.w, string(line))
	}
}

func writeIndented(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// formatSOL renders a lamport amount as SOL without losing precision.
func formatSOL(lamports uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), lamportsPerSOLExp).String()
}
