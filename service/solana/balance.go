package solana

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// RentExemptMinimum is the lamport balance a 165 byte SPL token account must
// hold to be rent exempt under the current rent schedule.
const RentExemptMinimum uint64 = 2_039_280

// TokenBalance is the SPL token balance of an associated token account.
type TokenBalance struct {
	BaseAmount    string `json:"baseAmount"`    // raw integer amount
	DisplayAmount string `json:"displayAmount"` // amount scaled by decimals
	Decimals      uint8  `json:"decimals"`
}

// Activation reports whether an associated token account holds enough
// lamports to exist.
type Activation struct {
	Balance   uint64 `json:"balance"`
	Activated bool   `json:"isActivated"`
}

// IsActivated applies the rent exemption threshold to a lamport balance.
func IsActivated(balance uint64) bool {
	return balance >= RentExemptMinimum
}

// GetNativeBalance returns the lamport balance of address at the given commitment.
func (c *Client) GetNativeBalance(ctx context.Context, address solana.PublicKey, level Commitment) (uint64, error) {
	var out *rpc.GetBalanceResult
	err := c.call(ctx, "GetBalance", func(ctx context.Context) error {
		var err error
		out, err = c.rpc.GetBalance(ctx, address, level.Resolve())
		return err
	})
	if err != nil {
		return 0, err
	}
	if out == nil {
		return 0, &RemoteQueryError{Method: "GetBalance", Err: errEmptyResult}
	}

	c.logger.DebugContext(ctx, "fetched native balance",
		"address", address.String(),
		"commitment", level,
		"lamports", out.Value,
	)
	return out.Value, nil
}

// GetTokenBalance returns the balance of owner's associated token account for
// mint. An account that does not exist upstream is an error, not a zero balance.
func (c *Client) GetTokenBalance(ctx context.Context, owner, mint solana.PublicKey, level Commitment) (*TokenBalance, error) {
	ata, err := DeriveAssociatedTokenAccount(owner, mint)
	if err != nil {
		return nil, err
	}

	var out *rpc.GetTokenAccountBalanceResult
	err = c.call(ctx, "GetTokenAccountBalance", func(ctx context.Context) error {
		var err error
		out, err = c.rpc.GetTokenAccountBalance(ctx, ata, level.Resolve())
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil || out.Value == nil {
		return nil, &RemoteQueryError{Method: "GetTokenAccountBalance", Err: errEmptyResult}
	}

	c.logger.DebugContext(ctx, "fetched token balance",
		"owner", owner.String(),
		"mint", mint.String(),
		"ata", ata.String(),
		"commitment", level,
		"amount", out.Value.Amount,
	)

	return &TokenBalance{
		BaseAmount:    out.Value.Amount,
		DisplayAmount: out.Value.UiAmountString,
		Decimals:      out.Value.Decimals,
	}, nil
}

// IsAccountActivated checks whether owner's associated token account for mint
// holds at least RentExemptMinimum lamports (queried at confirmed).
func (c *Client) IsAccountActivated(ctx context.Context, owner, mint solana.PublicKey) (*Activation, error) {
	ata, err := DeriveAssociatedTokenAccount(owner, mint)
	if err != nil {
		return nil, err
	}

	balance, err := c.GetNativeBalance(ctx, ata, CommitmentConfirmed)
	if err != nil {
		return nil, err
	}

	return &Activation{
		Balance:   balance,
		Activated: IsActivated(balance),
	}, nil
}
