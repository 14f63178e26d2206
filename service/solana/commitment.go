package solana

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go/rpc"
)

// Commitment is the consistency level a query is answered at.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

// Commitments lists every supported level, weakest first.
var Commitments = []Commitment{
	CommitmentProcessed,
	CommitmentConfirmed,
	CommitmentFinalized,
}

// ParseCommitment accepts a level name, case-insensitively.
func ParseCommitment(s string) (Commitment, error) {
	switch c := Commitment(strings.ToLower(strings.TrimSpace(s))); c {
	case CommitmentProcessed, CommitmentConfirmed, CommitmentFinalized:
		return c, nil
	default:
		return "", fmt.Errorf("invalid commitment %q: must be one of processed, confirmed, finalized", s)
	}
}

// Resolve maps the level onto the RPC commitment parameter. Unknown values
// resolve to finalized, which is also what the node assumes when none is sent.
func (c Commitment) Resolve() rpc.CommitmentType {
	switch c {
	case CommitmentProcessed:
		return rpc.CommitmentProcessed
	case CommitmentConfirmed:
		return rpc.CommitmentConfirmed
	default:
		return rpc.CommitmentFinalized
	}
}

func (c Commitment) String() string {
	return string(c)
}
