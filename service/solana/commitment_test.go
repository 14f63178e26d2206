package solana

import (
	"testing"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitmentResolve(t *testing.T) {
	tests := []struct {
		level Commitment
		want  rpc.CommitmentType
	}{
		{CommitmentProcessed, rpc.CommitmentProcessed},
		{CommitmentConfirmed, rpc.CommitmentConfirmed},
		{CommitmentFinalized, rpc.CommitmentFinalized},
		{Commitment("bogus"), rpc.CommitmentFinalized},
		{Commitment(""), rpc.CommitmentFinalized},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.level.Resolve())
		})
	}
}

func TestParseCommitment(t *testing.T) {
	for _, level := range Commitments {
		got, err := ParseCommitment(level.String())
		require.NoError(t, err)
		assert.Equal(t, level, got)
	}

	got, err := ParseCommitment(" Confirmed ")
	require.NoError(t, err)
	assert.Equal(t, CommitmentConfirmed, got)

	_, err = ParseCommitment("recent")
	assert.Error(t, err)
}
