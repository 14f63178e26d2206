package solana

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Well-known Solana program IDs and mints
var (
	// TokenProgramID is the SPL Token program
	TokenProgramID = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	// AssociatedTokenProgramID is the SPL Associated Token Account program
	AssociatedTokenProgramID = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")

	// MemoProgramID is the SPL Memo program (v2)
	MemoProgramID = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")

	// USDCMainnetMint is the USDC mint on mainnet-beta
	USDCMainnetMint = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
)

// ParseAddress decodes a base58 account address. Anything that is not exactly
// 32 bytes of valid base58 is rejected with ErrInvalidAddress.
func ParseAddress(s string) (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return pk, nil
}

// ParseSignature decodes a base58 transaction signature (64 bytes).
func ParseSignature(s string) (solana.Signature, error) {
	sig, err := solana.SignatureFromBase58(s)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return sig, nil
}

// DeriveAssociatedTokenAccount computes the associated token account of owner
// for mint under the SPL Token program. The derivation is the published PDA
// rule: seeds owner || token program || mint, searched from bump 255 downwards
// against the associated token account program.
//
// The error path is only reachable if no bump yields an off-curve point, which
// does not happen for real keys.
func DeriveAssociatedTokenAccount(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindProgramAddress(
		[][]byte{
			owner[:],
			TokenProgramID[:],
			mint[:],
		},
		AssociatedTokenProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive associated token account: %w", err)
	}
	return ata, nil
}
