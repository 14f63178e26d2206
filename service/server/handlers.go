package server

import (
	"errors"
	"log/slog"
	"net/http"

	natspkg "github.com/brojonat/yatori/service/nats"
	"github.com/brojonat/yatori/service/solana"
)

type networkRequest struct {
	Network string `json:"network"`
}

type addressRequest struct {
	Network string `json:"network"`
	Address string `json:"address"`
}

type tokenBalanceRequest struct {
	Network          string `json:"network"`
	Address          string `json:"address"`
	TokenMintAddress string `json:"token_mint_address"`
}

type activationRequest struct {
	Network     string `json:"network"`
	Address     string `json:"address"`
	MintAddress string `json:"mint_address"`
}

type transactionRequest struct {
	Network     string `json:"network"`
	Transaction string `json:"transaction"` // base58 signature
}

// handleRoot answers the liveness probe at "/".
func handleRoot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("Yatori"))
	}
}

// handleBlockhash returns the latest finalized blockhash.
// POST /blockhash {"network"}
func handleBlockhash(networks *solana.Networks, env *envelopes, logger *slog.Logger) http.Handler {
	const name = "blockhash"
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req networkRequest
		if msg, err := decodeBody(w, r, &req); err != nil {
			env.writeFailure(w, r, name, err, msg)
			return
		}

		client, err := networks.Get(req.Network)
		if err != nil {
			env.writeFailure(w, r, name, err, err.Error())
			return
		}

		hash, err := client.GetLatestBlockhash(r.Context())
		if err != nil {
			env.writeFailure(w, r, name, err, "Could not retrieve blockhash")
			return
		}

		env.writeData(w, hash.String(), "Successful blockhash")
	})
}

// handleNativeBalance returns the lamport balance of an address at level.
// POST /sol-balance-{level} {"network", "address"}
func handleNativeBalance(networks *solana.Networks, level solana.Commitment, env *envelopes, logger *slog.Logger) http.Handler {
	name := "sol-balance-" + level.String()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req addressRequest
		if msg, err := decodeBody(w, r, &req); err != nil {
			env.writeFailure(w, r, name, err, msg)
			return
		}

		client, err := networks.Get(req.Network)
		if err != nil {
			env.writeFailure(w, r, name, err, err.Error())
			return
		}

		address, err := solana.ParseAddress(req.Address)
		if err != nil {
			env.writeFailure(w, r, name, err, "Invalid wallet address")
			return
		}

		balance, err := client.GetNativeBalance(r.Context(), address, level)
		if err != nil {
			env.writeFailure(w, r, name, err, "Could not retrieve balance")
			return
		}

		logger.DebugContext(r.Context(), "native balance served",
			"address", req.Address,
			"network", client.Network(),
			"commitment", level,
		)
		env.writeData(w, balance, "Successful solana balance request")
	})
}

// handleTokenBalance returns the balance of the owner's associated token
// account for a mint at level.
// POST /token-balance-{level} {"network", "address", "token_mint_address"}
func handleTokenBalance(networks *solana.Networks, level solana.Commitment, env *envelopes, logger *slog.Logger) http.Handler {
	name := "token-balance-" + level.String()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req tokenBalanceRequest
		if msg, err := decodeBody(w, r, &req); err != nil {
			env.writeFailure(w, r, name, err, msg)
			return
		}

		client, err := networks.Get(req.Network)
		if err != nil {
			env.writeFailure(w, r, name, err, err.Error())
			return
		}

		owner, err := solana.ParseAddress(req.Address)
		if err != nil {
			env.writeFailure(w, r, name, err, "Invalid wallet address")
			return
		}

		mint, err := solana.ParseAddress(req.TokenMintAddress)
		if err != nil {
			env.writeFailure(w, r, name, err, "Invalid token address")
			return
		}

		balance, err := client.GetTokenBalance(r.Context(), owner, mint, level)
		if err != nil {
			env.writeFailure(w, r, name, err, "Could not retrieve balance for token")
			return
		}

		env.writeData(w, balance, "Successful balance request")
	})
}

// handleTransaction returns a transaction exactly as the node reported it.
// POST /get-transaction-confirmed {"network", "transaction"}
func handleTransaction(networks *solana.Networks, env *envelopes, logger *slog.Logger) http.Handler {
	const name = "get-transaction-confirmed"
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req transactionRequest
		if msg, err := decodeBody(w, r, &req); err != nil {
			env.writeFailure(w, r, name, err, msg)
			return
		}

		client, err := networks.Get(req.Network)
		if err != nil {
			env.writeFailure(w, r, name, err, err.Error())
			return
		}

		signature, err := solana.ParseSignature(req.Transaction)
		if err != nil {
			env.writeFailure(w, r, name, err, "Invalid Signature String")
			return
		}

		tx, err := client.GetTransaction(r.Context(), signature)
		if err != nil {
			env.writeFailure(w, r, name, err, "Could not retrieve transaction for signature")
			return
		}

		env.writeData(w, tx, "Successful transaction confirmed")
	})
}

// handleSignatures returns the memo-filtered signature history of an
// address. A non-nil limit caps the upstream query before filtering.
// POST /get-arrow-acc-sigs, /get-latest-sig {"network", "address"}
func handleSignatures(networks *solana.Networks, name string, limit *int, successStatus string, env *envelopes, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req addressRequest
		if msg, err := decodeBody(w, r, &req); err != nil {
			env.writeFailure(w, r, name, err, msg)
			return
		}

		client, err := networks.Get(req.Network)
		if err != nil {
			env.writeFailure(w, r, name, err, err.Error())
			return
		}

		address, err := solana.ParseAddress(req.Address)
		if err != nil {
			env.writeFailure(w, r, name, err, "Invalid wallet address")
			return
		}

		sigs, err := client.ListSignatures(r.Context(), address, limit)
		if err != nil {
			env.writeFailure(w, r, name, err, "Could not retrieve signatures for account")
			return
		}

		env.writeData(w, sigs, successStatus)
	})
}

// handleActivation reports whether the owner's associated token account for
// a mint holds the rent exempt minimum.
// POST /is-usdc-acct-activated {"network", "address", "mint_address"}
func handleActivation(networks *solana.Networks, env *envelopes, logger *slog.Logger) http.Handler {
	const name = "is-usdc-acct-activated"
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req activationRequest
		if msg, err := decodeBody(w, r, &req); err != nil {
			env.writeFailure(w, r, name, err, msg)
			return
		}

		client, err := networks.Get(req.Network)
		if err != nil {
			env.writeFailure(w, r, name, err, err.Error())
			return
		}

		owner, err := solana.ParseAddress(req.Address)
		if err != nil {
			env.writeFailure(w, r, name, err, "Invalid wallet address")
			return
		}

		mint, err := solana.ParseAddress(req.MintAddress)
		if err != nil {
			env.writeFailure(w, r, name, err, "Invalid mint address")
			return
		}

		activation, err := client.IsAccountActivated(r.Context(), owner, mint)
		if err != nil {
			env.writeFailure(w, r, name, err, "Could not retrieve balance")
			return
		}

		env.writeData(w, activation, "Token account activation query successful")
	})
}

// handleRecommendedFee returns the median recent priority fee. When a
// publisher is configured the recommendation is also published to NATS;
// publish failures are logged and do not fail the request.
// GET /get-rec-fee?network=
func handleRecommendedFee(networks *solana.Networks, publisher natspkg.Publisher, env *envelopes, logger *slog.Logger) http.Handler {
	const name = "get-rec-fee"
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client, err := networks.Get(r.URL.Query().Get("network"))
		if err != nil {
			env.writeFailure(w, r, name, err, err.Error())
			return
		}

		rec, err := client.RecommendFee(r.Context())
		if errors.Is(err, solana.ErrNoSamples) {
			env.writeFailure(w, r, name, err, "No valid fees found")
			return
		}
		if err != nil {
			env.writeFailure(w, r, name, err, "Failed to get fees")
			return
		}

		if publisher != nil {
			event := natspkg.FromRecommendation(client.Network(), rec)
			if err := publisher.PublishFeeRecommendation(r.Context(), event); err != nil {
				logger.WarnContext(r.Context(), "failed to publish fee event",
					"network", client.Network(),
					"error", err,
				)
			}
		}

		env.writeData(w, rec, "Successfully retrieved recommended priority fees")
	})
}
