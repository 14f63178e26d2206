package nats

import (
	"time"

	"github.com/brojonat/yatori/service/solana"
)

// FeeEvent is a priority fee recommendation published to NATS.
// It is published to the subject "{prefix}.{network}".
type FeeEvent struct {
	Network string  `json:"network"`
	Fee     uint64  `json:"fee"`   // micro-lamports per compute unit
	Cost    float64 `json:"cents"` // fee scaled for display
	Samples int     `json:"samples"`

	PublishedAt time.Time `json:"published_at"`
}

// FromRecommendation converts a fee recommendation into an event for network.
func FromRecommendation(network string, rec *solana.FeeRecommendation) *FeeEvent {
	return &FeeEvent{
		Network:     network,
		Fee:         rec.Fee,
		Cost:        rec.Cost,
		Samples:     rec.Samples,
		PublishedAt: time.Now().UTC(),
	}
}
