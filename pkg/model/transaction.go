package model

import (
	"strings"
	"time"
)

// FallbackHashPrefix marks synthesized transaction identifiers produced when
// the source record carries no on-chain hash.
const FallbackHashPrefix = "unknown-"

// CanonicalTransaction is the normalized, store-agnostic representation every
// reporting query consumes. Keyed by TxHash, which is globally unique;
// re-ingesting the same raw record updates the same row.
type CanonicalTransaction struct {
	CreatedAt time.Time
	Type      string
	Status    string
	FromUser  string
	ToUser    *string // display label or resolved identity
	FromToken *string
	ToToken   *string
	FromChain string
	ToChain   string
	AmountUSD float64
	FeeUSD    float64
	ChainID   *int64 // numeric from-chain id, kept for joins
	TxHash    string
	TxDisplay *string // human label, DAPP rows only
}

// HasFallbackHash reports whether the transaction identity was synthesized
// rather than observed on chain.
func (t *CanonicalTransaction) HasFallbackHash() bool {
	return strings.HasPrefix(t.TxHash, FallbackHashPrefix)
}
