package model

import "time"

// Activity types as recorded by the operational store.
const (
	TypeSwap   = "SWAP"
	TypeSend   = "SEND"
	TypeCash   = "CASH"
	TypeBridge = "BRIDGE"
	TypeDapp   = "DAPP"
)

// Activity statuses.
const (
	StatusSuccess = "SUCCESS"
	StatusFail    = "FAIL"
	StatusPending = "PENDING"
)

// RawActivityRecord is one row of the upstream activity log. It is owned by
// the operational store and never mutated by this pipeline.
type RawActivityRecord struct {
	CreatedAt time.Time
	UserID    string
	Type      string
	Status    string
	Hash      *string
	Payload   []byte  // opaque JSON blob, possibly double-encoded
	ChainIDs  []int64 // [from] or [from, to]
}
