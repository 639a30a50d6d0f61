package transform

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/omniwallet/walletsync/pkg/model"
	"github.com/omniwallet/walletsync/pkg/payload"
)

func parseForTest(s string) payload.Payload {
	return payload.Parse([]byte(s))
}

// stubIdentity resolves from a fixed map and echoes unknown identifiers,
// matching the contract of the real resolver.
type stubIdentity struct {
	byID   map[string]string
	byAddr map[string]string
}

func (s *stubIdentity) UsernameByUserID(_ context.Context, id string) string {
	if u, ok := s.byID[id]; ok {
		return u
	}
	return id
}

func (s *stubIdentity) UsernameByAddress(_ context.Context, addr string) string {
	if u, ok := s.byAddr[strings.ToLower(addr)]; ok {
		return u
	}
	return addr
}

func newTestTransformer(t *testing.T) *Transformer {
	return New(zaptest.NewLogger(t), &stubIdentity{
		byID:   map[string]string{"u-1": "alice", "u-2": "bob"},
		byAddr: map[string]string{"0xabc": "carol"},
	})
}

func record(typ, status, payload string) *model.RawActivityRecord {
	return &model.RawActivityRecord{
		CreatedAt: time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC),
		UserID:    "u-1",
		Type:      typ,
		Status:    status,
		Payload:   []byte(payload),
	}
}

func withHash(rec *model.RawActivityRecord, h string) *model.RawActivityRecord {
	rec.Hash = &h
	return rec
}

func TestTransform_SwapAmount(t *testing.T) {
	tr := newTestTransformer(t)
	rec := withHash(record(model.TypeSwap, model.StatusSuccess,
		`{"fromAmount":"1000000","fromToken":{"symbol":"USDC","decimals":6,"tokenPrices":{"usd":"1.00"}},"toToken":{"symbol":"ETH"}}`), "0xfeed")
	rec.ChainIDs = []int64{8453}

	tx, err := tr.Transform(context.Background(), rec)
	require.NoError(t, err)
	assert.InDelta(t, 1.00, tx.AmountUSD, 1e-9)
	assert.Equal(t, "USDC", *tx.FromToken)
	assert.Equal(t, "ETH", *tx.ToToken)
	assert.Equal(t, "base", tx.FromChain)
	assert.Equal(t, "base", tx.ToChain)
	assert.Equal(t, "alice", tx.FromUser)
	assert.Equal(t, "alice", *tx.ToUser) // counterparty is the protocol
	assert.Equal(t, model.StatusSuccess, tx.Status)
	assert.Equal(t, "0xfeed", tx.TxHash)
}

func TestTransform_SwapWithoutHashForcedToFail(t *testing.T) {
	tr := newTestTransformer(t)
	rec := record(model.TypeSwap, model.StatusSuccess, `{"fromAmount":"1"}`)

	tx, err := tr.Transform(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tx.TxHash, "unknown-"))
	assert.Equal(t, model.StatusFail, tx.Status)
}

func TestTransform_BridgeWithoutHashForcedToFail(t *testing.T) {
	tr := newTestTransformer(t)
	rec := record(model.TypeBridge, model.StatusSuccess, `{"fromAmount":"1"}`)

	tx, err := tr.Transform(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFail, tx.Status)
}

func TestTransform_SendWithoutHashKeepsStatus(t *testing.T) {
	tr := newTestTransformer(t)
	rec := record(model.TypeSend, model.StatusSuccess, `{"amount":"5","token":{"symbol":"ETH","decimals":0}}`)

	tx, err := tr.Transform(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, tx.HasFallbackHash())
	assert.Equal(t, model.StatusSuccess, tx.Status)
}

func TestTransform_SwapFeesSumBothConventions(t *testing.T) {
	tr := newTestTransformer(t)
	// Flat route fee: 0.5e9 * 2 / 1e9 = 1.0; step fees: 2 * (1e18 * 1 / 1e18) = 2.0.
	rec := withHash(record(model.TypeSwap, model.StatusSuccess, `{
		"fromAmount":"1000000","fromToken":{"symbol":"SUI","decimals":6,"tokenPrices":{"usd":"1"}},
		"route":{
			"nmFee":{"amount":"500000000","token":{"decimals":9,"tokenPrices":{"usd":"2"}}},
			"steps":[
				{"estimate":{"feeCosts":[{"amount":"1000000000000000000","token":{"decimals":18,"priceUSD":"1"}}]}},
				{"estimate":{"feeCosts":[{"amount":"1000000000000000000","token":{"decimals":18,"priceUSD":"1"}}]}}
			]
		}
	}`), "0xfee")

	tx, err := tr.Transform(context.Background(), rec)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, tx.FeeUSD, 1e-9)
}

func TestTransform_SwapFeeEntryFailureContributesZero(t *testing.T) {
	tr := newTestTransformer(t)
	rec := withHash(record(model.TypeSwap, model.StatusSuccess, `{
		"fromAmount":"1000000","fromToken":{"decimals":6,"tokenPrices":{"usd":"1"}},
		"route":{"steps":[
			{"estimate":{"feeCosts":[{"amount":"not-a-number","token":{"decimals":18,"priceUSD":"1"}}]}},
			{"estimate":{"feeCosts":[{"amount":"2000000000000000000","token":{"decimals":18,"priceUSD":"1"}}]}}
		]}
	}`), "0xfee")

	tx, err := tr.Transform(context.Background(), rec)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, tx.FeeUSD, 1e-9)
}

func TestTransform_SendRecipientFallbacks(t *testing.T) {
	tr := newTestTransformer(t)

	tx, err := tr.Transform(context.Background(), withHash(record(model.TypeSend, model.StatusSuccess,
		`{"amount":"1","token":{"symbol":"ETH"},"toUsername":"dave"}`), "0x1"))
	require.NoError(t, err)
	assert.Equal(t, "dave", *tx.ToUser)

	tx, err = tr.Transform(context.Background(), withHash(record(model.TypeSend, model.StatusSuccess,
		`{"amount":"1","token":{"symbol":"ETH"},"toAddress":"0xABC"}`), "0x2"))
	require.NoError(t, err)
	assert.Equal(t, "carol", *tx.ToUser)

	// No recipient fields at all: falls back to the sender's own identity.
	tx, err = tr.Transform(context.Background(), withHash(record(model.TypeSend, model.StatusSuccess,
		`{"amount":"1","token":{"symbol":"ETH"}}`), "0x3"))
	require.NoError(t, err)
	assert.Equal(t, "alice", *tx.ToUser)
}

func TestTransform_CashConvertLabel(t *testing.T) {
	tr := newTestTransformer(t)
	rec := withHash(record(model.TypeCash, model.StatusSuccess,
		`{"subStatus":"CONVERT","type":"CASH_TO_CRYPTO","amount":"25.5","fee":"0.25"}`), "0xc1")

	tx, err := tr.Transform(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "CONVERT: CASH TO CRYPTO", *tx.ToUser)
	assert.Equal(t, 25.5, tx.AmountUSD)
	assert.Equal(t, 0.25, tx.FeeUSD)
	assert.Equal(t, "USD", *tx.FromToken)
}

func TestTransform_CashSendResolvesRecipient(t *testing.T) {
	tr := newTestTransformer(t)
	rec := withHash(record(model.TypeCash, model.StatusSuccess,
		`{"subStatus":"SEND","amount":"10","fee":"0.1","toUserId":"u-2"}`), "0xc2")

	tx, err := tr.Transform(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "bob", *tx.ToUser)
}

func TestTransform_CashDepositRejected(t *testing.T) {
	tr := newTestTransformer(t)
	rec := withHash(record(model.TypeCash, model.StatusSuccess,
		`{"subStatus":"DEPOSIT","amount":"10"}`), "0xc3")

	tx, err := tr.Transform(context.Background(), rec)
	assert.Nil(t, tx)
	assert.True(t, IsReject(err))
}

func TestTransform_UnknownTypeRejected(t *testing.T) {
	tr := newTestTransformer(t)
	tx, err := tr.Transform(context.Background(), record("STAKE", model.StatusSuccess, `{}`))
	assert.Nil(t, tx)
	assert.True(t, IsReject(err))
}

func TestTransform_DappMalformedPayload(t *testing.T) {
	tr := newTestTransformer(t)
	rec := withHash(record(model.TypeDapp, model.StatusSuccess, `{{{broken`), "0xd1")

	tx, err := tr.Transform(context.Background(), rec)
	require.NoError(t, err)
	require.NotNil(t, tx.TxDisplay)
	assert.Equal(t, "unknown - errorhash", *tx.TxDisplay)
	assert.Zero(t, tx.AmountUSD)
}

func TestTransform_DappDisplayFromResultHash(t *testing.T) {
	tr := newTestTransformer(t)
	rec := withHash(record(model.TypeDapp, model.StatusSuccess,
		`{"site":{"host":"app.example.io"},"result":"0xdeadbeefcafebabe"}`), "0xd2")

	tx, err := tr.Transform(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "app.example.io - deadbeef", *tx.TxDisplay)
}

func TestTransform_AmountBeyondBoundRejected(t *testing.T) {
	tr := newTestTransformer(t)
	rec := withHash(record(model.TypeSwap, model.StatusSuccess,
		`{"fromAmount":"1e30","fromToken":{"decimals":6,"tokenPrices":{"usd":"1"}}}`), "0xbig")

	tx, err := tr.Transform(context.Background(), rec)
	assert.Nil(t, tx)
	assert.True(t, IsReject(err))
}

func TestResolveHash_Deterministic(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	p := parseForTest(`{"b":1,"a":2}`)
	h1, syn1 := ResolveHash(nil, created, p)
	h2, syn2 := ResolveHash(nil, created, parseForTest(`{"a":2,"b":1}`))
	assert.True(t, syn1)
	assert.True(t, syn2)
	assert.Equal(t, h1, h2)
	assert.True(t, strings.HasPrefix(h1, "unknown-20250601123000-"))
}

func TestResolveHash_NullStringsSynthesize(t *testing.T) {
	created := time.Now()
	for _, raw := range []string{"", "null", "NULL", "none"} {
		v := raw
		h, syn := ResolveHash(&v, created, parseForTest(`{}`))
		assert.True(t, syn, "hash %q should synthesize", raw)
		assert.True(t, strings.HasPrefix(h, "unknown-"))
	}

	real := "0xabc123"
	h, syn := ResolveHash(&real, created, parseForTest(`{}`))
	assert.False(t, syn)
	assert.Equal(t, "0xabc123", h)
}
