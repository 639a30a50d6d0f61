package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_MalformedYieldsEmpty(t *testing.T) {
	assert.True(t, Parse([]byte(`{{{not json`)).Empty())
	assert.True(t, Parse(nil).Empty())
	assert.True(t, Parse([]byte(`  `)).Empty())
	// Arrays and scalars are not structured views either.
	assert.True(t, Parse([]byte(`[1,2,3]`)).Empty())
	assert.True(t, Parse([]byte(`42`)).Empty())
}

func TestParse_DoubleEncoded(t *testing.T) {
	p := Parse([]byte(`"{\"fromAmount\":\"1000000\"}"`))
	require.False(t, p.Empty())
	assert.Equal(t, "1000000", p.FromAmount())
}

func TestFromToken_PricePaths(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"tokenPrices.usd", `{"fromToken":{"symbol":"USDC","decimals":6,"tokenPrices":{"usd":"1.00"}}}`},
		{"price.usd", `{"fromToken":{"symbol":"USDC","decimals":6,"price":{"usd":"1.00"}}}`},
		{"priceUSD", `{"fromToken":{"symbol":"USDC","decimals":6,"priceUSD":"1.00"}}`},
		{"route-nested", `{"route":{"fromToken":{"symbol":"USDC","decimals":6,"priceUSD":"1.00"}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := Parse([]byte(tt.in)).FromToken()
			require.NotNil(t, tok.Symbol)
			assert.Equal(t, "USDC", *tok.Symbol)
			assert.Equal(t, 6, tok.Decimals)
			require.NotNil(t, tok.Price)
		})
	}
}

func TestToken_DecimalsDefaultAndAltKey(t *testing.T) {
	tok := Parse([]byte(`{"fromToken":{"symbol":"X"}}`)).FromToken()
	assert.Equal(t, 18, tok.Decimals)

	tok = Parse([]byte(`{"fromToken":{"symbol":"X","decimal":9}}`)).FromToken()
	assert.Equal(t, 9, tok.Decimals)
}

func TestResolveChainIDs(t *testing.T) {
	empty := Parse(nil)

	from, to := ResolveChainIDs([]int64{8453, 42161}, empty)
	require.NotNil(t, from)
	require.NotNil(t, to)
	assert.EqualValues(t, 8453, *from)
	assert.EqualValues(t, 42161, *to)

	from, to = ResolveChainIDs([]int64{137}, empty)
	assert.EqualValues(t, 137, *from)
	assert.EqualValues(t, 137, *to)
}

func TestResolveChainIDs_PayloadFallbacks(t *testing.T) {
	from, to := ResolveChainIDs(nil, Parse([]byte(`{"chainId":1}`)))
	require.NotNil(t, from)
	assert.EqualValues(t, 1, *from)
	assert.EqualValues(t, 1, *to)

	from, to = ResolveChainIDs(nil, Parse([]byte(`{"fromChainId":"10"}`)))
	require.NotNil(t, from)
	assert.EqualValues(t, 10, *from)
	assert.EqualValues(t, 10, *to) // to defaults to from

	from, to = ResolveChainIDs(nil, Parse([]byte(`{"route":{"fromChainId":56,"toChainId":8453}}`)))
	assert.EqualValues(t, 56, *from)
	assert.EqualValues(t, 8453, *to)
}

func TestResolveChainIDs_UncoercibleIsNil(t *testing.T) {
	from, to := ResolveChainIDs(nil, Parse([]byte(`{"fromChainId":"solana-mainnet"}`)))
	assert.Nil(t, from)
	assert.Nil(t, to)
}

func TestRouteFlatFee(t *testing.T) {
	p := Parse([]byte(`{"route":{"nmFee":{"amount":"500000","token":{"decimals":9,"tokenPrices":{"usd":"2"}}}}}`))
	fee, ok := p.RouteFlatFee()
	require.True(t, ok)
	assert.NotNil(t, fee.Amount)
	assert.Equal(t, 9, fee.Token.Decimals)

	_, ok = Parse([]byte(`{"route":{"nmFee":{}}}`)).RouteFlatFee()
	assert.False(t, ok)

	_, ok = Parse([]byte(`{}`)).RouteFlatFee()
	assert.False(t, ok)
}

func TestStepFees(t *testing.T) {
	p := Parse([]byte(`{"route":{"steps":[
		{"estimate":{"feeCosts":[{"amount":"1","token":{"decimals":18,"priceUSD":"1"}}]}},
		{"estimate":{"feeCosts":[{"amount":"2","token":{"decimals":18,"priceUSD":"1"}},"garbage"]}}
	]}}`))
	fees := p.StepFees()
	assert.Len(t, fees, 2) // the malformed entry is skipped
}

func TestCashView(t *testing.T) {
	p := Parse([]byte(`{"subStatus":"CONVERT","type":"CASH_TO_CRYPTO","amount":"25.5","fee":"0.5","token":{"symbol":"USD"},"toUserId":"u-2"}`))
	v := p.Cash()
	assert.Equal(t, "CONVERT", v.SubStatus)
	assert.Equal(t, "CASH_TO_CRYPTO", v.ConvertType)
	assert.Equal(t, "u-2", v.ToUserID)
	require.NotNil(t, v.Token.Symbol)
	assert.Equal(t, "USD", *v.Token.Symbol)
}

func TestDappAccessors(t *testing.T) {
	p := Parse([]byte(`{"site":{"host":"app.uniswap.org"},"result":"0xdeadbeefcafe"}`))
	assert.Equal(t, "app.uniswap.org", p.DappSiteHost())
	r, ok := p.DappResult()
	require.True(t, ok)
	assert.Equal(t, "0xdeadbeefcafe", r)

	assert.Equal(t, "unknown", Parse(nil).DappSiteHost())
}

func TestCanonical_Deterministic(t *testing.T) {
	a := Parse([]byte(`{"b":1,"a":2}`)).Canonical()
	b := Parse([]byte(`{"a":2,"b":1}`)).Canonical()
	assert.Equal(t, string(a), string(b))
}
