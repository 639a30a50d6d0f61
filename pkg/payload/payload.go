// Package payload turns opaque, possibly double-encoded activity JSON into
// typed per-kind views. Upstream payloads come from at least two distinct
// transaction-building providers with different schemas for economically
// equivalent data, so each field is extracted through an ordered list of
// known key paths and the first present value wins.
package payload

import (
	"bytes"
	"encoding/json"

	"github.com/omniwallet/walletsync/pkg/money"
)

// Payload is the parsed view over a raw activity blob. A zero Payload (parse
// failure, empty blob) answers every accessor with defaults; parsing never
// errors out to the caller.
type Payload struct {
	obj map[string]any
	raw []byte
}

// Parse decodes raw into a Payload. The blob may be a JSON object, a JSON
// string wrapping another JSON document, or malformed text. Numbers are kept
// as json.Number so token amounts spanning 0..1e30 base units survive intact.
func Parse(raw []byte) Payload {
	p := Payload{raw: raw}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return p
	}

	v, ok := decodeNumber(trimmed)
	if !ok {
		return p
	}
	// Some providers double-encode: a JSON string whose contents are JSON.
	if s, isStr := v.(string); isStr {
		if inner, innerOK := decodeNumber([]byte(s)); innerOK {
			v = inner
		}
	}
	if m, isMap := v.(map[string]any); isMap {
		p.obj = m
	}
	return p
}

func decodeNumber(b []byte) (any, bool) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

// Empty reports whether parsing produced no structured view.
func (p Payload) Empty() bool {
	return len(p.obj) == 0
}

// Canonical returns a deterministic serialization of the payload for digest
// purposes: the re-marshalled object when one exists (encoding/json emits map
// keys sorted), otherwise the raw bytes as observed.
func (p Payload) Canonical() []byte {
	if p.obj != nil {
		if b, err := json.Marshal(p.obj); err == nil {
			return b
		}
	}
	return p.raw
}

// Value returns the raw value at a dotted path, or nil.
func (p Payload) Value(path ...string) any {
	return dig(p.obj, path...)
}

func dig(m map[string]any, path ...string) any {
	cur := any(m)
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[key]
	}
	return cur
}

func str(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok && s != ""
}

// first returns the first non-nil value among the candidate paths.
func (p Payload) first(paths ...[]string) any {
	for _, path := range paths {
		if v := dig(p.obj, path...); v != nil {
			return v
		}
	}
	return nil
}

// Token is the extracted metadata of one token reference.
type Token struct {
	Symbol   *string
	Decimals int
	Price    any // raw price value; nil when no path matched
}

func tokenAt(m map[string]any) Token {
	t := Token{Decimals: 18}
	if m == nil {
		return t
	}
	if s, ok := str(m["symbol"]); ok {
		t.Symbol = &s
	}
	if v := m["decimals"]; v != nil {
		t.Decimals = money.SafeInt(v, 18)
	} else if v := m["decimal"]; v != nil {
		t.Decimals = money.SafeInt(v, 18)
	}
	// Providers disagree on where the USD price lives.
	for _, path := range [][]string{{"tokenPrices", "usd"}, {"price", "usd"}, {"priceUSD"}} {
		if v := dig(m, path...); v != nil {
			t.Price = v
			break
		}
	}
	return t
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// FromToken resolves the source-side token of a SWAP/BRIDGE payload.
func (p Payload) FromToken() Token {
	return tokenAt(asMap(p.first([]string{"fromToken"}, []string{"route", "fromToken"}, []string{"token"}, []string{"sourceToken"})))
}

// ToToken resolves the destination-side token of a SWAP/BRIDGE payload.
func (p Payload) ToToken() Token {
	return tokenAt(asMap(p.first([]string{"toToken"}, []string{"route", "toToken"})))
}

// SendToken resolves the token of a SEND payload.
func (p Payload) SendToken() Token {
	return tokenAt(asMap(p.first([]string{"fromToken"}, []string{"route", "fromToken"}, []string{"token"})))
}

// FromAmount is the raw source amount of a SWAP/BRIDGE, in base units.
func (p Payload) FromAmount() any {
	return p.first([]string{"fromAmount"}, []string{"amount"}, []string{"value"})
}

// Amount is the raw amount of a SEND, in base units.
func (p Payload) Amount() any {
	return p.Value("amount")
}

// SendRecipient returns the explicit recipient fields of a SEND payload:
// a username when one is present, otherwise a wallet address.
func (p Payload) SendRecipient() (username, address string) {
	if s, ok := str(p.first([]string{"toUsername"}, []string{"toUser"})); ok {
		username = s
	}
	if s, ok := str(p.Value("toAddress")); ok {
		address = s
	}
	return username, address
}

// ResolveChainIDs determines (from, to) chain ids for an activity record.
// Order: positional activity list, same-chain id in the payload, explicit
// from/to fields (payload or nested route), with `to` defaulting to `from`.
// Identifiers that fail integer coercion resolve to nil.
func ResolveChainIDs(activityIDs []int64, p Payload) (from, to *int64) {
	switch len(activityIDs) {
	case 2:
		return &activityIDs[0], &activityIDs[1]
	case 1:
		return &activityIDs[0], &activityIDs[0]
	}

	if id := coerceID(p.Value("chainId")); id != nil {
		return id, id
	}

	from = coerceID(p.first([]string{"fromChainId"}, []string{"route", "fromChainId"}))
	to = coerceID(p.first([]string{"toChainId"}, []string{"route", "toChainId"}))
	if to == nil {
		to = from
	}
	return from, to
}

func coerceID(v any) *int64 {
	switch t := v.(type) {
	case nil:
		return nil
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return &n
		}
	case string:
		if n, err := json.Number(t).Int64(); err == nil {
			return &n
		}
	case float64:
		n := int64(t)
		return &n
	case int64:
		return &t
	case int:
		n := int64(t)
		return &n
	}
	return nil
}

// FeeEntry is one fee contribution in either upstream convention.
type FeeEntry struct {
	Amount any
	Token  Token
}

// RouteFlatFee returns the single flat fee object some chain families place
// under the route, when present.
func (p Payload) RouteFlatFee() (FeeEntry, bool) {
	fee := asMap(p.Value("route", "nmFee"))
	if fee == nil {
		return FeeEntry{}, false
	}
	if _, ok := fee["amount"]; !ok {
		return FeeEntry{}, false
	}
	return FeeEntry{Amount: fee["amount"], Token: tokenAt(asMap(fee["token"]))}, true
}

// StepFees returns the per-step fee entries of the route's steps, the
// convention used by the other chain family. Malformed entries are skipped.
func (p Payload) StepFees() []FeeEntry {
	steps, _ := p.Value("route", "steps").([]any)
	var fees []FeeEntry
	for _, s := range steps {
		costs, _ := dig(asMap(s), "estimate", "feeCosts").([]any)
		for _, c := range costs {
			fee := asMap(c)
			if fee == nil {
				continue
			}
			fees = append(fees, FeeEntry{Amount: fee["amount"], Token: tokenAt(asMap(fee["token"]))})
		}
	}
	return fees
}

// CashView is the extracted shape of a CASH payload. Cash amounts are already
// USD-denominated, so no decimal normalization applies.
type CashView struct {
	SubStatus      string
	ConvertType    string // payload "type" for CONVERT movements
	Amount         any
	Fee            any
	Token          Token
	FromUserID     string
	ToUserID       string
	ToUsername     string
	ToExternalUser string
}

// Cash extracts the CASH view.
func (p Payload) Cash() CashView {
	v := CashView{
		Amount: p.Value("amount"),
		Fee:    p.Value("fee"),
		Token:  tokenAt(asMap(p.Value("token"))),
	}
	v.SubStatus, _ = str(p.Value("subStatus"))
	v.ConvertType, _ = str(p.Value("type"))
	v.FromUserID, _ = str(p.Value("fromUserId"))
	v.ToUserID, _ = str(p.Value("toUserId"))
	v.ToUsername, _ = str(p.Value("toUsername"))
	v.ToExternalUser, _ = str(p.Value("toExternalUser"))
	return v
}

// DappSiteHost returns the connected site's hostname, "unknown" when absent.
func (p Payload) DappSiteHost() string {
	if s, ok := str(p.Value("site", "host")); ok {
		return s
	}
	return "unknown"
}

// DappResult returns the dapp interaction's result hash when present.
func (p Payload) DappResult() (string, bool) {
	return str(p.Value("result"))
}
