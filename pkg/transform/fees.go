package transform

import (
	"github.com/omniwallet/walletsync/pkg/money"
	"github.com/omniwallet/walletsync/pkg/payload"
)

// FeeExtractor computes one upstream fee convention's USD contribution for a
// SWAP/BRIDGE payload. A per-entry parse failure contributes zero and never
// aborts the rest of the transaction.
type FeeExtractor func(p payload.Payload) float64

// routeFlatFee handles the chain-native convention: a single flat fee object
// under the route.
func routeFlatFee(p payload.Payload) float64 {
	fee, ok := p.RouteFlatFee()
	if !ok {
		return 0
	}
	return money.Normalize(fee.Amount, fee.Token.Price, fee.Token.Decimals)
}

// stepFees handles the routed convention: a list of per-step fee entries,
// each contributing independently.
func stepFees(p payload.Payload) float64 {
	total := 0.0
	for _, fee := range p.StepFees() {
		total += money.Normalize(fee.Amount, fee.Token.Price, fee.Token.Decimals)
	}
	return total
}

// swapFeeExtractors lists both conventions. Some payloads could in principle
// populate both; the contributions are summed, matching upstream accounting.
var swapFeeExtractors = []FeeExtractor{routeFlatFee, stepFees}

// swapFeeUSD accumulates the total fee across every known convention,
// rounded to 8 decimal places.
func swapFeeUSD(p payload.Payload) float64 {
	total := 0.0
	for _, extract := range swapFeeExtractors {
		total += extract(p)
	}
	return money.RoundFee(total)
}
