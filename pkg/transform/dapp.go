package transform

import (
	"strings"

	"github.com/omniwallet/walletsync/pkg/payload"
)

// dappErrorDisplay is what a dapp row shows when its payload is unreadable.
// Dapp rows carry no monetary fields, so a malformed payload is non-fatal and
// the row is still cached under this label.
const dappErrorDisplay = "unknown - errorhash"

// DappDisplay composes the human label for a DAPP interaction: the site host
// and a short hash, taken from the payload's result hash when it looks like
// one, otherwise digested from the canonicalized payload so the label stays
// stable across replays.
func DappDisplay(p payload.Payload) string {
	if p.Empty() {
		return dappErrorDisplay
	}

	short := ""
	if result, ok := p.DappResult(); ok && strings.HasPrefix(result, "0x") && len(result) >= 10 {
		short = result[2:10]
	} else {
		short = shortDigest(p.Canonical())
	}
	return p.DappSiteHost() + " - " + short
}
