package chains

import "strconv"

// solanaAltID is an alternate numeric identifier observed in some upstream
// payloads for the same logical Solana chain.
const solanaAltID int64 = 1151111081099710

var names = map[int64]string{
	1:           "ethereum",
	2:           "sui",
	10:          "optimism",
	56:          "bnb",
	101:         "solana",
	137:         "polygon",
	146:         "sonic",
	2741:        "abstract",
	8453:        "base",
	34443:       "mode",
	42161:       "arbitrum",
	43114:       "avalanche",
	59144:       "linea",
	81457:       "blast",
	solanaAltID: "solana",
}

// Name maps a numeric chain id to its canonical name. Unknown ids degrade to
// the stringified id so new chains stay visible instead of blocking ingestion.
func Name(id int64) string {
	if n, ok := names[id]; ok {
		return n
	}
	return strconv.FormatInt(id, 10)
}

// Known reports whether the id maps to a canonical chain name.
func Known(id int64) bool {
	_, ok := names[id]
	return ok
}
