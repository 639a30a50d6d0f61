package chains

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	assert.Equal(t, "ethereum", Name(1))
	assert.Equal(t, "base", Name(8453))
	assert.Equal(t, "sui", Name(2))
}

func TestName_SolanaAliases(t *testing.T) {
	// Both numeric ids for Solana must fold to one canonical name.
	assert.Equal(t, "solana", Name(101))
	assert.Equal(t, "solana", Name(1151111081099710))
}

func TestName_UnknownFallsBackToStringifiedID(t *testing.T) {
	assert.Equal(t, "999999", Name(999999))
	assert.False(t, Known(999999))
}
