package invite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCode_ShapeOverManyDraws(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		code, err := NewCode()
		require.NoError(t, err)
		assert.Len(t, code, CodeLength)
		assert.True(t, Valid(code), "code %q must match [A-Z0-9]{%d}", code, CodeLength)
		seen[code] = struct{}{}
	}
	// 36^6 codes; 1000 draws colliding down to a handful would mean
	// the generator is broken.
	assert.Greater(t, len(seen), 990)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("ABC123"))
	assert.True(t, Valid("ZZZZZZ"))
	assert.False(t, Valid("abc123"))
	assert.False(t, Valid("ABC12"))
	assert.False(t, Valid("ABC1234"))
	assert.False(t, Valid("ABC12!"))
	assert.False(t, Valid(""))
}
