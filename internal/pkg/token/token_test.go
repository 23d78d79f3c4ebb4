package token

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alnum = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

func TestGenerate(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		tok, err := Generate(DefaultLength)
		require.NoError(t, err)
		assert.Len(t, tok, DefaultLength)
		assert.Regexp(t, alnum, tok)
		assert.False(t, seen[tok], "duplicate token")
		seen[tok] = true
	}
}

func TestGenerateDefaultsLength(t *testing.T) {
	tok, err := Generate(0)
	require.NoError(t, err)
	assert.Len(t, tok, DefaultLength)
}
