package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	seen := make(map[string]bool)

	for range 500 {
		got, err := Generate("evt")
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(got, "evt-"))
		assert.Len(t, got, len("evt")+1+21)
		assert.False(t, seen[got], "ID should be unique: %s", got)
		seen[got] = true
	}
}

func TestMustGenerate(t *testing.T) {
	got := MustGenerate("cli")
	assert.True(t, strings.HasPrefix(got, "cli-"))
	assert.Len(t, got, len("cli")+1+21)
}
