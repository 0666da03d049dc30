package ids

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_CarriesExpectedPrefix(t *testing.T) {
	id := New(PrefixMediaItem)
	assert.True(t, strings.HasPrefix(id, "M:"))
}

func TestNew_BodyLengthMatchesPrefixSpec(t *testing.T) {
	tests := []struct {
		prefix     Prefix
		bodyLength int
	}{
		{PrefixMediaItem, 25},
		{PrefixAuthToken, 25},
		{PrefixMediaFile, 10},
		{PrefixTag, 10},
		{PrefixAlbum, 10},
		{PrefixPerson, 10},
		{PrefixUser, 10},
	}

	for _, tt := range tests {
		id := New(tt.prefix)
		body := strings.TrimPrefix(id, string(tt.prefix)+":")
		assert.Len(t, body, tt.bodyLength)
	}
}

func TestNew_ProducesUniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := New(PrefixMediaFile)
		assert.False(t, seen[id], "unexpected collision at iteration %d", i)
		seen[id] = true
	}
}

func TestTagAndAuthTokenPrefixesDoNotCollide(t *testing.T) {
	assert.NotEqual(t, PrefixTag, PrefixAuthToken)
}
