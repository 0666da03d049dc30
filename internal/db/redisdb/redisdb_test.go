package redisdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turahe/mediacore/config"
)

func TestConnect_DisabledIsNoop(t *testing.T) {
	client = nil
	err := Connect(config.Redis{})
	assert.NoError(t, err)
	assert.Nil(t, Client())
}

func TestLookupTokenVerification_MissWhenDisabled(t *testing.T) {
	client = nil
	userID, ok := LookupTokenVerification(context.Background(), "some-token")
	assert.False(t, ok)
	assert.Empty(t, userID)
}

func TestLookupCompiledSearch_MissWhenDisabled(t *testing.T) {
	client = nil
	sql, ok := LookupCompiledSearch(context.Background(), "S123")
	assert.False(t, ok)
	assert.Empty(t, sql)
}

func TestCacheHelpers_NoopWithoutClient(t *testing.T) {
	client = nil
	assert.NotPanics(t, func() {
		CacheTokenVerification(context.Background(), "tok", "user-id", 0)
		InvalidateToken(context.Background(), "tok")
		CacheCompiledSearch(context.Background(), "S1", "select 1", 0)
		InvalidateCompiledSearch(context.Background(), "S1")
	})
}
