package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turahe/mediacore/internal/domain/entities"
	respath "github.com/turahe/mediacore/internal/domain/path"
)

func TestSplitEndpoint(t *testing.T) {
	cases := []struct {
		url        string
		wantHost   string
		wantSecure bool
	}{
		{"https://s3.example.com", "s3.example.com", true},
		{"http://minio.local:9000", "minio.local:9000", false},
		{"s3.amazonaws.com", "s3.amazonaws.com", true},
	}
	for _, tc := range cases {
		host, secure := splitEndpoint(tc.url)
		assert.Equal(t, tc.wantHost, host)
		assert.Equal(t, tc.wantSecure, secure)
	}
}

func TestRemote_KeyAppliesPathPrefix(t *testing.T) {
	endpoint := "http://minio.local:9000"
	r, err := NewRemote(entities.Storage{
		Bucket:     "photos",
		KeyID:      "key",
		Secret:     "secret",
		Region:     "us-east-1",
		EndpointURL: &endpoint,
		PathPrefix: strPtr("prefix/"),
	}, true)
	require.NoError(t, err)

	path := respath.FilePath{Catalog: "cat1", Item: "item1", File: "file1", FileName: "a.jpg"}
	assert.Equal(t, "prefix/cat1/item1/file1/a.jpg", r.key(path))
	assert.Equal(t, "cat1/item1/file1/a.jpg", r.stripPrefix("prefix/cat1/item1/file1/a.jpg"))
}

func TestRemote_OnlineURIUsesPublicURLWhenConfigured(t *testing.T) {
	endpoint := "http://minio.local:9000"
	r, err := NewRemote(entities.Storage{
		Bucket:      "photos",
		KeyID:       "key",
		Secret:      "secret",
		Region:      "us-east-1",
		EndpointURL: &endpoint,
		PublicURL:   strPtr("https://cdn.example.com/"),
	}, true)
	require.NoError(t, err)

	path := respath.FilePath{Catalog: "cat1", Item: "item1", File: "file1", FileName: "a.jpg"}
	uri, err := r.OnlineURI(nil, path, "image/jpeg", "")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/cat1/item1/file1/a.jpg", uri)
}

func TestRemote_TestingModeSkipsDelete(t *testing.T) {
	endpoint := "http://minio.local:9000"
	r, err := NewRemote(entities.Storage{
		Bucket: "photos", KeyID: "key", Secret: "secret", Region: "us-east-1", EndpointURL: &endpoint,
	}, true)
	require.NoError(t, err)

	path := respath.FilePath{Catalog: "cat1", Item: "item1", File: "file1", FileName: "a.jpg"}
	assert.NoError(t, r.Delete(context.Background(), path))
}

func TestRemote_PruneIsNoOp(t *testing.T) {
	endpoint := "http://minio.local:9000"
	r, err := NewRemote(entities.Storage{
		Bucket: "photos", KeyID: "key", Secret: "secret", Region: "us-east-1", EndpointURL: &endpoint,
	}, false)
	require.NoError(t, err)

	path := respath.FilePath{Catalog: "cat1", Item: "item1", File: "file1", FileName: "a.jpg"}
	assert.NoError(t, r.Prune(context.Background(), path))
}

func strPtr(s string) *string { return &s }
