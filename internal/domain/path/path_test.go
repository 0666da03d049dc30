package path

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turahe/mediacore/internal/coreerrors"
)

func TestParse_DispatchesOnSegmentCount(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		want   ResourcePath
	}{
		{"catalog", "C1", CatalogPath{Catalog: "C1"}},
		{"media item", "C1/M1", MediaItemPath{Catalog: "C1", Item: "M1"}},
		{"media file", "C1/M1/I1", MediaFilePath{Catalog: "C1", Item: "M1", File: "I1"}},
		{"file", "C1/M1/I1/original.jpg", FilePath{Catalog: "C1", Item: "M1", File: "I1", FileName: "original.jpg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.remote)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_RejectsWrongSegmentCounts(t *testing.T) {
	for _, remote := range []string{"", "a/b/c/d/e"} {
		_, err := Parse(remote)
		require.Error(t, err)
		assert.True(t, coreerrors.Is(err, coreerrors.CodeUnexpectedPath))
	}
}

func TestRoundTrip_FromRemoteMatchesRemotePath(t *testing.T) {
	for _, remote := range []string{"C1", "C1/M1", "C1/M1/I1", "C1/M1/I1/original.jpg"} {
		p, err := Parse(remote)
		require.NoError(t, err)
		assert.Equal(t, remote, p.RemotePath())
		assert.Equal(t, remote, p.String())
	}
}

func TestCatalogPath_MediaItemBuildsChildPath(t *testing.T) {
	catalog := CatalogPath{Catalog: "C1"}
	item := catalog.MediaItem("M1")
	assert.Equal(t, MediaItemPath{Catalog: "C1", Item: "M1"}, item)

	file := item.MediaFile("I1")
	assert.Equal(t, MediaFilePath{Catalog: "C1", Item: "M1", File: "I1"}, file)

	leaf := file.File("original.jpg")
	assert.Equal(t, "C1/M1/I1/original.jpg", leaf.RemotePath())
}
