package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/turahe/mediacore/internal/domain/overlay"
)

func strPtr(s string) *string { return &s }

func TestResolvedMetadata_UndefinedFallsThroughToFile(t *testing.T) {
	item := MediaItem{}
	file := MediaFile{Metadata: Metadata{Title: strPtr("File Title")}}

	resolved := item.ResolvedMetadata(file)
	assert.Equal(t, "File Title", *resolved.Title)
}

func TestResolvedMetadata_OverrideWinsOverFile(t *testing.T) {
	item := MediaItem{Overlay: MediaItemOverlay{Title: overlay.Of("Item Title")}}
	file := MediaFile{Metadata: Metadata{Title: strPtr("File Title")}}

	resolved := item.ResolvedMetadata(file)
	assert.Equal(t, "Item Title", *resolved.Title)
}

func TestResolvedDatetime_FallsBackToCreatedWithoutTaken(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	item := MediaItem{Created: created}
	file := MediaFile{}

	assert.Equal(t, created, item.ResolvedDatetime(file, nil))
}

func TestResolvedDatetime_UsesTakenInResolvedZone(t *testing.T) {
	taken := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	item := MediaItem{Overlay: MediaItemOverlay{Taken: overlay.Of(taken)}}
	file := MediaFile{}

	loc := time.FixedZone("UTC-5", -5*3600)
	got := item.ResolvedDatetime(file, loc)

	assert.Equal(t, taken.Add(5*time.Hour), got)
}

func TestAuthToken_ExpiredAfterExpiry(t *testing.T) {
	now := time.Now()
	token := AuthToken{Expiry: now.Add(-time.Second)}
	assert.True(t, token.Expired(now))

	token = AuthToken{Expiry: now.Add(time.Hour)}
	assert.False(t, token.Expired(now))
}

func TestMediaFile_IsCurrentRequiresProcessedAndStored(t *testing.T) {
	stored := time.Now()
	assert.True(t, MediaFile{ProcessVersion: 1, Stored: &stored}.IsCurrent())
	assert.False(t, MediaFile{ProcessVersion: 0, Stored: &stored}.IsCurrent())
	assert.False(t, MediaFile{ProcessVersion: 1, Stored: nil}.IsCurrent())
}

func TestAlternateFile_FulfilledWhenStored(t *testing.T) {
	stored := time.Now()
	assert.True(t, AlternateFile{Stored: &stored}.Fulfilled())
	assert.False(t, AlternateFile{}.Fulfilled())
}
