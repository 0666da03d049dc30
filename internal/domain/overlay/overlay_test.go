package overlay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolve_ValueWinsOverFile(t *testing.T) {
	item := Of("My Title")
	assert.Equal(t, "My Title", Resolve(item, "File Title"))
}

func TestResolve_NullForcesZero(t *testing.T) {
	item := Nulled[string]()
	assert.Equal(t, "", Resolve(item, "File Title"))
}

func TestResolve_UndefinedFallsThroughToFile(t *testing.T) {
	item := Unset[string]()
	assert.Equal(t, "File Title", Resolve(item, "File Title"))
}

func TestCollapse_EqualValuesCollapseToUndefined(t *testing.T) {
	f := Collapse(5, 5)
	assert.True(t, f.IsUndefined())
}

func TestCollapse_DifferingValuesBecomeOverride(t *testing.T) {
	f := Collapse(5, 3)
	assert.True(t, f.IsValue())
	v, ok := f.Raw()
	assert.True(t, ok)
	assert.Equal(t, 5, v)
}

func TestCollapseWithEquality_SubSecondTakenCollapses(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	desired := base.Add(400 * time.Millisecond)
	fileValue := base.Add(410 * time.Millisecond)

	withinSecond := func(a, b time.Time) bool {
		return a.Truncate(time.Second).Equal(b.Truncate(time.Second))
	}

	f := CollapseWithEquality(desired, fileValue, withinSecond)
	assert.True(t, f.IsUndefined())
}

func TestCollapseWithEquality_DifferentSecondsOverride(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	desired := base
	fileValue := base.Add(2 * time.Second)

	withinSecond := func(a, b time.Time) bool {
		return a.Truncate(time.Second).Equal(b.Truncate(time.Second))
	}

	f := CollapseWithEquality(desired, fileValue, withinSecond)
	assert.True(t, f.IsValue())
}
