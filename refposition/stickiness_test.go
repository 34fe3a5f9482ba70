package refposition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStickinessFromSide(t *testing.T) {
	tests := []struct {
		name                         string
		startEndpoint, endEndpoint   Endpoint
		startSide, endSide           Side
		want                         Stickiness
	}{
		{"before/before, no sentinel", NotEndpoint, NotEndpoint, Before, Before, StickinessEnd},
		{"after/before, no sentinel", NotEndpoint, NotEndpoint, After, Before, StickinessFull},
		{"before/after, no sentinel", NotEndpoint, NotEndpoint, Before, After, StickinessNone},
		{"after/after, no sentinel", NotEndpoint, NotEndpoint, After, After, StickinessStart},
		{"start sentinel always sticky", StartOfSequence, NotEndpoint, Before, Before, StickinessFull},
		{"end sentinel always sticky", NotEndpoint, EndOfSequence, Before, Before, StickinessEnd},
		{"both sentinels", StartOfSequence, EndOfSequence, Before, Before, StickinessFull},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeStickinessFromSide(tc.startEndpoint, tc.startSide, tc.endEndpoint, tc.endSide)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReferenceSlidingPreferences(t *testing.T) {
	assert.Equal(t, Backward, StartReferenceSlidingPreference(StickinessStart))
	assert.Equal(t, Forward, StartReferenceSlidingPreference(StickinessNone))
	assert.Equal(t, Forward, StartReferenceSlidingPreference(StickinessEnd))

	assert.Equal(t, Forward, EndReferenceSlidingPreference(StickinessEnd))
	assert.Equal(t, Backward, EndReferenceSlidingPreference(StickinessNone))
	assert.Equal(t, Backward, EndReferenceSlidingPreference(StickinessStart))
}

func TestReferenceTypeBitset(t *testing.T) {
	rt := RangeBegin.With(SlideOnRemove)
	assert.True(t, rt.Has(RangeBegin))
	assert.True(t, rt.Has(SlideOnRemove))
	assert.False(t, rt.Has(StayOnRemove))

	rt = rt.Without(SlideOnRemove).With(StayOnRemove)
	assert.False(t, rt.Has(SlideOnRemove))
	assert.True(t, rt.Has(StayOnRemove))
}

func TestPositionReferenceSlideListenersIdempotent(t *testing.T) {
	pr := New(RangeBegin, Forward, false)
	var calls int
	pr.AddSlideListeners(
		func(*PositionReference) { calls++ },
		func(*PositionReference) { calls++ },
	)
	// Second subscription attempt is a no-op; the first still fires.
	pr.AddSlideListeners(
		func(*PositionReference) { calls += 100 },
		func(*PositionReference) { calls += 100 },
	)
	pr.NotifyBeforeSlide()
	pr.NotifyAfterSlide()
	assert.Equal(t, 2, calls)

	pr.RemoveSlideListeners()
	pr.NotifyBeforeSlide()
	pr.NotifyAfterSlide()
	assert.Equal(t, 2, calls)
}
