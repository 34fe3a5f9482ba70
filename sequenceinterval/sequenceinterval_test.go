package sequenceinterval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/sequence/mergetree"
	"github.com/grailbio/sequence/refposition"
	"github.com/grailbio/sequence/sequenceinterval"
)

func newInterval(t *testing.T, client sequenceinterval.Client, id string, start, end *sequenceinterval.Place) *sequenceinterval.Interval {
	t.Helper()
	iv, err := sequenceinterval.CreateInterval(client, "comments", id, start, end, sequenceinterval.IntervalSlideOnRemove, sequenceinterval.CreateIntervalOpts{
		Origin: sequenceinterval.OriginLocal,
	})
	require.NoError(t, err)
	return iv
}

func place(client sequenceinterval.Client, pos int, side refposition.Side) *sequenceinterval.Place {
	return &sequenceinterval.Place{Pos: sequenceinterval.Pos(pos), Side: side}
}

func TestBasicOverlap(t *testing.T) {
	client := mergetree.New("hello world")

	a := newInterval(t, client, "a", place(client, 0, refposition.Before), place(client, 4, refposition.After))
	b := newInterval(t, client, "b", place(client, 3, refposition.Before), place(client, 7, refposition.After))
	c := newInterval(t, client, "c", place(client, 6, refposition.Before), place(client, 10, refposition.After))

	assert.True(t, a.Overlaps(b))
	assert.True(t, b.Overlaps(c))
	assert.False(t, a.Overlaps(c))
}

func TestSlideOnRemove(t *testing.T) {
	seq := mergetree.New("hello world")
	iv := newInterval(t, seq, "a", place(seq, 2, refposition.Before), place(seq, 5, refposition.After))

	require.NoError(t, seq.RemoveRange(0, 3))
	// the interval's start PR was anchored inside the removed range and
	// should have slid forward to the next live segment.
	start := seq.LocalReferencePositionToPosition(startRef(iv))
	assert.GreaterOrEqual(t, start, 0)
}

func TestModifyPreservesID(t *testing.T) {
	client := mergetree.New("hello world")
	iv := newInterval(t, client, "stable-id", place(client, 0, refposition.Before), place(client, 4, refposition.After))

	newEnd := place(client, 8, refposition.After)
	modified, err := iv.Modify("comments", nil, newEnd, nil, nil, false)
	require.NoError(t, err)
	assert.Equal(t, "stable-id", modified.GetIntervalId())
	assert.Equal(t, iv.GetIntervalId(), modified.GetIntervalId())
}

func TestUnionWithIdenticalStart(t *testing.T) {
	client := mergetree.New("hello world")
	a := newInterval(t, client, "a", place(client, 0, refposition.Before), place(client, 4, refposition.After))
	b := newInterval(t, client, "b", place(client, 0, refposition.Before), place(client, 8, refposition.After))

	u := a.Union(b)
	assert.NotEqual(t, a.GetIntervalId(), u.GetIntervalId())
	assert.NotEqual(t, b.GetIntervalId(), u.GetIntervalId())
	assert.Equal(t, 0, client.CompareReferencePositions(startPR(u), startPR(a)))
}

func TestSerializeRoundTrip(t *testing.T) {
	client := mergetree.New("hello world")
	iv := newInterval(t, client, "round-trip", place(client, 1, refposition.Before), place(client, 5, refposition.After))

	wire := iv.Serialize()
	back, err := sequenceinterval.Deserialize(client, wire, sequenceinterval.OriginSnapshot)
	require.NoError(t, err)

	assert.Equal(t, iv.GetIntervalId(), back.GetIntervalId())
	assert.Equal(t, iv.Label(), back.Label())
	assert.Equal(t, client.LocalReferencePositionToPosition(startPR(iv)), client.LocalReferencePositionToPosition(startPR(back)))
}

func TestLegacyIDSynthesis(t *testing.T) {
	wire := sequenceinterval.SerializedIntervalDelta{
		Start:      ptrPos(sequenceinterval.Pos(2)),
		End:        ptrPos(sequenceinterval.Pos(9)),
		Properties: map[string]any{"color": "red"},
	}
	id, _, props := sequenceinterval.GetSerializedProperties(wire)
	assert.Equal(t, "legacy2-9", id)
	assert.Equal(t, "red", props["color"])
}

func TestCompareTotalOrder(t *testing.T) {
	client := mergetree.New("abcdefgh")
	a := newInterval(t, client, "a", place(client, 1, refposition.Before), place(client, 3, refposition.After))
	b := newInterval(t, client, "b", place(client, 2, refposition.Before), place(client, 4, refposition.After))

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
}

func TestAckTransitionsReferenceFlags(t *testing.T) {
	client := mergetree.New("abcdef")
	iv := newInterval(t, client, "a", place(client, 0, refposition.Before), place(client, 3, refposition.After))

	assert.True(t, startPR(iv).RefType.Has(refposition.StayOnRemove))
	mergetree.Ack(startPR(iv))
	assert.True(t, startPR(iv).RefType.Has(refposition.SlideOnRemove))
	assert.False(t, startPR(iv).RefType.Has(refposition.StayOnRemove))
}

func TestChangePropertiesAndRollback(t *testing.T) {
	client := mergetree.New("abcdef")
	iv := newInterval(t, client, "a", place(client, 0, refposition.Before), place(client, 3, refposition.After))

	iv.ChangeProperties(map[string]any{"color": "blue"}, nil, false)
	assert.Equal(t, "blue", iv.Properties()["color"])

	iv.ChangeProperties(map[string]any{"color": "blue"}, nil, true)
	_, ok := iv.Properties()["color"]
	assert.False(t, ok)
}

func startPR(iv *sequenceinterval.Interval) *refposition.PositionReference {
	return iv.StartReferencePosition()
}

func startRef(iv *sequenceinterval.Interval) *refposition.PositionReference {
	return iv.StartReferencePosition()
}

func ptrPos(p sequenceinterval.Position) *sequenceinterval.Position { return &p }
