package sequenceinterval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInterval(t *testing.T, client Client) *Interval {
	t.Helper()
	iv, err := CreateInterval(client, "label", "id-1", nil, nil, IntervalSlideOnRemove, CreateIntervalOpts{Origin: OriginLocal})
	require.NoError(t, err)
	return iv
}

func TestChangePropertiesLastWriterWins(t *testing.T) {
	client := &fakeClient{length: 5}
	iv := newTestInterval(t, client)

	iv.ChangeProperties(map[string]any{"color": "red"}, nil, false)
	assert.Equal(t, "red", iv.Properties()["color"])

	iv.ChangeProperties(map[string]any{"color": "blue"}, &SequencedOp{SequenceNumber: 1}, false)
	assert.Equal(t, "blue", iv.Properties()["color"])
}

func TestChangePropertiesUnassignedWhileCollaborating(t *testing.T) {
	client := &fakeClient{length: 5, collaborating: true}
	iv := newTestInterval(t, client)

	iv.ChangeProperties(map[string]any{"color": "red"}, nil, false)
	iv.ChangeProperties(map[string]any{"color": "red"}, nil, true)
	_, ok := iv.Properties()["color"]
	assert.False(t, ok)
}

func TestAckPropertiesChangePrunesPending(t *testing.T) {
	client := &fakeClient{length: 5}
	iv := newTestInterval(t, client)

	iv.ChangeProperties(map[string]any{"color": "red"}, &SequencedOp{SequenceNumber: 7}, false)
	iv.AckPropertiesChange(map[string]any{"color": "red"}, SequencedOp{SequenceNumber: 7})

	// Nothing left to roll back for seq 7 now that it's acked.
	iv.ChangeProperties(map[string]any{"color": "red"}, nil, true)
	assert.Equal(t, "red", iv.Properties()["color"])
}

func TestReservedKeysStrippedFromProperties(t *testing.T) {
	client := &fakeClient{length: 5}
	iv := newTestInterval(t, client)

	iv.ChangeProperties(map[string]any{reservedKeyIntervalID: "sneaky", "color": "red"}, nil, false)
	_, hasReserved := iv.Properties()[reservedKeyIntervalID]
	assert.False(t, hasReserved)
	assert.Equal(t, "red", iv.Properties()["color"])
}
