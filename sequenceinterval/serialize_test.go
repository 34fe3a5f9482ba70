package sequenceinterval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/sequence/refposition"
)

func TestSerializeIncludesReservedKeys(t *testing.T) {
	client := &fakeClient{length: 10}
	iv := mustInterval(t, client, "id-1", 2, 6)
	iv.ChangeProperties(map[string]any{"color": "red"}, nil, false)

	wire := iv.Serialize()
	assert.Equal(t, "id-1", wire.Properties[reservedKeyIntervalID])
	assert.Equal(t, []string{"label"}, wire.Properties[reservedKeyLabels])
	assert.Equal(t, "red", wire.Properties["color"])
	require.NotNil(t, wire.Start)
	require.NotNil(t, wire.End)
}

func TestSerializeDeltaOmitsEndpointsWhenNotRequested(t *testing.T) {
	client := &fakeClient{length: 10}
	iv := mustInterval(t, client, "id-1", 2, 6)

	delta := iv.SerializeDelta(SerializeDeltaOpts{Props: map[string]any{"color": "red"}})
	assert.Nil(t, delta.Start)
	assert.Nil(t, delta.End)
	assert.Equal(t, "red", delta.Properties["color"])
}

func TestDeserializeUsesExplicitIntervalID(t *testing.T) {
	client := &fakeClient{length: 10}
	startSide, endSide := refposition.Before, refposition.After
	wire := SerializedIntervalDelta{
		Start:     ptrPosition(Pos(1)),
		End:       ptrPosition(Pos(5)),
		StartSide: &startSide,
		EndSide:   &endSide,
		Properties: map[string]any{
			reservedKeyIntervalID: "explicit-id",
			reservedKeyLabels:     []string{"comments"},
		},
	}
	iv, err := Deserialize(client, wire, OriginSnapshot)
	require.NoError(t, err)
	assert.Equal(t, "explicit-id", iv.GetIntervalId())
	assert.Equal(t, "comments", iv.Label())
}

func TestGetSerializedPropertiesSynthesizesLegacyIDForSentinel(t *testing.T) {
	wire := SerializedIntervalDelta{
		Start: ptrPosition(StartOfSequence),
		End:   ptrPosition(Pos(4)),
	}
	id, _, _ := GetSerializedProperties(wire)
	assert.Equal(t, "legacystart-4", id)
}

func ptrPosition(p Position) *Position { return &p }
