package sequenceinterval

import (
	"strconv"

	"github.com/grailbio/sequence/refposition"
)

// SerializedIntervalDelta is the wire form from spec §6. Start/End/
// StartSide/EndSide are nil when the delta omits endpoints (IncludeEndpoints
// was false at serialization time); a full SerializedInterval is simply a
// delta with all four populated.
type SerializedIntervalDelta struct {
	Start          *Position
	End            *Position
	StartSide      *refposition.Side
	EndSide        *refposition.Side
	IntervalType   IntervalType
	Stickiness     refposition.Stickiness
	SequenceNumber int
	Properties     map[string]any
}

// SerializeDeltaOpts controls SerializeDelta's output: Props are the
// user-visible properties to ship (the reserved keys are always added on
// top, regardless of what Props contains), and IncludeEndpoints selects
// whether the four endpoint fields are populated at all.
type SerializeDeltaOpts struct {
	Props            map[string]any
	IncludeEndpoints bool
}

func (iv *Interval) resolveForWire(pr *refposition.PositionReference) Position {
	if ep := pr.SequenceEndpoint(); ep != refposition.NotEndpoint {
		return Position{Sentinel: ep}
	}
	return Pos(iv.client.LocalReferencePositionToPosition(pr))
}

// SerializeDelta produces the wire form for a property-only or full change,
// per spec §4.2.
func (iv *Interval) SerializeDelta(opts SerializeDeltaOpts) SerializedIntervalDelta {
	out := SerializedIntervalDelta{
		IntervalType:   iv.intervalType,
		SequenceNumber: iv.client.GetCurrentSeq(),
		Stickiness:     iv.Stickiness(),
		Properties:     wireProperties(opts.Props, iv.id, iv.label),
	}
	if opts.IncludeEndpoints {
		startPos := iv.resolveForWire(iv.start)
		endPos := iv.resolveForWire(iv.end)
		startSide := iv.startSide
		endSide := iv.endSide
		out.Start = &startPos
		out.End = &endPos
		out.StartSide = &startSide
		out.EndSide = &endSide
	}
	return out
}

// Serialize produces a full SerializedInterval: a delta with both
// endpoints and the interval's own properties included.
func (iv *Interval) Serialize() SerializedIntervalDelta {
	return iv.SerializeDelta(SerializeDeltaOpts{Props: iv.properties, IncludeEndpoints: true})
}

func wireProperties(props map[string]any, id, label string) map[string]any {
	out := cloneProps(props)
	out[reservedKeyIntervalID] = id
	out[reservedKeyLabels] = []string{label}
	return out
}

// GetSerializedProperties splits a wire properties payload into the
// reserved id/labels and the remaining user-visible properties. If
// intervalId is absent, id is synthesized as "legacy" + start + "-" + end,
// deterministically but without attempting to disambiguate collisions
// across intervals that share the same (start, end). See spec §4.3 and
// §9: the legacy-id namespace is known to collide and this core does not
// invent a disambiguation scheme.
func GetSerializedProperties(wire SerializedIntervalDelta) (id string, labels []string, userProps map[string]any) {
	userProps = map[string]any{}
	for k, v := range wire.Properties {
		switch k {
		case reservedKeyIntervalID:
			if s, ok := v.(string); ok {
				id = s
			}
		case reservedKeyLabels:
			labels = toStringSlice(v)
		default:
			userProps[k] = v
		}
	}
	if id == "" {
		id = "legacy" + legacyIDPart(wire.Start) + "-" + legacyIDPart(wire.End)
	}
	return id, labels, userProps
}

func legacyIDPart(p *Position) string {
	if p == nil {
		return ""
	}
	if p.IsSentinel() {
		return p.Sentinel.String()
	}
	return strconv.Itoa(p.Value)
}

func toStringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Deserialize reconstructs an Interval from a wire delta, synthesizing a
// legacy id when intervalId is absent. Origin is typically OriginOp for
// inbound remote ops or OriginSnapshot when loading a snapshot.
func Deserialize(client Client, wire SerializedIntervalDelta, origin Origin) (*Interval, error) {
	id, labels, userProps := GetSerializedProperties(wire)
	label := ""
	if len(labels) > 0 {
		label = labels[0]
	}

	var startPlace, endPlace *Place
	if wire.Start != nil && wire.StartSide != nil {
		startPlace = &Place{Pos: *wire.Start, Side: *wire.StartSide}
	}
	if wire.End != nil && wire.EndSide != nil {
		endPlace = &Place{Pos: *wire.End, Side: *wire.EndSide}
	}

	return CreateInterval(client, label, id, startPlace, endPlace, wire.IntervalType, CreateIntervalOpts{
		Origin:     origin,
		Properties: userProps,
	})
}
