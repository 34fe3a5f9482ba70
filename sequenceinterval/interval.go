package sequenceinterval

import (
	"github.com/grailbio/sequence/refposition"
)

// IntervalType classifies the lifecycle/semantics an Interval was created
// with. Nest and Simple are legacy; every non-transient interval in this
// core behaves as SlideOnRemove once acked regardless of which of the two
// it was tagged with.
type IntervalType int

const (
	IntervalTransient IntervalType = iota
	IntervalSlideOnRemove
	IntervalNest
	IntervalSimple
)

func (t IntervalType) String() string {
	switch t {
	case IntervalTransient:
		return "Transient"
	case IntervalSlideOnRemove:
		return "SlideOnRemove"
	case IntervalNest:
		return "Nest"
	case IntervalSimple:
		return "Simple"
	default:
		return "Unknown"
	}
}

const (
	reservedKeyIntervalID = "intervalId"
	reservedKeyLabels     = "referenceRangeLabels"
)

// Interval is the immutable-by-convention value described in spec §4.2: an
// (id, label, start, end, intervalType, sides, properties) tuple anchored
// to a pair of PositionReferences owned by a single merge-tree Client.
// Interval never mutates its PRs; Modify/Union/Clone all return new
// Intervals.
type Interval struct {
	client Client

	id           string
	label        string
	start, end   *refposition.PositionReference
	intervalType IntervalType
	startSide    refposition.Side
	endSide      refposition.Side
	properties   map[string]any
	propMgr      *propertyChangeManager
}

// NewInterval constructs an Interval from already-created endpoint PRs. It
// is the shared constructor CreateInterval and Deserialize both funnel
// through; most callers should use one of those instead of calling this
// directly.
func NewInterval(
	client Client,
	id, label string,
	start, end *refposition.PositionReference,
	intervalType IntervalType,
	props map[string]any,
	startSide, endSide refposition.Side,
) *Interval {
	return &Interval{
		client:       client,
		id:           id,
		label:        label,
		start:        start,
		end:          end,
		intervalType: intervalType,
		startSide:    startSide,
		endSide:      endSide,
		properties:   stripReserved(props),
		propMgr:      newPropertyChangeManager(),
	}
}

// GetIntervalId returns the interval's stable id.
func (iv *Interval) GetIntervalId() string { return iv.id }

// Label returns the interval's label.
func (iv *Interval) Label() string { return iv.label }

// IntervalType returns the interval's type tag.
func (iv *Interval) IntervalType() IntervalType { return iv.intervalType }

// Properties returns the interval's user-visible properties. The map does
// not contain the reserved intervalId/referenceRangeLabels keys; those are
// re-inserted only on serialization.
func (iv *Interval) Properties() map[string]any { return cloneProps(iv.properties) }

// StartReferencePosition returns the PositionReference anchoring iv's
// start. Callers must not mutate it directly; go through Modify instead.
func (iv *Interval) StartReferencePosition() *refposition.PositionReference { return iv.start }

// EndReferencePosition returns the PositionReference anchoring iv's end.
func (iv *Interval) EndReferencePosition() *refposition.PositionReference { return iv.end }

// Stickiness recomputes stickiness from the endpoints' *current* anchoring
// (segment-vs-sentinel) plus the interval's sides, never from a cached
// value; a sibling endpoint's segment may have slid since creation even
// when this endpoint wasn't touched (see DESIGN.md's open-question
// decisions).
func (iv *Interval) Stickiness() refposition.Stickiness {
	return refposition.ComputeStickinessFromSide(
		iv.start.SequenceEndpoint(), iv.startSide,
		iv.end.SequenceEndpoint(), iv.endSide,
	)
}

// Clone returns a fresh Interval with the same fields, preserving id and
// label. Not part of the externally promised surface; used internally by
// collections that need a snapshot copy.
func (iv *Interval) Clone() *Interval {
	out := *iv
	out.properties = cloneProps(iv.properties)
	// The property-change manager is owned 1:1 by an Interval (spec §5); a
	// clone meant to diverge from the original must not share its pending
	// rollback stack, unlike Modify's old Interval, which is discarded by
	// convention.
	out.propMgr = newPropertyChangeManager()
	return &out
}

func compareStartSide(a, b refposition.Side) int {
	if a == b {
		return 0
	}
	// Before > After for start sides: at a tied position, a start on the
	// Before side orders after a start on the After side.
	if a == refposition.Before {
		return 1
	}
	return -1
}

func compareEndSide(a, b refposition.Side) int {
	if a == b {
		return 0
	}
	// After > Before for end sides, the symmetric convention.
	if a == refposition.After {
		return 1
	}
	return -1
}

// compareStart orders by the two start PRs' reference comparison, with
// ties broken by side using the Before>After convention.
func (iv *Interval) compareStart(b *Interval) int {
	if c := iv.client.CompareReferencePositions(iv.start, b.start); c != 0 {
		return c
	}
	return compareStartSide(iv.startSide, b.startSide)
}

// compareEnd orders by the two end PRs' reference comparison, with ties
// broken by side using the After>Before convention: at a tied position, an
// end on the After side orders after an end on the Before side.
func (iv *Interval) compareEnd(b *Interval) int {
	if c := iv.client.CompareReferencePositions(iv.end, b.end); c != 0 {
		return c
	}
	return compareEndSide(iv.endSide, b.endSide)
}

// Compare imposes the strict weak total order spec'd for intervals:
// lexicographic on (compareStart, compareEnd, id).
func (iv *Interval) Compare(b *Interval) int {
	if c := iv.compareStart(b); c != 0 {
		return c
	}
	if c := iv.compareEnd(b); c != 0 {
		return c
	}
	if iv.id < b.id {
		return -1
	}
	if iv.id > b.id {
		return 1
	}
	return 0
}

// Overlaps reports whether iv and b's anchored ranges overlap, using the
// client's raw reference comparator (not the side-aware compareStart/
// compareEnd tiebreaks: overlap only cares about ordering, not which side
// of a tied position either interval starts/ends on).
func (iv *Interval) Overlaps(b *Interval) bool {
	return iv.client.CompareReferencePositions(iv.start, b.end) <= 0 &&
		iv.client.CompareReferencePositions(iv.end, b.start) >= 0
}

// OverlapsPos resolves iv's endpoints to numeric positions and reports
// whether iv overlaps the half-open range [bStart, bEnd). The inequalities
// are strict because endpoints are semantically exclusive.
func (iv *Interval) OverlapsPos(bStart, bEnd int) bool {
	startPos := iv.client.LocalReferencePositionToPosition(iv.start)
	endPos := iv.client.LocalReferencePositionToPosition(iv.end)
	return endPos > bStart && startPos < bEnd
}

// Union returns a new Interval spanning the minimum start and maximum end
// of iv and b. Its id is a fresh UUID; properties are cleared; label and
// intervalType are inherited from iv.
func (iv *Interval) Union(b *Interval) *Interval {
	newStart := MinReferencePosition(iv.client, iv.start, b.start)
	var newStartSide refposition.Side
	if iv.client.CompareReferencePositions(iv.start, b.start) == 0 {
		if iv.startSide == refposition.Before || b.startSide == refposition.Before {
			newStartSide = refposition.Before
		} else {
			newStartSide = refposition.After
		}
	} else if newStart == iv.start {
		newStartSide = iv.startSide
	} else {
		newStartSide = b.startSide
	}

	newEnd := MaxReferencePosition(iv.client, iv.end, b.end)
	var newEndSide refposition.Side
	if iv.client.CompareReferencePositions(iv.end, b.end) == 0 {
		if iv.endSide == refposition.After || b.endSide == refposition.After {
			newEndSide = refposition.After
		} else {
			newEndSide = refposition.Before
		}
	} else if newEnd == iv.end {
		newEndSide = iv.endSide
	} else {
		newEndSide = b.endSide
	}

	return NewInterval(iv.client, newUUID(), iv.label, newStart, newEnd, iv.intervalType, nil, newStartSide, newEndSide)
}

// currentPlace resolves pr's current anchor (segment position or sentinel)
// together with the given side into a Place, for use by Modify when a
// caller leaves an endpoint unspecified.
func (iv *Interval) currentPlace(pr *refposition.PositionReference, side refposition.Side) Place {
	if ep := pr.SequenceEndpoint(); ep != refposition.NotEndpoint {
		return Place{Pos: Position{Sentinel: ep}, Side: side}
	}
	return Place{Pos: Pos(iv.client.LocalReferencePositionToPosition(pr)), Side: side}
}

// Modify returns a new Interval sharing iv's id. Endpoints left nil are
// recomputed from their PR's current anchor (not a cached value) and reuse
// the original PR unchanged; endpoints supplied get a freshly created
// replacement PR. A nil op means a local-only modification, so the
// replacement PR is built with StayOnRemove instead of whatever flags the
// original carried.
func (iv *Interval) Modify(label string, start, end *Place, op *OpInfo, localSeq *int, useNewSlidingBehavior bool) (*Interval, error) {
	sp := start
	if sp == nil {
		p := iv.currentPlace(iv.start, iv.startSide)
		sp = &p
	}
	ep := end
	if ep == nil {
		p := iv.currentPlace(iv.end, iv.endSide)
		ep = &p
	}

	startPos, startSide, endPos, endSide := iv.client.EndpointPosAndSide(sp, ep)
	stickiness := refposition.ComputeStickinessFromSide(startPos.Sentinel, startSide, endPos.Sentinel, endSide)

	origin := OriginLocal
	if op != nil {
		origin = OriginOp
	}

	newStart := iv.start
	if start != nil {
		refType := iv.start.RefType
		if op == nil {
			refType = refType.Without(refposition.SlideOnRemove).With(refposition.StayOnRemove)
		}
		if err := assertSlideFlagsNormalized(refType, iv.intervalType); err != nil {
			return nil, err
		}
		pref := refposition.StartReferenceSlidingPreference(stickiness)
		canSlide := pref == refposition.Backward
		pr, err := CreateReference(iv.client, startPos, refType, origin, localSeq, op, pref, canSlide, useNewSlidingBehavior)
		if err != nil {
			return nil, err
		}
		pr.Properties = carryProperties(iv.start.Properties, label)
		newStart = pr
	}

	newEnd := iv.end
	if end != nil {
		refType := iv.end.RefType
		if op == nil {
			refType = refType.Without(refposition.SlideOnRemove).With(refposition.StayOnRemove)
		}
		if err := assertSlideFlagsNormalized(refType, iv.intervalType); err != nil {
			return nil, err
		}
		pref := refposition.EndReferenceSlidingPreference(stickiness)
		canSlide := pref == refposition.Forward
		pr, err := CreateReference(iv.client, endPos, refType, origin, localSeq, op, pref, canSlide, useNewSlidingBehavior)
		if err != nil {
			return nil, err
		}
		pr.Properties = carryProperties(iv.end.Properties, label)
		newEnd = pr
	}

	return &Interval{
		client:       iv.client,
		id:           iv.id,
		label:        label,
		start:        newStart,
		end:          newEnd,
		intervalType: iv.intervalType,
		startSide:    startSide,
		endSide:      endSide,
		properties:   cloneProps(iv.properties),
		propMgr:      iv.propMgr,
	}, nil
}

// AddPositionChangeListeners wires before/after into both endpoint PRs'
// slide-callback slots. Idempotent: an existing subscription on either PR
// blocks the new one.
func (iv *Interval) AddPositionChangeListeners(before, after refposition.SlideCallback) {
	iv.start.AddSlideListeners(before, after)
	iv.end.AddSlideListeners(before, after)
}

// RemovePositionChangeListeners nulls both endpoint PRs' callback slots.
func (iv *Interval) RemovePositionChangeListeners() {
	iv.start.RemoveSlideListeners()
	iv.end.RemoveSlideListeners()
}

func stripReserved(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if k == reservedKeyIntervalID || k == reservedKeyLabels {
			continue
		}
		out[k] = v
	}
	return out
}

func cloneProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

func carryProperties(old map[string]any, label string) map[string]any {
	out := cloneProps(old)
	out[reservedKeyLabels] = []string{label}
	return out
}
