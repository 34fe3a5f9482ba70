// Package refposition defines the small value types and the Position
// Reference handle that the sequence-interval core anchors its endpoints
// to. The handle itself is owned and mutated by a merge-tree client (see
// package mergetree for a minimal one); this package only fixes the shape
// every merge-tree implementation must expose.
package refposition

// Side tags which side of a character position an endpoint logically sits
// at.
type Side int

const (
	Before Side = iota
	After
)

func (s Side) String() string {
	if s == After {
		return "After"
	}
	return "Before"
}

// SlidingPreference is the direction a reference slides when its anchoring
// segment is removed.
type SlidingPreference int

const (
	Forward SlidingPreference = iota
	Backward
)

func (p SlidingPreference) String() string {
	if p == Backward {
		return "Backward"
	}
	return "Forward"
}

// ReferenceType is a bitset over the flags a Position Reference can carry.
// SlideOnRemove and StayOnRemove are mutually exclusive at any moment; that
// invariant is enforced by the construction sites in package
// sequenceinterval, not by this type.
type ReferenceType uint32

const (
	RangeBegin ReferenceType = 1 << iota
	RangeEnd
	SlideOnRemove
	StayOnRemove
	Transient
)

// Has reports whether every bit in flags is set.
func (r ReferenceType) Has(flags ReferenceType) bool { return r&flags == flags }

// Any reports whether at least one bit in flags is set.
func (r ReferenceType) Any(flags ReferenceType) bool { return r&flags != 0 }

// With returns r with flags set.
func (r ReferenceType) With(flags ReferenceType) ReferenceType { return r | flags }

// Without returns r with flags cleared.
func (r ReferenceType) Without(flags ReferenceType) ReferenceType { return r &^ flags }

// Stickiness indicates whether an interval's start, end, both, or neither
// "sticks" to content inserted exactly at the boundary.
type Stickiness int

const (
	StickinessNone  Stickiness = 0
	StickinessStart Stickiness = 1 << iota
	StickinessEnd
	StickinessFull = StickinessStart | StickinessEnd
)

func (s Stickiness) String() string {
	switch s {
	case StickinessStart:
		return "Start"
	case StickinessEnd:
		return "End"
	case StickinessFull:
		return "Full"
	default:
		return "None"
	}
}

// Endpoint is the tagged sum Position = number | "start" | "end" restricted
// to its sentinel half; NotEndpoint means the reference anchors to an
// ordinary segment instead.
type Endpoint int

const (
	NotEndpoint Endpoint = iota
	StartOfSequence
	EndOfSequence
)

func (e Endpoint) String() string {
	switch e {
	case StartOfSequence:
		return "start"
	case EndOfSequence:
		return "end"
	default:
		return ""
	}
}

// Segment is the opaque identity of a merge-tree segment. The core never
// looks inside a Segment; it only compares identities and hands them back
// to the owning Client for position resolution.
type Segment interface {
	// SegmentID distinguishes one segment from another for equality checks.
	// Real merge-tree segments carry far more state; the core doesn't need it.
	SegmentID() uint64
}

// SlideCallback is invoked immediately before or after a reference slides to
// a new segment because its previous anchor was removed.
type SlideCallback func(ref *PositionReference)

// PositionReference is a handle anchored to a segment+offset (or to a
// sentinel endpoint of the sequence), carrying the flags and preferences
// that govern how it behaves under concurrent edits. It does not know its
// own numeric position; resolving that requires the owning merge-tree
// client. PositionReference is mutated only by its owning client
// (attach/detach/slide); package sequenceinterval treats it as read-mostly
// after creation, except for the slide-callback slots it installs and
// clears via AddSlideListeners/RemoveSlideListeners.
type PositionReference struct {
	RefType            ReferenceType
	SlidingPreference  SlidingPreference
	CanSlideToEndpoint bool
	Properties         map[string]any

	beforeSlide SlideCallback
	afterSlide  SlideCallback

	segment  Segment
	offset   int
	endpoint Endpoint
}

// New returns a detached PositionReference carrying only flags and
// preference; it has no segment and is not anchored to a sentinel. Clients
// attach it via AttachToSegment or AttachToEndpoint once (or if) a segment
// becomes available.
func New(refType ReferenceType, pref SlidingPreference, canSlideToEndpoint bool) *PositionReference {
	return &PositionReference{
		RefType:            refType,
		SlidingPreference:  pref,
		CanSlideToEndpoint: canSlideToEndpoint,
	}
}

// AttachToSegment anchors the reference to a concrete segment+offset,
// clearing any sentinel anchoring.
func (p *PositionReference) AttachToSegment(seg Segment, offset int) {
	p.segment = seg
	p.offset = offset
	p.endpoint = NotEndpoint
}

// AttachToEndpoint anchors the reference to a sentinel endpoint of the
// sequence, clearing any segment anchoring.
func (p *PositionReference) AttachToEndpoint(e Endpoint) {
	p.segment = nil
	p.offset = 0
	p.endpoint = e
}

// Detach clears both segment and sentinel anchoring, leaving the reference
// waiting for a segment to re-materialize.
func (p *PositionReference) Detach() {
	p.segment = nil
	p.offset = 0
	p.endpoint = NotEndpoint
}

// GetSegment returns the anchoring segment, or (nil, false) if the
// reference is detached or anchored to a sentinel endpoint.
func (p *PositionReference) GetSegment() (Segment, bool) {
	if p.segment == nil {
		return nil, false
	}
	return p.segment, true
}

// Offset returns the offset within the anchoring segment. Meaningless if
// GetSegment reports false.
func (p *PositionReference) Offset() int { return p.offset }

// SequenceEndpoint returns the sentinel endpoint this reference is anchored
// to, or NotEndpoint if it is anchored to a segment or detached.
func (p *PositionReference) SequenceEndpoint() Endpoint { return p.endpoint }

// IsDetached reports whether the reference has no segment and no sentinel
// anchor. It is waiting for a segment to re-materialize (relevant during
// rebase).
func (p *PositionReference) IsDetached() bool {
	return p.segment == nil && p.endpoint == NotEndpoint
}

// AddSlideListeners wires before/after into the reference's slide-callback
// slots. Idempotent on re-subscription: an existing subscription blocks the
// new one, matching spec's "exactly one listener pair per Interval".
func (p *PositionReference) AddSlideListeners(before, after SlideCallback) {
	if p.beforeSlide != nil || p.afterSlide != nil {
		return
	}
	p.beforeSlide = before
	p.afterSlide = after
}

// RemoveSlideListeners nulls both callback slots.
func (p *PositionReference) RemoveSlideListeners() {
	p.beforeSlide = nil
	p.afterSlide = nil
}

// NotifyBeforeSlide invokes the before-slide callback if one is installed.
// Called by the owning merge-tree client, never by package sequenceinterval.
func (p *PositionReference) NotifyBeforeSlide() {
	if p.beforeSlide != nil {
		p.beforeSlide(p)
	}
}

// NotifyAfterSlide invokes the after-slide callback if one is installed.
func (p *PositionReference) NotifyAfterSlide() {
	if p.afterSlide != nil {
		p.afterSlide(p)
	}
}
