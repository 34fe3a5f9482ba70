// Package sequenceinterval implements the collaborative sequence interval
// core: the Endpoint Factory, the Interval value type, and its
// serializer/deserializer. It consumes a merge-tree Client through the
// interface defined in this file; package mergetree provides a minimal,
// single-threaded implementation suitable for tests and small embedders.
// The real segment-storage/insertion/removal/slide mechanics are
// deliberately out of scope here; this package only dictates how
// references are configured and reconciled, never how segments move.
package sequenceinterval

import (
	"strconv"

	"github.com/grailbio/sequence/refposition"
)

// Position is the tagged sum spec.md calls Position: either a non-negative
// numeric index, or one of the sentinels immediately before/after the
// entire sequence.
type Position struct {
	Value    int
	Sentinel refposition.Endpoint
}

// Pos returns a numeric Position.
func Pos(v int) Position { return Position{Value: v, Sentinel: refposition.NotEndpoint} }

// StartOfSequence is the "start" sentinel position.
var StartOfSequence = Position{Sentinel: refposition.StartOfSequence}

// EndOfSequence is the "end" sentinel position.
var EndOfSequence = Position{Sentinel: refposition.EndOfSequence}

// IsSentinel reports whether p is one of the sequence-boundary sentinels
// rather than a numeric offset.
func (p Position) IsSentinel() bool { return p.Sentinel != refposition.NotEndpoint }

func (p Position) String() string {
	if p.IsSentinel() {
		return p.Sentinel.String()
	}
	return strconv.Itoa(p.Value)
}

// Place is a (position, side) pair, the normalized form of the
// startPlace/endPlace arguments to CreateInterval.
type Place struct {
	Pos  Position
	Side refposition.Side
}

// Origin is the context an endpoint-creation request originates from.
type Origin int

const (
	OriginLocal Origin = iota
	OriginOp
	OriginSnapshot
	OriginRollback
	OriginTransient
)

func (o Origin) String() string {
	switch o {
	case OriginOp:
		return "op"
	case OriginSnapshot:
		return "snapshot"
	case OriginRollback:
		return "rollback"
	case OriginTransient:
		return "transient"
	default:
		return "local"
	}
}

// OpInfo identifies the remote operation a reference-creation request is
// being processed in the context of.
type OpInfo struct {
	ReferenceSequenceNumber int
	ClientID                int
}

// ResolveContext selects which coordinate system getContainingSegment
// should resolve pos in: either the view as of a remote Op, or the view as
// of a pending local edit (LocalSeq == nil means "immediate local", i.e.
// the current session-space view).
type ResolveContext struct {
	Op       *OpInfo
	LocalSeq *int
}

// SegOff is a resolved (segment, offset) pair.
type SegOff struct {
	Segment refposition.Segment
	Offset  int
}

// CollabWindow reports whether the client is currently collaborating with
// remote peers.
type CollabWindow struct {
	Collaborating bool
}

// Client is the merge-tree collaborator surface required by package
// sequenceinterval (spec §6). It is a consumer-defined interface: package
// mergetree's Sequence type implements it structurally.
type Client interface {
	// CreateLocalReferencePosition creates a PositionReference anchored at
	// seg+offset (segment == nil, sentinel != NotEndpoint for a sentinel
	// anchor), configured with refType/initialProps/pref/canSlideToEndpoint.
	CreateLocalReferencePosition(
		segment refposition.Segment,
		sentinel refposition.Endpoint,
		offset int,
		refType refposition.ReferenceType,
		initialProps map[string]any,
		pref refposition.SlidingPreference,
		canSlideToEndpoint bool,
	) *refposition.PositionReference

	// CreateDetachedLocalReferencePosition creates a PositionReference with
	// no segment and no sentinel anchor, to be attached later if a segment
	// materializes.
	CreateDetachedLocalReferencePosition(
		pref refposition.SlidingPreference,
		refType refposition.ReferenceType,
	) *refposition.PositionReference

	// GetContainingSegment resolves pos to a (segment, offset) pair in the
	// coordinate system selected by ctx. ok is false if pos cannot be
	// resolved (e.g. it refers to content the client has not yet received).
	GetContainingSegment(pos int, ctx ResolveContext) (seg SegOff, ok bool)

	// LocalReferencePositionToPosition resolves a PositionReference to its
	// current numeric position in session-space.
	LocalReferencePositionToPosition(ref *refposition.PositionReference) int

	GetCurrentSeq() int
	GetCollabWindow() CollabWindow

	// SlideToSegoff adjusts a just-resolved (segment, offset) so that it
	// reflects the position the reference would be at after any removes the
	// sender's op already accounted for. ok mirrors found; if found is false,
	// SlideToSegoff returns a zero SegOff and false.
	SlideToSegoff(seg SegOff, found bool, pref refposition.SlidingPreference, useNewSlidingBehavior bool) (SegOff, bool)

	// CompareReferencePositions returns -1, 0, or 1 comparing a and b's
	// current anchors in session-space order.
	CompareReferencePositions(a, b *refposition.PositionReference) int

	// EndpointPosAndSide normalizes a (start, end) Place pair, resolving
	// nil Places to sequence-boundary defaults.
	EndpointPosAndSide(start, end *Place) (startPos Position, startSide refposition.Side, endPos Position, endSide refposition.Side)
}

// MinReferencePosition returns whichever of a, b compares earlier.
func MinReferencePosition(client Client, a, b *refposition.PositionReference) *refposition.PositionReference {
	if client.CompareReferencePositions(a, b) <= 0 {
		return a
	}
	return b
}

// MaxReferencePosition returns whichever of a, b compares later.
func MaxReferencePosition(client Client, a, b *refposition.PositionReference) *refposition.PositionReference {
	if client.CompareReferencePositions(a, b) >= 0 {
		return a
	}
	return b
}

