// Package mergetree provides a minimal, single-threaded sequence that
// implements package sequenceinterval's Client surface. It stands in for
// the real merge tree, which spec.md puts explicitly out of scope ("segment
// storage, insertion, removal, position↔segment mapping, local-reference
// sliding mechanics"): this is deliberately the simplest thing that can
// exercise that interface end-to-end, not a competitive rope
// implementation. Every segment holds exactly one character, grounded on
// the linked-list-of-nodes-plus-registry shape of a Replicated Growable
// Array (the corpus's closest analog to a collaborative sequence CRDT):
// segments form a doubly linked list with tombstones for removed content,
// and each segment keeps its own order key so that position comparisons
// stay well defined even across concurrent slides.
package mergetree

import (
	"math"

	"github.com/google/uuid"
	"github.com/grailbio/base/log"
	"github.com/pkg/errors"

	"github.com/grailbio/sequence/refposition"
	"github.com/grailbio/sequence/sequenceinterval"
)

// segment is one character of the sequence. It implements
// refposition.Segment so PositionReferences can anchor to it.
type segment struct {
	id      uuid.UUID
	ch      rune
	order   float64
	removed bool
	prev    *segment
	next    *segment
	refs    []*refposition.PositionReference
}

func (s *segment) SegmentID() uint64 {
	// A uuid doesn't fit uint64; fold it down. Collisions here only affect
	// debug logging, never correctness (identity is by pointer).
	var h uint64
	for _, b := range s.id {
		h = h<<8 | uint64(b)
	}
	return h
}

// Sequence is the fake merge-tree client. It is not safe for concurrent
// use; spec §5 assumes a single-threaded cooperative scheduling model
// throughout.
type Sequence struct {
	head, tail *segment // sentinels, never removed, never hold a rune
	length     int      // number of live (non-removed) segments

	currentSeq    int
	collaborating bool

	detached []*refposition.PositionReference
}

// New returns a Sequence initialized to text.
func New(text string) *Sequence {
	s := &Sequence{
		head: &segment{order: math.Inf(-1)},
		tail: &segment{order: math.Inf(1)},
	}
	s.head.next = s.tail
	s.tail.prev = s.head
	_ = s.InsertText(0, text)
	return s
}

// String returns the currently visible (non-removed) text.
func (s *Sequence) String() string {
	var out []rune
	for n := s.head.next; n != s.tail; n = n.next {
		if !n.removed {
			out = append(out, n.ch)
		}
	}
	return string(out)
}

// Len returns the number of currently visible characters.
func (s *Sequence) Len() int { return s.length }

// SetCollaborating toggles whether GetCollabWindow reports collaborating.
func (s *Sequence) SetCollaborating(v bool) { s.collaborating = v }

// AdvanceSeq bumps the sequence number GetCurrentSeq reports, simulating an
// op having been sequenced by a server.
func (s *Sequence) AdvanceSeq() int {
	s.currentSeq++
	return s.currentSeq
}

// liveAt returns the live segment holding the pos'th visible character
// (0-indexed), or nil if pos is out of range.
func (s *Sequence) liveAt(pos int) *segment {
	i := 0
	for n := s.head.next; n != s.tail; n = n.next {
		if n.removed {
			continue
		}
		if i == pos {
			return n
		}
		i++
	}
	return nil
}

// liveIndexOf returns the visible-position index of seg, or -1 if seg is
// removed or is a sentinel.
func (s *Sequence) liveIndexOf(target *segment) int {
	i := 0
	for n := s.head.next; n != s.tail; n = n.next {
		if n.removed {
			continue
		}
		if n == target {
			return i
		}
		i++
	}
	return -1
}

// InsertText splices text into the sequence starting at the pos'th visible
// character (pos == Len() appends at the end). Existing references are
// unaffected: inserting never removes a segment, so nothing slides.
func (s *Sequence) InsertText(pos int, text string) error {
	if pos < 0 || pos > s.length {
		return errors.Errorf("mergetree: insert position %d out of range [0, %d]", pos, s.length)
	}
	if text == "" {
		return nil
	}
	var before *segment
	if pos == s.length {
		before = s.tail
	} else {
		before = s.liveAt(pos)
	}
	after := before.prev

	for _, r := range text {
		node := &segment{id: uuid.New(), ch: r}
		switch {
		case math.IsInf(after.order, -1) && math.IsInf(before.order, 1):
			node.order = 0
		case math.IsInf(after.order, -1):
			node.order = before.order - 1
		case math.IsInf(before.order, 1):
			node.order = after.order + 1
		default:
			node.order = (after.order + before.order) / 2
		}
		node.prev = after
		node.next = before
		after.next = node
		before.prev = node
		after = node
		s.length++
	}
	return nil
}

// RemoveRange marks the visible characters in [start, end) as removed and
// slides every non-transient reference anchored to one of them, per spec
// §4.4: a reference's SlidingPreference picks the search direction, and
// CanSlideToEndpoint decides whether it's allowed to land on a sequence
// sentinel when no live segment exists in that direction. Transient
// references are detached instead of slid.
func (s *Sequence) RemoveRange(start, end int) error {
	if start < 0 || end > s.length || start > end {
		return errors.Errorf("mergetree: invalid remove range [%d, %d) over length %d", start, end, s.length)
	}
	if start == end {
		return nil
	}
	var toRemove []*segment
	i := 0
	for n := s.head.next; n != s.tail; n = n.next {
		if n.removed {
			continue
		}
		if i >= start && i < end {
			toRemove = append(toRemove, n)
		}
		i++
	}
	for _, n := range toRemove {
		n.removed = true
		s.length--
	}
	for _, n := range toRemove {
		for _, ref := range n.refs {
			if ref.RefType.Has(refposition.Transient) {
				ref.Detach()
				continue
			}
			s.slideReference(ref)
		}
		n.refs = nil
	}
	return nil
}

// slideReference relocates ref off a just-removed segment, in the
// direction its SlidingPreference names, falling back to a sequence
// sentinel when CanSlideToEndpoint allows it and detaching otherwise.
func (s *Sequence) slideReference(ref *refposition.PositionReference) {
	seg, ok := ref.GetSegment()
	if !ok {
		return
	}
	node := seg.(*segment)
	log.Debug.Printf("mergetree: sliding reference off removed segment %d (pref=%s)", node.SegmentID(), ref.SlidingPreference)
	ref.NotifyBeforeSlide()

	var next *segment
	if ref.SlidingPreference == refposition.Forward {
		for n := node.next; n != s.tail; n = n.next {
			if !n.removed {
				next = n
				break
			}
		}
		if next != nil {
			ref.AttachToSegment(next, 0)
		} else if ref.CanSlideToEndpoint {
			ref.AttachToEndpoint(refposition.EndOfSequence)
		} else {
			ref.Detach()
		}
	} else {
		for n := node.prev; n != s.head; n = n.prev {
			if !n.removed {
				next = n
				break
			}
		}
		if next != nil {
			ref.AttachToSegment(next, 0)
		} else if ref.CanSlideToEndpoint {
			ref.AttachToEndpoint(refposition.StartOfSequence)
		} else {
			ref.Detach()
		}
	}

	if seg, ok := ref.GetSegment(); ok {
		node := seg.(*segment)
		node.refs = append(node.refs, ref)
		log.Debug.Printf("mergetree: reference landed on segment %d", node.SegmentID())
	} else {
		log.Debug.Printf("mergetree: reference detached, no segment or endpoint to land on")
	}
	ref.NotifyAfterSlide()
}

// CreateLocalReferencePosition implements sequenceinterval.Client. A nil
// segment with sentinel != NotEndpoint anchors to a sequence sentinel
// instead of a segment.
func (s *Sequence) CreateLocalReferencePosition(
	seg refposition.Segment,
	sentinel refposition.Endpoint,
	offset int,
	refType refposition.ReferenceType,
	initialProps map[string]any,
	pref refposition.SlidingPreference,
	canSlideToEndpoint bool,
) *refposition.PositionReference {
	ref := refposition.New(refType, pref, canSlideToEndpoint)
	ref.Properties = initialProps
	if sentinel != refposition.NotEndpoint {
		ref.AttachToEndpoint(sentinel)
		return ref
	}
	node := seg.(*segment)
	ref.AttachToSegment(node, offset)
	node.refs = append(node.refs, ref)
	return ref
}

// CreateDetachedLocalReferencePosition implements sequenceinterval.Client.
func (s *Sequence) CreateDetachedLocalReferencePosition(
	pref refposition.SlidingPreference,
	refType refposition.ReferenceType,
) *refposition.PositionReference {
	ref := refposition.New(refType, pref, true)
	s.detached = append(s.detached, ref)
	return ref
}

// GetContainingSegment implements sequenceinterval.Client. This mock keeps
// no separate op-space or local-seq history, so ctx only selects that pos
// is read against the current view in every case. A documented
// simplification appropriate for a stand-in collaborator (spec.md puts
// true op-space/session-space translation inside the real merge-tree,
// out of this core's scope).
func (s *Sequence) GetContainingSegment(pos int, ctx sequenceinterval.ResolveContext) (sequenceinterval.SegOff, bool) {
	node := s.liveAt(pos)
	if node == nil {
		return sequenceinterval.SegOff{}, false
	}
	return sequenceinterval.SegOff{Segment: node, Offset: 0}, true
}

// LocalReferencePositionToPosition implements sequenceinterval.Client.
func (s *Sequence) LocalReferencePositionToPosition(ref *refposition.PositionReference) int {
	switch ref.SequenceEndpoint() {
	case refposition.StartOfSequence:
		return 0
	case refposition.EndOfSequence:
		return s.length
	}
	seg, ok := ref.GetSegment()
	if !ok {
		return -1
	}
	return s.liveIndexOf(seg.(*segment)) + ref.Offset()
}

// GetCurrentSeq implements sequenceinterval.Client.
func (s *Sequence) GetCurrentSeq() int { return s.currentSeq }

// GetCollabWindow implements sequenceinterval.Client.
func (s *Sequence) GetCollabWindow() sequenceinterval.CollabWindow {
	return sequenceinterval.CollabWindow{Collaborating: s.collaborating}
}

// SlideToSegoff implements sequenceinterval.Client. This mock has no
// divergent op-space view to reconcile against, so the resolved segment
// is already correct; SlideToSegoff is a pass-through.
func (s *Sequence) SlideToSegoff(seg sequenceinterval.SegOff, found bool, pref refposition.SlidingPreference, useNewSlidingBehavior bool) (sequenceinterval.SegOff, bool) {
	return seg, found
}

// position gives a comparable key for a reference's current anchor,
// including the two sequence sentinels, so CompareReferencePositions has a
// stable order across detached-then-reattached references too.
func (s *Sequence) position(ref *refposition.PositionReference) float64 {
	switch ref.SequenceEndpoint() {
	case refposition.StartOfSequence:
		return math.Inf(-1)
	case refposition.EndOfSequence:
		return math.Inf(1)
	}
	seg, ok := ref.GetSegment()
	if !ok {
		return math.NaN()
	}
	return seg.(*segment).order
}

// CompareReferencePositions implements sequenceinterval.Client.
func (s *Sequence) CompareReferencePositions(a, b *refposition.PositionReference) int {
	pa, pb := s.position(a), s.position(b)
	switch {
	case pa < pb:
		return -1
	case pa > pb:
		return 1
	default:
		return 0
	}
}

// EndpointPosAndSide implements sequenceinterval.Client, substituting the
// sequence-boundary defaults for a nil Place exactly as
// sequenceinterval.CreateInterval does for its own optional parameters.
func (s *Sequence) EndpointPosAndSide(start, end *sequenceinterval.Place) (sequenceinterval.Position, refposition.Side, sequenceinterval.Position, refposition.Side) {
	sp := start
	if sp == nil {
		sp = &sequenceinterval.Place{Pos: sequenceinterval.StartOfSequence, Side: refposition.Before}
	}
	ep := end
	if ep == nil {
		ep = &sequenceinterval.Place{Pos: sequenceinterval.EndOfSequence, Side: refposition.Before}
	}
	return sp.Pos, sp.Side, ep.Pos, ep.Side
}

// Ack flips an endpoint reference's flag from StayOnRemove to SlideOnRemove
// once its creating op has been acknowledged by the server (spec §4.4).
// Driven entirely by the merge-tree collaborator, never by package
// sequenceinterval itself.
func Ack(ref *refposition.PositionReference) {
	if ref.RefType.Has(refposition.StayOnRemove) {
		ref.RefType = ref.RefType.Without(refposition.StayOnRemove).With(refposition.SlideOnRemove)
		log.Debug.Printf("mergetree: ack transitioned reference from StayOnRemove to SlideOnRemove")
	}
}

var _ sequenceinterval.Client = (*Sequence)(nil)
