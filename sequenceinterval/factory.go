package sequenceinterval

import (
	"github.com/google/uuid"
	"github.com/grailbio/base/log"

	"github.com/grailbio/sequence/refposition"
)

func newUUID() string { return uuid.New().String() }

// CreateReference turns a (position, side-derived preference, origin)
// request into a correctly configured PositionReference (spec §4.1). This
// is the Endpoint Factory's primitive operation; CreateInterval calls it
// twice, once per endpoint.
func CreateReference(
	client Client,
	pos Position,
	refType refposition.ReferenceType,
	origin Origin,
	localSeq *int,
	op *OpInfo,
	pref refposition.SlidingPreference,
	canSlideToEndpoint bool,
	useNewSlidingBehavior bool,
) (*refposition.PositionReference, error) {
	if origin == OriginOp && !refType.Has(refposition.SlideOnRemove) {
		return nil, usageErrorf("op-created reference must carry SlideOnRemove, got %v", refType)
	}
	if origin == OriginLocal && refType.Has(refposition.SlideOnRemove) {
		return nil, usageErrorf("local reference must not carry SlideOnRemove, got %v", refType)
	}

	if pos.IsSentinel() {
		return client.CreateLocalReferencePosition(nil, pos.Sentinel, 0, refType, nil, pref, canSlideToEndpoint), nil
	}

	var ctx ResolveContext
	switch origin {
	case OriginOp:
		ctx = ResolveContext{Op: op}
	case OriginLocal:
		ctx = ResolveContext{LocalSeq: localSeq}
	default:
		// snapshot, rollback, transient all resolve against the client's
		// current session-space view.
	}

	segOff, ok := client.GetContainingSegment(pos.Value, ctx)
	if origin == OriginOp && ok {
		segOff, ok = client.SlideToSegoff(segOff, ok, pref, useNewSlidingBehavior)
	}

	if !ok {
		canDetach := refType.Has(refposition.Transient) ||
			origin == OriginOp ||
			(origin == OriginLocal && localSeq != nil) ||
			origin == OriginSnapshot ||
			origin == OriginRollback
		if !canDetach {
			return nil, usageErrorf("Non-transient references need segment")
		}
		log.Debug.Printf("sequenceinterval: creating detached reference (origin=%s, pos=%v)", origin, pos)
		return client.CreateDetachedLocalReferencePosition(pref, refType), nil
	}

	return client.CreateLocalReferencePosition(segOff.Segment, refposition.NotEndpoint, segOff.Offset, refType, nil, pref, canSlideToEndpoint), nil
}

// CreateIntervalOpts carries CreateInterval's optional parameters (spec
// marks origin/useNewSlidingBehavior/props/rollback as optional; Go
// expresses that as a single options struct rather than trailing pointer
// params).
type CreateIntervalOpts struct {
	Origin                Origin
	LocalSeq              *int
	Op                    *OpInfo
	UseNewSlidingBehavior bool
	Properties            map[string]any
}

// CreateInterval is the Endpoint Factory's interval-level operation (spec
// §4.1): it normalizes startPlace/endPlace, derives stickiness and both
// endpoints' sliding preferences from it, creates both PRs, and returns
// the resulting Interval with props stripped of the reserved keys.
func CreateInterval(
	client Client,
	label, id string,
	startPlace, endPlace *Place,
	intervalType IntervalType,
	opts CreateIntervalOpts,
) (*Interval, error) {
	if id == "" {
		return nil, usageErrorf("interval id must not be empty")
	}

	sp := startPlace
	if sp == nil {
		sp = &Place{Pos: StartOfSequence, Side: refposition.Before}
	}
	ep := endPlace
	if ep == nil {
		ep = &Place{Pos: EndOfSequence, Side: refposition.Before}
	}

	startPos, startSide, endPos, endSide := client.EndpointPosAndSide(sp, ep)
	stickiness := refposition.ComputeStickinessFromSide(startPos.Sentinel, startSide, endPos.Sentinel, endSide)

	beginRefType := refposition.RangeBegin
	endRefType := refposition.RangeEnd
	switch {
	case intervalType == IntervalTransient:
		beginRefType = beginRefType.With(refposition.Transient)
		endRefType = endRefType.With(refposition.Transient)
	case opts.Origin == OriginOp || opts.Origin == OriginSnapshot:
		beginRefType = beginRefType.With(refposition.SlideOnRemove)
		endRefType = endRefType.With(refposition.SlideOnRemove)
	default:
		beginRefType = beginRefType.With(refposition.StayOnRemove)
		endRefType = endRefType.With(refposition.StayOnRemove)
	}

	if err := assertSlideFlagsNormalized(beginRefType, intervalType); err != nil {
		return nil, err
	}
	if err := assertSlideFlagsNormalized(endRefType, intervalType); err != nil {
		return nil, err
	}

	startPref := refposition.StartReferenceSlidingPreference(stickiness)
	startCanSlide := startPref == refposition.Backward
	endPref := refposition.EndReferenceSlidingPreference(stickiness)
	endCanSlide := endPref == refposition.Forward

	startPR, err := CreateReference(client, startPos, beginRefType, opts.Origin, opts.LocalSeq, opts.Op, startPref, startCanSlide, opts.UseNewSlidingBehavior)
	if err != nil {
		return nil, err
	}
	endPR, err := CreateReference(client, endPos, endRefType, opts.Origin, opts.LocalSeq, opts.Op, endPref, endCanSlide, opts.UseNewSlidingBehavior)
	if err != nil {
		return nil, err
	}

	startPR.Properties = map[string]any{reservedKeyLabels: []string{label}}
	endPR.Properties = map[string]any{reservedKeyLabels: []string{label}}

	return NewInterval(client, id, label, startPR, endPR, intervalType, opts.Properties, startSide, endSide), nil
}

// assertSlideFlagsNormalized checks the invariant from spec §3: for a
// non-transient endpoint, exactly one of SlideOnRemove/StayOnRemove must be
// set. Unlike CreateReference's origin/flag preconditions (caller-facing
// UsageErrors), this guards the endpoint-normalization logic above against
// itself — it only fires if that switch has a bug, never from caller
// input, so a violation here is an unreachable branch, not a bad call.
func assertSlideFlagsNormalized(refType refposition.ReferenceType, intervalType IntervalType) error {
	if intervalType == IntervalTransient {
		return nil
	}
	slide := refType.Has(refposition.SlideOnRemove)
	stay := refType.Has(refposition.StayOnRemove)
	if slide == stay {
		return assertionErrorf("endpoint reference type must carry exactly one of SlideOnRemove/StayOnRemove, got %v", refType)
	}
	return nil
}

// CreateTransientInterval creates a short-lived interval that skips the
// ack state machine entirely: it never slides on remove (it detaches
// instead) and never needs an acknowledgment. Its id is a fresh UUID since
// transient intervals are local scratch objects the owning collection
// never persists.
func CreateTransientInterval(client Client, label string, start, end *Place) (*Interval, error) {
	return CreateInterval(client, label, newUUID(), start, end, IntervalTransient, CreateIntervalOpts{
		Origin: OriginTransient,
	})
}
