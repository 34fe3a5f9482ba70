package refposition

// ComputeStickinessFromSide derives Stickiness from the four inputs spec'd
// in §3: each endpoint is either a sentinel (StartOfSequence/EndOfSequence)
// or an ordinary position, and carries a Side. See SPEC_FULL.md's
// "Stickiness table helper" note for the derivation: the start bit is set
// when the start anchors to the sequence-start sentinel or startSide ==
// After (content landing exactly at the anchor falls on the same side as
// the interval's own start and is absorbed into it); the end bit is set
// symmetrically for endSide == Before or the sequence-end sentinel.
func ComputeStickinessFromSide(startEndpoint Endpoint, startSide Side, endEndpoint Endpoint, endSide Side) Stickiness {
	var s Stickiness
	if startEndpoint == StartOfSequence || startSide == After {
		s |= StickinessStart
	}
	if endEndpoint == EndOfSequence || endSide == Before {
		s |= StickinessEnd
	}
	return s
}

// StartReferenceSlidingPreference returns the direction a start endpoint
// should slide in when its anchor segment is removed, given the interval's
// derived stickiness. A start-sticky boundary must stay left of content
// inserted at the boundary, i.e. slide Backward; otherwise it slides
// Forward so removed content doesn't pull the start leftward past where the
// user placed it.
func StartReferenceSlidingPreference(s Stickiness) SlidingPreference {
	if s&StickinessStart != 0 {
		return Backward
	}
	return Forward
}

// EndReferenceSlidingPreference is the symmetric rule for end endpoints: an
// end-sticky boundary slides Forward to stay right of inserted content,
// otherwise it slides Backward.
func EndReferenceSlidingPreference(s Stickiness) SlidingPreference {
	if s&StickinessEnd != 0 {
		return Forward
	}
	return Backward
}
