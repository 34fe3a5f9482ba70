package sequenceinterval

// Sequence numbers with the special meanings spec.md borrows from the
// merge-tree's sequencing model: UnassignedSequenceNumber tags a change
// that hasn't been sequenced by the server yet, UniversalSequenceNumber
// tags a change made while not collaborating at all (there's no server to
// assign it a number).
const (
	UnassignedSequenceNumber = -1
	UniversalSequenceNumber  = 0
)

// SequencedOp identifies the op a property change was (or will be) applied
// under, for last-writer-wins resolution in the property-change manager.
type SequencedOp struct {
	SequenceNumber int
}

type pendingChange struct {
	seq      int
	oldValue any
	hadOld   bool
}

// propertyChangeManager performs last-writer-wins property updates keyed
// by op sequence number. It is owned 1:1 by an Interval (spec §5): each
// key's pending changes are tracked independently so that an ack for one
// op doesn't prune changes still pending under another.
type propertyChangeManager struct {
	pending map[string][]pendingChange
}

func newPropertyChangeManager() *propertyChangeManager {
	return &propertyChangeManager{pending: make(map[string][]pendingChange)}
}

// apply writes props into dest, recording each key's previous value as a
// pending change under seq so a later rollback can restore it.
func (m *propertyChangeManager) apply(dest map[string]any, props map[string]any, seq int) {
	for k, v := range props {
		old, hadOld := dest[k]
		m.pending[k] = append(m.pending[k], pendingChange{seq: seq, oldValue: old, hadOld: hadOld})
		dest[k] = v
	}
}

// rollback reverts the most recent pending change for each key in props,
// restoring dest to what it held before that change was applied.
func (m *propertyChangeManager) rollback(dest map[string]any, props map[string]any) {
	for k := range props {
		stack := m.pending[k]
		if len(stack) == 0 {
			continue
		}
		last := stack[len(stack)-1]
		m.pending[k] = stack[:len(stack)-1]
		if last.hadOld {
			dest[k] = last.oldValue
		} else {
			delete(dest, k)
		}
	}
}

// ack prunes every pending change recorded under seq, since the server has
// now confirmed it and there is nothing left to roll back.
func (m *propertyChangeManager) ack(seq int) {
	for k, stack := range m.pending {
		kept := stack[:0]
		for _, pc := range stack {
			if pc.seq != seq {
				kept = append(kept, pc)
			}
		}
		if len(kept) == 0 {
			delete(m.pending, k)
		} else {
			m.pending[k] = kept
		}
	}
}

// ChangeProperties applies props to the interval's property map
// immediately, recording the change against op's sequence number (or
// UnassignedSequenceNumber for a pending local change, or
// UniversalSequenceNumber when not collaborating at all) so that a later
// Ack or rollback can resolve it. Reserved keys are stripped defensively;
// callers should never pass them, but the manager doesn't trust that.
func (iv *Interval) ChangeProperties(props map[string]any, op *SequencedOp, rollback bool) {
	clean := stripReserved(props)
	if rollback {
		iv.propMgr.rollback(iv.properties, clean)
		return
	}
	seq := UnassignedSequenceNumber
	switch {
	case op != nil:
		seq = op.SequenceNumber
	case !iv.client.GetCollabWindow().Collaborating:
		seq = UniversalSequenceNumber
	}
	iv.propMgr.apply(iv.properties, clean, seq)
}

// AckPropertiesChange informs the property-change manager that op has been
// sequenced, pruning its pending set, and reconciles iv's properties
// against the server-confirmed values in newProps.
func (iv *Interval) AckPropertiesChange(newProps map[string]any, op SequencedOp) {
	iv.propMgr.ack(op.SequenceNumber)
	for k, v := range stripReserved(newProps) {
		iv.properties[k] = v
	}
}
