package grid

// HistoryLimit caps each of the undo and redo stacks. Pushing past the cap
// evicts the oldest snapshot.
const HistoryLimit = 50

// History holds bounded undo/redo stacks of sheet snapshots. It exclusively
// owns the snapshots it stores; the store owns only the live sheet.
type History struct {
	undo []Sheet
	redo []Sheet
}

// Commit records a pre-mutation snapshot. Every direct edit starts a new
// timeline branch, so the redo stack is cleared.
func (h *History) Commit(snapshot Sheet) {
	h.undo = push(h.undo, snapshot)
	h.redo = nil
}

// Undo pops the most recent snapshot, stashing the current live sheet on the
// redo stack. Returns false when there is nothing to undo.
func (h *History) Undo(current Sheet) (Sheet, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	restored := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = push(h.redo, current.Clone())
	return restored, true
}

// Redo pops from the redo stack, stashing the current live sheet on the undo
// stack. Returns false when there is nothing to redo.
func (h *History) Redo(current Sheet) (Sheet, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	restored := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = push(h.undo, current.Clone())
	return restored, true
}

// Reset discards both stacks.
func (h *History) Reset() {
	h.undo = nil
	h.redo = nil
}

// UndoLen returns the undo stack depth.
func (h *History) UndoLen() int { return len(h.undo) }

// RedoLen returns the redo stack depth.
func (h *History) RedoLen() int { return len(h.redo) }

func push(stack []Sheet, snapshot Sheet) []Sheet {
	if len(stack) >= HistoryLimit {
		stack = stack[1:]
	}
	return append(stack, snapshot)
}
