package config

import "sync"

// DefaultHistoryDepth matches the five undo steps of the desktop tool.
const DefaultHistoryDepth = 5

// History is a bounded undo/redo stack of Config snapshots. The top of the undo
// stack is the current configuration.
type History struct {
	mu    sync.Mutex
	depth int
	undo  []Config
	redo  []Config
}

func NewHistory(depth int, initial Config) *History {
	if depth < 2 {
		depth = DefaultHistoryDepth
	}
	return &History{depth: depth, undo: []Config{initial}}
}

// Current returns the active snapshot.
func (h *History) Current() Config {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.undo[len(h.undo)-1]
}

// Push records a new snapshot. A snapshot equal to the current one is ignored;
// anything else invalidates the redo stack.
func (h *History) Push(c Config) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.undo[len(h.undo)-1] == c {
		return false
	}
	h.push(c)
	h.redo = h.redo[:0]
	return true
}

func (h *History) push(c Config) {
	h.undo = append(h.undo, c)
	if len(h.undo) > h.depth {
		h.undo = append(h.undo[:0], h.undo[1:]...)
	}
}

// Undo steps back one snapshot. The oldest snapshot is never popped.
func (h *History) Undo() (Config, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.undo) <= 1 {
		return h.undo[0], false
	}
	h.redo = append(h.redo, h.undo[len(h.undo)-1])
	h.undo = h.undo[:len(h.undo)-1]
	return h.undo[len(h.undo)-1], true
}

// Redo re-applies the last undone snapshot.
func (h *History) Redo() (Config, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.redo) == 0 {
		return h.undo[len(h.undo)-1], false
	}
	c := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.push(c)
	return c, true
}

func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo) > 1
}

func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo) > 0
}
