package history

import (
	"errors"
	"fmt"

	"github.com/zeusync/scenestore/internal/core/scene"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// History runs commands against a scene graph and keeps linear undo and redo
// stacks. The top of each stack is the last element.
type History struct {
	graph    *scene.Graph
	undo     []Command
	redo     []Command
	maxDepth int
}

// New creates a history bound to g. maxDepth caps the undo stack, dropping
// the oldest entry when exceeded; 0 means unlimited.
func New(g *scene.Graph, maxDepth int) *History {
	if maxDepth < 0 {
		maxDepth = 0
	}
	return &History{graph: g, maxDepth: maxDepth}
}

// Reset clears both stacks and rebinds the history to g.
func (h *History) Reset(g *scene.Graph) {
	h.graph = g
	h.Clear()
}

func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
}

// Graph returns the graph commands are applied to.
func (h *History) Graph() *scene.Graph { return h.graph }

// Execute applies cmd. A failed command is discarded and nothing is pushed;
// a successful one lands on the undo stack and clears the redo stack.
func (h *History) Execute(cmd Command) (Effects, error) {
	if cmd == nil {
		panic("history: nil command")
	}
	effects, err := cmd.apply(h.graph)
	if err != nil {
		return nil, err
	}
	h.undo = append(h.undo, cmd)
	if h.maxDepth > 0 && len(h.undo) > h.maxDepth {
		h.undo = h.undo[len(h.undo)-h.maxDepth:]
	}
	h.redo = nil
	return effects, nil
}

// Undo reverts the most recent command and moves it to the redo stack.
func (h *History) Undo() (Effects, error) {
	if len(h.undo) == 0 {
		return nil, ErrNothingToUndo
	}
	cmd := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	effects, err := cmd.revert(h.graph)
	if err != nil {
		// The graph no longer matches what the stack expects; anything
		// stacked on top of it cannot be replayed either.
		h.redo = nil
		return nil, fmt.Errorf("undo %q: %w", cmd.Label(), err)
	}
	h.redo = append(h.redo, cmd)
	return effects, nil
}

// Redo re-applies the most recently undone command.
func (h *History) Redo() (Effects, error) {
	if len(h.redo) == 0 {
		return nil, ErrNothingToRedo
	}
	cmd := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	effects, err := cmd.apply(h.graph)
	if err != nil {
		h.redo = nil
		return nil, fmt.Errorf("redo %q: %w", cmd.Label(), err)
	}
	h.undo = append(h.undo, cmd)
	return effects, nil
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// UndoLabel returns the label of the command Undo would revert.
func (h *History) UndoLabel() string {
	if len(h.undo) == 0 {
		return ""
	}
	return h.undo[len(h.undo)-1].Label()
}

// RedoLabel returns the label of the command Redo would re-apply.
func (h *History) RedoLabel() string {
	if len(h.redo) == 0 {
		return ""
	}
	return h.redo[len(h.redo)-1].Label()
}

// Depth returns the sizes of the undo and redo stacks.
func (h *History) Depth() (undo, redo int) {
	return len(h.undo), len(h.redo)
}
