package exam

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned by JumpTo for an index outside the question list.
var ErrIndexOutOfRange = errors.New("question index out of range")

// Position is the navigator state: Answering(Index) or Reviewing.
type Position struct {
	Index     int  `json:"index"`
	Reviewing bool `json:"reviewing"`
}

func (p Position) String() string {
	if p.Reviewing {
		return "Reviewing"
	}
	return fmt.Sprintf("Answering(%d)", p.Index)
}

// Navigator tracks which question the examinee is on and whether the
// review screen is showing. It never touches answers.
type Navigator struct {
	count     int
	index     int
	reviewing bool
}

// NewNavigator starts at Answering(0) over count questions.
func NewNavigator(count int) *Navigator {
	return &Navigator{count: count}
}

// Position returns the current state.
func (n *Navigator) Position() Position {
	return Position{Index: n.index, Reviewing: n.reviewing}
}

// Next advances one question, entering review after the last one.
// It does nothing while reviewing.
func (n *Navigator) Next() Position {
	if n.reviewing {
		return n.Position()
	}
	if n.index >= n.count-1 {
		n.reviewing = true
	} else {
		n.index++
	}
	return n.Position()
}

// Prev steps back one question. While reviewing it only leaves review,
// restoring the last index.
func (n *Navigator) Prev() Position {
	switch {
	case n.reviewing:
		n.reviewing = false
	case n.index > 0:
		n.index--
	}
	return n.Position()
}

// JumpTo moves to Answering(index) from any state.
func (n *Navigator) JumpTo(index int) (Position, error) {
	if index < 0 || index >= n.count {
		return n.Position(), fmt.Errorf("jump to %d of %d: %w", index, n.count, ErrIndexOutOfRange)
	}
	n.index = index
	n.reviewing = false
	return n.Position(), nil
}

// EnterReview shows the review screen.
func (n *Navigator) EnterReview() Position {
	n.reviewing = true
	return n.Position()
}
