package engine

// SelectionAction describes what a touch did to the selection
type SelectionAction string

const (
	SelectionIgnored   SelectionAction = "ignored"
	SelectionArmed     SelectionAction = "armed"
	SelectionCancelled SelectionAction = "cancelled"
	SelectionRearmed   SelectionAction = "rearmed"
	SelectionMerge     SelectionAction = "merge"
)

// SelectionOutcome is the result of SelectionController.Touch. Keep and
// Remove are set only for SelectionMerge.
type SelectionOutcome struct {
	Action SelectionAction
	Keep   Coordinate
	Remove Coordinate
}

// SelectionController tracks the single armed block, if any
type SelectionController struct {
	grid    *GridState
	emitter *emitter
	armed   bool
	pos     Coordinate
}

// newSelectionController creates an idle controller
func newSelectionController(grid *GridState, em *emitter) *SelectionController {
	return &SelectionController{grid: grid, emitter: em}
}

// Armed returns the armed coordinate, if any
func (s *SelectionController) Armed() (Coordinate, bool) {
	return s.pos, s.armed
}

// Touch advances the Idle/Armed state machine. A SelectionMerge outcome
// leaves the controller Idle; the caller runs the merge.
func (s *SelectionController) Touch(pos Coordinate) SelectionOutcome {
	_, occupied := s.grid.Get(pos)

	if !s.armed {
		if !occupied {
			return SelectionOutcome{Action: SelectionIgnored}
		}
		s.arm(pos)
		return SelectionOutcome{Action: SelectionArmed}
	}

	a := s.pos
	switch {
	case pos == a:
		s.Clear()
		return SelectionOutcome{Action: SelectionCancelled}
	case CanMerge(s.grid, a, pos):
		s.Clear()
		return SelectionOutcome{Action: SelectionMerge, Keep: a, Remove: pos}
	case occupied:
		s.Clear()
		s.arm(pos)
		return SelectionOutcome{Action: SelectionRearmed}
	default:
		s.Clear()
		return SelectionOutcome{Action: SelectionCancelled}
	}
}

// Clear returns to Idle, unhighlighting the armed block
func (s *SelectionController) Clear() {
	if !s.armed {
		return
	}
	s.armed = false
	s.emitter.at(EventBlockUnhighlighted, s.pos, 0)
}

func (s *SelectionController) arm(pos Coordinate) {
	s.armed = true
	s.pos = pos
	b, _ := s.grid.Get(pos)
	s.emitter.at(EventBlockHighlighted, pos, b.Level)
}
