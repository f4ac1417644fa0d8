package readmeview

import "fmt"

// State is a stage of a render pass.
//
//	Idle -> Locating -> Converting -> BuildingToc -> Postprocessing -> Done
//	Idle -> Locating -> NotFound
//
// RenderDocument starts at Converting. Each state is entered at most once.
type State int

const (
	StateIdle State = iota
	StateLocating
	StateConverting
	StateBuildingToc
	StatePostprocessing
	StateDone
	StateNotFound
)

var stateNames = [...]string{
	StateIdle:           "idle",
	StateLocating:       "locating",
	StateConverting:     "converting",
	StateBuildingToc:    "building_toc",
	StatePostprocessing: "postprocessing",
	StateDone:           "done",
	StateNotFound:       "not_found",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateNotFound
}

// StateChange describes one transition of a pass.
type StateChange struct {
	PassID string
	From   State
	To     State
}

// StateHook observes transitions. It runs synchronously on the pass's
// goroutine and must not block.
type StateHook func(StateChange)
