package dialog

import "github.com/vferraz/agendabot/internal/models"

// FlowKind says which multi-step dialogue, if any, a chat is in.
type FlowKind int

const (
	FlowNone FlowKind = iota
	FlowCreate
	FlowDelete
)

// Step is a position inside a flow's state machine.
type Step int

const (
	StepNone        Step = iota
	StepDate             // create: waiting for a date
	StepDescription      // create: waiting for the description
	StepChoice           // delete: waiting for a list number
)

// FlowState is the per-chat dialogue state. The zero value means no flow is
// active. It belongs to the dispatcher's session table and is passed by
// pointer into the engine; the engine keeps no copy of its own. Scratch
// fields are only meaningful while the matching flow is active and are
// cleared together with it.
type FlowState struct {
	Kind FlowKind
	Step Step

	Date       string         // create: parsed date waiting for a description
	Candidates []models.Event // delete: snapshot shown to the user, 1-based
}

// Active reports whether a multi-step dialogue is in progress.
func (s *FlowState) Active() bool { return s.Kind != FlowNone }

// reset clears the flow and all scratch data in one step.
func (s *FlowState) reset() { *s = FlowState{} }
