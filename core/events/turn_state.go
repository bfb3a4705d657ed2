package events

const (
	// KindTurnStateChanged identifies orchestrator state transitions.
	KindTurnStateChanged Kind = "turn_state.changed"
	// KindTurnStarted identifies the start of turn processing.
	KindTurnStarted Kind = "turn_state.started"
	// KindTurnCompleted identifies successful turn completion.
	KindTurnCompleted Kind = "turn_state.completed"
	// KindTurnFailed identifies turn failure before a reply could play.
	KindTurnFailed Kind = "turn_state.failed"
)

// TurnStateChanged carries both sides of an orchestrator state transition.
type TurnStateChanged struct {
	Base
	From string
	To   string
}

// NewTurnStateChanged creates a turn state changed event.
func NewTurnStateChanged(from, to string) TurnStateChanged {
	return TurnStateChanged{Base: NewBase(KindTurnStateChanged), From: from, To: to}
}

// TurnStarted marks the start of processing for a queued turn.
type TurnStarted struct{ Base }

// NewTurnStarted creates a turn started event.
func NewTurnStarted() TurnStarted {
	return TurnStarted{Base: NewBase(KindTurnStarted)}
}

// TurnCompleted marks successful completion of the current turn.
type TurnCompleted struct{ Base }

// NewTurnCompleted creates a turn completed event.
func NewTurnCompleted() TurnCompleted {
	return TurnCompleted{Base: NewBase(KindTurnCompleted)}
}

// TurnFailed marks failure of the current turn. Reason is display-ready.
type TurnFailed struct {
	Base
	Reason string
}

// NewTurnFailed creates a turn failed event.
func NewTurnFailed(reason string) TurnFailed {
	return TurnFailed{Base: NewBase(KindTurnFailed), Reason: reason}
}
