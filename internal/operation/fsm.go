package operation

import (
	"context"

	"github.com/looplab/fsm"
)

// State machine events.
const (
	eventComplete = "complete"
	eventStop     = "stop"
)

// newMachine builds the status machine of one operation. Entering a state
// writes it back into the tracked operation; callers fire events while
// holding the scheduler mutex.
func newMachine(t *tracked) *fsm.FSM {
	return fsm.NewFSM(
		string(StatusRunning),
		fsm.Events{
			{Name: eventComplete, Src: []string{string(StatusRunning)}, Dst: string(StatusCompleted)},
			{Name: eventStop, Src: []string{string(StatusRunning)}, Dst: string(StatusStopped)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				t.op.Status = Status(e.Dst)
			},
		},
	)
}
