// Package operation provides the asynchronous Operation Scheduler.
//
// An operation is a named action registered on an entity. Starting one
// applies its synchronous effect immediately, assigns a monotonically
// increasing id, and hands progress reporting to a background goroutine
// that advances the operation in fixed increments until it reaches 100.
//
// # Lifecycle
//
//	           complete
//	running ───────────▶ completed
//	   │
//	   └──────stop──────▶ stopped
//
// Each operation carries its own looplab/fsm state machine. Terminal
// states accept no events, and every progress write re-checks the status
// under the scheduler mutex, so a stopped operation is never advanced or
// completed afterwards.
//
// Some definitions also carry a background effect (for example a light
// flash sequence). It runs on the scheduler's lifetime context,
// independently of the progress task and of stop requests.
//
// # Usage
//
//	sched := operation.NewScheduler(registry, locks, clock.Real{}, operation.Config{})
//	defer sched.Close()
//	sched.Register("engine", operation.Definition{Name: "start", Apply: startEngine})
//	op, err := sched.Start("engine", "start", nil, "")
package operation
