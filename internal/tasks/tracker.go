// Package tasks keeps track of running provider processes and hands their
// results back to the event loop without blocking it
package tasks

import (
	"context"
	"fmt"
	"log"
	"slices"

	"github.com/pstuifzand/zcode/internal/executor"
)

// Kind is what a task's result will be used for
type Kind int

const (
	KindDetection Kind = iota
	KindPrompt
)

func (k Kind) String() string {
	if k == KindPrompt {
		return "prompt_execution"
	}
	return "detection"
}

// Func is the work of a task. It must return once ctx is cancelled.
type Func func(ctx context.Context) (*executor.Result, error)

// Completion is the result of a finished task
type Completion struct {
	ID     string
	Kind   Kind
	Result *executor.Result
	Err    error
}

type task struct {
	kind   Kind
	cancel context.CancelFunc
	done   chan struct{}
	result *executor.Result
	err    error
}

// Tracker owns in-flight tasks keyed by id. It is used from a single
// goroutine, the event loop; only the task bodies run concurrently.
type Tracker struct {
	tasks map[string]*task
	order []string
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{tasks: make(map[string]*task)}
}

// Spawn starts fn in its own goroutine. id must not belong to a task that
// is still tracked.
func (t *Tracker) Spawn(id string, kind Kind, fn Func) error {
	if _, exists := t.tasks[id]; exists {
		return fmt.Errorf("task %q is already running", id)
	}

	ctx, cancel := context.WithCancel(context.Background())
	tk := &task{kind: kind, cancel: cancel, done: make(chan struct{})}
	t.tasks[id] = tk
	t.order = append(t.order, id)

	go func() {
		defer close(tk.done)
		tk.result, tk.err = fn(ctx)
	}()

	log.Printf("Spawned %s task %s", kind, id)
	return nil
}

// PollCompleted removes every finished task and returns its result. It
// never blocks. Each result is returned exactly once.
func (t *Tracker) PollCompleted() []Completion {
	var completed []Completion
	remaining := t.order[:0]
	for _, id := range t.order {
		tk, ok := t.tasks[id]
		if !ok {
			continue
		}
		select {
		case <-tk.done:
			tk.cancel()
			delete(t.tasks, id)
			completed = append(completed, Completion{ID: id, Kind: tk.kind, Result: tk.result, Err: tk.err})
		default:
			remaining = append(remaining, id)
		}
	}
	t.order = remaining
	return completed
}

// Cancel stops tracking id and cancels its context, which kills a running
// child process. Its result is never reported.
func (t *Tracker) Cancel(id string) bool {
	tk, ok := t.tasks[id]
	if !ok {
		return false
	}
	tk.cancel()
	delete(t.tasks, id)
	t.order = slices.DeleteFunc(t.order, func(other string) bool { return other == id })
	log.Printf("Cancelled task %s", id)
	return true
}

// Pending returns the number of tracked tasks of kind
func (t *Tracker) Pending(kind Kind) int {
	n := 0
	for _, tk := range t.tasks {
		if tk.kind == kind {
			n++
		}
	}
	return n
}

// Len returns the number of tracked tasks
func (t *Tracker) Len() int {
	return len(t.tasks)
}

// Has reports whether id is tracked
func (t *Tracker) Has(id string) bool {
	_, ok := t.tasks[id]
	return ok
}
