// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package task runs work in the background and hands each outcome to
// exactly one caller.
//
// Submit never blocks: every task gets its own goroutine which waits on a
// weighted semaphore before running, so saturation queues work instead of
// stalling the submitter. Poll waits for completion up to a timeout and
// removes a finished task under the registry lock, which makes delivery
// exactly-once even when Poll and Cancel race on the same id.
package task

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"sqlexplorer/cli/internal/errors"
)

// ID identifies a submitted task.
type ID = string

// State is the outcome class of a poll.
type State int

const (
	// Pending means the task has not finished within the poll timeout.
	Pending State = iota
	// Done means the task finished; the poll carries its outcome and the
	// task has been removed.
	Done
	// NotFound means the id is unknown, already delivered or cancelled.
	NotFound
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Done:
		return "done"
	case NotFound:
		return "not-found"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Poll is the result of polling a task.
type Poll[T any] struct {
	State State
	ID    ID
	Value T
	Err   error
}

// Func is the work of one task. It must honor ctx cancellation where it can.
type Func[T any] func(ctx context.Context) (T, error)

type entry[T any] struct {
	cancel   context.CancelFunc
	done     chan struct{}
	created  time.Time
	finished time.Time
	value    T
	err      error
}

// Registry tracks running and finished tasks.
type Registry[T any] struct {
	mu      sync.Mutex
	tasks   map[ID]*entry[T]
	sem     *semaphore.Weighted
	base    context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
	newID   func() ID
	timeNow func() time.Time
}

// NewRegistry returns a registry running at most workers tasks at once.
func NewRegistry[T any](workers int) *Registry[T] {
	if workers <= 0 {
		workers = 1
	}
	base, stop := context.WithCancel(context.Background())
	return &Registry[T]{
		tasks:   make(map[ID]*entry[T]),
		sem:     semaphore.NewWeighted(int64(workers)),
		base:    base,
		stop:    stop,
		newID:   uuid.NewString,
		timeNow: time.Now,
	}
}

// Submit schedules fn and returns its id immediately.
func (r *Registry[T]) Submit(fn Func[T]) ID {
	ctx, cancel := context.WithCancel(r.base)
	e := &entry[T]{cancel: cancel, done: make(chan struct{}), created: r.timeNow()}

	r.mu.Lock()
	id := r.newID()
	r.tasks[id] = e
	r.wg.Add(1)
	r.mu.Unlock()

	go r.run(ctx, e, fn)
	return id
}

func (r *Registry[T]) run(ctx context.Context, e *entry[T], fn Func[T]) {
	defer r.wg.Done()
	defer e.cancel()

	var (
		value T
		err   error
	)
	if err = r.sem.Acquire(ctx, 1); err != nil {
		err = errors.Wrap(errors.Cancelled, "task cancelled before start", err)
	} else {
		value, err = safeCall(ctx, fn)
		r.sem.Release(1)
	}

	r.mu.Lock()
	e.value, e.err = value, err
	e.finished = r.timeNow()
	r.mu.Unlock()
	close(e.done)
}

func safeCall[T any](ctx context.Context, fn Func[T]) (value T, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Newf(errors.Execution, "task panicked: %v\n%s", p, debug.Stack())
		}
	}()
	return fn(ctx)
}

// Poll waits up to timeout (or until ctx ends) for task id. A Done result is
// delivered once; afterwards the id is NotFound.
func (r *Registry[T]) Poll(ctx context.Context, id ID, timeout time.Duration) Poll[T] {
	r.mu.Lock()
	e, ok := r.tasks[id]
	r.mu.Unlock()
	if !ok {
		return Poll[T]{State: NotFound, ID: id}
	}

	select {
	case <-e.done:
	default:
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-e.done:
		case <-timer.C:
			return Poll[T]{State: Pending, ID: id}
		case <-ctx.Done():
			return Poll[T]{State: Pending, ID: id}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.tasks[id]; !ok || cur != e {
		return Poll[T]{State: NotFound, ID: id}
	}
	delete(r.tasks, id)
	return Poll[T]{State: Done, ID: id, Value: e.value, Err: e.err}
}

// Cancel removes task id and cancels its context. It reports whether the id was known.
func (r *Registry[T]) Cancel(id ID) bool {
	r.mu.Lock()
	e, ok := r.tasks[id]
	if ok {
		delete(r.tasks, id)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	e.cancel()
	return true
}

// Sweep drops finished tasks nobody collected within maxAge of completion
// and returns how many were dropped.
func (r *Registry[T]) Sweep(maxAge time.Duration) int {
	cutoff := r.timeNow().Add(-maxAge)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.tasks {
		if !e.finished.IsZero() && e.finished.Before(cutoff) {
			delete(r.tasks, id)
			n++
		}
	}
	return n
}

// Len returns the number of tracked tasks.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// Close cancels every task and waits for their goroutines to return.
func (r *Registry[T]) Close() {
	r.stop()
	r.mu.Lock()
	clear(r.tasks)
	r.mu.Unlock()
	r.wg.Wait()
}
