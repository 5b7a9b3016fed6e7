package storefront

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/a-h/templ"
)

// State is the load state of a Controller.
type State int

const (
	NotRequested State = iota
	Requesting
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case NotRequested:
		return "not-requested"
	case Requesting:
		return "requesting"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Settled reports whether the state is terminal.
func (s State) Settled() bool {
	return s == Loaded || s == Failed
}

// FetchFunc loads the value a view displays.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Liveness is revoked when the view that issued a fetch goes away. A result
// arriving after revocation is dropped.
type Liveness struct {
	revoked atomic.Bool
}

// Alive reports whether the token is still valid.
func (l *Liveness) Alive() bool {
	return !l.revoked.Load()
}

// Revoke invalidates the token. Safe to call more than once.
func (l *Liveness) Revoke() {
	l.revoked.Store(true)
}

// Snapshot is a consistent view of a Controller's state.
type Snapshot[T any] struct {
	State State
	Value T
	Err   error
}

// Controller owns the "fetch once, then show the result" lifecycle of one
// content view.
//
// The first Mount moves NotRequested to Requesting and starts the fetch on its
// own goroutine; later Mounts are no-ops, so re-rendering never issues a second
// request. The outcome is committed as Loaded or Failed only if the view is
// still mounted. Unmount revokes the liveness token captured at Mount and
// cancels the fetch context; nothing is written after that.
//
// A Controller is not reused across mounts: a new view gets a new Controller.
type Controller[T any] struct {
	fetch FetchFunc[T]

	// OnSettle, if set, is called once after the outcome is committed.
	// It is never called for a discarded result.
	OnSettle func(Snapshot[T])

	mu       sync.Mutex
	state    State
	value    T
	err      error
	liveness *Liveness
	cancel   context.CancelFunc
	settled  chan struct{}
	stopped  chan struct{}
}

// NewController creates a controller in the NotRequested state.
func NewController[T any](fetch FetchFunc[T]) *Controller[T] {
	return &Controller[T]{
		fetch:   fetch,
		settled: make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Mount starts the fetch if it has not been started. It reports whether this
// call started it.
func (c *Controller[T]) Mount(ctx context.Context) bool {
	c.mu.Lock()
	if c.state != NotRequested || c.liveness != nil {
		c.mu.Unlock()
		return false
	}
	c.state = Requesting
	live := &Liveness{}
	c.liveness = live
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	go c.run(fetchCtx, cancel, live)
	return true
}

func (c *Controller[T]) run(ctx context.Context, cancel context.CancelFunc, live *Liveness) {
	defer cancel()
	v, err := c.fetch(ctx)

	c.mu.Lock()
	if !live.Alive() {
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.state = Failed
		c.err = err
	} else {
		c.state = Loaded
		c.value = v
	}
	snap := c.snapshotLocked()
	close(c.settled)
	onSettle := c.OnSettle
	c.mu.Unlock()

	if onSettle != nil {
		onSettle(snap)
	}
}

// Unmount discards any pending result and cancels the fetch. Calling Unmount
// before Mount prevents the fetch from ever starting.
func (c *Controller[T]) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.liveness == nil {
		c.liveness = &Liveness{}
	}
	if c.liveness.Alive() {
		close(c.stopped)
	}
	c.liveness.Revoke()
	if c.cancel != nil {
		c.cancel()
	}
}

// Mounted reports whether the controller was mounted and not yet unmounted.
func (c *Controller[T]) Mounted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.liveness != nil && c.liveness.Alive()
}

// Snapshot returns the current state.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller[T]) snapshotLocked() Snapshot[T] {
	return Snapshot[T]{State: c.state, Value: c.value, Err: c.err}
}

// Settled is closed once the outcome is committed. It stays open forever if
// the controller is unmounted first.
func (c *Controller[T]) Settled() <-chan struct{} {
	return c.settled
}

// Wait blocks until the outcome is committed or ctx is done. When ctx ends
// first the controller is unmounted and ctx.Err is returned. A controller that
// was never mounted, or is unmounted before settling, returns ErrNotMounted
// without waiting.
func (c *Controller[T]) Wait(ctx context.Context) (Snapshot[T], error) {
	if err := ctx.Err(); err != nil {
		c.Unmount()
		return c.Snapshot(), err
	}
	c.mu.Lock()
	mounted := c.liveness != nil
	c.mu.Unlock()
	if !mounted {
		return c.Snapshot(), ErrNotMounted
	}
	select {
	case <-c.settled:
		return c.Snapshot(), nil
	case <-c.stopped:
		select {
		case <-c.settled:
			return c.Snapshot(), nil
		default:
			return c.Snapshot(), ErrNotMounted
		}
	case <-ctx.Done():
		c.Unmount()
		return c.Snapshot(), ctx.Err()
	}
}

// StateViews maps each load state to its rendering.
type StateViews[T any] struct {
	Loading func() templ.Component
	Loaded  func(T) templ.Component
	Failed  func(error) templ.Component
}

// Pick returns the component for snap.
func (v StateViews[T]) Pick(snap Snapshot[T]) templ.Component {
	switch snap.State {
	case Loaded:
		return v.Loaded(snap.Value)
	case Failed:
		return v.Failed(snap.Err)
	}
	return v.Loading()
}

// View renders the current state without waiting: the loading view until the
// outcome is committed. Rendering does not mount the controller.
func (c *Controller[T]) View(views StateViews[T]) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return views.Pick(c.Snapshot()).Render(ctx, w)
	})
}

// Await mounts the controller, waits for the outcome and renders it. If the
// render context ends first the controller is unmounted and the error
// returned.
func (c *Controller[T]) Await(views StateViews[T]) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		c.Mount(ctx)
		snap, err := c.Wait(ctx)
		if err != nil {
			return err
		}
		return views.Pick(snap).Render(ctx, w)
	})
}
