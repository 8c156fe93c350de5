package runnerdash

import (
	"context"
	"fmt"
	"slices"
	"time"

	"vawter.tech/stopper"
)

// Request is a message accepted by the Worker's inbound channel.
type Request interface{ isRequest() }

// Refresh asks the worker to re-probe all runners and publish the list
type Refresh struct{}

// Rediscover asks the worker to re-walk the discovery root, replacing the
// runner set, then re-probe and publish
type Rediscover struct{}

// Control asks the worker to run an action against the runner at Index
type Control struct {
	Index  int
	Action Action
}

func (Refresh) isRequest()    {}
func (Rediscover) isRequest() {}
func (Control) isRequest()    {}

// Response is a message published on the Worker's outbound channel.
type Response interface{ isResponse() }

// RunnersUpdated carries a fresh, independently owned snapshot of the
// runner list. Consumers may keep it; the worker never touches it again.
type RunnersUpdated struct {
	Runners []Runner
}

// ActionDone carries the completion message of a Control request. It is
// always published after the RunnersUpdated that reflects the post-action
// re-probe, so consumers applying messages in order never pair a stale
// status with a done message.
type ActionDone struct {
	Message string
}

func (RunnersUpdated) isResponse() {}
func (ActionDone) isResponse()     {}

// DefaultIdleWait is the bounded wait on the inbound channel between
// loop iterations
const DefaultIdleWait = 100 * time.Millisecond

// Worker owns the live runner list exclusively and serializes every probe
// and control operation. Exactly one worker runs per process, so at most
// one control/probe sequence is ever in flight, serializing all mutation
// of the OS-level service and process state.
type Worker struct {
	prober     *Prober
	controller *Controller
	discover   func() ([]Runner, error)
	idleWait   time.Duration

	runners   []Runner
	requests  chan Request
	responses chan Response
}

// WorkerOption configures a Worker
type WorkerOption func(*Worker)

// WithDiscoverer enables Rediscover requests using the given walk function
func WithDiscoverer(fn func() ([]Runner, error)) WorkerOption {
	return func(w *Worker) {
		w.discover = fn
	}
}

// WithIdleWait sets the bounded wait on the inbound channel
func WithIdleWait(d time.Duration) WorkerOption {
	return func(w *Worker) {
		w.idleWait = d
	}
}

// NewWorker creates a Worker seeded with the initial discovery result
func NewWorker(runners []Runner, prober *Prober, controller *Controller, opts ...WorkerOption) *Worker {
	w := &Worker{
		prober:     prober,
		controller: controller,
		idleWait:   DefaultIdleWait,
		runners:    slices.Clone(runners),
		requests:   make(chan Request, 16),
		responses:  make(chan Response, 16),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Requests is the inbound command channel. Closing it is an implicit
// shutdown signal.
func (w *Worker) Requests() chan<- Request {
	return w.requests
}

// Responses is the outbound publication channel. It is closed when the
// worker stops.
func (w *Worker) Responses() <-chan Response {
	return w.responses
}

// Start launches the worker loop and returns a stop function. Shutdown is
// cooperative: the loop finishes the request it is processing before it
// observes the stop on its next iteration.
func (w *Worker) Start(ctx context.Context) func() error {
	sctx := stopper.WithContext(ctx)

	sctx.Go(func(sctx *stopper.Context) error {
		defer close(w.responses)
		for {
			select {
			case <-sctx.Stopping():
				return nil
			case req, ok := <-w.requests:
				if !ok {
					return nil
				}
				w.handle(ctx, sctx, req)
			case <-time.After(w.idleWait):
				// Idle tick: loop around to observe a pending stop.
			}
		}
	})

	return func() error {
		sctx.Stop(30 * time.Second)
		return sctx.Wait()
	}
}

func (w *Worker) handle(ctx context.Context, sctx *stopper.Context, req Request) {
	switch m := req.(type) {
	case Refresh:
		w.reprobe(ctx)
		w.publish(sctx, w.snapshot())

	case Rediscover:
		if w.discover != nil {
			if runners, err := w.discover(); err == nil {
				w.runners = runners
			}
		}
		w.reprobe(ctx)
		w.publish(sctx, w.snapshot())

	case Control:
		var message string
		if m.Index < 0 || m.Index >= len(w.runners) {
			message = fmt.Sprintf("Error: runner index %d out of range (have %d runners)", m.Index, len(w.runners))
		} else {
			msg, err := w.controller.Control(ctx, w.runners[m.Index], m.Action)
			if err != nil {
				message = "Error: " + err.Error()
			} else {
				message = msg
			}
		}

		// The re-probe is unconditional: the published list reflects
		// observed truth, not the action's self-reported outcome.
		w.reprobe(ctx)
		w.publish(sctx, w.snapshot())
		w.publish(sctx, ActionDone{Message: message})
	}
}

func (w *Worker) reprobe(ctx context.Context) {
	statuses := w.prober.ProbeAll(ctx, w.runners)
	for i := range w.runners {
		w.runners[i].Status = statuses[w.runners[i].Service]
	}
}

// snapshot clones the list so the published copy is independently owned
func (w *Worker) snapshot() RunnersUpdated {
	return RunnersUpdated{Runners: slices.Clone(w.runners)}
}

func (w *Worker) publish(sctx *stopper.Context, resp Response) {
	select {
	case w.responses <- resp:
	case <-sctx.Stopping():
	}
}
