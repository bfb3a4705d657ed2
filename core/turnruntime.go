package orchestration

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/parleyvoice/parley-core/core/audio"
)

// The idle-state guard serializes turns, so the queue never holds more than
// the turn currently being handed over.
const turnQueueCapacity = 1

type queuedTurn struct {
	utterance audio.Utterance
	queuedAt  time.Time
}

// turnRuntime owns the goroutine that drains queued turns one at a time.
// Turns run on a context derived from the orchestrate context so closing the
// runtime cancels the in-flight turn.
type turnRuntime struct {
	baseContext context.Context
	process     func(context.Context, queuedTurn)

	queue   chan queuedTurn
	closeCh chan struct{}
	done    chan struct{}

	startOnce sync.Once
	endOnce   sync.Once

	started atomic.Bool
}

func newTurnRuntime() *turnRuntime {
	return &turnRuntime{
		baseContext: context.Background(),
		queue:       make(chan queuedTurn, turnQueueCapacity),
		closeCh:     make(chan struct{}),
		done:        make(chan struct{}),
	}
}

func (runtime *turnRuntime) configure(ctx context.Context, process func(context.Context, queuedTurn)) {
	if runtime == nil {
		return
	}

	runtime.baseContext = ctx
	runtime.process = process
}

func (runtime *turnRuntime) start() (started bool) {
	if runtime == nil || runtime.isClosed() {
		return false
	}

	runtime.startOnce.Do(func() {
		if runtime.isClosed() {
			return
		}

		started = true
		runtime.started.Store(true)
		go func() {
			defer close(runtime.done)

			for {
				select {
				case <-runtime.closeCh:
					return
				case queuedTurn := <-runtime.queue:
					if runtime.isClosed() {
						return
					}
					runtime.processQueuedTurn(queuedTurn)
				}
			}
		}()
	})

	return started
}

func (runtime *turnRuntime) end() {
	if runtime == nil {
		return
	}

	runtime.endOnce.Do(func() {
		close(runtime.closeCh)
	})
}

func (runtime *turnRuntime) awaitCompletion() {
	if runtime == nil {
		return
	}

	if runtime.started.Load() {
		<-runtime.done
	}
}

func (runtime *turnRuntime) enqueue(turn queuedTurn) bool {
	if runtime == nil || runtime.isClosed() {
		return false
	}

	select {
	case <-runtime.closeCh:
		return false
	case runtime.queue <- turn:
		return true
	}
}

func (runtime *turnRuntime) isClosed() bool {
	if runtime == nil {
		return false
	}

	select {
	case <-runtime.closeCh:
		return true
	default:
		return false
	}
}

func (runtime *turnRuntime) processQueuedTurn(turn queuedTurn) {
	if runtime == nil || runtime.process == nil {
		return
	}

	turnCtx, turnCancel := context.WithCancel(runtime.baseContext)
	defer turnCancel()

	go func() {
		select {
		case <-runtime.closeCh:
			turnCancel()
		case <-turnCtx.Done():
		}
	}()

	ctx, span := tracer.Start(turnCtx, "process turn")
	defer span.End()

	queuedTime := time.Since(turn.queuedAt).Seconds()
	span.AddEvent("taken out of queue", trace.WithAttributes(attribute.Float64("turn.queued_time", queuedTime)))
	span.SetAttributes(attribute.Float64("turn.queued_time", queuedTime))

	if err := panicSafeNamedWorker("turn processing", func(ctx context.Context) error {
		runtime.process(ctx, turn)
		return nil
	})(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
