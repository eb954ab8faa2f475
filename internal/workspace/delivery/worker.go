package delivery

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/teamspaceapp/teamspace/pkg/slogx"
)

// Worker drains the invitation queue in the background. Sends are paced
// with a rate limiter so a large batch doesn't trip the email provider.
type Worker struct {
	Queue     Queue
	Processor *Processor
	Logger    *slog.Logger

	// SendInterval is the minimum spacing between sends.
	SendInterval time.Duration
	// DequeueTimeout bounds each blocking wait on the queue so the worker
	// can notice a stop request.
	DequeueTimeout time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewWorker creates a queue worker. Zero or negative intervals fall back to
// 500ms between sends and a 5s dequeue wait.
func NewWorker(queue Queue, processor *Processor, logger *slog.Logger, sendInterval, dequeueTimeout time.Duration) *Worker {
	if sendInterval <= 0 {
		sendInterval = 500 * time.Millisecond
	}
	if dequeueTimeout <= 0 {
		dequeueTimeout = 5 * time.Second
	}

	return &Worker{
		Queue:          queue,
		Processor:      processor,
		Logger:         logger,
		SendInterval:   sendInterval,
		DequeueTimeout: dequeueTimeout,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop() to shut it
// down gracefully.
func (w *Worker) Start() {
	go w.run()
	w.Logger.Info("delivery worker started",
		"send_interval", w.SendInterval, "dequeue_timeout", w.DequeueTimeout)
}

// Stop shuts down the worker. Blocks until any in-progress send finishes.
func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.doneCh
	w.Logger.Info("delivery worker stopped")
}

func (w *Worker) run() {
	defer close(w.doneCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = slogx.WithContext(ctx, w.Logger)

	go func() {
		<-w.stopCh
		cancel()
	}()

	limiter := rate.NewLimiter(rate.Every(w.SendInterval), 1)

	for {
		select {
		case <-w.stopCh:
			return
		default:
		}

		id, ok, err := w.Queue.Dequeue(ctx, w.DequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.Logger.Error("failed to dequeue invitation", "error", err)
			// Back off briefly so a broken queue doesn't spin the loop.
			select {
			case <-time.After(w.DequeueTimeout):
			case <-w.stopCh:
				return
			}
			continue
		}
		if !ok {
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return
		}

		outcome, err := w.Processor.Process(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.Logger.Error("failed to process invitation", "invitation_id", id, "error", err)
			continue
		}
		w.Logger.Debug("processed invitation", "invitation_id", id, "outcome", string(outcome))
	}
}
