// Package worker decouples event emission from persistence: domain code
// pushes onto a channel and returns; this worker drains it.
package worker

import (
	"context"

	"offboard/pkg/platform/audit"
)

// ChannelPublisher implements audit.Publisher by writing to a buffered
// channel. Emit drops the event rather than block the pipeline when the
// buffer is full.
type ChannelPublisher struct {
	ch chan audit.Event
}

func NewChannelPublisher(buffer int) *ChannelPublisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &ChannelPublisher{ch: make(chan audit.Event, buffer)}
}

func (p *ChannelPublisher) Emit(ctx context.Context, event audit.Event) error {
	select {
	case p.ch <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		// Full buffer: audit is best-effort, the pipeline must not stall.
		return nil
	}
}

// Inbox exposes the channel for the worker side.
func (p *ChannelPublisher) Inbox() <-chan audit.Event { return p.ch }

// Worker consumes audit events from an inbox and persists them.
type Worker struct {
	store audit.Store
	inbox <-chan audit.Event
}

func NewWorker(store audit.Store, inbox <-chan audit.Event) *Worker {
	return &Worker{store: store, inbox: inbox}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}
