// Package queue serializes work per user. Every user owns a FIFO queue that at
// most one drainer goroutine consumes at a time, while queues of different
// users are drained concurrently.
package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

// ErrClosed is reported when a request arrives after Close.
var ErrClosed = errors.New("queue scheduler is closed")

// UserID identifies a chat participant and partitions the queues.
type UserID int64

// Request is one inbound text event waiting to be processed.
type Request struct {
	UserID    UserID
	ChatID    int64
	MessageID int
	Text      string
}

// Processor handles one dequeued request. It must not return until the
// request reached a terminal state.
type Processor interface {
	Process(ctx context.Context, req Request)
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, req Request)

// Process calls f(ctx, req).
func (f ProcessorFunc) Process(ctx context.Context, req Request) { f(ctx, req) }

type userQueue struct {
	items []Request
	// active is set while a drainer owns this queue.
	active bool
}

// Scheduler owns one queue per user and runs at most one drainer per queue.
type Scheduler struct {
	logger    *slog.Logger
	processor Processor

	mu     sync.Mutex
	queues map[UserID]*userQueue
	closed bool

	drainers conc.WaitGroup
}

// NewScheduler creates a scheduler that hands every dequeued request to processor.
func NewScheduler(logger *slog.Logger, processor Processor) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		logger:    logger.With("component", "queue_scheduler"),
		processor: processor,
		queues:    make(map[UserID]*userQueue),
	}
}

// Submit appends req to its user's queue. If the queue has no active drainer the
// caller claims it and a drainer goroutine is started; otherwise the running
// drainer will reach req in submission order. Submit never blocks on processing.
// It reports whether this call started a drainer.
func (s *Scheduler) Submit(ctx context.Context, req Request) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.logger.WarnContext(ctx, "Dropping request", "user_id", req.UserID, "chat_id", req.ChatID, "error", ErrClosed)
		return false
	}

	q, ok := s.queues[req.UserID]
	if !ok {
		q = &userQueue{}
		s.queues[req.UserID] = q
	}
	q.items = append(q.items, req)

	if len(q.items) != 1 || q.active {
		s.logger.DebugContext(ctx, "Request queued behind active drainer", "user_id", req.UserID, "pending", len(q.items))
		return false
	}
	q.active = true

	// A dequeued request always runs to completion, even if the update context ends.
	drainCtx := context.WithoutCancel(ctx)
	s.drainers.Go(func() { s.drain(drainCtx, req.UserID) })
	return true
}

func (s *Scheduler) drain(ctx context.Context, user UserID) {
	s.logger.DebugContext(ctx, "Drainer started", "user_id", user)
	processed := 0
	for {
		req, ok := s.next(user)
		if !ok {
			s.logger.DebugContext(ctx, "Drainer finished", "user_id", user, "processed", processed)
			return
		}
		s.process(ctx, req)
		processed++
	}
}

// next pops the head of the user's queue, or releases the drainer claim when
// the queue is empty. Both happen under the same lock as Submit's append.
func (s *Scheduler) next(user UserID) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.queues[user]
	if len(q.items) == 0 {
		q.active = false
		q.items = nil
		return Request{}, false
	}

	req := q.items[0]
	q.items[0] = Request{}
	q.items = q.items[1:]
	return req, true
}

func (s *Scheduler) process(ctx context.Context, req Request) {
	var pc panics.Catcher
	pc.Try(func() { s.processor.Process(ctx, req) })
	if r := pc.Recovered(); r != nil {
		s.logger.ErrorContext(ctx, "Request processing panicked",
			"user_id", req.UserID,
			"chat_id", req.ChatID,
			"message_id", req.MessageID,
			"error", r.AsError())
	}
}

// Pending returns the number of requests waiting in the user's queue,
// not counting one that is currently being processed.
func (s *Scheduler) Pending(user UserID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if q, ok := s.queues[user]; ok {
		return len(q.items)
	}
	return 0
}

// Active reports whether a drainer currently owns the user's queue.
func (s *Scheduler) Active(user UserID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.queues[user]
	return ok && q.active
}

// Users returns the number of users seen since start.
func (s *Scheduler) Users() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queues)
}

// Close stops accepting requests. Running drainers keep going until their
// queues are empty.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Shutdown closes the scheduler and waits for all drainers to finish or for
// ctx to end, whichever comes first.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.Close()

	done := make(chan struct{})
	go func() {
		s.drainers.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.InfoContext(ctx, "All drainers finished")
		return nil
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "Shutdown deadline reached with drainers still running", "error", ctx.Err())
		return ctx.Err()
	}
}
