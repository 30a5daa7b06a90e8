// Package delivery drives one queued link through announce, fetch, deliver
// and cleanup, keeping every failure contained to that request.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/spf13/afero"

	"github.com/edgard/tubeaudiobot/internal/media"
	"github.com/edgard/tubeaudiobot/internal/queue"
)

// Gateway is the subset of the chat API the pipeline needs.
type Gateway interface {
	SendText(ctx context.Context, chatID int64, text string) (int, error)
	SendAudio(ctx context.Context, chatID int64, path, title string) (int, error)
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// Fetcher produces a local audio artifact for a locator.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) (media.Artifact, error)
}

// Messages are the texts the pipeline sends to users.
type Messages struct {
	Received    string
	FetchFailed string
}

// Pipeline processes queued requests one at a time. It implements queue.Processor.
type Pipeline struct {
	logger   *slog.Logger
	gateway  Gateway
	fetcher  Fetcher
	fs       afero.Fs
	messages Messages
}

var _ queue.Processor = (*Pipeline)(nil)

// NewPipeline creates a Pipeline. fs is the filesystem holding the artifacts.
func NewPipeline(logger *slog.Logger, gateway Gateway, fetcher Fetcher, fs afero.Fs, messages Messages) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger:   logger.With("component", "delivery_pipeline"),
		gateway:  gateway,
		fetcher:  fetcher,
		fs:       fs,
		messages: messages,
	}
}

// Process runs req to a terminal state. Errors never escape.
func (p *Pipeline) Process(ctx context.Context, req queue.Request) {
	p.Run(ctx, req)
}

// Run runs req to a terminal state and returns it.
func (p *Pipeline) Run(ctx context.Context, req queue.Request) State {
	r := &run{
		p:   p,
		req: req,
		log: p.logger.With("user_id", req.UserID, "chat_id", req.ChatID, "message_id", req.MessageID),
	}
	return r.execute(ctx)
}

// run carries the state of one request through the pipeline.
type run struct {
	p        *Pipeline
	req      queue.Request
	log      *slog.Logger
	state    State
	noticeID int
}

func (r *run) transition(ctx context.Context, next State) {
	r.log.DebugContext(ctx, "Request state changed", "from", r.state, "to", next)
	r.state = next
}

func (r *run) execute(ctx context.Context) State {
	noticeID, err := r.p.gateway.SendText(ctx, r.req.ChatID, r.p.messages.Received)
	if err != nil {
		return r.fail(ctx, fmt.Errorf("failed to announce request: %w", err))
	}
	r.noticeID = noticeID
	r.transition(ctx, StateAnnounced)

	locator := media.Normalize(r.req.Text)
	r.transition(ctx, StateFetching)
	artifact, err := r.p.fetcher.Fetch(ctx, locator)
	if err != nil {
		return r.fail(ctx, err)
	}

	// The artifact never outlives this run, whatever happens while sending it.
	removeArtifact := sync.OnceFunc(func() { r.removeArtifact(ctx, artifact) })
	defer removeArtifact()

	_, err = r.p.gateway.SendAudio(ctx, r.req.ChatID, artifact.Path, artifact.Name)
	removeArtifact()
	if err != nil {
		return r.fail(ctx, fmt.Errorf("failed to send audio: %w", err))
	}
	r.transition(ctx, StateDelivered)

	bestEffort(ctx, r.log, "delete inbound message", func() error {
		return r.p.gateway.DeleteMessage(ctx, r.req.ChatID, r.req.MessageID)
	})
	r.deleteNotice(ctx)

	r.transition(ctx, StateCleaned)
	r.log.InfoContext(ctx, "Delivered audio", "locator", locator, "file", artifact.Name)
	return r.state
}

// fail moves the request to Failed and tells the user. The announce notice is
// removed so only the failure text remains in the chat.
func (r *run) fail(ctx context.Context, err error) State {
	if errors.Is(err, media.ErrFetchFailed) {
		r.log.WarnContext(ctx, "Fetch failed", "state", r.state, "error", err)
	} else {
		r.log.ErrorContext(ctx, "Delivery failed", "state", r.state, "error", err)
	}
	r.transition(ctx, StateFailed)

	bestEffort(ctx, r.log, "send failure notice", func() error {
		_, err := r.p.gateway.SendText(ctx, r.req.ChatID, r.p.messages.FetchFailed)
		return err
	})
	r.deleteNotice(ctx)
	return r.state
}

func (r *run) deleteNotice(ctx context.Context) {
	if r.noticeID == 0 {
		return
	}
	bestEffort(ctx, r.log, "delete notice", func() error {
		return r.p.gateway.DeleteMessage(ctx, r.req.ChatID, r.noticeID)
	})
}

func (r *run) removeArtifact(ctx context.Context, artifact media.Artifact) {
	bestEffort(ctx, r.log, "remove artifact", func() error {
		if err := r.p.fs.Remove(artifact.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	})
}

// bestEffort is the cleanup policy: the step is always attempted, and a
// failure is logged and otherwise ignored.
func bestEffort(ctx context.Context, log *slog.Logger, step string, fn func() error) {
	if err := fn(); err != nil {
		log.WarnContext(ctx, "Best-effort step failed", "step", step, "error", err)
	}
}
