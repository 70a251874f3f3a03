package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Zereker/chatbot/pkg/log"
	"github.com/Zereker/chatbot/pkg/mq"
)

var (
	ErrClosed      = errors.New("runner is shut down")
	ErrUnknownKind = errors.New("unknown job kind")
)

// Handler executes one job. Its error is recorded on the board, never returned to the submitter.
type Handler func(ctx context.Context) error

// Option configures a Runner
type Option func(*Runner)

// WithPublisher dispatches submitted jobs to topic instead of running them in-process.
// A consumer must feed the topic back into HandleMessage.
func WithPublisher(publisher mq.MessageQueue, topic string) Option {
	return func(r *Runner) {
		r.publisher = publisher
		r.topic = topic
	}
}

// Runner submits jobs without blocking and runs them behind a recover boundary.
type Runner struct {
	logger    *slog.Logger
	board     Board
	publisher mq.MessageQueue
	topic     string

	mu       sync.RWMutex
	handlers map[Kind]Handler
	closed   bool

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewRunner creates a Runner. Jobs run under a context that is cancelled only by Shutdown.
func NewRunner(board Board, opts ...Option) *Runner {
	if board == nil {
		board = NewMemoryBoard()
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		logger:   log.Logger("task"),
		board:    board,
		handlers: make(map[Kind]Handler),
		baseCtx:  ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register binds a handler to kind
func (r *Runner) Register(kind Kind, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = handler
}

// Kinds returns the registered kinds in sorted order
func (r *Runner) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]Kind, 0, len(r.handlers))
	for k := range r.handlers {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

func (r *Runner) handler(kind Kind) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	return h, ok
}

// Submit starts the job in the background and returns at once. It does no
// board or broker I/O; the pending status is written by the job goroutine.
func (r *Runner) Submit(ctx context.Context, kind Kind) (Job, error) {
	if _, ok := r.handler(kind); !ok {
		return Job{}, errors.Wrapf(ErrUnknownKind, "submit %q", kind)
	}

	job := Job{ID: uuid.NewString(), Kind: kind, SubmittedAt: time.Now()}

	// wg.Add must not happen after Shutdown starts waiting
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return Job{}, ErrClosed
	}
	r.wg.Add(1)
	r.mu.RUnlock()

	r.logger.Info("job submitted", "job_id", job.ID, "kind", job.Kind)

	go func() {
		defer r.wg.Done()

		r.put(r.baseCtx, newStatus(job))

		if r.publisher == nil {
			_ = r.Run(r.baseCtx, job)
			return
		}

		if err := r.dispatch(r.baseCtx, job); err != nil {
			r.fail(r.baseCtx, newStatus(job), err)
		}
	}()

	return job, nil
}

func (r *Runner) dispatch(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := r.publisher.Publish(ctx, r.topic, job.ID, data); err != nil {
		return fmt.Errorf("publish job: %w", err)
	}

	r.logger.Debug("job dispatched", "job_id", job.ID, "topic", r.topic)
	return nil
}

// HandleMessage decodes a dispatched job and runs it. It is the Kafka consumer's handler.
func (r *Runner) HandleMessage(ctx context.Context, topic string, message []byte) error {
	var job Job
	if err := json.Unmarshal(message, &job); err != nil {
		return fmt.Errorf("decode job from %s: %w", topic, err)
	}
	if job.ID == "" || job.Kind == "" {
		return fmt.Errorf("invalid job message on %s", topic)
	}
	return r.Run(ctx, job)
}

// Run executes job and records its outcome. Panics are recovered into failures.
func (r *Runner) Run(ctx context.Context, job Job) (err error) {
	status := newStatus(job)

	h, ok := r.handler(job.Kind)
	if !ok {
		err = errors.Wrapf(ErrUnknownKind, "run %q", job.Kind)
		r.fail(ctx, status, err)
		return err
	}

	started := time.Now()
	status.State = StateRunning
	status.StartedAt = &started
	r.put(ctx, status)

	r.logger.Info("job started", "job_id", job.ID, "kind", job.Kind)

	defer func() {
		if p := recover(); p != nil {
			err = errors.Errorf("panic: %v", p)
			r.logger.Error("job panicked", "job_id", job.ID, "kind", job.Kind, "panic", p, "stack", string(debug.Stack()))
		}

		if err != nil {
			r.fail(ctx, status, err)
			return
		}

		finished := time.Now()
		status.State = StateSucceeded
		status.FinishedAt = &finished
		r.put(ctx, status)

		r.logger.Info("job succeeded", "job_id", job.ID, "kind", job.Kind, "elapsed", finished.Sub(started))
	}()

	return h(ctx)
}

func (r *Runner) fail(ctx context.Context, status Status, err error) {
	finished := time.Now()
	status.State = StateFailed
	status.Error = err.Error()
	status.FinishedAt = &finished
	r.put(ctx, status)

	r.logger.Error("job failed", "job_id", status.JobID, "kind", status.Kind, "error", fmt.Sprintf("%+v", err))
}

// put writes status with a fresh context when ctx is already cancelled, so
// shutdown still leaves a terminal state on the board
func (r *Runner) put(ctx context.Context, status Status) {
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
	}
	if err := r.board.Put(ctx, status); err != nil {
		r.logger.Warn("failed to record job status", "job_id", status.JobID, "state", status.State, "error", err)
	}
}

// Status returns the status of one job
func (r *Runner) Status(ctx context.Context, jobID string) (Status, bool, error) {
	return r.board.Get(ctx, jobID)
}

// Latest returns the most recent status of every registered kind that has run
func (r *Runner) Latest(ctx context.Context) ([]Status, error) {
	var out []Status
	for _, kind := range r.Kinds() {
		s, ok, err := r.board.Latest(ctx, kind)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// Shutdown stops accepting jobs and waits for in-flight ones until ctx is done,
// then cancels whatever is still running.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	defer r.cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
