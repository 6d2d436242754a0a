package blobproto

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"clipstash/internal/blobstore"
	"clipstash/internal/models"
)

const defaultQueueSize = 64

type envelope struct {
	ctx   context.Context
	req   Request
	reply chan Response
}

// Worker serves blob requests from its own goroutine. Callers reach it only
// through Send.
type Worker struct {
	store  blobstore.Store
	logger *slog.Logger
	now    func() time.Time

	inbox chan envelope
	done  chan struct{}

	lifecycleMu sync.Mutex
	started     bool
	stopped     bool
	wg          sync.WaitGroup
}

// NewWorker constructs a worker around store.
func NewWorker(store blobstore.Store, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		store:  store,
		logger: logger.With("component", "blob_worker"),
		now:    time.Now,
		inbox:  make(chan envelope, defaultQueueSize),
		done:   make(chan struct{}),
	}
}

// Start launches the serving goroutine.
func (w *Worker) Start() {
	w.lifecycleMu.Lock()
	defer w.lifecycleMu.Unlock()
	if w.started {
		return
	}
	w.started = true
	w.wg.Add(1)
	go w.loop()
}

// Stop stops accepting requests, answers everything already queued and
// waits for the goroutine to exit.
func (w *Worker) Stop() {
	w.lifecycleMu.Lock()
	if !w.started || w.stopped {
		w.stopped = true
		w.lifecycleMu.Unlock()
		return
	}
	w.stopped = true
	close(w.done)
	w.lifecycleMu.Unlock()
	w.wg.Wait()
}

// Send delivers req to the worker goroutine and waits for its response.
func (w *Worker) Send(ctx context.Context, req Request) (Response, error) {
	env := envelope{ctx: ctx, req: req, reply: make(chan Response, 1)}

	w.lifecycleMu.Lock()
	if !w.started || w.stopped {
		w.lifecycleMu.Unlock()
		return Response{}, ErrClosed
	}
	select {
	case w.inbox <- env:
		w.lifecycleMu.Unlock()
	case <-ctx.Done():
		w.lifecycleMu.Unlock()
		return Response{}, ctx.Err()
	}

	select {
	case resp := <-env.reply:
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case env := <-w.inbox:
			env.reply <- w.Handle(env.ctx, env.req)
		case <-w.done:
			for {
				select {
				case env := <-w.inbox:
					env.reply <- w.Handle(env.ctx, env.req)
				default:
					return
				}
			}
		}
	}
}

// Handle dispatches one request synchronously. Panics and store errors are
// captured into the response.
func (w *Worker) Handle(ctx context.Context, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("blob request panicked", "type", req.Type, "panic", r)
			resp = failure(fmt.Sprint(r))
		}
	}()
	if ctx == nil {
		ctx = context.Background()
	}

	switch req.Type {
	case TypePut:
		return w.handlePut(ctx, req)
	case TypeGet:
		return w.handleGet(ctx, req)
	case TypeHas:
		return w.handleHas(ctx, req)
	case TypeDelete:
		return w.handleDelete(ctx, req)
	case TypeClear:
		return w.handleClear(ctx)
	case TypePing:
		return Response{OK: true, TS: w.now().UnixMilli()}
	default:
		return failure(ErrCodeUnknownType)
	}
}

func (w *Worker) handlePut(ctx context.Context, req Request) Response {
	if strings.TrimSpace(req.ID) == "" || req.Buffer == nil {
		return failure(ErrCodeBadRequest)
	}
	if w.store == nil {
		return failure("blob store is not configured")
	}
	_, err := w.store.Put(ctx, models.BlobRecord{
		ID:           req.ID,
		Data:         req.Buffer,
		MIME:         req.MIME,
		Name:         req.Name,
		Size:         req.Size,
		LastModified: req.LastModified,
	})
	if err != nil {
		w.logger.Warn("blob put failed", "id", req.ID, "error", err)
		return failure(err.Error())
	}
	return okResponse()
}

func (w *Worker) handleGet(ctx context.Context, req Request) Response {
	if strings.TrimSpace(req.ID) == "" {
		return failure(ErrCodeBadRequest)
	}
	if w.store == nil {
		return failure("blob store is not configured")
	}
	rec, err := w.store.Get(ctx, req.ID)
	if err != nil {
		return failure(err.Error())
	}
	if rec == nil {
		return failure(ErrCodeNotFound)
	}
	return Response{
		OK:           true,
		Buffer:       rec.Data,
		MIME:         rec.MIME,
		Name:         rec.Name,
		Size:         rec.Size,
		LastModified: rec.LastModified,
		SavedAt:      rec.SavedAt,
	}
}

func (w *Worker) handleHas(ctx context.Context, req Request) Response {
	if strings.TrimSpace(req.ID) == "" {
		return failure(ErrCodeBadRequest)
	}
	if w.store == nil {
		return failure("blob store is not configured")
	}
	ok, err := w.store.Exists(ctx, req.ID)
	if err != nil {
		return failure(err.Error())
	}
	if !ok {
		return failure(ErrCodeNotFound)
	}
	return okResponse()
}

func (w *Worker) handleDelete(ctx context.Context, req Request) Response {
	if strings.TrimSpace(req.ID) == "" {
		return failure(ErrCodeBadRequest)
	}
	if w.store == nil {
		return failure("blob store is not configured")
	}
	if err := w.store.Delete(ctx, req.ID); err != nil {
		return failure(err.Error())
	}
	return okResponse()
}

func (w *Worker) handleClear(ctx context.Context) Response {
	if w.store == nil {
		return failure("blob store is not configured")
	}
	if err := w.store.Clear(ctx); err != nil {
		return failure(err.Error())
	}
	return okResponse()
}
