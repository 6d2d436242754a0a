// Package ingest funnels paste, drop and clipboard-read batches through one
// serialized queue, suppresses double-fired batches and commits the result
// to history.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"clipstash/internal/blobproto"
	"clipstash/internal/models"
	"clipstash/internal/signature"
	"clipstash/internal/store"
	"clipstash/internal/transcode"
)

const (
	DefaultDedupWindow = 600 * time.Millisecond
	DefaultQueueSize   = 64

	blobWriteTimeout = 30 * time.Second
)

// ErrClosed is returned for work submitted after Close.
var ErrClosed = errors.New("ingest pipeline closed")

// Source labels where a batch came from.
type Source string

const (
	SourcePaste         Source = "paste"
	SourceDrop          Source = "drop"
	SourceClipboardRead Source = "clipboard_read"
	SourceImport        Source = "import"
)

// Explicit reports whether the source is a deliberate user action that
// expects feedback when nothing is added.
func (s Source) Explicit() bool {
	return s == SourceClipboardRead || s == SourceDrop
}

// Outcome classifies a finished batch.
type Outcome int

const (
	OutcomeCommitted Outcome = iota
	OutcomeEmpty
	OutcomeDuplicate
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCommitted:
		return "committed"
	case OutcomeEmpty:
		return "empty"
	case OutcomeDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// Result reports what one batch did.
type Result struct {
	Committed int
	Outcome   Outcome
	Signature string
	Source    Source
}

// Notice returns the neutral message shown for an explicit action that
// added nothing, or "" when no notice applies.
func (r Result) Notice() string {
	if r.Committed > 0 || !r.Source.Explicit() {
		return ""
	}
	switch r.Outcome {
	case OutcomeDuplicate:
		return "Already added"
	case OutcomeEmpty:
		return "Nothing to add"
	default:
		return ""
	}
}

// History is the part of the history store the pipeline writes to.
type History interface {
	InsertAtHead(item models.HistoryItem)
	Update(id string, fn func(*models.HistoryItem)) bool
}

// BlobWriter stores binary payloads. Delete removes a payload whose item
// was removed before its write settled.
type BlobWriter interface {
	Put(ctx context.Context, in blobproto.PutInput) error
	Delete(ctx context.Context, id string) error
}

// Transcoder shrinks oversized images.
type Transcoder interface {
	Transcode(ctx context.Context, in transcode.Payload) transcode.Payload
}

// ProduceFunc yields the candidates for one batch. It runs on the ingest
// worker, so reads it awaits are serialized with every other batch.
type ProduceFunc func(ctx context.Context) ([]models.Candidate, error)

// Options configures a Pipeline.
type Options struct {
	DedupWindow     time.Duration
	SignaturePrefix int
	// MaxInlineBytes caps the data URL kept when a blob write fails. Zero
	// disables the inline fallback.
	MaxInlineBytes int
	QueueSize      int
	Now            func() time.Time
	Logger         *slog.Logger
	Metrics        *Metrics
}

type task struct {
	ctx     context.Context
	source  Source
	produce ProduceFunc
	done    chan taskResult
}

type taskResult struct {
	result Result
	err    error
}

// Pipeline is the single ingest entry point.
type Pipeline struct {
	history    History
	blobs      BlobWriter
	transcoder Transcoder
	window     time.Duration
	prefixLen  int
	maxInline  int
	now        func() time.Time
	logger     *slog.Logger
	metrics    *Metrics

	tasks    chan task
	loopDone chan struct{}
	writes   sync.WaitGroup

	closeMu   sync.RWMutex
	closed    bool
	closeOnce sync.Once

	// Owned by the worker goroutine.
	lastSig      string
	lastAccepted time.Time
}

// New constructs a Pipeline and starts its worker.
func New(history History, blobs BlobWriter, transcoder Transcoder, opts Options) (*Pipeline, error) {
	if history == nil {
		return nil, fmt.Errorf("history is required")
	}
	if opts.DedupWindow <= 0 {
		opts.DedupWindow = DefaultDedupWindow
	}
	if opts.SignaturePrefix <= 0 {
		opts.SignaturePrefix = signature.DefaultPrefixLen
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		var err error
		metrics, err = NewMetrics(nil)
		if err != nil {
			return nil, err
		}
	}

	p := &Pipeline{
		history:    history,
		blobs:      blobs,
		transcoder: transcoder,
		window:     opts.DedupWindow,
		prefixLen:  opts.SignaturePrefix,
		maxInline:  opts.MaxInlineBytes,
		now:        opts.Now,
		logger:     logger.With("component", "ingest"),
		metrics:    metrics,
		tasks:      make(chan task, opts.QueueSize),
		loopDone:   make(chan struct{}),
	}
	go p.loop()
	return p, nil
}

// Metrics returns the pipeline counters.
func (p *Pipeline) Metrics() *Metrics {
	return p.metrics
}

// Ingest queues an already normalized batch and waits for its result.
func (p *Pipeline) Ingest(ctx context.Context, candidates []models.Candidate, source Source) (Result, error) {
	return p.Submit(ctx, source, func(context.Context) ([]models.Candidate, error) {
		return candidates, nil
	})
}

// Submit queues produce and waits for the batch it yields to be ingested.
// A batch runs to completion once dequeued, even if ctx ends while waiting.
func (p *Pipeline) Submit(ctx context.Context, source Source, produce ProduceFunc) (Result, error) {
	if produce == nil {
		return Result{}, fmt.Errorf("produce is required")
	}
	t := task{ctx: ctx, source: source, produce: produce, done: make(chan taskResult, 1)}

	p.closeMu.RLock()
	if p.closed {
		p.closeMu.RUnlock()
		return Result{}, ErrClosed
	}
	p.metrics.queueDepth.Inc()
	select {
	case p.tasks <- t:
	case <-ctx.Done():
		p.metrics.queueDepth.Dec()
		p.closeMu.RUnlock()
		return Result{}, ctx.Err()
	}
	p.closeMu.RUnlock()

	select {
	case res := <-t.done:
		return res.result, res.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Close stops accepting batches, drains the queue and waits for in-flight
// blob writes.
func (p *Pipeline) Close(ctx context.Context) error {
	p.closeOnce.Do(func() {
		p.closeMu.Lock()
		p.closed = true
		close(p.tasks)
		p.closeMu.Unlock()
	})

	select {
	case <-p.loopDone:
	case <-ctx.Done():
		return fmt.Errorf("drain ingest queue: %w", ctx.Err())
	}

	done := make(chan struct{})
	go func() {
		p.writes.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for blob writes: %w", ctx.Err())
	}
}

// WaitWrites blocks until every started blob write has settled.
func (p *Pipeline) WaitWrites() {
	p.writes.Wait()
}

func (p *Pipeline) loop() {
	defer close(p.loopDone)
	for t := range p.tasks {
		p.metrics.queueDepth.Dec()
		res, err := p.run(t)
		t.done <- taskResult{result: res, err: err}
	}
}

func (p *Pipeline) run(t task) (Result, error) {
	// The caller may stop waiting; the batch itself is not cancelled.
	ctx := context.WithoutCancel(t.ctx)

	candidates, err := t.produce(ctx)
	if err != nil {
		return Result{Source: t.source}, fmt.Errorf("%s: %w", t.source, err)
	}
	res := p.process(ctx, candidates, t.source)
	p.metrics.recordBatch(t.source, res.Outcome, res.Committed)
	p.logger.Debug("batch ingested",
		"source", t.source,
		"outcome", res.Outcome.String(),
		"committed", res.Committed,
		"candidates", len(candidates),
	)
	return res, nil
}

func (p *Pipeline) process(ctx context.Context, candidates []models.Candidate, source Source) Result {
	res := Result{Outcome: OutcomeEmpty, Source: source}
	if len(candidates) == 0 {
		return res
	}

	res.Signature = signature.Batch(candidates, p.prefixLen)
	now := p.now()
	if res.Signature == p.lastSig && now.Sub(p.lastAccepted) < p.window {
		res.Outcome = OutcomeDuplicate
		return res
	}
	p.lastSig = res.Signature
	p.lastAccepted = now

	for _, candidate := range candidates {
		var (
			ok  bool
			err error
		)
		switch c := candidate.(type) {
		case models.TextCandidate:
			ok, err = p.commitText(c)
		case models.FileCandidate:
			ok, err = p.ingestFile(ctx, c)
		}
		if err != nil {
			p.logger.Warn("candidate skipped", "source", source, "error", err)
			continue
		}
		if ok {
			res.Committed++
		}
	}
	if res.Committed > 0 {
		res.Outcome = OutcomeCommitted
	}
	return res
}

func (p *Pipeline) commitText(c models.TextCandidate) (bool, error) {
	if c.Empty() {
		return false, nil
	}
	id, err := store.NewItemID()
	if err != nil {
		return false, err
	}
	p.history.InsertAtHead(models.HistoryItem{
		ID:        id,
		Kind:      models.KindText,
		CreatedAt: p.now().UnixMilli(),
		Text:      c.Plain,
		HTML:      c.HTML,
	})
	return true, nil
}
