// Package batch synthesizes many documents concurrently with a bounded
// number of in-flight runs, optionally recording each run in the ledger.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/danielpatrickdp/correction-synth/internal/integrity"
	"github.com/danielpatrickdp/correction-synth/internal/ledger"
	"github.com/danielpatrickdp/correction-synth/internal/logging"
	"github.com/danielpatrickdp/correction-synth/internal/synthesis"
)

// DefaultWorkers is the in-flight bound when none is configured.
const DefaultWorkers = 4

// #region types

// Synthesizer runs one synthesis. *synthesis.Engine implements it.
type Synthesizer interface {
	Synthesize(ctx context.Context, req synthesis.Request) synthesis.Result
}

// Recorder persists a finished run. *ledger.Store implements it.
type Recorder interface {
	RecordRun(res synthesis.Result, meta ledger.RunMeta) (ledger.RunRecord, error)
}

// Item is one document to synthesize.
type Item struct {
	ID      string            `json:"id"`
	Request synthesis.Request `json:"request"`
}

// Outcome is the result for one Item. Err is set when the item never ran
// or its ledger write failed; Result is still populated in the latter case.
type Outcome struct {
	ID     string           `json:"id"`
	Result synthesis.Result `json:"result"`
	RunID  string           `json:"run_id,omitempty"`
	Err    error            `json:"-"`
}

// #endregion types

// #region runner

// Runner fans items out over a weighted semaphore.
type Runner struct {
	synth      Synthesizer
	sem        *semaphore.Weighted
	workers    int
	recorder   Recorder
	thresholds integrity.Config
	logger     *logging.Logger

	recordMu sync.Mutex
}

// Option configures a Runner.
type Option func(*Runner)

// WithRecorder stores every finished run.
func WithRecorder(r Recorder, thresholds integrity.Config) Option {
	return func(b *Runner) {
		b.recorder = r
		b.thresholds = thresholds
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(b *Runner) {
		if l != nil {
			b.logger = l.WithTag("BATCH")
		}
	}
}

// NewRunner creates a Runner allowing at most workers concurrent syntheses.
func NewRunner(s Synthesizer, workers int, opts ...Option) *Runner {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	r := &Runner{
		synth:   s,
		sem:     semaphore.NewWeighted(int64(workers)),
		workers: workers,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run synthesizes every item and returns outcomes in input order. Items that
// could not start before ctx ended carry ctx's error.
func (r *Runner) Run(ctx context.Context, items []Item) []Outcome {
	out := make([]Outcome, len(items))
	var wg sync.WaitGroup

	r.logger.Info("starting %d item(s) with %d worker(s)", len(items), r.workers)
	for i, it := range items {
		out[i].ID = it.ID
		if err := r.sem.Acquire(ctx, 1); err != nil {
			for j := i; j < len(items); j++ {
				out[j].ID = items[j].ID
				out[j].Err = fmt.Errorf("item %s not started: %w", items[j].ID, err)
			}
			r.logger.Warn("stopped after %d of %d item(s): %v", i, len(items), err)
			break
		}
		wg.Add(1)
		go func(i int, it Item) {
			defer wg.Done()
			defer r.sem.Release(1)
			out[i] = r.runOne(ctx, it)
		}(i, it)
	}
	wg.Wait()
	return out
}

func (r *Runner) runOne(ctx context.Context, it Item) Outcome {
	o := Outcome{ID: it.ID, Result: r.synth.Synthesize(ctx, it.Request)}
	r.logger.Debug("item %s: status=%s corrections=%d", it.ID, o.Result.Status, len(o.Result.Corrections))
	if r.recorder == nil {
		return o
	}

	r.recordMu.Lock()
	rec, err := r.recorder.RecordRun(o.Result, ledger.RunMeta{
		DocumentType: it.Request.Metadata.DocumentType,
		Thresholds:   r.thresholds,
	})
	r.recordMu.Unlock()

	o.RunID = rec.RunID
	if err != nil {
		if errors.Is(err, ledger.ErrNondeterministic) {
			r.logger.Warn("item %s: %v", it.ID, err)
		} else {
			r.logger.Error("item %s: record run: %v", it.ID, err)
		}
		o.Err = err
	}
	return o
}

// #endregion runner

// #region summary

// Summary counts outcomes by status.
type Summary struct {
	Total    int
	Failed   int
	ByStatus map[synthesis.Status]int
}

// Summarize aggregates outcomes. Every outcome with Err counts as Failed;
// only items that actually ran are counted by status.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes), ByStatus: make(map[synthesis.Status]int)}
	for _, o := range outcomes {
		if o.Err != nil {
			s.Failed++
		}
		if o.Result.Status != "" {
			s.ByStatus[o.Result.Status]++
		}
	}
	return s
}

// #endregion summary
