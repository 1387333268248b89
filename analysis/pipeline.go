package analysis

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/andrewpols/FindMySound/catalog"
	"github.com/andrewpols/FindMySound/findmysound"
)

const (
	defaultWorkers     = 3
	defaultPace        = 2 * time.Second
	defaultCallTimeout = 30 * time.Second
	defaultMaxAttempts = 5
)

// Config tunes one pipeline. Zero values fall back to defaults.
type Config struct {
	// Workers is the fixed pool size. Small on purpose: large enough to
	// parallelize network latency, small enough to respect provider quotas.
	Workers int
	// Pace is the mandatory delay each worker observes after every attempt,
	// throttled or not.
	Pace time.Duration
	// CallTimeout bounds one analysis attempt end to end.
	CallTimeout time.Duration
	// MaxAttempts caps how often a rate-limited song is re-queued before it
	// counts as permanently failed. The first attempt counts.
	MaxAttempts int
}

// Failure reports one song that could not be analyzed.
type Failure struct {
	Song   *findmysound.Song
	Reason string
}

// BatchResult accounts for every submitted song: each one either carries a
// feature vector in Songs, sits in Failed, or both (when failures are kept
// in the working set).
type BatchResult struct {
	// Songs is the working set after the run, in submission order. With
	// removeFailures, failed songs are dropped from it.
	Songs []*findmysound.Song
	// Failed lists the songs that ended without a vector.
	Failed []Failure
}

// Pipeline drains a queue of songs through a fixed pool of workers, calling
// the analyzer once per attempt. Rate-limited songs are re-queued at the
// back after the advertised delay; permanent failures are reported and never
// retried. Songs that already carry a vector pass through untouched.
type Pipeline struct {
	analyzer SongAnalyzer
	store    catalog.Store
	log      *zap.SugaredLogger
	cfg      Config
}

// NewPipeline builds a pipeline. store may be nil; computed vectors are then
// only attached in memory.
func NewPipeline(analyzer SongAnalyzer, store catalog.Store, log *zap.SugaredLogger, cfg Config) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Pace <= 0 {
		cfg.Pace = defaultPace
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	return &Pipeline{analyzer: analyzer, store: store, log: log, cfg: cfg}
}

type task struct {
	song     *findmysound.Song
	attempts int
}

// Run processes the batch and blocks until every song reached a terminal
// state. Completion order across workers is unspecified; the result is
// reconciled back into submission order by song identity.
func (p *Pipeline) Run(ctx context.Context, songs []*findmysound.Song, removeFailures bool) (*BatchResult, error) {
	sink := newResultSink()

	var tasks []*task
	for _, song := range songs {
		// Vectors are immutable once computed; never re-request analysis.
		if song.HasFeatures() {
			continue
		}
		tasks = append(tasks, &task{song: song})
	}

	if len(tasks) > 0 {
		queue := newTaskQueue(tasks)

		finished := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				queue.close()
			case <-finished:
			}
		}()

		var wg sync.WaitGroup
		for i := 0; i < p.cfg.Workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				p.worker(ctx, queue, sink)
			}()
		}
		wg.Wait()
		close(finished)

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	return p.assemble(songs, sink, removeFailures), nil
}

// worker pulls tasks until the queue reports the batch drained.
func (p *Pipeline) worker(ctx context.Context, queue *taskQueue, sink *resultSink) {
	for {
		t, ok := queue.pop()
		if !ok {
			return
		}

		t.attempts++
		outcome := p.attempt(ctx, t.song)

		switch outcome.Kind {
		case Analyzed:
			sink.succeed(t.song.ISRC, outcome.Features)
			if p.store != nil {
				if err := p.store.SaveFeatures(ctx, t.song.ISRC, outcome.Features); err != nil {
					p.log.Warnw("failed to persist features", "isrc", t.song.ISRC, "error", err)
				}
			}
			queue.done()

		case RateLimited:
			if t.attempts >= p.cfg.MaxAttempts {
				p.log.Warnw("analysis attempts exhausted", "isrc", t.song.ISRC, "attempts", t.attempts)
				sink.fail(t.song.ISRC, "rate limited, attempts exhausted")
				queue.done()
				break
			}
			p.log.Infow("rate limited, waiting", "isrc", t.song.ISRC, "retry_after", outcome.RetryAfter)
			if err := sleepContext(ctx, outcome.RetryAfter); err != nil {
				sink.fail(t.song.ISRC, "canceled")
				queue.done()
				return
			}
			// Back of the queue; not a terminal state, so no done().
			queue.push(t)

		default:
			p.log.Infow("song skipped", "isrc", t.song.ISRC, "reason", outcome.Reason)
			sink.fail(t.song.ISRC, outcome.Reason)
			queue.done()
		}

		// Steady-state pacing between requests, even without 429s.
		if err := sleepContext(ctx, p.cfg.Pace); err != nil {
			return
		}
	}
}

// attempt runs one bounded analyzer call. A timed-out or failed call is a
// permanent failure for this attempt; it must never hang the worker.
func (p *Pipeline) attempt(ctx context.Context, song *findmysound.Song) Outcome {
	callCtx, cancel := context.WithTimeout(ctx, p.cfg.CallTimeout)
	defer cancel()

	outcome, err := p.analyzer.AnalyzeSong(callCtx, song)
	if err != nil {
		return Outcome{Kind: Failed, Reason: "analysis attempt: " + err.Error()}
	}
	return outcome
}

// assemble attaches vectors and rebuilds the working set in submission order.
func (p *Pipeline) assemble(songs []*findmysound.Song, sink *resultSink, removeFailures bool) *BatchResult {
	result := &BatchResult{}

	for _, song := range songs {
		if song.HasFeatures() {
			result.Songs = append(result.Songs, song)
			continue
		}

		if v, ok := sink.features[song.ISRC]; ok {
			vec := v
			song.Features = &vec
			result.Songs = append(result.Songs, song)
			continue
		}

		reason, ok := sink.failures[song.ISRC]
		if !ok {
			reason = "not processed"
		}
		result.Failed = append(result.Failed, Failure{Song: song, Reason: reason})
		if !removeFailures {
			result.Songs = append(result.Songs, song)
		}
	}

	return result
}

// resultSink is the only state shared between workers besides the queue.
// Workers never mutate songs in flight; vectors are attached after the join.
type resultSink struct {
	mu       sync.Mutex
	features map[string]findmysound.FeatureVector
	failures map[string]string
}

func newResultSink() *resultSink {
	return &resultSink{
		features: make(map[string]findmysound.FeatureVector),
		failures: make(map[string]string),
	}
}

func (s *resultSink) succeed(isrc string, v findmysound.FeatureVector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.features[isrc] = v
	delete(s.failures, isrc)
}

func (s *resultSink) fail(isrc, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[isrc] = reason
}

// taskQueue is a FIFO queue with join semantics: the batch is drained once
// every submitted task reached a terminal state, at which point blocked and
// future pops return false and workers exit.
type taskQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []*task
	pending int
	drained bool
}

func newTaskQueue(tasks []*task) *taskQueue {
	q := &taskQueue{
		items:   append([]*task(nil), tasks...),
		pending: len(tasks),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push re-enqueues a task at the back. The task stays pending.
func (q *taskQueue) push(t *task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.drained {
		return
	}
	q.items = append(q.items, t)
	q.cond.Signal()
}

// pop blocks until a task is available or the batch is drained.
func (q *taskQueue) pop() (*task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.drained {
		q.cond.Wait()
	}
	if q.drained && len(q.items) == 0 {
		return nil, false
	}
	t := q.items[0]
	q.items = q.items[1:]
	return t, true
}

// done marks one task terminal. The last one drains the queue and releases
// every waiting worker.
func (q *taskQueue) done() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending--
	if q.pending <= 0 {
		q.drained = true
		q.cond.Broadcast()
	}
}

// close drains the queue immediately (cancellation path).
func (q *taskQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.drained = true
	q.items = nil
	q.cond.Broadcast()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
