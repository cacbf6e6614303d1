// Package session drives one long-running brief generation against the
// library service: it opens the stream, feeds the frame parser, accumulates
// output, and exposes cancellation and resumption behind an explicit state
// machine. One Session owns at most one in-flight stream; starting a new
// run aborts the previous one so requests cannot leak.
package session

import (
	"context"
	"errors"
	"io"
	"sync"

	"pustaka/client"
	"pustaka/config"
	"pustaka/stream"
	"pustaka/types"
)

// State is the lifecycle position of a session. All transitions happen
// inside the run loop or Start/Abort; callers only ever observe snapshots.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateStreaming  State = "streaming"
	StateCompleted  State = "completed"
	StateAborted    State = "aborted"
	StateFailed     State = "failed"
)

// Terminal reports whether the state is an end state.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateAborted || s == StateFailed
}

const (
	statusConnecting = "Connecting to synthesis endpoint…"
	statusGenerating = "Generating brief…"
)

// Streamer opens generation streams. *client.Library satisfies it; tests
// substitute fakes.
type Streamer interface {
	OpenSummaryStream(ctx context.Context, req types.GenerationRequest) (io.ReadCloser, error)
	OpenSynthesisStream(ctx context.Context, req types.SynthesisRequest) (io.ReadCloser, error)
}

// Result is a finished brief plus everything the terminal frame reported.
type Result struct {
	Content   string
	Stats     types.UsageStats
	Diversity *types.DiversityAnalysis
	Synthesis *types.SynthesisMetadata
}

// UpdateKind tags what changed in an Update.
type UpdateKind string

const (
	UpdateState    UpdateKind = "state"
	UpdateStatus   UpdateKind = "status"
	UpdateProgress UpdateKind = "progress"
	UpdateDelta    UpdateKind = "delta"
	UpdateDone     UpdateKind = "done"
	UpdateError    UpdateKind = "error"
)

// Update is one observer notification. Deltas may be dropped under
// backpressure; consumers needing the full text must read Snapshot or the
// final Result, never reassemble from deltas.
type Update struct {
	Kind     UpdateKind
	State    State
	Status   string
	Progress int
	Delta    string
	Result   *Result
	Err      error
}

// Snapshot is a consistent view of the session for rendering.
type Snapshot struct {
	State    State
	Status   string
	Progress int
	Content  string
	Err      error
}

type opener func(ctx context.Context, partial string) (io.ReadCloser, error)

// Session is the generation state machine. Create with NewSession; all
// methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	streamer Streamer
	updates  chan Update

	state    State
	status   string
	progress int
	content  string
	result   *Result
	err      error

	// Per-run bookkeeping. gen fences stale goroutines after an auto-abort:
	// a superseded run may still deliver buffered events, and they must not
	// touch the new run's state.
	gen    int
	cancel context.CancelFunc
	done   chan struct{}

	open          opener
	finalize      func(*Result)
	fallbackStats types.UsageStats
	resumable     bool
}

// NewSession creates an idle session bound to a streamer.
func NewSession(streamer Streamer) *Session {
	return &Session{
		streamer: streamer,
		updates:  make(chan Update, config.UpdateBufferSize),
		state:    StateIdle,
	}
}

// Updates returns the notification channel. It is never closed; a terminal
// Update (done or error kind, or an aborted state change) marks run end.
func (s *Session) Updates() <-chan Update {
	return s.updates
}

// Snapshot returns the current state, phase label, last reported progress,
// accumulated content, and error if any.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:    s.state,
		Status:   s.status,
		Progress: s.progress,
		Content:  s.content,
		Err:      s.err,
	}
}

// Result returns the finished brief once the session completed.
func (s *Session) Result() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

// Start begins a brief generation. A request without verified source
// metadata is rejected with *ValidationError before any network activity.
// Any still-running session is aborted first: the single-active-stream rule
// is enforced here, not delegated to callers.
func (s *Session) Start(req types.GenerationRequest) error {
	if len(req.Metadata) == 0 {
		return &ValidationError{Reason: "cannot generate: book is not verified"}
	}

	open := func(ctx context.Context, partial string) (io.ReadCloser, error) {
		r := req
		r.PartialContent = partial
		return s.streamer.OpenSummaryStream(ctx, r)
	}
	fallback := types.UsageStats{
		Model:        req.Model,
		Provider:     req.Provider,
		CostEstimate: types.CostEstimate{Currency: "USD", IsFree: true},
	}
	s.begin(open, nil, req.PartialContent, fallback, true)
	return nil
}

// Resume restarts a terminated run, seeding the accumulator and the
// upstream request with the content gathered so far, so the service can
// continue rather than start over.
func (s *Session) Resume() error {
	s.mu.Lock()
	if s.open == nil {
		s.mu.Unlock()
		return &ValidationError{Reason: "nothing to resume"}
	}
	if !s.state.Terminal() {
		s.mu.Unlock()
		return &ValidationError{Reason: "session is still running"}
	}
	if !s.resumable {
		s.mu.Unlock()
		return &ValidationError{Reason: "synthesis sessions cannot be resumed"}
	}
	open, finalize, fallback := s.open, s.finalize, s.fallbackStats
	partial := s.content
	s.mu.Unlock()

	s.begin(open, finalize, partial, fallback, true)
	return nil
}

// Abort requests cooperative cancellation. The read loop observes it at the
// next chunk boundary; a small amount of buffered data may still reach the
// parser first, so an Aborted session can end with a non-empty accumulator.
func (s *Session) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil && !s.state.Terminal() {
		s.cancel()
	}
}

// Wait blocks until the current run reaches a terminal state. Returns
// immediately if no run was ever started.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// begin supersedes any running run and launches a new one.
func (s *Session) begin(open opener, finalize func(*Result), partial string, fallback types.UsageStats, resumable bool) {
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if s.cancel != nil && !s.state.Terminal() {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.state = StateConnecting
	s.status = statusConnecting
	s.progress = 0
	s.content = partial
	s.result = nil
	s.err = nil
	s.open = open
	s.finalize = finalize
	s.fallbackStats = fallback
	s.resumable = resumable
	s.mu.Unlock()

	s.emit(Update{Kind: UpdateState, State: StateConnecting, Status: statusConnecting})

	go s.run(ctx, gen, done, open, partial)
}

// run is the single sequential consumer of the response body: chunks are
// parsed strictly in arrival order, and the only suspension point is the
// next body read. Cancellation is checked at every chunk boundary.
func (s *Session) run(ctx context.Context, gen int, done chan struct{}, open opener, partial string) {
	defer close(done)

	body, err := open(ctx, partial)
	if err != nil {
		if ctx.Err() != nil {
			s.finishAborted(gen)
			return
		}
		s.fail(gen, err)
		return
	}
	defer body.Close()

	parser := stream.NewParser()
	buf := make([]byte, config.StreamChunkSize)
	for {
		if ctx.Err() != nil {
			s.finishAborted(gen)
			return
		}

		n, readErr := body.Read(buf)

		// Abort wins over anything still sitting in the buffer, including a
		// done frame that was delivered but not yet parsed.
		if ctx.Err() != nil {
			s.finishAborted(gen)
			return
		}

		if n > 0 {
			for _, ev := range parser.Feed(buf[:n]) {
				s.handleEvent(gen, ev)
			}
			if parser.Terminal() {
				return
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				for _, ev := range parser.Finish() {
					s.handleEvent(gen, ev)
				}
				if !parser.Terminal() || !s.terminal(gen) {
					// End of stream without an explicit done frame is a
					// normal completion with whatever accumulated.
					s.complete(gen, stream.Completed{Stats: s.fallbackStatsFor(gen)})
				}
				return
			}
			s.fail(gen, &client.TransportError{Err: readErr})
			return
		}
	}
}

func (s *Session) handleEvent(gen int, ev stream.Event) {
	switch e := ev.(type) {
	case stream.StatusUpdate:
		s.mu.Lock()
		if gen != s.gen {
			s.mu.Unlock()
			return
		}
		s.status = e.Text
		s.mu.Unlock()
		s.emit(Update{Kind: UpdateStatus, Status: e.Text})

	case stream.ProgressUpdate:
		// Last write wins: the backend reports per-phase percentages, so a
		// later value may be lower than an earlier one.
		s.mu.Lock()
		if gen != s.gen {
			s.mu.Unlock()
			return
		}
		s.progress = e.Percent
		s.mu.Unlock()
		s.emit(Update{Kind: UpdateProgress, Progress: e.Percent})

	case stream.ContentDelta:
		s.mu.Lock()
		if gen != s.gen {
			s.mu.Unlock()
			return
		}
		if s.state == StateConnecting {
			s.state = StateStreaming
			s.status = statusGenerating
		}
		s.content += e.Text
		s.mu.Unlock()
		s.emit(Update{Kind: UpdateDelta, Delta: e.Text})

	case stream.Completed:
		s.complete(gen, e)

	case stream.ErrorFrame:
		s.fail(gen, &StreamError{Message: e.Message})
	}
}

func (s *Session) complete(gen int, done stream.Completed) {
	s.mu.Lock()
	if gen != s.gen || s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	stats := done.Stats
	if stats.Model == "" {
		stats.Model = s.fallbackStats.Model
	}
	if stats.Provider == "" {
		stats.Provider = s.fallbackStats.Provider
	}
	result := &Result{
		Content:   s.content,
		Stats:     stats,
		Diversity: done.Diversity,
		Synthesis: done.Synthesis,
	}
	if s.finalize != nil {
		s.finalize(result)
	}
	s.state = StateCompleted
	s.status = "Done"
	s.result = result
	s.mu.Unlock()

	s.emit(Update{Kind: UpdateDone, State: StateCompleted, Result: result})
}

func (s *Session) fail(gen int, err error) {
	s.mu.Lock()
	if gen != s.gen || s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	// Partial output is preserved so a resume can pick up from here.
	s.state = StateFailed
	s.err = err
	s.mu.Unlock()

	s.emit(Update{Kind: UpdateError, State: StateFailed, Err: err})
}

func (s *Session) finishAborted(gen int) {
	s.mu.Lock()
	if gen != s.gen || s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	s.state = StateAborted
	s.status = "Stopped by user"
	s.mu.Unlock()

	s.emit(Update{Kind: UpdateState, State: StateAborted, Status: "Stopped by user"})
}

func (s *Session) terminal(gen int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.gen && s.state.Terminal()
}

func (s *Session) fallbackStatsFor(gen int) types.UsageStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fallbackStats
}

// emit never blocks the read loop; when the consumer lags, updates are
// dropped and the UI catches up from Snapshot.
func (s *Session) emit(u Update) {
	select {
	case s.updates <- u:
	default:
	}
}
