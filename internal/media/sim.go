package media

import (
	"context"
	"sync"
	"time"
)

// defaultChapterDuration is the synthetic duration reported for sources when
// no DurationFor probe is configured. Typical audio-story chapters run about
// twenty minutes.
const defaultChapterDuration = 20 * 60

// SimOptions configures a simulated element.
type SimOptions struct {
	// DurationFor reports the duration of a source URL once its metadata
	// "loads". Defaults to a fixed chapter-length duration.
	DurationFor func(url string) float64
	// LoadDelay is how long metadata takes to load after SetSource.
	// Ignored when Manual is set.
	LoadDelay time.Duration
	// Manual disables automatic metadata loading; the owner drives the
	// element with CompleteLoad and AdvanceBy. Used by tests.
	Manual bool
}

// Sim is a clock-driven Element: while playing, its position advances with
// wall time scaled by the playback rate. It is the daemon's default engine
// and the test double for the session controller.
type Sim struct {
	mu          sync.Mutex
	opts        SimOptions
	src         string
	pos         float64
	dur         float64
	rate        float64
	vol         float64
	playing     bool
	ready       bool
	handlers    Handlers
	pendingPlay chan error
	loadTimer   *time.Timer
}

var _ Element = (*Sim)(nil)

// NewSim creates a simulated element.
func NewSim(opts SimOptions) *Sim {
	if opts.DurationFor == nil {
		opts.DurationFor = func(string) float64 { return defaultChapterDuration }
	}
	return &Sim{
		opts: opts,
		rate: 1.0,
		vol:  1.0,
	}
}

// Start runs the element clock until ctx is cancelled, advancing the position
// while playing and firing time-update and ended events.
func (s *Sim) Start(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = 250 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			s.AdvanceBy(now.Sub(last).Seconds())
			last = now
		case <-ctx.Done():
			return
		}
	}
}

// SetSource implements Element. Setting the current URL again is a no-op so a
// reused resource keeps its loaded metadata.
func (s *Sim) SetSource(url string) {
	s.mu.Lock()
	if url == s.src {
		s.mu.Unlock()
		return
	}

	s.abortPendingLocked()
	if s.loadTimer != nil {
		s.loadTimer.Stop()
		s.loadTimer = nil
	}

	s.src = url
	s.pos = 0
	s.dur = 0
	s.ready = false
	s.playing = false

	if url == "" || s.opts.Manual {
		s.mu.Unlock()
		return
	}

	s.loadTimer = time.AfterFunc(s.opts.LoadDelay, s.CompleteLoad)
	s.mu.Unlock()
}

// Source implements Element.
func (s *Sim) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src
}

// CompleteLoad marks the current source's metadata as loaded and fires the
// metadata-ready event. Safe to call more than once; subsequent calls are
// no-ops until the source changes.
func (s *Sim) CompleteLoad() {
	s.mu.Lock()
	if s.ready || s.src == "" {
		s.mu.Unlock()
		return
	}

	s.dur = s.opts.DurationFor(s.src)
	s.ready = true

	// A play request that arrived before metadata resolves now.
	if s.pendingPlay != nil {
		s.playing = true
		s.pendingPlay <- nil
		s.pendingPlay = nil
	}

	onReady := s.handlers.MetadataReady
	s.mu.Unlock()

	if onReady != nil {
		onReady()
	}
}

// Position implements Element.
func (s *Sim) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

// SetPosition implements Element. The position is clamped to the known
// duration the way a real engine clamps at the ends of the source.
func (s *Sim) SetPosition(seconds float64) {
	s.mu.Lock()
	if seconds < 0 {
		seconds = 0
	}
	if s.ready && seconds > s.dur {
		seconds = s.dur
	}
	s.pos = seconds
	onTime := s.handlers.TimeUpdate
	pos := s.pos
	s.mu.Unlock()

	if onTime != nil {
		onTime(pos)
	}
}

// Duration implements Element.
func (s *Sim) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dur
}

// MetadataReady implements Element.
func (s *Sim) MetadataReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Play implements Element. When metadata is not yet loaded the request stays
// pending until the load completes, the request is superseded, or ctx ends.
func (s *Sim) Play(ctx context.Context) error {
	s.mu.Lock()
	if s.src == "" {
		s.mu.Unlock()
		return ErrNoSource
	}
	if s.ready {
		s.playing = true
		s.mu.Unlock()
		return nil
	}

	s.abortPendingLocked()
	ch := make(chan error, 1)
	s.pendingPlay = ch
	s.mu.Unlock()

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pause implements Element.
func (s *Sim) Pause() {
	s.mu.Lock()
	s.playing = false
	s.abortPendingLocked()
	s.mu.Unlock()
}

// Playing implements Element.
func (s *Sim) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// SetRate implements Element.
func (s *Sim) SetRate(rate float64) {
	s.mu.Lock()
	if rate > 0 {
		s.rate = rate
	}
	s.mu.Unlock()
}

// Rate implements Element.
func (s *Sim) Rate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

// SetVolume implements Element.
func (s *Sim) SetVolume(volume float64) {
	s.mu.Lock()
	switch {
	case volume < 0:
		s.vol = 0
	case volume > 1:
		s.vol = 1
	default:
		s.vol = volume
	}
	s.mu.Unlock()
}

// Volume implements Element.
func (s *Sim) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vol
}

// SetHandlers implements Element.
func (s *Sim) SetHandlers(h Handlers) {
	s.mu.Lock()
	s.handlers = h
	s.mu.Unlock()
}

// ClearHandlers implements Element.
func (s *Sim) ClearHandlers() {
	s.mu.Lock()
	s.handlers = Handlers{}
	s.mu.Unlock()
}

// AdvanceBy moves the clock forward by the given wall-time seconds. The
// position advances by seconds scaled by the playback rate; reaching the end
// of the source stops playback and fires the ended event.
func (s *Sim) AdvanceBy(seconds float64) {
	s.mu.Lock()
	if !s.playing || !s.ready {
		s.mu.Unlock()
		return
	}

	s.pos += seconds * s.rate
	ended := false
	if s.pos >= s.dur {
		s.pos = s.dur
		s.playing = false
		ended = true
	}

	pos := s.pos
	onTime := s.handlers.TimeUpdate
	onEnded := s.handlers.Ended
	s.mu.Unlock()

	if onTime != nil {
		onTime(pos)
	}
	if ended && onEnded != nil {
		onEnded()
	}
}

// abortPendingLocked rejects a pending play request. Caller holds s.mu.
func (s *Sim) abortPendingLocked() {
	if s.pendingPlay != nil {
		s.pendingPlay <- ErrAborted
		s.pendingPlay = nil
	}
}
