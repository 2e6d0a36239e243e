package player

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/audiotruyenapp/audiotruyen-player/internal/config"
	"github.com/audiotruyenapp/audiotruyen-player/internal/domain"
	apperrors "github.com/audiotruyenapp/audiotruyen-player/internal/errors"
	"github.com/audiotruyenapp/audiotruyen-player/internal/media"
	"github.com/audiotruyenapp/audiotruyen-player/internal/progress"
)

// Recorder receives finished listening segments for the history journal.
// The controller leaves ID and timestamps stamping to the implementation.
type Recorder interface {
	Record(ctx context.Context, ev domain.ListeningEvent) error
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, domain.ListeningEvent) error { return nil }

// Options configures a Controller. Element is required; everything else has a
// working default (no-op store, recorder, and emitter).
type Options struct {
	Element media.Element
	Store   progress.Store
	Journal Recorder
	Emitter Emitter
	Logger  *slog.Logger
	Policy  config.PlayerConfig
}

// Controller owns the playback session. It holds the session state, applies
// every mutation through the reducer, mirrors transport decisions onto the
// media element, persists checkpoints, and feeds the event emitter.
//
// Locking discipline: state reads and reducer dispatches happen under mu;
// element calls that fire events synchronously (SetPosition) are made with mu
// released, because the element calls handlers back into the controller.
type Controller struct {
	el      media.Element
	store   progress.Store
	journal Recorder
	emitter Emitter
	logger  *slog.Logger
	policy  config.PlayerConfig

	mu    sync.Mutex
	state SessionState

	// autoPlayPending marks that playback should start as soon as the current
	// source's metadata is ready. Set on chapter switches, consumed exactly
	// once by onMetadataReady.
	autoPlayPending bool

	// Listening segment in flight, if any. Opened when playback starts,
	// closed on pause, ended, chapter switch, or shutdown.
	segOpen      bool
	segChapter   int
	segStartPos  float64
	segStartedAt time.Time
	segRate      float64

	toastTimer *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
}

// NewController creates a controller. Call Start before using it.
func NewController(opts Options) *Controller {
	if opts.Store == nil {
		opts.Store = progress.NewNoop()
	}
	if opts.Journal == nil {
		opts.Journal = nopRecorder{}
	}
	if opts.Emitter == nil {
		opts.Emitter = nopEmitter{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Controller{
		el:      opts.Element,
		store:   opts.Store,
		journal: opts.Journal,
		emitter: opts.Emitter,
		logger:  opts.Logger,
		policy:  opts.Policy,
		state:   InitialState(),
	}
}

// Start binds the controller to its element and launches the checkpoint loop.
// The controller runs until Stop or until ctx is cancelled.
func (c *Controller) Start(ctx context.Context) {
	c.ctx, c.cancel = context.WithCancel(ctx)

	c.el.SetHandlers(media.Handlers{
		MetadataReady: c.onMetadataReady,
		TimeUpdate:    c.onTimeUpdate,
		Ended:         c.onEnded,
	})

	if c.policy.CheckpointInterval > 0 {
		go c.checkpointLoop(c.ctx)
	}
}

// Stop detaches the controller from its element, closes any open listening
// segment, and persists a final checkpoint.
func (c *Controller) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.el.ClearHandlers()
	c.el.Pause()

	c.mu.Lock()
	c.stopToastTimerLocked()
	seg, segOK := c.closeSegmentLocked(c.state.CurrentTime)
	c.state = Reduce(c.state, SetPlaying{Playing: false})
	snap := c.state
	c.mu.Unlock()

	if segOK {
		c.recordSegment(seg)
	}
	if snap.HasStory() && snap.CurrentTime > c.policy.CheckpointMinSeconds {
		c.saveCheckpoint(context.Background(), snap)
	}
}

// State returns a snapshot of the session state.
func (c *Controller) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetStory loads a story into the session. Loading the story that is already
// loaded is a no-op: the session keeps its chapter, position, and transport
// state. Loading a different story resets the session to chapter 1, paused,
// and offers to resume from a stored checkpoint when one is worth resuming.
func (c *Controller) SetStory(ctx context.Context, story domain.Story) error {
	c.mu.Lock()
	if c.state.StoryID == story.ID {
		c.mu.Unlock()
		return nil
	}

	seg, segOK := c.closeSegmentLocked(c.state.CurrentTime)
	c.stopToastTimerLocked()
	c.autoPlayPending = false

	c.state = Reduce(c.state, SetStory{Story: story})
	c.state = Reduce(c.state, SetPlaying{Playing: false})
	c.state = Reduce(c.state, SetCurrentTime{Seconds: 0})
	c.state = Reduce(c.state, SetDuration{Seconds: 0})
	c.state = Reduce(c.state, SetPendingSeek{Seconds: nil})
	url := c.state.CurrentAudioURL
	rate := c.state.PlaybackRate
	vol := c.state.Volume
	c.mu.Unlock()

	if segOK {
		c.recordSegment(seg)
	}

	c.el.Pause()
	c.el.SetSource(url)
	c.el.SetRate(rate)
	c.el.SetVolume(vol)

	c.offerResume(ctx, story.ID)
	c.emitState()
	return nil
}

// offerResume surfaces a resume toast when a stored checkpoint for the story
// clears the configured thresholds.
func (c *Controller) offerResume(ctx context.Context, storyID int64) {
	p, err := c.store.GetProgress(ctx, storyID)
	if err != nil {
		if !errors.Is(err, progress.ErrProgressNotFound) {
			c.logger.Warn("failed to load stored progress", "story_id", storyID, "error", err)
		}
		return
	}
	if !p.WorthResuming(c.policy.ResumeMinChapter, c.policy.ResumeMinSeconds) {
		return
	}

	c.mu.Lock()
	if c.state.StoryID != storyID {
		c.mu.Unlock()
		return
	}
	c.state = Reduce(c.state, ShowResumeToast{Progress: *p})
	c.stopToastTimerLocked()
	if c.policy.ResumeToastTimeout > 0 {
		c.toastTimer = time.AfterFunc(c.policy.ResumeToastTimeout, c.HideResumeToast)
	}
	c.mu.Unlock()

	c.emitter.Emit(ResumeOffered{Progress: *p})
}

// Play requests playback start. The playing flag flips optimistically; if the
// engine rejects the request with anything other than a supersede, the flag
// reverts and the failure is logged.
func (c *Controller) Play() {
	c.mu.Lock()
	if c.state.Playing {
		c.mu.Unlock()
		return
	}
	c.state = Reduce(c.state, SetPlaying{Playing: true})
	c.mu.Unlock()

	c.emitState()
	c.startPlay()
}

// startPlay issues the asynchronous element play request. Callers must have
// already flipped the playing flag.
func (c *Controller) startPlay() {
	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	go func() {
		err := c.el.Play(ctx)
		if err != nil {
			// A superseded request means a newer intent already owns the
			// transport; nothing to reconcile.
			if errors.Is(err, media.ErrAborted) || errors.Is(err, context.Canceled) {
				return
			}
			c.logger.Warn("play request failed", "error", err)
			c.mu.Lock()
			c.state = Reduce(c.state, SetPlaying{Playing: false})
			c.mu.Unlock()
			c.emitState()
			return
		}

		c.mu.Lock()
		c.openSegmentLocked(c.el.Position())
		c.mu.Unlock()
	}()
}

// Pause stops playback and eagerly persists a checkpoint when enough of the
// chapter has been heard.
func (c *Controller) Pause() {
	c.mu.Lock()
	if !c.state.Playing {
		c.mu.Unlock()
		return
	}
	c.state = Reduce(c.state, SetPlaying{Playing: false})
	seg, segOK := c.closeSegmentLocked(c.state.CurrentTime)
	snap := c.state
	c.mu.Unlock()

	c.el.Pause()

	if segOK {
		c.recordSegment(seg)
	}
	if snap.CurrentTime > c.policy.CheckpointMinSeconds {
		c.saveCheckpoint(context.Background(), snap)
	}
	c.emitState()
}

// TogglePlay flips between Play and Pause.
func (c *Controller) TogglePlay() {
	c.mu.Lock()
	playing := c.state.Playing
	c.mu.Unlock()

	if playing {
		c.Pause()
	} else {
		c.Play()
	}
}

// Seek moves the playback position. No clamping happens here; the element
// clamps at the ends of the source.
func (c *Controller) Seek(seconds float64) {
	c.el.SetPosition(seconds)
}

// Skip moves the position by delta seconds relative to the element's live
// position, clamped to [0, duration]. Before metadata loads the duration is 0
// and every skip lands on 0.
func (c *Controller) Skip(delta float64) {
	target := clamp(c.el.Position()+delta, 0, c.el.Duration())
	c.el.SetPosition(target)
}

// SetChapter switches to a chapter by number and arms auto-play: the new
// chapter starts as soon as its metadata is ready. A number with no matching
// chapter leaves an empty source and the play attempt fails at the element.
func (c *Controller) SetChapter(number int) error {
	c.mu.Lock()
	if !c.state.HasStory() {
		c.mu.Unlock()
		return apperrors.Validation("no story loaded")
	}

	seg, segOK := c.closeSegmentLocked(c.state.CurrentTime)
	c.state = Reduce(c.state, SetChapter{Number: number})
	c.state = Reduce(c.state, SetCurrentTime{Seconds: 0})
	c.state = Reduce(c.state, SetDuration{Seconds: 0})
	c.autoPlayPending = true
	url := c.state.CurrentAudioURL
	storyID := c.state.StoryID
	c.mu.Unlock()

	if segOK {
		c.recordSegment(seg)
	}

	c.el.Pause()
	c.el.SetSource(url)

	c.emitter.Emit(ChapterChanged{StoryID: storyID, Chapter: number})
	c.emitState()

	// Same-URL source reuse keeps metadata loaded; the ready event already
	// fired for this resource, so run the ready path directly.
	if c.el.MetadataReady() {
		c.onMetadataReady()
	}
	return nil
}

// NextChapter advances to the following chapter when one exists.
func (c *Controller) NextChapter() error {
	c.mu.Lock()
	next := c.state.SelectedChapter + 1
	ok := chapterExists(c.state, next)
	c.mu.Unlock()

	if !ok {
		return apperrors.NotFound("no next chapter")
	}
	return c.SetChapter(next)
}

// PreviousChapter steps back to the preceding chapter when one exists.
func (c *Controller) PreviousChapter() error {
	c.mu.Lock()
	prev := c.state.SelectedChapter - 1
	ok := chapterExists(c.state, prev)
	c.mu.Unlock()

	if !ok {
		return apperrors.NotFound("no previous chapter")
	}
	return c.SetChapter(prev)
}

// SetPlaybackRate applies a playback rate from the configured set and closes
// the speed menu. Rates outside the set are rejected.
func (c *Controller) SetPlaybackRate(rate float64) error {
	if !c.policy.RateAllowed(rate) {
		return apperrors.Validationf("playback rate %.2f is not allowed", rate)
	}

	c.mu.Lock()
	c.state = Reduce(c.state, SetPlaybackRate{Rate: rate})
	c.mu.Unlock()

	c.el.SetRate(rate)
	c.emitState()
	return nil
}

// SetVolume applies a volume in [0, 1]; out-of-range values clamp.
func (c *Controller) SetVolume(volume float64) {
	c.mu.Lock()
	c.state = Reduce(c.state, SetVolume{Volume: volume})
	vol := c.state.Volume
	c.mu.Unlock()

	c.el.SetVolume(vol)
	c.emitState()
}

// ToggleSpeedMenu flips the speed menu visibility flag.
func (c *Controller) ToggleSpeedMenu() {
	c.mu.Lock()
	c.state = Reduce(c.state, ToggleSpeedMenu{})
	c.mu.Unlock()
	c.emitState()
}

// HideResumeToast dismisses the resume offer without acting on it.
func (c *Controller) HideResumeToast() {
	c.mu.Lock()
	if !c.state.ShowResumeToast {
		c.mu.Unlock()
		return
	}
	c.state = Reduce(c.state, HideResumeToast{})
	c.stopToastTimerLocked()
	c.mu.Unlock()

	c.emitter.Emit(ResumeHidden{})
	c.emitState()
}

// HandleResume acts on the offered checkpoint. The toast dismisses
// immediately. A checkpoint on the already-selected chapter seeks in place and
// plays; one on another chapter parks the seek as pending and switches
// chapters, so the seek lands before playback starts.
func (c *Controller) HandleResume() {
	c.mu.Lock()
	resume := c.state.ResumeData
	if resume == nil {
		c.mu.Unlock()
		return
	}
	target := *resume
	c.state = Reduce(c.state, HideResumeToast{})
	c.stopToastTimerLocked()
	sameChapter := target.ChapterNumber == c.state.SelectedChapter
	if !sameChapter {
		seconds := target.TimestampSeconds
		c.state = Reduce(c.state, SetPendingSeek{Seconds: &seconds})
	}
	c.mu.Unlock()

	c.emitter.Emit(ResumeHidden{})

	if sameChapter {
		c.Seek(target.TimestampSeconds)
		c.Play()
		return
	}
	if err := c.SetChapter(target.ChapterNumber); err != nil {
		c.logger.Warn("resume chapter switch failed", "chapter", target.ChapterNumber, "error", err)
	}
}

// Reset unloads the session entirely.
func (c *Controller) Reset() {
	c.mu.Lock()
	seg, segOK := c.closeSegmentLocked(c.state.CurrentTime)
	c.stopToastTimerLocked()
	c.autoPlayPending = false
	c.state = Reduce(c.state, Reset{})
	c.mu.Unlock()

	if segOK {
		c.recordSegment(seg)
	}

	c.el.Pause()
	c.el.SetSource("")
	c.emitState()
}

// onMetadataReady runs when the current source's duration becomes known. The
// pending seek, if any, applies before playback starts so the first playing
// position a listener observes is the resume target, never zero. Safe to run
// more than once per load; the seek and the auto-play each consume exactly
// once.
func (c *Controller) onMetadataReady() {
	dur := c.el.Duration()

	c.mu.Lock()
	c.state = Reduce(c.state, SetDuration{Seconds: dur})
	var seek *float64
	if c.state.PendingSeek != nil {
		s := *c.state.PendingSeek
		seek = &s
		c.state = Reduce(c.state, SetPendingSeek{Seconds: nil})
	}
	shouldPlay := c.autoPlayPending
	c.autoPlayPending = false
	if shouldPlay {
		c.state = Reduce(c.state, SetPlaying{Playing: true})
	}
	c.mu.Unlock()

	if seek != nil {
		c.el.SetPosition(*seek)
	}
	if shouldPlay {
		c.startPlay()
	}
	c.emitState()
}

// onTimeUpdate mirrors the element position into the session state.
func (c *Controller) onTimeUpdate(position float64) {
	c.mu.Lock()
	c.state = Reduce(c.state, SetCurrentTime{Seconds: position})
	c.mu.Unlock()
	c.emitState()
}

// onEnded handles end of chapter: advance to the next chapter when the story
// has one, otherwise stay paused at the end.
func (c *Controller) onEnded() {
	c.mu.Lock()
	seg, segOK := c.closeSegmentLocked(c.state.CurrentTime)
	c.state = Reduce(c.state, SetPlaying{Playing: false})
	next := c.state.SelectedChapter + 1
	hasNext := chapterExists(c.state, next)
	snap := c.state
	c.mu.Unlock()

	if segOK {
		c.recordSegment(seg)
	}

	if hasNext {
		if err := c.SetChapter(next); err != nil {
			c.logger.Warn("auto-advance failed", "chapter", next, "error", err)
		}
		return
	}

	// Story finished. Persist the terminal position so a later visit offers
	// to resume at the end rather than mid-chapter.
	if snap.HasStory() {
		c.saveCheckpoint(context.Background(), snap)
	}
	c.emitState()
}

// checkpointLoop persists progress periodically while playing.
func (c *Controller) checkpointLoop(ctx context.Context) {
	ticker := time.NewTicker(c.policy.CheckpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			snap := c.state
			c.mu.Unlock()

			if snap.Playing && snap.HasStory() && snap.CurrentTime > c.policy.CheckpointMinSeconds {
				c.saveCheckpoint(ctx, snap)
			}
		case <-ctx.Done():
			return
		}
	}
}

// saveCheckpoint persists the snapshot's position and announces it. Failures
// are logged, never surfaced; persistence is best-effort.
func (c *Controller) saveCheckpoint(ctx context.Context, snap SessionState) {
	p := domain.PlaybackProgress{
		StoryID:          snap.StoryID,
		ChapterNumber:    snap.SelectedChapter,
		TimestampSeconds: snap.CurrentTime,
		StoryTitle:       snap.StoryTitle,
		StorySlug:        snap.StorySlug,
		CoverURL:         snap.CoverURL,
	}
	if err := c.store.SaveProgress(ctx, p); err != nil {
		c.logger.Warn("failed to save playback checkpoint", "story_id", p.StoryID, "error", err)
		return
	}
	p.Touch()
	c.emitter.Emit(CheckpointSaved{Progress: p})
}

// openSegmentLocked starts a listening segment at the given position.
// Caller holds mu.
func (c *Controller) openSegmentLocked(position float64) {
	c.segOpen = true
	c.segChapter = c.state.SelectedChapter
	c.segStartPos = position
	c.segStartedAt = time.Now()
	c.segRate = c.state.PlaybackRate
}

// closeSegmentLocked closes the in-flight listening segment, if any, ending
// at the given position. Caller holds mu.
func (c *Controller) closeSegmentLocked(endPos float64) (domain.ListeningEvent, bool) {
	if !c.segOpen {
		return domain.ListeningEvent{}, false
	}
	c.segOpen = false

	now := time.Now()
	return domain.ListeningEvent{
		StoryID:       c.state.StoryID,
		ChapterNumber: c.segChapter,
		StartSeconds:  c.segStartPos,
		EndSeconds:    endPos,
		PlaybackRate:  c.segRate,
		StartedAt:     c.segStartedAt,
		EndedAt:       now,
	}, true
}

// recordSegment hands a closed segment to the history journal. Segments too
// short to mean anything are dropped.
func (c *Controller) recordSegment(ev domain.ListeningEvent) {
	if ev.EndSeconds-ev.StartSeconds < 1 {
		return
	}
	if err := c.journal.Record(context.Background(), ev); err != nil {
		c.logger.Warn("failed to record listening segment", "story_id", ev.StoryID, "error", err)
	}
}

// stopToastTimerLocked stops a pending toast auto-hide. Caller holds mu.
func (c *Controller) stopToastTimerLocked() {
	if c.toastTimer != nil {
		c.toastTimer.Stop()
		c.toastTimer = nil
	}
}

func (c *Controller) emitState() {
	c.mu.Lock()
	snap := c.state
	c.mu.Unlock()
	c.emitter.Emit(StateChanged{State: snap})
}

func chapterExists(state SessionState, number int) bool {
	for i := range state.Chapters {
		if state.Chapters[i].Number == number {
			return true
		}
	}
	return false
}
