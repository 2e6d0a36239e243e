package player

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiotruyenapp/audiotruyen-player/internal/config"
	"github.com/audiotruyenapp/audiotruyen-player/internal/domain"
	"github.com/audiotruyenapp/audiotruyen-player/internal/media"
	"github.com/audiotruyenapp/audiotruyen-player/internal/progress"
)

// memStore is an in-memory progress.Store that records every save.
type memStore struct {
	mu      sync.Mutex
	records map[int64]domain.PlaybackProgress
	last    *domain.PlaybackProgress
	saves   []domain.PlaybackProgress
}

func newMemStore() *memStore {
	return &memStore{records: make(map[int64]domain.PlaybackProgress)}
}

func (m *memStore) SaveProgress(_ context.Context, p domain.PlaybackProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.Touch()
	m.records[p.StoryID] = p
	m.last = &p
	m.saves = append(m.saves, p)
	return nil
}

func (m *memStore) GetProgress(_ context.Context, storyID int64) (*domain.PlaybackProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.records[storyID]
	if !ok {
		return nil, progress.ErrProgressNotFound
	}
	return &p, nil
}

func (m *memStore) GetLastPlayed(context.Context) (*domain.PlaybackProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return nil, progress.ErrProgressNotFound
	}
	p := *m.last
	return &p, nil
}

func (m *memStore) ClearProgress(_ context.Context, storyID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, storyID)
	return nil
}

func (m *memStore) ClearAll(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[int64]domain.PlaybackProgress)
	m.last = nil
	return nil
}

func (m *memStore) AllProgress(context.Context) ([]*domain.PlaybackProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.PlaybackProgress, 0, len(m.records))
	for _, p := range m.records {
		rec := p
		out = append(out, &rec)
	}
	return out, nil
}

func (m *memStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saves)
}

func (m *memStore) lastSave() (domain.PlaybackProgress, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saves) == 0 {
		return domain.PlaybackProgress{}, false
	}
	return m.saves[len(m.saves)-1], true
}

// collectEmitter buffers emitted events for inspection.
type collectEmitter struct {
	mu     sync.Mutex
	events []any
}

func (e *collectEmitter) Emit(ev any) {
	e.mu.Lock()
	e.events = append(e.events, ev)
	e.mu.Unlock()
}

func (e *collectEmitter) all() []any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]any(nil), e.events...)
}

func testPolicy() config.PlayerConfig {
	return config.PlayerConfig{
		CheckpointMinSeconds: 5,
		ResumeMinChapter:     1,
		ResumeMinSeconds:     10,
		AllowedRates:         []float64{0.5, 0.75, 1.0, 1.25, 1.5, 1.75, 2.0},
	}
}

type controllerFixture struct {
	ctrl    *Controller
	sim     *media.Sim
	store   *memStore
	emitter *collectEmitter
}

func newFixture(t *testing.T, policy config.PlayerConfig) *controllerFixture {
	t.Helper()

	sim := media.NewSim(media.SimOptions{
		Manual:      true,
		DurationFor: func(string) float64 { return 300 },
	})
	store := newMemStore()
	emitter := &collectEmitter{}

	ctrl := NewController(Options{
		Element: sim,
		Store:   store,
		Emitter: emitter,
		Policy:  policy,
	})

	ctx, cancel := context.WithCancel(context.Background())
	ctrl.Start(ctx)
	t.Cleanup(func() {
		ctrl.Stop()
		cancel()
	})

	return &controllerFixture{ctrl: ctrl, sim: sim, store: store, emitter: emitter}
}

// loadStory loads the fixture story and completes the metadata load for
// chapter 1.
func (f *controllerFixture) loadStory(t *testing.T) {
	t.Helper()
	require.NoError(t, f.ctrl.SetStory(context.Background(), testStory()))
	f.sim.CompleteLoad()
}

func TestSetStoryLoadsChapterOnePaused(t *testing.T) {
	f := newFixture(t, testPolicy())
	f.loadStory(t)

	s := f.ctrl.State()
	assert.Equal(t, int64(42), s.StoryID)
	assert.Equal(t, 1, s.SelectedChapter)
	assert.False(t, s.Playing)
	assert.Equal(t, 300.0, s.Duration)
	assert.False(t, s.ShowResumeToast, "no stored progress means no resume offer")
	assert.Equal(t, "https://cdn.example.com/42/1.mp3", f.sim.Source())
}

func TestSetStoryIsIdempotent(t *testing.T) {
	f := newFixture(t, testPolicy())
	f.loadStory(t)

	require.NoError(t, f.ctrl.SetChapter(2))
	f.sim.CompleteLoad()
	require.Eventually(t, f.sim.Playing, time.Second, 5*time.Millisecond)
	f.sim.AdvanceBy(30)

	require.NoError(t, f.ctrl.SetStory(context.Background(), testStory()))

	s := f.ctrl.State()
	assert.Equal(t, 2, s.SelectedChapter, "reloading the same story must not reset the session")
	assert.True(t, s.Playing)
	assert.InDelta(t, 30, s.CurrentTime, 0.001)
}

func TestPlayPauseToggle(t *testing.T) {
	f := newFixture(t, testPolicy())
	f.loadStory(t)

	f.ctrl.Play()
	assert.True(t, f.ctrl.State().Playing)
	require.Eventually(t, f.sim.Playing, time.Second, 5*time.Millisecond)

	f.ctrl.TogglePlay()
	assert.False(t, f.ctrl.State().Playing)
	assert.False(t, f.sim.Playing())

	f.ctrl.TogglePlay()
	assert.True(t, f.ctrl.State().Playing)
}

func TestPlayWithoutSourceReverts(t *testing.T) {
	f := newFixture(t, testPolicy())

	f.ctrl.Play()
	assert.Eventually(t, func() bool {
		return !f.ctrl.State().Playing
	}, time.Second, 5*time.Millisecond, "a rejected play must revert the playing flag")
}

func TestSkipClampsToLiveDuration(t *testing.T) {
	f := newFixture(t, testPolicy())
	f.loadStory(t)

	f.ctrl.Seek(100)
	assert.InDelta(t, 100, f.sim.Position(), 0.001)

	f.ctrl.Skip(-150)
	assert.InDelta(t, 0, f.sim.Position(), 0.001)

	f.ctrl.Skip(250)
	assert.InDelta(t, 250, f.sim.Position(), 0.001)

	f.ctrl.Skip(100)
	assert.InDelta(t, 300, f.sim.Position(), 0.001, "skip clamps at the duration")

	s := f.ctrl.State()
	assert.InDelta(t, 300, s.CurrentTime, 0.001, "seeks reflect back into state via time updates")
}

func TestSkipBeforeMetadataLandsAtZero(t *testing.T) {
	f := newFixture(t, testPolicy())
	require.NoError(t, f.ctrl.SetStory(context.Background(), testStory()))

	// Metadata not loaded: duration is 0, so any skip clamps to 0.
	f.ctrl.Skip(30)
	assert.InDelta(t, 0, f.sim.Position(), 0.001)
}

func TestPauseCheckpointPolicy(t *testing.T) {
	f := newFixture(t, testPolicy())
	f.loadStory(t)

	f.ctrl.Play()
	require.Eventually(t, f.sim.Playing, time.Second, 5*time.Millisecond)
	f.sim.AdvanceBy(3)
	f.ctrl.Pause()
	assert.Equal(t, 0, f.store.saveCount(), "3s elapsed is below the checkpoint floor")

	f.ctrl.Play()
	require.Eventually(t, f.sim.Playing, time.Second, 5*time.Millisecond)
	f.sim.AdvanceBy(39)
	f.ctrl.Pause()

	require.Equal(t, 1, f.store.saveCount())
	saved, ok := f.store.lastSave()
	require.True(t, ok)
	assert.Equal(t, int64(42), saved.StoryID)
	assert.Equal(t, 1, saved.ChapterNumber)
	assert.InDelta(t, 42, saved.TimestampSeconds, 0.001)
}

func TestChapterSwitchAutoPlays(t *testing.T) {
	f := newFixture(t, testPolicy())
	f.loadStory(t)

	require.NoError(t, f.ctrl.SetChapter(2))
	s := f.ctrl.State()
	assert.Equal(t, 2, s.SelectedChapter)
	assert.InDelta(t, 0, s.CurrentTime, 0.001)
	assert.Equal(t, "https://cdn.example.com/42/2.mp3", f.sim.Source())

	f.sim.CompleteLoad()

	s = f.ctrl.State()
	assert.True(t, s.Playing, "chapter switch auto-plays once metadata is ready")
	assert.Equal(t, 300.0, s.Duration)
	require.Eventually(t, f.sim.Playing, time.Second, 5*time.Millisecond)
}

func TestSetChapterWithoutStoryFails(t *testing.T) {
	f := newFixture(t, testPolicy())

	assert.Error(t, f.ctrl.SetChapter(1))
}

func TestNextAndPreviousChapter(t *testing.T) {
	f := newFixture(t, testPolicy())
	f.loadStory(t)

	require.NoError(t, f.ctrl.NextChapter())
	assert.Equal(t, 2, f.ctrl.State().SelectedChapter)

	require.NoError(t, f.ctrl.PreviousChapter())
	assert.Equal(t, 1, f.ctrl.State().SelectedChapter)

	assert.Error(t, f.ctrl.PreviousChapter(), "no chapter before the first")

	require.NoError(t, f.ctrl.NextChapter())
	require.NoError(t, f.ctrl.NextChapter())
	assert.Error(t, f.ctrl.NextChapter(), "no chapter after the last")
}

func TestAutoAdvanceOnEnded(t *testing.T) {
	f := newFixture(t, testPolicy())
	f.loadStory(t)

	require.NoError(t, f.ctrl.SetChapter(2))
	f.sim.CompleteLoad()
	require.Eventually(t, f.sim.Playing, time.Second, 5*time.Millisecond)

	// Run chapter 2 to its end: playback moves to chapter 3.
	f.sim.AdvanceBy(400)

	s := f.ctrl.State()
	assert.Equal(t, 3, s.SelectedChapter)
	assert.Equal(t, "https://cdn.example.com/42/3.mp3", f.sim.Source())

	f.sim.CompleteLoad()
	assert.True(t, f.ctrl.State().Playing)
}

func TestEndOfLastChapterStaysPut(t *testing.T) {
	f := newFixture(t, testPolicy())
	f.loadStory(t)

	require.NoError(t, f.ctrl.SetChapter(3))
	f.sim.CompleteLoad()
	require.Eventually(t, f.sim.Playing, time.Second, 5*time.Millisecond)

	f.sim.AdvanceBy(400)

	s := f.ctrl.State()
	assert.Equal(t, 3, s.SelectedChapter)
	assert.False(t, s.Playing)
	assert.InDelta(t, 300, s.CurrentTime, 0.001)

	saved, ok := f.store.lastSave()
	require.True(t, ok, "finishing the story persists the terminal position")
	assert.Equal(t, 3, saved.ChapterNumber)
	assert.InDelta(t, 300, saved.TimestampSeconds, 0.001)
}

func TestResumeOfferThresholds(t *testing.T) {
	tests := []struct {
		name     string
		progress domain.PlaybackProgress
		offered  bool
	}{
		{"trivial progress", domain.PlaybackProgress{StoryID: 42, ChapterNumber: 1, TimestampSeconds: 8}, false},
		{"deep timestamp", domain.PlaybackProgress{StoryID: 42, ChapterNumber: 1, TimestampSeconds: 45}, true},
		{"later chapter", domain.PlaybackProgress{StoryID: 42, ChapterNumber: 2, TimestampSeconds: 3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, testPolicy())
			require.NoError(t, f.store.SaveProgress(context.Background(), tt.progress))

			require.NoError(t, f.ctrl.SetStory(context.Background(), testStory()))
			assert.Equal(t, tt.offered, f.ctrl.State().ShowResumeToast)
		})
	}
}

func TestResumeSeeksBeforePlaying(t *testing.T) {
	f := newFixture(t, testPolicy())
	require.NoError(t, f.store.SaveProgress(context.Background(), domain.PlaybackProgress{
		StoryID: 42, ChapterNumber: 2, TimestampSeconds: 120,
	}))

	require.NoError(t, f.ctrl.SetStory(context.Background(), testStory()))
	require.True(t, f.ctrl.State().ShowResumeToast)

	f.ctrl.HandleResume()

	s := f.ctrl.State()
	assert.False(t, s.ShowResumeToast)
	assert.Equal(t, 2, s.SelectedChapter)
	require.NotNil(t, s.PendingSeek)
	assert.Equal(t, 120.0, *s.PendingSeek)

	f.sim.CompleteLoad()

	s = f.ctrl.State()
	assert.True(t, s.Playing)
	assert.InDelta(t, 120, s.CurrentTime, 0.001)
	assert.Nil(t, s.PendingSeek)
	assert.InDelta(t, 120, f.sim.Position(), 0.001)

	// No emitted playing snapshot may show a position before the resume
	// target: the seek must land before playback starts.
	for _, ev := range f.emitter.all() {
		if sc, ok := ev.(StateChanged); ok && sc.State.Playing {
			assert.GreaterOrEqual(t, sc.State.CurrentTime, 120.0)
		}
	}
}

func TestResumeOnCurrentChapterSeeksInPlace(t *testing.T) {
	f := newFixture(t, testPolicy())
	require.NoError(t, f.store.SaveProgress(context.Background(), domain.PlaybackProgress{
		StoryID: 42, ChapterNumber: 1, TimestampSeconds: 75,
	}))

	require.NoError(t, f.ctrl.SetStory(context.Background(), testStory()))
	f.sim.CompleteLoad()
	require.True(t, f.ctrl.State().ShowResumeToast)

	f.ctrl.HandleResume()

	s := f.ctrl.State()
	assert.Equal(t, 1, s.SelectedChapter)
	assert.True(t, s.Playing)
	assert.InDelta(t, 75, s.CurrentTime, 0.001)
	assert.Nil(t, s.PendingSeek)
}

func TestResumeToastAutoHides(t *testing.T) {
	policy := testPolicy()
	policy.ResumeToastTimeout = 30 * time.Millisecond
	f := newFixture(t, policy)
	require.NoError(t, f.store.SaveProgress(context.Background(), domain.PlaybackProgress{
		StoryID: 42, ChapterNumber: 2, TimestampSeconds: 120,
	}))

	require.NoError(t, f.ctrl.SetStory(context.Background(), testStory()))
	require.True(t, f.ctrl.State().ShowResumeToast)

	assert.Eventually(t, func() bool {
		return !f.ctrl.State().ShowResumeToast
	}, time.Second, 5*time.Millisecond)
	assert.Nil(t, f.ctrl.State().ResumeData)
}

func TestChapterSwitchDuringPendingPlayKeepsIntent(t *testing.T) {
	f := newFixture(t, testPolicy())
	require.NoError(t, f.ctrl.SetStory(context.Background(), testStory()))

	// Play before metadata is ready parks the request; switching chapters
	// aborts it. The abort is expected and must not flip the session back
	// to paused.
	f.ctrl.Play()
	require.True(t, f.ctrl.State().Playing)

	require.NoError(t, f.ctrl.SetChapter(2))

	time.Sleep(20 * time.Millisecond)
	assert.True(t, f.ctrl.State().Playing, "an aborted play must not revert the newer intent")

	f.sim.CompleteLoad()
	assert.True(t, f.ctrl.State().Playing)
	require.Eventually(t, f.sim.Playing, time.Second, 5*time.Millisecond)
}

func TestSetPlaybackRateGating(t *testing.T) {
	f := newFixture(t, testPolicy())
	f.loadStory(t)

	f.ctrl.ToggleSpeedMenu()
	require.True(t, f.ctrl.State().SpeedMenuOpen)

	require.NoError(t, f.ctrl.SetPlaybackRate(1.5))
	s := f.ctrl.State()
	assert.Equal(t, 1.5, s.PlaybackRate)
	assert.False(t, s.SpeedMenuOpen, "choosing a rate closes the menu")
	assert.Equal(t, 1.5, f.sim.Rate())

	assert.Error(t, f.ctrl.SetPlaybackRate(3.0))
	assert.Equal(t, 1.5, f.ctrl.State().PlaybackRate)
}

func TestRateScalesProgress(t *testing.T) {
	f := newFixture(t, testPolicy())
	f.loadStory(t)

	require.NoError(t, f.ctrl.SetPlaybackRate(2.0))
	f.ctrl.Play()
	require.Eventually(t, f.sim.Playing, time.Second, 5*time.Millisecond)
	f.sim.AdvanceBy(10)

	assert.InDelta(t, 20, f.ctrl.State().CurrentTime, 0.001)
}

func TestSetVolume(t *testing.T) {
	f := newFixture(t, testPolicy())
	f.loadStory(t)

	f.ctrl.SetVolume(0.3)
	assert.Equal(t, 0.3, f.ctrl.State().Volume)
	assert.Equal(t, 0.3, f.sim.Volume())

	f.ctrl.SetVolume(2.5)
	assert.Equal(t, 1.0, f.ctrl.State().Volume)
	assert.Equal(t, 1.0, f.sim.Volume())
}

func TestResetUnloadsSession(t *testing.T) {
	f := newFixture(t, testPolicy())
	f.loadStory(t)
	f.ctrl.Play()
	f.sim.AdvanceBy(30)

	f.ctrl.Reset()

	s := f.ctrl.State()
	assert.False(t, s.HasStory())
	assert.False(t, s.Playing)
	assert.Empty(t, f.sim.Source())
}

func TestEmitterSeesChapterAndCheckpointEvents(t *testing.T) {
	f := newFixture(t, testPolicy())
	f.loadStory(t)

	require.NoError(t, f.ctrl.SetChapter(2))
	f.sim.CompleteLoad()
	require.Eventually(t, f.sim.Playing, time.Second, 5*time.Millisecond)
	f.sim.AdvanceBy(60)
	f.ctrl.Pause()

	var sawChapter, sawCheckpoint bool
	for _, ev := range f.emitter.all() {
		switch e := ev.(type) {
		case ChapterChanged:
			if e.Chapter == 2 {
				sawChapter = true
			}
		case CheckpointSaved:
			if e.Progress.ChapterNumber == 2 {
				sawCheckpoint = true
			}
		}
	}
	assert.True(t, sawChapter)
	assert.True(t, sawCheckpoint)
}
