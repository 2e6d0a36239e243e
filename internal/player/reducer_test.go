package player

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/audiotruyenapp/audiotruyen-player/internal/domain"
)

func testStory() domain.Story {
	return domain.Story{
		ID:       42,
		Slug:     "linh-vu-thien-ha",
		Title:    "Linh Vũ Thiên Hạ",
		CoverURL: "https://cdn.example.com/covers/42.jpg",
		Chapters: []domain.Chapter{
			{Number: 1, Title: "Chương 1", AudioURL: "https://cdn.example.com/42/1.mp3"},
			{Number: 2, Title: "Chương 2", AudioURL: "https://cdn.example.com/42/2.mp3"},
			{Number: 3, Title: "Chương 3", AudioURL: "https://cdn.example.com/42/3.mp3"},
		},
	}
}

func TestInitialState(t *testing.T) {
	s := InitialState()

	assert.False(t, s.HasStory())
	assert.Equal(t, 1.0, s.PlaybackRate)
	assert.Equal(t, 1.0, s.Volume)
	assert.False(t, s.Playing)
	assert.Nil(t, s.PendingSeek)
	assert.Nil(t, s.ResumeData)
}

func TestSetStorySelectsFirstChapter(t *testing.T) {
	s := Reduce(InitialState(), SetStory{Story: testStory()})

	assert.Equal(t, int64(42), s.StoryID)
	assert.Equal(t, 1, s.SelectedChapter)
	assert.Equal(t, "https://cdn.example.com/42/1.mp3", s.CurrentAudioURL)
	assert.Len(t, s.Chapters, 3)
}

func TestSetStoryWithoutChapters(t *testing.T) {
	s := Reduce(InitialState(), SetStory{Story: domain.Story{ID: 7, Title: "Empty"}})

	assert.Equal(t, 1, s.SelectedChapter)
	assert.Empty(t, s.CurrentAudioURL)
}

func TestSetChapterKeepsURLInSync(t *testing.T) {
	s := Reduce(InitialState(), SetStory{Story: testStory()})

	s = Reduce(s, SetChapter{Number: 3})
	assert.Equal(t, 3, s.SelectedChapter)
	assert.Equal(t, "https://cdn.example.com/42/3.mp3", s.CurrentAudioURL)

	// A miss selects the number but leaves no URL.
	s = Reduce(s, SetChapter{Number: 99})
	assert.Equal(t, 99, s.SelectedChapter)
	assert.Empty(t, s.CurrentAudioURL)
}

func TestSetPlaybackRateClosesSpeedMenu(t *testing.T) {
	s := Reduce(InitialState(), ToggleSpeedMenu{})
	assert.True(t, s.SpeedMenuOpen)

	s = Reduce(s, SetPlaybackRate{Rate: 1.5})
	assert.Equal(t, 1.5, s.PlaybackRate)
	assert.False(t, s.SpeedMenuOpen)
}

func TestToggleSpeedMenuFlips(t *testing.T) {
	s := InitialState()
	s = Reduce(s, ToggleSpeedMenu{})
	assert.True(t, s.SpeedMenuOpen)
	s = Reduce(s, ToggleSpeedMenu{})
	assert.False(t, s.SpeedMenuOpen)
}

func TestSetVolumeClamps(t *testing.T) {
	s := InitialState()

	s = Reduce(s, SetVolume{Volume: 0.4})
	assert.Equal(t, 0.4, s.Volume)
	s = Reduce(s, SetVolume{Volume: 1.8})
	assert.Equal(t, 1.0, s.Volume)
	s = Reduce(s, SetVolume{Volume: -0.3})
	assert.Equal(t, 0.0, s.Volume)
}

func TestResumeToastLifecycle(t *testing.T) {
	p := domain.PlaybackProgress{StoryID: 42, ChapterNumber: 2, TimestampSeconds: 120}

	s := Reduce(InitialState(), ShowResumeToast{Progress: p})
	assert.True(t, s.ShowResumeToast)
	assert.NotNil(t, s.ResumeData)
	assert.Equal(t, 2, s.ResumeData.ChapterNumber)

	s = Reduce(s, HideResumeToast{})
	assert.False(t, s.ShowResumeToast)
	assert.Nil(t, s.ResumeData)
}

func TestSetPendingSeekCopiesValue(t *testing.T) {
	target := 88.5
	s := Reduce(InitialState(), SetPendingSeek{Seconds: &target})

	target = 0 // mutating the caller's value must not reach the state
	assert.NotNil(t, s.PendingSeek)
	assert.Equal(t, 88.5, *s.PendingSeek)

	s = Reduce(s, SetPendingSeek{Seconds: nil})
	assert.Nil(t, s.PendingSeek)
}

func TestResetReturnsInitial(t *testing.T) {
	s := Reduce(InitialState(), SetStory{Story: testStory()})
	s = Reduce(s, SetPlaying{Playing: true})
	s = Reduce(s, SetCurrentTime{Seconds: 50})

	s = Reduce(s, Reset{})
	assert.Equal(t, InitialState(), s)
}

func TestUnknownActionPassesThrough(t *testing.T) {
	s := Reduce(InitialState(), SetStory{Story: testStory()})

	assert.Equal(t, s, Reduce(s, nil))
}

func TestSelectedChapterData(t *testing.T) {
	s := Reduce(InitialState(), SetStory{Story: testStory()})

	ch := s.SelectedChapterData()
	assert.NotNil(t, ch)
	assert.Equal(t, 1, ch.Number)

	s = Reduce(s, SetChapter{Number: 99})
	assert.Nil(t, s.SelectedChapterData())
}
