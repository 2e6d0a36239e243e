package player

import "github.com/audiotruyenapp/audiotruyen-player/internal/domain"

// Action is a session state transition request. Actions carry data only;
// Reduce gives them meaning.
type Action interface {
	isAction()
}

// SetStory replaces the loaded story. Selection resets to chapter 1 and the
// audio URL follows it (empty for a story with no chapters).
type SetStory struct {
	Story domain.Story
}

// SetPlaying sets the transport playing flag.
type SetPlaying struct {
	Playing bool
}

// SetCurrentTime sets the cached playback position.
type SetCurrentTime struct {
	Seconds float64
}

// SetDuration sets the cached duration of the current chapter.
type SetDuration struct {
	Seconds float64
}

// SetVolume sets the volume, clamped to [0, 1].
type SetVolume struct {
	Volume float64
}

// SetChapter selects a chapter by number. A number missing from the chapter
// list leaves an empty audio URL; playback then stalls as a media error
// rather than a reducer error.
type SetChapter struct {
	Number int
}

// SetPlaybackRate sets the playback rate and dismisses the speed menu:
// selecting a rate always closes the menu that offered it.
type SetPlaybackRate struct {
	Rate float64
}

// ToggleSpeedMenu flips the speed menu visibility.
type ToggleSpeedMenu struct{}

// ShowResumeToast surfaces a resume offer with its checkpoint attached.
type ShowResumeToast struct {
	Progress domain.PlaybackProgress
}

// HideResumeToast dismisses the resume offer and detaches its checkpoint.
type HideResumeToast struct{}

// SetPendingSeek records (or clears, with nil) a seek to apply once the media
// resource is ready.
type SetPendingSeek struct {
	Seconds *float64
}

// Reset returns the session to the initial empty state.
type Reset struct{}

func (SetStory) isAction()        {}
func (SetPlaying) isAction()      {}
func (SetCurrentTime) isAction()  {}
func (SetDuration) isAction()     {}
func (SetVolume) isAction()       {}
func (SetChapter) isAction()      {}
func (SetPlaybackRate) isAction() {}
func (ToggleSpeedMenu) isAction() {}
func (ShowResumeToast) isAction() {}
func (HideResumeToast) isAction() {}
func (SetPendingSeek) isAction()  {}
func (Reset) isAction()           {}
