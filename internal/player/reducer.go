package player

// Reduce applies an action to a session state and returns the next state.
// It is a pure function: no I/O, no timers, no element access. Every action
// is defined for every reachable state; unrecognized or nil actions pass the
// state through unchanged.
func Reduce(state SessionState, action Action) SessionState {
	switch a := action.(type) {
	case SetStory:
		state.StoryID = a.Story.ID
		state.StoryTitle = a.Story.Title
		state.StorySlug = a.Story.Slug
		state.CoverURL = a.Story.CoverURL
		state.Chapters = a.Story.Chapters
		state.SelectedChapter = 1
		state.CurrentAudioURL = audioURLFor(state, 1)
		return state

	case SetPlaying:
		state.Playing = a.Playing
		return state

	case SetCurrentTime:
		state.CurrentTime = a.Seconds
		return state

	case SetDuration:
		state.Duration = a.Seconds
		return state

	case SetVolume:
		state.Volume = clamp(a.Volume, 0, 1)
		return state

	case SetChapter:
		// The chapter/URL pair moves together. A miss leaves an empty URL,
		// keeping the invariant: no chapter with this number, no URL.
		state.SelectedChapter = a.Number
		state.CurrentAudioURL = audioURLFor(state, a.Number)
		return state

	case SetPlaybackRate:
		state.PlaybackRate = a.Rate
		state.SpeedMenuOpen = false
		return state

	case ToggleSpeedMenu:
		state.SpeedMenuOpen = !state.SpeedMenuOpen
		return state

	case ShowResumeToast:
		progress := a.Progress
		state.ShowResumeToast = true
		state.ResumeData = &progress
		return state

	case HideResumeToast:
		state.ShowResumeToast = false
		state.ResumeData = nil
		return state

	case SetPendingSeek:
		if a.Seconds == nil {
			state.PendingSeek = nil
		} else {
			seconds := *a.Seconds
			state.PendingSeek = &seconds
		}
		return state

	case Reset:
		return InitialState()

	default:
		return state
	}
}

// audioURLFor resolves the audio URL for a chapter number in the state's
// chapter list, or empty when the number is not present.
func audioURLFor(state SessionState, number int) string {
	for i := range state.Chapters {
		if state.Chapters[i].Number == number {
			return state.Chapters[i].AudioURL
		}
	}
	return ""
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
