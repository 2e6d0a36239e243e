package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/audiotruyenapp/audiotruyen-player/internal/http/response"
	"github.com/audiotruyenapp/audiotruyen-player/internal/player"
	"github.com/audiotruyenapp/audiotruyen-player/internal/service"
)

// handlePlayerState returns a snapshot of the session state.
// GET /api/v1/player
func (s *Server) handlePlayerState(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.player.State(), s.logger)
}

// handleLoadStory fetches a story from the catalog and mounts it.
// POST /api/v1/player/load
func (s *Server) handleLoadStory(w http.ResponseWriter, r *http.Request) {
	var req service.LoadStoryRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return
	}

	state, err := s.player.LoadStory(r.Context(), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, state, s.logger)
}

// handlePlay starts playback.
// POST /api/v1/player/play
func (s *Server) handlePlay(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.player.Play(), s.logger)
}

// handlePause pauses playback.
// POST /api/v1/player/pause
func (s *Server) handlePause(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.player.Pause(), s.logger)
}

// handleTogglePlay flips between playing and paused.
// POST /api/v1/player/toggle
func (s *Server) handleTogglePlay(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.player.TogglePlay(), s.logger)
}

// handleSeek positions playback at an absolute offset.
// POST /api/v1/player/seek
func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var req service.SeekRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return
	}
	state, err := s.player.Seek(req)
	s.respondState(w, state, err)
}

// handleSkip moves playback relative to the current position.
// POST /api/v1/player/skip
func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	var req service.SkipRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return
	}
	state, err := s.player.Skip(req)
	s.respondState(w, state, err)
}

// handleSetChapter selects a chapter by number.
// POST /api/v1/player/chapter
func (s *Server) handleSetChapter(w http.ResponseWriter, r *http.Request) {
	var req service.ChapterRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return
	}
	state, err := s.player.SetChapter(req)
	s.respondState(w, state, err)
}

// handleNextChapter advances to the following chapter.
// POST /api/v1/player/next
func (s *Server) handleNextChapter(w http.ResponseWriter, _ *http.Request) {
	state, err := s.player.NextChapter()
	s.respondState(w, state, err)
}

// handlePreviousChapter steps back one chapter.
// POST /api/v1/player/previous
func (s *Server) handlePreviousChapter(w http.ResponseWriter, _ *http.Request) {
	state, err := s.player.PreviousChapter()
	s.respondState(w, state, err)
}

// handleSetRate changes the playback rate.
// POST /api/v1/player/rate
func (s *Server) handleSetRate(w http.ResponseWriter, r *http.Request) {
	var req service.RateRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return
	}
	state, err := s.player.SetRate(req)
	s.respondState(w, state, err)
}

// handleSetVolume changes the playback volume.
// POST /api/v1/player/volume
func (s *Server) handleSetVolume(w http.ResponseWriter, r *http.Request) {
	var req service.VolumeRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return
	}
	state, err := s.player.SetVolume(req)
	s.respondState(w, state, err)
}

// handleToggleSpeedMenu opens or closes the speed selection menu.
// POST /api/v1/player/speed-menu
func (s *Server) handleToggleSpeedMenu(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.player.ToggleSpeedMenu(), s.logger)
}

// handleResume accepts the pending resume offer.
// POST /api/v1/player/resume
func (s *Server) handleResume(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.player.Resume(), s.logger)
}

// handleDismissResume hides the resume offer without acting on it.
// DELETE /api/v1/player/resume
func (s *Server) handleDismissResume(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.player.DismissResume(), s.logger)
}

// handleReset unloads the session.
// POST /api/v1/player/reset
func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.player.Reset(), s.logger)
}

// respondState writes a session snapshot or maps the command error.
func (s *Server) respondState(w http.ResponseWriter, state player.SessionState, err error) {
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, state, s.logger)
}
