package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"blogcloud/internal/domain"
	"blogcloud/internal/repository"
)

// MusicHandler 音乐曲目与播放列表接口
type MusicHandler struct {
	music  repository.MusicRepository
	logger *zap.Logger
}

func NewMusicHandler(music repository.MusicRepository, logger *zap.Logger) *MusicHandler {
	return &MusicHandler{music: music, logger: logger}
}

// ListTracks 曲目列表
// GET /blog/api/v1/music/tracks（公开，仅激活）
func (h *MusicHandler) ListTracks(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	tracks, err := h.music.ListTracks(r.Context(), activeOnly)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(tracks))
}

// CreateTrack 创建曲目
// POST /blog/api/v1/admin/music/tracks
func (h *MusicHandler) CreateTrack(w http.ResponseWriter, r *http.Request) {
	var track domain.Track
	if err := readBodyJSON(r, 1<<20, &track); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if strings.TrimSpace(track.Title) == "" || strings.TrimSpace(track.Artist) == "" {
		writeJSON(w, http.StatusBadRequest, Fail("title and artist are required"))
		return
	}

	track.IsActive = true
	created, err := h.music.CreateTrack(r.Context(), &track)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(created))
}

// DeleteTrack 删除曲目
// DELETE /blog/api/v1/admin/music/tracks/{id}
func (h *MusicHandler) DeleteTrack(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.music.DeleteTrack(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"deleted": true}))
}

// ListPlaylists 播放列表
// GET /blog/api/v1/music/playlists
func (h *MusicHandler) ListPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.music.ListPlaylists(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(playlists))
}

// GetPlaylistTracks 播放列表内曲目
// GET /blog/api/v1/music/playlists/{id}/tracks
func (h *MusicHandler) GetPlaylistTracks(w http.ResponseWriter, r *http.Request, playlistID int64) {
	tracks, err := h.music.PlaylistTracks(r.Context(), playlistID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(tracks))
}

// CreatePlaylist 创建播放列表
// POST /blog/api/v1/admin/music/playlists
func (h *MusicHandler) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var playlist domain.Playlist
	if err := readBodyJSON(r, 1<<20, &playlist); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if strings.TrimSpace(playlist.Name) == "" {
		writeJSON(w, http.StatusBadRequest, Fail("name is required"))
		return
	}

	playlist.IsActive = true
	created, err := h.music.CreatePlaylist(r.Context(), &playlist)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(created))
}

// ServePublicPlaylist 分发 /music/playlists/{id}/tracks
func (h *MusicHandler) ServePublicPlaylist(w http.ResponseWriter, r *http.Request, rest string) {
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, Fail("invalid playlist id"))
		return
	}

	if len(parts) == 2 && parts[1] == "tracks" && r.Method == http.MethodGet {
		h.GetPlaylistTracks(w, r, id)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

// ServeAdminTrack 分发 /admin/music/tracks/{id}
func (h *MusicHandler) ServeAdminTrack(w http.ResponseWriter, r *http.Request, rest string) {
	id, err := strconv.ParseInt(strings.Trim(rest, "/"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, Fail("invalid track id"))
		return
	}

	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	h.DeleteTrack(w, r, id)
}

// ServeAdminPlaylist 分发 /admin/music/playlists/{id}/tracks[/{trackId}]
func (h *MusicHandler) ServeAdminPlaylist(w http.ResponseWriter, r *http.Request, rest string) {
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) < 2 || parts[1] != "tracks" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	playlistID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || playlistID <= 0 {
		writeJSON(w, http.StatusBadRequest, Fail("invalid playlist id"))
		return
	}

	switch {
	case len(parts) == 2 && r.Method == http.MethodPost:
		// body: {"track_id": N}
		var req struct {
			TrackID int64 `json:"track_id"`
		}
		if err := readBodyJSON(r, 1<<20, &req); err != nil || req.TrackID <= 0 {
			writeJSON(w, http.StatusBadRequest, Fail("track_id is required"))
			return
		}
		if err := h.music.AddTrackToPlaylist(r.Context(), playlistID, req.TrackID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, Ok(map[string]any{"added": true}))

	case len(parts) == 3 && r.Method == http.MethodDelete:
		trackID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil || trackID <= 0 {
			writeJSON(w, http.StatusBadRequest, Fail("invalid track id"))
			return
		}
		if err := h.music.RemoveTrackFromPlaylist(r.Context(), playlistID, trackID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, Ok(map[string]any{"removed": true}))

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
