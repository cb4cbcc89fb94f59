package repository

import (
	"context"

	"blogcloud/internal/domain"
)

// MusicRepository 音乐Repository接口（曲目与播放列表）
type MusicRepository interface {
	ListTracks(ctx context.Context, activeOnly bool) ([]*domain.Track, error)
	GetTrack(ctx context.Context, id int64) (*domain.Track, error)
	CreateTrack(ctx context.Context, track *domain.Track) (*domain.Track, error)
	DeleteTrack(ctx context.Context, id int64) error

	ListPlaylists(ctx context.Context) ([]*domain.Playlist, error)
	// PlaylistTracks 播放列表内曲目，按position升序
	PlaylistTracks(ctx context.Context, playlistID int64) ([]*domain.Track, error)
	CreatePlaylist(ctx context.Context, playlist *domain.Playlist) (*domain.Playlist, error)
	// AddTrackToPlaylist position取当前最大position+1
	AddTrackToPlaylist(ctx context.Context, playlistID, trackID int64) error
	RemoveTrackFromPlaylist(ctx context.Context, playlistID, trackID int64) error
}
