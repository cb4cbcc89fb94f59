package domain

import "time"

// Track 音乐曲目
type Track struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Artist        string    `json:"artist"`
	Album         *string   `json:"album,omitempty"`
	Duration      *int      `json:"duration,omitempty"` // 秒
	FileURL       *string   `json:"file_url,omitempty"`
	StreamURL     *string   `json:"stream_url,omitempty"`
	CoverImageURL *string   `json:"cover_image_url,omitempty"`
	Lyrics        *string   `json:"lyrics,omitempty"`
	Genre         *string   `json:"genre,omitempty"`
	Year          *int      `json:"year,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Playlist 播放列表
type Playlist struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PlaylistTrack 播放列表曲目（position为列表内顺序）
type PlaylistTrack struct {
	ID         int64     `json:"id"`
	PlaylistID int64     `json:"playlist_id"`
	TrackID    int64     `json:"track_id"`
	Position   int       `json:"position"`
	AddedAt    time.Time `json:"added_at"`
}
