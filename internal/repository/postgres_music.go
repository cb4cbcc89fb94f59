package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"blogcloud/internal/domain"
)

// PostgresMusicRepository 音乐Repository实现
type PostgresMusicRepository struct {
	db *sql.DB
}

// NewPostgresMusicRepository 创建音乐Repository
func NewPostgresMusicRepository(db *sql.DB) *PostgresMusicRepository {
	return &PostgresMusicRepository{db: db}
}

var _ MusicRepository = (*PostgresMusicRepository)(nil)

const trackColumns = `id, title, artist, album, duration, file_url, stream_url, cover_image_url, lyrics, genre, year, is_active, created_at, updated_at`

func scanTrack(row interface{ Scan(...any) error }) (*domain.Track, error) {
	var t domain.Track
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Artist,
		&t.Album,
		&t.Duration,
		&t.FileURL,
		&t.StreamURL,
		&t.CoverImageURL,
		&t.Lyrics,
		&t.Genre,
		&t.Year,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTracks 曲目列表
func (r *PostgresMusicRepository) ListTracks(ctx context.Context, activeOnly bool) ([]*domain.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM music_track`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	defer rows.Close()

	return collectTracks(rows)
}

// GetTrack 按ID获取曲目
func (r *PostgresMusicRepository) GetTrack(ctx context.Context, id int64) (*domain.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM music_track WHERE id = $1`
	track, err := scanTrack(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get track: %w", err)
	}
	return track, nil
}

// CreateTrack 创建曲目
func (r *PostgresMusicRepository) CreateTrack(ctx context.Context, track *domain.Track) (*domain.Track, error) {
	if track.Title == "" || track.Artist == "" {
		return nil, fmt.Errorf("title and artist are required")
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO music_track
			(title, artist, album, duration, file_url, stream_url, cover_image_url,
			 lyrics, genre, year, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		track.Title, track.Artist, track.Album, track.Duration,
		track.FileURL, track.StreamURL, track.CoverImageURL,
		track.Lyrics, track.Genre, track.Year, track.IsActive, now,
	).Scan(&track.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create track: %w", err)
	}

	track.CreatedAt = now
	track.UpdatedAt = now
	return track, nil
}

// DeleteTrack 删除曲目（同时清除播放列表关联）
func (r *PostgresMusicRepository) DeleteTrack(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM playlist_track WHERE track_id = $1`, id); err != nil {
		return fmt.Errorf("failed to remove track from playlists: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM music_track WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// ListPlaylists 播放列表
func (r *PostgresMusicRepository) ListPlaylists(ctx context.Context) ([]*domain.Playlist, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, is_active, created_at, updated_at FROM music_playlist ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	defer rows.Close()

	playlists := []*domain.Playlist{}
	for rows.Next() {
		var p domain.Playlist
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate playlists: %w", err)
	}

	return playlists, nil
}

// PlaylistTracks 播放列表内曲目，按position升序
func (r *PostgresMusicRepository) PlaylistTracks(ctx context.Context, playlistID int64) ([]*domain.Track, error) {
	query := `
		SELECT t.id, t.title, t.artist, t.album, t.duration, t.file_url, t.stream_url,
		       t.cover_image_url, t.lyrics, t.genre, t.year, t.is_active, t.created_at, t.updated_at
		FROM playlist_track pt
		JOIN music_track t ON t.id = pt.track_id
		WHERE pt.playlist_id = $1
		ORDER BY pt.position ASC
	`
	rows, err := r.db.QueryContext(ctx, query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlist tracks: %w", err)
	}
	defer rows.Close()

	return collectTracks(rows)
}

// CreatePlaylist 创建播放列表
func (r *PostgresMusicRepository) CreatePlaylist(ctx context.Context, playlist *domain.Playlist) (*domain.Playlist, error) {
	if playlist.Name == "" {
		return nil, fmt.Errorf("name is required")
	}

	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO music_playlist (name, description, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $4) RETURNING id`,
		playlist.Name, playlist.Description, playlist.IsActive, now,
	).Scan(&playlist.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	playlist.CreatedAt = now
	playlist.UpdatedAt = now
	return playlist, nil
}

// AddTrackToPlaylist 追加曲目到播放列表尾部
func (r *PostgresMusicRepository) AddTrackToPlaylist(ctx context.Context, playlistID, trackID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO playlist_track (playlist_id, track_id, position, added_at)
		 SELECT $1, $2, COALESCE(MAX(position), 0) + 1, $3
		 FROM playlist_track WHERE playlist_id = $1`,
		playlistID, trackID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to add track to playlist: %w", err)
	}
	return nil
}

// RemoveTrackFromPlaylist 从播放列表移除曲目
func (r *PostgresMusicRepository) RemoveTrackFromPlaylist(ctx context.Context, playlistID, trackID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM playlist_track WHERE playlist_id = $1 AND track_id = $2`,
		playlistID, trackID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove track from playlist: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func collectTracks(rows *sql.Rows) ([]*domain.Track, error) {
	tracks := []*domain.Track{}
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tracks: %w", err)
	}
	return tracks, nil
}
