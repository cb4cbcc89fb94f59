package repository

import (
	"context"
	"fmt"
	"time"

	"blogcloud/internal/domain"
)

// AppendFetchHistory 追加一条获取历史
// 历史表仅追加：没有更新或删除路径
func (r *PostgresTagsRepository) AppendFetchHistory(ctx context.Context, rec *domain.FetchHistory) error {
	if rec == nil {
		return fmt.Errorf("record is required")
	}
	if rec.Source == "" {
		return fmt.Errorf("source is required")
	}
	if rec.Status == "" {
		return fmt.Errorf("status is required")
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO tag_cloud_fetch_history
			(fetch_date, source, total_tags, new_tags, updated_tags, status, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		rec.FetchDate, rec.Source, rec.TotalTags, rec.NewTags, rec.UpdatedTags,
		rec.Status, rec.ErrorMessage, now,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to append fetch history: %w", err)
	}

	rec.CreatedAt = now
	return nil
}

// ListFetchHistory 获取历史列表（按获取日期降序）
func (r *PostgresTagsRepository) ListFetchHistory(ctx context.Context, limit int) ([]*domain.FetchHistory, error) {
	if limit <= 0 {
		limit = 30
	}

	query := `
		SELECT id, fetch_date, source, total_tags, new_tags, updated_tags, status, error_message, created_at
		FROM tag_cloud_fetch_history
		ORDER BY fetch_date DESC, id DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list fetch history: %w", err)
	}
	defer rows.Close()

	records := []*domain.FetchHistory{}
	for rows.Next() {
		var rec domain.FetchHistory
		err := rows.Scan(
			&rec.ID,
			&rec.FetchDate,
			&rec.Source,
			&rec.TotalTags,
			&rec.NewTags,
			&rec.UpdatedTags,
			&rec.Status,
			&rec.ErrorMessage,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fetch history: %w", err)
		}
		records = append(records, &rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fetch history: %w", err)
	}

	return records, nil
}
