package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"blogcloud/internal/domain"
)

// PostgresSettingsRepository 键值设置Repository实现
type PostgresSettingsRepository struct {
	db *sql.DB
}

// NewPostgresSettingsRepository 创建设置Repository
func NewPostgresSettingsRepository(db *sql.DB) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{db: db}
}

var _ SettingsRepository = (*PostgresSettingsRepository)(nil)

const settingColumns = `id, category, key_name, key_value, key_type, description, is_editable, is_public, sort_order, created_at, updated_at`

// Get 读取单个设置值
func (r *PostgresSettingsRepository) Get(ctx context.Context, category, key string) (string, error) {
	if category == "" || key == "" {
		return "", fmt.Errorf("category and key are required")
	}

	var value sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT key_value FROM system_setting WHERE category = $1 AND key_name = $2`,
		category, key,
	).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrSettingNotFound
		}
		return "", fmt.Errorf("failed to get setting: %w", err)
	}

	return value.String, nil
}

// GetCategory 读取一个分类下的全部键值
func (r *PostgresSettingsRepository) GetCategory(ctx context.Context, category string) (map[string]string, error) {
	if category == "" {
		return nil, fmt.Errorf("category is required")
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT key_name, key_value FROM system_setting WHERE category = $1`,
		category,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	defer rows.Close()

	values := map[string]string{}
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		values[key] = value.String
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settings: %w", err)
	}

	return values, nil
}

// Upsert 写入设置值（不存在则创建）
func (r *PostgresSettingsRepository) Upsert(ctx context.Context, category, key, value, keyType string) error {
	if category == "" || key == "" {
		return fmt.Errorf("category and key are required")
	}
	if keyType == "" {
		keyType = domain.SettingTypeString
	}

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO system_setting (category, key_name, key_value, key_type, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 ON CONFLICT (category, key_name)
		 DO UPDATE SET key_value = EXCLUDED.key_value,
		               key_type = EXCLUDED.key_type,
		               updated_at = EXCLUDED.updated_at`,
		category, key, value, keyType, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert setting: %w", err)
	}

	return nil
}

// List 列出一个分类下的设置
func (r *PostgresSettingsRepository) List(ctx context.Context, category string) ([]*domain.SystemSetting, error) {
	query := `SELECT ` + settingColumns + ` FROM system_setting`
	args := []any{}
	if category != "" {
		query += ` WHERE category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY category, sort_order, key_name`

	return r.querySettings(ctx, query, args...)
}

// ListPublic 列出公开设置
func (r *PostgresSettingsRepository) ListPublic(ctx context.Context) ([]*domain.SystemSetting, error) {
	query := `SELECT ` + settingColumns + ` FROM system_setting WHERE is_public = TRUE ORDER BY category, sort_order, key_name`
	return r.querySettings(ctx, query)
}

func (r *PostgresSettingsRepository) querySettings(ctx context.Context, query string, args ...any) ([]*domain.SystemSetting, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	settings := []*domain.SystemSetting{}
	for rows.Next() {
		var s domain.SystemSetting
		err := rows.Scan(
			&s.ID,
			&s.Category,
			&s.KeyName,
			&s.KeyValue,
			&s.KeyType,
			&s.Description,
			&s.IsEditable,
			&s.IsPublic,
			&s.SortOrder,
			&s.CreatedAt,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings = append(settings, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settings: %w", err)
	}

	return settings, nil
}
