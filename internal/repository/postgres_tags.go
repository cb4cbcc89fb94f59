package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"blogcloud/internal/domain"
)

// PostgresTagsRepository 标签云Repository实现
type PostgresTagsRepository struct {
	db *sql.DB
}

// NewPostgresTagsRepository 创建标签云Repository
func NewPostgresTagsRepository(db *sql.DB) *PostgresTagsRepository {
	return &PostgresTagsRepository{db: db}
}

// 确保实现了接口
var _ TagsRepository = (*PostgresTagsRepository)(nil)

const tagColumns = `id, name, count, size, color, category, source, is_active, last_fetched_at, created_at, updated_at`

func scanTag(row interface{ Scan(...any) error }) (*domain.Tag, error) {
	var tag domain.Tag
	err := row.Scan(
		&tag.ID,
		&tag.Name,
		&tag.Count,
		&tag.Size,
		&tag.Color,
		&tag.Category,
		&tag.Source,
		&tag.IsActive,
		&tag.LastFetchedAt,
		&tag.CreatedAt,
		&tag.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// GetTagByName 按名称精确匹配
func (r *PostgresTagsRepository) GetTagByName(ctx context.Context, name string) (*domain.Tag, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	query := `SELECT ` + tagColumns + ` FROM tag_cloud WHERE name = $1`

	tag, err := scanTag(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("tag not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}

	return tag, nil
}

// ListTags 查询标签列表（支持分页、过滤）
func (r *PostgresTagsRepository) ListTags(ctx context.Context, filter TagsFilter, page, size int) ([]*domain.Tag, int, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}

	// 构建WHERE条件
	where := []string{"TRUE"}
	args := []any{}
	argIdx := 1

	if filter.Category != "" {
		where = append(where, fmt.Sprintf("category = $%d", argIdx))
		args = append(args, filter.Category)
		argIdx++
	}
	if filter.Source != "" {
		where = append(where, fmt.Sprintf("source = $%d", argIdx))
		args = append(args, filter.Source)
		argIdx++
	}
	if filter.IsActive != nil {
		where = append(where, fmt.Sprintf("is_active = $%d", argIdx))
		args = append(args, *filter.IsActive)
		argIdx++
	}

	whereClause := strings.Join(where, " AND ")

	// 查询总数
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM tag_cloud WHERE %s`, whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tags: %w", err)
	}

	// 查询列表（带分页），按count降序
	query := fmt.Sprintf(`SELECT %s FROM tag_cloud WHERE %s ORDER BY count DESC, name LIMIT $%d OFFSET $%d`,
		tagColumns, whereClause, argIdx, argIdx+1)
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	tags := []*domain.Tag{}
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate tags: %w", err)
	}

	return tags, total, nil
}

// ListActiveTags 获取激活标签（公开标签云展示用）
func (r *PostgresTagsRepository) ListActiveTags(ctx context.Context, limit int) ([]*domain.Tag, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + tagColumns + ` FROM tag_cloud WHERE is_active = TRUE ORDER BY count DESC, name LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tags: %w", err)
	}
	defer rows.Close()

	tags := []*domain.Tag{}
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}

	return tags, nil
}

// TagStats 标签统计
func (r *PostgresTagsRepository) TagStats(ctx context.Context) (*TagStats, error) {
	stats := &TagStats{
		CategoryStats: map[string]int{},
		SourceStats:   map[string]int{},
	}

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active) FROM tag_cloud`,
	).Scan(&stats.TotalTags, &stats.ActiveTags)
	if err != nil {
		return nil, fmt.Errorf("failed to count tags: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT category, COUNT(*) FROM tag_cloud GROUP BY category ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get category stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category stats: %w", err)
		}
		stats.CategoryStats[category] = count
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category stats: %w", err)
	}

	srcRows, err := r.db.QueryContext(ctx,
		`SELECT source, COUNT(*) FROM tag_cloud GROUP BY source ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get source stats: %w", err)
	}
	defer srcRows.Close()
	for srcRows.Next() {
		var source string
		var count int
		if err := srcRows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("failed to scan source stats: %w", err)
		}
		stats.SourceStats[source] = count
	}
	if err = srcRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate source stats: %w", err)
	}

	return stats, nil
}

// CreateManualTag 创建手动标签
// size/color由count/category派生，调用方传入的值会被覆盖
func (r *PostgresTagsRepository) CreateManualTag(ctx context.Context, tag *domain.Tag) (*domain.Tag, error) {
	if tag == nil {
		return nil, fmt.Errorf("tag is required")
	}
	if tag.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if tag.Count < 0 {
		return nil, fmt.Errorf("count must be non-negative")
	}

	if tag.Category == "" {
		tag.Category = "general"
	}
	tag.Size = domain.SizeForCount(tag.Count)
	tag.Color = domain.ColorForCategory(tag.Category)
	tag.Source = domain.TagSourceManual

	now := time.Now().UTC()
	query := `
		INSERT INTO tag_cloud (name, count, size, color, category, source, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		tag.Name, tag.Count, tag.Size, tag.Color, tag.Category, tag.Source, tag.IsActive, now,
	).Scan(&tag.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	tag.CreatedAt = now
	tag.UpdatedAt = now
	return tag, nil
}

// UpdateManualTag 更新手动标签（nil字段不修改）
func (r *PostgresTagsRepository) UpdateManualTag(ctx context.Context, id int64, patch TagPatch) (*domain.Tag, error) {
	if id <= 0 {
		return nil, fmt.Errorf("id is required")
	}

	set := []string{}
	args := []any{}
	argIdx := 1

	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, fmt.Errorf("name cannot be empty")
		}
		set = append(set, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *patch.Name)
		argIdx++
	}
	if patch.Count != nil {
		if *patch.Count < 0 {
			return nil, fmt.Errorf("count must be non-negative")
		}
		set = append(set, fmt.Sprintf("count = $%d", argIdx))
		args = append(args, *patch.Count)
		argIdx++
		// size由count派生
		set = append(set, fmt.Sprintf("size = $%d", argIdx))
		args = append(args, domain.SizeForCount(*patch.Count))
		argIdx++
	}
	if patch.Category != nil {
		set = append(set, fmt.Sprintf("category = $%d", argIdx))
		args = append(args, *patch.Category)
		argIdx++
		// color由category派生
		set = append(set, fmt.Sprintf("color = $%d", argIdx))
		args = append(args, domain.ColorForCategory(*patch.Category))
		argIdx++
	}
	if patch.IsActive != nil {
		set = append(set, fmt.Sprintf("is_active = $%d", argIdx))
		args = append(args, *patch.IsActive)
		argIdx++
	}

	if len(set) == 0 {
		return r.getTagByID(ctx, id)
	}

	set = append(set, fmt.Sprintf("updated_at = $%d", argIdx))
	args = append(args, time.Now().UTC())
	argIdx++

	query := fmt.Sprintf(`UPDATE tag_cloud SET %s WHERE id = $%d RETURNING `+tagColumns,
		strings.Join(set, ", "), argIdx)
	args = append(args, id)

	tag, err := scanTag(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("tag not found: %w", err)
		}
		return nil, fmt.Errorf("failed to update tag: %w", err)
	}

	return tag, nil
}

func (r *PostgresTagsRepository) getTagByID(ctx context.Context, id int64) (*domain.Tag, error) {
	tag, err := scanTag(r.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tag_cloud WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("tag not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return tag, nil
}

// DeleteTag 删除标签（硬删除，仅限显式管理操作）
func (r *PostgresTagsRepository) DeleteTag(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("id is required")
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM tag_cloud WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// ToggleTagActive 切换标签激活状态
func (r *PostgresTagsRepository) ToggleTagActive(ctx context.Context, id int64) (*domain.Tag, error) {
	if id <= 0 {
		return nil, fmt.Errorf("id is required")
	}

	query := `UPDATE tag_cloud SET is_active = NOT is_active, updated_at = $2 WHERE id = $1 RETURNING ` + tagColumns

	tag, err := scanTag(r.db.QueryRowContext(ctx, query, id, time.Now().UTC()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("tag not found: %w", err)
		}
		return nil, fmt.Errorf("failed to toggle tag: %w", err)
	}

	return tag, nil
}

// UpsertMerge 合并模式reconcile
// 按name精确查找：存在则count=max(旧,新)并刷新size/color/source/last_fetched_at，
// 不存在则以source=auto插入。单事务执行。
func (r *PostgresTagsRepository) UpsertMerge(ctx context.Context, entries []TagEntry, now time.Time) (int, int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	newCount, updatedCount, err := upsertEntries(ctx, tx, entries, now)
	if err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit tx: %w", err)
	}

	return newCount, updatedCount, nil
}

// ReplaceAuto 替换模式reconcile
// 删除所有source=auto/trending的行后按name逐条upsert；manual行保留，
// 与存活manual行重名或批内重名时走更新路径，不会撞name唯一约束。单事务执行。
func (r *PostgresTagsRepository) ReplaceAuto(ctx context.Context, entries []TagEntry, now time.Time) (int, int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM tag_cloud WHERE source IN ($1, $2)`,
		domain.TagSourceAuto, domain.TagSourceTrending,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to clear auto tags: %w", err)
	}

	newCount, updatedCount, err := upsertEntries(ctx, tx, entries, now)
	if err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit tx: %w", err)
	}

	return newCount, updatedCount, nil
}

// upsertEntries 按name逐条存在性检查后插入或更新：
// 已有行count取max(旧,新)并刷新size/color/source/last_fetched_at，无则以source=auto插入
func upsertEntries(ctx context.Context, tx *sql.Tx, entries []TagEntry, now time.Time) (int, int, error) {
	newCount := 0
	updatedCount := 0

	for _, entry := range entries {
		var existingCount int
		err := tx.QueryRowContext(ctx,
			`SELECT count FROM tag_cloud WHERE name = $1`, entry.Name,
		).Scan(&existingCount)

		switch {
		case err == sql.ErrNoRows:
			if err := insertAutoTag(ctx, tx, entry, now); err != nil {
				return 0, 0, err
			}
			newCount++
		case err != nil:
			return 0, 0, fmt.Errorf("failed to look up tag %q: %w", entry.Name, err)
		default:
			merged := existingCount
			if entry.Count > merged {
				merged = entry.Count
			}
			_, err := tx.ExecContext(ctx,
				`UPDATE tag_cloud
				 SET count = $2, size = $3, color = $4, source = $5, last_fetched_at = $6, updated_at = $6
				 WHERE name = $1`,
				entry.Name,
				merged,
				domain.SizeForCount(merged),
				domain.ColorForCategory(entry.Category),
				domain.TagSourceAuto,
				now,
			)
			if err != nil {
				return 0, 0, fmt.Errorf("failed to update tag %q: %w", entry.Name, err)
			}
			updatedCount++
		}
	}

	return newCount, updatedCount, nil
}

func insertAutoTag(ctx context.Context, tx *sql.Tx, entry TagEntry, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO tag_cloud (name, count, size, color, category, source, is_active, last_fetched_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, $7, $7)`,
		entry.Name,
		entry.Count,
		domain.SizeForCount(entry.Count),
		domain.ColorForCategory(entry.Category),
		entry.Category,
		domain.TagSourceAuto,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert tag %q: %w", entry.Name, err)
	}
	return nil
}
