package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"blogcloud/internal/domain"
)

// PostgresPostsRepository 文章Repository实现
type PostgresPostsRepository struct {
	db *sql.DB
}

// NewPostgresPostsRepository 创建文章Repository
func NewPostgresPostsRepository(db *sql.DB) *PostgresPostsRepository {
	return &PostgresPostsRepository{db: db}
}

var _ PostsRepository = (*PostgresPostsRepository)(nil)

const postColumns = `id, title, content, summary, cover_image_url, is_published, is_deleted, is_visible, created_at, updated_at`

func scanPost(row interface{ Scan(...any) error }) (*domain.Post, error) {
	var p domain.Post
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Content,
		&p.Summary,
		&p.CoverImageURL,
		&p.IsPublished,
		&p.IsDeleted,
		&p.IsVisible,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPost 按ID获取文章（不返回已软删除的行）
func (r *PostgresPostsRepository) GetPost(ctx context.Context, id int64) (*domain.Post, error) {
	query := `SELECT ` + postColumns + ` FROM blog_post WHERE id = $1 AND is_deleted = FALSE`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

// ListPosts 查询文章列表（分页，按创建时间降序）
func (r *PostgresPostsRepository) ListPosts(ctx context.Context, filter PostsFilter, page, size int) ([]*domain.Post, int, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 10
	}

	where := `WHERE is_deleted = FALSE`
	args := []any{}
	idx := 1

	if filter.PublishedOnly {
		where += ` AND is_published = TRUE AND is_visible = TRUE`
	}
	if filter.Search != "" {
		where += fmt.Sprintf(` AND (title ILIKE $%d OR content ILIKE $%d)`, idx, idx)
		args = append(args, "%"+filter.Search+"%")
		idx++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM blog_post ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+postColumns+` FROM blog_post %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, idx, idx+1)
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := []*domain.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, total, nil
}

// CreatePost 创建文章
func (r *PostgresPostsRepository) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	if post.Title == "" {
		return nil, fmt.Errorf("title is required")
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO blog_post (title, content, summary, cover_image_url, is_published, is_visible, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		post.Title, post.Content, post.Summary, post.CoverImageURL,
		post.IsPublished, post.IsVisible, now,
	).Scan(&post.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	post.CreatedAt = now
	post.UpdatedAt = now
	return post, nil
}

// UpdatePost 更新文章（动态SET，nil字段跳过）
func (r *PostgresPostsRepository) UpdatePost(ctx context.Context, id int64, patch PostPatch) (*domain.Post, error) {
	sets := []string{}
	args := []any{}
	idx := 1

	add := func(col string, val any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Content != nil {
		add("content", *patch.Content)
	}
	if patch.Summary != nil {
		add("summary", *patch.Summary)
	}
	if patch.CoverImageURL != nil {
		add("cover_image_url", *patch.CoverImageURL)
	}
	if patch.IsPublished != nil {
		add("is_published", *patch.IsPublished)
	}
	if patch.IsVisible != nil {
		add("is_visible", *patch.IsVisible)
	}

	if len(sets) == 0 {
		return r.GetPost(ctx, id)
	}

	add("updated_at", time.Now().UTC())
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE blog_post SET %s WHERE id = $%d AND is_deleted = FALSE RETURNING `+postColumns,
		strings.Join(sets, ", "), idx)

	post, err := scanPost(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	return post, nil
}

// DeletePost 软删除文章
func (r *PostgresPostsRepository) DeletePost(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE blog_post SET is_deleted = TRUE, updated_at = $1 WHERE id = $2 AND is_deleted = FALSE`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
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
