package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"blogcloud/internal/domain"
)

// PostgresCommentsRepository 评论Repository实现
type PostgresCommentsRepository struct {
	db *sql.DB
}

// NewPostgresCommentsRepository 创建评论Repository
func NewPostgresCommentsRepository(db *sql.DB) *PostgresCommentsRepository {
	return &PostgresCommentsRepository{db: db}
}

var _ CommentsRepository = (*PostgresCommentsRepository)(nil)

const commentColumns = `id, post_id, parent_id, content, author_name, author_email, author_website, ip_address, location, user_agent, is_approved, is_visible, is_deleted, created_at, updated_at`

// ListComments 按文章查询评论（升序，回复嵌套由前端按parent_id组装）
func (r *PostgresCommentsRepository) ListComments(ctx context.Context, postID int64, approvedOnly bool) ([]*domain.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM blog_comment WHERE post_id = $1 AND is_deleted = FALSE`
	if approvedOnly {
		query += ` AND is_approved = TRUE AND is_visible = TRUE`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []*domain.Comment{}
	for rows.Next() {
		var c domain.Comment
		err := rows.Scan(
			&c.ID,
			&c.PostID,
			&c.ParentID,
			&c.Content,
			&c.AuthorName,
			&c.AuthorEmail,
			&c.AuthorWebsite,
			&c.IPAddress,
			&c.Location,
			&c.UserAgent,
			&c.IsApproved,
			&c.IsVisible,
			&c.IsDeleted,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}

	return comments, nil
}

// CreateComment 创建评论
func (r *PostgresCommentsRepository) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	if comment.PostID == 0 {
		return nil, fmt.Errorf("post_id is required")
	}
	if comment.Content == "" {
		return nil, fmt.Errorf("content is required")
	}
	if comment.AuthorName == "" {
		return nil, fmt.Errorf("author_name is required")
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO blog_comment
			(post_id, parent_id, content, author_name, author_email, author_website,
			 ip_address, location, user_agent, is_approved, is_visible, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		comment.PostID, comment.ParentID, comment.Content,
		comment.AuthorName, comment.AuthorEmail, comment.AuthorWebsite,
		comment.IPAddress, comment.Location, comment.UserAgent,
		comment.IsApproved, comment.IsVisible, now,
	).Scan(&comment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	comment.CreatedAt = now
	comment.UpdatedAt = now
	return comment, nil
}

// ApproveComment 审核通过评论
func (r *PostgresCommentsRepository) ApproveComment(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE blog_comment SET is_approved = TRUE, updated_at = $1 WHERE id = $2 AND is_deleted = FALSE`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to approve comment: %w", err)
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

// DeleteComment 软删除评论
func (r *PostgresCommentsRepository) DeleteComment(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE blog_comment SET is_deleted = TRUE, updated_at = $1 WHERE id = $2 AND is_deleted = FALSE`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
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
