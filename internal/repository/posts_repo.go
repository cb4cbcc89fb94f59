package repository

import (
	"context"
	"errors"

	"blogcloud/internal/domain"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// PostsFilter 文章查询过滤器
type PostsFilter struct {
	PublishedOnly bool // true时仅返回已发布且可见的文章
	Search        string
}

// PostPatch 文章更新（nil字段不修改）
type PostPatch struct {
	Title         *string
	Content       *string
	Summary       *string
	CoverImageURL *string
	IsPublished   *bool
	IsVisible     *bool
}

// PostsRepository 博客文章Repository接口
type PostsRepository interface {
	GetPost(ctx context.Context, id int64) (*domain.Post, error)
	ListPosts(ctx context.Context, filter PostsFilter, page, size int) ([]*domain.Post, int, error)
	CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error)
	UpdatePost(ctx context.Context, id int64, patch PostPatch) (*domain.Post, error)
	// DeletePost 软删除（is_deleted=true）
	DeletePost(ctx context.Context, id int64) error
}

// CommentsRepository 评论Repository接口（软删除，按文章查询）
type CommentsRepository interface {
	ListComments(ctx context.Context, postID int64, approvedOnly bool) ([]*domain.Comment, error)
	CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	ApproveComment(ctx context.Context, id int64) error
	DeleteComment(ctx context.Context, id int64) error
}
