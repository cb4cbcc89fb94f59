package domain

import "time"

// Post 博客文章
type Post struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Summary       *string   `json:"summary,omitempty"`
	CoverImageURL *string   `json:"cover_image_url,omitempty"`
	IsPublished   bool      `json:"is_published"`
	IsDeleted     bool      `json:"is_deleted"`
	IsVisible     bool      `json:"is_visible"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Comment 文章评论（支持parent_id回复嵌套，软删除）
type Comment struct {
	ID            int64     `json:"id"`
	PostID        int64     `json:"post_id"`
	ParentID      *int64    `json:"parent_id,omitempty"`
	Content       string    `json:"content"`
	AuthorName    string    `json:"author_name"`
	AuthorEmail   *string   `json:"author_email,omitempty"`
	AuthorWebsite *string   `json:"author_website,omitempty"`
	IPAddress     *string   `json:"ip_address,omitempty"`
	Location      *string   `json:"location,omitempty"`
	UserAgent     *string   `json:"user_agent,omitempty"`
	IsApproved    bool      `json:"is_approved"`
	IsVisible     bool      `json:"is_visible"`
	IsDeleted     bool      `json:"is_deleted"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
