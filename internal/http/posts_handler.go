package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"blogcloud/internal/domain"
	"blogcloud/internal/repository"
)

// PostsHandler 文章与评论接口
type PostsHandler struct {
	posts    repository.PostsRepository
	comments repository.CommentsRepository
	logger   *zap.Logger
}

func NewPostsHandler(posts repository.PostsRepository, comments repository.CommentsRepository, logger *zap.Logger) *PostsHandler {
	return &PostsHandler{posts: posts, comments: comments, logger: logger}
}

type createPostRequest struct {
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	Summary       *string `json:"summary,omitempty"`
	CoverImageURL *string `json:"cover_image_url,omitempty"`
	IsPublished   bool    `json:"is_published"`
}

type updatePostRequest struct {
	Title         *string `json:"title,omitempty"`
	Content       *string `json:"content,omitempty"`
	Summary       *string `json:"summary,omitempty"`
	CoverImageURL *string `json:"cover_image_url,omitempty"`
	IsPublished   *bool   `json:"is_published,omitempty"`
	IsVisible     *bool   `json:"is_visible,omitempty"`
}

type createCommentRequest struct {
	ParentID      *int64  `json:"parent_id,omitempty"`
	Content       string  `json:"content"`
	AuthorName    string  `json:"author_name"`
	AuthorEmail   *string `json:"author_email,omitempty"`
	AuthorWebsite *string `json:"author_website,omitempty"`
}

// ListPosts 文章列表
// GET /blog/api/v1/posts（公开，仅已发布）
// GET /blog/api/v1/admin/posts（管理，含草稿）
func (h *PostsHandler) ListPosts(w http.ResponseWriter, r *http.Request, publishedOnly bool) {
	q := r.URL.Query()
	filter := repository.PostsFilter{
		PublishedOnly: publishedOnly,
		Search:        q.Get("search"),
	}

	posts, total, err := h.posts.ListPosts(r.Context(), filter, parseInt(q.Get("page"), 1), parseInt(q.Get("size"), 10))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": posts,
		"total": total,
	}))
}

// GetPost 文章详情
// GET /blog/api/v1/posts/{id}
func (h *PostsHandler) GetPost(w http.ResponseWriter, r *http.Request, id int64) {
	post, err := h.posts.GetPost(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(post))
}

// CreatePost 创建文章
// POST /blog/api/v1/admin/posts
func (h *PostsHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := readBodyJSON(r, 4<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, Fail("title is required"))
		return
	}

	post, err := h.posts.CreatePost(r.Context(), &domain.Post{
		Title:         req.Title,
		Content:       req.Content,
		Summary:       req.Summary,
		CoverImageURL: req.CoverImageURL,
		IsPublished:   req.IsPublished,
		IsVisible:     true,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(post))
}

// UpdatePost 更新文章
// PUT /blog/api/v1/admin/posts/{id}
func (h *PostsHandler) UpdatePost(w http.ResponseWriter, r *http.Request, id int64) {
	var req updatePostRequest
	if err := readBodyJSON(r, 4<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	post, err := h.posts.UpdatePost(r.Context(), id, repository.PostPatch{
		Title:         req.Title,
		Content:       req.Content,
		Summary:       req.Summary,
		CoverImageURL: req.CoverImageURL,
		IsPublished:   req.IsPublished,
		IsVisible:     req.IsVisible,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(post))
}

// DeletePost 软删除文章
// DELETE /blog/api/v1/admin/posts/{id}
func (h *PostsHandler) DeletePost(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.posts.DeletePost(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"deleted": true}))
}

// ListComments 文章评论（公开，仅已审核）
// GET /blog/api/v1/posts/{id}/comments
func (h *PostsHandler) ListComments(w http.ResponseWriter, r *http.Request, postID int64, approvedOnly bool) {
	comments, err := h.comments.ListComments(r.Context(), postID, approvedOnly)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(comments))
}

// CreateComment 提交评论（默认未审核）
// POST /blog/api/v1/posts/{id}/comments
func (h *PostsHandler) CreateComment(w http.ResponseWriter, r *http.Request, postID int64) {
	var req createCommentRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Content) == "" || strings.TrimSpace(req.AuthorName) == "" {
		writeJSON(w, http.StatusBadRequest, Fail("content and author_name are required"))
		return
	}

	// 文章必须存在且可见
	if _, err := h.posts.GetPost(r.Context(), postID); err != nil {
		writeServiceError(w, err)
		return
	}

	remoteAddr := r.RemoteAddr
	userAgent := r.UserAgent()
	comment, err := h.comments.CreateComment(r.Context(), &domain.Comment{
		PostID:        postID,
		ParentID:      req.ParentID,
		Content:       req.Content,
		AuthorName:    req.AuthorName,
		AuthorEmail:   req.AuthorEmail,
		AuthorWebsite: req.AuthorWebsite,
		IPAddress:     &remoteAddr,
		UserAgent:     &userAgent,
		IsVisible:     true,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(comment))
}

// ApproveComment 审核通过评论
// POST /blog/api/v1/admin/comments/{id}/approve
func (h *PostsHandler) ApproveComment(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.comments.ApproveComment(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"approved": true}))
}

// DeleteComment 删除评论
// DELETE /blog/api/v1/admin/comments/{id}
func (h *PostsHandler) DeleteComment(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.comments.DeleteComment(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"deleted": true}))
}

// ServePublicPost 分发 /posts/{id} 与 /posts/{id}/comments
func (h *PostsHandler) ServePublicPost(w http.ResponseWriter, r *http.Request, rest string) {
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, Fail("invalid post id"))
		return
	}

	switch {
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.GetPost(w, r, id)
	case len(parts) == 2 && parts[1] == "comments":
		switch r.Method {
		case http.MethodGet:
			h.ListComments(w, r, id, true)
		case http.MethodPost:
			h.CreateComment(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// ServeAdminPost 分发 /admin/posts/{id}
func (h *PostsHandler) ServeAdminPost(w http.ResponseWriter, r *http.Request, rest string) {
	id, err := strconv.ParseInt(strings.Trim(rest, "/"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, Fail("invalid post id"))
		return
	}

	switch r.Method {
	case http.MethodPut:
		h.UpdatePost(w, r, id)
	case http.MethodDelete:
		h.DeletePost(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// ServeAdminComment 分发 /admin/comments/{id}[/approve]
func (h *PostsHandler) ServeAdminComment(w http.ResponseWriter, r *http.Request, rest string) {
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, Fail("invalid comment id"))
		return
	}

	switch {
	case len(parts) == 2 && parts[1] == "approve" && r.Method == http.MethodPost:
		h.ApproveComment(w, r, id)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.DeleteComment(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
