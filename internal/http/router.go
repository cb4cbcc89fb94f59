package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	apiPrefix   = "/blog/api/v1"
	adminPrefix = apiPrefix + "/admin"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux        *http.ServeMux
	logger     *zap.Logger
	adminToken string
}

func NewRouter(adminToken string, logger *zap.Logger) *Router {
	return &Router{
		mux:        http.NewServeMux(),
		logger:     logger,
		adminToken: adminToken,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// handleAdmin 管理路由统一过X-Admin-Token鉴权
func (r *Router) handleAdmin(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, AdminAuth(r.adminToken, r.logger, h))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	RequestLogging(r.logger, r.mux).ServeHTTP(w, req)
}

func methodOnly(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}

// RegisterHealthRoutes 健康检查
func (r *Router) RegisterHealthRoutes() {
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
	})
}

// RegisterTagRoutes 标签云路由
func (r *Router) RegisterTagRoutes(tags *TagsHandler, fetch *FetchHandler) {
	// public
	r.Handle(apiPrefix+"/tag-cloud", methodOnly(http.MethodGet, tags.GetTagCloud))

	// admin: tag CRUD
	r.handleAdmin(adminPrefix+"/tags", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			tags.ListTags(w, req)
		case http.MethodPost:
			tags.CreateTag(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	r.handleAdmin(adminPrefix+"/tags/stats", methodOnly(http.MethodGet, tags.GetStats))
	r.handleAdmin(adminPrefix+"/tags/export", methodOnly(http.MethodGet, tags.Export))
	r.handleAdmin(adminPrefix+"/tags/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, adminPrefix+"/tags/")
		tags.ServeAdminTag(w, req, rest)
	})

	// admin: fetch pipeline
	r.handleAdmin(adminPrefix+"/tag-cloud/fetch", methodOnly(http.MethodPost, fetch.RunFetch))
	r.handleAdmin(adminPrefix+"/tag-cloud/fetch/stream", methodOnly(http.MethodPost, fetch.StreamFetch))
	r.handleAdmin(adminPrefix+"/tag-cloud/apply", methodOnly(http.MethodPost, fetch.ApplyTags))
	r.handleAdmin(adminPrefix+"/tag-cloud/history", methodOnly(http.MethodGet, tags.GetHistory))

	// admin: schedule
	r.handleAdmin(adminPrefix+"/schedule", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			fetch.GetSchedule(w, req)
		case http.MethodPut:
			fetch.UpdateSchedule(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	r.handleAdmin(adminPrefix+"/schedule/ai", methodOnly(http.MethodPut, fetch.UpdateAI))
	r.handleAdmin(adminPrefix+"/schedule/status", methodOnly(http.MethodGet, fetch.GetStatus))
}

// RegisterBlogRoutes 文章与评论路由
func (r *Router) RegisterBlogRoutes(posts *PostsHandler) {
	// public
	r.Handle(apiPrefix+"/posts", methodOnly(http.MethodGet, func(w http.ResponseWriter, req *http.Request) {
		posts.ListPosts(w, req, true)
	}))
	r.Handle(apiPrefix+"/posts/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, apiPrefix+"/posts/")
		posts.ServePublicPost(w, req, rest)
	})

	// admin
	r.handleAdmin(adminPrefix+"/posts", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			posts.ListPosts(w, req, false)
		case http.MethodPost:
			posts.CreatePost(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	r.handleAdmin(adminPrefix+"/posts/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, adminPrefix+"/posts/")
		posts.ServeAdminPost(w, req, rest)
	})
	r.handleAdmin(adminPrefix+"/comments/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, adminPrefix+"/comments/")
		posts.ServeAdminComment(w, req, rest)
	})
}

// RegisterMusicRoutes 音乐路由
func (r *Router) RegisterMusicRoutes(music *MusicHandler) {
	// public
	r.Handle(apiPrefix+"/music/tracks", methodOnly(http.MethodGet, func(w http.ResponseWriter, req *http.Request) {
		music.ListTracks(w, req, true)
	}))
	r.Handle(apiPrefix+"/music/playlists", methodOnly(http.MethodGet, music.ListPlaylists))
	r.Handle(apiPrefix+"/music/playlists/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, apiPrefix+"/music/playlists/")
		music.ServePublicPlaylist(w, req, rest)
	})

	// admin
	r.handleAdmin(adminPrefix+"/music/tracks", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			music.ListTracks(w, req, false)
		case http.MethodPost:
			music.CreateTrack(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	r.handleAdmin(adminPrefix+"/music/tracks/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, adminPrefix+"/music/tracks/")
		music.ServeAdminTrack(w, req, rest)
	})
	r.handleAdmin(adminPrefix+"/music/playlists", methodOnly(http.MethodPost, music.CreatePlaylist))
	r.handleAdmin(adminPrefix+"/music/playlists/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, adminPrefix+"/music/playlists/")
		music.ServeAdminPlaylist(w, req, rest)
	})
}

// RegisterSettingsRoutes 设置路由
func (r *Router) RegisterSettingsRoutes(settings *SettingsHandler) {
	r.Handle(apiPrefix+"/settings/public", methodOnly(http.MethodGet, settings.ListPublic))

	r.handleAdmin(adminPrefix+"/settings", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			settings.List(w, req)
		case http.MethodPut:
			settings.Upsert(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}
