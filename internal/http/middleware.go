package httpapi

import (
	"crypto/subtle"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// AdminAuth 管理端点鉴权：校验X-Admin-Token请求头
// token未配置时拒绝所有管理请求（显式配置才开放管理面）
func AdminAuth(token string, logger *zap.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token == "" {
			writeJSON(w, http.StatusForbidden, Fail("admin API is disabled: no admin token configured"))
			return
		}

		got := r.Header.Get("X-Admin-Token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			logger.Warn("Admin auth rejected",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
			)
			writeJSON(w, http.StatusUnauthorized, Fail("invalid admin token"))
			return
		}

		next(w, r)
	}
}

// RequestLogging 访问日志中间件
func RequestLogging(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
