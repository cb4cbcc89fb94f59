package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"blogcloud/internal/repository"
	"blogcloud/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// writeServiceError 按错误类型映射HTTP状态码
//   - 校验错误 400
//   - 不存在 404
//   - 获取互斥冲突 409
//   - 上游AI失败 502
//   - 解析失败 422
//   - 其余 500
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var ve *service.ValidationError
	var ue *service.UpstreamError
	var pe *service.ParseError
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrSettingNotFound), errors.Is(err, sql.ErrNoRows):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrFetchInProgress):
		status = http.StatusConflict
	case errors.As(err, &ue):
		status = http.StatusBadGateway
	case errors.As(err, &pe):
		status = http.StatusUnprocessableEntity
	}

	writeJSON(w, status, Fail(err.Error()))
}
