package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"music-controller/internal/service"
)

// HandleServiceError 将 Service 层返回的业务错误映射为 HTTP 状态码
func HandleServiceError(c *gin.Context, err error) {
	switch {
	// 400 Bad Request
	case errors.Is(err, service.ErrMissingCode),
		errors.Is(err, service.ErrInvalidRoomCode),
		errors.Is(err, service.ErrInvalidSettings),
		errors.Is(err, service.ErrMissingSession):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	// 404 Not Found
	case errors.Is(err, service.ErrRoomNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	// 403 Forbidden: 非房主
	case errors.Is(err, service.ErrNotHost):
		ErrorResponse(c, http.StatusForbidden, err.Error())
	// 503: 房间码空间暂时耗尽，客户端可稍后重试
	case errors.Is(err, service.ErrCodeSpaceExhausted):
		ErrorResponse(c, http.StatusServiceUnavailable, err.Error())
	// 其他错误均视为内部错误，不向客户端暴露细节
	default:
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
