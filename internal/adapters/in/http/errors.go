package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/facultyhub/faculty-status/internal/domain/entity"
)

// respondError 把领域错误映射成稳定的对外信号
// 客户端要能区分"没权限"、"参数不对"和"服务端故障"来决定是否重试
func respondError(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, entity.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, entity.ErrInvalidStatusCode), errors.Is(err, entity.ErrNoteTooLong):
		status = http.StatusBadRequest
	case errors.Is(err, entity.ErrFacultyNotFound):
		status = http.StatusNotFound
	case errors.Is(err, entity.ErrFacultyAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, entity.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
	}
	ctx.JSON(status, gin.H{"error": err.Error()})
}
