package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/facultyhub/faculty-status/internal/domain/entity"
	"github.com/facultyhub/faculty-status/internal/middleware"
	"github.com/facultyhub/faculty-status/internal/ports/in"
)

// StatusController HTTP状态控制器
type StatusController struct {
	statusUseCase in.StatusUseCase
}

// NewStatusController 创建状态控制器
func NewStatusController(statusUseCase in.StatusUseCase) *StatusController {
	return &StatusController{statusUseCase: statusUseCase}
}

// RegisterRoutes 注册路由，auth 套在需要身份的写接口上
func (c *StatusController) RegisterRoutes(r *gin.RouterGroup, auth gin.HandlerFunc) {
	status := r.Group("/status")
	{
		status.GET("", c.ListStatuses)
		status.GET("/codes/all", c.GetStatusCodes)
		status.GET("/:id", c.GetStatus)
		status.PUT("/:id", auth, c.UpdateStatus)
		status.POST("/bulk-update", auth, c.BulkUpdate)
	}
}

// statusBody 状态在响应里的形状，和推送事件保持一致
func statusBody(rec *entity.StatusRecord) gin.H {
	info := rec.Code.Info()
	return gin.H{
		"code":       info.Code,
		"binary":     info.Binary,
		"name":       info.Name,
		"color":      info.Color,
		"note":       rec.Note,
		"updated_at": rec.UpdatedAt,
	}
}

// GetStatus 查询教师当前状态（公开接口）
func (c *StatusController) GetStatus(ctx *gin.Context) {
	fs, err := c.statusUseCase.GetStatus(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"faculty_id": fs.Faculty.FacultyID,
		"faculty": gin.H{
			"name":            fs.Faculty.Name,
			"department":      fs.Faculty.Department,
			"office_location": fs.Faculty.OfficeLocation,
		},
		"status": statusBody(fs.Status),
	})
}

// UpdateStatusRequest 更新状态请求
type UpdateStatusRequest struct {
	Code int    `json:"code"`
	Note string `json:"note"`
}

// UpdateStatus 本人更新状态
func (c *StatusController) UpdateStatus(ctx *gin.Context) {
	var req UpdateStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := c.statusUseCase.UpdateStatus(ctx.Request.Context(), middleware.CallerID(ctx), &in.UpdateStatusRequest{
		FacultyID: ctx.Param("id"),
		Code:      req.Code,
		Note:      req.Note,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "status updated successfully",
		"status":  statusBody(rec),
	})
}

// ListStatuses 目录视图，按姓名排序
func (c *StatusController) ListStatuses(ctx *gin.Context) {
	list, err := c.statusUseCase.ListStatuses(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}

	items := make([]gin.H, 0, len(list))
	for _, fs := range list {
		item := gin.H{
			"faculty_id":      fs.Faculty.FacultyID,
			"name":            fs.Faculty.Name,
			"department":      fs.Faculty.Department,
			"office_location": fs.Faculty.OfficeLocation,
		}
		if fs.Status != nil {
			item["status"] = statusBody(fs.Status)
		}
		items = append(items, item)
	}
	ctx.JSON(http.StatusOK, gin.H{"faculty": items, "count": len(items)})
}

// GetStatusCodes 状态码对照表（公开接口）
func (c *StatusController) GetStatusCodes(ctx *gin.Context) {
	codes := []entity.StatusCode{entity.StatusAvailable, entity.StatusBusy, entity.StatusAway, entity.StatusOffline}

	names := make(map[int8]string, len(codes))
	colors := make(map[int8]string, len(codes))
	binary := make(map[string]string, len(codes))
	for _, code := range codes {
		names[int8(code)] = code.Name()
		colors[int8(code)] = code.Color()
		binary[code.Binary()] = code.Name()
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status_names":    names,
		"status_colors":   colors,
		"binary_encoding": binary,
	})
}

// BulkUpdateRequest 批量更新请求
type BulkUpdateRequest struct {
	Updates []*in.UpdateStatusRequest `json:"updates" binding:"required"`
}

// BulkUpdate 批量更新，逐条鉴权，逐条给结果
func (c *StatusController) BulkUpdate(ctx *gin.Context) {
	var req BulkUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results := c.statusUseCase.BulkUpdate(ctx.Request.Context(), middleware.CallerID(ctx), req.Updates)

	successful := 0
	for _, r := range results {
		if r.Success {
			successful++
		}
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message":    "bulk update completed",
		"results":    results,
		"successful": successful,
		"failed":     len(results) - successful,
	})
}
