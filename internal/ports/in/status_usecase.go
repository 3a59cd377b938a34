package in

import (
	"context"

	"github.com/facultyhub/faculty-status/internal/domain/entity"
)

// UpdateStatusRequest 单条状态更新请求
type UpdateStatusRequest struct {
	FacultyID string `json:"faculty_id"`
	Code      int    `json:"code"`
	Note      string `json:"note"`
}

// BulkUpdateResult 批量更新里单条的结果
type BulkUpdateResult struct {
	FacultyID string               `json:"faculty_id"`
	Success   bool                 `json:"success"`
	Error     string               `json:"error,omitempty"`
	Record    *entity.StatusRecord `json:"record,omitempty"`
}

// StatusUseCase 状态用例接口，状态的鉴权、校验、落库与广播都收口在这里
type StatusUseCase interface {
	// UpdateStatus 本人更新状态：鉴权 -> 校验 -> 落库 -> 广播
	// 落库失败时整个操作失败且不广播；广播失败只记日志，不影响调用方结果
	UpdateStatus(ctx context.Context, callerID string, req *UpdateStatusRequest) (*entity.StatusRecord, error)
	// GetStatus 查询单个教师的当前状态（带档案信息）
	GetStatus(ctx context.Context, facultyID string) (*entity.FacultyStatus, error)
	// ListStatuses 目录视图，按教师姓名排序
	ListStatuses(ctx context.Context) ([]*entity.FacultyStatus, error)
	// BulkUpdate 批量更新，逐条复用 UpdateStatus 的完整检查，不会因单条失败而中断
	BulkUpdate(ctx context.Context, callerID string, items []*UpdateStatusRequest) []*BulkUpdateResult
}
