package out

import (
	"context"

	"github.com/facultyhub/faculty-status/internal/domain/entity"
)

// StatusRepository 状态仓储接口，状态记录的唯一事实来源
type StatusRepository interface {
	// Get 查询当前状态，不存在时返回 (nil, nil)
	Get(ctx context.Context, facultyID string) (*entity.StatusRecord, error)
	// Upsert 创建或更新状态记录，对同一 faculty_id 的并发写必须原子
	// updated_at 由存储侧取当前时间，永远不信任调用方给的时间戳
	Upsert(ctx context.Context, facultyID string, code entity.StatusCode, note string) (*entity.StatusRecord, error)
}
