package out

import (
	"context"

	"github.com/facultyhub/faculty-status/internal/domain/entity"
)

// FacultyRepository 教师档案仓储接口
type FacultyRepository interface {
	// Create 新建教师档案
	Create(ctx context.Context, faculty *entity.Faculty) error
	// GetByID 按工号查询，不存在时返回 (nil, nil)
	GetByID(ctx context.Context, facultyID string) (*entity.Faculty, error)
	// GetByEmail 按邮箱查询，不存在时返回 (nil, nil)
	GetByEmail(ctx context.Context, email string) (*entity.Faculty, error)
	// ListWithStatus 档案关联当前状态，按姓名排序
	ListWithStatus(ctx context.Context) ([]*entity.FacultyStatus, error)
}
