package in

import (
	"context"

	"github.com/facultyhub/faculty-status/internal/domain/entity"
)

// RegisterFacultyRequest 教师注册请求
// FacultyID 为空时由服务端生成
type RegisterFacultyRequest struct {
	FacultyID      string `json:"faculty_id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Department     string `json:"department"`
	OfficeLocation string `json:"office_location"`
	Phone          string `json:"phone"`
}

// FacultyUseCase 教师档案用例接口
// 档案管理是状态子系统的外围，注册时会顺带初始化一条 Offline 状态记录
type FacultyUseCase interface {
	// Register 注册教师并初始化状态
	Register(ctx context.Context, req *RegisterFacultyRequest) (*entity.Faculty, error)
	// GetFaculty 查询单个教师档案
	GetFaculty(ctx context.Context, facultyID string) (*entity.Faculty, error)
	// ListFaculty 教师目录（带状态），按姓名排序
	ListFaculty(ctx context.Context) ([]*entity.FacultyStatus, error)
}
