package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/facultyhub/faculty-status/internal/domain/entity"
	"github.com/facultyhub/faculty-status/internal/ports/in"
	"github.com/facultyhub/faculty-status/internal/ports/out"
)

// FacultyUseCaseImpl 教师档案用例实现
type FacultyUseCaseImpl struct {
	facultyRepo out.FacultyRepository
	statusRepo  out.StatusRepository
}

// NewFacultyUseCase 创建教师档案用例
func NewFacultyUseCase(facultyRepo out.FacultyRepository, statusRepo out.StatusRepository) in.FacultyUseCase {
	return &FacultyUseCaseImpl{
		facultyRepo: facultyRepo,
		statusRepo:  statusRepo,
	}
}

// Register 注册教师并初始化一条 Offline 状态记录
func (uc *FacultyUseCaseImpl) Register(ctx context.Context, req *in.RegisterFacultyRequest) (*entity.Faculty, error) {
	existing, err := uc.facultyRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: query faculty by email: %v", entity.ErrStorageUnavailable, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email %s", entity.ErrFacultyAlreadyExists, req.Email)
	}

	facultyID := req.FacultyID
	if facultyID == "" {
		facultyID = newFacultyID()
	} else {
		existing, err = uc.facultyRepo.GetByID(ctx, facultyID)
		if err != nil {
			return nil, fmt.Errorf("%w: query faculty by id: %v", entity.ErrStorageUnavailable, err)
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: id %s", entity.ErrFacultyAlreadyExists, facultyID)
		}
	}

	faculty := &entity.Faculty{
		FacultyID:      facultyID,
		Name:           req.Name,
		Email:          req.Email,
		Department:     req.Department,
		OfficeLocation: req.OfficeLocation,
		Phone:          req.Phone,
	}
	if err := uc.facultyRepo.Create(ctx, faculty); err != nil {
		return nil, fmt.Errorf("%w: create faculty: %v", entity.ErrStorageUnavailable, err)
	}

	// 初始状态固定为 Offline；这里不广播，状态变更只从 UpdateStatus 出去
	if _, err := uc.statusRepo.Upsert(ctx, facultyID, entity.StatusOffline, ""); err != nil {
		return nil, fmt.Errorf("%w: init status: %v", entity.ErrStorageUnavailable, err)
	}

	return faculty, nil
}

// GetFaculty 查询单个教师档案
func (uc *FacultyUseCaseImpl) GetFaculty(ctx context.Context, facultyID string) (*entity.Faculty, error) {
	faculty, err := uc.facultyRepo.GetByID(ctx, facultyID)
	if err != nil {
		return nil, fmt.Errorf("%w: query faculty: %v", entity.ErrStorageUnavailable, err)
	}
	if faculty == nil {
		return nil, entity.ErrFacultyNotFound
	}
	return faculty, nil
}

// ListFaculty 教师目录，按姓名排序
func (uc *FacultyUseCaseImpl) ListFaculty(ctx context.Context) ([]*entity.FacultyStatus, error) {
	list, err := uc.facultyRepo.ListWithStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list faculty: %v", entity.ErrStorageUnavailable, err)
	}
	return list, nil
}

// newFacultyID 生成形如 FAC-xxxxxxxx 的工号
func newFacultyID() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "FAC-" + id[:8]
}
