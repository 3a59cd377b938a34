package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/facultyhub/faculty-status/internal/domain/entity"
	"github.com/facultyhub/faculty-status/internal/ports/out"
)

// StatusModel GORM模型
type StatusModel struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	FacultyID string    `gorm:"column:faculty_id;type:varchar(32);not null;uniqueIndex"`
	Status    int8      `gorm:"column:status;not null;default:3"`
	Note      string    `gorm:"column:note;type:varchar(200)"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (StatusModel) TableName() string {
	return "faculty_status"
}

func (m *StatusModel) toEntity() *entity.StatusRecord {
	return &entity.StatusRecord{
		FacultyID: m.FacultyID,
		Code:      entity.StatusCode(m.Status),
		Note:      m.Note,
		UpdatedAt: m.UpdatedAt,
	}
}

// StatusRepositoryMySQL MySQL状态仓储实现
type StatusRepositoryMySQL struct {
	db *gorm.DB
}

func NewStatusRepositoryMySQL(db *gorm.DB) out.StatusRepository {
	return &StatusRepositoryMySQL{db: db}
}

func (r *StatusRepositoryMySQL) Get(ctx context.Context, facultyID string) (*entity.StatusRecord, error) {
	var model StatusModel
	err := r.db.WithContext(ctx).Where("faculty_id = ?", facultyID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.toEntity(), nil
}

// Upsert 按 faculty_id 冲突时原地更新，行锁保证同一教师的并发写按提交顺序生效
// updated_at 永远取服务端当前时间；同一教师的调用在应用层按工号串行，
// 所以这里的取值顺序就是提交顺序，单教师的 updated_at 单调不减
func (r *StatusRepositoryMySQL) Upsert(ctx context.Context, facultyID string, code entity.StatusCode, note string) (*entity.StatusRecord, error) {
	now := time.Now().UTC()
	model := &StatusModel{
		FacultyID: facultyID,
		Status:    int8(code),
		Note:      note,
		UpdatedAt: now,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "faculty_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":     int8(code),
			"note":       note,
			"updated_at": now,
		}),
	}).Create(model).Error
	if err != nil {
		return nil, err
	}

	return &entity.StatusRecord{
		FacultyID: facultyID,
		Code:      code,
		Note:      note,
		UpdatedAt: now,
	}, nil
}
