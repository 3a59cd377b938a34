package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/facultyhub/faculty-status/internal/domain/entity"
	"github.com/facultyhub/faculty-status/internal/ports/out"
)

// FacultyModel GORM模型
type FacultyModel struct {
	ID             uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	FacultyID      string    `gorm:"column:faculty_id;type:varchar(32);not null;uniqueIndex"`
	Name           string    `gorm:"column:name;type:varchar(100);not null"`
	Email          string    `gorm:"column:email;type:varchar(128);not null;uniqueIndex"`
	Department     string    `gorm:"column:department;type:varchar(100);not null"`
	OfficeLocation string    `gorm:"column:office_location;type:varchar(128)"`
	Phone          string    `gorm:"column:phone;type:varchar(32)"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (FacultyModel) TableName() string {
	return "faculty"
}

func (m *FacultyModel) toEntity() *entity.Faculty {
	return &entity.Faculty{
		FacultyID:      m.FacultyID,
		Name:           m.Name,
		Email:          m.Email,
		Department:     m.Department,
		OfficeLocation: m.OfficeLocation,
		Phone:          m.Phone,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// FacultyRepositoryMySQL MySQL教师档案仓储实现
type FacultyRepositoryMySQL struct {
	db *gorm.DB
}

func NewFacultyRepositoryMySQL(db *gorm.DB) out.FacultyRepository {
	return &FacultyRepositoryMySQL{db: db}
}

func (r *FacultyRepositoryMySQL) Create(ctx context.Context, faculty *entity.Faculty) error {
	model := &FacultyModel{
		FacultyID:      faculty.FacultyID,
		Name:           faculty.Name,
		Email:          faculty.Email,
		Department:     faculty.Department,
		OfficeLocation: faculty.OfficeLocation,
		Phone:          faculty.Phone,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	faculty.CreatedAt = model.CreatedAt
	faculty.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *FacultyRepositoryMySQL) GetByID(ctx context.Context, facultyID string) (*entity.Faculty, error) {
	var model FacultyModel
	err := r.db.WithContext(ctx).Where("faculty_id = ?", facultyID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.toEntity(), nil
}

func (r *FacultyRepositoryMySQL) GetByEmail(ctx context.Context, email string) (*entity.Faculty, error) {
	var model FacultyModel
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.toEntity(), nil
}

// facultyStatusRow 目录联查的扫描结构，状态列可能为空
type facultyStatusRow struct {
	FacultyID       string         `gorm:"column:faculty_id"`
	Name            string         `gorm:"column:name"`
	Email           string         `gorm:"column:email"`
	Department      string         `gorm:"column:department"`
	OfficeLocation  string         `gorm:"column:office_location"`
	Phone           string         `gorm:"column:phone"`
	CreatedAt       time.Time      `gorm:"column:created_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at"`
	StatusCode      sql.NullInt16  `gorm:"column:status_code"`
	StatusNote      sql.NullString `gorm:"column:status_note"`
	StatusUpdatedAt sql.NullTime   `gorm:"column:status_updated_at"`
}

// ListWithStatus 档案左联状态，按姓名排序；没有状态行的教师 Status 为 nil
func (r *FacultyRepositoryMySQL) ListWithStatus(ctx context.Context) ([]*entity.FacultyStatus, error) {
	var rows []facultyStatusRow
	err := r.db.WithContext(ctx).
		Table("faculty").
		Select("faculty.faculty_id, faculty.name, faculty.email, faculty.department, faculty.office_location, faculty.phone, faculty.created_at, faculty.updated_at, faculty_status.status AS status_code, faculty_status.note AS status_note, faculty_status.updated_at AS status_updated_at").
		Joins("LEFT JOIN faculty_status ON faculty_status.faculty_id = faculty.faculty_id").
		Order("faculty.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	list := make([]*entity.FacultyStatus, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		fs := &entity.FacultyStatus{
			Faculty: &entity.Faculty{
				FacultyID:      row.FacultyID,
				Name:           row.Name,
				Email:          row.Email,
				Department:     row.Department,
				OfficeLocation: row.OfficeLocation,
				Phone:          row.Phone,
				CreatedAt:      row.CreatedAt,
				UpdatedAt:      row.UpdatedAt,
			},
		}
		if row.StatusCode.Valid {
			fs.Status = &entity.StatusRecord{
				FacultyID: row.FacultyID,
				Code:      entity.StatusCode(row.StatusCode.Int16),
				Note:      row.StatusNote.String,
				UpdatedAt: row.StatusUpdatedAt.Time,
			}
		}
		list = append(list, fs)
	}
	return list, nil
}
