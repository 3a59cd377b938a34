package entity

import "time"

// Faculty 教师档案，状态子系统只引用 FacultyID
type Faculty struct {
	FacultyID      string    `json:"faculty_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Department     string    `json:"department"`
	OfficeLocation string    `json:"office_location,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FacultyStatus 目录视图：档案加当前状态
// Status 为 nil 表示该教师从未初始化过状态（unknown，区别于 Offline）
type FacultyStatus struct {
	Faculty *Faculty      `json:"faculty"`
	Status  *StatusRecord `json:"status,omitempty"`
}
