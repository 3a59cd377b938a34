package entity

import (
	"fmt"
	"time"
)

// StatusCode 教师当前状态码，0-3 共四档
// 对外的紧凑形式是对应的两位二进制串（00/01/10/11）
// 码值与名称、颜色的映射是对外契约，改动会破坏所有下游（二维码落地页、前端）
type StatusCode int8

const (
	StatusAvailable StatusCode = 0 // 00 在办公室，可联系
	StatusBusy      StatusCode = 1 // 01 忙碌中
	StatusAway      StatusCode = 2 // 10 暂时离开
	StatusOffline   StatusCode = 3 // 11 离线，注册后的初始状态
)

// MaxNoteLength 状态备注最大长度（按字符计）
const MaxNoteLength = 200

var statusNames = map[StatusCode]string{
	StatusAvailable: "Available",
	StatusBusy:      "Busy",
	StatusAway:      "Away",
	StatusOffline:   "Offline",
}

var statusColors = map[StatusCode]string{
	StatusAvailable: "#4CAF50",
	StatusBusy:      "#F44336",
	StatusAway:      "#FF9800",
	StatusOffline:   "#9E9E9E",
}

// Valid 码值是否在合法域内
func (c StatusCode) Valid() bool {
	return c >= StatusAvailable && c <= StatusOffline
}

// Binary 返回两位二进制形式，如 StatusAway -> "10"
func (c StatusCode) Binary() string {
	return fmt.Sprintf("%02b", int8(c))
}

// Name 返回可读名称
func (c StatusCode) Name() string {
	return statusNames[c]
}

// Color 返回展示用颜色
func (c StatusCode) Color() string {
	return statusColors[c]
}

// StatusInfo 编码后的完整状态描述
type StatusInfo struct {
	Code   int8   `json:"code"`
	Binary string `json:"binary"`
	Name   string `json:"name"`
	Color  string `json:"color"`
}

// Info 对合法码值做完整编码，纯映射，无副作用
func (c StatusCode) Info() StatusInfo {
	return StatusInfo{
		Code:   int8(c),
		Binary: c.Binary(),
		Name:   c.Name(),
		Color:  c.Color(),
	}
}

// ParseStatusCode 校验整数形式的状态码
func ParseStatusCode(v int) (StatusCode, error) {
	if v < 0 || v > 3 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidStatusCode, v)
	}
	return StatusCode(v), nil
}

// ParseStatusBinary 解析两位二进制形式，宽度必须正好为 2
func ParseStatusBinary(s string) (StatusCode, error) {
	switch s {
	case "00":
		return StatusAvailable, nil
	case "01":
		return StatusBusy, nil
	case "10":
		return StatusAway, nil
	case "11":
		return StatusOffline, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStatusCode, s)
}

// StatusRecord 每位教师的当前状态记录，唯一的可变共享数据
// 只能经由 StatusUseCase.UpdateStatus 落库，updated_at 由存储侧赋值
type StatusRecord struct {
	FacultyID string     `json:"faculty_id"`
	Code      StatusCode `json:"code"`
	Note      string     `json:"note,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// StatusEvent 状态变更事件，广播给订阅端的线格式
// 携带完整编码结果，订阅端收到后不需要再回查一次
type StatusEvent struct {
	FacultyID string    `json:"faculty_id"`
	Code      int8      `json:"code"`
	Binary    string    `json:"binary"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Note      string    `json:"note,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewStatusEvent 由已提交的状态记录构造事件
func NewStatusEvent(rec *StatusRecord) *StatusEvent {
	return &StatusEvent{
		FacultyID: rec.FacultyID,
		Code:      int8(rec.Code),
		Binary:    rec.Code.Binary(),
		Name:      rec.Code.Name(),
		Color:     rec.Code.Color(),
		Note:      rec.Note,
		UpdatedAt: rec.UpdatedAt,
	}
}
