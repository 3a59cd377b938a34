package entity

import "errors"

// 领域错误，调用方用 errors.Is 区分后映射成对外信号
// 写路径上的错误一律原样上抛，不做内部重试，避免备注或状态被重复应用
var (
	// ErrForbidden 调用方不是该教师本人
	ErrForbidden = errors.New("not allowed to update this faculty status")
	// ErrInvalidStatusCode 状态码不在 0-3 内，或二进制串格式不对
	ErrInvalidStatusCode = errors.New("invalid status code")
	// ErrNoteTooLong 状态备注超过 MaxNoteLength
	ErrNoteTooLong = errors.New("status note too long")
	// ErrFacultyNotFound 教师不存在或从未初始化状态
	ErrFacultyNotFound = errors.New("faculty not found")
	// ErrFacultyAlreadyExists 注册时工号或邮箱已被占用
	ErrFacultyAlreadyExists = errors.New("faculty already exists")
	// ErrStorageUnavailable 持久层不可用或写入失败
	ErrStorageUnavailable = errors.New("storage unavailable")
)
