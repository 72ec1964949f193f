package repository

import "errors"

// 存储层通用错误，所有实现共用
var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry 写入违反唯一约束
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
)

var (
	ErrRoomNotFound    = ErrNotFound
	ErrSessionNotFound = ErrNotFound
)
