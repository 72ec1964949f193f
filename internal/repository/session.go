package repository

import "context"

// SessionStore 定义匿名会话的键值存储接口
// 会话由存储自身按 TTL 过期，调用方只负责创建与读写字段
type SessionStore interface {
	// Create 创建一个空会话并返回其 ID
	Create(ctx context.Context) (string, error)

	// Exists 判断会话是否仍然有效
	Exists(ctx context.Context, id string) (bool, error)

	// GetField 读取字段值，第二个返回值表示字段是否存在
	GetField(ctx context.Context, id, field string) (string, bool, error)

	// SetField 写入字段，会话不存在时返回 ErrSessionNotFound
	SetField(ctx context.Context, id, field, value string) error

	// DeleteField 删除字段，返回字段原先是否存在
	DeleteField(ctx context.Context, id, field string) (bool, error)
}
