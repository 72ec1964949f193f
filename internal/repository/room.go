package repository

import (
	"context"

	"music-controller/internal/domain"
)

// RoomRepository 定义房间数据的存储接口，Code 与 Host 均为唯一键
type RoomRepository interface {
	// FindAll 按插入顺序返回全部房间
	FindAll(ctx context.Context) ([]domain.Room, error)

	// FindByCode 根据房间码查找，不存在时返回 ErrRoomNotFound
	FindByCode(ctx context.Context, code string) (*domain.Room, error)

	// FindByHost 根据房主会话 ID 查找，不存在时返回 ErrRoomNotFound
	FindByHost(ctx context.Context, host string) (*domain.Room, error)

	// Create 插入新房间，code 或 host 冲突时返回 ErrDuplicateEntry
	Create(ctx context.Context, room *domain.Room) error

	// UpdateSettings 只持久化 GuestCanPause 与 VotesToSkip
	UpdateSettings(ctx context.Context, room *domain.Room) error

	// DeleteByHost 删除房主的房间，返回是否确实删除了记录
	DeleteByHost(ctx context.Context, host string) (bool, error)

	// IsCodeExists 检查房间码是否已被使用
	IsCodeExists(ctx context.Context, code string) (bool, error)
}
