package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"music-controller/internal/domain"
	"music-controller/internal/repository"
)

// GormRoomRepository 是 RoomRepository 接口的 GORM 实现
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository 创建 GormRoomRepository 实例
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	if db == nil {
		panic("database connection cannot be nil for GormRoomRepository")
	}
	return &GormRoomRepository{db: db}
}

// FindAll 按 id 升序返回全部房间，即插入顺序
func (r *GormRoomRepository) FindAll(ctx context.Context) ([]domain.Room, error) {
	var rooms []domain.Room
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("gorm: list rooms: %w", err)
	}
	return rooms, nil
}

// FindByCode 根据房间码查找房间
func (r *GormRoomRepository) FindByCode(ctx context.Context, code string) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by code '%s': %w", code, err)
	}
	return &room, nil
}

// FindByHost 根据房主会话 ID 查找房间
func (r *GormRoomRepository) FindByHost(ctx context.Context, host string) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).Where("host = ?", host).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by host '%s': %w", host, err)
	}
	return &room, nil
}

// Create 插入房间，唯一索引冲突转换为 ErrDuplicateEntry
func (r *GormRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	if err := r.db.WithContext(ctx).Create(room).Error; err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: create room (code: %s, host: %s): %w", room.Code, room.Host, err)
	}
	return nil
}

// UpdateSettings 只更新播放设置
// 使用 Select 强制写入零值 (guest_can_pause=false)，否则 Updates 会忽略零值字段
func (r *GormRoomRepository) UpdateSettings(ctx context.Context, room *domain.Room) error {
	result := r.db.WithContext(ctx).
		Model(room).
		Select("guest_can_pause", "votes_to_skip").
		Updates(domain.Room{GuestCanPause: room.GuestCanPause, VotesToSkip: room.VotesToSkip})
	if result.Error != nil {
		return fmt.Errorf("gorm: update room settings (id: %d): %w", room.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		// 值未变化时 MySQL 报告影响 0 行，需要再确认记录是否仍然存在
		var count int64
		if err := r.db.WithContext(ctx).Model(&domain.Room{}).Where("id = ?", room.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("gorm: check room %d after update: %w", room.ID, err)
		}
		if count == 0 {
			return repository.ErrRoomNotFound
		}
	}
	return nil
}

// DeleteByHost 删除房主的房间，RowsAffected 表示是否真的删除了记录
func (r *GormRoomRepository) DeleteByHost(ctx context.Context, host string) (bool, error) {
	result := r.db.WithContext(ctx).Where("host = ?", host).Delete(&domain.Room{})
	if result.Error != nil {
		return false, fmt.Errorf("gorm: delete room by host '%s': %w", host, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// IsCodeExists 检查房间码是否已存在
func (r *GormRoomRepository) IsCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Room{}).Where("code = ?", code).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: count rooms by code '%s': %w", code, err)
	}
	return count > 0, nil
}

// isDuplicateEntryError 识别各驱动的唯一约束冲突错误
// 优先使用 GORM 翻译后的错误，其次是 MySQL 错误码，最后按错误信息兜底
func isDuplicateEntryError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // SQLite
		strings.Contains(msg, "Duplicate entry") || // MySQL
		strings.Contains(msg, "duplicate key value violates unique constraint") // PostgreSQL
}
