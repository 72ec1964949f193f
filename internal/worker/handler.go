package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"music-controller/internal/repository"
	"music-controller/internal/tasks"
)

// OrphanRoomHandler 删除房主会话已过期的房间
// 这类房间的房主再也无法调用 leave-room，只能由后台任务清理
type OrphanRoomHandler struct {
	roomRepo repository.RoomRepository
	sessions repository.SessionStore
}

// NewOrphanRoomHandler 创建 OrphanRoomHandler 实例
func NewOrphanRoomHandler(roomRepo repository.RoomRepository, sessions repository.SessionStore) *OrphanRoomHandler {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for OrphanRoomHandler")
	}
	if sessions == nil {
		panic("SessionStore cannot be nil for OrphanRoomHandler")
	}
	return &OrphanRoomHandler{roomRepo: roomRepo, sessions: sessions}
}

// ProcessTask 实现 asynq.Handler 接口
func (h *OrphanRoomHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	retry, _ := asynq.GetRetryCount(ctx)
	logCtx := logrus.WithFields(logrus.Fields{
		"task_type": t.Type(),
		"retry":     retry,
	})

	// 1. 解析载荷，载荷损坏时重试也无意义，直接 SkipRetry
	var payload tasks.PurgeOrphanRoomsPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logCtx.WithError(err).Error("Failed to unmarshal task payload")
			return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	// 2. 执行清理，失败时返回错误交给 asynq 重试
	purged, err := h.Purge(ctx)
	if err != nil {
		logCtx.WithError(err).Error("Orphan room purge failed")
		return err
	}
	logCtx.WithFields(logrus.Fields{"purged": purged, "registered_at": payload.RegisteredAt}).Info("Orphan room purge finished")
	return nil
}

// Purge 删除所有房主会话已不存在的房间，返回删除数量
// 查询会话失败时跳过该房间，等待下一轮
func (h *OrphanRoomHandler) Purge(ctx context.Context) (int, error) {
	rooms, err := h.roomRepo.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list rooms: %w", err)
	}

	purged := 0
	for _, room := range rooms {
		logCtx := logrus.WithFields(logrus.Fields{"code": room.Code, "host": room.Host})
		// 房主会话仍然有效则保留
		alive, err := h.sessions.Exists(ctx, room.Host)
		if err != nil {
			logCtx.WithError(err).Warn("Could not check host session, skipping room")
			continue
		}
		if alive {
			continue
		}
		deleted, err := h.roomRepo.DeleteByHost(ctx, room.Host)
		if err != nil {
			logCtx.WithError(err).Warn("Failed to delete orphaned room")
			continue
		}
		if deleted {
			purged++
			logCtx.Info("Deleted orphaned room")
		}
	}
	return purged, nil
}
