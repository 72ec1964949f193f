package tasks

import (
	"encoding/json"
	"time"
)

// 定义 Worker 处理的任务类型
const (
	TypePurgeOrphanRooms = "room:purge-orphans"
)

// PurgeOrphanRoomsPayload 清理孤儿房间任务的载荷
// RegisteredAt 记录周期任务的注册时间
type PurgeOrphanRoomsPayload struct {
	RegisteredAt time.Time `json:"registered_at"`
}

// NewPurgeOrphanRoomsTask 序列化清理任务的载荷
func NewPurgeOrphanRoomsTask(registeredAt time.Time) ([]byte, error) {
	return json.Marshal(PurgeOrphanRoomsPayload{RegisteredAt: registeredAt})
}
