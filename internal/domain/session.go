package domain

// 会话中存储的字段名
const (
	SessionFieldRoomCode  = "room_code"
	SessionFieldCreatedAt = "created_at"
)
