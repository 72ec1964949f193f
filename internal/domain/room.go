package domain

import "time"

// 房间的默认值与房间码长度
const (
	DefaultVotesToSkip = 2
	CodeLength         = 6
)

// Room 对应数据库中的 rooms 表，房主是创建它的浏览器会话
type Room struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Code          string    `gorm:"uniqueIndex:idx_room_code;size:8;not null" json:"code"`  // 房间码，创建后不可变
	Host          string    `gorm:"uniqueIndex:idx_room_host;size:50;not null" json:"host"` // 房主的会话 ID
	GuestCanPause bool      `gorm:"not null;default:false" json:"guest_can_pause"`
	VotesToSkip   int       `gorm:"not null;default:2" json:"votes_to_skip"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// IsHostedBy 判断 sessionID 是否为房主，空会话 ID 永远不是房主
func (r *Room) IsHostedBy(sessionID string) bool {
	return sessionID != "" && r.Host == sessionID
}

// ApplySettings 覆盖房主可修改的播放设置
func (r *Room) ApplySettings(s RoomSettings) {
	r.GuestCanPause = s.GuestCanPause
	r.VotesToSkip = s.VotesToSkip
}

// RoomSettings 房主可控制的房间字段
type RoomSettings struct {
	GuestCanPause bool
	VotesToSkip   int
}

// RoomView 面向某个请求者的房间视图，附带 is_host 标记
type RoomView struct {
	Room
	IsHost bool `json:"is_host"`
}
