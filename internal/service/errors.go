package service

import "errors"

// 定义业务逻辑错误，Handler 层统一映射为 HTTP 状态码
var (
	// 请求参数错误 (400)
	ErrMissingCode     = errors.New("code parameter not found in request")
	ErrInvalidRoomCode = errors.New("invalid room code")
	ErrInvalidSettings = errors.New("invalid room settings")
	ErrMissingSession  = errors.New("session is required")

	ErrRoomNotFound = errors.New("room not found")
	ErrNotHost      = errors.New("you are not the host of this room")

	ErrCodeSpaceExhausted = errors.New("could not generate a unique room code")
	ErrInternalServer     = errors.New("internal server error")
)
