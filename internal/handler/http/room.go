package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"music-controller/internal/domain"
	"music-controller/internal/middleware"
	"music-controller/internal/service"
)

// SessionIssuer 负责把 (新建的) 会话 ID 下发给客户端，通常写入签名 Cookie
type SessionIssuer interface {
	Issue(c *gin.Context, sessionID string) error
}

// RoomHandler 封装了与房间管理相关的 HTTP 处理逻辑
type RoomHandler struct {
	roomService    *service.RoomService    // 依赖 RoomService
	sessionService *service.SessionService // 依赖 SessionService，负责会话的确保与读取
	issuer         SessionIssuer           // 新会话创建后下发 Cookie
}

// NewRoomHandler 创建 RoomHandler 实例
func NewRoomHandler(roomService *service.RoomService, sessionService *service.SessionService, issuer SessionIssuer) *RoomHandler {
	return &RoomHandler{roomService: roomService, sessionService: sessionService, issuer: issuer}
}

// JoinRoomRequest 定义加入房间请求的结构体
// Code 使用指针: 缺少 code 键时绑定失败，空字符串则交给 Service 判定为无效房间码
type JoinRoomRequest struct {
	Code *string `json:"code" binding:"required"`
}

// RoomSettingsRequest 定义创建房间请求的结构体
// 使用指针以区分 "未提供" 与零值 (guest_can_pause=false 是合法值)
type RoomSettingsRequest struct {
	GuestCanPause *bool `json:"guest_can_pause" binding:"required"`
	VotesToSkip   *int  `json:"votes_to_skip" binding:"required,min=1"` // 至少 1 票
}

// input 转换为 Service 层的输入结构

func (r RoomSettingsRequest) input() service.SettingsInput {
	return service.SettingsInput{GuestCanPause: r.GuestCanPause, VotesToSkip: r.VotesToSkip}
}

// UpdateRoomRequest 定义更新房间请求的结构体，设置字段的校验规则与创建时相同
type UpdateRoomRequest struct {
	Code string `json:"code" binding:"required"`
	RoomSettingsRequest
}

// ListRooms 处理获取全部房间的请求
func (h *RoomHandler) ListRooms(c *gin.Context) {
	// 1. 调用 Service 层查询
	rooms, err := h.roomService.ListRooms(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	// 2. 没有房间时返回空数组而不是 null
	if rooms == nil {
		rooms = []domain.Room{}
	}
	SuccessResponse(c, http.StatusOK, rooms)
}

// GetRoom 根据查询参数 code 获取房间详情，并标记请求者是否为房主
// 此接口不会创建会话: 没有 Cookie 的请求者 is_host 恒为 false
func (h *RoomHandler) GetRoom(c *gin.Context) {
	view, err := h.roomService.GetRoom(c.Request.Context(), c.Query("code"), middleware.SessionID(c))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, view)
}

// JoinRoom 处理加入房间的请求: 把房间码记录到调用者的会话中
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	// 1. 确保会话存在 (必要时创建并下发 Cookie)
	sessionID, ok := h.ensureSession(c)
	if !ok {
		return
	}
	logCtx := logrus.WithField("session_id", sessionID)

	// 2. 绑定并验证请求体，缺少 code 键直接返回 400
	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logCtx.WithError(err).Warn("Handler.JoinRoom: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid post data, did not find a code key")
		return
	}

	// 3. 调用 Service 层，未知房间码返回 400 且会话不被修改
	if err := h.roomService.JoinRoom(c.Request.Context(), sessionID, req.Code); err != nil {
		if errors.Is(err, service.ErrMissingCode) {
			ErrorResponse(c, http.StatusBadRequest, "Invalid post data, did not find a code key")
			return
		}
		HandleServiceError(c, err)
		return
	}
	// 4. 成功响应
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Room Joined"})
}

// CreateRoom 处理创建房间的请求: 调用者已是某房间房主时改为更新该房间设置
// 新建返回 201，更新返回 200
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	// 1. 确保会话存在
	sessionID, ok := h.ensureSession(c)
	if !ok {
		return
	}

	// 2. 绑定并验证输入 JSON (必填与最小值由 binding 标签保证)
	var req RoomSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Warn("Handler.CreateRoom: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid data")
		return
	}

	// 3. 调用 Service 层创建或更新
	room, created, err := h.roomService.UpsertRoom(c.Request.Context(), sessionID, req.input())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	// 4. 根据是否新建选择状态码
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	SuccessResponse(c, status, room)
}

// UserInRoom 返回会话中记录的房间码，没有时为 null
// 只读取会话，不检查房间是否仍然存在
func (h *RoomHandler) UserInRoom(c *gin.Context) {
	sessionID, ok := h.ensureSession(c)
	if !ok {
		return
	}
	code, err := h.sessionService.CurrentRoom(c.Request.Context(), sessionID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"code": code})
}

// LeaveRoom 处理离开房间的请求: 清除会话中的房间码，并删除调用者作为房主的房间
// 该接口总是成功，存储层错误只记录日志
func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	h.roomService.LeaveRoom(c.Request.Context(), middleware.SessionID(c))
	SuccessResponse(c, http.StatusOK, gin.H{"Message": "Success"})
}

// UpdateRoom 处理更新房间设置的请求，只有房主可以更新
func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	// 1. 确保会话存在
	sessionID, ok := h.ensureSession(c)
	if !ok {
		return
	}

	// 2. 绑定并验证输入 JSON
	var req UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Warn("Handler.UpdateRoom: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid data")
		return
	}

	// 3. 调用 Service 层，非房主返回 403，房间不存在返回 404
	room, err := h.roomService.UpdateRoom(c.Request.Context(), sessionID, req.Code, req.input())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, room)
}

// ensureSession 确保调用者拥有有效会话，新建会话时下发 Cookie
// 出错时已写入错误响应，调用方只需返回
func (h *RoomHandler) ensureSession(c *gin.Context) (string, bool) {
	sessionID, created, err := h.sessionService.Ensure(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		HandleServiceError(c, err)
		return "", false
	}
	if created {
		if err := h.issuer.Issue(c, sessionID); err != nil {
			logrus.WithError(err).Error("Failed to issue session cookie")
			HandleServiceError(c, err)
			return "", false
		}
	}
	return sessionID, true
}
