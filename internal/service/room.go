package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"music-controller/internal/domain"
	"music-controller/internal/repository"
)

// RoomService 封装房间相关的业务逻辑
// 房间以会话 ID 作为房主标识，数据库唯一索引 (code, host) 是唯一的并发保障
type RoomService struct {
	roomRepo repository.RoomRepository
	sessions repository.SessionStore
	codes    *CodeGenerator
}

// NewRoomService 创建 RoomService 实例，codes 为 nil 时使用默认重试次数
func NewRoomService(roomRepo repository.RoomRepository, sessions repository.SessionStore, codes *CodeGenerator) *RoomService {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for RoomService")
	}
	if sessions == nil {
		panic("SessionStore cannot be nil for RoomService")
	}
	if codes == nil {
		codes = NewCodeGenerator(roomRepo, 0)
	}
	return &RoomService{roomRepo: roomRepo, sessions: sessions, codes: codes}
}

// LeaveOutcome 记录 LeaveRoom 实际清理了什么，便于日志与测试
type LeaveOutcome struct {
	Detached    bool
	RoomDeleted bool
}

// ListRooms 按插入顺序返回全部房间
func (s *RoomService) ListRooms(ctx context.Context) ([]domain.Room, error) {
	rooms, err := s.roomRepo.FindAll(ctx)
	if err != nil {
		logrus.WithError(err).Error("ListRooms: Repository error")
		return nil, ErrInternalServer
	}
	return rooms, nil
}

// GetRoom 根据房间码查询房间，并标记 requesterID 是否为房主
func (s *RoomService) GetRoom(ctx context.Context, code, requesterID string) (*domain.RoomView, error) {
	if code == "" {
		return nil, ErrMissingCode
	}
	logCtx := logrus.WithField("code", code)
	room, err := s.roomRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.Debug("GetRoom: Room not found")
			return nil, ErrRoomNotFound
		}
		logCtx.WithError(err).Error("GetRoom: Repository error")
		return nil, ErrInternalServer
	}
	return &domain.RoomView{Room: *room, IsHost: room.IsHostedBy(requesterID)}, nil
}

// JoinRoom 将房间码记录到会话中。code 为 nil 表示请求中缺少 code 键
// 不检查会话是否已是其他房间的房主或已加入其他房间，新房间码直接覆盖旧值
func (s *RoomService) JoinRoom(ctx context.Context, sessionID string, code *string) error {
	if sessionID == "" {
		return ErrMissingSession
	}
	if code == nil {
		return ErrMissingCode
	}
	logCtx := logrus.WithFields(logrus.Fields{"session_id": sessionID, "code": *code})

	// 1. 房间必须存在，否则会话保持不变
	if _, err := s.roomRepo.FindByCode(ctx, *code); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.Warn("JoinRoom: Invalid room code")
			return ErrInvalidRoomCode
		}
		logCtx.WithError(err).Error("JoinRoom: Repository error")
		return ErrInternalServer
	}

	// 2. 写入会话
	if err := s.attach(ctx, sessionID, *code); err != nil {
		logCtx.WithError(err).Error("JoinRoom: Failed to attach room to session")
		return ErrInternalServer
	}
	logCtx.Info("Session joined room")
	return nil
}

// UpsertRoom 为会话创建房间；会话已是房主时改为更新该房间的设置
// created 为 true 表示新建了房间
func (s *RoomService) UpsertRoom(ctx context.Context, sessionID string, in SettingsInput) (room *domain.Room, created bool, err error) {
	if sessionID == "" {
		return nil, false, ErrMissingSession
	}
	// 1. 先校验输入，校验失败不做任何修改
	settings, err := ValidateSettings(in)
	if err != nil {
		return nil, false, err
	}
	logCtx := logrus.WithField("session_id", sessionID)

	// 2. 已有房间则走更新路径
	existing, err := s.roomRepo.FindByHost(ctx, sessionID)
	switch {
	case err == nil:
		room, err = s.updateSettings(ctx, sessionID, existing, settings)
		return room, false, err
	case !errors.Is(err, repository.ErrRoomNotFound):
		logCtx.WithError(err).Error("UpsertRoom: Repository error looking up hosted room")
		return nil, false, ErrInternalServer
	}

	// 3. 生成唯一房间码并插入
	code, err := s.codes.Generate(ctx)
	if err != nil {
		logCtx.WithError(err).Error("UpsertRoom: Failed to generate room code")
		if errors.Is(err, ErrCodeSpaceExhausted) {
			return nil, false, ErrCodeSpaceExhausted
		}
		return nil, false, ErrInternalServer
	}

	room = &domain.Room{Code: code, Host: sessionID}
	room.ApplySettings(settings)
	if err := s.roomRepo.Create(ctx, room); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			// 同一房主的并发请求可能已先插入成功，此时转为更新该房间
			if winner, findErr := s.roomRepo.FindByHost(ctx, sessionID); findErr == nil {
				logCtx.Warn("UpsertRoom: Host room created concurrently, updating it instead")
				room, err = s.updateSettings(ctx, sessionID, winner, settings)
				return room, false, err
			}
		}
		logCtx.WithError(err).Error("UpsertRoom: Failed to create room")
		return nil, false, ErrInternalServer
	}

	// 4. 把新房间码记录到会话；失败时撤销刚插入的行，避免留下会话无法感知的房间
	if err := s.attach(ctx, sessionID, room.Code); err != nil {
		logCtx.WithError(err).Error("UpsertRoom: Failed to attach new room to session, rolling back")
		if _, delErr := s.roomRepo.DeleteByHost(ctx, sessionID); delErr != nil {
			logCtx.WithError(delErr).Error("UpsertRoom: Failed to roll back room after attach failure")
		}
		return nil, false, ErrInternalServer
	}
	logCtx.WithFields(logrus.Fields{"code": room.Code, "room_id": room.ID}).Info("Room created successfully")
	return room, true, nil
}

// UpdateRoom 由房主更新指定房间的设置，非房主返回 ErrNotHost 且不做任何修改
func (s *RoomService) UpdateRoom(ctx context.Context, sessionID, code string, in SettingsInput) (*domain.Room, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	if code == "" {
		return nil, ErrMissingCode
	}
	settings, err := ValidateSettings(in)
	if err != nil {
		return nil, err
	}
	logCtx := logrus.WithFields(logrus.Fields{"session_id": sessionID, "code": code})

	// 房间存在性检查先于权限检查
	room, err := s.roomRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.Warn("UpdateRoom: Room not found")
			return nil, ErrRoomNotFound
		}
		logCtx.WithError(err).Error("UpdateRoom: Repository error")
		return nil, ErrInternalServer
	}
	if !room.IsHostedBy(sessionID) {
		logCtx.Warn("UpdateRoom: Requester is not the host")
		return nil, ErrNotHost
	}

	room.ApplySettings(settings)
	if err := s.roomRepo.UpdateSettings(ctx, room); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		logCtx.WithError(err).Error("UpdateRoom: Failed to persist settings")
		return nil, ErrInternalServer
	}
	logCtx.Info("Room settings updated")
	return room, nil
}

// LeaveRoom 清除会话中的房间码，并删除该会话作为房主的房间 (与记录的房间码无关)
// 该操作永不失败: 存储错误只记录日志，已完成的清理保持有效
func (s *RoomService) LeaveRoom(ctx context.Context, sessionID string) LeaveOutcome {
	var out LeaveOutcome
	if sessionID == "" {
		return out
	}
	logCtx := logrus.WithField("session_id", sessionID)

	// 1. 清除会话中的房间码
	detached, err := s.sessions.DeleteField(ctx, sessionID, domain.SessionFieldRoomCode)
	if err != nil {
		logCtx.WithError(err).Error("LeaveRoom: Failed to detach room from session")
	}
	out.Detached = detached

	// 2. 删除房主的房间
	deleted, err := s.roomRepo.DeleteByHost(ctx, sessionID)
	if err != nil {
		logCtx.WithError(err).Error("LeaveRoom: Failed to delete hosted room")
	}
	out.RoomDeleted = deleted

	logCtx.WithFields(logrus.Fields{"detached": out.Detached, "room_deleted": out.RoomDeleted}).Info("Session left room")
	return out
}

// updateSettings 更新已有房间的设置并把房间码记录到会话
func (s *RoomService) updateSettings(ctx context.Context, sessionID string, room *domain.Room, settings domain.RoomSettings) (*domain.Room, error) {
	logCtx := logrus.WithFields(logrus.Fields{"session_id": sessionID, "code": room.Code})
	room.ApplySettings(settings)
	if err := s.roomRepo.UpdateSettings(ctx, room); err != nil {
		logCtx.WithError(err).Error("Failed to update hosted room settings")
		return nil, ErrInternalServer
	}
	if err := s.attach(ctx, sessionID, room.Code); err != nil {
		logCtx.WithError(err).Error("Failed to attach hosted room to session")
		return nil, ErrInternalServer
	}
	logCtx.Info("Hosted room settings updated")
	return room, nil
}

// attach 把房间码写入会话的 room_code 字段
func (s *RoomService) attach(ctx context.Context, sessionID, code string) error {
	if err := s.sessions.SetField(ctx, sessionID, domain.SessionFieldRoomCode, code); err != nil {
		return fmt.Errorf("attach room %s to session %s: %w", code, sessionID, err)
	}
	return nil
}
