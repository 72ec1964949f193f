package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"music-controller/internal/domain"
	"music-controller/internal/repository"
)

// SessionService 管理匿名会话及其记录的房间码
type SessionService struct {
	store repository.SessionStore
}

// NewSessionService 创建 SessionService 实例
func NewSessionService(store repository.SessionStore) *SessionService {
	if store == nil {
		panic("SessionStore cannot be nil for SessionService")
	}
	return &SessionService{store: store}
}

// Ensure 会话有效时直接返回 id，否则创建新会话
// created 表示是否新建了会话，Handler 据此决定是否下发 Cookie
func (s *SessionService) Ensure(ctx context.Context, id string) (sessionID string, created bool, err error) {
	if id != "" {
		exists, err := s.store.Exists(ctx, id)
		if err != nil {
			logrus.WithError(err).WithField("session_id", id).Error("Failed to check session")
			return "", false, fmt.Errorf("%w: %v", ErrInternalServer, err)
		}
		if exists {
			return id, false, nil
		}
	}
	newID, err := s.store.Create(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to create session")
		return "", false, fmt.Errorf("%w: %v", ErrInternalServer, err)
	}
	logrus.WithField("session_id", newID).Info("Session created")
	return newID, true, nil
}

// CurrentRoom 返回会话中记录的房间码，没有时返回 nil
// 不查询房间表，返回的房间码可能已经失效
func (s *SessionService) CurrentRoom(ctx context.Context, id string) (*string, error) {
	if id == "" {
		return nil, nil
	}
	code, ok, err := s.store.GetField(ctx, id, domain.SessionFieldRoomCode)
	if err != nil {
		logrus.WithError(err).WithField("session_id", id).Error("Failed to read session room code")
		return nil, fmt.Errorf("%w: %v", ErrInternalServer, err)
	}
	if !ok {
		return nil, nil
	}
	return &code, nil
}
