package service

import (
	"context"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"

	"music-controller/internal/domain"
	"music-controller/internal/repository"
)

const (
	codeAlphabet           = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	defaultMaxCodeAttempts = 10
)

// CodeGenerator 负责生成尚未被使用的房间码
type CodeGenerator struct {
	roomRepo    repository.RoomRepository
	maxAttempts int
}

// NewCodeGenerator 创建 CodeGenerator，maxAttempts <= 0 时使用默认重试次数
func NewCodeGenerator(roomRepo repository.RoomRepository, maxAttempts int) *CodeGenerator {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for CodeGenerator")
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxCodeAttempts
	}
	return &CodeGenerator{roomRepo: roomRepo, maxAttempts: maxAttempts}
}

// Generate 生成 6 位大写字母房间码
// 所有尝试都与已有房间冲突时返回 ErrCodeSpaceExhausted
func (g *CodeGenerator) Generate(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		// 1. 从 A-Z 中随机生成候选房间码
		code, err := gonanoid.Generate(codeAlphabet, domain.CodeLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate room code: %w", err)
		}

		// 2. 检查是否已被使用
		exists, err := g.roomRepo.IsCodeExists(ctx, code)
		if err != nil {
			logrus.WithError(err).WithField("code", code).Error("Database error checking room code uniqueness")
			return "", fmt.Errorf("database error checking room code: %w", err)
		}
		if !exists {
			logrus.WithField("code", code).Debugf("Generated unique room code after %d attempt(s)", attempt)
			return code, nil
		}
		logrus.WithField("code", code).Warnf("Generated room code already exists, retrying (attempt %d)", attempt)
	}
	logrus.Errorf("Failed to generate a unique room code after %d attempts", g.maxAttempts)
	return "", fmt.Errorf("%w after %d attempts", ErrCodeSpaceExhausted, g.maxAttempts)
}
