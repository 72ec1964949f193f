package setup

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"music-controller/internal/domain"
)

// MigrateDB 自动迁移 rooms 表，包括 code 与 host 上的唯一索引
// Service 层依赖这两个唯一索引保证并发安全
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("cannot migrate database with nil DB connection")
	}
	if err := db.AutoMigrate(&domain.Room{}); err != nil {
		logrus.Errorf("Failed to auto-migrate rooms table: %v", err)
		return fmt.Errorf("failed to migrate rooms table: %w", err)
	}
	logrus.Info("Database migration completed successfully")
	return nil
}
