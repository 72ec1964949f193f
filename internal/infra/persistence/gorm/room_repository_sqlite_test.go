package gormpersistence

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"music-controller/internal/domain"
	"music-controller/internal/repository"
)

// newSQLiteRepo 创建基于内存 SQLite 的仓库，表结构与生产环境一样由 AutoMigrate 生成
func newSQLiteRepo(t *testing.T) *GormRoomRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库每个连接都是独立的数据库，限制为单连接
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&domain.Room{}))
	return NewGormRoomRepository(db)
}

func TestGormRoomRepository_CreateAndFind(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	first := &domain.Room{Code: "AAAAAA", Host: "S1", VotesToSkip: 2}
	second := &domain.Room{Code: "BBBBBB", Host: "S2", GuestCanPause: true, VotesToSkip: 4}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	assert.NotZero(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	// 按插入顺序返回
	rooms, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "AAAAAA", rooms[0].Code)
	assert.Equal(t, "BBBBBB", rooms[1].Code)

	byCode, err := repo.FindByCode(ctx, "BBBBBB")
	require.NoError(t, err)
	assert.Equal(t, "S2", byCode.Host)
	assert.True(t, byCode.GuestCanPause)

	byHost, err := repo.FindByHost(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", byHost.Code)

	exists, err := repo.IsCodeExists(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.IsCodeExists(ctx, "ZZZZZZ")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.FindByCode(ctx, "ZZZZZZ")
	assert.ErrorIs(t, err, repository.ErrRoomNotFound)
	_, err = repo.FindByHost(ctx, "nobody")
	assert.ErrorIs(t, err, repository.ErrRoomNotFound)
}

func TestGormRoomRepository_UniqueKeys(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &domain.Room{Code: "AAAAAA", Host: "S1", VotesToSkip: 2}))

	// 同一会话只能拥有一个房间
	err := repo.Create(ctx, &domain.Room{Code: "BBBBBB", Host: "S1", VotesToSkip: 2})
	assert.ErrorIs(t, err, repository.ErrDuplicateEntry)

	// 房间码唯一
	err = repo.Create(ctx, &domain.Room{Code: "AAAAAA", Host: "S2", VotesToSkip: 2})
	assert.ErrorIs(t, err, repository.ErrDuplicateEntry)

	rooms, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, rooms, 1)
}

func TestGormRoomRepository_UpdateSettings(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()
	room := &domain.Room{Code: "AAAAAA", Host: "S1", GuestCanPause: true, VotesToSkip: 2}
	require.NoError(t, repo.Create(ctx, room))
	before, err := repo.FindByCode(ctx, "AAAAAA")
	require.NoError(t, err)

	// 零值 false 也必须写入
	room.GuestCanPause = false
	room.VotesToSkip = 5
	require.NoError(t, repo.UpdateSettings(ctx, room))

	after, err := repo.FindByHost(ctx, "S1")
	require.NoError(t, err)
	assert.False(t, after.GuestCanPause)
	assert.Equal(t, 5, after.VotesToSkip)
	assert.Equal(t, before.Code, after.Code)
	assert.True(t, before.CreatedAt.Equal(after.CreatedAt))

	// 值未变化的更新同样成功
	require.NoError(t, repo.UpdateSettings(ctx, room))
}

func TestGormRoomRepository_DeleteByHost(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()
	room := &domain.Room{Code: "AAAAAA", Host: "S1", VotesToSkip: 2}
	require.NoError(t, repo.Create(ctx, room))

	deleted, err := repo.DeleteByHost(ctx, "S1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteByHost(ctx, "S1")
	require.NoError(t, err)
	assert.False(t, deleted)

	// 删除后的更新报告房间不存在
	room.VotesToSkip = 3
	assert.ErrorIs(t, repo.UpdateSettings(ctx, room), repository.ErrRoomNotFound)

	// 删除后房主可以重新创建房间
	require.NoError(t, repo.Create(ctx, &domain.Room{Code: "CCCCCC", Host: "S1", VotesToSkip: 2}))
}
