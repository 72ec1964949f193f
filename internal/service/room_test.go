package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"music-controller/internal/domain"
	"music-controller/internal/repository"
	"music-controller/internal/repository/mocks"
	"music-controller/internal/service"
)

func newRoomService(t *testing.T) (*service.RoomService, *mocks.RoomRepository, *mocks.SessionStore) {
	t.Helper()
	roomRepo := mocks.NewRoomRepository(t)
	store := mocks.NewSessionStore(t)
	svc := service.NewRoomService(roomRepo, store, service.NewCodeGenerator(roomRepo, 3))
	return svc, roomRepo, store
}

func settings(pause bool, votes int) service.SettingsInput {
	return service.SettingsInput{GuestCanPause: boolPtr(pause), VotesToSkip: intPtr(votes)}
}

// --- ListRooms ---

func TestRoomService_ListRooms(t *testing.T) {
	svc, roomRepo, _ := newRoomService(t)
	rooms := []domain.Room{{ID: 1, Code: "AAAAAA", Host: "S1"}, {ID: 2, Code: "BBBBBB", Host: "S2"}}
	roomRepo.On("FindAll", mock.Anything).Return(rooms, nil).Once()

	got, err := svc.ListRooms(context.Background())

	require.NoError(t, err)
	assert.Equal(t, rooms, got)
}

func TestRoomService_ListRooms_RepositoryError(t *testing.T) {
	svc, roomRepo, _ := newRoomService(t)
	roomRepo.On("FindAll", mock.Anything).Return(nil, errors.New("boom")).Once()

	_, err := svc.ListRooms(context.Background())

	assert.True(t, errors.Is(err, service.ErrInternalServer))
}

// --- GetRoom ---

func TestRoomService_GetRoom_MissingCode(t *testing.T) {
	svc, roomRepo, _ := newRoomService(t)

	_, err := svc.GetRoom(context.Background(), "", "S1")

	assert.True(t, errors.Is(err, service.ErrMissingCode))
	roomRepo.AssertNotCalled(t, "FindByCode", mock.Anything, mock.Anything)
}

func TestRoomService_GetRoom_NotFound(t *testing.T) {
	svc, roomRepo, _ := newRoomService(t)
	roomRepo.On("FindByCode", mock.Anything, "ZZZZZZ").Return(nil, repository.ErrRoomNotFound).Once()

	_, err := svc.GetRoom(context.Background(), "ZZZZZZ", "S1")

	assert.True(t, errors.Is(err, service.ErrRoomNotFound))
}

func TestRoomService_GetRoom_IsHost(t *testing.T) {
	created := time.Now().Add(-time.Hour)
	room := &domain.Room{ID: 7, Code: "QWERTY", Host: "S1", GuestCanPause: true, VotesToSkip: 4, CreatedAt: created}

	cases := []struct {
		requester string
		isHost    bool
	}{
		{"S1", true},
		{"S2", false},
		{"", false},
	}
	for _, tc := range cases {
		t.Run("requester="+tc.requester, func(t *testing.T) {
			svc, roomRepo, _ := newRoomService(t)
			roomRepo.On("FindByCode", mock.Anything, "QWERTY").Return(room, nil).Once()

			view, err := svc.GetRoom(context.Background(), "QWERTY", tc.requester)

			require.NoError(t, err)
			assert.Equal(t, tc.isHost, view.IsHost)
			assert.Equal(t, *room, view.Room)
		})
	}
}

// --- JoinRoom ---

func TestRoomService_JoinRoom_Success(t *testing.T) {
	svc, roomRepo, store := newRoomService(t)
	code := "QWERTY"
	roomRepo.On("FindByCode", mock.Anything, code).Return(&domain.Room{ID: 1, Code: code, Host: "S1"}, nil).Once()
	store.On("SetField", mock.Anything, "S2", domain.SessionFieldRoomCode, code).Return(nil).Once()

	err := svc.JoinRoom(context.Background(), "S2", &code)

	require.NoError(t, err)
}

func TestRoomService_JoinRoom_MissingCode(t *testing.T) {
	svc, roomRepo, store := newRoomService(t)

	err := svc.JoinRoom(context.Background(), "S2", nil)

	assert.True(t, errors.Is(err, service.ErrMissingCode))
	roomRepo.AssertNotCalled(t, "FindByCode", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "SetField", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRoomService_JoinRoom_UnknownCodeLeavesSessionUntouched(t *testing.T) {
	svc, roomRepo, store := newRoomService(t)
	code := "NOPE"
	roomRepo.On("FindByCode", mock.Anything, code).Return(nil, repository.ErrRoomNotFound).Once()

	err := svc.JoinRoom(context.Background(), "S2", &code)

	assert.True(t, errors.Is(err, service.ErrInvalidRoomCode))
	store.AssertNotCalled(t, "SetField", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRoomService_JoinRoom_HostMayJoinAnotherRoom(t *testing.T) {
	svc, roomRepo, store := newRoomService(t)
	code := "OTHERS"
	roomRepo.On("FindByCode", mock.Anything, code).Return(&domain.Room{ID: 2, Code: code, Host: "S2"}, nil).Once()
	store.On("SetField", mock.Anything, "S1", domain.SessionFieldRoomCode, code).Return(nil).Once()

	require.NoError(t, svc.JoinRoom(context.Background(), "S1", &code))
	roomRepo.AssertNotCalled(t, "FindByHost", mock.Anything, mock.Anything)
}

// --- UpsertRoom ---

func TestRoomService_UpsertRoom_Creates(t *testing.T) {
	svc, roomRepo, store := newRoomService(t)
	roomRepo.On("FindByHost", mock.Anything, "S1").Return(nil, repository.ErrRoomNotFound).Once()
	roomRepo.On("IsCodeExists", mock.Anything, validCode()).Return(false, nil).Once()
	roomRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.Room) bool {
		assert.Equal(t, "S1", r.Host)
		assert.False(t, r.GuestCanPause)
		assert.Equal(t, 3, r.VotesToSkip)
		assert.Regexp(t, codePattern, r.Code)
		return true
	})).Run(func(args mock.Arguments) {
		r := args.Get(1).(*domain.Room)
		r.ID = 11
		r.CreatedAt = time.Now()
	}).Return(nil).Once()
	store.On("SetField", mock.Anything, "S1", domain.SessionFieldRoomCode, validCode()).Return(nil).Once()

	room, created, err := svc.UpsertRoom(context.Background(), "S1", settings(false, 3))

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uint(11), room.ID)
	assert.False(t, room.CreatedAt.IsZero())
}

func TestRoomService_UpsertRoom_UpdatesExisting(t *testing.T) {
	svc, roomRepo, store := newRoomService(t)
	createdAt := time.Now().Add(-time.Hour)
	existing := &domain.Room{ID: 5, Code: "HOSTED", Host: "S1", GuestCanPause: false, VotesToSkip: 3, CreatedAt: createdAt}
	roomRepo.On("FindByHost", mock.Anything, "S1").Return(existing, nil).Once()
	roomRepo.On("UpdateSettings", mock.Anything, mock.AnythingOfType("*domain.Room")).Return(nil).Once()
	store.On("SetField", mock.Anything, "S1", domain.SessionFieldRoomCode, "HOSTED").Return(nil).Once()

	room, created, err := svc.UpsertRoom(context.Background(), "S1", settings(true, 5))

	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "HOSTED", room.Code)
	assert.Equal(t, createdAt, room.CreatedAt)
	assert.True(t, room.GuestCanPause)
	assert.Equal(t, 5, room.VotesToSkip)
	roomRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	roomRepo.AssertNotCalled(t, "IsCodeExists", mock.Anything, mock.Anything)
}

func TestRoomService_UpsertRoom_InvalidPayload(t *testing.T) {
	svc, roomRepo, store := newRoomService(t)

	_, _, err := svc.UpsertRoom(context.Background(), "S1", service.SettingsInput{GuestCanPause: boolPtr(true)})

	assert.True(t, errors.Is(err, service.ErrInvalidSettings))
	roomRepo.AssertNotCalled(t, "FindByHost", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "SetField", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRoomService_UpsertRoom_ConcurrentInsertFallsBackToUpdate(t *testing.T) {
	svc, roomRepo, store := newRoomService(t)
	winner := &domain.Room{ID: 9, Code: "WINNER", Host: "S1", VotesToSkip: 2}
	roomRepo.On("FindByHost", mock.Anything, "S1").Return(nil, repository.ErrRoomNotFound).Once()
	roomRepo.On("IsCodeExists", mock.Anything, validCode()).Return(false, nil).Once()
	roomRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Room")).Return(repository.ErrDuplicateEntry).Once()
	roomRepo.On("FindByHost", mock.Anything, "S1").Return(winner, nil).Once()
	roomRepo.On("UpdateSettings", mock.Anything, winner).Return(nil).Once()
	store.On("SetField", mock.Anything, "S1", domain.SessionFieldRoomCode, "WINNER").Return(nil).Once()

	room, created, err := svc.UpsertRoom(context.Background(), "S1", settings(true, 4))

	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "WINNER", room.Code)
	assert.Equal(t, 4, room.VotesToSkip)
}

// 新房间写入会话失败时，刚插入的房间被撤销，不留下半完成的状态
func TestRoomService_UpsertRoom_AttachFailureRollsBackRoom(t *testing.T) {
	svc, roomRepo, store := newRoomService(t)
	roomRepo.On("FindByHost", mock.Anything, "S1").Return(nil, repository.ErrRoomNotFound).Once()
	roomRepo.On("IsCodeExists", mock.Anything, validCode()).Return(false, nil).Once()
	roomRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Room")).Return(nil).Once()
	store.On("SetField", mock.Anything, "S1", domain.SessionFieldRoomCode, validCode()).Return(errors.New("redis down")).Once()
	roomRepo.On("DeleteByHost", mock.Anything, "S1").Return(true, nil).Once()

	room, created, err := svc.UpsertRoom(context.Background(), "S1", settings(false, 2))

	assert.True(t, errors.Is(err, service.ErrInternalServer))
	assert.Nil(t, room)
	assert.False(t, created)
}

func TestRoomService_UpsertRoom_CodeSpaceExhausted(t *testing.T) {
	svc, roomRepo, _ := newRoomService(t)
	roomRepo.On("FindByHost", mock.Anything, "S1").Return(nil, repository.ErrRoomNotFound).Once()
	roomRepo.On("IsCodeExists", mock.Anything, validCode()).Return(true, nil).Times(3)

	_, _, err := svc.UpsertRoom(context.Background(), "S1", settings(false, 2))

	assert.True(t, errors.Is(err, service.ErrCodeSpaceExhausted))
	roomRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// --- UpdateRoom ---

func TestRoomService_UpdateRoom_ByHost(t *testing.T) {
	svc, roomRepo, _ := newRoomService(t)
	room := &domain.Room{ID: 3, Code: "QWERTY", Host: "S1", VotesToSkip: 2}
	roomRepo.On("FindByCode", mock.Anything, "QWERTY").Return(room, nil).Once()
	roomRepo.On("UpdateSettings", mock.Anything, room).Return(nil).Once()

	updated, err := svc.UpdateRoom(context.Background(), "S1", "QWERTY", settings(true, 6))

	require.NoError(t, err)
	assert.True(t, updated.GuestCanPause)
	assert.Equal(t, 6, updated.VotesToSkip)
}

func TestRoomService_UpdateRoom_NotHostIsForbidden(t *testing.T) {
	svc, roomRepo, _ := newRoomService(t)
	room := &domain.Room{ID: 3, Code: "QWERTY", Host: "S1", GuestCanPause: false, VotesToSkip: 2}
	roomRepo.On("FindByCode", mock.Anything, "QWERTY").Return(room, nil).Once()

	_, err := svc.UpdateRoom(context.Background(), "S2", "QWERTY", settings(true, 9))

	assert.True(t, errors.Is(err, service.ErrNotHost))
	assert.False(t, room.GuestCanPause)
	assert.Equal(t, 2, room.VotesToSkip)
	roomRepo.AssertNotCalled(t, "UpdateSettings", mock.Anything, mock.Anything)
}

func TestRoomService_UpdateRoom_NotFound(t *testing.T) {
	svc, roomRepo, _ := newRoomService(t)
	roomRepo.On("FindByCode", mock.Anything, "GHOSTS").Return(nil, repository.ErrRoomNotFound).Once()

	_, err := svc.UpdateRoom(context.Background(), "S1", "GHOSTS", settings(true, 2))

	assert.True(t, errors.Is(err, service.ErrRoomNotFound))
}

func TestRoomService_UpdateRoom_ValidationPrecedesLookup(t *testing.T) {
	svc, roomRepo, _ := newRoomService(t)

	_, err := svc.UpdateRoom(context.Background(), "S1", "QWERTY", settings(true, 0))
	assert.True(t, errors.Is(err, service.ErrInvalidSettings))

	_, err = svc.UpdateRoom(context.Background(), "S1", "", settings(true, 2))
	assert.True(t, errors.Is(err, service.ErrMissingCode))

	roomRepo.AssertNotCalled(t, "FindByCode", mock.Anything, mock.Anything)
}

// --- LeaveRoom ---

func TestRoomService_LeaveRoom_HostDeletesRoom(t *testing.T) {
	svc, roomRepo, store := newRoomService(t)
	store.On("DeleteField", mock.Anything, "S1", domain.SessionFieldRoomCode).Return(true, nil).Once()
	roomRepo.On("DeleteByHost", mock.Anything, "S1").Return(true, nil).Once()

	out := svc.LeaveRoom(context.Background(), "S1")

	assert.Equal(t, service.LeaveOutcome{Detached: true, RoomDeleted: true}, out)
}

func TestRoomService_LeaveRoom_GuestOnlyDetaches(t *testing.T) {
	svc, roomRepo, store := newRoomService(t)
	store.On("DeleteField", mock.Anything, "S2", domain.SessionFieldRoomCode).Return(true, nil).Once()
	roomRepo.On("DeleteByHost", mock.Anything, "S2").Return(false, nil).Once()

	out := svc.LeaveRoom(context.Background(), "S2")

	assert.Equal(t, service.LeaveOutcome{Detached: true}, out)
}

func TestRoomService_LeaveRoom_HostWithoutAttachmentStillDeletes(t *testing.T) {
	svc, roomRepo, store := newRoomService(t)
	store.On("DeleteField", mock.Anything, "S1", domain.SessionFieldRoomCode).Return(false, nil).Once()
	roomRepo.On("DeleteByHost", mock.Anything, "S1").Return(true, nil).Once()

	out := svc.LeaveRoom(context.Background(), "S1")

	assert.Equal(t, service.LeaveOutcome{RoomDeleted: true}, out)
}

func TestRoomService_LeaveRoom_NoOp(t *testing.T) {
	svc, roomRepo, store := newRoomService(t)

	out := svc.LeaveRoom(context.Background(), "")

	assert.Equal(t, service.LeaveOutcome{}, out)
	store.AssertNotCalled(t, "DeleteField", mock.Anything, mock.Anything, mock.Anything)
	roomRepo.AssertNotCalled(t, "DeleteByHost", mock.Anything, mock.Anything)
}

func TestRoomService_LeaveRoom_StoreErrorsDoNotFail(t *testing.T) {
	svc, roomRepo, store := newRoomService(t)
	store.On("DeleteField", mock.Anything, "S1", domain.SessionFieldRoomCode).Return(false, errors.New("redis down")).Once()
	roomRepo.On("DeleteByHost", mock.Anything, "S1").Return(true, nil).Once()

	out := svc.LeaveRoom(context.Background(), "S1")

	assert.Equal(t, service.LeaveOutcome{RoomDeleted: true}, out)
}
