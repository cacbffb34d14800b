package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "firefighter-nlp/internal/common/errors"
	"firefighter-nlp/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

const userQuery = `SELECT id, username, role, enabled FROM users WHERE id = \$1`

func userRows(id, role string, enabled bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "role", "enabled"}).
		AddRow(id, "jdoe", role, enabled)
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

// ==========================
// Read-through Tests
// ==========================

func TestDirectory_RoleOf_MissPopulatesCache(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mr, client := newMiniredis(t)

	mock.ExpectQuery(userQuery).WithArgs("admin-1").WillReturnRows(userRows("admin-1", "role_admin", true))

	dir := NewDirectory(db, client, time.Minute, logger.NewTestLogger(t))

	role, err := dir.RoleOf(context.Background(), "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", role)

	cached, err := mr.Get("nlp:role:admin-1")
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", cached)
	assert.Equal(t, time.Minute, mr.TTL("nlp:role:admin-1"))

	// second call is served from the cache
	role, err = dir.RoleOf(context.Background(), "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectory_RoleOf_ExpiredEntryReloads(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mr, client := newMiniredis(t)

	mock.ExpectQuery(userQuery).WithArgs("user-1").WillReturnRows(userRows("user-1", "USER", true))
	mock.ExpectQuery(userQuery).WithArgs("user-1").WillReturnRows(userRows("user-1", "ADMIN", true))

	dir := NewDirectory(db, client, 30*time.Second, nil)

	role, err := dir.RoleOf(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "USER", role)

	mr.FastForward(31 * time.Second)

	role, err = dir.RoleOf(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectory_Invalidate(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mr, client := newMiniredis(t)
	require.NoError(t, mr.Set("nlp:role:user-1", "USER"))

	dir := NewDirectory(db, client, time.Minute, nil)

	require.NoError(t, dir.Invalidate(context.Background(), "user-1"))
	assert.False(t, mr.Exists("nlp:role:user-1"))
}

// ==========================
// Failure Tests
// ==========================

func TestDirectory_RoleOf_Failures(t *testing.T) {
	tests := []struct {
		name     string
		actorID  string
		setup    func(mock sqlmock.Sqlmock)
		wantCode apperrors.ErrorCode
	}{
		{
			name:     "empty actor",
			actorID:  "",
			setup:    func(sqlmock.Sqlmock) {},
			wantCode: apperrors.ErrCodeUserNotFound,
		},
		{
			name:    "unknown user",
			actorID: "ghost",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(userQuery).WithArgs("ghost").
					WillReturnRows(sqlmock.NewRows([]string{"id", "username", "role", "enabled"}))
			},
			wantCode: apperrors.ErrCodeUserNotFound,
		},
		{
			name:    "disabled user",
			actorID: "user-2",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(userQuery).WithArgs("user-2").WillReturnRows(userRows("user-2", "ADMIN", false))
			},
			wantCode: apperrors.ErrCodeUserNotFound,
		},
		{
			name:    "database down",
			actorID: "user-3",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(userQuery).WithArgs("user-3").WillReturnError(errors.New("connection refused"))
			},
			wantCode: apperrors.ErrCodeRoleLookupFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			tt.setup(mock)

			dir := NewDirectory(db, nil, 0, logger.NewTestLogger(t))

			role, err := dir.RoleOf(context.Background(), tt.actorID)

			assert.Empty(t, role)
			assert.True(t, apperrors.HasCode(err, tt.wantCode), "got %v", err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDirectory_RoleOf_CacheErrorsFallBackToDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	redisClient, redisMock := redismock.NewClientMock()

	redisMock.ExpectGet("nlp:role:user-1").SetErr(errors.New("redis: connection pool timeout"))
	mock.ExpectQuery(userQuery).WithArgs("user-1").WillReturnRows(userRows("user-1", "user", true))
	redisMock.ExpectSet("nlp:role:user-1", "USER", DefaultCacheTTL).SetErr(errors.New("READONLY"))

	dir := NewDirectory(db, redisClient, 0, logger.NewTestLogger(t))

	role, err := dir.RoleOf(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, "USER", role)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestDirectory_RoleOf_CacheHitSkipsDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	redisClient, redisMock := redismock.NewClientMock()
	redisMock.ExpectGet("nlp:role:admin-1").SetVal("ADMIN")

	dir := NewDirectory(db, redisClient, time.Minute, nil)

	role, err := dir.RoleOf(context.Background(), "admin-1")

	require.NoError(t, err)
	assert.Equal(t, "ADMIN", role)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}
