// internal/users/directory.go
package users

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "firefighter-nlp/internal/common/errors"
	"firefighter-nlp/internal/common/logger"
	"firefighter-nlp/internal/models"
)

const (
	cacheKeyPrefix  = "nlp:role:"
	DefaultCacheTTL = 5 * time.Minute
)

// Directory resolves actor roles from Postgres with a Redis read-through
// cache. A nil cache disables caching.
type Directory struct {
	db     *sql.DB
	cache  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewDirectory(db *sql.DB, cache *redis.Client, ttl time.Duration, log logger.Logger) *Directory {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Directory{
		db:     db,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "role-directory"}),
	}
}

func cacheKey(actorID string) string {
	return cacheKeyPrefix + actorID
}

// RoleOf returns the normalized role of an enabled user.
func (d *Directory) RoleOf(ctx context.Context, actorID string) (string, error) {
	if actorID == "" {
		return "", apperrors.NewUserNotFoundError(actorID)
	}

	if d.cache != nil {
		role, err := d.cache.Get(ctx, cacheKey(actorID)).Result()
		switch {
		case err == nil && role != "":
			return role, nil
		case err != nil && !errors.Is(err, redis.Nil):
			d.logger.Warn("role cache read failed", map[string]interface{}{
				"actorId": actorID,
				"error":   err,
			})
		}
	}

	user, err := d.lookup(ctx, actorID)
	if err != nil {
		return "", err
	}
	role := models.NormalizeRole(user.Role)

	if d.cache != nil {
		if err := d.cache.Set(ctx, cacheKey(actorID), role, d.ttl).Err(); err != nil {
			d.logger.Warn("role cache write failed", map[string]interface{}{
				"actorId": actorID,
				"error":   err,
			})
		}
	}
	return role, nil
}

// Invalidate drops the cached role so the next lookup reads Postgres.
func (d *Directory) Invalidate(ctx context.Context, actorID string) error {
	if d.cache == nil {
		return nil
	}
	return d.cache.Del(ctx, cacheKey(actorID)).Err()
}

func (d *Directory) lookup(ctx context.Context, actorID string) (*models.User, error) {
	var user models.User
	err := d.db.QueryRowContext(ctx, `
		SELECT id, username, role, enabled
		FROM users
		WHERE id = $1`, actorID).Scan(&user.ID, &user.Username, &user.Role, &user.Enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewUserNotFoundError(actorID)
	}
	if err != nil {
		d.logger.Error("role lookup failed", map[string]interface{}{
			"actorId": actorID,
			"error":   err,
		})
		return nil, apperrors.NewRoleLookupFailedError(actorID, err)
	}
	if !user.Enabled {
		return nil, apperrors.NewUserNotFoundError(actorID)
	}
	return &user, nil
}
