package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/WinterTin/user-center/internal/models"
	sharedredis "github.com/WinterTin/user-center/internal/redis"
	goredis "github.com/redis/go-redis/v9"
)

const userViewKeyPrefix = "user:view:"

// Store is the account persistence contract. Lookups report a missing row
// with ErrNotFound and a live duplicate account name on insert with
// ErrDuplicateAccount.
type Store interface {
	Insert(ctx context.Context, user *models.User) (int64, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByAccountName(ctx context.Context, accountName string, excludeDeleted bool) (*models.User, error)
	ListAll(ctx context.Context, excludeDeleted bool) ([]models.User, error)
	SoftDelete(ctx context.Context, id int64) (int64, error)
}

// CachedUserRepository serves id lookups of live accounts from Redis,
// falling back to the wrapped store on a miss. Every other call goes
// straight through.
type CachedUserRepository struct {
	next  Store
	cache *sharedredis.ViewCache[models.User]
}

var (
	_ Store = (*UserRepository)(nil)
	_ Store = (*CachedUserRepository)(nil)
)

func NewCachedUserRepository(next Store, client goredis.Cmdable, ttl time.Duration, logger *slog.Logger) *CachedUserRepository {
	return &CachedUserRepository{
		next:  next,
		cache: sharedredis.NewViewCache[models.User](client, ttl, logger),
	}
}

// Insert writes through and warms the cache with the new row.
func (r *CachedUserRepository) Insert(ctx context.Context, user *models.User) (int64, error) {
	id, err := r.next.Insert(ctx, user)
	if err != nil {
		return 0, err
	}
	cached := *user
	cached.ID = id
	r.cache.Set(ctx, userViewKey(id), &cached)
	return id, nil
}

// FindByID returns the cached copy when present. Cached copies never carry
// PasswordHash; callers that verify credentials must use FindByAccountName.
func (r *CachedUserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if user, ok := r.cache.Get(ctx, userViewKey(id)); ok {
		return user, nil
	}
	user, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsDeleted {
		r.cache.Set(ctx, userViewKey(id), user)
	}
	return user, nil
}

func (r *CachedUserRepository) FindByAccountName(ctx context.Context, accountName string, excludeDeleted bool) (*models.User, error) {
	return r.next.FindByAccountName(ctx, accountName, excludeDeleted)
}

func (r *CachedUserRepository) ListAll(ctx context.Context, excludeDeleted bool) ([]models.User, error) {
	return r.next.ListAll(ctx, excludeDeleted)
}

// SoftDelete writes through and drops the cached copy. The cached JSON has
// no deletion flag, so a failed invalidation is returned: the row is already
// deleted and a retry reports 0 but clears the stale copy.
func (r *CachedUserRepository) SoftDelete(ctx context.Context, id int64) (int64, error) {
	n, err := r.next.SoftDelete(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := r.cache.Delete(ctx, userViewKey(id)); err != nil {
		return n, fmt.Errorf("account %d deleted but cached view not invalidated: %w", id, err)
	}
	return n, nil
}

func userViewKey(id int64) string {
	return userViewKeyPrefix + strconv.FormatInt(id, 10)
}
