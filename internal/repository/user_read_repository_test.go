package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/WinterTin/user-center/internal/models"
	goredis "github.com/redis/go-redis/v9"
)

type fakeRedis struct {
	goredis.Cmdable
	data   map[string]string
	delErr error
}

func (f *fakeRedis) Get(ctx context.Context, key string) *goredis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd {
	if b, ok := value.([]byte); ok {
		f.data[key] = string(b)
	}
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	if f.delErr != nil {
		return goredis.NewIntResult(0, f.delErr)
	}
	for _, k := range keys {
		delete(f.data, k)
	}
	return goredis.NewIntResult(int64(len(keys)), nil)
}

type countingStore struct {
	users    map[int64]*models.User
	findByID int
	nextID   int64
}

func (s *countingStore) Insert(ctx context.Context, user *models.User) (int64, error) {
	s.nextID++
	u := *user
	u.ID = s.nextID
	s.users[u.ID] = &u
	return u.ID, nil
}

func (s *countingStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	s.findByID++
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *countingStore) FindByAccountName(ctx context.Context, accountName string, excludeDeleted bool) (*models.User, error) {
	for _, u := range s.users {
		if u.AccountName == accountName && (!excludeDeleted || !u.IsDeleted) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *countingStore) ListAll(ctx context.Context, excludeDeleted bool) ([]models.User, error) {
	return nil, nil
}

func (s *countingStore) SoftDelete(ctx context.Context, id int64) (int64, error) {
	u, ok := s.users[id]
	if !ok || u.IsDeleted {
		return 0, nil
	}
	u.IsDeleted = true
	return 1, nil
}

func newCachedRepo() (*CachedUserRepository, *countingStore, *fakeRedis) {
	store := &countingStore{users: map[int64]*models.User{}}
	rdb := &fakeRedis{data: map[string]string{}}
	return NewCachedUserRepository(store, rdb, time.Minute, nil), store, rdb
}

func TestCachedFindByID_HitAfterInsert(t *testing.T) {
	ctx := context.Background()
	repo, store, rdb := newCachedRepo()

	id, err := repo.Insert(ctx, &models.User{AccountName: "alice", PasswordHash: "$2a$10$hash"})
	if err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if _, ok := rdb.data[userViewKey(id)]; !ok {
		t.Fatalf("expected insert to warm the cache")
	}

	got, err := repo.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if store.findByID != 0 {
		t.Errorf("expected cache hit, store was queried %d times", store.findByID)
	}
	if got.AccountName != "alice" || got.PasswordHash != "" {
		t.Errorf("unexpected cached user: %+v", got)
	}
}

func TestCachedFindByID_MissFallsBack(t *testing.T) {
	ctx := context.Background()
	repo, store, rdb := newCachedRepo()
	store.users[4] = &models.User{ID: 4, AccountName: "bob"}

	if _, err := repo.FindByID(ctx, 4); err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if store.findByID != 1 {
		t.Fatalf("expected one store lookup, got %d", store.findByID)
	}
	if _, ok := rdb.data[userViewKey(4)]; !ok {
		t.Fatalf("expected miss to warm the cache")
	}
}

func TestCachedSoftDeleteInvalidates(t *testing.T) {
	ctx := context.Background()
	repo, store, rdb := newCachedRepo()

	id, _ := repo.Insert(ctx, &models.User{AccountName: "carol"})
	n, err := repo.SoftDelete(ctx, id)
	if err != nil || n != 1 {
		t.Fatalf("SoftDelete = %d, %v", n, err)
	}
	if _, ok := rdb.data[userViewKey(id)]; ok {
		t.Fatalf("expected cache entry to be dropped")
	}

	got, err := repo.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if !got.IsDeleted {
		t.Fatalf("expected deleted row from store, got %+v", got)
	}
	if _, ok := rdb.data[userViewKey(id)]; ok {
		t.Fatalf("deleted rows must not be cached")
	}
	if store.findByID != 1 {
		t.Fatalf("expected store lookup after invalidation")
	}
}

func TestCachedSoftDeleteReportsFailedInvalidation(t *testing.T) {
	ctx := context.Background()
	repo, store, rdb := newCachedRepo()

	id, _ := repo.Insert(ctx, &models.User{AccountName: "dave"})
	rdb.delErr = errors.New("connection reset")

	n, err := repo.SoftDelete(ctx, id)
	if !errors.Is(err, rdb.delErr) {
		t.Fatalf("expected invalidation failure, got %v", err)
	}
	if n != 1 || !store.users[id].IsDeleted {
		t.Fatalf("expected row to be deleted, n=%d", n)
	}

	// a retry matches no live row but clears the stale copy
	rdb.delErr = nil
	n, err = repo.SoftDelete(ctx, id)
	if err != nil || n != 0 {
		t.Fatalf("retry SoftDelete = %d, %v", n, err)
	}
	got, err := repo.FindByID(ctx, id)
	if err != nil || !got.IsDeleted {
		t.Fatalf("expected deleted row from store, got %+v, %v", got, err)
	}
}
