package service

import (
	"context"
	"errors"
	"quiz_backend/internal/util"
	"quiz_backend/pkg/cache"
	"time"
)

// TokenBlacklist 注销的令牌在剩余有效期内保存在缓存中
type TokenBlacklist struct {
	store cache.Store
}

func NewTokenBlacklist(store cache.Store) *TokenBlacklist {
	return &TokenBlacklist{store: store}
}

func (b *TokenBlacklist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return b.store.Set(ctx, util.CacheKeyBlacklist+tokenID, []byte("1"), ttl)
}

func (b *TokenBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	_, err := b.store.Get(ctx, util.CacheKeyBlacklist+tokenID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, cache.ErrMiss) {
		return false, nil
	}
	return false, err
}
