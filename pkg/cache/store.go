package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrMiss 键不存在或已过期
var ErrMiss = errors.New("cache: miss")

// Store 带过期时间的键值存储，用于列表缓存、分析缓存、会话与令牌黑名单
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

func GetJSON(ctx context.Context, s Store, key string, dst interface{}) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func SetJSON(ctx context.Context, s Store, key string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, raw, ttl)
}

// Loader 合并同一个键的并发回源请求
type Loader struct {
	store Store
	group singleflight.Group
	// OnError 缓存读写失败时回调，失败本身不影响请求
	OnError func(key string, err error)
}

func NewLoader(store Store) *Loader {
	return &Loader{store: store}
}

func (l *Loader) Store() Store {
	return l.store
}

// Remember 命中缓存时直接解码到 dst，否则调用 load 并写回缓存
func (l *Loader) Remember(ctx context.Context, key string, ttl time.Duration, dst interface{}, load func() (interface{}, error)) error {
	err := GetJSON(ctx, l.store, key, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrMiss) {
		l.reportError(key, err)
	}

	raw, err, _ := l.group.Do(key, func() (interface{}, error) {
		v, err := load()
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		if err := l.store.Set(ctx, key, data, ttl); err != nil {
			l.reportError(key, err)
		}
		return data, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw.([]byte), dst)
}

func (l *Loader) reportError(key string, err error) {
	if l.OnError != nil {
		l.OnError(key, err)
	}
}
