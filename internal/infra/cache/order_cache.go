package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

// 注文詳細の読み取りキャッシュ。遷移のたびに新しい詳細で上書きされる。
type RedisOrderCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisOrderCache(client *redis.Client, baseTTL time.Duration) *RedisOrderCache {
	if baseTTL <= 0 {
		baseTTL = 10 * time.Minute
	}
	return &RedisOrderCache{client: client, baseTTL: baseTTL}
}

func (r *RedisOrderCache) Get(ctx context.Context, orderID int64) (model.OrderDetail, error) {
	data, err := r.client.Get(ctx, cacheKey(orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.OrderDetail{}, ErrCacheMiss
	}
	if err != nil {
		return model.OrderDetail{}, fmt.Errorf("redis get failed: %w", err)
	}

	var d model.OrderDetail
	if err := json.Unmarshal(data, &d); err != nil {
		return model.OrderDetail{}, fmt.Errorf("unmarshal order failed: %w", err)
	}
	return d, nil
}

// 同じキーへの書き込みが競合したときの再試行回数
const maxSetAttempts = 3

// 既に新しい詳細が入っていれば書かない
func (r *RedisOrderCache) Set(ctx context.Context, d model.OrderDetail) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal order failed: %w", err)
	}

	//有効期限がまとめて切れないようにずらす
	jitter := time.Duration(rand.Int63n(int64(r.baseTTL)/5 + 1))
	key := cacheKey(d.Order.ID)

	write := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil {
			var existing model.OrderDetail
			//壊れた値は上書きしてよい
			if json.Unmarshal(cur, &existing) == nil && newerDetail(existing, d) {
				return nil
			}
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, data, r.baseTTL+jitter)
			return nil
		})
		return err
	}

	for i := 0; i < maxSetAttempts; i++ {
		err = r.client.Watch(ctx, write, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// タイムラインは遷移ごとに1件増える。件数が同じならupdated_atで比べる
func newerDetail(a, b model.OrderDetail) bool {
	if len(a.Timeline) != len(b.Timeline) {
		return len(a.Timeline) > len(b.Timeline)
	}
	return a.Order.UpdatedAt.After(b.Order.UpdatedAt)
}

func (r *RedisOrderCache) Delete(ctx context.Context, orderID int64) error {
	if err := r.client.Del(ctx, cacheKey(orderID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(orderID int64) string {
	return fmt.Sprintf("pharmacy:order:%d", orderID)
}
