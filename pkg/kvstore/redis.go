package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fystack/toncenter-indexer/pkg/common/enum"
	"github.com/fystack/toncenter-indexer/pkg/common/logger"
	"github.com/fystack/toncenter-indexer/pkg/infra"
)

const redisOpTimeout = 3 * time.Second

// RedisStore implements infra.KVStore on plain Redis strings. Listing uses
// SCAN so it never blocks the server.
type RedisStore struct {
	client *redis.Client
	ns     namespace
	codec  infra.Codec
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	Codec    infra.Codec
}

func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	if opts.Codec == nil {
		opts.Codec = infra.JSON
	}
	client := redis.NewClient(&redis.Options{
		Addr:            opts.Addr,
		Password:        opts.Password,
		DB:              opts.DB,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     redisOpTimeout,
		WriteTimeout:    redisOpTimeout,
		MaxRetries:      3,
		MinRetryBackoff: 100 * time.Millisecond,
		MaxRetryBackoff: 500 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Debug("Connected to Redis", "addr", opts.Addr, "pong", pong)

	return &RedisStore{client: client, ns: namespace(opts.Prefix), codec: opts.Codec}, nil
}

func (r *RedisStore) GetName() string {
	return string(enum.KVStoreTypeRedis)
}

func (r *RedisStore) Set(k string, v []byte) error {
	key, err := r.ns.key(k)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return r.client.Set(ctx, key, v, 0).Err()
}

func (r *RedisStore) Get(k string) ([]byte, error) {
	key, err := r.ns.key(k)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	return val, err
}

func (r *RedisStore) SetAny(k string, v any) error {
	if err := checkKeyAndValue(k, v); err != nil {
		return err
	}
	data, err := r.codec.Marshal(v)
	if err != nil {
		return err
	}
	return r.Set(k, data)
}

func (r *RedisStore) GetAny(k string, v any) (bool, error) {
	if err := checkKeyAndValue(k, v); err != nil {
		return false, err
	}
	data, err := r.Get(k)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, r.codec.Unmarshal(data, v)
}

func (r *RedisStore) List(prefix string) ([]*infra.KVPair, error) {
	p, err := r.ns.prefix(prefix)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 4*redisOpTimeout)
	defer cancel()

	result := make([]*infra.KVPair, 0)
	iter := r.client.Scan(ctx, 0, p+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		val, err := r.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result = append(result, &infra.KVPair{Key: r.ns.strip(key), Value: val})
	}
	return result, iter.Err()
}

func (r *RedisStore) Delete(k string) error {
	key, err := r.ns.key(k)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return r.client.Del(ctx, key).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
