package cachestore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisCachePrefix string = "cache/"

type RedisCacheStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCacheStore(redisURL string, ttl time.Duration) (*RedisCacheStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.TODO()).Result(); err != nil {
		return nil, err
	}
	return &RedisCacheStore{Client: rdb, TTL: ttl}, nil
}

func (s *RedisCacheStore) Get(ctx context.Context, name, key string) (string, error) {
	v, err := s.Client.Get(ctx, redisCachePrefix+name+"/"+key).Result()
	if err == redis.Nil {
		return "", nil
	} else if err != nil {
		return "", err
	}
	return v, nil
}

func (s *RedisCacheStore) Set(ctx context.Context, name, key string, val string) error {
	return s.Client.Set(ctx, redisCachePrefix+name+"/"+key, val, s.TTL).Err()
}

func (s *RedisCacheStore) Purge(ctx context.Context, name, key string) error {
	return s.Client.Del(ctx, redisCachePrefix+name+"/"+key).Err()
}
