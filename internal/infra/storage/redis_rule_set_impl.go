package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	model "go_purlfy/internal/domain/model/purify_rule"
	configs "go_purlfy/internal/infra/config"
	"go_purlfy/utils"

	"github.com/go-redis/redis/v8"
)

const ruleSetKeyPrefix = "purlfy:rule_set:" // Redis Key 前缀

type redisRuleSetCache struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewRedisClient(c *configs.RedisConfig) (*redis.Client, error) {
	// 配置 Redis 连接参数
	client := redis.NewClient(&redis.Options{
		Addr:         c.Addr(),
		Password:     c.Password,
		DB:           c.Database,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
		MaxRetries:   c.MaxRetries,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
		PoolTimeout:  c.PoolTimeout,
		IdleTimeout:  c.IdleTimeout,
	})

	// 测试连接是否成功
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis %s: %w", c.Addr(), err)
	}

	utils.GetLogger().Infof("connected to redis %s", c.Addr())
	return client, nil
}

func NewRedisRuleSetCache(redisClient *redis.Client, ttl time.Duration) RuleSetCacheIface {
	return &redisRuleSetCache{redisClient: redisClient, ttl: ttl}
}

var _ RuleSetCacheIface = (*redisRuleSetCache)(nil)

func (r *redisRuleSetCache) GetRuleSetFromCache(ctx context.Context, name string) (*model.RuleSet, error) {
	data, err := r.redisClient.Get(ctx, ruleSetKeyPrefix+name).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get rule set from redis: %w", err)
	}
	set := &model.RuleSet{}
	if err := json.Unmarshal(data, set); err != nil {
		return nil, fmt.Errorf("failed to decode cached rule set: %w", err)
	}
	return set, nil
}

func (r *redisRuleSetCache) SetRuleSetToCache(ctx context.Context, set *model.RuleSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to encode rule set: %w", err)
	}
	if err := r.redisClient.Set(ctx, ruleSetKeyPrefix+set.Name, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set rule set to redis: %w", err)
	}
	return nil
}

func (r *redisRuleSetCache) DeleteRuleSetFromCache(ctx context.Context, name string) error {
	if err := r.redisClient.Del(ctx, ruleSetKeyPrefix+name).Err(); err != nil {
		return fmt.Errorf("failed to delete rule set from redis: %w", err)
	}
	return nil
}
