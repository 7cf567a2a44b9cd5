package storage

import (
	"context"
	"time"

	model "go_purlfy/internal/domain/model/purify_rule"
	configs "go_purlfy/internal/infra/config"

	"github.com/patrickmn/go-cache"
)

// memoryRuleSetCache 未配置 redis 时的进程内缓存
type memoryRuleSetCache struct {
	cache *cache.Cache
}

func NewMemoryRuleSetCache(ttl time.Duration) RuleSetCacheIface {
	return &memoryRuleSetCache{cache: cache.New(ttl, 2*ttl)}
}

var _ RuleSetCacheIface = (*memoryRuleSetCache)(nil)

func (m *memoryRuleSetCache) GetRuleSetFromCache(_ context.Context, name string) (*model.RuleSet, error) {
	v, ok := m.cache.Get(name)
	if !ok {
		return nil, ErrCacheMiss
	}
	set := *v.(*model.RuleSet)
	return &set, nil
}

func (m *memoryRuleSetCache) SetRuleSetToCache(_ context.Context, set *model.RuleSet) error {
	stored := *set
	m.cache.SetDefault(set.Name, &stored)
	return nil
}

func (m *memoryRuleSetCache) DeleteRuleSetFromCache(_ context.Context, name string) error {
	m.cache.Delete(name)
	return nil
}

// NewRuleSetCache redis 可用时使用 redis, 否则退化为进程内缓存
func NewRuleSetCache(c *configs.Config) (RuleSetCacheIface, error) {
	ttl := c.RuleRepoConfig.CacheTTL
	if !c.RedisConfig.Enabled() {
		return NewMemoryRuleSetCache(ttl), nil
	}
	client, err := NewRedisClient(&c.RedisConfig)
	if err != nil {
		return nil, err
	}
	return NewRedisRuleSetCache(client, ttl), nil
}
