package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	model "go_purlfy/internal/domain/model/purify_rule"
	configs "go_purlfy/internal/infra/config"
	"go_purlfy/internal/infra/storage"
	"go_purlfy/utils"

	"github.com/avast/retry-go/v4"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/singleflight"
)

// ruleSetRepoImpl 实现了 RuleSetRepositoryIface (singleflight 并发控制, retry-go, ants pool 异步回填缓存)
type ruleSetRepoImpl struct {
	dbStorage storage.RuleSetStorageIface
	cache     storage.RuleSetCacheIface
	source    storage.RuleSetSourceIface
	config    *configs.RuleRepoConfig
	taskPool  *ants.Pool
	sfGroup   singleflight.Group
}

const closeTimeout = 5 * time.Second

// 确保 ruleSetRepoImpl 实现了 RuleSetRepositoryIface 接口 (编译时检查)
var _ RuleSetRepositoryIface = (*ruleSetRepoImpl)(nil)

func NewRuleRepoConfig(c *configs.Config) *configs.RuleRepoConfig {
	return &c.RuleRepoConfig
}

func NewRuleSetRepoImpl(dbStorage storage.RuleSetStorageIface, cache storage.RuleSetCacheIface, source storage.RuleSetSourceIface, config *configs.RuleRepoConfig) (RuleSetRepositoryIface, error) {
	taskPool, err := ants.NewPool(config.CacheFillPoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create ants pool: %w", err)
	}
	return &ruleSetRepoImpl{
		dbStorage: dbStorage,
		cache:     cache,
		source:    source,
		config:    config,
		taskPool:  taskPool,
	}, nil
}

// GetRuleSet 先查缓存, 未命中查数据库, 数据库没有再从上游拉取并落库
func (r *ruleSetRepoImpl) GetRuleSet(ctx context.Context, name string) (*model.RuleSet, error) {
	set, err := r.cache.GetRuleSetFromCache(ctx, name)
	if err == nil {
		utils.GetLogger().Debugf("rule set found in cache: %s", name)
		return set, nil
	}
	if !errors.Is(err, storage.ErrCacheMiss) {
		utils.GetLogger().Warnf("rule set cache read failed: %v", err)
	}

	// 使用 singleflight 防止缓存击穿
	data, err, _ := r.sfGroup.Do("get_rule_set_"+name, func() (interface{}, error) {
		set, err := r.dbStorage.GetRuleSet(ctx, name)
		switch {
		case err == nil:
		case errors.Is(err, storage.ErrRuleSetNotFound):
			utils.GetLogger().Debugf("rule set %s not in db, fetching from source", name)
			if set, err = r.fetchAndSave(ctx, name); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("failed to get rule set from db: %w", err)
		}
		r.fillCacheAsync(ctx, set)
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return data.(*model.RuleSet), nil
}

// RefreshRuleSet 忽略缓存与数据库, 直接从上游拉取
func (r *ruleSetRepoImpl) RefreshRuleSet(ctx context.Context, name string) (*model.RuleSet, error) {
	data, err, _ := r.sfGroup.Do("refresh_rule_set_"+name, func() (interface{}, error) {
		set, err := r.fetchAndSave(ctx, name)
		if err != nil {
			return nil, err
		}
		r.fillCacheAsync(ctx, set)
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return data.(*model.RuleSet), nil
}

func (r *ruleSetRepoImpl) fetchAndSave(ctx context.Context, name string) (*model.RuleSet, error) {
	set, err := r.source.FetchRuleSet(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rule set from source: %w", err)
	}
	if err := r.saveToDB(ctx, set); err != nil {
		// 上游数据仍然可用, 只记录落库失败
		utils.GetLogger().Warnf("%v", err)
	}
	return set, nil
}

func (r *ruleSetRepoImpl) saveToDB(ctx context.Context, set *model.RuleSet) error {
	err := retry.Do(
		func() error {
			return r.dbStorage.SaveRuleSet(ctx, set)
		},
		retry.Context(ctx),
		retry.Attempts(uint(max(r.config.SaveDBRetryCount, 1))),
		retry.Delay(r.config.SaveDBRetryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save rule set %s to db: %w", set.Name, err)
	}
	return nil
}

// fillCacheAsync 异步回填缓存, 不受请求 ctx 取消影响
func (r *ruleSetRepoImpl) fillCacheAsync(ctx context.Context, set *model.RuleSet) {
	ctx = context.WithoutCancel(ctx)
	if err := r.taskPool.Submit(func() {
		err := retry.Do(
			func() error {
				return r.cache.SetRuleSetToCache(ctx, set)
			},
			retry.Attempts(uint(max(r.config.CacheRetryCount, 1))),
			retry.Delay(r.config.CacheRetryDelay),
			retry.LastErrorOnly(true),
		)
		if err != nil {
			utils.GetLogger().Warnf("async cache fill for %s failed: %v", set.Name, err)
		}
	}); err != nil {
		utils.GetLogger().Warnf("failed to submit cache fill task: %v", err)
	}
}

// SaveRuleSet 保存规则集 (数据库为准), 同步刷新缓存
func (r *ruleSetRepoImpl) SaveRuleSet(ctx context.Context, set *model.RuleSet) error {
	_, err, _ := r.sfGroup.Do("save_rule_set_"+set.Name, func() (interface{}, error) {
		if err := r.saveToDB(ctx, set); err != nil {
			return nil, err
		}
		err := retry.Do(
			func() error {
				return r.cache.SetRuleSetToCache(ctx, set)
			},
			retry.Context(ctx),
			retry.Attempts(uint(max(r.config.CacheRetryCount, 1))),
			retry.Delay(r.config.CacheRetryDelay),
			retry.LastErrorOnly(true),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to set rule set cache: %w", err)
		}
		return nil, nil
	})
	return err
}

// DeleteRuleSet 删除规则集及其缓存
func (r *ruleSetRepoImpl) DeleteRuleSet(ctx context.Context, name string) error {
	_, err, _ := r.sfGroup.Do("delete_rule_set_"+name, func() (interface{}, error) {
		if err := r.dbStorage.DeleteRuleSet(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to delete rule set from db: %w", err)
		}
		err := retry.Do(
			func() error {
				return r.cache.DeleteRuleSetFromCache(ctx, name)
			},
			retry.Context(ctx),
			retry.Attempts(uint(max(r.config.CacheRetryCount, 1))),
			retry.Delay(r.config.CacheRetryDelay),
			retry.LastErrorOnly(true),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to delete rule set cache: %w", err)
		}
		return nil, nil
	})
	return err
}

// ListRuleSetNames 上游 list.json 优先, 不可用时退回数据库中已有的规则集
func (r *ruleSetRepoImpl) ListRuleSetNames(ctx context.Context) ([]string, error) {
	data, err, _ := r.sfGroup.Do("list_rule_sets", func() (interface{}, error) {
		names, err := r.source.ListNames(ctx)
		if err == nil {
			return names, nil
		}
		utils.GetLogger().Warnf("rule list unavailable from source, using db: %v", err)

		sets, dbErr := r.dbStorage.ListRuleSets(ctx)
		if dbErr != nil {
			return nil, fmt.Errorf("failed to list rule sets: %w", errors.Join(err, dbErr))
		}
		names = make([]string, 0, len(sets))
		for _, set := range sets {
			names = append(names, set.Name)
		}
		return names, nil
	})
	if err != nil {
		return nil, err
	}
	return data.([]string), nil
}

// Close 等待并释放异步任务池
func (r *ruleSetRepoImpl) Close() {
	if err := r.taskPool.ReleaseTimeout(closeTimeout); err != nil {
		utils.GetLogger().Warnf("cache fill tasks still running on close: %v", err)
	}
}
