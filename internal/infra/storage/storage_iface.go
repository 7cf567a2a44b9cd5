package storage

import (
	"context"
	"errors"

	model "go_purlfy/internal/domain/model/purify_rule"
)

var (
	ErrRuleSetNotFound = errors.New("rule set not found")
	ErrCacheMiss       = errors.New("rule set cache miss")
)

// RuleSetStorageIface 规则集持久化 (mysql / sqlite)
type RuleSetStorageIface interface {
	SaveRuleSet(ctx context.Context, set *model.RuleSet) error
	GetRuleSet(ctx context.Context, name string) (*model.RuleSet, error)
	DeleteRuleSet(ctx context.Context, name string) error
	ListRuleSets(ctx context.Context) ([]*model.RuleSet, error)
}

// RuleSetCacheIface 规则集缓存 (redis / 进程内)
type RuleSetCacheIface interface {
	GetRuleSetFromCache(ctx context.Context, name string) (*model.RuleSet, error)
	SetRuleSetToCache(ctx context.Context, set *model.RuleSet) error
	DeleteRuleSetFromCache(ctx context.Context, name string) error
}

// RuleSetSourceIface 规则集上游 (本地目录 / 远端发布地址)
type RuleSetSourceIface interface {
	ListNames(ctx context.Context) ([]string, error)
	FetchRuleSet(ctx context.Context, name string) (*model.RuleSet, error)
}

// RemoteGetter 读取远端文档
type RemoteGetter interface {
	GetBytes(ctx context.Context, url string) ([]byte, error)
}
