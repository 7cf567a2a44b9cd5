package repo

import (
	"context"

	model "go_purlfy/internal/domain/model/purify_rule"
)

// RuleSetRepositoryIface 规则集仓库: 缓存 -> 数据库 -> 上游
type RuleSetRepositoryIface interface {
	GetRuleSet(ctx context.Context, name string) (*model.RuleSet, error)
	RefreshRuleSet(ctx context.Context, name string) (*model.RuleSet, error)
	SaveRuleSet(ctx context.Context, set *model.RuleSet) error
	DeleteRuleSet(ctx context.Context, name string) error
	ListRuleSetNames(ctx context.Context) ([]string, error)
	Close()
}
