package iface

import (
	"context"

	model "go_purlfy/internal/domain/model/purify_rule"
	"go_purlfy/internal/domain/services"
)

// PurifyService 净化服务接口
type PurifyService interface {
	// Purify 净化 URL, 只有 ctx 结束时返回 error
	Purify(ctx context.Context, rawURL string) (*services.PurifyResult, error)
	GetStatistics() model.Statistics
	ClearStatistics()
	ClearRules()
	ImportRules(trees ...*model.RuleTree)
	RuleCount() int
	Subscribe(fn func(delta model.Statistics)) (cancel func())
}

// RuleManageService 规则集管理接口
type RuleManageService interface {
	LoadRuleSets(ctx context.Context, names []string) ([]string, error)
	ReloadRuleSets(ctx context.Context, names []string, refresh bool) ([]string, error)
	SaveRuleSet(ctx context.Context, name string, content []byte) error
	DeleteRuleSet(ctx context.Context, name string) error
	ListRuleSetNames(ctx context.Context) ([]string, error)
}

var (
	_ PurifyService     = (*services.Purifier)(nil)
	_ RuleManageService = (*services.RuleManageService)(nil)
)
