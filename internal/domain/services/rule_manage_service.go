package services

import (
	"context"
	"fmt"

	model "go_purlfy/internal/domain/model/purify_rule"
	"go_purlfy/internal/infra/repo"
	"go_purlfy/utils"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentLoads 同时拉取的规则集数量上限
const maxConcurrentLoads = 4

type RuleManageService struct {
	ruleRepo repo.RuleSetRepositoryIface
	purifier *Purifier
}

func NewRuleManageService(ruleRepo repo.RuleSetRepositoryIface, purifier *Purifier) *RuleManageService {
	return &RuleManageService{
		ruleRepo: ruleRepo,
		purifier: purifier,
	}
}

// LoadRuleSets 并发获取规则集, 按 names 的顺序导入 (后者覆盖前者).
// names 为空时加载 list.json 中的全部规则集.
func (s *RuleManageService) LoadRuleSets(ctx context.Context, names []string) ([]string, error) {
	trees, names, err := s.fetchTrees(ctx, names, false)
	if err != nil {
		return nil, err
	}
	s.purifier.ImportRules(trees...)
	utils.GetLogger().Infof("imported %d rule sets, %d rules loaded", len(names), s.purifier.RuleCount())
	return names, nil
}

// ReloadRuleSets 清空已导入的规则后重新加载; refresh 时绕过缓存直接访问上游
func (s *RuleManageService) ReloadRuleSets(ctx context.Context, names []string, refresh bool) ([]string, error) {
	trees, names, err := s.fetchTrees(ctx, names, refresh)
	if err != nil {
		return nil, err
	}
	s.purifier.ClearRules()
	s.purifier.ImportRules(trees...)
	return names, nil
}

func (s *RuleManageService) fetchTrees(ctx context.Context, names []string, refresh bool) ([]*model.RuleTree, []string, error) {
	if len(names) == 0 {
		var err error
		if names, err = s.ruleRepo.ListRuleSetNames(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to list rule sets: %w", err)
		}
	}

	trees := make([]*model.RuleTree, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)
	for i, name := range names {
		g.Go(func() error {
			get := s.ruleRepo.GetRuleSet
			if refresh {
				get = s.ruleRepo.RefreshRuleSet
			}
			set, err := get(gctx, name)
			if err != nil {
				return fmt.Errorf("rule set %s: %w", name, err)
			}
			tree, err := set.Tree()
			if err != nil {
				return fmt.Errorf("rule set %s: %w", name, err)
			}
			trees[i] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return trees, names, nil
}

// SaveRuleSet 校验并保存规则集, 同时导入当前引擎
func (s *RuleManageService) SaveRuleSet(ctx context.Context, name string, content []byte) error {
	set, err := model.NewRuleSet(name, content, model.RuleSetSourceAPI)
	if err != nil {
		return fmt.Errorf("rule set validation failed: %w", err)
	}
	tree, err := set.Tree()
	if err != nil {
		return fmt.Errorf("rule set validation failed: %w", err)
	}

	if err := s.ruleRepo.SaveRuleSet(ctx, set); err != nil {
		return fmt.Errorf("failed to save rule set to repository: %w", err)
	}
	s.purifier.ImportRules(tree)
	return nil
}

// DeleteRuleSet 删除存储中的规则集; 已导入的规则需 ReloadRuleSets 才会移除
func (s *RuleManageService) DeleteRuleSet(ctx context.Context, name string) error {
	if err := model.ValidateRuleSetName(name); err != nil {
		return err
	}
	if err := s.ruleRepo.DeleteRuleSet(ctx, name); err != nil {
		return fmt.Errorf("failed to delete rule set: %w", err)
	}
	return nil
}

func (s *RuleManageService) ListRuleSetNames(ctx context.Context) ([]string, error) {
	return s.ruleRepo.ListRuleSetNames(ctx)
}
