package main

import (
	"context"
	"strings"

	"go_purlfy/internal/domain/services"
	configs "go_purlfy/internal/infra/config"
	"go_purlfy/internal/infra/repo"
	"go_purlfy/utils"
)

// cliOptions 命令行参数, 非零值覆盖配置文件
type cliOptions struct {
	configPath    string
	rules         string
	rulesDir      string
	remoteBase    string
	fetch         bool
	fetchSet      bool
	lambda        bool
	lambdaSet     bool
	maxIterations int
	baseURL       string
	verbose       bool
	jsonOutput    bool
}

// newConfig 加载配置文件并应用命令行覆盖, 同时初始化日志
func newConfig(o *cliOptions) (*configs.Config, error) {
	c, err := configs.LoadConfig(configs.ConfigPath(o.configPath))
	if err != nil {
		return nil, err
	}
	if o.fetchSet {
		c.Engine.FetchEnabled = o.fetch
		c.Engine.RedirectEnabled = false
	}
	if o.lambdaSet {
		c.Engine.LambdaEnabled = o.lambda
	}
	if o.maxIterations > 0 {
		c.Engine.MaxIterations = o.maxIterations
	}
	if o.baseURL != "" {
		c.Engine.BaseURL = o.baseURL
	}
	if o.rulesDir != "" {
		c.Rules.Dir = o.rulesDir
	}
	if o.remoteBase != "" {
		c.Rules.RemoteBase = o.remoteBase
	}
	if names := splitNames(o.rules); len(names) > 0 {
		c.Rules.Enabled = names
	}
	if o.verbose {
		c.Log.Level = "debug"
	}
	if err := utils.InitLogger(c.Log); err != nil {
		return nil, err
	}
	return c, nil
}

func splitNames(s string) []string {
	var names []string
	for _, n := range strings.Split(s, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// App 一次命令执行所需的全部组件
type App struct {
	Config   *configs.Config
	Purifier *services.Purifier
	Rules    *services.RuleManageService
	repo     repo.RuleSetRepositoryIface
}

func NewApp(c *configs.Config, purifier *services.Purifier, rules *services.RuleManageService, ruleRepo repo.RuleSetRepositoryIface) *App {
	return &App{
		Config:   c,
		Purifier: purifier,
		Rules:    rules,
		repo:     ruleRepo,
	}
}

// LoadRules 导入配置中启用的规则集, 为空时导入 list.json 中的全部
func (a *App) LoadRules(ctx context.Context) ([]string, error) {
	return a.Rules.LoadRuleSets(ctx, a.Config.Rules.Enabled)
}

func (a *App) Close() {
	a.repo.Close()
}
