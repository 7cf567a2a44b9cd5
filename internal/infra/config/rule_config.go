package configs

import "time"

// RulesConfig 规则集来源
type RulesConfig struct {
	Dir        string   `yaml:"dir"`        // <name>.json 与 list.json 所在目录
	RemoteBase string   `yaml:"remoteBase"` // 远端 <name>.min.json 前缀, 优先于 dir
	Enabled    []string `yaml:"enabled"`    // 为空时使用 list.json 中的全部规则集
}

// RuleRepoConfig 封装 ruleSetRepoImpl 的配置参数
type RuleRepoConfig struct {
	CacheRetryCount   int           `json:"cacheRetryCount" yaml:"cacheRetryCount"`
	CacheRetryDelay   time.Duration `json:"cacheRetryDelay" yaml:"cacheRetryDelay"`
	SaveDBRetryCount  int           `json:"saveDBRetryCount" yaml:"saveDBRetryCount"`
	SaveDBRetryDelay  time.Duration `json:"saveDBRetryDelay" yaml:"saveDBRetryDelay"`
	CacheFillPoolSize int           `json:"cacheFillPoolSize" yaml:"cacheFillPoolSize"`
	CacheTTL          time.Duration `json:"cacheTTL" yaml:"cacheTTL"`
}
