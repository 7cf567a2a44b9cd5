package configs

import (
	"time"

	model "go_purlfy/internal/domain/model/purify_rule"
)

// EngineConfig 净化引擎配置
type EngineConfig struct {
	FetchEnabled    bool             `yaml:"fetchEnabled"`
	RedirectEnabled bool             `yaml:"redirectEnabled"` // fetchEnabled 的旧名
	LambdaEnabled   bool             `yaml:"lambdaEnabled"`
	MaxIterations   int              `yaml:"maxIterations"`
	BaseURL         string           `yaml:"baseURL"`
	Statistics      model.Statistics `yaml:"statistics"` // 初始计数
}

// Fetch reports whether redirect and visit rules may run.
func (c *EngineConfig) Fetch() bool {
	return c.FetchEnabled || c.RedirectEnabled
}

// FetchConfig HTTP 请求配置 (redirect / visit / 远端规则)
type FetchConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"userAgent"`
	RetryCount   int           `yaml:"retryCount"`
	RetryDelay   time.Duration `yaml:"retryDelay"`
	MaxBodyBytes int64         `yaml:"maxBodyBytes"`
}

// LogConfig 日志配置, file 为空时只输出到 stderr
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"maxSize"` // MB
	MaxBackups int    `yaml:"maxBackups"`
	MaxAge     int    `yaml:"maxAge"` // days
	Compress   bool   `yaml:"compress"`
}
