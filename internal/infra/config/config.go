package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath 配置文件路径, 单独成型便于 wire 注入
type ConfigPath string

const (
	configPathEnv     = "PURLFY_CONFIG_PATH"
	defaultConfigPath = "purlfy.yaml"
)

// Config purlfy 配置
type Config struct {
	Engine               EngineConfig         `yaml:"engine"`
	Log                  LogConfig            `yaml:"log"`
	Fetch                FetchConfig          `yaml:"fetch"`
	Rules                RulesConfig          `yaml:"rules"`
	DatabaseConfig       DatabaseConfig       `yaml:"database"`
	DatabaseOptionConfig DatabaseOptionConfig `yaml:"databaseConfig"`
	RedisConfig          RedisConfig          `yaml:"redis"`
	RuleRepoConfig       RuleRepoConfig       `yaml:"ruleRepo"`
}

// Default 默认配置, 配置文件只需覆盖差异部分
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxIterations: 5,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		},
		Fetch: FetchConfig{
			Timeout:      10 * time.Second,
			RetryCount:   3,
			RetryDelay:   200 * time.Millisecond,
			MaxBodyBytes: 4 << 20,
		},
		Rules: RulesConfig{
			Dir: "rules",
		},
		DatabaseOptionConfig: DatabaseOptionConfig{
			MaxIdleConns:    5,
			MaxOpenConns:    10,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 10 * time.Minute,
			LogLevel:        "warn",
			SlowThreshold:   200 * time.Millisecond,
		},
		RedisConfig: RedisConfig{
			Port:        6379,
			PoolSize:    10,
			DialTimeout: 5 * time.Second,
		},
		RuleRepoConfig: RuleRepoConfig{
			CacheRetryCount:   3,
			CacheRetryDelay:   100 * time.Millisecond,
			SaveDBRetryCount:  3,
			SaveDBRetryDelay:  100 * time.Millisecond,
			CacheFillPoolSize: 4,
			CacheTTL:          time.Hour,
		},
	}
}

// LoadConfig 加载配置; 文件不存在时返回默认配置
func LoadConfig(path ConfigPath) (*Config, error) {
	// 1. 确定配置文件路径
	configPath := getConfigPath(path)

	// 2. 读取配置文件
	config := Default()
	configFile, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return config, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 3. 解析配置
	if err := yaml.Unmarshal(configFile, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// 4. 验证配置
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// getConfigPath 获取配置文件路径
func getConfigPath(path ConfigPath) string {
	if path != "" {
		return string(path)
	}
	// 其次使用环境变量
	if env := os.Getenv(configPathEnv); env != "" {
		return env
	}
	return defaultConfigPath
}

// validate 验证配置
func (c *Config) validate() error {
	if c.Engine.MaxIterations <= 0 {
		return fmt.Errorf("engine.maxIterations must be positive")
	}
	if c.Fetch.Timeout < 0 {
		return fmt.Errorf("fetch.timeout must not be negative")
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return fmt.Errorf("fetch.maxBodyBytes must be positive")
	}

	// 验证数据库配置
	db := c.DatabaseConfig
	switch db.Driver {
	case "":
	case DriverSQLite:
		if db.Path == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	case DriverMySQL:
		if db.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if db.Port == 0 {
			return fmt.Errorf("database port is required")
		}
		if db.Username == "" {
			return fmt.Errorf("database username is required")
		}
		if db.Database == "" {
			return fmt.Errorf("database name is required")
		}
	default:
		return fmt.Errorf("unknown database driver %q", db.Driver)
	}

	// 验证数据库连接池配置
	dbConfig := c.DatabaseOptionConfig
	if dbConfig.MaxIdleConns <= 0 {
		return fmt.Errorf("maxIdleConns must be positive")
	}
	if dbConfig.MaxOpenConns <= 0 {
		return fmt.Errorf("maxOpenConns must be positive")
	}
	if dbConfig.MaxOpenConns < dbConfig.MaxIdleConns {
		return fmt.Errorf("maxOpenConns must be greater than or equal to maxIdleConns")
	}

	if c.RuleRepoConfig.CacheFillPoolSize <= 0 {
		return fmt.Errorf("ruleRepo.cacheFillPoolSize must be positive")
	}
	return nil
}
