package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	model "go_purlfy/internal/domain/model/purify_rule"
	configs "go_purlfy/internal/infra/config"
	"go_purlfy/utils"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const memoryDSN = ":memory:"

type dbRuleSetStorage struct {
	db *gorm.DB
}

// NewGormDB 按配置打开 mysql 或 sqlite; 未配置数据库时使用内存 sqlite
func NewGormDB(c *configs.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	dsn := c.DatabaseConfig.GetDSN()
	switch c.DatabaseConfig.Driver {
	case configs.DriverMySQL:
		dialector = mysql.Open(dsn)
	case configs.DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		dsn = memoryDSN
		dialector = sqlite.Open(dsn)
	}

	opt := c.DatabaseOptionConfig
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(utils.GetLogger(), logger.Config{
			SlowThreshold:             opt.SlowThreshold,
			LogLevel:                  gormLogLevel(opt.LogLevel),
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(opt.MaxIdleConns)
	sqlDB.SetMaxOpenConns(opt.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(opt.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(opt.ConnMaxIdleTime)
	if strings.Contains(dsn, memoryDSN) {
		// 每个连接都是独立的内存库
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&model.RuleSet{}); err != nil {
		return nil, fmt.Errorf("failed to migrate rule sets: %w", err)
	}
	return db, nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func NewRuleSetStorage(db *gorm.DB) RuleSetStorageIface {
	return &dbRuleSetStorage{db: db}
}

var _ RuleSetStorageIface = (*dbRuleSetStorage)(nil)

// SaveRuleSet 按 name upsert
func (s *dbRuleSetStorage) SaveRuleSet(ctx context.Context, set *model.RuleSet) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(set).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to save rule set %s: %w", set.Name, err)
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *dbRuleSetStorage) GetRuleSet(ctx context.Context, name string) (*model.RuleSet, error) {
	set := &model.RuleSet{}
	if err := s.db.WithContext(ctx).First(set, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRuleSetNotFound
		}
		return nil, fmt.Errorf("failed to get rule set %s: %w", name, err)
	}
	return set, nil
}

func (s *dbRuleSetStorage) DeleteRuleSet(ctx context.Context, name string) error {
	result := s.db.WithContext(ctx).Delete(&model.RuleSet{}, "name = ?", name)
	if result.Error != nil {
		return fmt.Errorf("failed to delete rule set %s: %w", name, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRuleSetNotFound
	}
	return nil
}

func (s *dbRuleSetStorage) ListRuleSets(ctx context.Context) ([]*model.RuleSet, error) {
	var sets []*model.RuleSet
	if err := s.db.WithContext(ctx).Order("name").Find(&sets).Error; err != nil {
		return nil, fmt.Errorf("failed to list rule sets: %w", err)
	}
	return sets, nil
}
