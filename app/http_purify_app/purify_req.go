package http_purify_app

import (
	"encoding/json"
	"fmt"

	model "go_purlfy/internal/domain/model/purify_rule"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// PurifyRequest /purify 请求
type PurifyRequest struct {
	URL string `json:"url" validate:"required,max=8192"`
}

func (req *PurifyRequest) Validate() error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// SaveRuleSetRequest 上传规则集, Rules 为完整的规则 JSON 文档
type SaveRuleSetRequest struct {
	Name  string          `json:"name" validate:"required,min=1,max=128"`
	Rules json.RawMessage `json:"rules" validate:"required"`
}

func (req *SaveRuleSetRequest) Validate() error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	if err := model.ValidateRuleSetName(req.Name); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	// 规则内容在 service 层解析, 这里只挡掉非对象
	if _, err := model.ParseRuleTree(req.Rules); err != nil {
		return fmt.Errorf("invalid rules: %w", err)
	}
	return nil
}

// ReloadRuleSetsRequest 重新加载规则集; Names 为空时加载全部
type ReloadRuleSetsRequest struct {
	Names   []string `json:"names" validate:"omitempty,dive,required,max=128"`
	Refresh bool     `json:"refresh"`
}

func (req *ReloadRuleSetsRequest) Validate() error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	for _, name := range req.Names {
		if err := model.ValidateRuleSetName(name); err != nil {
			return fmt.Errorf("invalid request: %w", err)
		}
	}
	return nil
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type RuleSetsResponse struct {
	Names []string `json:"names"`
}

// StatisticsResponse 统计数据及已加载规则数
type StatisticsResponse struct {
	model.Statistics
	Rules int `json:"rules"`
}
