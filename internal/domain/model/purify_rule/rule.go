package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/expr-lang/expr/vm"
)

// ModeSpec is the mode-specific half of a rule. The set of implementations
// is closed: every ModeSpec lives in this file.
type ModeSpec interface {
	Mode() Mode
	validate(caps Capabilities) error
}

// Rule is a single declarative instruction for transforming a URL.
type Rule struct {
	Mode        Mode     `json:"mode" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Author      string   `json:"author" validate:"required"`
	Continue    *bool    `json:"continue,omitempty"`
	Spec        ModeSpec `json:"-" validate:"-"`

	decodeErr error
}

// WhitelistSpec keeps only the listed query parameters.
type WhitelistSpec struct {
	Params []string `json:"params" validate:"required"`
	Std    bool     `json:"std,omitempty"` // 允许非标准 query 编码
}

// BlacklistSpec removes the listed query parameters.
type BlacklistSpec struct {
	Params []string `json:"params" validate:"required"`
	Std    bool     `json:"std,omitempty"`
}

// ParamSpec extracts the first present parameter and decodes it with Acts.
// A nil Acts means ["url"]; an empty, non-nil Acts means no decoding at all.
type ParamSpec struct {
	Params []string `json:"params" validate:"required"`
	Acts   []string `json:"acts,omitempty"`
}

// RegexSpec rewrites the full href with Regex[i] -> Replace[i], in order.
type RegexSpec struct {
	Regex   []string `json:"regex" validate:"required"`
	Replace []string `json:"replace" validate:"required"`
}

// RedirectSpec follows one HTTP redirect hop.
type RedirectSpec struct {
	UA      string            `json:"ua,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// VisitSpec fetches the URL and extracts the destination from the body.
type VisitSpec struct {
	UA      string            `json:"ua,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Acts    []string          `json:"acts,omitempty"`
}

// LambdaSpec runs a restricted expression against the current URL.
// Source is compiled on first use and the program is kept on the spec.
// Func, when set, is used as-is.
type LambdaSpec struct {
	Source string     `json:"lambda"`
	Func   LambdaFunc `json:"-" validate:"-"`

	mu      sync.Mutex
	program *vm.Program
}

func (*WhitelistSpec) Mode() Mode { return ModeWhitelist }
func (*BlacklistSpec) Mode() Mode { return ModeBlacklist }
func (*ParamSpec) Mode() Mode     { return ModeParam }
func (*RegexSpec) Mode() Mode     { return ModeRegex }
func (*RedirectSpec) Mode() Mode  { return ModeRedirect }
func (*VisitSpec) Mode() Mode     { return ModeVisit }
func (*LambdaSpec) Mode() Mode    { return ModeLambda }

var specRegistry = make(map[Mode]func() ModeSpec)

// RegisterSpec binds a mode to the factory used when decoding rules.
func RegisterSpec(m Mode, factory func() ModeSpec) {
	specRegistry[m] = factory
}

// 初始化时注册
func init() {
	RegisterSpec(ModeWhitelist, func() ModeSpec { return &WhitelistSpec{} })
	RegisterSpec(ModeBlacklist, func() ModeSpec { return &BlacklistSpec{} })
	RegisterSpec(ModeParam, func() ModeSpec { return &ParamSpec{} })
	RegisterSpec(ModeRegex, func() ModeSpec { return &RegexSpec{} })
	RegisterSpec(ModeRedirect, func() ModeSpec { return &RedirectSpec{} })
	RegisterSpec(ModeVisit, func() ModeSpec { return &VisitSpec{} })
	RegisterSpec(ModeLambda, func() ModeSpec { return &LambdaSpec{} })
}

// NewRule builds a rule around spec; the mode is taken from the spec.
func NewRule(description, author string, spec ModeSpec) *Rule {
	r := &Rule{Description: description, Author: author, Spec: spec}
	if spec != nil {
		r.Mode = spec.Mode()
	}
	return r
}

// WithContinue overrides the mode's default continuation.
func (r *Rule) WithContinue(c bool) *Rule {
	r.Continue = &c
	return r
}

// ShouldContinue resolves "continue" against the mode default.
func (r *Rule) ShouldContinue() bool {
	if r.Continue != nil {
		return *r.Continue
	}
	return r.Mode.ContinuesByDefault()
}

// Label is the human-readable description returned by purify.
func (r *Rule) Label() string {
	return fmt.Sprintf("%s by %s", r.Description, r.Author)
}

// DecodeErr is the error met while decoding the rule, if any.
func (r *Rule) DecodeErr() error {
	return r.decodeErr
}

// 自定义 JSON 反序列化: 先读公共字段, 再按 mode 解析具体配置
func (r *Rule) UnmarshalJSON(data []byte) error {
	type Alias struct {
		Mode        string `json:"mode"`
		Description string `json:"description"`
		Author      string `json:"author"`
		Continue    *bool  `json:"continue"`
	}

	var head Alias
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	r.Mode = ParseMode(head.Mode)
	r.Description = head.Description
	r.Author = head.Author
	r.Continue = head.Continue

	factory, ok := specRegistry[r.Mode]
	if !ok {
		return fmt.Errorf("unknown mode %q", head.Mode)
	}
	spec := factory()
	if err := json.Unmarshal(data, spec); err != nil {
		return fmt.Errorf("invalid %s rule: %w", r.Mode, err)
	}
	r.Spec = spec
	return nil
}

// 自定义 JSON 序列化: 公共字段与具体配置平铺在同一个对象里
func (r *Rule) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any)
	if r.Spec != nil {
		raw, err := json.Marshal(r.Spec)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
	}
	fields["mode"] = r.Mode
	fields["description"] = r.Description
	fields["author"] = r.Author
	if r.Continue != nil {
		fields["continue"] = *r.Continue
	}
	return json.Marshal(fields)
}

// decodeRule never fails: a broken rule is kept with its error so that
// matching can treat it as absent.
func decodeRule(raw []byte) *Rule {
	r := &Rule{}
	if err := json.Unmarshal(raw, r); err != nil {
		r.decodeErr = err
	}
	if r.decodeErr == nil && r.Spec == nil {
		r.decodeErr = errors.New("rule has no mode configuration")
	}
	return r
}
