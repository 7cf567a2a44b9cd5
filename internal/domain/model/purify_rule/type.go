package model

import "strings"

// Mode is the kind of transformation a rule performs
type Mode string

const (
	ModeWhitelist Mode = "white"    // 只保留列出的参数
	ModeBlacklist Mode = "black"    // 删除列出的参数
	ModeParam     Mode = "param"    // 取参数值作为新 URL
	ModeRegex     Mode = "regex"    // 正则替换整个 URL
	ModeRedirect  Mode = "redirect" // HEAD 请求跟随跳转
	ModeVisit     Mode = "visit"    // GET 请求并从响应体提取
	ModeLambda    Mode = "lambda"   // 执行表达式
)

// ParseMode normalizes the long aliases used by some rule authors.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "whitelist":
		return ModeWhitelist
	case "black", "blacklist":
		return ModeBlacklist
	default:
		return Mode(strings.ToLower(strings.TrimSpace(s)))
	}
}

func (m Mode) IsValid() bool {
	switch m {
	case ModeWhitelist, ModeBlacklist, ModeParam, ModeRegex, ModeRedirect, ModeVisit, ModeLambda:
		return true
	default:
		return false
	}
}

// NeedsFetch reports whether the mode performs network I/O.
func (m Mode) NeedsFetch() bool {
	return m == ModeRedirect || m == ModeVisit
}

// ContinuesByDefault reports the value used when a rule omits "continue".
func (m Mode) ContinuesByDefault() bool {
	switch m {
	case ModeParam, ModeRegex, ModeRedirect, ModeVisit, ModeLambda:
		return true
	default:
		return false
	}
}

func (m Mode) String() string {
	return string(m)
}

// Capabilities gates the modes that reach outside the process.
type Capabilities struct {
	FetchEnabled  bool // redirect / visit
	LambdaEnabled bool // lambda
}

// Sink receives diagnostic lines from the engine.
type Sink func(msg string)

// NopSink drops everything.
func NopSink(string) {}
