package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleValidate(t *testing.T) {
	none := Capabilities{}
	all := Capabilities{FetchEnabled: true, LambdaEnabled: true}

	tests := []struct {
		name  string
		raw   string
		caps  Capabilities
		valid bool
	}{
		{name: "blacklist", raw: `{"mode":"black","params":["a"],"description":"d","author":"a"}`, caps: none, valid: true},
		{name: "whitelist alias", raw: `{"mode":"whitelist","params":[],"description":"d","author":"a"}`, caps: none, valid: true},
		{name: "missing author", raw: `{"mode":"black","params":["a"],"description":"d"}`, caps: none, valid: false},
		{name: "missing params", raw: `{"mode":"black","description":"d","author":"a"}`, caps: none, valid: false},
		{name: "unknown mode", raw: `{"mode":"teleport","description":"d","author":"a"}`, caps: all, valid: false},
		{name: "wrong field type", raw: `{"mode":"param","params":"u","description":"d","author":"a"}`, caps: none, valid: false},
		{name: "continue not bool", raw: `{"mode":"param","params":["u"],"continue":"yes","description":"d","author":"a"}`, caps: none, valid: false},
		{name: "regex pairs", raw: `{"mode":"regex","regex":["a","b"],"replace":["c","d"],"description":"d","author":"a"}`, caps: none, valid: true},
		{name: "regex length mismatch", raw: `{"mode":"regex","regex":["a","b"],"replace":["c"],"description":"d","author":"a"}`, caps: none, valid: false},
		{name: "redirect disabled", raw: `{"mode":"redirect","description":"d","author":"a"}`, caps: none, valid: false},
		{name: "redirect enabled", raw: `{"mode":"redirect","ua":"bot","description":"d","author":"a"}`, caps: all, valid: true},
		{name: "visit enabled", raw: `{"mode":"visit","acts":["dom"],"description":"d","author":"a"}`, caps: all, valid: true},
		{name: "headers not object", raw: `{"mode":"visit","headers":[1],"description":"d","author":"a"}`, caps: all, valid: false},
		{name: "lambda disabled", raw: `{"mode":"lambda","lambda":"url","description":"d","author":"a"}`, caps: Capabilities{FetchEnabled: true}, valid: false},
		{name: "lambda enabled", raw: `{"mode":"lambda","lambda":"url","description":"d","author":"a"}`, caps: all, valid: true},
		{name: "lambda without source", raw: `{"mode":"lambda","description":"d","author":"a"}`, caps: all, valid: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := decodeRule([]byte(tt.raw))
			assert.Equal(t, tt.valid, IsValid(r, tt.caps), "%v", r.Validate(tt.caps))
		})
	}
}

func TestRuleValidateBuiltInCode(t *testing.T) {
	caps := Capabilities{LambdaEnabled: true}

	assert.False(t, IsValid(nil, caps))
	assert.False(t, IsValid(&Rule{Mode: ModeBlacklist, Description: "d", Author: "a"}, caps))
	assert.True(t, IsValid(NewRule("d", "a", &LambdaSpec{Source: "url"}), caps))

	mismatched := NewRule("d", "a", &BlacklistSpec{Params: []string{"x"}})
	mismatched.Mode = ModeWhitelist
	assert.False(t, IsValid(mismatched, caps))
}

func TestModeDefaults(t *testing.T) {
	assert.Equal(t, ModeWhitelist, ParseMode("Whitelist"))
	assert.Equal(t, ModeBlacklist, ParseMode("black"))
	assert.False(t, ParseMode("teleport").IsValid())

	assert.False(t, NewRule("d", "a", &BlacklistSpec{}).ShouldContinue())
	assert.True(t, NewRule("d", "a", &RegexSpec{}).ShouldContinue())
	assert.False(t, NewRule("d", "a", &RegexSpec{}).WithContinue(false).ShouldContinue())
	assert.True(t, ModeVisit.NeedsFetch())
}
