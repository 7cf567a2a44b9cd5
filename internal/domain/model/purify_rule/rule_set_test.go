package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRuleSet(t *testing.T) {
	content := []byte(`{"example.com": {"mode": "black", "params": ["utm_source"], "description": "d", "author": "a"}}`)

	set, err := NewRuleSet("tracking", content, RuleSetSourceFile)
	require.NoError(t, err)
	assert.Equal(t, "tracking", set.Name)
	assert.Len(t, set.Checksum, 64)

	tree, err := set.Tree()
	require.NoError(t, err)
	assert.Equal(t, 1, tree.CountRules())

	again, err := NewRuleSet("tracking", content, RuleSetSourceAPI)
	require.NoError(t, err)
	assert.Equal(t, set.Checksum, again.Checksum)
}

func TestNewRuleSetRejects(t *testing.T) {
	_, err := NewRuleSet("../etc", []byte(`{}`), RuleSetSourceFile)
	assert.Error(t, err)
	_, err = NewRuleSet("list", []byte(`{}`), RuleSetSourceFile)
	assert.Error(t, err)
	_, err = NewRuleSet("ok", []byte(`["not", "a", "tree"]`), RuleSetSourceFile)
	assert.Error(t, err)
}
