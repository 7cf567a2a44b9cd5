package model

import (
	"errors"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/tidwall/gjson"
)

// RuleTree maps URL path segments to rules or nested trees. Keys keep their
// insertion (document) order, which is the order regex keys are tried in.
//
//	"example.com/"  descend into a subtree
//	"example.com"   leaf rule for that exact segment
//	"/^go\d+$/"     regex key, descend
//	"/^go\d+$"      regex key, leaf
//	""              fallback rule for this level
type RuleTree struct {
	keys  []string
	nodes map[string]*TreeNode
}

// TreeNode is either a leaf rule or a subtree.
type TreeNode struct {
	Key  string
	Rule *Rule
	Sub  *RuleTree

	pattern    *regexp2.Regexp
	patternErr error
}

// NewRuleTree returns an empty tree.
func NewRuleTree() *RuleTree {
	return &RuleTree{nodes: make(map[string]*TreeNode)}
}

// ParseRuleTree decodes a JSON rule document. Malformed rules do not fail the
// document; they are kept and never match.
func ParseRuleTree(data []byte) (*RuleTree, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("rule document is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, errors.New("rule document must be a JSON object")
	}
	return treeFromJSON(root), nil
}

func treeFromJSON(obj gjson.Result) *RuleTree {
	t := NewRuleTree()
	obj.ForEach(func(k, v gjson.Result) bool {
		key := k.String()
		if isSubtreeKey(key) {
			sub := NewRuleTree()
			if v.IsObject() {
				sub = treeFromJSON(v)
			}
			t.SetSubtree(key, sub)
		} else {
			t.SetRule(key, decodeRule([]byte(v.Raw)))
		}
		return true
	})
	return t
}

func isSubtreeKey(key string) bool {
	return strings.HasSuffix(key, "/")
}

// SetRule stores a leaf rule under key, replacing whatever was there.
func (t *RuleTree) SetRule(key string, r *Rule) *RuleTree {
	t.put(&TreeNode{Key: key, Rule: r})
	return t
}

// SetSubtree stores sub under key (which should end with "/").
func (t *RuleTree) SetSubtree(key string, sub *RuleTree) *RuleTree {
	t.put(&TreeNode{Key: key, Sub: sub})
	return t
}

// Subtree returns the subtree at key, creating it when absent.
func (t *RuleTree) Subtree(key string) *RuleTree {
	if n, ok := t.nodes[key]; ok && n.Sub != nil {
		return n.Sub
	}
	sub := NewRuleTree()
	t.SetSubtree(key, sub)
	return sub
}

func (t *RuleTree) put(n *TreeNode) {
	if strings.HasPrefix(n.Key, "/") {
		n.pattern, n.patternErr = compileKeyPattern(n.Key)
	}
	if _, ok := t.nodes[n.Key]; !ok {
		t.keys = append(t.keys, n.Key)
	}
	t.nodes[n.Key] = n
}

// compileKeyPattern strips the leading "/" and the trailing one of a
// descend key. An empty pattern yields (nil, nil): the key is ignored.
func compileKeyPattern(key string) (*regexp2.Regexp, error) {
	p := key[1:]
	if isSubtreeKey(key) && len(p) > 0 {
		p = p[:len(p)-1]
	}
	if p == "" {
		return nil, nil
	}
	return compileRegex(p)
}

// Get returns the node stored at key.
func (t *RuleTree) Get(key string) (*TreeNode, bool) {
	n, ok := t.nodes[key]
	return n, ok
}

// Keys lists the keys in order.
func (t *RuleTree) Keys() []string {
	return append([]string(nil), t.keys...)
}

// Len is the number of keys at this level.
func (t *RuleTree) Len() int {
	return len(t.keys)
}

// Merge deep-merges other into t: subtrees present on both sides are
// merged recursively, anything else from other overwrites t.
func (t *RuleTree) Merge(other *RuleTree) {
	if other == nil {
		return
	}
	for _, key := range other.keys {
		n := other.nodes[key]
		if cur, ok := t.nodes[key]; ok && cur.Sub != nil && n.Sub != nil {
			cur.Sub.Merge(n.Sub)
			continue
		}
		if n.Sub != nil {
			sub := NewRuleTree()
			sub.Merge(n.Sub)
			t.put(&TreeNode{Key: key, Sub: sub})
			continue
		}
		t.put(&TreeNode{Key: key, Rule: n.Rule})
	}
}

// CountRules counts leaf rules in the whole tree.
func (t *RuleTree) CountRules() int {
	total := 0
	for _, key := range t.keys {
		n := t.nodes[key]
		if n.Sub != nil {
			total += n.Sub.CountRules()
		} else if n.Rule != nil {
			total++
		}
	}
	return total
}
