package model

import "fmt"

// Match finds the single best rule for segments (see Segments).
//
// Per level: a literal "seg/" key descends; a literal "seg" key is a leaf
// that wins if valid and otherwise ends the walk; only when neither literal
// exists are regex keys tried, first match wins. The deepest "" fallback
// seen on the way is used when nothing more specific is found.
func (t *RuleTree) Match(segments []string, caps Capabilities, sink Sink) *Rule {
	if sink == nil {
		sink = NopSink
	}
	var fallback *Rule
	cur := t
	for _, seg := range segments {
		if n, ok := cur.nodes[""]; ok {
			fallback = n.Rule
		}
		if n, ok := cur.nodes[seg+"/"]; ok && n.Sub != nil {
			cur = n.Sub
			continue
		}
		if n, ok := cur.nodes[seg]; ok {
			if IsValid(n.Rule, caps) {
				return n.Rule
			}
			break
		}
		sub, rule := cur.matchRegexKeys(seg, caps, sink)
		if rule != nil {
			return rule
		}
		if sub == nil {
			break
		}
		cur = sub
	}
	if n, ok := cur.nodes[""]; ok {
		fallback = n.Rule
	}
	if fallback != nil && IsValid(fallback, caps) {
		return fallback
	}
	return nil
}

// matchRegexKeys tests seg against the regex keys of one level. It returns
// either the subtree to descend into, or a valid leaf rule, or neither.
func (t *RuleTree) matchRegexKeys(seg string, caps Capabilities, sink Sink) (*RuleTree, *Rule) {
	for _, key := range t.keys {
		n := t.nodes[key]
		if key == "" || key[0] != '/' {
			continue
		}
		if n.patternErr != nil {
			sink(fmt.Sprintf("Invalid regex: %s (%v)", key[1:], n.patternErr))
			continue
		}
		if n.pattern == nil {
			continue
		}
		ok, err := n.pattern.MatchString(seg)
		if err != nil {
			sink(fmt.Sprintf("Regex %s failed on %q: %v", key[1:], seg, err))
			continue
		}
		if !ok {
			continue
		}
		if n.Sub != nil {
			return n.Sub, nil
		}
		if IsValid(n.Rule, caps) {
			return nil, n.Rule
		}
	}
	return nil, nil
}
