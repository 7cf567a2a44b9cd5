package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"time"
)

const (
	RuleSetSourceFile   = "file"
	RuleSetSourceRemote = "remote"
	RuleSetSourceAPI    = "api"
)

var ruleSetNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,127}$`)

// RuleSet is one named rule document as distributed: <name>.json on disk,
// <name>.min.json remotely.
type RuleSet struct {
	Name      string    `gorm:"primaryKey;size:128" json:"name"`
	Content   string    `gorm:"type:longtext;not null" json:"content"`
	Checksum  string    `gorm:"size:64;not null" json:"checksum"`
	Source    string    `gorm:"size:16;not null" json:"source"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (RuleSet) TableName() string {
	return "purlfy_rule_sets"
}

// NewRuleSet checks that content is a rule document before wrapping it.
func NewRuleSet(name string, content []byte, source string) (*RuleSet, error) {
	if err := ValidateRuleSetName(name); err != nil {
		return nil, err
	}
	if _, err := ParseRuleTree(content); err != nil {
		return nil, fmt.Errorf("rule set %s: %w", name, err)
	}
	sum := sha256.Sum256(content)
	return &RuleSet{
		Name:     name,
		Content:  string(content),
		Checksum: hex.EncodeToString(sum[:]),
		Source:   source,
	}, nil
}

// ValidateRuleSetName rejects names that could escape a rules directory or
// URL prefix.
func ValidateRuleSetName(name string) error {
	if !ruleSetNamePattern.MatchString(name) || name == "list" {
		return fmt.Errorf("invalid rule set name %q", name)
	}
	return nil
}

// Tree decodes the rule document.
func (s *RuleSet) Tree() (*RuleTree, error) {
	return ParseRuleTree([]byte(s.Content))
}
