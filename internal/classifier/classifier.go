// Package classifier maps free-text questions onto analysis categories.
package classifier

import (
	"strings"

	"EnergyAnalyst/internal/domain"
	"EnergyAnalyst/internal/knowledge"
)

// Classifier evaluates ordered keyword rules; the first matching rule wins.
type Classifier struct {
	rules []knowledge.CategoryRule
}

// New builds a classifier over the category rules in k.
func New(k *knowledge.Knowledge) *Classifier {
	rules := make([]knowledge.CategoryRule, len(k.Categories))
	copy(rules, k.Categories)
	return &Classifier{rules: rules}
}

// Classify returns the category of question, or general when nothing matches.
func (c *Classifier) Classify(question string) domain.Category {
	text := strings.ToLower(question)
	for _, rule := range c.rules {
		if knowledge.ContainsAny(text, rule.Keywords) {
			return rule.Category
		}
	}
	return domain.CategoryGeneral
}
