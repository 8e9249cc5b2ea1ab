package parsers

import "strings"

// CategoryRule is one row of an ordered keyword cascade. The rule fires when
// any keyword is contained in the inspected field (case-insensitive).
// Precedence is the slice order, top-down.
type CategoryRule struct {
	Field    int
	Keywords []string
	Category string
	// Label overrides the product label; empty keeps the fallback label.
	Label string
}

// Classify runs the cascade over the raw field values. fallback names the
// label used when the winning rule (or no rule) carries none.
func Classify(rules []CategoryRule, fields []string, fallback, defaultCategory string) (string, string) {
	for _, rule := range rules {
		if rule.Field >= len(fields) {
			continue
		}
		value := strings.ToUpper(fields[rule.Field])
		for _, kw := range rule.Keywords {
			if strings.Contains(value, kw) {
				if rule.Label != "" {
					return rule.Category, rule.Label
				}
				return rule.Category, fallback
			}
		}
	}
	return defaultCategory, fallback
}
