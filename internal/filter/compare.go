package filter

import "github.com/rebeliceyang/docfilter/internal/models"

// RulesEqual reports whether a and b hold the same (rule_type, value)
// pairs, ignoring order and repetition
func RulesEqual(a, b []models.FilterRule) bool {
	left := ruleSet(a)
	right := ruleSet(b)
	if len(left) != len(right) {
		return false
	}
	for key := range left {
		if !right[key] {
			return false
		}
	}
	return true
}

func ruleSet(rules []models.FilterRule) map[string]bool {
	set := make(map[string]bool, len(rules))
	for _, r := range rules {
		set[r.Key()] = true
	}
	return set
}
