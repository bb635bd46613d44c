package plan

import "sort"

// Scope base offsets keep the three tiers in disjoint bands within a
// project.
const (
	positionBaseProject     = 1000
	positionBaseShared      = 2000
	positionBaseDeliverable = 3000

	// Templates without a default position sort after every positioned one.
	defaultPositionUnset = 100000
)

// TaskPosition computes a task's global position within its project:
// scope base + lineItemPosition*10 + template default position (100000 when
// unset) + max(0, 1000-rulePriority) + the match's index within its
// per-context sorted list. The index term guarantees strict ordering even
// among templates with identical default position and priority.
func TaskPosition(scope string, lineItemPosition int, defaultPosition *int, rulePriority int, index int) int {
	base := positionBaseProject
	switch scope {
	case ScopeShared:
		base = positionBaseShared
	case ScopeDeliverable:
		base = positionBaseDeliverable
	}
	pos := base + lineItemPosition*10
	if defaultPosition != nil {
		pos += *defaultPosition
	} else {
		pos += defaultPositionUnset
	}
	if tie := 1000 - rulePriority; tie > 0 {
		pos += tie
	}
	return pos + index
}

// OrderedMatch pairs a match with the template fields the position formula
// needs.
type OrderedMatch struct {
	Match           Match
	DefaultPosition *int
}

// SortMatchesForPosition orders one context's matches for index assignment:
// default position asc, rule priority desc, template key asc, rule id asc.
func SortMatchesForPosition(matches []OrderedMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		ap, bp := defaultPositionUnset, defaultPositionUnset
		if a.DefaultPosition != nil {
			ap = *a.DefaultPosition
		}
		if b.DefaultPosition != nil {
			bp = *b.DefaultPosition
		}
		if ap != bp {
			return ap < bp
		}
		if a.Match.RulePriority != b.Match.RulePriority {
			return a.Match.RulePriority > b.Match.RulePriority
		}
		if a.Match.TemplateKey != b.Match.TemplateKey {
			return a.Match.TemplateKey < b.Match.TemplateKey
		}
		return a.Match.RuleID < b.Match.RuleID
	})
}
