package plan

import (
	"encoding/json"
	"fmt"
)

// RuleMatch is a template rule's parsed predicate. Every present clause must
// hold; absent clauses are vacuously true. attach_to is the one mandatory
// clause.
type RuleMatch struct {
	AttachTo         string   `json:"attach_to"`
	CategoryKey      *string  `json:"category_key,omitempty"`
	DeliverableKey   *string  `json:"deliverable_key,omitempty"`
	GroupKeyPresent  *bool    `json:"group_key_present,omitempty"`
	MinQuantityTotal *int     `json:"min_quantity_total,omitempty"`
	FlagsAll         []string `json:"flags_all,omitempty"`
	FlagsAny         []string `json:"flags_any,omitempty"`
	FlagsNone        []string `json:"flags_none,omitempty"`
}

func ParseRuleMatch(raw []byte) (*RuleMatch, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty match predicate")
	}
	var m RuleMatch
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unparsable match predicate: %w", err)
	}
	if m.AttachTo == "" {
		return nil, fmt.Errorf("match predicate missing attach_to")
	}
	return &m, nil
}

// Matches evaluates m against ctx. Pure conjunction, no side effects.
func Matches(m *RuleMatch, ctx *Context) bool {
	if m == nil || ctx == nil {
		return false
	}
	if m.AttachTo != ctx.Kind {
		return false
	}
	if m.CategoryKey != nil && ctx.CategoryKey != *m.CategoryKey {
		return false
	}
	if m.DeliverableKey != nil && ctx.DeliverableKey != *m.DeliverableKey {
		return false
	}
	if m.GroupKeyPresent != nil && (ctx.Kind == ScopeShared) != *m.GroupKeyPresent {
		return false
	}
	if m.MinQuantityTotal != nil && ctx.QuantityTotal < *m.MinQuantityTotal {
		return false
	}
	for _, name := range m.FlagsAll {
		if !flagByName(ctx.Flags, name) {
			return false
		}
	}
	if len(m.FlagsAny) > 0 {
		any := false
		for _, name := range m.FlagsAny {
			if flagByName(ctx.Flags, name) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	for _, name := range m.FlagsNone {
		if flagByName(ctx.Flags, name) {
			return false
		}
	}
	return true
}

// Unknown flag names read as false.
func flagByName(f Flags, name string) bool {
	switch name {
	case "requiresDesign":
		return f.RequiresDesign
	case "requiresApproval":
		return f.RequiresApproval
	case "requiresSamples":
		return f.RequiresSamples
	case "installRequired":
		return f.InstallRequired
	case "deliveryRequired":
		return f.DeliveryRequired
	default:
		return false
	}
}
