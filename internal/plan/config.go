package plan

import (
	"fmt"
	"sort"
	"time"

	"github.com/opsforge/opsforge-backend/internal/canonical"
)

// ConfigTemplate is the loader's view of one active task template.
type ConfigTemplate struct {
	Key             string
	Title           string
	Kind            string
	AttachScope     string
	CategoryKey     string
	DeliverableKey  string
	DefaultPosition *int
	DefaultStatus   string
	InitialState    []byte
	Active          bool
	UpdatedAt       time.Time
}

// ConfigRuleRow is one active rule as stored, before predicate parsing.
type ConfigRuleRow struct {
	ID          string
	TemplateKey string
	Priority    int
	Match       []byte
	Active      bool
	UpdatedAt   time.Time
}

// ConfigRule is a rule whose predicate parsed and whose template exists in
// the active set.
type ConfigRule struct {
	ID          string
	TemplateKey string
	Priority    int
	Match       *RuleMatch
	UpdatedAt   time.Time
}

// TemplateConfig is the resolved matching configuration for one workspace:
// active templates keyed and ordered, rules in deterministic evaluation
// order, and the content fingerprint that forms half of the
// materialization key.
type TemplateConfig struct {
	Templates    map[string]ConfigTemplate
	TemplateKeys []string
	Rules        []ConfigRule
	Fingerprint  string
	Warnings     []string
}

// BuildTemplateConfig resolves active rows into matching order and computes
// the configuration fingerprint. Rules with unparsable or incomplete
// predicates become warnings; rules whose template key is absent from the
// active set are dropped silently (a disabled template disables its rules).
func BuildTemplateConfig(templates []ConfigTemplate, rules []ConfigRuleRow) *TemplateConfig {
	cfg := &TemplateConfig{Templates: make(map[string]ConfigTemplate, len(templates))}

	for _, t := range templates {
		cfg.Templates[t.Key] = t
		cfg.TemplateKeys = append(cfg.TemplateKeys, t.Key)
	}
	sort.Strings(cfg.TemplateKeys)

	for _, r := range rules {
		m, err := ParseRuleMatch(r.Match)
		if err != nil {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("rule %s excluded: %v", r.ID, err))
			continue
		}
		if _, ok := cfg.Templates[r.TemplateKey]; !ok {
			continue
		}
		cfg.Rules = append(cfg.Rules, ConfigRule{
			ID:          r.ID,
			TemplateKey: r.TemplateKey,
			Priority:    r.Priority,
			Match:       m,
			UpdatedAt:   r.UpdatedAt,
		})
	}

	// Evaluation order: priority desc, template key asc, rule id asc. This
	// is the tie-break when rules of equal priority could both fire.
	sort.SliceStable(cfg.Rules, func(i, j int) bool {
		a, b := cfg.Rules[i], cfg.Rules[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.TemplateKey != b.TemplateKey {
			return a.TemplateKey < b.TemplateKey
		}
		return a.ID < b.ID
	})

	cfg.Fingerprint = fingerprint(templates, rules)
	return cfg
}

// fingerprint hashes a reduced, order-independent view of the configuration.
// It changes iff any active template's or rule's externally visible shape
// changes.
func fingerprint(templates []ConfigTemplate, rules []ConfigRuleRow) string {
	tv := make([]map[string]any, 0, len(templates))
	for _, t := range templates {
		var defaultPos any
		if t.DefaultPosition != nil {
			defaultPos = *t.DefaultPosition
		}
		tv = append(tv, map[string]any{
			"key":              t.Key,
			"title":            t.Title,
			"kind":             t.Kind,
			"attach_scope":     t.AttachScope,
			"category_key":     t.CategoryKey,
			"deliverable_key":  t.DeliverableKey,
			"default_position": defaultPos,
			"default_status":   t.DefaultStatus,
			"active":           t.Active,
			"updated_at":       t.UpdatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	sort.Slice(tv, func(i, j int) bool { return tv[i]["key"].(string) < tv[j]["key"].(string) })

	rv := make([]map[string]any, 0, len(rules))
	for _, r := range rules {
		matchCanonical := ""
		if len(r.Match) > 0 {
			if c, err := canonical.CanonicalizeRaw(r.Match); err == nil {
				matchCanonical = c
			} else {
				matchCanonical = string(r.Match)
			}
		}
		rv = append(rv, map[string]any{
			"id":           r.ID,
			"template_key": r.TemplateKey,
			"priority":     r.Priority,
			"match":        matchCanonical,
			"active":       r.Active,
			"updated_at":   r.UpdatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	sort.Slice(rv, func(i, j int) bool { return rv[i]["id"].(string) < rv[j]["id"].(string) })

	c, err := canonical.Canonicalize(map[string]any{"templates": tv, "rules": rv})
	if err != nil {
		// Reduced views are built from plain scalars; Canonicalize can not
		// fail on them.
		c = fmt.Sprintf("templates=%d rules=%d", len(tv), len(rv))
	}
	return canonical.ContentHash(c)
}
