package plan

import (
	"fmt"

	"github.com/opsforge/opsforge-backend/internal/canonical"
)

// Match records one rule firing against one context.
type Match struct {
	ContextKind  string `json:"context_kind"`
	ContextKey   string `json:"context_key"`
	TemplateKey  string `json:"template_key"`
	RuleID       string `json:"rule_id"`
	RulePriority int    `json:"rule_priority"`
}

// CompileInput carries everything Compile needs, already loaded. Compile
// itself does no I/O.
type CompileInput struct {
	WorkspaceID  string
	RecordURI    string
	SnapshotHash string
	Items        []LineItem
	Registry     Registry
	Config       *TemplateConfig
}

// CompiledPlan is the deterministic output of one compilation. Two
// compilations against byte-identical inputs serialize byte-identically.
type CompiledPlan struct {
	WorkspaceID        string              `json:"workspace_id"`
	RecordURI          string              `json:"record_uri"`
	SnapshotHash       string              `json:"snapshot_hash"`
	ConfigHash         string              `json:"config_hash"`
	PlanID             string              `json:"plan_id"`
	LineItems          []ContextItem       `json:"line_items"`
	Contexts           Contexts            `json:"contexts"`
	Matches            []Match             `json:"matches"`
	TemplatesByContext map[string][]string `json:"templates_by_context"`
	Warnings           []string            `json:"warnings,omitempty"`
}

// MaterializationKey derives the idempotency token for turning this plan
// into tasks.
func (p *CompiledPlan) MaterializationKey() string {
	return p.RecordURI + "::" + p.SnapshotHash + "::" + p.ConfigHash
}

// Compile runs the full pipeline over already-loaded inputs: classify every
// line item, build contexts, evaluate every active rule against every
// context, deduplicate per context per template (first match in rule order
// wins), and assemble the plan.
func Compile(in CompileInput) *CompiledPlan {
	p := &CompiledPlan{
		WorkspaceID:        in.WorkspaceID,
		RecordURI:          in.RecordURI,
		SnapshotHash:       in.SnapshotHash,
		ConfigHash:         in.Config.Fingerprint,
		TemplatesByContext: map[string][]string{},
	}
	p.Warnings = append(p.Warnings, in.Config.Warnings...)

	items := make([]ContextItem, 0, len(in.Items))
	for _, item := range in.Items {
		cfg := ParseConfig(item.RawConfig)
		cls := Classify(item, in.Registry, cfg)
		for _, w := range cls.Warnings {
			p.Warnings = append(p.Warnings, fmt.Sprintf("line_item %s: %s", item.URI, w))
		}
		items = append(items, ContextItem{Item: item, Classification: cls})
	}

	p.Contexts = BuildContexts(in.RecordURI, items, in.Registry)
	p.LineItems = p.Contexts.Project.Items

	for _, ctx := range p.Contexts.All() {
		seen := map[string]bool{}
		for _, rule := range in.Config.Rules {
			if !Matches(rule.Match, ctx) {
				continue
			}
			if seen[rule.TemplateKey] {
				continue
			}
			seen[rule.TemplateKey] = true
			p.Matches = append(p.Matches, Match{
				ContextKind:  ctx.Kind,
				ContextKey:   ctx.Key,
				TemplateKey:  rule.TemplateKey,
				RuleID:       rule.ID,
				RulePriority: rule.Priority,
			})
			p.TemplatesByContext[ctx.ID()] = append(p.TemplatesByContext[ctx.ID()], rule.TemplateKey)
		}
	}

	p.PlanID = canonical.ContentHash(p.RecordURI + "::" + p.SnapshotHash + "::" + p.ConfigHash)
	return p
}

// MatchesForContext returns the plan's matches for one context in match
// order.
func (p *CompiledPlan) MatchesForContext(ctx *Context) []Match {
	out := []Match{}
	for _, m := range p.Matches {
		if m.ContextKind == ctx.Kind && m.ContextKey == ctx.Key {
			out = append(out, m)
		}
	}
	return out
}
