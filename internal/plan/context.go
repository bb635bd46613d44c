package plan

import "sort"

const (
	ScopeProject     = "project"
	ScopeShared      = "shared"
	ScopeDeliverable = "deliverable"
)

type ContextItem struct {
	Item           LineItem       `json:"item"`
	Classification Classification `json:"classification"`
}

// Context is one aggregation scope templates are matched against: the whole
// record, one shared group, or one deliverable.
type Context struct {
	Kind           string        `json:"kind"`
	Key            string        `json:"key"`
	GroupKey       *string       `json:"group_key,omitempty"`
	CategoryKey    string        `json:"category_key,omitempty"`
	DeliverableKey string        `json:"deliverable_key,omitempty"`
	Items          []ContextItem `json:"items"`
	Flags          Flags         `json:"flags"`
	QuantityTotal  int           `json:"quantity_total"`
}

// ID is the stable identifier used to index matches per context.
func (c *Context) ID() string { return c.Kind + ":" + c.Key }

type Contexts struct {
	Project     *Context   `json:"project"`
	Shared      []*Context `json:"shared"`
	Deliverable []*Context `json:"deliverable"`
}

// All returns the matching order: project, shared (sorted by key), then one
// deliverable per line item in source order.
func (cs Contexts) All() []*Context {
	out := make([]*Context, 0, 1+len(cs.Shared)+len(cs.Deliverable))
	out = append(out, cs.Project)
	out = append(out, cs.Shared...)
	out = append(out, cs.Deliverable...)
	return out
}

// BuildContexts derives the three context tiers for one record. Ordering is
// content-driven everywhere: line items by (position, URI), shared contexts
// by group key.
func BuildContexts(recordURI string, items []ContextItem, reg Registry) Contexts {
	sorted := make([]ContextItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Item.Position != sorted[j].Item.Position {
			return sorted[i].Item.Position < sorted[j].Item.Position
		}
		return sorted[i].Item.URI < sorted[j].Item.URI
	})

	project := &Context{Kind: ScopeProject, Key: recordURI, Items: sorted}
	for _, ci := range sorted {
		project.Flags = orFlags(project.Flags, ci.Classification.Flags)
		project.QuantityTotal += ci.Item.Quantity
	}

	grouped := map[string][]ContextItem{}
	for _, ci := range sorted {
		if ci.Item.GroupKey == nil || *ci.Item.GroupKey == "" {
			continue
		}
		grouped[*ci.Item.GroupKey] = append(grouped[*ci.Item.GroupKey], ci)
	}
	groupKeys := make([]string, 0, len(grouped))
	for k := range grouped {
		groupKeys = append(groupKeys, k)
	}
	sort.Strings(groupKeys)

	shared := make([]*Context, 0, len(groupKeys))
	for _, gk := range groupKeys {
		gk := gk
		ctx := &Context{Kind: ScopeShared, Key: gk, GroupKey: &gk, Items: grouped[gk]}
		for _, ci := range grouped[gk] {
			ctx.Flags = orFlags(ctx.Flags, ci.Classification.Flags)
			ctx.QuantityTotal += ci.Item.Quantity
			// Category-derived overrides stack on top of the classifier flags.
			switch reg.Categories[ci.Item.CategoryKey].Role {
			case "install":
				ctx.Flags.InstallRequired = true
			case "delivery":
				ctx.Flags.DeliveryRequired = true
			}
		}
		shared = append(shared, ctx)
	}

	deliverable := make([]*Context, 0, len(sorted))
	for _, ci := range sorted {
		deliverable = append(deliverable, &Context{
			Kind:           ScopeDeliverable,
			Key:            ci.Item.URI,
			GroupKey:       ci.Item.GroupKey,
			CategoryKey:    ci.Item.CategoryKey,
			DeliverableKey: ci.Item.DeliverableKey,
			Items:          []ContextItem{ci},
			Flags:          ci.Classification.Flags,
			QuantityTotal:  ci.Item.Quantity,
		})
	}

	return Contexts{Project: project, Shared: shared, Deliverable: deliverable}
}

func orFlags(a, b Flags) Flags {
	return Flags{
		RequiresDesign:   a.RequiresDesign || b.RequiresDesign,
		RequiresApproval: a.RequiresApproval || b.RequiresApproval,
		RequiresSamples:  a.RequiresSamples || b.RequiresSamples,
		InstallRequired:  a.InstallRequired || b.InstallRequired,
		DeliveryRequired: a.DeliveryRequired || b.DeliveryRequired,
	}
}
