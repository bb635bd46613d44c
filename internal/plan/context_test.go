package plan

import "testing"

func strPtr(s string) *string { return &s }

func contextItems(items ...LineItem) []ContextItem {
	out := make([]ContextItem, 0, len(items))
	for _, item := range items {
		cfg := ParseConfig(item.RawConfig)
		out = append(out, ContextItem{Item: item, Classification: Classify(item, testRegistry(), cfg)})
	}
	return out
}

func TestBuildContextsShape(t *testing.T) {
	items := contextItems(
		LineItem{URI: "li-2", CategoryKey: "furniture", DeliverableKey: "dining_table", GroupKey: strPtr("kitchen"), Quantity: 1, Position: 2},
		LineItem{URI: "li-1", CategoryKey: "delivery", DeliverableKey: "white_glove", GroupKey: strPtr("kitchen"), Quantity: 1, Position: 1},
		LineItem{URI: "li-3", CategoryKey: "furniture", DeliverableKey: "bookshelf", Quantity: 2, Position: 3},
	)
	cs := BuildContexts("rec://r1", items, testRegistry())

	if cs.Project == nil || cs.Project.Key != "rec://r1" {
		t.Fatalf("project context key: got=%+v", cs.Project)
	}
	if cs.Project.QuantityTotal != 4 {
		t.Fatalf("project quantity: want=4 got=%d", cs.Project.QuantityTotal)
	}
	if len(cs.Shared) != 1 || cs.Shared[0].Key != "kitchen" {
		t.Fatalf("shared contexts: want one 'kitchen' got=%+v", cs.Shared)
	}
	if len(cs.Deliverable) != 3 {
		t.Fatalf("deliverable contexts: want=3 got=%d", len(cs.Deliverable))
	}
	// Source order within contexts: position, then URI.
	if cs.Deliverable[0].Key != "li-1" || cs.Deliverable[1].Key != "li-2" || cs.Deliverable[2].Key != "li-3" {
		t.Fatalf("deliverable order: got=%s,%s,%s", cs.Deliverable[0].Key, cs.Deliverable[1].Key, cs.Deliverable[2].Key)
	}
}

func TestSharedContextsSortedByKey(t *testing.T) {
	items := contextItems(
		LineItem{URI: "li-1", CategoryKey: "furniture", DeliverableKey: "dining_table", GroupKey: strPtr("zeta"), Quantity: 1, Position: 1},
		LineItem{URI: "li-2", CategoryKey: "furniture", DeliverableKey: "dining_table", GroupKey: strPtr("alpha"), Quantity: 1, Position: 2},
	)
	cs := BuildContexts("rec://r1", items, testRegistry())
	if len(cs.Shared) != 2 || cs.Shared[0].Key != "alpha" || cs.Shared[1].Key != "zeta" {
		t.Fatalf("shared order: got=%+v", cs.Shared)
	}
}

func TestSharedFlagsMergeWithCategoryOverrides(t *testing.T) {
	items := contextItems(
		LineItem{URI: "li-1", CategoryKey: "furniture", DeliverableKey: "dining_table", GroupKey: strPtr("kitchen"), Quantity: 1, Position: 1,
			RawConfig: []byte(`{"workflow":{"requiresDesign":true}}`)},
		LineItem{URI: "li-2", CategoryKey: "delivery", DeliverableKey: "white_glove", GroupKey: strPtr("kitchen"), Quantity: 1, Position: 2},
	)
	cs := BuildContexts("rec://r1", items, testRegistry())
	shared := cs.Shared[0]
	if !shared.Flags.RequiresDesign {
		t.Fatalf("classifier flag not OR-merged into shared context")
	}
	// No member set deliveryRequired in config; the delivery category role
	// forces it.
	if !shared.Flags.DeliveryRequired {
		t.Fatalf("delivery category override not applied to shared context")
	}
}

func TestEmptyGroupKeyMakesNoSharedContext(t *testing.T) {
	items := contextItems(
		LineItem{URI: "li-1", CategoryKey: "furniture", DeliverableKey: "dining_table", GroupKey: strPtr(""), Quantity: 1, Position: 1},
		LineItem{URI: "li-2", CategoryKey: "furniture", DeliverableKey: "dining_table", Quantity: 1, Position: 2},
	)
	cs := BuildContexts("rec://r1", items, testRegistry())
	if len(cs.Shared) != 0 {
		t.Fatalf("shared contexts from empty/nil group keys: got=%d", len(cs.Shared))
	}
}

func TestDeliverableContextCarriesKeys(t *testing.T) {
	items := contextItems(
		LineItem{URI: "li-1", CategoryKey: "furniture", DeliverableKey: "dining_table", Quantity: 3, Position: 1},
	)
	cs := BuildContexts("rec://r1", items, testRegistry())
	d := cs.Deliverable[0]
	if d.CategoryKey != "furniture" || d.DeliverableKey != "dining_table" {
		t.Fatalf("deliverable context keys: got=%+v", d)
	}
	if d.QuantityTotal != 3 {
		t.Fatalf("deliverable quantity: want=3 got=%d", d.QuantityTotal)
	}
}
