package plan

import (
	"strings"
	"testing"
)

func testRegistry() Registry {
	return Registry{
		Categories: map[string]RegistryCategory{
			"furniture": {Key: "furniture", Active: true},
			"delivery":  {Key: "delivery", Role: "delivery", Active: true},
			"install":   {Key: "install", Role: "install", Active: true},
			"legacy":    {Key: "legacy", Active: false},
		},
		Deliverables: map[string]RegistryDeliverable{
			"dining_table": {Key: "dining_table", CategoryKey: "furniture", Active: true},
			"white_glove":  {Key: "white_glove", CategoryKey: "delivery", Active: true},
			"old_chair":    {Key: "old_chair", CategoryKey: "furniture", Active: false},
		},
	}
}

func TestClassifyCleanItemFullConfidence(t *testing.T) {
	item := LineItem{URI: "li-1", CategoryKey: "furniture", DeliverableKey: "dining_table"}
	cfg := ParseConfig([]byte(`{"workflow":{"requiresDesign":true},"material":"oak"}`))
	cls := Classify(item, testRegistry(), cfg)
	if cls.Confidence != 1.0 {
		t.Fatalf("confidence: want=1.0 got=%v", cls.Confidence)
	}
	if len(cls.Warnings) != 0 {
		t.Fatalf("warnings: want=none got=%v", cls.Warnings)
	}
	if !cls.Flags.RequiresDesign {
		t.Fatalf("requiresDesign flag not extracted from workflow sub-object")
	}
	if cls.Facts.Material == nil || *cls.Facts.Material != "oak" {
		t.Fatalf("material fact: want=oak got=%v", cls.Facts.Material)
	}
}

func TestClassifyUnknownCategoryCapsConfidence(t *testing.T) {
	item := LineItem{URI: "li-1", CategoryKey: "nope", DeliverableKey: "dining_table"}
	cls := Classify(item, testRegistry(), ParseConfig(nil))
	if cls.Confidence > 0.5 {
		t.Fatalf("confidence with unknown category: want<=0.5 got=%v", cls.Confidence)
	}
	if !warningsContain(cls.Warnings, "unknown category_key") {
		t.Fatalf("missing unknown category warning: %v", cls.Warnings)
	}
}

func TestClassifyInvalidConfigCapsConfidence(t *testing.T) {
	item := LineItem{URI: "li-1", CategoryKey: "furniture", DeliverableKey: "dining_table", RawConfig: []byte(`{not json`)}
	cls := Classify(item, testRegistry(), ParseConfig(item.RawConfig))
	if cls.Confidence > 0.7 {
		t.Fatalf("confidence with invalid config: want<=0.7 got=%v", cls.Confidence)
	}
	if cls.Confidence <= 0.5 {
		t.Fatalf("invalid config alone should not hit the registry floor: got=%v", cls.Confidence)
	}
}

func TestClassifyCombinedPenaltiesUseMin(t *testing.T) {
	item := LineItem{URI: "li-1", CategoryKey: "nope", DeliverableKey: "also_nope", RawConfig: []byte(`{not json`)}
	cls := Classify(item, testRegistry(), ParseConfig(item.RawConfig))
	if cls.Confidence != 0.5 {
		t.Fatalf("combined penalty: want=0.5 (min, not product) got=%v", cls.Confidence)
	}
}

func TestClassifyInactiveWarnsWithoutFloor(t *testing.T) {
	item := LineItem{URI: "li-1", CategoryKey: "legacy", DeliverableKey: "old_chair"}
	cls := Classify(item, testRegistry(), ParseConfig(nil))
	if cls.Confidence != 1.0 {
		t.Fatalf("inactive keys should only warn: confidence want=1.0 got=%v", cls.Confidence)
	}
	if !warningsContain(cls.Warnings, "inactive category_key") || !warningsContain(cls.Warnings, "inactive deliverable_key") {
		t.Fatalf("missing inactive warnings: %v", cls.Warnings)
	}
}

func TestClassifyCategoryMismatchWarns(t *testing.T) {
	item := LineItem{URI: "li-1", CategoryKey: "delivery", DeliverableKey: "dining_table"}
	cls := Classify(item, testRegistry(), ParseConfig(nil))
	if !warningsContain(cls.Warnings, "deliverable category mismatch") {
		t.Fatalf("missing mismatch warning: %v", cls.Warnings)
	}
}

func TestFlagsFallbackChain(t *testing.T) {
	// No workflow, no flags sub-object: read top level.
	cfg := ParseConfig([]byte(`{"requiresSamples":1,"deliveryRequired":"yes"}`))
	flags := extractFlags(cfg.Value)
	if !flags.RequiresSamples || !flags.DeliveryRequired {
		t.Fatalf("top-level truthy flags not extracted: %+v", flags)
	}

	// flags sub-object wins over top level when workflow is absent.
	cfg = ParseConfig([]byte(`{"flags":{"installRequired":true},"requiresDesign":true}`))
	flags = extractFlags(cfg.Value)
	if !flags.InstallRequired {
		t.Fatalf("flags sub-object not read")
	}
	if flags.RequiresDesign {
		t.Fatalf("top level read despite flags sub-object present")
	}
}

func TestFlagFalsyValues(t *testing.T) {
	cfg := ParseConfig([]byte(`{"requiresDesign":false,"requiresApproval":0,"requiresSamples":"","installRequired":null}`))
	flags := extractFlags(cfg.Value)
	if flags.RequiresDesign || flags.RequiresApproval || flags.RequiresSamples || flags.InstallRequired {
		t.Fatalf("falsy values treated as set: %+v", flags)
	}
}

func TestParseConfigAbsentIsValid(t *testing.T) {
	if cfg := ParseConfig(nil); !cfg.Valid || !cfg.Absent {
		t.Fatalf("nil config: want valid+absent got=%+v", cfg)
	}
	if cfg := ParseConfig([]byte("null")); !cfg.Valid || !cfg.Absent {
		t.Fatalf("null config: want valid+absent got=%+v", cfg)
	}
	if cfg := ParseConfig([]byte(`[1,2]`)); cfg.Valid {
		t.Fatalf("non-object config: want invalid got=%+v", cfg)
	}
}

func warningsContain(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}
