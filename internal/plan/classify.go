package plan

import (
	"encoding/json"
	"fmt"
)

// Confidence caps applied by the classifier. Combined by min, never
// multiplied, so registry issues alone can not push confidence below 0.5.
const (
	confidenceCapBadConfig    = 0.7
	confidenceCapRegistryMiss = 0.5
)

type RegistryCategory struct {
	Key    string
	Title  string
	Role   string
	Active bool
}

type RegistryDeliverable struct {
	Key         string
	Title       string
	CategoryKey string
	Active      bool
}

// Registry is the workspace taxonomy the classifier validates against.
type Registry struct {
	Categories   map[string]RegistryCategory
	Deliverables map[string]RegistryDeliverable
}

// LineItem is the classifier's view of one record line item. RawConfig is
// the free-form configuration JSON as stored; it may be empty or invalid.
type LineItem struct {
	URI            string  `json:"uri"`
	CategoryKey    string  `json:"category_key"`
	DeliverableKey string  `json:"deliverable_key"`
	GroupKey       *string `json:"group_key,omitempty"`
	Title          string  `json:"title"`
	Quantity       int     `json:"quantity"`
	Position       int     `json:"position"`
	RawConfig      []byte  `json:"-"`
}

type Flags struct {
	RequiresDesign   bool `json:"requiresDesign"`
	RequiresApproval bool `json:"requiresApproval"`
	RequiresSamples  bool `json:"requiresSamples"`
	InstallRequired  bool `json:"installRequired"`
	DeliveryRequired bool `json:"deliveryRequired"`
}

type Facts struct {
	Material     *string  `json:"material"`
	Finish       *string  `json:"finish"`
	Dimensions   *string  `json:"dimensions"`
	Color        *string  `json:"color"`
	Mounting     *string  `json:"mounting"`
	LeadTimeDays *float64 `json:"lead_time_days"`
}

type Classification struct {
	Flags      Flags    `json:"flags"`
	Facts      Facts    `json:"facts"`
	Confidence float64  `json:"confidence"`
	Warnings   []string `json:"warnings,omitempty"`
}

// ParsedConfig is a line item's configuration after parsing. Valid is false
// when the raw value failed to parse as a JSON object; an absent config is
// valid and empty.
type ParsedConfig struct {
	Valid  bool
	Absent bool
	Value  map[string]any
}

func ParseConfig(raw []byte) ParsedConfig {
	if len(raw) == 0 || string(raw) == "null" {
		return ParsedConfig{Valid: true, Absent: true}
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ParsedConfig{}
	}
	return ParsedConfig{Valid: true, Value: obj}
}

// Classify validates one line item against the taxonomy and extracts the
// fixed flag/fact shape from its configuration. It never fails: every input
// defect becomes a warning and/or a confidence penalty.
func Classify(item LineItem, reg Registry, cfg ParsedConfig) Classification {
	out := Classification{Confidence: 1.0}

	cap := 1.0
	if !cfg.Valid {
		out.Warnings = append(out.Warnings, fmt.Sprintf("invalid configuration JSON on line item %s", item.URI))
		cap = minFloat(cap, confidenceCapBadConfig)
	}

	if cat, ok := reg.Categories[item.CategoryKey]; !ok {
		out.Warnings = append(out.Warnings, fmt.Sprintf("unknown category_key %q", item.CategoryKey))
		cap = minFloat(cap, confidenceCapRegistryMiss)
	} else if !cat.Active {
		out.Warnings = append(out.Warnings, fmt.Sprintf("inactive category_key %q", item.CategoryKey))
	}

	if del, ok := reg.Deliverables[item.DeliverableKey]; !ok {
		out.Warnings = append(out.Warnings, fmt.Sprintf("unknown deliverable_key %q", item.DeliverableKey))
		cap = minFloat(cap, confidenceCapRegistryMiss)
	} else {
		if !del.Active {
			out.Warnings = append(out.Warnings, fmt.Sprintf("inactive deliverable_key %q", item.DeliverableKey))
		}
		if del.CategoryKey != "" && del.CategoryKey != item.CategoryKey {
			out.Warnings = append(out.Warnings, fmt.Sprintf("deliverable category mismatch: %q registered under %q, line item says %q", item.DeliverableKey, del.CategoryKey, item.CategoryKey))
		}
	}

	out.Flags = extractFlags(cfg.Value)
	out.Facts = extractFacts(cfg.Value)
	out.Confidence = minFloat(out.Confidence, cap)
	return out
}

// extractFlags reads a "workflow" sub-object if present, else a "flags"
// sub-object, else the top level. A flag is set iff present and truthy.
func extractFlags(obj map[string]any) Flags {
	src := obj
	if sub, ok := obj["workflow"].(map[string]any); ok {
		src = sub
	} else if sub, ok := obj["flags"].(map[string]any); ok {
		src = sub
	}
	return Flags{
		RequiresDesign:   truthy(src["requiresDesign"]),
		RequiresApproval: truthy(src["requiresApproval"]),
		RequiresSamples:  truthy(src["requiresSamples"]),
		InstallRequired:  truthy(src["installRequired"]),
		DeliveryRequired: truthy(src["deliveryRequired"]),
	}
}

func extractFacts(obj map[string]any) Facts {
	return Facts{
		Material:     stringFact(obj, "material"),
		Finish:       stringFact(obj, "finish"),
		Dimensions:   stringFact(obj, "dimensions"),
		Color:        stringFact(obj, "color"),
		Mounting:     stringFact(obj, "mounting"),
		LeadTimeDays: numberFact(obj, "lead_time_days"),
	}
}

func stringFact(obj map[string]any, key string) *string {
	if obj == nil {
		return nil
	}
	if s, ok := obj[key].(string); ok && s != "" {
		return &s
	}
	return nil
}

func numberFact(obj map[string]any, key string) *float64 {
	if obj == nil {
		return nil
	}
	if f, ok := obj[key].(float64); ok {
		return &f
	}
	return nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
