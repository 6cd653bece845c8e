package prompt

import (
	"sort"
	"strings"
	"testing"
)

func TestLookup_KnownTemplates(t *testing.T) {
	cases := map[string]string{
		"senior_fullstack":         "full-stack developer",
		"business_analyst":         "business analyst",
		"technical_writer":         "technical writer",
		"healthcare_assistant":     "healthcare",
		"legal_research_assistant": "legal research",
	}
	for name, want := range cases {
		text, ok := Lookup(name)
		if !ok {
			t.Errorf("template %q not found", name)
			continue
		}
		if !strings.Contains(strings.ToLower(text), want) {
			t.Errorf("template %q text does not mention %q", name, want)
		}
	}
}

func TestLookup_Unknown(t *testing.T) {
	if _, ok := Lookup("does_not_exist"); ok {
		t.Fatal("unknown template must not resolve")
	}
}

func TestNames_SortedAndComplete(t *testing.T) {
	names := Names()
	if len(names) != 13 {
		t.Fatalf("expected 13 templates, got %d: %v", len(names), names)
	}
	if !sort.StringsAreSorted(names) {
		t.Fatalf("names must be sorted: %v", names)
	}
}

func TestCategories_CoverAllTemplates(t *testing.T) {
	cats := Categories()

	all, ok := cats["all_templates"]
	if !ok {
		t.Fatal("expected an all_templates category")
	}
	if len(all) != 13 {
		t.Fatalf("all_templates should list every template, got %d", len(all))
	}

	want := []string{"software_development", "business_analysis", "creative_content", "specialized_domain"}
	total := 0
	for _, cat := range want {
		names, ok := cats[cat]
		if !ok {
			t.Fatalf("missing category %q", cat)
		}
		total += len(names)
	}
	if total != 13 {
		t.Fatalf("categories should partition the 13 templates, got %d", total)
	}
}

func TestBuiltinForType(t *testing.T) {
	for _, typ := range []string{"general", "coder", "analyzer", "creative"} {
		if BuiltinForType(typ) == "" {
			t.Errorf("no builtin prompt for type %q", typ)
		}
	}
	if BuiltinForType("unknown-type") != BuiltinForType("general") {
		t.Fatal("unknown agent types must fall back to the general prompt")
	}
}
