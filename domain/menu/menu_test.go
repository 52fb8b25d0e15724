package menu

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
)

func sampleMenu() Menu {
	m := Empty()
	m.Categories[m.Category(Appetizers)].Items = []Item{{ID: "a1", Name: "Fries", PriceCents: 450}}
	m.Categories[m.Category(Mains)].Items = []Item{
		{ID: "m1", Name: "Burger", PriceCents: 1000},
		{ID: "m3", Name: "Pasta", PriceCents: 1250},
	}
	m.Categories[m.Category(Desserts)].Items = []Item{{ID: "d1", Name: "Brownie", PriceCents: 500}}
	return m
}

func TestApplyAdd(t *testing.T) {
	before := sampleMenu()
	after, err := before.Apply(OpAdd, Mains, Item{ID: "m2", Name: "Chicken Sandwich", PriceCents: 1399})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	mains := after.Categories[after.Category(Mains)].Items
	if len(mains) != 3 || mains[2].ID != "m2" || mains[2].PriceCents != 1399 {
		t.Fatalf("mains after add = %+v", mains)
	}
	if n := len(before.Categories[before.Category(Mains)].Items); n != 2 {
		t.Fatalf("receiver mutated: %d mains", n)
	}
	if after.ItemCount() != before.ItemCount()+1 {
		t.Errorf("item count %d, want %d", after.ItemCount(), before.ItemCount()+1)
	}
}

func TestApplyRuleViolations(t *testing.T) {
	m := sampleMenu()
	tests := []struct {
		name string
		op   Operation
		cat  CategoryName
		item Item
		want string
	}{
		{"duplicate add", OpAdd, Mains, Item{ID: "m1", Name: "Dup", PriceCents: 1}, "itemID already exists"},
		{"update missing", OpUpdate, Mains, Item{ID: "zz", Name: "x", PriceCents: 1}, "itemID not found"},
		{"delete missing", OpDelete, Desserts, Item{ID: "m1"}, "itemID not found"},
		{"category not in menu", OpAdd, CategoryUnspecified, Item{ID: "x1", PriceCents: 1}, "Unknown category CATEGORY_UNSPECIFIED"},
		{"unknown op", OpUnspecified, Mains, Item{ID: "m9", PriceCents: 1}, "operation must be ADD/UPDATE/DELETE"},
		{"negative price", OpAdd, Mains, Item{ID: "m9", PriceCents: -1}, "priceCents must be non-negative"},
		{"missing id", OpAdd, Mains, Item{Name: "nameless", PriceCents: 1}, "itemID is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Apply(tt.op, tt.cat, tt.item)
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tt.want {
				t.Errorf("error = %q, want %q", err.Error(), tt.want)
			}
			if !IsRuleError(err) {
				t.Errorf("IsRuleError(%v) = false", err)
			}
		})
	}
}

func TestApplyUpdateKeepsPosition(t *testing.T) {
	m := sampleMenu()
	after, err := m.Apply(OpUpdate, Mains, Item{ID: "m1", Name: "Cheeseburger", PriceCents: 1100})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	mains := after.Categories[after.Category(Mains)].Items
	if mains[0].ID != "m1" || mains[0].Name != "Cheeseburger" || mains[0].PriceCents != 1100 {
		t.Errorf("mains[0] = %+v", mains[0])
	}
	if mains[1].ID != "m3" {
		t.Errorf("order changed: %+v", mains)
	}
}

func TestApplyDelete(t *testing.T) {
	m := sampleMenu()
	after, err := m.Apply(OpDelete, Mains, Item{ID: "m1"})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	mains := after.Categories[after.Category(Mains)].Items
	if len(mains) != 1 || mains[0].ID != "m3" {
		t.Errorf("mains after delete = %+v", mains)
	}
	if len(m.Categories[m.Category(Mains)].Items) != 2 {
		t.Error("receiver mutated by delete")
	}
}

func TestItemIDScopedToCategory(t *testing.T) {
	m := sampleMenu()
	// m1 exists in MAINS; adding it to DESSERTS is allowed.
	after, err := m.Apply(OpAdd, Desserts, Item{ID: "m1", Name: "Mint cake", PriceCents: 700})
	if err != nil {
		t.Fatalf("add across categories: %v", err)
	}
	if got := after.PriceIndex()["m1"]; got != 700 {
		t.Errorf("price index m1 = %d, want later category to win (700)", got)
	}
}

func TestParseOperation(t *testing.T) {
	if ParseOperation(" add ") != OpAdd || ParseOperation("Update") != OpUpdate || ParseOperation("DELETE") != OpDelete {
		t.Fatal("known operations not parsed")
	}
	if ParseOperation("UPSERT") != OpUnspecified {
		t.Fatal("unknown operation should be OpUnspecified")
	}
}

func TestParseCategoryName(t *testing.T) {
	for _, c := range Categories {
		got, err := ParseCategoryName(c.String())
		if err != nil || got != c {
			t.Errorf("ParseCategoryName(%q) = %v, %v", c.String(), got, err)
		}
	}
	if _, err := ParseCategoryName("SIDES"); !errors.Is(err, ErrUnknownCategoryName) {
		t.Errorf("SIDES err = %v", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	m := sampleMenu()
	c := m.Clone()
	c.Categories[0].Items[0].PriceCents = 1
	if m.Categories[0].Items[0].PriceCents == 1 {
		t.Fatal("clone shares item storage")
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	m := sampleMenu()
	data, err := MarshalDocument(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"itemID": "m1"`) {
		t.Errorf("document does not use itemID field names:\n%s", data)
	}
	got, err := UnmarshalDocument(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ItemCount() != m.ItemCount() || len(got.Categories) != len(m.Categories) {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestUnmarshalDocumentRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"unknown category": `{"categories":[{"name":"SIDES","items":[]}]}`,
		"negative price":   `{"categories":[{"name":"MAINS","items":[{"itemID":"m1","name":"x","priceCents":-5}]}]}`,
		"duplicate id":     `{"categories":[{"name":"MAINS","items":[{"itemID":"m1","name":"x","priceCents":1},{"itemID":"m1","name":"y","priceCents":2}]}]}`,
		"bad json":         `{"categories":`,
	}
	for name, doc := range tests {
		if _, err := UnmarshalDocument([]byte(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
