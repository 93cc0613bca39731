package order

import "testing"

func TestDisplayName(t *testing.T) {
	cases := []struct {
		name  string
		price int
		want  string
	}{
		{"Teriyaki", 1000, "Teriyaki Chicken"},
		{"Teriyaki", 1200, "Teriyaki Salmon"},
		{"Teriyaki", 900, "Teriyaki Tofu"},
		{"Japanese Katsu Curry", 1400, "Katsu Curry Pork"},
		{"Japanese Katsu Curry", 1300, "Katsu Curry Chicken"},
		{"Katsu Don", 1200, "Katsu Don Pork"},
		{"Katsu Don", 1100, "Katsu Don Chicken"},
		{"Pho", 1100, "Pho Beef"},
		{"Pho", 1000, "Pho Chicken"},
		{"Udon", 1000, "Udon Tofu"},
	}

	for _, tc := range cases {
		if got := DisplayName(tc.name, tc.price); got != tc.want {
			t.Errorf("DisplayName(%q, %d) = %q, want %q", tc.name, tc.price, got, tc.want)
		}
	}
}

func TestDisplayName_UnknownItemFallsThrough(t *testing.T) {
	if got := DisplayName("Gyoza", 600); got != "Gyoza" {
		t.Errorf("got %q, want the base name unchanged", got)
	}
}

func TestCurrentVariantName(t *testing.T) {
	cases := []struct {
		item   string
		price  int
		custom string
		want   string
	}{
		{"Teriyaki", 1000, "", "chicken"},
		{"Teriyaki", 1200, "", "salmon"},
		{"Teriyaki", 900, "", "tofu"},
		{"Japanese Katsu Curry", 1400, "", "katsu_pork"},
		{"Japanese Katsu Curry", 1300, "", "katsu_chicken"},
		// The custom name wins over the price when it names a protein.
		{"Katsu Don", 1100, "Katsu Don (Pork)", "katsu_pork"},
		{"Pho", 1100, "", "beef"},
		{"Pho", 1000, "", "chicken"},
	}

	for _, tc := range cases {
		if got := CurrentVariantName(tc.item, tc.price, tc.custom); got != tc.want {
			t.Errorf("CurrentVariantName(%q, %d, %q) = %q, want %q", tc.item, tc.price, tc.custom, got, tc.want)
		}
	}
}

func TestProteinAlternatives_TeriyakiCarriesPerProteinPrices(t *testing.T) {
	alts := ProteinAlternatives("Teriyaki", 1000)
	if len(alts) != 2 {
		t.Fatalf("expected 2 alternatives for chicken teriyaki, got %d", len(alts))
	}

	prices := map[string]int{}
	for _, a := range alts {
		prices[a.Protein] = a.PriceCents
	}
	if prices["salmon"] != 1200 {
		t.Errorf("salmon price = %d, want 1200", prices["salmon"])
	}
	if prices["tofu"] != 900 {
		t.Errorf("tofu price = %d, want 900", prices["tofu"])
	}
}

func TestProteinAlternatives_KatsuSwapsAtOriginalPrice(t *testing.T) {
	alts := ProteinAlternatives("Japanese Katsu Curry", 1400)
	if len(alts) != 1 {
		t.Fatalf("expected 1 alternative, got %d", len(alts))
	}
	if alts[0].Protein != "katsu_chicken" || alts[0].PriceCents != 1400 {
		t.Errorf("got %s at %d, want katsu_chicken at the original 1400", alts[0].Protein, alts[0].PriceCents)
	}
}

func TestProteinAlternatives_CurrentProteinInferredFromPrice(t *testing.T) {
	// The base item name carries no protein; the price point decides which
	// variant the line currently is, matching CurrentVariantName.
	alts := ProteinAlternatives("Japanese Katsu Curry", 1300)
	if len(alts) != 1 || alts[0].Protein != "katsu_pork" {
		t.Errorf("katsu at 1300 is chicken; alternatives = %+v, want katsu_pork", alts)
	}

	alts = ProteinAlternatives("Pho", 1100)
	if len(alts) != 1 || alts[0].Protein != "chicken" {
		t.Errorf("pho at 1100 is beef; alternatives = %+v, want chicken", alts)
	}

	alts = ProteinAlternatives("Udon", 1100)
	for _, a := range alts {
		if a.Protein == "chicken" {
			t.Errorf("udon at 1100 is chicken; it must not be offered as its own alternative")
		}
	}
}

func TestSupportsProteinReplacement(t *testing.T) {
	for _, name := range []string{"Teriyaki", "Japanese Katsu Curry", "Katsu Don", "Pho", "Udon"} {
		if !SupportsProteinReplacement(name) {
			t.Errorf("%s should support protein replacement", name)
		}
	}
	if SupportsProteinReplacement("Gyoza") {
		t.Error("Gyoza should not support protein replacement")
	}
}

func TestItemSubtotalAndOrderTotal(t *testing.T) {
	o := &Order{
		Items: []Item{
			{Quantity: 2, UnitPriceCents: 1000},
			{Quantity: 1, UnitPriceCents: 1200},
		},
	}
	if got := o.ItemsTotal(); got != 3200 {
		t.Errorf("ItemsTotal = %d, want 3200", got)
	}
}
