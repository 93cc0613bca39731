package order

import "strings"

// Pure display and pricing helpers for the menu's protein-variant dishes.
//
// Older order lines carry no explicit variant, only a unit-price snapshot, so
// the variant is reconstructed from the dish's known price points (teriyaki:
// 1000 chicken, 1200 salmon, 900 tofu, and so on). Two variants sharing a
// price point fall back to a default protein; lines written since store
// variant_name explicitly and never hit the fallback.

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// DisplayName derives the customer-facing name of a line from the base item
// name and its unit-price snapshot.
func DisplayName(baseName string, priceCents int) string {
	name := strings.ToLower(baseName)

	if strings.Contains(name, "teriyaki") {
		switch priceCents {
		case 1000:
			return "Teriyaki Chicken"
		case 1200:
			return "Teriyaki Salmon"
		case 900:
			return "Teriyaki Tofu"
		}
		return baseName
	}

	if strings.Contains(name, "katsu curry") {
		switch priceCents {
		case 1400:
			return "Katsu Curry Pork"
		case 1300:
			return "Katsu Curry Chicken"
		}
		return baseName
	}

	if strings.Contains(name, "katsu don") {
		switch priceCents {
		case 1200:
			return "Katsu Don Pork"
		case 1100:
			return "Katsu Don Chicken"
		}
		return baseName
	}

	if strings.Contains(name, "pho") {
		switch priceCents {
		case 1100:
			return "Pho Beef"
		case 1000:
			return "Pho Chicken"
		}
		return baseName
	}

	if strings.Contains(name, "udon") {
		switch priceCents {
		case 1200:
			return "Udon Beef"
		case 1100:
			return "Udon Chicken"
		case 1000:
			return "Udon Tofu"
		}
		return baseName
	}

	return baseName
}

// VariantDisplayName formats the customer-facing name for an explicit
// variant choice, per dish family.
func VariantDisplayName(baseName, variantName string, priceCents int) string {
	name := strings.ToLower(baseName)

	if strings.Contains(name, "teriyaki") {
		return "Teriyaki " + capitalize(variantName)
	}

	if strings.Contains(name, "katsu curry") {
		return "Japanese Katsu Curry (" + capitalize(variantName) + ")"
	}

	if strings.Contains(name, "katsu don") {
		return "Katsu Don (" + capitalize(strings.Replace(variantName, "don_", "", 1)) + ")"
	}

	if strings.Contains(name, "curry udon") {
		formatted := strings.Replace(variantName, "katsu_", "Katsu ", 1)
		formatted = strings.Replace(formatted, "_", " ", 1)
		return "Curry Udon (" + capitalize(formatted) + ")"
	}

	if strings.Contains(name, "pho") {
		return "Pho (" + capitalize(variantName) + ")"
	}

	if strings.Contains(name, "udon") && !strings.Contains(name, "curry") {
		display := capitalize(variantName)
		if variantName == "shrimp_tempura" {
			display = "Shrimp Tempura"
		}
		return "Udon (" + display + ")"
	}

	if strings.Contains(name, "katsu sando") {
		protein := strings.Replace(variantName, "katsu_", "", 1)
		return "Katsu Sando (" + capitalize(protein) + ")"
	}

	if strings.Contains(name, "onigiri") {
		display := capitalize(variantName)
		if variantName == "chicken_karaage" {
			display = "Chicken Karaage"
		}
		return "Onigiri (" + display + ")"
	}

	return baseName + " (" + capitalize(variantName) + ")"
}

// CurrentVariantName reconstructs which variant a stored line represents. An
// explicit custom name wins over price inference; ambiguous prices fall back
// to the dish's default protein.
func CurrentVariantName(itemName string, priceCents int, customName string) string {
	name := strings.ToLower(itemName)
	custom := strings.ToLower(customName)

	if strings.Contains(name, "teriyaki") {
		switch priceCents {
		case 1200:
			return "salmon"
		case 900:
			return "tofu"
		}
		return "chicken"
	}

	if strings.Contains(name, "katsu curry") || strings.Contains(name, "katsu don") || strings.Contains(name, "curry udon") {
		if strings.Contains(custom, "pork") {
			return "katsu_pork"
		}
		if strings.Contains(custom, "chicken") {
			return "katsu_chicken"
		}
		if priceCents > 1300 || strings.Contains(name, "pork") {
			return "katsu_pork"
		}
		return "katsu_chicken"
	}

	if strings.Contains(name, "pho") {
		if priceCents == 1100 {
			return "beef"
		}
		return "chicken"
	}

	if strings.Contains(name, "udon") && !strings.Contains(name, "curry") {
		switch priceCents {
		case 1200:
			return "beef"
		case 1100:
			return "chicken"
		case 1000:
			return "tofu"
		}
		return "shrimp_tempura"
	}

	if strings.Contains(name, "katsu sando") {
		if strings.Contains(name, "pork") {
			return "katsu_pork"
		}
		return "katsu_chicken"
	}

	if strings.Contains(name, "onigiri") {
		if strings.Contains(name, "tuna") {
			return "tuna"
		}
		if strings.Contains(name, "chicken") {
			return "chicken_karaage"
		}
		return "salmon"
	}

	return "chicken"
}

// ProteinAlternative is a same-dish protein swap candidate with its price.
type ProteinAlternative struct {
	Protein    string `json:"protein"`
	Name       string `json:"name"`
	PriceCents int    `json:"price_cents"`
}

// ProteinAlternatives lists the other proteins a dish can be made with.
// Teriyaki carries per-protein prices; the katsu, pho and udon families swap
// at the original price.
func ProteinAlternatives(itemName string, currentPriceCents int) []ProteinAlternative {
	name := strings.ToLower(itemName)

	if strings.Contains(name, "teriyaki") {
		current := "chicken"
		switch currentPriceCents {
		case 1200:
			current = "salmon"
		case 900:
			current = "tofu"
		}

		prices := map[string]int{"chicken": 1000, "salmon": 1200, "tofu": 900}
		var out []ProteinAlternative
		for _, protein := range []string{"chicken", "salmon", "tofu"} {
			if protein == current {
				continue
			}
			out = append(out, ProteinAlternative{
				Protein:    protein,
				Name:       "Teriyaki " + capitalize(protein),
				PriceCents: prices[protein],
			})
		}
		return out
	}

	if strings.Contains(name, "katsu curry") || strings.Contains(name, "katsu don") || strings.Contains(name, "curry udon") {
		// The item name rarely carries the protein; infer it from the
		// price point like CurrentVariantName does.
		current := CurrentVariantName(itemName, currentPriceCents, "")
		other := "katsu_pork"
		if current == "katsu_pork" {
			other = "katsu_chicken"
		}

		dishType := "Curry Udon"
		if strings.Contains(name, "katsu curry") {
			dishType = "Japanese Katsu Curry"
		} else if strings.Contains(name, "katsu don") {
			dishType = "Katsu Don"
		}

		protein := strings.Replace(other, "katsu_", "", 1)
		return []ProteinAlternative{{
			Protein:    other,
			Name:       dishType + " (" + capitalize(protein) + ")",
			PriceCents: currentPriceCents,
		}}
	}

	if strings.Contains(name, "pho") {
		current := CurrentVariantName(itemName, currentPriceCents, "")
		other := "beef"
		if current == "beef" {
			other = "chicken"
		}
		return []ProteinAlternative{{
			Protein:    other,
			Name:       "Pho (" + capitalize(other) + ")",
			PriceCents: currentPriceCents,
		}}
	}

	if strings.Contains(name, "udon") && !strings.Contains(name, "curry") {
		current := CurrentVariantName(itemName, currentPriceCents, "")

		var out []ProteinAlternative
		for _, protein := range []string{"chicken", "beef", "shrimp_tempura", "tofu"} {
			if protein == current {
				continue
			}
			display := capitalize(protein)
			if protein == "shrimp_tempura" {
				display = "Shrimp Tempura"
			}
			out = append(out, ProteinAlternative{
				Protein:    protein,
				Name:       "Udon (" + display + ")",
				PriceCents: currentPriceCents,
			})
		}
		return out
	}

	return nil
}

// SupportsProteinReplacement reports whether a dish family offers
// protein-only substitution.
func SupportsProteinReplacement(itemName string) bool {
	name := strings.ToLower(itemName)
	return strings.Contains(name, "teriyaki") ||
		strings.Contains(name, "katsu curry") ||
		strings.Contains(name, "katsu don") ||
		strings.Contains(name, "pho") ||
		strings.Contains(name, "udon")
}
