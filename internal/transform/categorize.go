package transform

import "strings"

// categoryRule maps one category onto its matching keywords.
type categoryRule struct {
	Category string
	Keywords []string
}

// categoryRules is evaluated in order for every record; each keyword hit
// overwrites the previous one, so the effective semantics are
// last-match-wins across categories in table order.
var categoryRules = []categoryRule{
	{"Office Supplies", []string{"office", "supplies", "stationery", "paper", "pens"}},
	{"Travel", []string{"travel", "hotel", "flight", "taxi", "uber", "lyft", "mileage"}},
	{"Marketing", []string{"marketing", "advertising", "promotion", "social media", "campaign"}},
	{"Software", []string{"software", "license", "subscription", "saas", "cloud"}},
	{"Utilities", []string{"electricity", "water", "gas", "internet", "phone", "utility"}},
	{"Rent", []string{"rent", "lease", "office space", "warehouse"}},
	{"Professional Services", []string{"legal", "accounting", "consulting", "audit", "lawyer"}},
	{"Equipment", []string{"equipment", "computer", "laptop", "printer", "furniture"}},
	{"Insurance", []string{"insurance", "premium", "coverage"}},
	{"Training", []string{"training", "course", "education", "conference", "seminar"}},
}

// fallbackCategory is assigned when no keyword matches and the input carries
// no explicit category.
const fallbackCategory = "Other"

// categorize derives AutoCategory from the description and resolves
// FinalCategory: an explicit input category wins, then the keyword match,
// then the fallback.
func categorize(n *Normalized) {
	desc := strings.ToLower(n.Description)

	n.AutoCategory = fallbackCategory
	for _, rule := range categoryRules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(desc, keyword) {
				n.AutoCategory = rule.Category
			}
		}
	}

	switch {
	case n.Category != "":
		n.FinalCategory = titleCase(n.Category)
	default:
		n.FinalCategory = n.AutoCategory
	}
}
