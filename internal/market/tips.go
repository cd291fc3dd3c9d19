package market

type FarmTip struct {
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Content  []string `json:"content"`
}

var tips = []FarmTip{
	{"Water Quality Management", "Essential", []string{
		"Maintain pH between 6.5-8.5 for optimal growth",
		"Test dissolved oxygen levels daily, keep above 5mg/L",
		"Change 10-20% of pond water weekly",
		"Use aeration systems during hot seasons",
	}},
	{"Feeding Best Practices", "Nutrition", []string{
		"Feed 2-3% of total fish body weight per day",
		"Split feeding into 2-3 sessions daily",
		"Use high-protein feeds (30-35%) for fingerlings",
		"Reduce feed during cold weather or low oxygen",
	}},
	{"Temperature Control", "Environment", []string{
		"Optimal range: 25°C - 30°C for fastest growth",
		"Use shade nets during extreme heat",
		"Deep ponds (1.5m+) maintain more stable temperatures",
		"Monitor morning temperatures, the coldest point of day",
	}},
	{"Pond Construction Tips", "Infrastructure", []string{
		"Recommended size: 300-500 m² for beginners",
		"Ideal depth: 1.0-1.5 meters",
		"Include inlet and outlet pipes for water flow",
		"Line with clay or HDPE liner to prevent seepage",
	}},
	{"Biosecurity Measures", "Health", []string{
		"Quarantine new fish for 2 weeks before adding to pond",
		"Disinfect equipment between ponds",
		"Install bird nets to prevent predator access",
		"Keep records of all fish movements and treatments",
	}},
	{"Maximizing Profit", "Business", []string{
		"Harvest at 300-500g for best market price in Kenya",
		"Sell directly to consumers for 40% higher margins",
		"Stagger stocking to have continuous harvests",
		"Value-add: sell smoked or filleted tilapia",
	}},
}

// Tips returns the farm tips. A non-empty category filters, case-sensitive.
func Tips(category string) []FarmTip {
	var out []FarmTip
	for _, t := range tips {
		if category == "" || t.Category == category {
			out = append(out, t)
		}
	}
	return out
}
