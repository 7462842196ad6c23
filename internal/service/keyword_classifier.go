package service

import "strings"

// GeneralDepartment is the catch-all answer of the rule classifier. It is not
// a registry department and never leaves the resolver.
const GeneralDepartment = "General"

type keywordRule struct {
	department string
	keywords   []string
}

// Evaluated in order; the first rule with any hit wins.
var keywordRules = []keywordRule{
	{
		department: "Finance Department",
		keywords:   []string{"budget", "finance", "fund", "loan", "startup", "tax"},
	},
	{
		department: "School Education Department",
		keywords:   []string{"teacher", "student", "college", "university", "school", "library"},
	},
	{
		department: "Tamil Nadu Water Supply and Drainage Board",
		keywords: []string{
			"water supply", "drinking water", "water connection", "water pipeline",
			"drainage system", "sewage treatment", "water quality", "water board",
			"water tank", "water distribution", "water bill", "water meter",
			"water leakage", "sewage block", "drainage block", "sewage overflow",
		},
	},
	{
		department: "Public Works Department",
		keywords: []string{
			"bridge", "road", "pipeline", "building", "stormwater", "area", "street",
			"home", "maintenance", "borewell", "repair", "infrastructure",
			"public toilet", "canals", "irrigation",
		},
	},
}

// ClassifyByKeywords maps text to a department by substring rules, or GeneralDepartment.
func ClassifyByKeywords(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range keywordRules {
		if containsAny(lower, rule.keywords) {
			return rule.department
		}
	}
	return GeneralDepartment
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
