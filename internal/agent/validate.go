package agent

import "strings"

// ValidateRequirements scores a requirements artifact against the INVEST and
// SMART rubrics. The scoring is deterministic, no model calls. The thresholds
// are fixed correctness constants; tests encode them exactly.
//
// The report shape is:
//
//	{is_valid, invest_criteria: {6 keys}, smart_criteria: {5 keys},
//	 overall_score, recommendations}
//
// where each criterion is {score in [0,1], issues: [string]}.
func ValidateRequirements(art map[string]any) map[string]any {
	if art == nil {
		return map[string]any{
			"is_valid":      false,
			"overall_score": 0.0,
			"error":         "requirements artifact is nil",
			"recommendations": []string{
				"Provide a requirements artifact with acceptance criteria and functional requirements",
			},
		}
	}

	acCount := listLen(art["acceptance_criteria"])
	frCount := listLen(art["functional_requirements"])
	nfrCount := listLen(art["non_functional_requirements"])
	depCount := listLen(art["dependencies"])
	description, _ := art["description"].(string)
	businessValue, _ := art["business_value"].(string)

	// INVEST
	independent := criterion(1.0)
	if depCount > 3 {
		independent = criterionWith(0.5, "too many dependencies: story is not independently deliverable")
	}

	negotiable := criterion(1.0)

	valuable := criterion(1.0)
	if businessValue == "" && len(strings.TrimSpace(description)) < 50 {
		valuable = criterionWith(0.5, "business value missing and description too thin to infer it")
	}

	estimable := criterion(1.0)
	if frCount == 0 {
		estimable = criterionWith(0.2, "no functional requirements to estimate from")
	}

	small := criterion(1.0)
	if frCount+nfrCount > 10 {
		small = criterionWith(0.4, "more than 10 combined requirements: story should be split")
	}

	var testable map[string]any
	switch {
	case acCount == 0:
		testable = criterionWith(0.0, "no acceptance criteria: story is untestable")
	case acCount < 2:
		testable = criterionWith(0.5, "fewer than 2 acceptance criteria")
	default:
		testable = criterion(1.0)
	}

	// SMART
	specific := criterion(1.0)
	switch {
	case strings.TrimSpace(description) == "":
		specific = criterionWith(0.2, "description is empty")
	case len(strings.TrimSpace(description)) < 30:
		specific = criterionWith(0.6, "description is too short to be specific")
	}

	var measurable map[string]any
	switch {
	case acCount == 0:
		measurable = criterionWith(0.3, "no measurable acceptance criteria")
	case acCount < 2:
		measurable = criterionWith(0.7, "few measurable acceptance criteria")
	default:
		measurable = criterion(1.0)
	}

	achievable := criterion(1.0)

	relevant := criterion(1.0)
	if businessValue == "" {
		relevant = criterionWith(0.5, "business value not stated")
	}

	timeBound := criterion(1.0)
	if acCount == 0 {
		timeBound = criterionWith(0.5, "no completion criteria to bound the story")
	}

	invest := map[string]any{
		"independent": independent,
		"negotiable":  negotiable,
		"valuable":    valuable,
		"estimable":   estimable,
		"small":       small,
		"testable":    testable,
	}
	smart := map[string]any{
		"specific":   specific,
		"measurable": measurable,
		"achievable": achievable,
		"relevant":   relevant,
		"time_bound": timeBound,
	}

	all := []map[string]any{
		independent, negotiable, valuable, estimable, small, testable,
		specific, measurable, achievable, relevant, timeBound,
	}
	sum := 0.0
	for _, c := range all {
		sum += c["score"].(float64)
	}
	overall := sum / float64(len(all))

	// Critical issues compound: each one beyond the first knocks another 0.1
	// off the overall score.
	critical := 0
	if score(testable) <= 0.1 {
		critical++
	}
	if score(estimable) <= 0.3 {
		critical++
	}
	if score(specific) <= 0.3 {
		critical++
	}
	if score(valuable) <= 0.4 {
		critical++
	}
	if critical > 1 {
		overall -= 0.1 * float64(critical-1)
	}
	if overall < 0 {
		overall = 0
	}

	isValid := overall >= 0.7 && score(testable) > 0

	return map[string]any{
		"is_valid":        isValid,
		"invest_criteria": invest,
		"smart_criteria":  smart,
		"overall_score":   overall,
		"recommendations": recommendations(all),
	}
}

func criterion(s float64) map[string]any {
	return map[string]any{"score": s, "issues": []string{}}
}

func criterionWith(s float64, issues ...string) map[string]any {
	return map[string]any{"score": s, "issues": issues}
}

func score(c map[string]any) float64 {
	return c["score"].(float64)
}

func recommendations(criteria []map[string]any) []string {
	var recs []string
	for _, c := range criteria {
		issues, _ := c["issues"].([]string)
		for _, issue := range issues {
			recs = append(recs, "Address: "+issue)
		}
	}
	if recs == nil {
		recs = []string{}
	}
	return recs
}

// listLen returns the length of a decoded JSON list, tolerating both []any
// and []string, and 0 for anything else.
func listLen(v any) int {
	switch list := v.(type) {
	case []any:
		return len(list)
	case []string:
		return len(list)
	default:
		return 0
	}
}
