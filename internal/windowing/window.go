package windowing

import "github.com/anthropics/anthropic-sdk-go"

// Stats summarizes one Fit call.
type Stats struct {
	Total            int  // estimated cost of the included groups
	Budget           int
	IncludedGroups   int
	SkippedGroups    int
	DemotedPairs     int
	OverBudgetNewest bool // the newest group alone exceeds Budget
}

// Fit returns the longest suffix of msgs made of whole groups whose estimated
// cost fits budget. The returned slice shares msgs' backing array.
// The window always opens with a user message; leading groups that start
// with an assistant message are dropped. When nothing remains, the window is
// empty and OverBudgetNewest is set.
func Fit(msgs []anthropic.MessageParam, budget int, c Counter) ([]anthropic.MessageParam, Stats) {
	stats := Stats{Budget: budget}
	if len(msgs) == 0 {
		return nil, stats
	}

	groups := Partition(msgs)
	for _, g := range groups {
		if g.Demoted != "" {
			stats.DemotedPairs++
		}
	}
	if budget <= 0 {
		stats.SkippedGroups = len(groups)
		stats.OverBudgetNewest = true
		return nil, stats
	}

	start := len(groups)
	for i := len(groups) - 1; i >= 0; i-- {
		cost := Cost(c, msgs, groups[i])
		if stats.Total+cost > budget {
			break
		}
		stats.Total += cost
		start = i
	}
	for start < len(groups) && msgs[groups[start].Start].Role != anthropic.MessageParamRoleUser {
		stats.Total -= Cost(c, msgs, groups[start])
		start++
	}

	stats.IncludedGroups = len(groups) - start
	stats.SkippedGroups = start
	if stats.IncludedGroups == 0 {
		stats.OverBudgetNewest = true
		return nil, stats
	}
	return msgs[groups[start].Start:], stats
}
