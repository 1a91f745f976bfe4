package windowing

import "github.com/anthropics/anthropic-sdk-go"

// Kind denotes the atomic unit type of a send window.
type Kind int

const (
	Single Kind = iota
	ToolPair
)

// Demotion reasons for an assistant tool_use message that could not be paired.
const (
	ReasonNotFollowedByUser = "not_followed_by_user"
	ReasonOrderingInvalid   = "ordering_invalid"
	ReasonMissingResults    = "missing_results"
	ReasonExtraResults      = "extra_results"
)

// Group is the contiguous span msgs[Start:End]. Demoted is set on a Single
// that carries tool_use blocks but failed pair validation.
type Group struct {
	Kind    Kind
	Start   int
	End     int
	Demoted string
}

// Partition splits msgs into groups, oldest first.
//
// A ToolPair is exactly an assistant message with tool_use blocks followed by a
// user message whose leading blocks are tool_results answering every tool_use
// id and no other. Text may follow the results. Error results pair like any other.
func Partition(msgs []anthropic.MessageParam) []Group {
	groups := make([]Group, 0, len(msgs))
	for i := 0; i < len(msgs); i++ {
		uses := toolUseIDs(msgs[i])
		if msgs[i].Role != anthropic.MessageParamRoleAssistant || len(uses) == 0 {
			groups = append(groups, Group{Kind: Single, Start: i, End: i + 1})
			continue
		}
		reason := ReasonNotFollowedByUser
		if i+1 < len(msgs) && msgs[i+1].Role == anthropic.MessageParamRoleUser {
			reason = answers(msgs[i+1], uses)
		}
		if reason == "" {
			groups = append(groups, Group{Kind: ToolPair, Start: i, End: i + 2})
			i++
			continue
		}
		groups = append(groups, Group{Kind: Single, Start: i, End: i + 1, Demoted: reason})
	}
	return groups
}

func toolUseIDs(m anthropic.MessageParam) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, blk := range m.Content {
		if tu := blk.OfToolUse; tu != nil && tu.ID != "" {
			ids[tu.ID] = struct{}{}
		}
	}
	return ids
}

// answers returns "" when reply's leading tool_result blocks cover exactly uses,
// or the demotion reason otherwise.
func answers(reply anthropic.MessageParam, uses map[string]struct{}) string {
	results := make(map[string]struct{})
	pastResults := false
	for _, blk := range reply.Content {
		tr := blk.OfToolResult
		if tr == nil {
			pastResults = true
			continue
		}
		if pastResults {
			return ReasonOrderingInvalid
		}
		if tr.ToolUseID != "" {
			results[tr.ToolUseID] = struct{}{}
		}
	}
	for id := range uses {
		if _, ok := results[id]; !ok {
			return ReasonMissingResults
		}
	}
	for id := range results {
		if _, ok := uses[id]; !ok {
			return ReasonExtraResults
		}
	}
	return ""
}
