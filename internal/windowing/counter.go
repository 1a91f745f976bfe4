package windowing

import (
	"unicode/utf8"

	"github.com/anthropics/anthropic-sdk-go"
)

// Counter estimates the input-token cost of a message.
type Counter interface {
	Count(m anthropic.MessageParam) int
}

// Heuristic is a deterministic estimator: runes of text and tool_result text,
// plus a fixed overhead per content block. Other block kinds cost the overhead only.
type Heuristic struct{}

// BlockOverhead is added once per content block.
const BlockOverhead = 4

func (Heuristic) Count(m anthropic.MessageParam) int {
	total := 0
	for _, blk := range m.Content {
		total += BlockOverhead + blockRunes(blk)
	}
	return total
}

func blockRunes(blk anthropic.ContentBlockParamUnion) int {
	if tb := blk.OfText; tb != nil {
		return utf8.RuneCountInString(tb.Text)
	}
	tr := blk.OfToolResult
	if tr == nil {
		return 0
	}
	n := 0
	for _, c := range tr.Content {
		if ct := c.OfText; ct != nil {
			n += utf8.RuneCountInString(ct.Text)
		}
	}
	return n
}

// Cost sums the counter over the messages of g.
func Cost(c Counter, msgs []anthropic.MessageParam, g Group) int {
	total := 0
	for i := g.Start; i < g.End && i < len(msgs); i++ {
		total += c.Count(msgs[i])
	}
	return total
}
