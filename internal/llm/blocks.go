package llm

import (
	"encoding/json"
	"sort"
	"strings"
)

// blockState accumulates the deltas for one content block, keyed by the
// provider's index rather than a single "current block" variable, so a
// turn with multiple concurrent tool_use blocks never mixes their input
// JSON together.
type blockState struct {
	index      int
	isToolUse  bool
	id, name   string
	text       strings.Builder
	inputJSON  strings.Builder
}

// Reassembler accumulates Chunks from one streamed turn into a TurnResult.
// Not safe for concurrent use — one Reassembler per turn.
type Reassembler struct {
	order      []int
	blocks     map[int]*blockState
	stopReason string
}

// NewReassembler returns an empty accumulator for one turn.
func NewReassembler() *Reassembler {
	return &Reassembler{blocks: make(map[int]*blockState)}
}

// Apply folds one Chunk into the accumulator. Safe to call with chunks
// for several indices interleaved, in the order the provider emitted them.
func (r *Reassembler) Apply(c Chunk) {
	switch c.Kind {
	case ChunkToolUseStart:
		b := r.blockFor(c.Index)
		b.isToolUse = true
		b.id = c.ToolUseID
		b.name = c.ToolUseName

	case ChunkTextDelta:
		b := r.blockFor(c.Index)
		b.text.WriteString(c.TextDelta)

	case ChunkToolUseInput:
		b := r.blockFor(c.Index)
		b.inputJSON.WriteString(c.PartialJSON)

	case ChunkToolUseStop:
		// Nothing to do: the block's content is already accumulated.

	case ChunkMessageStop:
		if c.StopReason != "" {
			r.stopReason = c.StopReason
		}
	}
}

func (r *Reassembler) blockFor(index int) *blockState {
	b, ok := r.blocks[index]
	if !ok {
		b = &blockState{index: index}
		r.blocks[index] = b
		r.order = append(r.order, index)
	}
	return b
}

// Result renders every accumulated block into a TurnResult, in ascending
// provider index order. Unparseable tool_use input (a truncated stream) yields
// an empty JSON object rather than failing the whole turn.
func (r *Reassembler) Result() TurnResult {
	ordered := append([]int(nil), r.order...)
	sort.Ints(ordered)

	var res TurnResult
	res.StopReason = r.stopReason

	var text strings.Builder
	for _, idx := range ordered {
		b := r.blocks[idx]
		if b.isToolUse {
			raw := strings.TrimSpace(b.inputJSON.String())
			if raw == "" {
				raw = "{}"
			}
			var scratch json.RawMessage
			if err := json.Unmarshal([]byte(raw), &scratch); err != nil {
				scratch = json.RawMessage("{}")
			}
			res.ToolUses = append(res.ToolUses, ToolUse{
				ID:    b.id,
				Name:  b.name,
				Input: scratch,
			})
			continue
		}
		text.WriteString(b.text.String())
	}
	res.Text = text.String()
	return res
}
