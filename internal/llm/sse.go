package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
)

// wireEvent mirrors the subset of Anthropic's Messages-API SSE payload
// shapes this client needs (content_block_start/delta/stop, message_stop,
// error). Unused fields are left absent rather than decoded.
type wireEvent struct {
	Type         string             `json:"type"`
	Index        *int               `json:"index"`
	ContentBlock *wireContentBlock  `json:"content_block"`
	Delta        *wireDelta         `json:"delta"`
	Error        *wireError         `json:"error"`
}

type wireContentBlock struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

type wireDelta struct {
	Type        string `json:"type"`
	Text        string `json:"text"`
	PartialJSON string `json:"partial_json"`
	StopReason  string `json:"stop_reason"`
}

type wireError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// streamSSE reads an Anthropic-shaped SSE body line by line and emits one
// Chunk per event of interest on out. It returns when the stream ends
// (message_stop, EOF, or a wire-level error event), or when ctx is
// cancelled. The caller owns closing out after streamSSE returns.
func streamSSE(ctx context.Context, body io.Reader, out chan<- Chunk) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var eventType string
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
			continue
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimPrefix(line, "event:")
			continue
		case !strings.HasPrefix(line, "data:"):
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}

		var ev wireEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			continue
		}
		if ev.Type == "" {
			ev.Type = eventType
		}

		chunk, ok := translate(ev)
		if !ok {
			continue
		}
		select {
		case out <- chunk:
		case <-ctx.Done():
			return ctx.Err()
		}
		if chunk.Kind == ChunkMessageStop || chunk.Kind == ChunkError {
			return nil
		}
	}
	return scanner.Err()
}

// translate converts one wire event into a Chunk, keyed by the provider's
// block index so a turn with several concurrent tool_use blocks doesn't
// get its deltas interleaved incorrectly.
func translate(ev wireEvent) (Chunk, bool) {
	index := -1
	if ev.Index != nil {
		index = *ev.Index
	}

	switch ev.Type {
	case "content_block_start":
		if ev.ContentBlock == nil {
			return Chunk{}, false
		}
		if ev.ContentBlock.Type == "tool_use" {
			return Chunk{
				Kind:        ChunkToolUseStart,
				Index:       index,
				ToolUseID:   ev.ContentBlock.ID,
				ToolUseName: ev.ContentBlock.Name,
			}, true
		}
		return Chunk{}, false

	case "content_block_delta":
		if ev.Delta == nil {
			return Chunk{}, false
		}
		switch ev.Delta.Type {
		case "text_delta":
			if ev.Delta.Text == "" {
				return Chunk{}, false
			}
			return Chunk{Kind: ChunkTextDelta, Index: index, TextDelta: ev.Delta.Text}, true
		case "input_json_delta":
			return Chunk{Kind: ChunkToolUseInput, Index: index, PartialJSON: ev.Delta.PartialJSON}, true
		}
		return Chunk{}, false

	case "content_block_stop":
		return Chunk{Kind: ChunkToolUseStop, Index: index}, true

	case "message_delta":
		if ev.Delta != nil && ev.Delta.StopReason != "" {
			return Chunk{Kind: ChunkMessageStop, Index: index, StopReason: ev.Delta.StopReason}, true
		}
		return Chunk{}, false

	case "message_stop":
		return Chunk{Kind: ChunkMessageStop, Index: index}, true

	case "error":
		msg := "stream error"
		if ev.Error != nil && ev.Error.Message != "" {
			msg = ev.Error.Message
		}
		return Chunk{Kind: ChunkError, Index: index, Err: &sseError{msg: msg}}, true
	}
	return Chunk{}, false
}

type sseError struct{ msg string }

func (e *sseError) Error() string { return e.msg }
