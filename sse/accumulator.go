// Package sse reassembles OpenAI-style streaming chat completions from raw
// server-sent-event bytes. Network reads can split events anywhere, including
// mid-JSON; the accumulator buffers partial lines across feeds and only
// consumes an event once it parses.
package sse

import (
	"encoding/json"
	"io"
	"strings"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// chunkPayload mirrors the delta frames of a streaming chat completion.
type chunkPayload struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// Accumulator rebuilds the full answer text from SSE bytes fed to it in
// arbitrary slices. It is not safe for concurrent use.
type Accumulator struct {
	buffer   string
	answer   strings.Builder
	done     bool
	onUpdate func(answer string)
}

// NewAccumulator creates an Accumulator. onUpdate, if non-nil, is invoked
// with the cumulative answer after every frame that contributed content.
func NewAccumulator(onUpdate func(answer string)) *Accumulator {
	return &Accumulator{onUpdate: onUpdate}
}

// Feed consumes the next slice of raw bytes from the stream. Slices may split
// events at any byte position; incomplete trailing data is held until the
// next feed. Feeding after the [DONE] sentinel is a no-op.
func (a *Accumulator) Feed(data []byte) {
	if a.done {
		return
	}
	a.buffer += string(data)

	for {
		idx := strings.IndexByte(a.buffer, '\n')
		if idx < 0 {
			return
		}
		line := strings.TrimSuffix(a.buffer[:idx], "\r")
		rest := a.buffer[idx+1:]

		if !strings.HasPrefix(line, dataPrefix) {
			// Blank keep-alive lines and comment lines are discarded.
			a.buffer = rest
			continue
		}

		payload := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
		if payload == doneSentinel {
			a.done = true
			a.buffer = ""
			return
		}

		var frame chunkPayload
		if err := json.Unmarshal([]byte(payload), &frame); err != nil {
			// A data line that does not parse was split mid-JSON by the
			// transport. Push it back and wait for the remainder.
			a.buffer = line + "\n" + rest
			return
		}
		a.buffer = rest

		for _, choice := range frame.Choices {
			if choice.Delta.Content != "" {
				a.answer.WriteString(choice.Delta.Content)
				if a.onUpdate != nil {
					a.onUpdate(a.answer.String())
				}
			}
		}
	}
}

// Answer returns the cumulative answer text assembled so far.
func (a *Accumulator) Answer() string {
	return a.answer.String()
}

// Done reports whether the [DONE] sentinel has been seen.
func (a *Accumulator) Done() bool {
	return a.done
}

// Consume reads r to EOF through the accumulator and returns the final
// answer. It returns whatever was assembled alongside any read error.
func (a *Accumulator) Consume(r io.Reader) (string, error) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			a.Feed(buf[:n])
		}
		if err == io.EOF {
			return a.Answer(), nil
		}
		if err != nil {
			return a.Answer(), err
		}
	}
}
