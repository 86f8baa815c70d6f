package sse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deltaFrame(content string) string {
	return `data: {"choices":[{"delta":{"content":"` + content + `"},"finish_reason":null}]}` + "\n"
}

func TestAccumulator(t *testing.T) {
	t.Run("assembles answer from complete frames", func(t *testing.T) {
		acc := NewAccumulator(nil)

		acc.Feed([]byte(deltaFrame("Hel")))
		acc.Feed([]byte(deltaFrame("lo")))
		acc.Feed([]byte("data: [DONE]\n"))

		assert.Equal(t, "Hello", acc.Answer())
		assert.True(t, acc.Done())
	})

	t.Run("handles byte-at-a-time delivery", func(t *testing.T) {
		acc := NewAccumulator(nil)
		stream := deltaFrame("Hello") + deltaFrame(" world") + "data: [DONE]\n"

		for i := 0; i < len(stream); i++ {
			acc.Feed([]byte{stream[i]})
		}

		assert.Equal(t, "Hello world", acc.Answer())
		assert.True(t, acc.Done())
	})

	t.Run("holds a frame split mid-JSON until the remainder arrives", func(t *testing.T) {
		acc := NewAccumulator(nil)
		frame := deltaFrame("token")
		cut := strings.Index(frame, "content") + 3

		acc.Feed([]byte(frame[:cut]))
		assert.Equal(t, "", acc.Answer())

		acc.Feed([]byte(frame[cut:]))
		assert.Equal(t, "token", acc.Answer())
	})

	t.Run("ignores comments blank lines and foreign fields", func(t *testing.T) {
		acc := NewAccumulator(nil)

		acc.Feed([]byte(": keep-alive\n\nevent: ping\n"))
		acc.Feed([]byte(deltaFrame("ok")))
		acc.Feed([]byte("\n: another comment\ndata: [DONE]\n"))

		assert.Equal(t, "ok", acc.Answer())
		assert.True(t, acc.Done())
	})

	t.Run("strips carriage returns", func(t *testing.T) {
		acc := NewAccumulator(nil)
		frame := strings.TrimSuffix(deltaFrame("crlf"), "\n") + "\r\n"

		acc.Feed([]byte(frame))
		acc.Feed([]byte("data: [DONE]\r\n"))

		assert.Equal(t, "crlf", acc.Answer())
		assert.True(t, acc.Done())
	})

	t.Run("skips frames with empty delta content", func(t *testing.T) {
		acc := NewAccumulator(nil)

		acc.Feed([]byte(`data: {"choices":[{"delta":{},"finish_reason":"stop"}]}` + "\n"))
		acc.Feed([]byte(deltaFrame("text")))

		assert.Equal(t, "text", acc.Answer())
	})

	t.Run("ignores input after the done sentinel", func(t *testing.T) {
		acc := NewAccumulator(nil)

		acc.Feed([]byte(deltaFrame("final")))
		acc.Feed([]byte("data: [DONE]\n"))
		acc.Feed([]byte(deltaFrame("late")))

		assert.Equal(t, "final", acc.Answer())
	})

	t.Run("invokes callback with cumulative answer", func(t *testing.T) {
		var updates []string
		acc := NewAccumulator(func(answer string) {
			updates = append(updates, answer)
		})

		acc.Feed([]byte(deltaFrame("a") + deltaFrame("b") + deltaFrame("c")))

		assert.Equal(t, []string{"a", "ab", "abc"}, updates)
	})
}

func TestAccumulatorConsume(t *testing.T) {
	t.Run("reads a full stream to completion", func(t *testing.T) {
		stream := deltaFrame("The ") + deltaFrame("answer") + "data: [DONE]\n"
		acc := NewAccumulator(nil)

		answer, err := acc.Consume(strings.NewReader(stream))

		require.NoError(t, err)
		assert.Equal(t, "The answer", answer)
		assert.True(t, acc.Done())
	})

	t.Run("returns partial answer when the stream ends early", func(t *testing.T) {
		acc := NewAccumulator(nil)

		answer, err := acc.Consume(strings.NewReader(deltaFrame("partial")))

		require.NoError(t, err)
		assert.Equal(t, "partial", answer)
		assert.False(t, acc.Done())
	})
}
