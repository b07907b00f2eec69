package ports

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFullPrompt(t *testing.T) {
	t.Run("no context returns the bare prompt", func(t *testing.T) {
		req := &CompletionRequest{Prompt: "do the thing"}
		assert.Equal(t, "do the thing", req.FullPrompt())
	})

	t.Run("context keys render in sorted order", func(t *testing.T) {
		req := &CompletionRequest{
			Prompt: "combine",
			Context: map[string]string{
				"zeta":  "last",
				"alpha": "first",
			},
		}
		want := "Context from completed subtasks:\n\n" +
			"[alpha]\nfirst\n\n" +
			"[zeta]\nlast\n\n" +
			"Task:\ncombine"
		assert.Equal(t, want, req.FullPrompt())
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		req := &CompletionRequest{
			Prompt:  "combine",
			Context: map[string]string{"a": "1", "b": "2", "c": "3", "d": "4"},
		}
		first := req.FullPrompt()
		for i := 0; i < 50; i++ {
			assert.Equal(t, first, req.FullPrompt())
		}
	})
}
