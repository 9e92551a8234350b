package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/financetree/branch"
)

func TestErrorRenderer(t *testing.T) {
	t.Run("WithHint", func(t *testing.T) {
		out := NewErrorRenderer(true).Render(&branch.NotFoundError{From: branch.RootPath(), Spec: "Rent"})
		assert.Contains(t, out, `HOME: no such branch "Rent"`)
		assert.Contains(t, out, "Use ls to list")
	})

	t.Run("WithoutHint", func(t *testing.T) {
		out := NewErrorRenderer(false).Render(&branch.NotFoundError{Spec: "Rent"})
		assert.Contains(t, out, `no such branch "Rent"`)
		assert.NotContains(t, out, "Use ls")
	})

	t.Run("PlainError", func(t *testing.T) {
		out := NewErrorRenderer(true).Render(errors.New("boom"))
		assert.Contains(t, out, "boom")
		assert.False(t, strings.Contains(out, "\n"))
	})

	t.Run("Nil", func(t *testing.T) {
		assert.Equal(t, "", NewErrorRenderer(true).Render(nil))
	})

	t.Run("All", func(t *testing.T) {
		out := NewErrorRenderer(false).RenderAll([]error{errors.New("one"), errors.New("two")})
		one, two, found := strings.Cut(out, "\n\n")
		assert.True(t, found)
		assert.Contains(t, one, "one")
		assert.Contains(t, two, "two")
	})
}
