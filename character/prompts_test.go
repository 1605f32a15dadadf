package character

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThoBustos/tinyworld/core"
)

func TestFormatMemories_Empty(t *testing.T) {
	out := FormatMemories(nil)
	assert.Contains(t, out, "first reflection")
}

func TestFormatMemories_NumberedChronological(t *testing.T) {
	ts := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	out := FormatMemories([]core.WindowEntry{
		{Text: "I wonder where I am.", Timestamp: ts},
		{Text: "The light shifts.", Timestamp: ts.Add(time.Minute)},
	})
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "1. [09:30:00]"))
	assert.True(t, strings.HasPrefix(lines[1], "2. [09:31:00]"))
	assert.Contains(t, lines[0], "I wonder where I am.")
}

func TestReflectionPrompt_AllPlaceholdersFilled(t *testing.T) {
	id := Socrates()
	out, err := ReflectionPrompt(id, "1. \"a thought\"", "A stone courtyard at dusk.", 300)
	require.NoError(t, err)
	assert.Contains(t, out, "Socrates")
	assert.Contains(t, out, "A stone courtyard at dusk.")
	assert.Contains(t, out, `"wants_to_move"`)
	assert.NotContains(t, out, "{{")
}

func TestMovementPrompt_IncludesBoundsAndRadius(t *testing.T) {
	out, err := MovementPrompt(Socrates(), "I must see the fountain.", core.Point{X: 640, Y: 360}, core.Bounds{Width: 1280, Height: 1280}, 300)
	require.NoError(t, err)
	assert.Contains(t, out, "(640, 360)")
	assert.Contains(t, out, "0..1280")
	assert.Contains(t, out, "300 units")
}
