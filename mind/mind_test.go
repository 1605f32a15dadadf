package mind

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThoBustos/tinyworld/character"
	"github.com/ThoBustos/tinyworld/core"
	"github.com/ThoBustos/tinyworld/model"
)

var testBounds = core.Bounds{Width: 1280, Height: 1280}

func TestReflectionEngine_ParsesStructuredResult(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.Enqueue(`{"message": "What is this stone beneath my feet?", "wants_to_move": true}`)

	e := NewReflectionEngine(llm, character.Socrates())
	res := e.Reflect(context.Background(), nil, NoVisualInput)

	assert.Equal(t, "What is this stone beneath my feet?", res.Message)
	assert.True(t, res.WantsToMove)
	assert.False(t, res.Fallback)
}

func TestReflectionEngine_StripsMarkdownFences(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.Enqueue("```json\n{\"message\": \"The air tastes of dust.\", \"wants_to_move\": false}\n```")

	res := NewReflectionEngine(llm, character.Socrates()).Reflect(context.Background(), nil, NoVisualInput)
	assert.Equal(t, "The air tastes of dust.", res.Message)
	assert.False(t, res.WantsToMove)
}

func TestReflectionEngine_FallbackOnModelError(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.Err = errors.New("quota exceeded")

	res := NewReflectionEngine(llm, character.Socrates()).Reflect(context.Background(), nil, NoVisualInput)

	assert.Equal(t, FallbackReflection, res.Message)
	assert.False(t, res.WantsToMove)
	assert.True(t, res.Fallback)
}

func TestReflectionEngine_FallbackOnInvalidJSON(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.Enqueue("I simply refuse to answer in JSON.")

	res := NewReflectionEngine(llm, character.Socrates()).Reflect(context.Background(), nil, NoVisualInput)
	assert.True(t, res.Fallback)
	assert.Equal(t, FallbackReflection, res.Message)
}

func TestReflectionEngine_FallbackOnSchemaViolation(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.Enqueue(`{"message": "missing the flag"}`)

	res := NewReflectionEngine(llm, character.Socrates()).Reflect(context.Background(), nil, NoVisualInput)
	assert.True(t, res.Fallback)
}

func TestReflectionEngine_BoundsContextEntries(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.Enqueue(`{"message": "ok", "wants_to_move": false}`)

	e := NewReflectionEngine(llm, character.Socrates(), func(o *ReflectionEngineOptions) {
		o.ContextEntries = 2
	})

	entries := []core.WindowEntry{
		{Text: "oldest", Timestamp: time.Now()},
		{Text: "middle", Timestamp: time.Now()},
		{Text: "newest", Timestamp: time.Now()},
	}
	e.Reflect(context.Background(), entries, NoVisualInput)

	require.Len(t, llm.Requests, 1)
	prompt := llm.Requests[0].Prompt
	assert.NotContains(t, prompt, "oldest")
	assert.Contains(t, prompt, "middle")
	assert.Contains(t, prompt, "newest")
}

func TestVisionExtractor_ReturnsDescription(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.Enqueue("A moonlit courtyard with a dry fountain.")

	v := NewVisionExtractor(llm)
	desc := v.Describe(context.Background(), []byte{0x89, 0x50}, "image/png")
	assert.Equal(t, "A moonlit courtyard with a dry fountain.", desc)

	require.Len(t, llm.Requests, 1)
	assert.NotEmpty(t, llm.Requests[0].Image)
	assert.Equal(t, "image/png", llm.Requests[0].ImageMIME)
}

func TestVisionExtractor_FallbackOnError(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.Err = errors.New("boom")
	desc := NewVisionExtractor(llm).Describe(context.Background(), []byte{1}, "image/png")
	assert.Equal(t, FallbackVision, desc)
}

func TestVisionExtractor_FallbackOnEmpty(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.Enqueue("   ")
	desc := NewVisionExtractor(llm).Describe(context.Background(), []byte{1}, "image/png")
	assert.Equal(t, FallbackVision, desc)
}

func TestMovementPlanner_ValidTarget(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.Enqueue(`{"x": 700, "y": 420, "reason": "the fountain calls to me"}`)

	p := NewMovementPlanner(llm, character.Socrates(), testBounds)
	dec := p.Plan(context.Background(), core.Point{X: 640, Y: 360}, "I must see the fountain.", []byte{1}, "image/png")

	require.NotNil(t, dec)
	assert.True(t, dec.WantsToMove)
	require.NotNil(t, dec.Target)
	assert.Equal(t, 700.0, dec.Target.X)
	assert.Equal(t, 420.0, dec.Target.Y)
	assert.Equal(t, "the fountain calls to me", dec.Reason)
}

func TestMovementPlanner_DropsOutOfBoundsTarget(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.Enqueue(`{"x": 5000, "y": 420, "reason": "beyond the edge"}`)

	p := NewMovementPlanner(llm, character.Socrates(), testBounds)
	dec := p.Plan(context.Background(), core.Point{X: 640, Y: 360}, "r", []byte{1}, "image/png")
	assert.Nil(t, dec)
}

func TestMovementPlanner_NilOnModelError(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.Err = errors.New("timeout")

	p := NewMovementPlanner(llm, character.Socrates(), testBounds)
	assert.Nil(t, p.Plan(context.Background(), core.Point{}, "r", []byte{1}, "image/png"))
}

func TestMovementPlanner_NilOnGarbageResponse(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.Enqueue("north, I think?")

	p := NewMovementPlanner(llm, character.Socrates(), testBounds)
	assert.Nil(t, p.Plan(context.Background(), core.Point{}, "r", []byte{1}, "image/png"))
}

func TestExtractJSON_ProseAroundObject(t *testing.T) {
	doc, err := extractJSON(`Here you go: {"x": 1} hope that helps`)
	require.NoError(t, err)
	assert.Equal(t, `{"x": 1}`, doc)
}

func TestExtractJSON_NoObject(t *testing.T) {
	_, err := extractJSON("nothing here")
	assert.Error(t, err)
}
