package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dferrors "github.com/randalmurphal/deckflow/pkg/deckflow/errors"
)

func TestExtractJSON_BareObject(t *testing.T) {
	got := extractJSON(`{"a": 1}`)
	assert.Equal(t, `{"a": 1}`, got)
}

func TestExtractJSON_CodeFence(t *testing.T) {
	raw := "```json\n{\"titles\": [\"one\"]}\n```"
	assert.Equal(t, `{"titles": ["one"]}`, extractJSON(raw))
}

func TestExtractJSON_FenceWithoutLanguage(t *testing.T) {
	raw := "```\n[1, 2, 3]\n```"
	assert.Equal(t, `[1, 2, 3]`, extractJSON(raw))
}

func TestExtractJSON_SurroundingProse(t *testing.T) {
	raw := "Here is the JSON you asked for:\n{\"x\": true}\nHope that helps!"
	assert.Equal(t, `{"x": true}`, extractJSON(raw))
}

func TestExtractJSON_Array(t *testing.T) {
	raw := "Sure: [\"a\", \"b\"] done"
	assert.Equal(t, `["a", "b"]`, extractJSON(raw))
}

func TestDecodeObject_Valid(t *testing.T) {
	var out struct {
		Titles []string `json:"titles"`
	}
	err := decodeObject("```json\n{\"titles\": [\"intro\", \"body\"]}\n```", &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"intro", "body"}, out.Titles)
}

func TestDecodeObject_InvalidJSON(t *testing.T) {
	var out map[string]any
	err := decodeObject("{not json at all", &out)
	require.Error(t, err)
	assert.Equal(t, dferrors.CategoryMalformed, dferrors.Categorize(err))
}

func TestDecodeObject_Empty(t *testing.T) {
	var out map[string]any
	err := decodeObject("", &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoObject)
}

func TestBuildPrompt_EmbedsSchema(t *testing.T) {
	p := buildPrompt(ObjectRequest{
		Prompt: "Generate titles.",
		Schema: `{"titles": ["string"]}`,
	})
	assert.Contains(t, p, "Generate titles.")
	assert.Contains(t, p, `{"titles": ["string"]}`)
}

func TestBuildPrompt_NoSchema(t *testing.T) {
	p := buildPrompt(ObjectRequest{Prompt: "Just answer."})
	assert.Equal(t, "Just answer.", p)
}

func TestMockClient_Sequential(t *testing.T) {
	mock := &MockClient{
		Responses: []any{
			map[string]any{"value": "first"},
			map[string]any{"value": "second"},
		},
	}

	var out struct {
		Value string `json:"value"`
	}
	require.NoError(t, mock.GenerateObject(context.Background(), ObjectRequest{Prompt: "a"}, &out))
	assert.Equal(t, "first", out.Value)

	require.NoError(t, mock.GenerateObject(context.Background(), ObjectRequest{Prompt: "b"}, &out))
	assert.Equal(t, "second", out.Value)

	err := mock.GenerateObject(context.Background(), ObjectRequest{Prompt: "c"}, &out)
	assert.Error(t, err)
	assert.Equal(t, 3, mock.CallCount())
}
