package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/deckflow/pkg/deckflow/document"
	"github.com/randalmurphal/deckflow/pkg/deckflow/images"
	"github.com/randalmurphal/deckflow/pkg/deckflow/llm"
	"github.com/randalmurphal/deckflow/pkg/deckflow/store"
)

// classifyPrompt routes mock responses by recognizable prompt fragments.
func classifyPrompt(req llm.ObjectRequest) string {
	switch {
	case strings.Contains(req.Prompt, "presentation strategist"):
		return "outline"
	case strings.Contains(req.Prompt, "Slide Outlines:"):
		return "content"
	case strings.Contains(req.Prompt, "one slide of a presentation"):
		return "singleContent"
	case strings.Contains(req.Prompt, "presentation design expert"):
		return "layout"
	case strings.Contains(req.Prompt, "image search queries"):
		return "imageQuery"
	default:
		return "unknown"
	}
}

var testOutlines = []string{
	"Introduction to Solar Power",
	"How Photovoltaics Work",
	"Cost Trends and Economics",
	"Grid Integration Challenges",
	"Conclusion and Outlook",
}

// happyPathResponses returns scripted model output for a full run.
func happyPathResponses() map[string]any {
	contents := make([]map[string]string, len(testOutlines))
	for i, o := range testOutlines {
		contents[i] = map[string]string{
			"title":   o,
			"content": fmt.Sprintf("- point one about %s\n- point two\n- point three", o),
		}
	}

	layouts := []map[string]any{
		{"slideIndex": 0, "layoutType": "blank-card", "reasoning": "introduction"},
		{"slideIndex": 1, "layoutType": "accentLeft", "reasoning": "visual concept"},
		{"slideIndex": 2, "layoutType": "twoColumns", "reasoning": "comparison"},
		{"slideIndex": 3, "layoutType": "textAndImage", "reasoning": "visual aid"},
		{"slideIndex": 4, "layoutType": "blank-card", "reasoning": "conclusion"},
	}

	queries := []map[string]any{
		{"slideIndex": 1, "query": "solar panels technology closeup", "altText": "Solar panels"},
		{"slideIndex": 3, "query": "power grid infrastructure", "altText": "Grid"},
	}

	return map[string]any{
		"outline":    map[string]any{"outlines": testOutlines},
		"content":    map[string]any{"slidesContent": contents},
		"layout":     map[string]any{"layouts": layouts},
		"imageQuery": map[string]any{"imageQueries": queries},
	}
}

// newTestGenerator builds a generator over a memory store with one
// registered user.
func newTestGenerator(t *testing.T, mock *llm.MockClient, opts func(*Config)) (*Generator, *store.MemoryStore) {
	t.Helper()

	s := store.NewMemoryStore()
	_, err := s.CreateUser(context.Background(), "ext-user-1")
	require.NoError(t, err)

	cfg := Config{Store: s, LLM: mock}
	if opts != nil {
		opts(&cfg)
	}

	g, err := New(cfg)
	require.NoError(t, err)
	return g, s
}

func TestGenerate_HappyPath(t *testing.T) {
	mock := &llm.MockClient{Classify: classifyPrompt, Keyed: happyPathResponses()}

	var checkpoints []int
	g, s := newTestGenerator(t, mock, func(c *Config) {
		c.OnProgress = func(step string, percent int) {
			checkpoints = append(checkpoints, percent)
		}
	})

	result := g.Generate(context.Background(), Request{
		UserID: "ext-user-1",
		Topic:  "The Future of Solar Power",
	})

	require.True(t, result.Success, "error: %s", result.Error)
	assert.NotEmpty(t, result.ProjectID)
	assert.Equal(t, testOutlines, result.Outlines)
	assert.Equal(t, 5, result.SlideCount)
	assert.Len(t, result.Slides, 5)
	assert.Equal(t, ProgressPersisted, result.Progress)

	// Progress checkpoints arrive in order.
	assert.Equal(t, []int{10, 20, 40, 55, 65, 75, 85, 100}, checkpoints)

	// Layouts carried through to compiled slides.
	assert.Equal(t, document.BlankCard, result.Slides[0].Layout)
	assert.Equal(t, document.AccentLeft, result.Slides[1].Layout)

	// Project persisted with slides, outlines, and a thumbnail.
	project, err := s.GetProject(context.Background(), result.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, testOutlines, project.Outlines)
	assert.NotEmpty(t, project.Slides)
	assert.NotEmpty(t, project.Thumbnail, "image slide should provide a thumbnail")
	assert.Equal(t, "light", project.Theme)
}

func TestGenerate_UnknownUser(t *testing.T) {
	mock := &llm.MockClient{Classify: classifyPrompt, Keyed: happyPathResponses()}
	g, _ := newTestGenerator(t, mock, nil)

	result := g.Generate(context.Background(), Request{
		UserID: "ext-stranger",
		Topic:  "Topic",
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "not authenticated")
	assert.Empty(t, result.ProjectID)
	// No stage runs without authentication.
	assert.Equal(t, 0, mock.CallCount())
}

func TestGenerate_ExistingProject(t *testing.T) {
	mock := &llm.MockClient{Classify: classifyPrompt, Keyed: happyPathResponses()}
	g, s := newTestGenerator(t, mock, nil)

	owner, err := s.FindUserByExternalID(context.Background(), "ext-user-1")
	require.NoError(t, err)
	existing, err := s.CreateProject(context.Background(), owner, "Old Deck", "dark")
	require.NoError(t, err)

	result := g.Generate(context.Background(), Request{
		UserID:    "ext-user-1",
		Topic:     "Regenerated Deck",
		ProjectID: existing.ID,
	})

	require.True(t, result.Success, "error: %s", result.Error)
	// The run regenerates into the existing project, not a new one.
	assert.Equal(t, existing.ID, result.ProjectID)

	project, err := s.GetProject(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, testOutlines, project.Outlines)
	assert.NotEmpty(t, project.Slides)
}

func TestGenerate_ForbiddenProject(t *testing.T) {
	mock := &llm.MockClient{Classify: classifyPrompt, Keyed: happyPathResponses()}
	g, s := newTestGenerator(t, mock, nil)

	other, err := s.CreateUser(context.Background(), "ext-user-2")
	require.NoError(t, err)
	theirs, err := s.CreateProject(context.Background(), other, "Their Deck", "light")
	require.NoError(t, err)

	result := g.Generate(context.Background(), Request{
		UserID:    "ext-user-1",
		Topic:     "Topic",
		ProjectID: theirs.ID,
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "not owned")
	// No stage runs on an ownership failure.
	assert.Equal(t, 0, mock.CallCount())
}

func TestGenerate_OutlineCountOutOfBounds(t *testing.T) {
	responses := happyPathResponses()
	responses["outline"] = map[string]any{"outlines": []string{"Only", "Three", "Topics"}}
	mock := &llm.MockClient{Classify: classifyPrompt, Keyed: responses}

	g, s := newTestGenerator(t, mock, nil)

	result := g.Generate(context.Background(), Request{
		UserID: "ext-user-1",
		Topic:  "Tiny Topic",
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "Failed to generate outline")
	// The project was created before the failure and is reported.
	assert.NotEmpty(t, result.ProjectID)

	// The failed run never wrote slides.
	project, err := s.GetProject(context.Background(), result.ProjectID)
	require.NoError(t, err)
	assert.Empty(t, project.Slides)
}

func TestGenerate_ContentCountMismatch(t *testing.T) {
	responses := happyPathResponses()
	responses["content"] = map[string]any{"slidesContent": []map[string]string{
		{"title": "Only one", "content": "not enough slides"},
	}}
	mock := &llm.MockClient{Classify: classifyPrompt, Keyed: responses}

	g, _ := newTestGenerator(t, mock, nil)

	result := g.Generate(context.Background(), Request{
		UserID: "ext-user-1",
		Topic:  "Topic",
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "Failed to generate content")
}

func TestGenerate_UnknownLayoutFallsBack(t *testing.T) {
	responses := happyPathResponses()
	responses["layout"] = map[string]any{"layouts": []map[string]any{
		{"slideIndex": 0, "layoutType": "hologram", "reasoning": "x"},
		{"slideIndex": 1, "layoutType": "blank-card", "reasoning": "x"},
		{"slideIndex": 2, "layoutType": "blank-card", "reasoning": "x"},
		{"slideIndex": 3, "layoutType": "blank-card", "reasoning": "x"},
		{"slideIndex": 4, "layoutType": "blank-card", "reasoning": "x"},
	}}
	mock := &llm.MockClient{Classify: classifyPrompt, Keyed: responses}

	g, _ := newTestGenerator(t, mock, nil)

	result := g.Generate(context.Background(), Request{
		UserID: "ext-user-1",
		Topic:  "Topic",
	})

	require.True(t, result.Success, "error: %s", result.Error)
	assert.Equal(t, document.BlankCard, result.Slides[0].Layout)
}

func TestGenerate_NoImageSlides(t *testing.T) {
	responses := happyPathResponses()
	responses["layout"] = map[string]any{"layouts": []map[string]any{
		{"slideIndex": 0, "layoutType": "blank-card", "reasoning": "x"},
		{"slideIndex": 1, "layoutType": "twoColumns", "reasoning": "x"},
		{"slideIndex": 2, "layoutType": "threeColumns", "reasoning": "x"},
		{"slideIndex": 3, "layoutType": "twoColumnsWithHeadings", "reasoning": "x"},
		{"slideIndex": 4, "layoutType": "blank-card", "reasoning": "x"},
	}}
	mock := &llm.MockClient{Classify: classifyPrompt, Keyed: responses}

	g, s := newTestGenerator(t, mock, nil)

	result := g.Generate(context.Background(), Request{
		UserID: "ext-user-1",
		Topic:  "Topic",
	})

	require.True(t, result.Success, "error: %s", result.Error)

	// No image layouts, so no image query call was made.
	for _, call := range mock.Calls {
		assert.NotEqual(t, "imageQuery", classifyPrompt(call))
	}

	project, err := s.GetProject(context.Background(), result.ProjectID)
	require.NoError(t, err)
	assert.Empty(t, project.Thumbnail)
}

// failingResolver always fails, exercising the fallback path.
type failingResolver struct{}

func (failingResolver) ResolveBatch(context.Context, []images.Query) ([]images.Image, error) {
	return nil, fmt.Errorf("resolver unavailable")
}

func TestGenerate_ImageResolverFailureUsesFallback(t *testing.T) {
	mock := &llm.MockClient{Classify: classifyPrompt, Keyed: happyPathResponses()}

	g, _ := newTestGenerator(t, mock, func(c *Config) {
		c.Images = failingResolver{}
	})

	result := g.Generate(context.Background(), Request{
		UserID: "ext-user-1",
		Topic:  "Topic",
	})

	require.True(t, result.Success, "error: %s", result.Error)

	// Image slides carry the fallback URL rather than failing the run.
	url := document.FirstImage(result.Slides)
	assert.Equal(t, images.DefaultImage(), url)
}

// badURLResolver resolves every query to an unusable URL.
type badURLResolver struct{}

func (badURLResolver) ResolveBatch(_ context.Context, qs []images.Query) ([]images.Image, error) {
	urls := []string{"ftp://stock.example.com/pic.jpg", "not a url"}
	out := make([]images.Image, len(qs))
	for i, q := range qs {
		out[i] = images.Image{URL: urls[i%len(urls)], AltText: q.AltText}
	}
	return out, nil
}

func TestGenerate_InvalidImageURLUsesFallback(t *testing.T) {
	mock := &llm.MockClient{Classify: classifyPrompt, Keyed: happyPathResponses()}

	g, _ := newTestGenerator(t, mock, func(c *Config) {
		c.Images = badURLResolver{}
	})

	result := g.Generate(context.Background(), Request{
		UserID: "ext-user-1",
		Topic:  "Topic",
	})

	require.True(t, result.Success, "error: %s", result.Error)

	// Each unusable URL is replaced per slide; none leaks into the document.
	url := document.FirstImage(result.Slides)
	assert.Equal(t, images.DefaultImage(), url)
	data, err := json.Marshal(result.Slides)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "ftp://")
	assert.NotContains(t, string(data), "not a url")
}

func TestGenerate_IterativeContent(t *testing.T) {
	responses := happyPathResponses()
	delete(responses, "content")
	responses["singleContent"] = map[string]string{
		"title":   "Per-Slide Title",
		"content": "Per-slide body text for the presentation.",
	}
	mock := &llm.MockClient{Classify: classifyPrompt, Keyed: responses}

	g, _ := newTestGenerator(t, mock, func(c *Config) {
		c.IterativeContent = true
	})

	result := g.Generate(context.Background(), Request{
		UserID: "ext-user-1",
		Topic:  "Topic",
	})

	require.True(t, result.Success, "error: %s", result.Error)

	// One content call per outline plus outline, layout, and image query calls.
	contentCalls := 0
	for _, call := range mock.Calls {
		if classifyPrompt(call) == "singleContent" {
			contentCalls++
		}
	}
	assert.Equal(t, len(testOutlines), contentCalls)
}

func TestNew_RequiresStoreAndClient(t *testing.T) {
	_, err := New(Config{LLM: &llm.MockClient{}})
	assert.Error(t, err)

	_, err = New(Config{Store: store.NewMemoryStore()})
	assert.Error(t, err)
}

func TestProjectTitle_Truncates(t *testing.T) {
	long := strings.Repeat("word ", 40)
	title := projectTitle(long)
	assert.LessOrEqual(t, len(title), maxTitleLen)
	assert.Equal(t, "Deck", projectTitle("  Deck  "))
}
