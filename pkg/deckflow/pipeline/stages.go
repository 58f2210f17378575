package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/randalmurphal/deckflow/pkg/deckflow"
	"github.com/randalmurphal/deckflow/pkg/deckflow/document"
	dferrors "github.com/randalmurphal/deckflow/pkg/deckflow/errors"
	"github.com/randalmurphal/deckflow/pkg/deckflow/images"
	"github.com/randalmurphal/deckflow/pkg/deckflow/llm"
	"github.com/randalmurphal/deckflow/pkg/deckflow/observability"
	"github.com/randalmurphal/deckflow/pkg/deckflow/store"
)

// initialize creates the project record so progress can be tracked and
// results saved incrementally. The caller was already authenticated and,
// when regenerating into an existing project, verified as its owner.
func (g *Generator) initialize(ctx deckflow.Context, state GenerationState) (GenerationState, error) {
	if state.ProjectID == "" {
		project, err := ctx.Projects().CreateProject(ctx, state.UserID, projectTitle(state.Topic), state.Theme)
		if err != nil {
			return fail(state, "Failed to initialize project", err)
		}
		state.ProjectID = project.ID

		ctx.Logger().Info("project created",
			"project_id", project.ID,
			"theme", project.Theme,
		)
	}

	g.report(ctx, &state, "Project Initialized", ProgressInitialized)
	return state, nil
}

// generateOutline plans the slide topics. The outline size is validated
// hard: runs outside the 5-15 bound fail rather than proceed.
func (g *Generator) generateOutline(ctx deckflow.Context, state GenerationState) (GenerationState, error) {
	var resp outlineResponse
	err := g.generateObject(ctx, llm.ObjectRequest{
		Prompt:      outlinePrompt(state.Topic, state.AdditionalContext),
		Schema:      outlineSchema,
		Temperature: outlineTemperature,
		MaxTokens:   outlineMaxTokens,
	}, &resp)
	if err != nil {
		return fail(state, "Failed to generate outline", err)
	}

	if n := len(resp.Outlines); n < MinOutlines || n > MaxOutlines {
		err := &dferrors.ValidationError{
			Stage:   StageOutline,
			Message: fmt.Sprintf("generated %d outlines, expected %d-%d", n, MinOutlines, MaxOutlines),
		}
		return fail(state, "Failed to generate outline", err)
	}

	state.Outlines = resp.Outlines
	state.Slides = make([]SlideRecord, len(resp.Outlines))
	for i, outline := range resp.Outlines {
		state.Slides[i] = SlideRecord{Outline: outline}
	}

	ctx.Logger().Info("outline generated", "slides", len(resp.Outlines))

	g.report(ctx, &state, "Outline Generated", ProgressOutlined)
	return state, nil
}

// writeContent fills in slide titles and bodies. The bulk mode writes
// everything in one call for consistent tone; the iterative mode makes
// one call per slide.
func (g *Generator) writeContent(ctx deckflow.Context, state GenerationState) (GenerationState, error) {
	if len(state.Outlines) == 0 {
		err := dferrors.Permanent(fmt.Errorf("no outlines to write content for"), StageContent)
		return fail(state, "Failed to generate content", err)
	}

	if g.cfg.IterativeContent {
		return g.writeContentIterative(ctx, state)
	}

	var resp contentResponse
	err := g.generateObject(ctx, llm.ObjectRequest{
		Prompt:      contentPrompt(state.Topic, state.AdditionalContext, state.Outlines),
		Schema:      contentSchema,
		Temperature: contentTemperature,
		MaxTokens:   contentMaxTokens,
	}, &resp)
	if err != nil {
		return fail(state, "Failed to generate content", err)
	}

	if len(resp.SlidesContent) != len(state.Outlines) {
		err := dferrors.CountMismatch(StageContent, len(state.Outlines), len(resp.SlidesContent))
		return fail(state, "Failed to generate content", err)
	}

	for i, sc := range resp.SlidesContent {
		state.Slides[i].Title = sc.Title
		state.Slides[i].Content = sc.Content
	}

	g.report(ctx, &state, "Content Written", ProgressContent)
	return state, nil
}

// writeContentIterative writes one slide's content per model call.
func (g *Generator) writeContentIterative(ctx deckflow.Context, state GenerationState) (GenerationState, error) {
	total := len(state.Outlines)
	for i, outline := range state.Outlines {
		var sc slideContent
		err := g.generateObject(ctx, llm.ObjectRequest{
			Prompt:      singleContentPrompt(state.Topic, outline, i, total),
			Schema:      `{"title": "...", "content": "..."}`,
			Temperature: contentTemperature,
			MaxTokens:   contentMaxTokens,
		}, &sc)
		if err != nil {
			return fail(state, fmt.Sprintf("Failed to generate content for slide %d", i+1), err)
		}
		state.Slides[i].Title = sc.Title
		state.Slides[i].Content = sc.Content
	}

	g.report(ctx, &state, "Content Written", ProgressContent)
	return state, nil
}

// selectLayouts chooses a layout per slide. Selections must cover every
// slide; unknown layout names fall back to the blank card.
func (g *Generator) selectLayouts(ctx deckflow.Context, state GenerationState) (GenerationState, error) {
	if len(state.Slides) == 0 {
		err := dferrors.Permanent(fmt.Errorf("no slide data to select layouts for"), StageLayout)
		return fail(state, "Failed to select layouts", err)
	}

	var resp layoutResponse
	err := g.generateObject(ctx, llm.ObjectRequest{
		Prompt:      layoutPrompt(state.Slides),
		Schema:      layoutSchema,
		Temperature: layoutTemperature,
		MaxTokens:   layoutMaxTokens,
	}, &resp)
	if err != nil {
		return fail(state, "Failed to select layouts", err)
	}

	if len(resp.Layouts) != len(state.Slides) {
		err := dferrors.CountMismatch(StageLayout, len(state.Slides), len(resp.Layouts))
		return fail(state, "Failed to select layouts", err)
	}

	for i, choice := range resp.Layouts {
		layout := document.Layout(choice.LayoutType)
		if !document.ValidLayout(layout) {
			ctx.Logger().Warn("unknown layout selected, using blank card",
				"slide", i+1, "layout", choice.LayoutType)
			layout = document.BlankCard
		}
		state.Slides[i].Layout = layout

		// Mark image-bearing layouts so downstream stages know a query
		// is still owed.
		if t, ok := document.TemplateFor(layout); ok && t.RequiresImage {
			state.Slides[i].ImageQuery = PendingImageQuery
		}
	}

	g.report(ctx, &state, "Layouts Selected", ProgressLayouts)
	return state, nil
}

// generateImageQueries creates search queries for slides whose layout
// embeds an image. Slides with text-only layouts are skipped.
func (g *Generator) generateImageQueries(ctx deckflow.Context, state GenerationState) (GenerationState, error) {
	var indices []int
	for i, s := range state.Slides {
		if s.ImageQuery == PendingImageQuery {
			indices = append(indices, i)
			continue
		}
		if t, ok := document.TemplateFor(s.Layout); ok && t.RequiresImage {
			indices = append(indices, i)
		}
	}

	if len(indices) == 0 {
		g.report(ctx, &state, "Image Queries Generated (None needed)", ProgressQueries)
		return state, nil
	}

	var resp imageQueryResponse
	err := g.generateObject(ctx, llm.ObjectRequest{
		Prompt:      imageQueryPrompt(state.Topic, state.Slides, indices),
		Schema:      imageQuerySchema,
		Temperature: imageQueryTemperature,
		MaxTokens:   imageQueryMaxTokens,
	}, &resp)
	if err != nil {
		return fail(state, "Failed to generate image queries", err)
	}

	for _, q := range resp.ImageQueries {
		if q.SlideIndex < 0 || q.SlideIndex >= len(state.Slides) {
			ctx.Logger().Warn("image query for out-of-range slide ignored",
				"slide_index", q.SlideIndex)
			continue
		}
		state.Slides[q.SlideIndex].ImageQuery = q.Query
	}

	g.report(ctx, &state, "Image Queries Generated", ProgressQueries)
	return state, nil
}

// fetchImages resolves image URLs for slides with pending queries.
// A total resolver failure does not fail the run; every pending slide
// gets the fallback image instead.
func (g *Generator) fetchImages(ctx deckflow.Context, state GenerationState) (GenerationState, error) {
	var pending []int
	for i, s := range state.Slides {
		if s.NeedsImage() {
			pending = append(pending, i)
		}
	}

	if len(pending) == 0 {
		g.report(ctx, &state, "Images Fetched", ProgressImages)
		return state, nil
	}

	queries := make([]images.Query, len(pending))
	for j, i := range pending {
		queries[j] = images.Query{
			Query:   state.Slides[i].ImageQuery,
			AltText: "Image for " + state.Slides[i].Title,
		}
	}

	resolved, err := ctx.Images().ResolveBatch(ctx, queries)
	if err != nil {
		// Degrade instead of failing the run.
		ctx.Logger().Warn("image resolution failed, using fallback images",
			"error", err.Error(), "slides", len(pending))
		for _, i := range pending {
			state.Slides[i].ImageURL = images.DefaultImage()
		}
		g.cfg.Metrics.RecordImagesResolved(ctx, 0, len(pending))
		g.report(ctx, &state, "Images Fetched (Fallback)", ProgressImages)
		return state, nil
	}

	fallbacks := 0
	for j, i := range pending {
		url := resolved[j].URL
		if !images.ValidateURL(url) {
			observability.LogImageFallback(ctx.Logger(), state.Slides[i].Title, "invalid URL")
			url = images.DefaultImage()
			fallbacks++
		}
		state.Slides[i].ImageURL = url
	}
	g.cfg.Metrics.RecordImagesResolved(ctx, len(pending)-fallbacks, fallbacks)

	g.report(ctx, &state, "Images Fetched", ProgressImages)
	return state, nil
}

// imageRouter loops the fetch stage until no slide awaits an image.
func (g *Generator) imageRouter(ctx deckflow.Context, state GenerationState) string {
	if state.pendingImages() > 0 {
		return StageImageFetch
	}
	return StageCompile
}

// compileDocument builds the final slide documents from generated data.
func (g *Generator) compileDocument(ctx deckflow.Context, state GenerationState) (GenerationState, error) {
	if len(state.Slides) == 0 {
		err := dferrors.Permanent(fmt.Errorf("no slide data was generated to compile"), StageCompile)
		return fail(state, "Failed to compile document", err)
	}

	inputs := make([]document.SlideInput, len(state.Slides))
	for i, s := range state.Slides {
		inputs[i] = document.SlideInput{
			Outline:  s.Outline,
			Title:    s.Title,
			Content:  s.Content,
			Layout:   s.Layout,
			ImageURL: s.ImageURL,
		}
	}

	state.Document = document.Compile(inputs)
	g.cfg.Metrics.RecordSlidesCompiled(ctx, len(state.Document))

	g.report(ctx, &state, "Document Compiled", ProgressCompiled)
	return state, nil
}

// persist saves the compiled presentation to the project record,
// extracting the first image as the project thumbnail.
func (g *Generator) persist(ctx deckflow.Context, state GenerationState) (GenerationState, error) {
	if state.ProjectID == "" {
		err := dferrors.Permanent(fmt.Errorf("no project ID available for saving"), StagePersist)
		return fail(state, "Failed to save presentation", err)
	}
	if len(state.Document) == 0 {
		err := dferrors.Permanent(fmt.Errorf("no presentation data to save"), StagePersist)
		return fail(state, "Failed to save presentation", err)
	}

	slides, err := json.Marshal(state.Document)
	if err != nil {
		return fail(state, "Failed to save presentation", err)
	}

	err = ctx.Projects().UpdateProject(ctx, state.ProjectID, store.ProjectUpdate{
		Outlines:  state.Outlines,
		Slides:    slides,
		Thumbnail: document.FirstImage(state.Document),
	})
	if err != nil {
		return fail(state, "Failed to save presentation", err)
	}

	ctx.Logger().Info("presentation saved",
		"project_id", state.ProjectID,
		"slides", len(state.Document),
	)

	g.report(ctx, &state, "Saved to Database", ProgressPersisted)
	return state, nil
}
