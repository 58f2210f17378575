// Package pipeline implements presentation generation as a staged run:
// project initialization, outline planning, content writing, layout
// selection, image resolution, document compilation, and persistence.
package pipeline

import (
	"github.com/randalmurphal/deckflow/pkg/deckflow/document"
)

// Stage identifiers, in execution order.
const (
	StageInitialize = "initialize"
	StageOutline    = "outline"
	StageContent    = "content"
	StageLayout     = "layout"
	StageImageQuery = "imageQuery"
	StageImageFetch = "imageFetch"
	StageCompile    = "compile"
	StagePersist    = "persist"
)

// Progress checkpoints (percent complete) reported after each stage.
const (
	ProgressInitialized = 10
	ProgressOutlined    = 20
	ProgressContent     = 40
	ProgressLayouts     = 55
	ProgressQueries     = 65
	ProgressImages      = 75
	ProgressCompiled    = 85
	ProgressPersisted   = 100
)

// Outline size bounds. Runs outside these bounds fail.
const (
	MinOutlines = 5
	MaxOutlines = 15
)

// PendingImageQuery marks a slide whose layout needs an image but whose
// search query has not been generated yet. The image query stage
// overwrites it with the real query.
const PendingImageQuery = "pending"

// SlideRecord tracks one slide through the generation stages.
// Fields fill in as stages run; a record is complete when all are set.
type SlideRecord struct {
	// Outline is the planned slide topic, set by the outline stage.
	Outline string

	// Title and Content are set by the content stage.
	Title   string
	Content string

	// Layout is set by the layout stage.
	Layout document.Layout

	// ImageQuery is PendingImageQuery after the layout stage for layouts
	// that embed an image, then the search query after the image query
	// stage. Empty for text-only slides.
	ImageQuery string

	// ImageURL is set by the image fetch stage.
	ImageURL string
}

// NeedsImage reports whether the slide still awaits image resolution.
func (r SlideRecord) NeedsImage() bool {
	return r.ImageQuery != "" && r.ImageURL == ""
}

// GenerationState is the state threaded through the pipeline stages.
// Stages receive it by value and return an updated copy.
type GenerationState struct {
	// Request data
	ExternalUserID    string
	Topic             string
	AdditionalContext string
	Theme             string

	// Filled by the initialize stage
	UserID    string
	ProjectID string

	// Generation progress
	Outlines []string
	Slides   []SlideRecord

	// Output
	Document []document.Slide

	// Metadata
	Err         string
	CurrentStep string
	Progress    int
}

// pendingImages counts slides still awaiting image resolution.
func (s GenerationState) pendingImages() int {
	n := 0
	for _, r := range s.Slides {
		if r.NeedsImage() {
			n++
		}
	}
	return n
}
