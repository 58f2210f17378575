package pipeline

import (
	"fmt"
	"strings"

	"github.com/randalmurphal/deckflow/pkg/deckflow/document"
)

// Per-stage sampling settings. Planning and copywriting want creativity,
// layout selection wants consistency.
const (
	outlineTemperature    = 0.8
	outlineMaxTokens      = 2000
	contentTemperature    = 0.7
	contentMaxTokens      = 4000
	layoutTemperature     = 0.3
	layoutMaxTokens       = 1000
	imageQueryTemperature = 0.7
	imageQueryMaxTokens   = 500
)

// Response shapes for structured generation. Decoding against the typed
// structs below is the real contract; the schema text steers the model.

type outlineResponse struct {
	Outlines []string `json:"outlines"`
}

const outlineSchema = `{"outlines": ["slide topic", "..."]}`

type slideContent struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type contentResponse struct {
	SlidesContent []slideContent `json:"slidesContent"`
}

const contentSchema = `{"slidesContent": [{"title": "...", "content": "..."}]}`

type layoutChoice struct {
	SlideIndex int    `json:"slideIndex"`
	LayoutType string `json:"layoutType"`
	Reasoning  string `json:"reasoning"`
}

type layoutResponse struct {
	Layouts []layoutChoice `json:"layouts"`
}

const layoutSchema = `{"layouts": [{"slideIndex": 0, "layoutType": "blank-card", "reasoning": "..."}]}`

type imageQuery struct {
	SlideIndex int    `json:"slideIndex"`
	Query      string `json:"query"`
	AltText    string `json:"altText"`
}

type imageQueryResponse struct {
	ImageQueries []imageQuery `json:"imageQueries"`
}

const imageQuerySchema = `{"imageQueries": [{"slideIndex": 0, "query": "...", "altText": "..."}]}`

// outlinePrompt builds the outline planning prompt.
func outlinePrompt(topic, context string) string {
	var b strings.Builder
	b.WriteString(`You are an expert presentation strategist. Analyze the following topic and create a logical, comprehensive outline for a professional presentation.

`)
	fmt.Fprintf(&b, "Topic: %q\n", topic)
	if context != "" {
		fmt.Fprintf(&b, "Additional Context: %q\n", context)
	}
	b.WriteString(`
Instructions:
1. Analyze the complexity and scope of this topic
2. Generate between 5-15 slide topics (more complex topics need more slides)
3. Start with an introduction/overview slide
4. Include main content slides that build logically on each other
5. End with a conclusion or call-to-action slide
6. Each outline point should be clear, concise, and specific
7. Ensure natural flow from one topic to the next

Example for "Marketing Strategy for Startups":
- Introduction to Marketing for Startups
- Understanding Your Target Audience
- Building Your Brand Identity
- Digital Marketing Channels
- Content Marketing Strategy
- Social Media Best Practices
- Measuring Marketing ROI
- Conclusion and Next Steps

Generate the outline now:`)
	return b.String()
}

// contentPrompt builds the bulk content writing prompt.
func contentPrompt(topic, context string, outlines []string) string {
	var formatted strings.Builder
	for i, o := range outlines {
		fmt.Fprintf(&formatted, "%d. %s\n", i+1, o)
	}

	var b strings.Builder
	b.WriteString(`You are an expert presentation copywriter. Write compelling, professional content for a presentation.

`)
	fmt.Fprintf(&b, "Overall Topic: %q\n", topic)
	if context != "" {
		fmt.Fprintf(&b, "Additional Context: %q\n", context)
	}
	fmt.Fprintf(&b, "\nSlide Outlines:\n%s\n", formatted.String())
	fmt.Fprintf(&b, `Instructions:
1. For EACH outline above, generate:
   - A compelling, concise title (max 100 characters)
   - Main body content (150-500 characters per slide)
2. Content should be:
   - Clear and easy to understand
   - Professional and engaging
   - Suitable for presentation slides (not essay format)
   - Use bullet points (markdown format with "-") when listing items
3. Maintain consistent tone throughout
4. Build narrative flow from slide to slide
5. You MUST generate exactly %d slide contents in the exact same order

Generate all slide content now:`, len(outlines))
	return b.String()
}

// singleContentPrompt builds the per-slide content prompt used by the
// iterative content mode.
func singleContentPrompt(topic, outline string, index, total int) string {
	return fmt.Sprintf(`You are an expert presentation copywriter. Write content for one slide of a presentation.

Overall Topic: %q
Slide %d of %d: %q

Instructions:
1. Generate a compelling, concise title (max 100 characters)
2. Generate main body content (150-500 characters)
3. Use bullet points (markdown format with "-") when listing items
4. Keep it suitable for a presentation slide, not essay format

Generate the slide content now:`, topic, index+1, total, outline)
}

// layoutPrompt builds the layout selection prompt.
func layoutPrompt(slides []SlideRecord) string {
	var summary strings.Builder
	for i, s := range slides {
		fmt.Fprintf(&summary, "Slide %d:\n  Outline: %s\n  Title: %s\n  Content: %s\n\n",
			i+1, s.Outline, s.Title, clip(s.Content, 150))
	}

	return fmt.Sprintf(`You are a presentation design expert. Analyze each slide's content and select the most appropriate layout type.

%s

Slides to analyze:
%s
Instructions:
1. For each slide, select the layout type that best fits its content
2. Consider:
   - Content length and structure
   - Whether the slide benefits from visuals (use image layouts)
   - If comparing items (use column layouts)
   - If listing features or steps (use multi-column layouts)
3. Ensure variety - avoid using the same layout for 3+ consecutive slides
4. First slide is usually "blank-card" (introduction)
5. Last slide can be "blank-card" (conclusion) or image-based (call-to-action)
6. Provide brief reasoning for each choice

Generate layout selections for all %d slides:`,
		document.LayoutDescriptions, summary.String(), len(slides))
}

// imageQueryPrompt builds the image query generation prompt for the
// slides that need images (indices refer to the full slide set).
func imageQueryPrompt(topic string, slides []SlideRecord, indices []int) string {
	var summary strings.Builder
	for _, i := range indices {
		s := slides[i]
		fmt.Fprintf(&summary, "Slide %d:\n  Layout: %s\n  Title: %s\n  Content: %s\n\n",
			i+1, s.Layout, s.Title, clip(s.Content, 100))
	}

	return fmt.Sprintf(`You are an expert at creating image search queries for professional presentations.

Presentation Topic: %q

Slides needing images:
%s
Instructions:
1. For each slide, create a search query that would find a relevant, professional stock photo
2. Queries should be:
   - Specific but not too narrow (3-7 words)
   - Professional and business-appropriate
   - Focused on the main concept, not literal text
   - Suitable for stock photo sites
3. Also create descriptive alt text for accessibility (10-30 words)
4. Use the slide numbers shown above minus one as the 0-based slideIndex

Generate image queries for all %d slides:`, topic, summary.String(), len(indices))
}

// clip truncates s to at most n bytes for prompt summaries.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
