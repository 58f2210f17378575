package document

import (
	"regexp"
	"strings"
)

// SlideInput is the generated data for one slide, ready for compilation.
type SlideInput struct {
	// Outline is the planned slide title from the outline stage.
	Outline string

	// Title is the written slide title. Falls back to Outline when empty.
	Title string

	// Content is the slide body text. May be prose or a marker list.
	Content string

	// Layout is the chosen layout. Unknown values compile as BlankCard.
	Layout Layout

	// ImageURL is the resolved image, empty for text-only layouts.
	ImageURL string
}

var (
	listMarker = regexp.MustCompile(`^[-*•]\s+|^\d+\.\s+`)
	listPrefix = regexp.MustCompile(`^(-|\*|•|\d+\.)\s*`)
)

// isListContent reports whether the content reads as a list.
// At least two non-empty lines, and at least half of them carry a
// list marker. Exactly half counts.
func isListContent(content string) bool {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return false
	}

	marked := 0
	for _, line := range lines {
		if listMarker.MatchString(strings.TrimSpace(line)) {
			marked++
		}
	}
	return float64(marked) >= float64(len(lines))*0.5
}

// parseListContent splits content into list items, stripping markers.
func parseListContent(content string) []string {
	var items []string
	for _, line := range strings.Split(content, "\n") {
		item := strings.TrimSpace(listPrefix.ReplaceAllString(strings.TrimSpace(line), ""))
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// ceilDiv returns the ceiling of a/b.
func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// Compile builds the final slide documents from generated slide data.
// Each call produces fresh node IDs throughout.
func Compile(inputs []SlideInput) []Slide {
	slides := make([]Slide, len(inputs))
	for i, in := range inputs {
		slides[i] = compileSlide(in)
	}
	return slides
}

// compileSlide builds a single slide document.
func compileSlide(in SlideInput) Slide {
	layout := in.Layout
	if layout == "" {
		layout = BlankCard
	}

	className := "p-8 mx-auto flex justify-center items-center min-h-[200px]"
	if t, ok := TemplateFor(layout); ok {
		className = t.ClassName
	}

	return Slide{
		ID:        newID(),
		SlideName: in.Outline,
		Layout:    layout,
		ClassName: className,
		Content:   buildContent(in, layout),
	}
}

// textComponents builds the title and body nodes shared by most layouts.
// Body text that reads as a list becomes a bullet list node.
func textComponents(in SlideInput) []ContentNode {
	var nodes []ContentNode

	if in.Title != "" {
		nodes = append(nodes, textNode(KindHeading1, "Slide Title", in.Title))
	}

	if in.Content != "" {
		if isListContent(in.Content) {
			nodes = append(nodes, listNode(KindBulletList, "Bullet Points", parseListContent(in.Content)))
		} else {
			nodes = append(nodes, textNode(KindParagraph, "Main Content", in.Content))
		}
	}

	return nodes
}

// imageAlt returns the alt text for a slide image.
func imageAlt(in SlideInput) string {
	if in.Title != "" {
		return in.Title
	}
	return in.Outline
}

// buildContent builds the layout-specific content tree.
func buildContent(in SlideInput, layout Layout) ContentNode {
	text := textComponents(in)

	textColumn := func() ContentNode {
		col := columnNode(text)
		col.ClassName = "w-full h-full p-8 flex justify-center items-center"
		return col
	}

	image := func(className string) ContentNode {
		return ContentNode{
			ID:        newID(),
			Kind:      KindImage,
			Name:      "Image",
			Content:   in.ImageURL,
			Alt:       imageAlt(in),
			ClassName: className,
		}
	}

	switch layout {
	case AccentLeft:
		inner := ContentNode{
			ID:             newID(),
			Kind:           KindResizableColumn,
			Name:           "Resizable column",
			RestrictToDrop: true,
			Content:        []ContentNode{image(""), textColumn()},
		}
		root := columnNode([]ContentNode{inner})
		root.RestrictDropTo = true
		return root

	case AccentRight:
		img := image("")
		img.RestrictToDrop = true
		inner := ContentNode{
			ID:             newID(),
			Kind:           KindResizableColumn,
			Name:           "Resizable column",
			RestrictToDrop: true,
			Content:        []ContentNode{textColumn(), img},
		}
		return columnNode([]ContentNode{inner})

	case ImageAndText:
		inner := ContentNode{
			ID:        newID(),
			Kind:      KindResizableColumn,
			Name:      "Image and text",
			ClassName: "border",
			Content: []ContentNode{
				columnNode([]ContentNode{image("p-3")}),
				textColumn(),
			},
		}
		return columnNode([]ContentNode{inner})

	case TextAndImage:
		inner := ContentNode{
			ID:        newID(),
			Kind:      KindResizableColumn,
			Name:      "Text and image",
			ClassName: "border",
			Content: []ContentNode{
				textColumn(),
				columnNode([]ContentNode{image("p-3")}),
			},
		}
		return columnNode([]ContentNode{inner})

	case TwoColumns:
		var paragraphs []string
		if in.Content != "" {
			paragraphs = strings.Split(in.Content, "\n\n")
		}
		half := ceilDiv(len(paragraphs), 2)

		title := textNode(KindTitle, "Title", in.Title)
		title.Placeholder = "Untitled Card"

		left := textNode(KindParagraph, "Paragraph", strings.Join(paragraphs[:half], "\n\n"))
		left.Placeholder = "Start typing..."
		right := textNode(KindParagraph, "Paragraph", strings.Join(paragraphs[half:], "\n\n"))
		right.Placeholder = "Start typing..."

		inner := ContentNode{
			ID:        newID(),
			Kind:      KindResizableColumn,
			Name:      "Two columns",
			ClassName: "border",
			Content:   []ContentNode{left, right},
		}
		return columnNode([]ContentNode{title, inner})

	case TwoColumnsWithHeadings:
		items := listItems(in.Content)
		mid := ceilDiv(len(items), 2)

		title := textNode(KindTitle, "Title", in.Title)
		title.Placeholder = "Untitled Card"

		inner := ContentNode{
			ID:        newID(),
			Kind:      KindResizableColumn,
			Name:      "Two columns with headings",
			ClassName: "border",
			Content: []ContentNode{
				headedColumn("Column 1", strings.Join(items[:mid], "\n")),
				headedColumn("Column 2", strings.Join(items[mid:], "\n")),
			},
		}
		return columnNode([]ContentNode{title, inner})

	case ThreeColumns:
		items := listItems(in.Content)
		third := ceilDiv(len(items), 3)

		title := textNode(KindTitle, "Title", in.Title)
		title.Placeholder = "Untitled Card"

		slices := [3]string{
			strings.Join(items[:min(third, len(items))], "\n"),
			strings.Join(items[min(third, len(items)):min(third*2, len(items))], "\n"),
			strings.Join(items[min(third*2, len(items)):], "\n"),
		}

		cols := make([]ContentNode, 3)
		for i, s := range slices {
			col := textNode(KindParagraph, "Paragraph", s)
			col.Placeholder = "Start typing..."
			cols[i] = col
		}

		inner := ContentNode{
			ID:        newID(),
			Kind:      KindResizableColumn,
			Name:      "Three columns",
			ClassName: "border",
			Content:   cols,
		}
		return columnNode([]ContentNode{title, inner})

	default: // BlankCard and unknown layouts
		return columnNode(text)
	}
}

// listItems splits content for column layouts: list items when the
// content reads as a list, otherwise the whole content as one item.
func listItems(content string) []string {
	if isListContent(content) {
		return parseListContent(content)
	}
	return []string{content}
}

// headedColumn builds a column with a heading and a paragraph body.
func headedColumn(heading, body string) ContentNode {
	h := textNode(KindHeading3, "Heading3", heading)
	h.Placeholder = "Heading 3"
	p := textNode(KindParagraph, "Paragraph", body)
	p.Placeholder = "Start typing..."
	return columnNode([]ContentNode{h, p})
}

// FirstImage finds the first image URL in a compiled slide set.
// Used for project thumbnails. Returns "" when no image exists.
func FirstImage(slides []Slide) string {
	for _, s := range slides {
		if url := findImage(s.Content); url != "" {
			return url
		}
	}
	return ""
}

// findImage searches a content tree depth-first for an image node.
func findImage(node ContentNode) string {
	if node.Kind == KindImage {
		if url, ok := node.Content.(string); ok && url != "" {
			return url
		}
	}
	if children, ok := node.Content.([]ContentNode); ok {
		for _, child := range children {
			if url := findImage(child); url != "" {
				return url
			}
		}
	}
	return ""
}
