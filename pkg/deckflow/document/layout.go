package document

// Layout identifies a slide layout. The catalog is closed: the compiler
// has a shape for each entry and unknown layouts fall back to BlankCard.
type Layout string

// Slide layouts.
const (
	BlankCard              Layout = "blank-card"
	AccentLeft             Layout = "accentLeft"
	AccentRight            Layout = "accentRight"
	ImageAndText           Layout = "imageAndText"
	TextAndImage           Layout = "textAndImage"
	TwoColumns             Layout = "twoColumns"
	TwoColumnsWithHeadings Layout = "twoColumnsWithHeadings"
	ThreeColumns           Layout = "threeColumns"
)

// Template describes a layout's rendering properties.
type Template struct {
	Layout        Layout
	DisplayName   string
	ClassName     string
	RequiresImage bool
}

// templates is the full layout catalog, in presentation order.
var templates = []Template{
	{BlankCard, "Blank card", "p-8 mx-auto flex justify-center items-center min-h-[200px]", false},
	{AccentLeft, "Accent left", "min-h-[300px]", true},
	{AccentRight, "Accent Right", "min-h-[300px]", true},
	{ImageAndText, "Image and text", "min-h-[200px] p-8 mx-auto flex justify-center items-center", true},
	{TextAndImage, "Text and image", "min-h-[200px] p-8 mx-auto flex justify-center items-center", true},
	{TwoColumns, "Two columns", "p-4 mx-auto flex justify-center items-center", false},
	{TwoColumnsWithHeadings, "Two columns with headings", "p-4 mx-auto flex justify-center items-center", false},
	{ThreeColumns, "Three columns", "p-4 mx-auto flex justify-center items-center", false},
}

// Templates returns the full layout catalog.
func Templates() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

// TemplateFor returns the template for a layout and whether it exists.
func TemplateFor(layout Layout) (Template, bool) {
	for _, t := range templates {
		if t.Layout == layout {
			return t, true
		}
	}
	return Template{}, false
}

// ValidLayout reports whether the layout is in the catalog.
func ValidLayout(layout Layout) bool {
	_, ok := TemplateFor(layout)
	return ok
}

// ImageLayouts returns the layouts that embed an image.
func ImageLayouts() []Layout {
	var out []Layout
	for _, t := range templates {
		if t.RequiresImage {
			out = append(out, t.Layout)
		}
	}
	return out
}

// LayoutDescriptions is the catalog summary embedded in layout
// selection prompts.
const LayoutDescriptions = `Available Layout Types:
1. blank-card: Simple centered title and content, no images
2. accentLeft: Image on left, text on right - great for visual emphasis
3. accentRight: Text on left, image on right - alternative visual layout
4. imageAndText: Image with accompanying text, compact layout
5. textAndImage: Text with accompanying image, compact layout
6. twoColumns: Two equal columns of text - ideal for comparisons or lists
7. twoColumnsWithHeadings: Two columns with individual headings - structured content
8. threeColumns: Three equal columns - great for multiple points or features

Selection Guidelines:
- Use blank-card for introductory or concluding slides
- Use accentLeft/accentRight for slides emphasizing visuals
- Use twoColumns for comparisons, pros/cons, or paired concepts
- Use threeColumns for feature lists or step-by-step processes
- Vary layouts to keep presentation engaging`
