// Package document compiles generated slide data into the presentation
// document format consumed by the editor.
//
// Compilation is pure: no I/O, no model calls. Slide text, a chosen
// layout, and an optional image URL go in; a nested content tree with
// fresh node IDs comes out.
package document

import "github.com/google/uuid"

// Kind identifies a content node type. The set is closed; renderers
// switch on it and unknown kinds would be dropped silently.
type Kind string

// Content node kinds.
const (
	KindHeading1        Kind = "heading1"
	KindHeading2        Kind = "heading2"
	KindHeading3        Kind = "heading3"
	KindHeading4        Kind = "heading4"
	KindTitle           Kind = "title"
	KindParagraph       Kind = "paragraph"
	KindBulletList      Kind = "bulletList"
	KindNumberedList    Kind = "numberedList"
	KindTodoList        Kind = "todoList"
	KindBlockquote      Kind = "blockquote"
	KindCalloutBox      Kind = "calloutBox"
	KindCodeBlock       Kind = "codeBlock"
	KindTable           Kind = "table"
	KindTableOfContents Kind = "tableOfContents"
	KindDivider         Kind = "divider"
	KindImage           Kind = "image"
	KindColumn          Kind = "column"
	KindResizableColumn Kind = "resizable-column"
)

// ContentNode is a node in the slide content tree.
//
// Content is polymorphic by Kind:
//   - text kinds (headings, title, paragraph): string
//   - list kinds (bulletList, numberedList, todoList): []string
//   - image: string (the URL)
//   - container kinds (column, resizable-column): []ContentNode
type ContentNode struct {
	ID          string `json:"id"`
	Kind        Kind   `json:"type"`
	Name        string `json:"name"`
	Content     any    `json:"content"`
	Alt         string `json:"alt,omitempty"`
	ClassName   string `json:"className,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`

	// Drag restrictions for the editor. RestrictToDrop marks a node
	// that only accepts dropped content; RestrictDropTo marks a
	// container whose children cannot be dragged out.
	RestrictToDrop bool `json:"restrictToDrop,omitempty"`
	RestrictDropTo bool `json:"restrictDropTo,omitempty"`
}

// Slide is a compiled slide: a named layout wrapping a content tree.
type Slide struct {
	ID        string      `json:"id"`
	SlideName string      `json:"slideName"`
	Layout    Layout      `json:"type"`
	ClassName string      `json:"className"`
	Content   ContentNode `json:"content"`
}

// newID returns a fresh node identifier.
// Every compiled node gets its own; IDs are never reused across slides.
func newID() string {
	return uuid.New().String()
}

// textNode builds a leaf node holding a string.
func textNode(kind Kind, name, content string) ContentNode {
	return ContentNode{ID: newID(), Kind: kind, Name: name, Content: content}
}

// listNode builds a leaf node holding list items.
func listNode(kind Kind, name string, items []string) ContentNode {
	return ContentNode{ID: newID(), Kind: kind, Name: name, Content: items}
}

// columnNode builds a container node with children.
func columnNode(children []ContentNode) ContentNode {
	return ContentNode{ID: newID(), Kind: KindColumn, Name: "Column", Content: children}
}
