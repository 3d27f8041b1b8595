package platform

import (
	"context"
	"io"

	"github.com/mj1618/shopshield/internal/model"
)

// Node is a position in the host page tree, such as the document root or an
// inserted subtree.
type Node interface {
	// Attached reports whether the node is still connected to the document.
	Attached() bool
}

// Element is an actionable page element the guard can neutralize.
type Element interface {
	Node

	// Describe captures the element's descriptor. Text-entry values are never read.
	Describe() model.ElementDescriptor

	// Path is a tag breadcrumb for reports, e.g. "body > form > button".
	Path() string

	// Attr returns an attribute value and whether it is present.
	Attr(name string) (string, bool)
	SetAttr(name, value string) error
	RemoveAttr(name string) error

	// SupportsDisabled reports whether the element honors a disabled state.
	SupportsDisabled() bool

	// Wrap moves the element into a new container carrying attrs, in place.
	// Unwrap reverses a previous Wrap. Neither detaches the element.
	Wrap(attrs map[string]string) error
	Unwrap() error
	Wrapped() bool
}

// Insertion is a structural change that added nodes to the page.
type Insertion struct {
	Nodes []Node
}

// Overlay is a modal surface shown above all page content.
type Overlay interface {
	Update(remaining int, unlockable bool)
	Close()
}

// Page is a loaded host page.
type Page interface {
	URL() string
	Host() string

	// Document returns the root node of the page.
	Document() Node

	// Actionable returns actionable elements under root, in document order,
	// excluding the page's own overlay.
	Actionable(root Node) []Element

	// Subscribe registers fn for subtree insertions. The returned func
	// unsubscribes and is safe to call more than once.
	Subscribe(fn func(Insertion)) (unsubscribe func())

	// ShowOverlay places the reflection prompt above the page.
	ShowOverlay(delaySeconds int) (Overlay, error)

	// Render writes the current page markup to w.
	Render(w io.Writer) error
}

// Loader turns raw markup into a Page.
type Loader interface {
	Load(ctx context.Context, r io.Reader, pageURL string) (Page, error)
}

// Mutator is implemented by pages that can be changed from outside the
// engine, standing in for the page's own scripts.
type Mutator interface {
	// InsertHTML appends fragment to the first element matching
	// parentSelector and reports how many top-level elements were added.
	InsertHTML(parentSelector, fragment string) (int, error)
	// RemoveMatching detaches every element matching selector.
	RemoveMatching(selector string) (int, error)
}
