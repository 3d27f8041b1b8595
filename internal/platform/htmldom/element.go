package htmldom

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mj1618/shopshield/internal/model"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element wraps one element node of a Document. Wrappers are stable: the
// same node always yields the same *Element.
type Element struct {
	doc     *Document
	n       *html.Node
	wrapper *html.Node
}

// Attached implements platform.Node.
func (e *Element) Attached() bool {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.doc.attached(e.n)
}

// Tag returns the lowercase HTML tag name.
func (e *Element) Tag() string { return e.n.Data }

// Describe implements platform.Element.
func (e *Element) Describe() model.ElementDescriptor {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	attr := func(name string) string {
		v, _ := getAttr(e.n, name)
		return v
	}

	d := model.ElementDescriptor{
		Tag:         model.MapTag(e.n.Data),
		TextContent: textContent(e.n),
		AriaLabel:   attr("aria-label"),
		Name:        attr("name"),
		ID:          attr("id"),
		Placeholder: attr("placeholder"),
		Role:        attr("role"),
	}

	switch d.Tag {
	case model.TagInput:
		d.InputType = strings.ToLower(strings.TrimSpace(attr("type")))
		if d.InputType == "" {
			d.InputType = "text"
		}
		if model.IsButtonLikeInput(d.InputType) {
			d.Value = attr("value")
		}
	case model.TagButton:
		d.Value = attr("value")
	}
	return d
}

// Path implements platform.Element.
func (e *Element) Path() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	var parts []string
	for p := e.n; p != nil; p = p.Parent {
		if p.Type != html.ElementNode || p.DataAtom == atom.Html {
			continue
		}
		if _, ok := getAttr(p, WrapperAttr); ok {
			continue
		}
		parts = append(parts, p.Data)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}

// Attr implements platform.Element.
func (e *Element) Attr(name string) (string, bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return getAttr(e.n, name)
}

// SetAttr implements platform.Element.
func (e *Element) SetAttr(name, value string) error {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	setAttr(e.n, name, value)
	return nil
}

// RemoveAttr implements platform.Element.
func (e *Element) RemoveAttr(name string) error {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	removeAttr(e.n, name)
	return nil
}

// SupportsDisabled implements platform.Element.
func (e *Element) SupportsDisabled() bool {
	return model.DisableableTags[e.n.Data]
}

// Wrap implements platform.Element.
func (e *Element) Wrap(attrs map[string]string) error {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	if e.wrapper != nil {
		return nil
	}
	parent := e.n.Parent
	if parent == nil {
		return fmt.Errorf("wrap <%s>: %w", e.n.Data, ErrDetached)
	}

	w := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	setAttr(w, WrapperAttr, "1")
	for _, k := range sortedKeys(attrs) {
		setAttr(w, k, attrs[k])
	}
	parent.InsertBefore(w, e.n)
	parent.RemoveChild(e.n)
	w.AppendChild(e.n)
	e.wrapper = w
	return nil
}

// Unwrap implements platform.Element.
func (e *Element) Unwrap() error {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	w := e.wrapper
	if w == nil {
		return nil
	}
	parent := w.Parent
	if parent == nil || e.n.Parent != w {
		return fmt.Errorf("unwrap <%s>: %w", e.n.Data, ErrDetached)
	}
	w.RemoveChild(e.n)
	parent.InsertBefore(e.n, w)
	parent.RemoveChild(w)
	e.wrapper = nil
	return nil
}

// Wrapped implements platform.Element.
func (e *Element) Wrapped() bool {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.wrapper != nil
}

// inlineAtoms are elements rendered without breaking the surrounding text.
var inlineAtoms = map[atom.Atom]bool{
	atom.A: true, atom.Abbr: true, atom.B: true, atom.Code: true, atom.Em: true,
	atom.I: true, atom.Label: true, atom.Mark: true, atom.Small: true,
	atom.Span: true, atom.Strong: true, atom.Sub: true, atom.Sup: true, atom.U: true,
}

// textContent approximates innerText: visible text with whitespace collapsed.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Template, atom.Noscript:
				return
			}
		}
		block := n.Type == html.ElementNode && !inlineAtoms[n.DataAtom]
		if block {
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteByte(' ')
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
