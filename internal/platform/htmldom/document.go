package htmldom

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/mj1618/shopshield/internal/model"
	"github.com/mj1618/shopshield/internal/platform"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// candidateSelector is a superset of the actionable elements; Actionable
// narrows role matches with model.IsActionableRole.
var candidateSelector = func() string {
	parts := make([]string, 0, len(model.TagMap)+2)
	for tag := range model.TagMap {
		parts = append(parts, tag)
	}
	sort.Strings(parts)
	return strings.Join(append(parts, `[type="submit"]`, "[role]"), ", ")
}()

// Attributes the package writes to mark its own nodes.
const (
	OverlayAttr = "data-shopshield-overlay"
	WrapperAttr = "data-shopshield-wrapper"
)

// ErrDetached is returned when a mutation needs a parent the node no longer has.
var ErrDetached = errors.New("node is not attached to the document")

var (
	_ platform.Page    = (*Document)(nil)
	_ platform.Mutator = (*Document)(nil)
	_ platform.Element = (*Element)(nil)
)

// Loader parses markup into a Document.
type Loader struct{}

// Load implements platform.Loader.
func (Loader) Load(ctx context.Context, r io.Reader, pageURL string) (platform.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Parse(r, pageURL)
}

// Document is a parsed page. It is safe for concurrent use.
type Document struct {
	mu      sync.Mutex
	root    *html.Node
	url     *url.URL
	nodes   map[*html.Node]*Element
	subs    map[int]func(platform.Insertion)
	nextSub int
}

// Parse reads an HTML document from r.
func Parse(r io.Reader, pageURL string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	return &Document{
		root:  root,
		url:   u,
		nodes: make(map[*html.Node]*Element),
		subs:  make(map[int]func(platform.Insertion)),
	}, nil
}

// ParseString is Parse over a string.
func ParseString(markup, pageURL string) (*Document, error) {
	return Parse(strings.NewReader(markup), pageURL)
}

// URL implements platform.Page.
func (d *Document) URL() string { return d.url.String() }

// Host implements platform.Page. The result is lowercase and has no port.
func (d *Document) Host() string { return strings.ToLower(d.url.Hostname()) }

// Document implements platform.Page.
func (d *Document) Document() platform.Node {
	return &Element{doc: d, n: d.root}
}

// Actionable implements platform.Page.
func (d *Document) Actionable(root platform.Node) []platform.Element {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := d.nodeOf(root)
	if n == nil || !d.attached(n) {
		return nil
	}

	sel := goquery.NewDocumentFromNode(n).Selection
	matches := sel.Filter(candidateSelector).AddSelection(sel.Find(candidateSelector))

	var result []platform.Element
	matches.Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		if insideOverlay(node) || !actionable(node) {
			return
		}
		result = append(result, d.element(node))
	})
	return result
}

// Find returns the elements matching a CSS selector, in document order.
func (d *Document) Find(selector string) []*Element {
	d.mu.Lock()
	defer d.mu.Unlock()

	var result []*Element
	goquery.NewDocumentFromNode(d.root).Find(selector).Each(func(_ int, s *goquery.Selection) {
		result = append(result, d.element(s.Get(0)))
	})
	return result
}

// Subscribe implements platform.Page.
func (d *Document) Subscribe(fn func(platform.Insertion)) func() {
	d.mu.Lock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = fn
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.subs, id)
		d.mu.Unlock()
	}
}

// Insert parses fragment and appends its top-level elements to the first
// element matching parentSelector ("body" when empty). Subscribers are
// notified after the tree lock is released.
func (d *Document) Insert(parentSelector string, fragment io.Reader) ([]*Element, error) {
	if parentSelector == "" {
		parentSelector = "body"
	}

	d.mu.Lock()
	parent := goquery.NewDocumentFromNode(d.root).Find(parentSelector).First()
	if parent.Length() == 0 {
		d.mu.Unlock()
		return nil, fmt.Errorf("no element matches %q", parentSelector)
	}
	p := parent.Get(0)

	nodes, err := html.ParseFragment(fragment, &html.Node{Type: html.ElementNode, Data: p.Data, DataAtom: p.DataAtom})
	if err != nil {
		d.mu.Unlock()
		return nil, fmt.Errorf("parse fragment: %w", err)
	}

	var inserted []*Element
	for _, n := range nodes {
		p.AppendChild(n)
		if n.Type == html.ElementNode {
			inserted = append(inserted, d.element(n))
		}
	}
	subs := d.subscribers()
	d.mu.Unlock()

	if len(inserted) == 0 {
		return inserted, nil
	}
	rec := platform.Insertion{Nodes: make([]platform.Node, len(inserted))}
	for i, el := range inserted {
		rec.Nodes[i] = el
	}
	for _, fn := range subs {
		fn(rec)
	}
	return inserted, nil
}

// InsertString is Insert over a string.
func (d *Document) InsertString(parentSelector, fragment string) ([]*Element, error) {
	return d.Insert(parentSelector, strings.NewReader(fragment))
}

// Remove detaches el from the tree, together with its wrapper if any.
func (d *Document) Remove(el *Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := el.n
	if el.wrapper != nil && n.Parent == el.wrapper {
		n = el.wrapper
	}
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// Render implements platform.Page.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.root)
}

// String renders the document, for tests and debugging.
func (d *Document) String() string {
	var b strings.Builder
	_ = d.Render(&b)
	return b.String()
}

func (d *Document) subscribers() []func(platform.Insertion) {
	subs := make([]func(platform.Insertion), 0, len(d.subs))
	for i := 0; i < d.nextSub; i++ {
		if fn, ok := d.subs[i]; ok {
			subs = append(subs, fn)
		}
	}
	return subs
}

// element returns the stable wrapper for n. A guard wrapper already present
// in parsed markup is recognized. Callers hold d.mu.
func (d *Document) element(n *html.Node) *Element {
	if el, ok := d.nodes[n]; ok {
		return el
	}
	el := &Element{doc: d, n: n}
	if p := n.Parent; p != nil && p.Type == html.ElementNode {
		if _, ok := getAttr(p, WrapperAttr); ok {
			el.wrapper = p
		}
	}
	d.nodes[n] = el
	return el
}

func (d *Document) nodeOf(node platform.Node) *html.Node {
	el, ok := node.(*Element)
	if !ok || el.doc != d {
		return nil
	}
	return el.n
}

// attached reports whether n is connected to the root. Callers hold d.mu.
func (d *Document) attached(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.root {
			return true
		}
	}
	return false
}

func (d *Document) body() *html.Node {
	var find func(*html.Node) *html.Node
	find = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			return n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if b := find(c); b != nil {
				return b
			}
		}
		return nil
	}
	return find(d.root)
}

// actionable reports whether n is a tag the scanner considers, a submit
// control, or carries an actionable ARIA role.
func actionable(n *html.Node) bool {
	if _, ok := model.TagMap[n.Data]; ok {
		return true
	}
	if t, ok := getAttr(n, "type"); ok && strings.EqualFold(strings.TrimSpace(t), "submit") {
		return true
	}
	role, _ := getAttr(n, "role")
	return model.IsActionableRole(role)
}

func insideOverlay(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if _, ok := getAttr(p, OverlayAttr); ok {
			return true
		}
	}
	return false
}

func getAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

func removeAttr(n *html.Node, name string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// InsertHTML implements platform.Mutator.
func (d *Document) InsertHTML(parentSelector, fragment string) (int, error) {
	els, err := d.InsertString(parentSelector, fragment)
	return len(els), err
}

// RemoveMatching implements platform.Mutator.
func (d *Document) RemoveMatching(selector string) (int, error) {
	if selector == "" {
		return 0, fmt.Errorf("selector is required")
	}
	els := d.Find(selector)
	for _, el := range els {
		d.Remove(el)
	}
	return len(els), nil
}
