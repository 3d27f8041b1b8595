package htmldom

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mj1618/shopshield/internal/platform"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Overlay element ids.
const (
	OverlayID        = "shopshield-modal-root"
	TimerLabelID     = "shopshield-timer-label"
	OverrideButtonID = "shopshield-override"
	CancelButtonID   = "shopshield-cancel"
)

const overlayMarkup = `<div id="` + OverlayID + `" ` + OverlayAttr + `="1" style="position:fixed;top:0;left:0;right:0;bottom:0;z-index:2147483647;display:flex;align-items:center;justify-content:center;background:rgba(0,0,0,0.45)">
<div role="dialog" aria-modal="true" style="max-width:520px;padding:18px;border-radius:10px;background:#fff;color:#111">
<h2>Pause and reflect</h2>
<p>Before completing this purchase, take a moment to reflect.</p>
<ul><li>Do I really need this?</li><li>Can I wait 24 hours?</li><li>Can I afford this right now?</li></ul>
<div id="` + TimerLabelID + `"></div>
<button id="` + OverrideButtonID + `" disabled>Override</button>
<button id="` + CancelButtonID + `">Cancel</button>
</div>
</div>`

// overlay is the reflection prompt inside a Document.
type overlay struct {
	doc      *Document
	root     *html.Node
	label    *html.Node
	override *html.Node
}

// ShowOverlay implements platform.Page. Only one overlay root exists at a
// time; showing a second one replaces nothing and returns an error.
func (d *Document) ShowOverlay(delaySeconds int) (platform.Overlay, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if goquery.NewDocumentFromNode(d.root).Find("#"+OverlayID).Length() > 0 {
		return nil, fmt.Errorf("overlay %q already present", OverlayID)
	}
	body := d.body()
	if body == nil {
		return nil, fmt.Errorf("show overlay: document has no body")
	}

	nodes, err := html.ParseFragment(strings.NewReader(overlayMarkup), &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body})
	if err != nil {
		return nil, fmt.Errorf("parse overlay: %w", err)
	}
	var root *html.Node
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			root = n
			break
		}
	}
	if root == nil {
		return nil, fmt.Errorf("parse overlay: no root element")
	}
	body.AppendChild(root)

	sel := goquery.NewDocumentFromNode(root)
	o := &overlay{
		doc:      d,
		root:     root,
		label:    sel.Find("#" + TimerLabelID).Get(0),
		override: sel.Find("#" + OverrideButtonID).Get(0),
	}
	o.render(delaySeconds, false)
	return o, nil
}

// Update implements platform.Overlay.
func (o *overlay) Update(remaining int, unlockable bool) {
	o.doc.mu.Lock()
	defer o.doc.mu.Unlock()
	o.render(remaining, unlockable)
}

// Close implements platform.Overlay. It is safe to call more than once.
func (o *overlay) Close() {
	o.doc.mu.Lock()
	defer o.doc.mu.Unlock()
	if o.root.Parent != nil {
		o.root.Parent.RemoveChild(o.root)
	}
}

// render updates the label and override button. Callers hold doc.mu.
func (o *overlay) render(remaining int, unlockable bool) {
	text := fmt.Sprintf("Please wait %d second(s) before overriding.", remaining)
	if unlockable {
		text = "You may override now."
		removeAttr(o.override, "disabled")
	} else {
		setAttr(o.override, "disabled", "")
	}
	for c := o.label.FirstChild; c != nil; c = o.label.FirstChild {
		o.label.RemoveChild(c)
	}
	o.label.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}
