package htmldom

import (
	"strings"
	"testing"

	"github.com/mj1618/shopshield/internal/model"
	"github.com/mj1618/shopshield/internal/platform"
)

const shopPage = `<!DOCTYPE html><html><body>
<nav><a href="/">Home</a><a id="cart" href="/cart">Cart</a></nav>
<form id="checkout-form">
  <input name="email" type="email" placeholder="Email" value="me@example.com">
  <input name="cc_number" value="4111111111111111">
  <input type="submit" value="Place order">
  <button type="button" value="go">Proceed to <b>Checkout</b></button>
</form>
<div role="button" aria-label="Pay now">Pay</div>
<script>var checkout = 1;</script>
</body></html>`

func mustParse(t *testing.T, markup string) *Document {
	t.Helper()
	doc, err := ParseString(markup, "https://Shop.Example.com:8443/cart?x=1")
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestParse_URLAndHost(t *testing.T) {
	doc := mustParse(t, shopPage)
	if doc.Host() != "shop.example.com" {
		t.Errorf("host: got %q", doc.Host())
	}
	if !strings.HasPrefix(doc.URL(), "https://Shop.Example.com:8443/cart") {
		t.Errorf("url: got %q", doc.URL())
	}
}

func TestActionable_DocumentOrder(t *testing.T) {
	doc := mustParse(t, shopPage)
	els := doc.Actionable(doc.Document())

	var tags []string
	for _, el := range els {
		tags = append(tags, el.(*Element).Tag())
	}
	want := []string{"a", "a", "form", "input", "input", "input", "button", "div"}
	if strings.Join(tags, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", tags, want)
	}
}

func TestActionable_RolesFromRoleMap(t *testing.T) {
	doc := mustParse(t, `<html><body>
<div id="pay" role=" Button ">Pay</div>
<span id="note" role="note">Checkout soon</span>
<div id="plain">Checkout</div>
<span id="submit" type="SUBMIT">Go</span>
</body></html>`)

	var ids []string
	for _, el := range doc.Actionable(doc.Document()) {
		id, _ := el.Attr("id")
		ids = append(ids, id)
	}
	if strings.Join(ids, ",") != "pay,submit" {
		t.Errorf("got %v, want [pay submit]", ids)
	}
}

func TestElement_RecognizesParsedWrapper(t *testing.T) {
	doc := mustParse(t, `<html><body><div `+WrapperAttr+`="1" style="display:inline-block"><a id="cart" href="/cart">Cart</a></div></body></html>`)
	el := doc.Find("#cart")[0]
	if !el.Wrapped() {
		t.Fatal("expected wrapper from markup to be recognized")
	}
	if err := el.Unwrap(); err != nil {
		t.Fatalf("Unwrap: %v", err)
	}
	if strings.Contains(doc.String(), WrapperAttr) {
		t.Errorf("wrapper left behind: %s", doc.String())
	}
}

func TestActionable_IncludesSubtreeRoot(t *testing.T) {
	doc := mustParse(t, shopPage)
	forms := doc.Find("form")
	if len(forms) != 1 {
		t.Fatalf("expected 1 form, got %d", len(forms))
	}
	els := doc.Actionable(forms[0])
	if len(els) != 5 {
		t.Fatalf("expected form + 4 controls, got %d", len(els))
	}
	if els[0] != platform.Element(forms[0]) {
		t.Error("expected the subtree root first")
	}
}

func TestActionable_ForeignNode(t *testing.T) {
	a := mustParse(t, shopPage)
	b := mustParse(t, shopPage)
	if els := a.Actionable(b.Document()); els != nil {
		t.Errorf("expected nil for a node of another document, got %d", len(els))
	}
}

func TestDescribe(t *testing.T) {
	doc := mustParse(t, shopPage)

	tests := []struct {
		selector string
		want     model.ElementDescriptor
	}{
		{`input[name="email"]`, model.ElementDescriptor{Tag: model.TagInput, Name: "email", Placeholder: "Email", InputType: "email"}},
		{`input[name="cc_number"]`, model.ElementDescriptor{Tag: model.TagInput, Name: "cc_number", InputType: "text"}},
		{`input[type="submit"]`, model.ElementDescriptor{Tag: model.TagInput, Value: "Place order", InputType: "submit"}},
		{`button`, model.ElementDescriptor{Tag: model.TagButton, TextContent: "Proceed to Checkout", Value: "go"}},
		{`div[role="button"]`, model.ElementDescriptor{Tag: model.TagOther, TextContent: "Pay", AriaLabel: "Pay now", Role: "button"}},
		{`#cart`, model.ElementDescriptor{Tag: model.TagAnchor, TextContent: "Cart", ID: "cart"}},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			els := doc.Find(tt.selector)
			if len(els) != 1 {
				t.Fatalf("expected 1 match, got %d", len(els))
			}
			if got := els[0].Describe(); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDescribe_FormSkipsScriptText(t *testing.T) {
	doc := mustParse(t, `<html><body><form id="f">Total <script>checkout()</script><style>.x{}</style></form></body></html>`)
	d := doc.Find("#f")[0].Describe()
	if d.TextContent != "Total" {
		t.Errorf("text: got %q", d.TextContent)
	}
}

func TestPath(t *testing.T) {
	doc := mustParse(t, shopPage)
	if got := doc.Find("button")[0].Path(); got != "body > form > button" {
		t.Errorf("got %q", got)
	}
}

func TestStableWrappers(t *testing.T) {
	doc := mustParse(t, shopPage)
	a := doc.Find("button")[0]
	b := doc.Find("button")[0]
	if a != b {
		t.Error("expected the same wrapper for the same node")
	}
}

func TestAttrs(t *testing.T) {
	doc := mustParse(t, shopPage)
	el := doc.Find("button")[0]

	if _, ok := el.Attr("disabled"); ok {
		t.Fatal("button should not start disabled")
	}
	if err := el.SetAttr("disabled", ""); err != nil {
		t.Fatal(err)
	}
	if v, ok := el.Attr("disabled"); !ok || v != "" {
		t.Errorf("disabled: got %q, %v", v, ok)
	}
	if err := el.SetAttr("disabled", "x"); err != nil {
		t.Fatal(err)
	}
	if v, _ := el.Attr("disabled"); v != "x" {
		t.Errorf("expected overwrite, got %q", v)
	}
	if err := el.RemoveAttr("disabled"); err != nil {
		t.Fatal(err)
	}
	if _, ok := el.Attr("disabled"); ok {
		t.Error("disabled should be removed")
	}
}

func TestSupportsDisabled(t *testing.T) {
	doc := mustParse(t, shopPage)
	if !doc.Find("button")[0].SupportsDisabled() {
		t.Error("button supports disabled")
	}
	if doc.Find("#cart")[0].SupportsDisabled() {
		t.Error("anchor does not support disabled")
	}
	if doc.Find("form")[0].SupportsDisabled() {
		t.Error("form does not support disabled")
	}
}

func TestWrapUnwrap_RoundTrip(t *testing.T) {
	doc := mustParse(t, shopPage)
	before := doc.String()

	el := doc.Find("#cart")[0]
	if err := el.Wrap(map[string]string{"style": "display:inline-block"}); err != nil {
		t.Fatal(err)
	}
	if !el.Wrapped() {
		t.Fatal("expected wrapped")
	}
	if !el.Attached() {
		t.Fatal("wrapped element must stay attached")
	}
	if !strings.Contains(doc.String(), `<div `+WrapperAttr+`="1" style="display:inline-block"><a id="cart"`) {
		t.Errorf("wrapper not rendered around element:\n%s", doc.String())
	}
	if got := el.Path(); got != "body > nav > a" {
		t.Errorf("path should skip wrapper, got %q", got)
	}

	// Second wrap is a no-op.
	if err := el.Wrap(nil); err != nil {
		t.Fatal(err)
	}

	if err := el.Unwrap(); err != nil {
		t.Fatal(err)
	}
	if el.Wrapped() {
		t.Error("expected unwrapped")
	}
	if after := doc.String(); after != before {
		t.Errorf("unwrap did not restore markup:\nbefore: %s\nafter:  %s", before, after)
	}
}

func TestWrap_Detached(t *testing.T) {
	doc := mustParse(t, shopPage)
	el := doc.Find("#cart")[0]
	doc.Remove(el)
	if el.Attached() {
		t.Fatal("expected detached")
	}
	if err := el.Wrap(nil); err == nil {
		t.Error("expected error wrapping a detached element")
	}
}

func TestInsert_NotifiesSubscribers(t *testing.T) {
	doc := mustParse(t, shopPage)

	var got []platform.Insertion
	unsubscribe := doc.Subscribe(func(rec platform.Insertion) { got = append(got, rec) })

	inserted, err := doc.InsertString("", `<section><button>Buy now</button></section>text<p>x</p>`)
	if err != nil {
		t.Fatal(err)
	}
	if len(inserted) != 2 {
		t.Fatalf("expected 2 element nodes, got %d", len(inserted))
	}
	if len(got) != 1 || len(got[0].Nodes) != 2 {
		t.Fatalf("expected 1 record with 2 nodes, got %+v", got)
	}

	unsubscribe()
	unsubscribe()
	if _, err := doc.InsertString("form", `<button>Pay now</button>`); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("expected no notification after unsubscribe, got %d records", len(got))
	}
	if n := len(doc.Find("form button")); n != 2 {
		t.Errorf("expected fragment inside form, found %d buttons", n)
	}
}

func TestInsert_UnknownParent(t *testing.T) {
	doc := mustParse(t, shopPage)
	if _, err := doc.InsertString("#missing", `<button>x</button>`); err == nil {
		t.Error("expected error for unknown parent")
	}
}

func TestOverlay_Lifecycle(t *testing.T) {
	doc := mustParse(t, shopPage)
	before := len(doc.Actionable(doc.Document()))

	ov, err := doc.ShowOverlay(3)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(doc.String(), "Please wait 3 second(s) before overriding.") {
		t.Error("expected countdown label")
	}
	if _, ok := doc.Find("#" + OverrideButtonID)[0].Attr("disabled"); !ok {
		t.Error("override should start disabled")
	}
	if n := len(doc.Actionable(doc.Document())); n != before {
		t.Errorf("overlay buttons must not be actionable: %d != %d", n, before)
	}
	if _, err := doc.ShowOverlay(3); err == nil {
		t.Error("expected error for a second overlay")
	}

	ov.Update(1, false)
	if !strings.Contains(doc.String(), "Please wait 1 second(s)") {
		t.Error("expected updated label")
	}
	ov.Update(0, true)
	if !strings.Contains(doc.String(), "You may override now.") {
		t.Error("expected unlock label")
	}
	if _, ok := doc.Find("#" + OverrideButtonID)[0].Attr("disabled"); ok {
		t.Error("override should be enabled")
	}

	ov.Close()
	ov.Close()
	if strings.Contains(doc.String(), OverlayID) {
		t.Error("overlay should be removed")
	}
}

func TestLoader(t *testing.T) {
	p, err := platform.NewProvider()
	if err != nil {
		t.Fatal(err)
	}
	page, err := p.Loader.Load(t.Context(), strings.NewReader(shopPage), "https://shop.example.com/")
	if err != nil {
		t.Fatal(err)
	}
	if page.Host() != "shop.example.com" {
		t.Errorf("host: got %q", page.Host())
	}
}

func TestDescribe_InlineTextJoined(t *testing.T) {
	doc := mustParse(t, `<html><body><button>Check<b>out</b></button><div role="button"><p>Pay</p><p>now</p></div></body></html>`)
	if got := doc.Find("button")[0].Describe().TextContent; got != "Checkout" {
		t.Errorf("inline text: got %q", got)
	}
	if got := doc.Find("div")[0].Describe().TextContent; got != "Pay now" {
		t.Errorf("block text: got %q", got)
	}
}

func TestMutator(t *testing.T) {
	doc := mustParse(t, `<html><body><main id="app"><p class="x">a</p><p class="x">b</p></main></body></html>`)

	var seen int
	doc.Subscribe(func(ins platform.Insertion) { seen += len(ins.Nodes) })

	n, err := doc.InsertHTML("#app", `<button>One</button>text<button>Two</button>`)
	if err != nil || n != 2 || seen != 2 {
		t.Fatalf("InsertHTML: n=%d seen=%d err=%v", n, seen, err)
	}

	n, err = doc.RemoveMatching(".x")
	if err != nil || n != 2 {
		t.Fatalf("RemoveMatching: n=%d err=%v", n, err)
	}
	if strings.Contains(doc.String(), `class="x"`) {
		t.Error("elements not removed")
	}
	if _, err := doc.RemoveMatching(""); err == nil {
		t.Error("expected error for empty selector")
	}
}

func TestRemove_TakesWrapper(t *testing.T) {
	doc := mustParse(t, `<html><body><a href="/c">Checkout</a></body></html>`)
	el := doc.Find("a")[0]
	if err := el.Wrap(map[string]string{"style": "opacity:0.35"}); err != nil {
		t.Fatal(err)
	}
	doc.Remove(el)
	if strings.Contains(doc.String(), WrapperAttr) {
		t.Error("wrapper left behind")
	}
}
