package monitor

import (
	"testing"

	"github.com/mj1618/shopshield/internal/guard"
	"github.com/mj1618/shopshield/internal/platform"
	"github.com/mj1618/shopshield/internal/platform/htmldom"
	"github.com/mj1618/shopshield/internal/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalog = `<html><body><main id="app"><a href="/p/1">Blue shirt</a></main></body></html>`

func setup(t *testing.T) (*htmldom.Document, *guard.Guard, *Monitor, *[]scan.Result) {
	t.Helper()
	doc, err := htmldom.ParseString(catalog, "https://shop.example.com/")
	require.NoError(t, err)
	g := guard.New()
	var seen []scan.Result
	m := New(doc, scan.New(doc, g, nil), Options{
		OnGuarded: func(r scan.Result) { seen = append(seen, r) },
	})
	return doc, g, m, &seen
}

func TestMonitor_GuardsInsertedButtonOnce(t *testing.T) {
	doc, g, m, seen := setup(t)

	var delivered []platform.Insertion
	doc.Subscribe(func(ins platform.Insertion) { delivered = append(delivered, ins) })
	m.Start()

	_, err := doc.InsertString("#app", `<div class="cart"><button>Buy now</button><button>Share</button></div>`)
	require.NoError(t, err)

	require.Len(t, *seen, 1)
	assert.Len(t, (*seen)[0].Guarded, 1)
	assert.Equal(t, 1, g.Count())

	// A duplicate mutation record changes nothing.
	require.Len(t, delivered, 1)
	again := m.Observe(delivered[0])
	assert.True(t, again.Empty())
	assert.Equal(t, 1, g.Count())
	assert.Len(t, *seen, 1)
}

func TestMonitor_ScansOnlyInsertedSubtree(t *testing.T) {
	doc, g, m, _ := setup(t)

	// Present before arming; must not be picked up by later insertions.
	pre := doc.Find("#app a")[0]
	require.NoError(t, pre.SetAttr("aria-label", "Checkout"))

	m.Start()
	_, err := doc.InsertString("#app", `<p>Free shipping</p>`)
	require.NoError(t, err)

	assert.Equal(t, 0, g.Count())
	assert.False(t, guard.IsGuarded(pre))
}

func TestMonitor_SkipsDetachedInsertion(t *testing.T) {
	doc, g, m, seen := setup(t)

	var delivered []platform.Insertion
	doc.Subscribe(func(ins platform.Insertion) { delivered = append(delivered, ins) })

	els, err := doc.InsertString("#app", `<button>Place order</button>`)
	require.NoError(t, err)
	require.Len(t, els, 1)
	doc.Remove(els[0])

	res := m.Observe(delivered[0])
	assert.True(t, res.Empty())
	assert.Equal(t, 0, g.Count())
	assert.Empty(t, *seen)
}

func TestMonitor_StartStop(t *testing.T) {
	doc, g, m, _ := setup(t)

	assert.False(t, m.Active())
	m.Start()
	m.Start()
	assert.True(t, m.Active())

	m.Stop()
	m.Stop()
	assert.False(t, m.Active())

	_, err := doc.InsertString("#app", `<button>Checkout</button>`)
	require.NoError(t, err)
	assert.Equal(t, 0, g.Count())
}

func TestMonitor_Dispatch(t *testing.T) {
	doc, err := htmldom.ParseString(catalog, "https://shop.example.com/")
	require.NoError(t, err)

	var queued []func()
	g := guard.New()
	m := New(doc, scan.New(doc, g, nil), Options{
		Dispatch: func(fn func()) { queued = append(queued, fn) },
	})
	m.Start()

	_, err = doc.InsertString("#app", `<button>Pay now</button>`)
	require.NoError(t, err)
	assert.Equal(t, 0, g.Count())

	require.Len(t, queued, 1)
	queued[0]()
	assert.Equal(t, 1, g.Count())
}
