package browser

import (
	"strings"
	"sync"
)

// HandleAttribute tags every element the snapshot has seen so later calls
// can find it again.
const HandleAttribute = "data-domlens-handle"

var (
	// Cache the scripts since they never change
	cachedScripts     scriptSet
	cachedScriptsOnce sync.Once
)

type scriptSet struct {
	snapshot       string
	measure        string
	applyTransform string
	query          string
	fromPoint      string
}

// scripts returns the page-side functions, with the handle attribute
// substituted in.
func scripts() scriptSet {
	cachedScriptsOnce.Do(func() {
		r := strings.NewReplacer("__HANDLE_ATTR__", HandleAttribute)
		cachedScripts = scriptSet{
			snapshot:       r.Replace(snapshotScript),
			measure:        r.Replace(measureScript),
			applyTransform: r.Replace(applyTransformScript),
			query:          r.Replace(queryScript),
			fromPoint:      r.Replace(fromPointScript),
		}
	})
	return cachedScripts
}

// snapshotScript tags and describes every element under documentElement.
// className is an SVGAnimatedString on SVG elements; it is sent as
// {baseVal} and normalized on the Go side.
const snapshotScript = `() => {
  const ATTR = '__HANDLE_ATTR__';
  window.__domlensNext = window.__domlensNext || 0;
  const handleOf = (el) => {
    let h = el.getAttribute(ATTR);
    if (!h) {
      h = 'b' + (++window.__domlensNext);
      el.setAttribute(ATTR, h);
    }
    return h;
  };
  const nodes = [];
  const visit = (el, parent) => {
    const handle = handleOf(el);
    const attrs = [];
    for (const a of el.attributes) {
      if (a.name !== ATTR) attrs.push({ name: a.name, value: a.value });
    }
    const cls = el.className;
    const cs = window.getComputedStyle(el);
    const node = {
      handle: handle,
      parent: parent,
      tag: el.tagName,
      attrs: attrs,
      className: typeof cls === 'string' ? cls : (cls && 'baseVal' in cls ? { baseVal: cls.baseVal } : ''),
      text: el.textContent || '',
      style: { display: cs.display, position: cs.position },
      children: [],
    };
    nodes.push(node);
    for (const c of el.children) {
      node.children.push(visit(c, handle));
    }
    return handle;
  };
  visit(document.documentElement, '');
  return nodes;
}`

// measureScript returns the live box and scroll offset of one element, or
// null when it is gone.
const measureScript = `(h) => {
  const el = document.querySelector('[__HANDLE_ATTR__="' + CSS.escape(h) + '"]');
  if (!el || !el.isConnected) return null;
  const r = el.getBoundingClientRect();
  return {
    left: r.left, top: r.top, width: r.width, height: r.height,
    scrollLeft: el.scrollLeft, scrollTop: el.scrollTop,
  };
}`

// applyTransformScript sets the view transform on the content root.
const applyTransformScript = `(h, css) => {
  const el = document.querySelector('[__HANDLE_ATTR__="' + CSS.escape(h) + '"]');
  if (!el) return false;
  el.style.transformOrigin = 'top left';
  el.style.transform = css;
  return true;
}`

const queryScript = `(sel) => {
  const el = document.querySelector(sel);
  return el ? (el.getAttribute('__HANDLE_ATTR__') || '') : null;
}`

// fromPointScript uses the browser's own hit test.
const fromPointScript = `(x, y) => {
  let el = document.elementFromPoint(x, y);
  while (el && !el.hasAttribute('__HANDLE_ATTR__')) el = el.parentElement;
  return el ? el.getAttribute('__HANDLE_ATTR__') : '';
}`
