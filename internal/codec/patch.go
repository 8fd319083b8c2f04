package codec

import (
	"maps"
	"net/url"
	"slices"
	"strings"
)

// Patch is a key-level change to a persisted representation. An empty
// value deletes the key.
type Patch map[string]string

// Keys returns the patched keys in sorted order.
func (p Patch) Keys() []string {
	return slices.Sorted(maps.Keys(p))
}

// Merge copies every key of o into p, o winning on overlap.
func (p Patch) Merge(o Patch) {
	for k, v := range o {
		p[k] = v
	}
}

// Clone returns a copy.
func (p Patch) Clone() Patch {
	return maps.Clone(p)
}

// ApplyTo patches vals in place.
func (p Patch) ApplyTo(vals url.Values) {
	for k, v := range p {
		if v == "" {
			vals.Del(k)
			continue
		}
		vals.Set(k, v)
	}
}

// Apply patches persisted text and returns the re-encoded result.
func (p Patch) Apply(text string) string {
	vals, _ := url.ParseQuery(strings.TrimPrefix(text, "?"))
	if vals == nil {
		vals = url.Values{}
	}
	p.ApplyTo(vals)
	return vals.Encode()
}

// Diff returns the patch turning prev into next.
func Diff(prev, next url.Values) Patch {
	out := Patch{}
	for k := range next {
		if nv := next.Get(k); nv != prev.Get(k) {
			out[k] = nv
		}
	}
	for k := range prev {
		if _, ok := next[k]; !ok {
			out[k] = ""
		}
	}
	return out
}
