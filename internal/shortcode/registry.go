// Package shortcode maps shortcode tags embedded in page content to the
// functions that render them.
package shortcode

import (
	"context"
	"regexp"
	"sync"
)

// Attributes are the key/value pairs written inside a shortcode.
type Attributes map[string]string

// Func renders one shortcode invocation.
type Func func(ctx context.Context, attrs Attributes) string

// Registry resolves tags to render functions. It is populated at startup and
// read by every request.
type Registry struct {
	mu   sync.RWMutex
	tags map[string]Func
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tags: make(map[string]Func)}
}

// Register installs fn under tag, replacing any previous registration.
func (r *Registry) Register(tag string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags[tag] = fn
}

// Remove deletes the registration for tag, if any.
func (r *Registry) Remove(tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tags, tag)
}

// Has reports whether tag is registered.
func (r *Registry) Has(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tags[tag]
	return ok
}

// Render runs the function registered for tag.
func (r *Registry) Render(ctx context.Context, tag string, attrs Attributes) (string, bool) {
	r.mu.RLock()
	fn, ok := r.tags[tag]
	r.mu.RUnlock()
	if !ok {
		return "", false
	}
	if attrs == nil {
		attrs = Attributes{}
	}
	return fn(ctx, attrs), true
}

var (
	// Groups: opening escape bracket, tag, attributes, closing escape bracket.
	shortcodePattern = regexp.MustCompile(`\[(\[?)([A-Za-z0-9_-]+)((?:\s(?:"[^"]*"|'[^']*'|[^\[\]"'])*)?)\](\]?)`)
	attrPattern      = regexp.MustCompile(`([A-Za-z0-9_-]+)\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"']+))`)
)

// Expand replaces every registered shortcode in content with its rendered
// output. Unknown tags are left as written. A doubled bracket, as in
// [[tag]], escapes the shortcode and is emitted as the literal [tag].
func (r *Registry) Expand(ctx context.Context, content string) string {
	return shortcodePattern.ReplaceAllStringFunc(content, func(match string) string {
		parts := shortcodePattern.FindStringSubmatch(match)
		open, tag, rawAttrs, closing := parts[1], parts[2], parts[3], parts[4]
		if !r.Has(tag) {
			return match
		}
		if open == "[" && closing == "]" {
			return match[1 : len(match)-1]
		}
		out, ok := r.Render(ctx, tag, ParseAttributes(rawAttrs))
		if !ok {
			return match
		}
		return open + out + closing
	})
}

// ParseAttributes reads key="value", key='value' and key=value pairs.
func ParseAttributes(raw string) Attributes {
	attrs := Attributes{}
	for _, m := range attrPattern.FindAllStringSubmatch(raw, -1) {
		switch {
		case m[2] != "":
			attrs[m[1]] = m[2]
		case m[3] != "":
			attrs[m[1]] = m[3]
		default:
			attrs[m[1]] = m[4]
		}
	}
	return attrs
}
