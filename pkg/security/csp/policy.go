// Package csp builds Content-Security-Policy strings for static pages.
//
// The digest page is served as a plain file, so the policy is delivered in a
// <meta http-equiv> tag rather than a response header. Browsers ignore
// frame-ancestors, report-uri and sandbox in that position, so Builder does
// not offer them.
package csp

import (
	"strings"
)

// MetaHTTPEquiv is the http-equiv value of the meta tag carrying the policy.
const MetaHTTPEquiv = "Content-Security-Policy"

// directiveOrder fixes the output order so generated pages are stable.
var directiveOrder = []string{
	"default-src",
	"script-src",
	"style-src",
	"img-src",
	"font-src",
	"connect-src",
	"object-src",
	"base-uri",
	"form-action",
}

// Builder assembles a policy directive by directive. It is not safe for
// concurrent use.
type Builder struct {
	directives map[string][]string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{directives: make(map[string][]string)}
}

func (b *Builder) set(name string, sources []string) *Builder {
	b.directives[name] = sources
	return b
}

// DefaultSrc sets default-src, the fallback for every fetch directive.
func (b *Builder) DefaultSrc(sources ...string) *Builder { return b.set("default-src", sources) }

// ScriptSrc sets script-src.
func (b *Builder) ScriptSrc(sources ...string) *Builder { return b.set("script-src", sources) }

// StyleSrc sets style-src.
func (b *Builder) StyleSrc(sources ...string) *Builder { return b.set("style-src", sources) }

// ImgSrc sets img-src.
func (b *Builder) ImgSrc(sources ...string) *Builder { return b.set("img-src", sources) }

// FontSrc sets font-src.
func (b *Builder) FontSrc(sources ...string) *Builder { return b.set("font-src", sources) }

// ConnectSrc sets connect-src.
func (b *Builder) ConnectSrc(sources ...string) *Builder { return b.set("connect-src", sources) }

// ObjectSrc sets object-src.
func (b *Builder) ObjectSrc(sources ...string) *Builder { return b.set("object-src", sources) }

// BaseURI sets base-uri.
func (b *Builder) BaseURI(sources ...string) *Builder { return b.set("base-uri", sources) }

// FormAction sets form-action.
func (b *Builder) FormAction(sources ...string) *Builder { return b.set("form-action", sources) }

// Build returns the policy string. Directives with no sources are omitted.
func (b *Builder) Build() string {
	parts := make([]string, 0, len(b.directives))
	for _, name := range directiveOrder {
		sources, ok := b.directives[name]
		if !ok || len(sources) == 0 {
			continue
		}
		parts = append(parts, name+" "+strings.Join(sources, " "))
	}
	return strings.Join(parts, "; ")
}

// PagePolicy is the policy for the digest page: inline styles, remote or data
// images, and nothing else. Quiz answers use <details>, which needs no script.
func PagePolicy() *Builder {
	return NewBuilder().
		DefaultSrc("'none'").
		ScriptSrc("'none'").
		StyleSrc("'unsafe-inline'").
		ImgSrc("https:", "data:").
		ObjectSrc("'none'").
		BaseURI("'none'").
		FormAction("'none'")
}
