// Package dispatch classifies a tokenized stage into a built-in, an
// external invocation, or unknown, using a closed three-tag sum type
// rather than an open, registry-driven classification.
package dispatch

import "github.com/marcelocantos/doitsh/internal/pathcache"

// Kind tags the classification of a stage.
type Kind int

const (
	KindBuiltin Kind = iota
	KindExternal
	KindUnknown
)

// builtinNames is the closed set of built-in command names. A name is a
// built-in iff it matches this set exactly; an external of the same name is
// always shadowed.
var builtinNames = map[string]bool{
	"echo":    true,
	"exit":    true,
	"pwd":     true,
	"type":    true,
	"cd":      true,
	"history": true,
}

// IsBuiltin reports whether name is one of the six built-in identities.
func IsBuiltin(name string) bool {
	return builtinNames[name]
}

// Dispatch is the resolved classification of one stage.
type Dispatch struct {
	Kind Kind
	Name string
	// Path holds the resolved absolute path when Kind == KindExternal.
	Path string
}

// Resolve classifies name against the built-in set first, then the path
// cache. An empty cache lookup yields KindUnknown.
func Resolve(name string, cache *pathcache.Cache) Dispatch {
	if IsBuiltin(name) {
		return Dispatch{Kind: KindBuiltin, Name: name}
	}
	if path, ok := cache.Lookup(name); ok {
		return Dispatch{Kind: KindExternal, Name: name, Path: path}
	}
	return Dispatch{Kind: KindUnknown, Name: name}
}
