package backend

import (
	"fmt"
	"sort"
	"strings"
)

// Factory builds a backend adapter. Factories are registered at package
// init time, before any lookup can happen.
type Factory func() Backend

var registry = map[string]Factory{}

// Register adds a named backend factory. Registering the same name twice
// is a programming error and panics.
func Register(name string, f Factory) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("backend %q registered twice", name))
	}
	registry[name] = f
}

// Names returns the registered backend names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the backend registered under name. An unrecognized name
// is a hard error listing every registered backend.
func Lookup(name string) (Backend, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown backend %q (registered backends: %s)",
			name, strings.Join(Names(), ", "))
	}
	return f(), nil
}
