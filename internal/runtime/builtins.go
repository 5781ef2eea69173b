// Package runtime is the registry native functions self-register into. The
// VM blank-imports each native's package at construction and installs every
// registered entry into globals.
package runtime

import (
	"fmt"

	"github.com/xirelogy/go-ember/internal/bytecode"
)

// Spec describes one native function: its script-visible name and the host
// callback that implements it.
type Spec struct {
	Name    string
	Handler bytecode.NativeFn
}

var registry = map[string]Spec{}

// Register installs a native under its name. It panics on a duplicate name
// since that indicates a programming error in the native packages
// themselves, not a condition a caller can recover from.
func Register(spec Spec) {
	if spec.Handler == nil {
		panic(fmt.Sprintf("native %s has nil handler", spec.Name))
	}
	if _, exists := registry[spec.Name]; exists {
		panic(fmt.Sprintf("native %s already registered", spec.Name))
	}
	registry[spec.Name] = spec
}

// All returns every registered native, ready for installation into a fresh
// VM's globals.
func All() []Spec {
	out := make([]Spec, 0, len(registry))
	for _, spec := range registry {
		out = append(out, spec)
	}
	return out
}
