package scenario

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
)

// builtins contains the bundled scenarios, one per file named <name>.yaml.
//
//go:embed builtin/*.yaml
var builtins embed.FS

// BuiltinNames lists the bundled scenarios in sorted order.
func BuiltinNames() []string {
	entries, err := builtins.ReadDir("builtin")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Builtin returns the bundled scenario with the given name.
func Builtin(name string) (*Scenario, error) {
	data, err := builtins.ReadFile(path.Join("builtin", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("unknown built-in scenario %q (available: %s): %w",
			name, strings.Join(BuiltinNames(), ", "), ErrInvalidScenario)
	}
	return Parse(data)
}

// Resolve returns the built-in scenario called ref, or loads ref as a file path.
func Resolve(ref string) (*Scenario, error) {
	for _, name := range BuiltinNames() {
		if name == ref {
			return Builtin(name)
		}
	}
	return Load(ref)
}
