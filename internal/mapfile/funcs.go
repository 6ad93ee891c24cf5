package mapfile

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Func computes a target value from the resolved argument values and the
// field's params.
type Func func(args []string, params map[string]string) (string, error)

// Unbounded is the MaxArgs value for functions taking any number of args.
const Unbounded = -1

// FuncSpec describes a registered function.
type FuncSpec struct {
	Name    string
	MinArgs int
	MaxArgs int // Unbounded for no limit
	Params  []string
	Fn      Func
}

func (s FuncSpec) checkArgs(n int) error {
	if n < s.MinArgs {
		return fmt.Errorf("%s needs at least %d args, got %d", s.Name, s.MinArgs, n)
	}
	if s.MaxArgs != Unbounded && n > s.MaxArgs {
		return fmt.Errorf("%s takes at most %d args, got %d", s.Name, s.MaxArgs, n)
	}
	return nil
}

func (s FuncSpec) checkParams(params map[string]string) error {
	for k := range params {
		if !slices.Contains(s.Params, k) {
			return fmt.Errorf("%s has no param %q", s.Name, k)
		}
	}
	return nil
}

// Registry holds the functions computed fields can call.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]FuncSpec
}

// NewRegistry returns a registry with the built-in functions.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[string]FuncSpec)}
	for _, spec := range builtins {
		r.funcs[spec.Name] = spec
	}
	return r
}

// Register adds or replaces a function.
func (r *Registry) Register(spec FuncSpec) error {
	switch {
	case spec.Name == "":
		return errors.New("function name is required")
	case spec.Fn == nil:
		return fmt.Errorf("function %q has no implementation", spec.Name)
	case spec.MinArgs < 0, spec.MaxArgs != Unbounded && spec.MaxArgs < spec.MinArgs:
		return fmt.Errorf("function %q has invalid arg bounds %d..%d", spec.Name, spec.MinArgs, spec.MaxArgs)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[spec.Name] = spec
	return nil
}

// Lookup returns the function registered under name.
func (r *Registry) Lookup(name string) (FuncSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.funcs[name]
	return spec, ok
}

// Names returns the registered function names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

var builtins = []FuncSpec{
	{
		Name: "concat", MinArgs: 1, MaxArgs: Unbounded, Params: []string{"sep"},
		Fn: func(args []string, params map[string]string) (string, error) {
			return strings.Join(args, params["sep"]), nil
		},
	},
	{
		Name: "literal", MinArgs: 0, MaxArgs: 0, Params: []string{"value"},
		Fn: func(_ []string, params map[string]string) (string, error) {
			return params["value"], nil
		},
	},
	{
		Name: "upper", MinArgs: 1, MaxArgs: 1,
		Fn: func(args []string, _ map[string]string) (string, error) {
			return strings.ToUpper(args[0]), nil
		},
	},
	{
		Name: "lower", MinArgs: 1, MaxArgs: 1,
		Fn: func(args []string, _ map[string]string) (string, error) {
			return strings.ToLower(args[0]), nil
		},
	},
	{
		Name: "trim", MinArgs: 1, MaxArgs: 1,
		Fn: func(args []string, _ map[string]string) (string, error) {
			return strings.TrimSpace(args[0]), nil
		},
	},
	{
		Name: "coalesce", MinArgs: 1, MaxArgs: Unbounded,
		Fn: func(args []string, _ map[string]string) (string, error) {
			for _, a := range args {
				if a != "" {
					return a, nil
				}
			}
			return "", nil
		},
	},
	{Name: "date", MinArgs: 1, MaxArgs: 1, Params: []string{"layout"}, Fn: normalizeDate},
	{Name: "number", MinArgs: 1, MaxArgs: 1, Fn: normalizeNumber},
	{Name: "bool", MinArgs: 1, MaxArgs: 1, Params: []string{"yes", "no"}, Fn: normalizeBool},
	{Name: "us_state", MinArgs: 1, MaxArgs: 1, Fn: normalizeUSState},
}
