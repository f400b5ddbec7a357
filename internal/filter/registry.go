package filter

import (
	"fmt"
	"sort"

	"github.com/spf13/cast"

	"github.com/vedantwpatil/tabletd/internal/geom"
)

// Env carries what filter constructors may need from the running system.
type Env struct {
	// Displays are the active display bounds in screen pixels.
	Displays []geom.Rect
}

// Constructor builds a filter from loosely typed parameters.
type Constructor func(params map[string]any, env Env) (Filter, error)

var registry = map[string]Constructor{
	"smoothing": func(params map[string]any, _ Env) (Filter, error) {
		factor, err := floatParam(params, "factor", 0.5)
		if err != nil {
			return nil, err
		}
		if !(factor >= 0 && factor < 1) {
			return nil, fmt.Errorf("smoothing factor must be in [0, 1), got %g", factor)
		}
		warmup, err := intParam(params, "warmup", 2)
		if err != nil {
			return nil, err
		}
		if warmup < 0 {
			return nil, fmt.Errorf("smoothing warmup must not be negative, got %d", warmup)
		}
		return NewSmoothing(factor, warmup), nil
	},
	"deadzone": func(params map[string]any, _ Env) (Filter, error) {
		radius, err := floatParam(params, "radius", 1)
		if err != nil {
			return nil, err
		}
		if !(radius >= 0) {
			return nil, fmt.Errorf("deadzone radius must not be negative, got %g", radius)
		}
		return Deadzone{Radius: radius}, nil
	},
	"clamp": func(_ map[string]any, env Env) (Filter, error) {
		if len(env.Displays) == 0 {
			return nil, fmt.Errorf("clamp filter needs at least one display")
		}
		displays := make([]geom.Rect, len(env.Displays))
		copy(displays, env.Displays)
		return Clamp{Displays: displays}, nil
	},
	"snap": func(map[string]any, Env) (Filter, error) {
		return Snap{}, nil
	},
}

// Kinds lists the registered filter kinds in sorted order.
func Kinds() []string {
	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// New builds the filter registered under kind.
func New(kind string, params map[string]any, env Env) (Filter, error) {
	ctor, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("unknown filter kind %q", kind)
	}
	f, err := ctor(params, env)
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", kind, err)
	}
	return f, nil
}

func floatParam(params map[string]any, key string, def float64) (float64, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("param %s: %w", key, err)
	}
	return f, nil
}

func intParam(params map[string]any, key string, def int) (int, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("param %s: %w", key, err)
	}
	return i, nil
}
