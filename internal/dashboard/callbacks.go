package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"superdash/internal/cache"
	"superdash/internal/export"
	"superdash/internal/ui"
)

var (
	ErrUnknownOutput   = errors.New("no callback registered for output")
	ErrDuplicateOutput = errors.New("output already has a callback")
	ErrMissingInput    = errors.New("missing callback input")
)

// Dependency names one property of one component, e.g. "region-dropdown.value".
type Dependency struct {
	ComponentID string
	Property    string
}

func (d Dependency) String() string { return d.ComponentID + "." + d.Property }

// ParseDependency splits "id.prop" at the last dot.
func ParseDependency(s string) (Dependency, error) {
	i := strings.LastIndex(s, ".")
	if i <= 0 || i == len(s)-1 {
		return Dependency{}, fmt.Errorf("malformed dependency %q", s)
	}
	return Dependency{ComponentID: s[:i], Property: s[i+1:]}, nil
}

// Result is what a callback produces for its output: a node to swap into
// the page or a file to download. Both nil means "no update".
type Result struct {
	Node     *ui.Node
	Download *export.Payload
}

// IsEmpty reports whether the callback produced nothing.
func (r Result) IsEmpty() bool { return r.Node == nil && r.Download == nil }

// HandlerFunc receives the input values in the order the inputs were declared.
type HandlerFunc func(ctx context.Context, args []string) (Result, error)

// Callback binds inputs to one output.
type Callback struct {
	Inputs             []Dependency
	Output             Dependency
	PreventInitialCall bool
	Handler            HandlerFunc
}

// Registry maps outputs to callbacks. It is filled at startup and read-only
// afterwards.
type Registry struct {
	callbacks map[string]Callback
	order     []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{callbacks: make(map[string]Callback)}
}

// Register adds cb. Each output may be driven by a single callback, and
// every dependency must survive a round trip through its "id.prop" key.
func (r *Registry) Register(cb Callback) error {
	if len(cb.Inputs) == 0 {
		return fmt.Errorf("callback for %s has no inputs", cb.Output)
	}
	if cb.Handler == nil {
		return fmt.Errorf("callback for %s has no handler", cb.Output)
	}
	for _, d := range append([]Dependency{cb.Output}, cb.Inputs...) {
		parsed, err := ParseDependency(d.String())
		if err != nil || parsed != d {
			return fmt.Errorf("callback for %s: malformed dependency %q", cb.Output, d.String())
		}
	}
	key := cb.Output.String()
	if _, dup := r.callbacks[key]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateOutput, key)
	}
	r.callbacks[key] = cb
	r.order = append(r.order, key)
	return nil
}

// Outputs lists registered outputs in registration order.
func (r *Registry) Outputs() []string { return append([]string(nil), r.order...) }

// Lookup returns the callback driving output.
func (r *Registry) Lookup(output string) (Callback, bool) {
	cb, ok := r.callbacks[output]
	return cb, ok
}

// Dispatch runs the callback for output with values keyed by "id.prop".
// initial marks the call made when the page first loads.
func (r *Registry) Dispatch(ctx context.Context, output string, values map[string]string, initial bool) (Result, error) {
	cb, ok := r.callbacks[output]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownOutput, output)
	}
	if initial && cb.PreventInitialCall {
		return Result{}, nil
	}
	args := make([]string, len(cb.Inputs))
	for i, in := range cb.Inputs {
		v, ok := values[in.String()]
		if !ok {
			return Result{}, fmt.Errorf("%w: %s", ErrMissingInput, in)
		}
		args[i] = v
	}
	return cb.Handler(ctx, args)
}

// Outputs driven by the dashboard callbacks.
var (
	OutputDistribution = Dependency{IDScrollContainer, "children"}
	OutputDownload     = Dependency{IDDownloadData, "data"}
)

// Callbacks registers the dashboard's two callbacks against s. format is the
// download format used when the request does not name one. Encoded payloads
// are kept in payloads when it is non-nil; the table never changes, so an
// entry never goes stale.
func (s *State) Callbacks(format export.Format, payloads cache.Cache[*export.Payload]) (*Registry, error) {
	r := NewRegistry()
	err := r.Register(Callback{
		Inputs: []Dependency{
			{IDCategoryDropdown, "value"},
			{IDRegionDropdown, "value"},
		},
		Output: OutputDistribution,
		Handler: func(ctx context.Context, args []string) (Result, error) {
			n, err := s.Update(ctx, Selection{Category: args[0], Region: args[1]})
			if err != nil {
				return Result{}, err
			}
			return Result{Node: &n}, nil
		},
	})
	if err != nil {
		return nil, err
	}

	err = r.Register(Callback{
		Inputs: []Dependency{
			{IDDownloadButton, "n_clicks"},
			{IDDownloadData, "format"},
		},
		Output:             OutputDownload,
		PreventInitialCall: true,
		Handler: func(ctx context.Context, args []string) (Result, error) {
			clicks := 0
			if v := strings.TrimSpace(args[0]); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil {
					return Result{}, fmt.Errorf("n_clicks %q: %w", args[0], err)
				}
				clicks = n
			}
			f := format
			if strings.TrimSpace(args[1]) != "" {
				var err error
				if f, err = export.ParseFormat(args[1]); err != nil {
					return Result{}, err
				}
			}
			if clicks > 0 && payloads != nil {
				if p, ok := payloads.Get(string(f)); ok {
					return Result{Download: p}, nil
				}
			}
			p, err := s.Export(clicks, f)
			if err != nil {
				return Result{}, err
			}
			if p != nil && payloads != nil {
				payloads.Set(string(f), p)
			}
			return Result{Download: p}, nil
		},
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}
