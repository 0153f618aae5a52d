package dest

import (
	"errors"
	"fmt"
	"sort"

	"cupsdestgolang/internal/model"
)

// maxResolvePasses bounds the resolver fixpoint loop.
const maxResolvePasses = 100

// ErrUnresolvable is the umbrella for every hard resolution failure; the
// specific causes below all match it with errors.Is.
var (
	ErrUnresolvable    = errors.New("conflicts cannot be resolved")
	ErrResolverLoop    = fmt.Errorf("resolver loop: %w", ErrUnresolvable)
	ErrMissingResolver = fmt.Errorf("missing resolver: %w", ErrUnresolvable)
	ErrNotConverging   = fmt.Errorf("resolution not converging: %w", ErrUnresolvable)
)

// Resolution is the outcome of a conflict check or resolution pass.
type Resolution struct {
	Conflicted bool
	Conflicts  []string       // constraints triggered by the initial option set
	Options    []model.Option // option changes that clear the conflicts
}

// Status collapses the outcome into the classic three-way contract:
// 0 no conflict, 1 conflict found (possibly resolved). Hard failures are
// reported as errors by ResolveConflicts and map to -1 at call sites.
func (r *Resolution) Status() int {
	if r == nil || !r.Conflicted {
		return 0
	}
	return 1
}

// CheckConflicts tests the current options plus one proposed change against
// every advertised constraint and returns the names of those triggered.
func (d *Info) CheckConflicts(current []model.Option, name, value string) []string {
	constraints, _ := d.rules()
	effective := d.effectiveOptions(current, name, value)
	var out []string
	for _, c := range constraints {
		if matched, applies := c.matches(effective); applies && matched {
			out = append(out, c.Name)
		}
	}
	return out
}

// ResolveConflicts runs the bounded fixpoint pass: test constraints, apply
// each triggered constraint's resolver, repeat. The returned Resolution
// lists the initially triggered constraints and the option changes (vs the
// caller's options) that clear them. A nil error with Conflicted=false
// means the proposed change is clean.
func (d *Info) ResolveConflicts(current []model.Option, name, value string) (*Resolution, error) {
	constraints, resolvers := d.rules()
	if len(constraints) == 0 {
		return &Resolution{}, nil
	}

	shadow := optionsMap(current)
	if name != "" {
		shadow[name] = value
	}
	result := &Resolution{}
	used := map[string]bool{}

	for pass := 0; pass < maxResolvePasses; pass++ {
		effective := d.effectiveFromMap(shadow)
		var triggered []Rule
		for _, c := range constraints {
			if matched, applies := c.matches(effective); applies && matched {
				triggered = append(triggered, c)
			}
		}
		if len(triggered) == 0 {
			result.Options = d.changedOptions(current, shadow, name, value)
			return result, nil
		}
		if pass == 0 {
			result.Conflicted = true
			for _, c := range triggered {
				result.Conflicts = append(result.Conflicts, c.Name)
			}
		}

		changed := false
		for _, c := range triggered {
			if used[c.Name] {
				d.log.Debug().Str("constraint", c.Name).Msg("resolver already applied, giving up")
				return result, ErrResolverLoop
			}
			resolver, ok := resolvers[c.Name]
			if !ok {
				d.log.Debug().Str("constraint", c.Name).Msg("no resolver advertised")
				return result, ErrMissingResolver
			}
			used[c.Name] = true
			for _, attr := range resolver.Collection {
				if attr.Name == "resolver-name" || attr.Name == name || len(attr.Values) == 0 {
					continue
				}
				newValue := renderValues(attr)
				if shadow[attr.Name] != newValue {
					shadow[attr.Name] = newValue
					changed = true
				}
			}
		}
		if !changed {
			d.log.Debug().Msg("resolver pass changed nothing")
			return result, ErrNotConverging
		}
	}
	d.log.Debug().Int("passes", maxResolvePasses).Msg("conflict resolution did not converge")
	return result, ErrNotConverging
}

// changedOptions diffs the resolved shadow against the caller's options,
// excluding the proposed pair when it survived unchanged.
func (d *Info) changedOptions(current []model.Option, shadow map[string]string, name, value string) []model.Option {
	orig := optionsMap(current)
	var out []model.Option
	for k, v := range shadow {
		if k == name && v == value {
			continue
		}
		if prev, ok := orig[k]; ok && prev == v {
			continue
		}
		out = append(out, model.Option{Name: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// effectiveOptions merges proposed change, current options and the
// destination defaults into one lookup.
func (d *Info) effectiveOptions(current []model.Option, name, value string) map[string]string {
	shadow := optionsMap(current)
	if name != "" {
		shadow[name] = value
	}
	return d.effectiveFromMap(shadow)
}

func (d *Info) effectiveFromMap(options map[string]string) map[string]string {
	effective := map[string]string{}
	for _, opt := range d.DefaultOptions() {
		effective[opt.Name] = opt.Value
	}
	for k, v := range options {
		effective[k] = v
	}
	return effective
}
