// Package selector implements the §4.E selection algorithm: turning CLI
// filters plus a frozen model.Registry into the per-system effective task
// lists the Executor consumes.
package selector

import (
	"fmt"

	"github.com/arclang/arc/internal/model"
	"github.com/arclang/arc/internal/registry"
)

// Filters mirrors the CLI flags that drive selection (§6).
type Filters struct {
	Tags       []string
	AllTags    bool
	Systems    []string
	Groups     []string
	AllSystems bool
	NoReqs     bool
}

// Result is the selector's pure output: the resolved system set (in
// registry declaration order) and, for each of those systems, its
// definition-ordered effective task list.
type Result struct {
	Systems       []string
	EffectiveList map[string][]*model.Task
}

// Select runs the §4.E algorithm against reg. It is pure: repeated calls
// with the same reg and filters produce the same Result (§8 property 4).
func Select(reg *model.Registry, f Filters) (*Result, error) {
	systems, err := resolveSystems(reg, f)
	if err != nil {
		return nil, err
	}
	if len(systems) == 0 {
		return nil, fmt.Errorf("no systems matched the given --system/--group filters: %w", model.ErrNotValid)
	}

	selected, err := explicitlySelected(reg, f)
	if err != nil {
		return nil, err
	}

	if !f.NoReqs {
		closeRequires(reg, selected)
	}

	for _, t := range reg.Tasks {
		if t.Important {
			selected[t.Name] = true
		}
	}

	effective := map[string][]*model.Task{}
	for _, sys := range systems {
		var list []*model.Task
		for _, t := range reg.OrderedTasks() {
			if !selected[t.Name] {
				continue
			}
			eligible, err := taskAppliesTo(reg, t, sys)
			if err != nil {
				return nil, err
			}
			if eligible {
				list = append(list, t)
			}
		}
		effective[sys] = list
	}

	return &Result{Systems: systems, EffectiveList: effective}, nil
}

func resolveSystems(reg *model.Registry, f Filters) ([]string, error) {
	if f.AllSystems {
		return registry.AllSystems(reg), nil
	}

	set, err := registry.ExpandNames(reg, append(append([]string{}, f.Systems...), f.Groups...))
	if err != nil {
		return nil, err
	}

	// Preserve registry declaration order over the resolved set.
	var out []string
	for _, name := range reg.SystemOrder {
		if _, ok := set[name]; ok {
			out = append(out, name)
		}
	}
	return out, nil
}

func explicitlySelected(reg *model.Registry, f Filters) (map[string]bool, error) {
	selected := map[string]bool{}

	if f.AllTags {
		for name := range reg.Tasks {
			selected[name] = true
		}
		return selected, nil
	}

	tagSet := map[string]bool{}
	for _, tag := range f.Tags {
		tagSet[tag] = true
	}

	for _, tag := range f.Tags {
		matched := false
		for _, t := range reg.Tasks {
			if t.HasTag(tag) {
				matched = true
				break
			}
		}
		if !matched {
			return nil, fmt.Errorf("tag %q matches no task: %w", tag, model.ErrNotFound)
		}
	}

	for _, t := range reg.Tasks {
		for tag := range t.Tags {
			if tagSet[tag] {
				selected[t.Name] = true
				break
			}
		}
	}
	return selected, nil
}

// closeRequires extends selected to its transitive requires-closure fixpoint
// (§4.E step 3, §8 property 5: adding to the initial selection is monotone).
func closeRequires(reg *model.Registry, selected map[string]bool) {
	for {
		grew := false
		for _, t := range reg.Tasks {
			if !selected[t.Name] {
				continue
			}
			for _, req := range t.Requires {
				for _, holder := range reg.Tasks {
					if !selected[holder.Name] && holder.HasTag(req) {
						selected[holder.Name] = true
						grew = true
					}
				}
			}
		}
		if !grew {
			return
		}
	}
}

// taskAppliesTo reports whether t is eligible on sys: its Targets list
// (expanded through group membership) is empty, or contains sys (§4.E step 5).
func taskAppliesTo(reg *model.Registry, t *model.Task, sys string) (bool, error) {
	if len(t.Targets) == 0 {
		return true, nil
	}

	set, err := registry.ExpandNames(reg, t.Targets)
	if err != nil {
		return false, fmt.Errorf("task %q: %w", t.Name, err)
	}
	_, ok := set[sys]
	return ok, nil
}
