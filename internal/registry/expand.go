package registry

import "github.com/arclang/arc/internal/model"

// ExpandNames resolves a mixed list of system and group names into the
// deduplicated union of concrete system names they denote.
func ExpandNames(reg *model.Registry, names []string) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	for _, name := range names {
		expanded, err := ExpandGroup(reg, name)
		if err != nil {
			return nil, err
		}
		for sys := range expanded {
			out[sys] = struct{}{}
		}
	}
	return out, nil
}

// AllSystems returns every declared system name in declaration order.
func AllSystems(reg *model.Registry) []string {
	out := make([]string, len(reg.SystemOrder))
	copy(out, reg.SystemOrder)
	return out
}
