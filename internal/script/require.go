package script

import (
	"fmt"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// installRequire overrides the global `require` gopher-lua's OpenPackage
// installs, resolving module names relative to the project root (§4.D:
// "resolves require paths") instead of the process's working directory,
// and auto-tagging every task the required file assigns from its logical
// path (§3 invariant 4, §4.C, §8 property 7).
func (r *Runtime) installRequire() {
	r.required = map[string]bool{}
	r.l.SetGlobal("require", r.l.NewFunction(r.require))
}

func (r *Runtime) require(L *lua.LState) int {
	name := L.CheckString(1)

	if r.required[name] {
		return 0
	}

	relPath := strings.ReplaceAll(name, ".", string(filepath.Separator)) + ".lua"
	fullPath := filepath.Join(r.projectRoot, relPath)

	autoTags := strings.Split(strings.ReplaceAll(name, ".", "/"), "/")

	r.required[name] = true
	if err := r.EvalFile(fullPath, autoTags); err != nil {
		return raise(L, fmt.Errorf("require %q: %w", name, err))
	}
	return 0
}
