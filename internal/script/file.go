package script

import (
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/arclang/arc/internal/content"
	"github.com/arclang/arc/internal/transport"
)

type fileUserData struct {
	runtime   *Runtime
	transport transport.Transport
	path      string
}

type directoryUserData struct {
	runtime   *Runtime
	transport transport.Transport
	path      string
}

func (r *Runtime) registerFileType() {
	mt := r.l.NewTypeMetatable(typeNameFile)
	r.l.SetField(mt, "__index", r.l.NewFunction(r.fileIndex))
	r.l.SetField(mt, "__newindex", r.l.NewFunction(r.fileNewIndex))
}

func (r *Runtime) registerDirectoryType() {
	mt := r.l.NewTypeMetatable(typeNameDirectory)
	r.l.SetField(mt, "__index", r.l.NewFunction(r.directoryIndex))
	r.l.SetField(mt, "__newindex", r.l.NewFunction(r.directoryNewIndex))
}

func (r *Runtime) pushFile(t transport.Transport, path string) *lua.LUserData {
	ud := r.l.NewUserData()
	ud.Value = &fileUserData{runtime: r, transport: t, path: path}
	ud.Metatable = r.l.GetTypeMetatable(typeNameFile)
	return ud
}

func (r *Runtime) pushDirectory(t transport.Transport, path string) *lua.LUserData {
	ud := r.l.NewUserData()
	ud.Value = &directoryUserData{runtime: r, transport: t, path: path}
	ud.Metatable = r.l.GetTypeMetatable(typeNameDirectory)
	return ud
}

func checkFile(L *lua.LState, n int) *fileUserData {
	ud := L.CheckUserData(n)
	f, ok := ud.Value.(*fileUserData)
	if !ok {
		L.ArgError(n, "expected a file value")
		return nil
	}
	return f
}

func checkDirectory(L *lua.LState, n int) *directoryUserData {
	ud := L.CheckUserData(n)
	d, ok := ud.Value.(*directoryUserData)
	if !ok {
		L.ArgError(n, "expected a directory value")
		return nil
	}
	return d
}

// fileIndex implements file's __index: computed .content/.path/.permissions
// properties (§4.B: "access to .content triggers a read_stream").
func (r *Runtime) fileIndex(L *lua.LState) int {
	f := checkFile(L, 1)
	key := L.CheckString(2)

	switch key {
	case "content":
		L.Push(r.pushContent(f.transport, f.path))
		return 1
	case "path":
		L.Push(lua.LString(f.path))
		return 1
	case "permissions":
		meta, err := f.transport.Stat(r.ctx, f.path)
		if err != nil {
			return raise(L, err)
		}
		if meta == nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(meta.Permissions))
		return 1
	default:
		L.Push(lua.LNil)
		return 1
	}
}

// fileNewIndex implements file's __newindex: assigning .content writes or
// streams (§4.G); assigning .path renames; assigning .permissions chmods.
func (r *Runtime) fileNewIndex(L *lua.LState) int {
	f := checkFile(L, 1)
	key := L.CheckString(2)
	value := L.Get(3)

	switch key {
	case "content":
		if err := r.assignContent(f.transport, f.path, value); err != nil {
			return raise(L, err)
		}
		return 0
	case "path":
		newPath := L.CheckString(3)
		if err := f.transport.Rename(r.ctx, f.path, newPath); err != nil {
			return raise(L, err)
		}
		f.path = newPath
		return 0
	case "permissions":
		mode := uint32(L.CheckNumber(3))
		if err := f.transport.Chmod(r.ctx, f.path, mode); err != nil {
			return raise(L, err)
		}
		return 0
	default:
		L.RaiseError("file has no writable field %q", key)
		return 0
	}
}

func (r *Runtime) directoryIndex(L *lua.LState) int {
	d := checkDirectory(L, 1)
	key := L.CheckString(2)

	switch key {
	case "path":
		L.Push(lua.LString(d.path))
		return 1
	case "permissions":
		meta, err := d.transport.Stat(r.ctx, d.path)
		if err != nil {
			return raise(L, err)
		}
		if meta == nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(meta.Permissions))
		return 1
	case "entries":
		L.Push(L.NewFunction(r.directoryEntries))
		return 1
	default:
		L.Push(lua.LNil)
		return 1
	}
}

func (r *Runtime) directoryNewIndex(L *lua.LState) int {
	d := checkDirectory(L, 1)
	key := L.CheckString(2)

	switch key {
	case "path":
		newPath := L.CheckString(3)
		if err := d.transport.Rename(r.ctx, d.path, newPath); err != nil {
			return raise(L, err)
		}
		d.path = newPath
		return 0
	case "permissions":
		mode := uint32(L.CheckNumber(3))
		if err := d.transport.Chmod(r.ctx, d.path, mode); err != nil {
			return raise(L, err)
		}
		return 0
	default:
		L.RaiseError("directory has no writable field %q", key)
		return 0
	}
}

// directoryEntries implements directory:entries() — a method, not a
// property, because it always performs a fresh listing (§4.B).
func (r *Runtime) directoryEntries(L *lua.LState) int {
	d := checkDirectory(L, 1)

	names, err := d.transport.List(r.ctx, d.path)
	if err != nil {
		return raise(L, err)
	}
	sort.Strings(names)

	out := L.NewTable()
	for i, name := range names {
		childPath := filepath.Join(d.path, name)
		meta, err := d.transport.Stat(r.ctx, childPath)
		if err != nil {
			return raise(L, err)
		}

		var entry *lua.LUserData
		if meta != nil && meta.Type == transport.EntryTypeDirectory {
			entry = r.pushDirectory(d.transport, childPath)
		} else {
			entry = r.pushFile(d.transport, childPath)
		}
		out.RawSetInt(i+1, entry)
	}

	L.Push(out)
	return 1
}

// assignContent implements the two forms of `handle.content = ...` from
// §4.G: another handle's content (streaming copy), or a plain string
// (direct write). Any other value is ignored.
func (r *Runtime) assignContent(dst transport.Transport, dstPath string, value lua.LValue) error {
	c := content.New(dst, dstPath)

	if ud, ok := value.(*lua.LUserData); ok {
		if src, ok := ud.Value.(*fileContentUserData); ok {
			return c.CopyFrom(r.ctx, src.content)
		}
	}
	if s, ok := value.(lua.LString); ok {
		return c.WriteString(r.ctx, string(s))
	}
	return nil
}
