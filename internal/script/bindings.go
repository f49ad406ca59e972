package script

import (
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/folio/internal/engine/treemodel"
)

// editorTable builds the global editor table.
func (r *Runtime) editorTable() *lua.LTable {
	L := r.L
	t := L.NewTable()
	L.SetFuncs(t, map[string]lua.LGFunction{
		"insert":     r.luaInsert,
		"element":    r.luaElement,
		"select":     r.luaSelect,
		"select_all": r.luaSelectAll,
		"type":       r.luaType,
		"execute":    r.luaExecute,
		"undo":       r.luaUndo,
		"redo":       r.luaRedo,
		"value":      r.luaValue,
		"enabled":    r.luaEnabled,
		"commands":   r.luaCommands,
		"dump":       r.luaDump,
		"markup":     r.luaMarkup,
		"text":       r.luaText,
	})
	return t
}

func (r *Runtime) luaInsert(L *lua.LState) int {
	path := checkPath(L, 1)
	text := L.CheckString(2)
	attrs := optAttributes(L, 3)
	raise(L, r.host.InsertText(path, text, attrs))
	return 0
}

func (r *Runtime) luaElement(L *lua.LState) int {
	path := checkPath(L, 1)
	name := L.CheckString(2)
	attrs := optAttributes(L, 3)
	text := L.OptString(4, "")
	raise(L, r.host.InsertElement(path, name, attrs, text))
	return 0
}

func (r *Runtime) luaSelect(L *lua.LState) int {
	from := checkPath(L, 1)
	var to []int
	if L.GetTop() >= 2 && L.Get(2) != lua.LNil {
		to = checkPath(L, 2)
	}
	raise(L, r.host.Select(from, to))
	return 0
}

func (r *Runtime) luaSelectAll(L *lua.LState) int {
	raise(L, r.host.SelectAll())
	return 0
}

func (r *Runtime) luaType(L *lua.LState) int {
	raise(L, r.host.Type(L.CheckString(1)))
	return 0
}

func (r *Runtime) luaExecute(L *lua.LState) int {
	name := L.CheckString(1)
	var err error
	if L.GetTop() >= 2 && L.Get(2) != lua.LNil {
		err = r.host.Execute(name, L.CheckBool(2))
	} else {
		err = r.host.Execute(name)
	}
	raise(L, err)
	return 0
}

func (r *Runtime) luaUndo(L *lua.LState) int {
	raise(L, r.host.Undo())
	return 0
}

func (r *Runtime) luaRedo(L *lua.LState) int {
	raise(L, r.host.Redo())
	return 0
}

func (r *Runtime) luaValue(L *lua.LState) int {
	_, value, err := r.host.CommandState(L.CheckString(1))
	raise(L, err)
	L.Push(lua.LBool(value))
	return 1
}

func (r *Runtime) luaEnabled(L *lua.LState) int {
	enabled, _, err := r.host.CommandState(L.CheckString(1))
	raise(L, err)
	L.Push(lua.LBool(enabled))
	return 1
}

func (r *Runtime) luaCommands(L *lua.LState) int {
	t := L.NewTable()
	for i, name := range r.host.CommandNames() {
		t.RawSetInt(i+1, lua.LString(name))
	}
	L.Push(t)
	return 1
}

func (r *Runtime) luaDump(L *lua.LState) int {
	data, err := r.host.Dump()
	raise(L, err)
	L.Push(lua.LString(data))
	return 1
}

func (r *Runtime) luaMarkup(L *lua.LState) int {
	L.Push(lua.LString(r.host.Markup()))
	return 1
}

func (r *Runtime) luaText(L *lua.LState) int {
	L.Push(lua.LString(r.host.Text()))
	return 1
}

// raise turns a Go error into a Lua error. RaiseError does not return.
func raise(L *lua.LState, err error) {
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
}

// checkPath reads a position path from a Lua array of integers.
func checkPath(L *lua.LState, n int) []int {
	t := L.CheckTable(n)
	size := t.Len()
	if size == 0 {
		L.ArgError(n, "path must not be empty")
	}
	path := make([]int, size)
	for i := 1; i <= size; i++ {
		num, ok := t.RawGetInt(i).(lua.LNumber)
		if !ok || float64(num) != math.Trunc(float64(num)) {
			L.ArgError(n, fmt.Sprintf("path element %d is not an integer", i))
		}
		path[i-1] = int(num)
	}
	return path
}

// optAttributes reads an optional table of attributes.
func optAttributes(L *lua.LState, n int) treemodel.Attributes {
	t := L.OptTable(n, nil)
	if t == nil {
		return nil
	}
	attrs := make(treemodel.Attributes)
	t.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok {
			L.ArgError(n, "attribute keys must be strings")
		}
		val, ok := toGoValue(v)
		if !ok {
			L.ArgError(n, fmt.Sprintf("attribute %q has unsupported type %s", string(key), v.Type()))
		}
		attrs[string(key)] = val
	})
	return attrs
}

// toGoValue converts a scalar Lua value. Integral numbers become int64.
func toGoValue(lv lua.LValue) (any, bool) {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v), true
	case lua.LString:
		return string(v), true
	case lua.LNumber:
		f := float64(v)
		if f == math.Trunc(f) {
			return int64(f), true
		}
		return f, true
	default:
		return nil, false
	}
}
