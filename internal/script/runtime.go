// Package script drives a folio editor from Lua.
//
// A Runtime owns one sandboxed gopher-lua state with the base, table,
// string and math libraries and a global "editor" table:
//
//	editor.insert(path, text [, attrs])
//	editor.element(path, name [, attrs [, text]])
//	editor.select(from [, to])
//	editor.select_all()
//	editor.type(text)
//	editor.execute(name [, force])
//	editor.undo() / editor.redo()
//	editor.value(name) / editor.enabled(name)
//	editor.commands()
//	editor.dump() / editor.markup() / editor.text()
//
// Paths are Lua arrays of model offsets, e.g. {0, 2}. Offsets are not
// shifted to Lua's one-based convention. Errors from the editor are raised
// as Lua errors.
package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/folio/internal/engine/treemodel"
	"github.com/dshills/folio/internal/logging"
)

// DefaultTimeout bounds a single DoString or DoFile call.
const DefaultTimeout = 5 * time.Second

var (
	// ErrClosed is returned when operating on a closed runtime.
	ErrClosed = errors.New("script runtime is closed")

	// ErrTimeout is returned when a script runs past its deadline.
	ErrTimeout = errors.New("script execution timeout")
)

// Host is the editor surface scripts can reach.
type Host interface {
	InsertText(path []int, text string, attrs treemodel.Attributes) error
	InsertElement(path []int, name string, attrs treemodel.Attributes, text string) error
	Select(from, to []int) error
	SelectAll() error
	Type(text string) error
	Execute(name string, args ...any) error
	Undo() error
	Redo() error
	CommandState(name string) (enabled, value bool, err error)
	CommandNames() []string
	Dump() ([]byte, error)
	Markup() string
	Text() string
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithOutput redirects print to w.
func WithOutput(w io.Writer) Option {
	return func(r *Runtime) {
		if w != nil {
			r.out = w
		}
	}
}

// WithTimeout sets the per-call execution timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(r *Runtime) {
		r.timeout = d
	}
}

// WithLogger sets the runtime's logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runtime) {
		if l != nil {
			r.logger = l
		}
	}
}

// Runtime is a sandboxed Lua state bound to a Host.
//
// gopher-lua states are not goroutine-safe; the runtime serializes calls
// with its own mutex.
type Runtime struct {
	mu sync.Mutex
	L  *lua.LState

	host    Host
	out     io.Writer
	timeout time.Duration
	logger  *logging.Logger

	closed bool
}

// New creates a runtime whose editor table drives host.
func New(host Host, opts ...Option) *Runtime {
	r := &Runtime{
		host:    host,
		out:     os.Stdout,
		timeout: DefaultTimeout,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithComponent("script")

	r.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(r.L)
	r.installPrint()
	r.L.SetGlobal("editor", r.editorTable())
	return r
}

// openSafeLibraries opens the libraries without file system, process or
// module loading access.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

func (r *Runtime) installPrint() {
	r.L.SetGlobal("print", r.L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		fmt.Fprintln(r.out, strings.Join(parts, "\t"))
		return 0
	}))
}

// DoString runs a chunk of Lua code.
func (r *Runtime) DoString(ctx context.Context, code string) error {
	return r.run(ctx, "chunk", func() error {
		return r.L.DoString(code)
	})
}

// DoFile runs the Lua file at path.
func (r *Runtime) DoFile(ctx context.Context, path string) error {
	return r.run(ctx, path, func() error {
		return r.L.DoFile(path)
	})
}

func (r *Runtime) run(ctx context.Context, name string, fn func() error) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	r.L.SetContext(ctx)
	defer r.L.RemoveContext()

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("lua panic: %v", rec)
		}
	}()

	start := time.Now()
	err = fn()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", ErrTimeout, name)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Debug("%s failed: %v", name, err)
		return err
	}
	r.logger.Debug("%s finished in %s", name, time.Since(start))
	return nil
}

// Close releases the Lua state.
func (r *Runtime) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.L.Close()
}
