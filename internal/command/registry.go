package command

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps names to commands.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Executable
	hooks    hooks
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Executable)}
}

// Add registers cmd under name.
func (r *Registry) Add(name string, cmd Executable) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.commands[name]; ok {
		return fmt.Errorf("%w: %q", ErrCommandExists, name)
	}
	r.commands[name] = cmd
	return nil
}

// Get returns the command registered under name.
func (r *Registry) Get(name string) (Executable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmd, ok := r.commands[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCommandNotFound, name)
	}
	return cmd, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.commands[name]
	return ok
}

// Remove unregisters and destroys the command under name.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	cmd, ok := r.commands[name]
	delete(r.commands, name)
	r.mu.Unlock()

	if ok {
		cmd.Destroy()
	}
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs the command registered under name, passing it through the
// registered hooks. A disabled command is not run and yields nil.
func (r *Registry) Execute(name string, args ...any) error {
	cmd, err := r.Get(name)
	if err != nil {
		return err
	}
	if !cmd.IsEnabled() {
		return nil
	}

	inv := &Invocation{Name: name, Args: args}
	if !r.hooks.pre(inv) {
		return fmt.Errorf("%w: %q", ErrCancelled, name)
	}
	err = cmd.Execute(inv.Args...)
	r.hooks.post(inv, err)
	return err
}

// RefreshAll recomputes the enabled state of every command.
func (r *Registry) RefreshAll() {
	r.mu.RLock()
	cmds := make([]Executable, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	r.mu.RUnlock()

	for _, cmd := range cmds {
		cmd.Refresh()
	}
}

// Destroy destroys and removes every command.
func (r *Registry) Destroy() {
	r.mu.Lock()
	cmds := r.commands
	r.commands = make(map[string]Executable)
	r.mu.Unlock()

	for _, cmd := range cmds {
		cmd.Destroy()
	}
}
