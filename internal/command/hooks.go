package command

import (
	"sort"
	"sync"
	"time"

	"github.com/dshills/folio/internal/logging"
)

// Invocation describes one registry execution.
type Invocation struct {
	Name  string
	Args  []any
	Start time.Time
}

// PreExecuteHook runs before a command. Returning false cancels it.
type PreExecuteHook interface {
	PreExecute(inv *Invocation) bool
}

// PostExecuteHook runs after a command with its error.
type PostExecuteHook interface {
	PostExecute(inv *Invocation, err error)
}

// PreExecuteFunc is a function adapter for PreExecuteHook.
type PreExecuteFunc func(inv *Invocation) bool

// PreExecute implements PreExecuteHook.
func (f PreExecuteFunc) PreExecute(inv *Invocation) bool {
	return f(inv)
}

// PostExecuteFunc is a function adapter for PostExecuteHook.
type PostExecuteFunc func(inv *Invocation, err error)

// PostExecute implements PostExecuteHook.
func (f PostExecuteFunc) PostExecute(inv *Invocation, err error) {
	f(inv, err)
}

type registeredHook struct {
	priority int
	pre      PreExecuteHook
	post     PostExecuteHook
}

type hooks struct {
	mu    sync.RWMutex
	items []registeredHook
}

// AddPreHook registers a pre-execute hook. Higher priorities run first.
func (r *Registry) AddPreHook(h PreExecuteHook, priority int) {
	r.hooks.add(registeredHook{priority: priority, pre: h})
}

// AddPostHook registers a post-execute hook. Higher priorities run last.
func (r *Registry) AddPostHook(h PostExecuteHook, priority int) {
	r.hooks.add(registeredHook{priority: priority, post: h})
}

func (h *hooks) add(rh registeredHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = append(h.items, rh)
	sort.SliceStable(h.items, func(i, j int) bool {
		return h.items[i].priority > h.items[j].priority
	})
}

func (h *hooks) pre(inv *Invocation) bool {
	inv.Start = time.Now()
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, rh := range h.items {
		if rh.pre != nil && !rh.pre.PreExecute(inv) {
			return false
		}
	}
	return true
}

func (h *hooks) post(inv *Invocation, err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for i := len(h.items) - 1; i >= 0; i-- {
		if rh := h.items[i]; rh.post != nil {
			rh.post.PostExecute(inv, err)
		}
	}
}

// AuditHook logs every executed command at debug level.
type AuditHook struct {
	logger *logging.Logger
}

// NewAuditHook creates an audit hook writing to logger.
func NewAuditHook(logger *logging.Logger) *AuditHook {
	return &AuditHook{logger: logger}
}

// PreExecute implements PreExecuteHook.
func (h *AuditHook) PreExecute(inv *Invocation) bool {
	h.logger.Debug("execute %s %v", inv.Name, inv.Args)
	return true
}

// PostExecute implements PostExecuteHook.
func (h *AuditHook) PostExecute(inv *Invocation, err error) {
	if err != nil {
		h.logger.Warn("command %s failed after %s: %v", inv.Name, time.Since(inv.Start), err)
		return
	}
	h.logger.Debug("command %s done in %s", inv.Name, time.Since(inv.Start))
}
