package plugin

import (
	"fmt"
	"log"
	"sync"

	"github.com/ayusman/projecto/internal/stage"
)

// Host adapts the plugin manager and executor to the stage controller's
// subsystem lifecycle. It implements stage.SubsystemHost.
type Host struct {
	manager  *Manager
	executor *Executor
	log      *log.Logger

	mu     sync.Mutex
	active *Plugin
	sub    stage.Subsystem
}

// NewHost creates a Host over the given manager and executor.
func NewHost(manager *Manager, executor *Executor, logger *log.Logger) *Host {
	return &Host{
		manager:  manager,
		executor: executor,
		log:      logger,
	}
}

// Start launches the plugin serving the named subsystem. A subsystem
// with no installed plugin starts successfully with no external process;
// the arm behavior for it is built in.
func (h *Host) Start(sub stage.Subsystem) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.active != nil {
		h.stopLocked()
	}

	p, err := h.manager.ForSubsystem(string(sub))
	if err != nil {
		h.log.Printf("plugin: no plugin for subsystem %s, running built-in only", sub)
		h.sub = sub
		return nil
	}

	resp, err := h.executor.Execute(p, &Request{Op: OpStart, Subsystem: string(sub)})
	if err != nil {
		return fmt.Errorf("starting %s: %w", p.Manifest.Name, err)
	}
	if !resp.Success {
		return fmt.Errorf("starting %s: %s", p.Manifest.Name, resp.Error)
	}

	h.active = p
	h.sub = sub
	return nil
}

// Stop shuts down the active plugin, if any. Stop failures are logged,
// not returned: the stage transition must not be blocked by a plugin.
func (h *Host) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopLocked()
}

// Active returns the subsystem currently hosted, or empty.
func (h *Host) Active() stage.Subsystem {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active == nil && h.sub == "" {
		return ""
	}
	return h.sub
}

func (h *Host) stopLocked() {
	if h.active != nil {
		resp, err := h.executor.Execute(h.active, &Request{Op: OpStop, Subsystem: string(h.sub)})
		if err != nil {
			h.log.Printf("plugin: stopping %s: %v", h.active.Manifest.Name, err)
		} else if !resp.Success {
			h.log.Printf("plugin: stopping %s: %s", h.active.Manifest.Name, resp.Error)
		}
	}
	h.active = nil
	h.sub = ""
}
