// Package plugin provides discovery and execution of the external
// subsystem experiences that run behind the complex stage.
package plugin

import "encoding/json"

// Manifest describes a plugin's metadata and the subsystems it serves.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Subsystems   []string        `json:"subsystems"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Request represents a lifecycle request sent to a plugin.
type Request struct {
	Op        string          `json:"op"`
	Subsystem string          `json:"subsystem"`
	Config    json.RawMessage `json:"config,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
}

// Lifecycle operations understood by every plugin.
const (
	OpStart = "start"
	OpStop  = "stop"
)

// Response represents the response from a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Serves reports whether the plugin handles the named subsystem.
func (p *Plugin) Serves(subsystem string) bool {
	for _, s := range p.Manifest.Subsystems {
		if s == subsystem {
			return true
		}
	}
	return false
}
